package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/escolarhq/escolar/core"
)

// Page layout constants, in mm.
const (
	pdfMargin        = 10.0
	pdfRowHeight     = 8.0
	pdfTableHeaderH  = 8.0
	pdfHeaderZoneH   = 30.0 // full title block and continuation banner reserve the same zone
	pdfFooterReserve = 12.0
)

// Per-column character budgets; truncation is a rendering concern only,
// the underlying row data is untouched.
const (
	truncName    = 25
	truncAddress = 20
	truncPhone   = 15
	truncEmail   = 20
)

type (
	// DocumentConfig drives the paginated PDF output.
	DocumentConfig struct {
		MaxRows       int
		MaxFileSizeMB int
		Timeout       time.Duration
		PageFormat    string // "a4" | "letter"
		Orientation   string // "portrait" | "landscape"
		IncludeHeader bool
		IncludeFooter bool
	}

	// pdfPage holds the rows of one page; the page model is built
	// completely before rendering so footers know the total up front.
	pdfPage struct {
		rows         []Row
		continuation bool
	}

	pdfRenderer struct {
		cfg DocumentConfig
	}
)

func DefaultDocumentConfig(conf core.ExportConfig) DocumentConfig {
	return DocumentConfig{
		MaxRows:       conf.MaxRows,
		MaxFileSizeMB: conf.MaxPDFSizeMB,
		Timeout:       conf.Timeout,
		PageFormat:    "a4",
		Orientation:   "portrait",
		IncludeHeader: true,
		IncludeFooter: true,
	}
}

func (r pdfRenderer) render(ctx context.Context, rows []Row, meta Metadata, stem string) (Artifact, error) {
	if err := checkBounds(len(rows), r.cfg.MaxRows); err != nil {
		return Artifact{}, err
	}

	type result struct {
		artifact Artifact
		err      error
	}
	done := make(chan result, 1)
	go func() {
		artifact, err := r.build(rows, meta, stem)
		done <- result{artifact, err}
	}()

	timeout := r.cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return Artifact{}, classify(res.err)
		}
		return res.artifact, nil
	case <-ctx.Done():
		return Artifact{}, WrapError(KindGeneration, "la exportación fue cancelada", ctx.Err())
	case <-timer.C:
		return Artifact{}, NewError(KindGeneration, "la generación superó el tiempo máximo permitido")
	}
}

func (r pdfRenderer) build(rows []Row, meta Metadata, stem string) (Artifact, error) {
	orient, pageFmt := "P", "A4"
	if r.cfg.Orientation == "landscape" {
		orient = "L"
	}
	if r.cfg.PageFormat == "letter" {
		pageFmt = "Letter"
	}

	pdf := gofpdf.New(orient, "mm", pageFmt, "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0) // pagination is ours
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	widths := scaleWidths(columnWidths(orient == "L", meta.IncludeStats), pageW-2*pdfMargin)
	headers := pdfHeaders(meta.IncludeStats)

	pages := planPages(rows, r.pageCapacity(pageH))
	total := len(pages)

	for i, page := range pages {
		pdf.AddPage()
		if r.cfg.IncludeHeader {
			r.drawHeaderZone(pdf, tr, meta, page.continuation)
		} else {
			pdf.SetY(pdfMargin)
		}
		r.drawTableHeader(pdf, tr, headers, widths)
		for _, row := range page.rows {
			r.drawRow(pdf, tr, row, meta.IncludeStats, widths)
		}
		if r.cfg.IncludeFooter {
			r.drawFooter(pdf, tr, i+1, total, pageW, pageH)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Artifact{}, err
	}
	if max := int64(r.cfg.MaxFileSizeMB) * 1024 * 1024; max > 0 && int64(buf.Len()) > max {
		return Artifact{}, NewError(KindGeneration,
			fmt.Sprintf("el archivo generado supera el tamaño máximo permitido (%d MB)", r.cfg.MaxFileSizeMB))
	}

	return Artifact{
		Filename:    stem + ".pdf",
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
	}, nil
}

// pageCapacity computes how many data rows fit on a page given the
// reserved zones. Always at least 1 so table headers are never orphaned.
func (r pdfRenderer) pageCapacity(pageH float64) int {
	usable := pageH - 2*pdfMargin - pdfTableHeaderH
	if r.cfg.IncludeHeader {
		usable -= pdfHeaderZoneH
	}
	if r.cfg.IncludeFooter {
		usable -= pdfFooterReserve
	}
	capacity := int(usable / pdfRowHeight)
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// planPages chunks rows into the in-memory page model; rows never split
// across a page boundary.
func planPages(rows []Row, capacity int) []pdfPage {
	var pages []pdfPage
	for start := 0; start < len(rows); start += capacity {
		end := start + capacity
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, pdfPage{rows: rows[start:end], continuation: start > 0})
	}
	return pages
}

// pdfHeaders is the reduced column set of the printable document:
// 5 base columns, or 8 when statistics are included.
func pdfHeaders(includeStats bool) []string {
	hs := []string{"Nombre", "Dirección", "Teléfono", "Email", "Fecha de Creación"}
	if includeStats {
		hs = append(hs, "Cursos", "Estudiantes", "Profesores")
	}
	return hs
}

func pdfCells(row Row, includeStats bool) []string {
	cells := []string{
		truncate(row.Name, truncName),
		truncate(row.Address, truncAddress),
		truncate(row.Phone, truncPhone),
		truncate(row.Email, truncEmail),
		row.CreatedAt,
	}
	if includeStats {
		cells = append(cells,
			fmt.Sprintf("%d", row.Courses),
			fmt.Sprintf("%d", row.Students),
			fmt.Sprintf("%d", row.Professors),
		)
	}
	return cells
}

// Width tables pre-tuned per orientation for A4; scaleWidths shrinks them
// proportionally for narrower formats.
var (
	baseWidthsPortrait   = []float64{45, 40, 30, 45, 30}
	baseWidthsLandscape  = []float64{65, 55, 40, 65, 52}
	statsWidthsPortrait  = []float64{35, 30, 22, 33, 24, 15, 16, 15}
	statsWidthsLandscape = []float64{48, 40, 30, 45, 32, 27, 28, 27}
)

func columnWidths(landscape, includeStats bool) []float64 {
	switch {
	case includeStats && landscape:
		return statsWidthsLandscape
	case includeStats:
		return statsWidthsPortrait
	case landscape:
		return baseWidthsLandscape
	default:
		return baseWidthsPortrait
	}
}

// scaleWidths shrinks every column by the same factor when the total
// exceeds the printable width; columns are never clipped silently.
func scaleWidths(widths []float64, available float64) []float64 {
	var total float64
	for _, w := range widths {
		total += w
	}
	if total <= available {
		return widths
	}
	factor := available / total
	scaled := make([]float64, len(widths))
	for i, w := range widths {
		scaled[i] = w * factor
	}
	return scaled
}

func (r pdfRenderer) drawHeaderZone(pdf *gofpdf.Fpdf, tr func(string) string, meta Metadata, continuation bool) {
	pdf.SetY(pdfMargin)
	if continuation {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, tr("Listado de Instituciones (continuación)"), "", 1, "L", false, 0, "")
	} else {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr("Listado de Instituciones"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr("Generado: "+meta.GeneratedAt.Format(displayDateFormat)), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr("Rango: "+meta.RangeDesc), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Total: %d — %s", meta.Total, meta.StatsNote())), "", 1, "L", false, 0, "")
	}
	// both variants reserve the same zone so page capacity stays uniform
	pdf.SetY(pdfMargin + pdfHeaderZoneH)
}

func (r pdfRenderer) drawTableHeader(pdf *gofpdf.Fpdf, tr func(string) string, headers []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], pdfTableHeaderH, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func (r pdfRenderer) drawRow(pdf *gofpdf.Fpdf, tr func(string) string, row Row, includeStats bool, widths []float64) {
	pdf.SetFont("Helvetica", "", 8)
	for i, cell := range pdfCells(row, includeStats) {
		align := "L"
		if includeStats && i >= 5 {
			align = "R"
		}
		pdf.CellFormat(widths[i], pdfRowHeight, tr(cell), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func (r pdfRenderer) drawFooter(pdf *gofpdf.Fpdf, tr func(string) string, page, total int, pageW, pageH float64) {
	pdf.SetY(pageH - pdfMargin - 6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(pageW-2*pdfMargin, 6, tr(fmt.Sprintf("Página %d de %d", page, total)), "T", 0, "C", false, 0, "")
}

// truncate cuts s to max runes, appending an ellipsis when it was longer.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
