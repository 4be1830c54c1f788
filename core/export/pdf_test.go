package export

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDocumentConfig() DocumentConfig {
	return DefaultDocumentConfig(testExportConfig())
}

func TestPlanPages(t *testing.T) {
	makeRows := func(n int) []Row {
		rows := make([]Row, n)
		for i := range rows {
			rows[i] = Row{Name: fmt.Sprintf("Colegio %d", i+1)}
		}
		return rows
	}

	tests := []struct {
		rows      int
		capacity  int
		wantPages int
	}{
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{100, 7, 15}, // ceil(100/7)
	}
	for _, tt := range tests {
		pages := planPages(makeRows(tt.rows), tt.capacity)
		assert.Len(t, pages, tt.wantPages, "rows=%d capacity=%d", tt.rows, tt.capacity)

		// rows are never split and never lost
		var total int
		for i, page := range pages {
			assert.LessOrEqual(t, len(page.rows), tt.capacity)
			assert.NotEmpty(t, page.rows, "a page must never hold an orphaned header")
			assert.Equal(t, i > 0, page.continuation)
			total += len(page.rows)
		}
		assert.Equal(t, tt.rows, total)

		// order preserved across page boundaries
		assert.Equal(t, "Colegio 1", pages[0].rows[0].Name)
		last := pages[len(pages)-1].rows
		assert.Equal(t, fmt.Sprintf("Colegio %d", tt.rows), last[len(last)-1].Name)
	}
}

func TestPageCapacity(t *testing.T) {
	r := pdfRenderer{cfg: testDocumentConfig()}
	const a4Height = 297.0

	full := r.pageCapacity(a4Height)
	assert.Greater(t, full, 1)

	r.cfg.IncludeHeader = false
	noHeader := r.pageCapacity(a4Height)
	assert.Greater(t, noHeader, full)

	r.cfg.IncludeFooter = false
	noChrome := r.pageCapacity(a4Height)
	assert.Greater(t, noChrome, noHeader)

	// degenerate page still fits one row so headers are never orphaned
	assert.Equal(t, 1, pdfRenderer{cfg: testDocumentConfig()}.pageCapacity(20))
}

func TestScaleWidths(t *testing.T) {
	widths := []float64{50, 30, 20} // sum 100

	// fits: untouched
	assert.Equal(t, widths, scaleWidths(widths, 100))
	assert.Equal(t, widths, scaleWidths(widths, 150))

	// overflow: every column shrinks by the same factor
	scaled := scaleWidths(widths, 80)
	assert.InDelta(t, 40, scaled[0], 0.001)
	assert.InDelta(t, 24, scaled[1], 0.001)
	assert.InDelta(t, 16, scaled[2], 0.001)

	var total float64
	for _, w := range scaled {
		total += w
	}
	assert.InDelta(t, 80, total, 0.001)
}

func TestColumnWidthsMatchHeaders(t *testing.T) {
	for _, includeStats := range []bool{false, true} {
		for _, landscape := range []bool{false, true} {
			widths := columnWidths(landscape, includeStats)
			assert.Len(t, widths, len(pdfHeaders(includeStats)))
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 25))
	assert.Equal(t, "una dirección muy ...", truncate("una dirección muy larga de verdad", 21))
	assert.Len(t, []rune(truncate("0123456789", 8)), 8)
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestPDFRendererGuardrails(t *testing.T) {
	r := pdfRenderer{cfg: testDocumentConfig()}
	ctx := context.Background()

	_, err := r.render(ctx, nil, testMetadata(0, false), "x")
	xerr, ok := AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindData, xerr.Kind)

	r.cfg.MaxRows = 1
	_, err = r.render(ctx, []Row{{Name: "A"}, {Name: "B"}}, testMetadata(2, false), "x")
	xerr, ok = AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindData, xerr.Kind)
}

func TestPDFRendererBuild(t *testing.T) {
	rows := make([]Row, 60) // enough to paginate
	for i := range rows {
		rows[i] = Row{
			Name:      fmt.Sprintf("Colegio Nacional de Educación %d", i+1),
			Address:   "Av. Siempre Viva 742, Springfield",
			Phone:     "+54 11 4444-5555",
			Email:     "contacto@example.com",
			CreatedAt: "10/03/2024 09:30",
			UpdatedAt: "12/03/2024 09:30",
			Courses:   2, Students: 40, Professors: 5,
		}
	}

	for _, cfg := range []DocumentConfig{
		testDocumentConfig(),
		{MaxRows: 10000, MaxFileSizeMB: 25, PageFormat: "letter", Orientation: "landscape", IncludeHeader: true, IncludeFooter: true},
		{MaxRows: 10000, MaxFileSizeMB: 25, PageFormat: "a4", Orientation: "portrait"},
	} {
		r := pdfRenderer{cfg: cfg}
		artifact, err := r.render(context.Background(), rows, testMetadata(len(rows), true), "instituciones_test")
		assert.NoError(t, err)
		assert.Equal(t, "instituciones_test.pdf", artifact.Filename)
		assert.Equal(t, "application/pdf", artifact.ContentType)
		assert.True(t, bytes.HasPrefix(artifact.Content, []byte("%PDF-")), "artifact must be a PDF document")
	}
}
