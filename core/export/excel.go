package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/escolarhq/escolar/core"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// excelRenderer builds a genuine xlsx workbook. When the workbook build
// fails for an unclassified reason it retries once as a plain CSV blob
// before giving up (two distinct strategies, primary then degraded).
type excelRenderer struct {
	conf core.ExportConfig

	buildFn    func([]Row, Metadata, string) (Artifact, error) // mockable
	fallbackFn func([]Row, Metadata, string) (Artifact, error) // mockable
}

func (r excelRenderer) render(ctx context.Context, rows []Row, meta Metadata, stem string) (Artifact, error) {
	if err := checkBounds(len(rows), r.conf.MaxRows); err != nil {
		return Artifact{}, err
	}

	buildFn := r.buildFn
	if buildFn == nil {
		buildFn = r.build
	}
	fallbackFn := r.fallbackFn
	if fallbackFn == nil {
		fallbackFn = csvRenderer{}.render
	}

	type result struct {
		artifact Artifact
		err      error
	}
	done := make(chan result, 1)
	go func() {
		artifact, err := buildFn(rows, meta, stem)
		done <- result{artifact, err}
	}()

	timeout := r.conf.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err == nil {
			return res.artifact, nil
		}
		if _, ok := AsError(res.err); ok { // guardrail hit; no fallback
			return Artifact{}, res.err
		}
		csvArt, csvErr := fallbackFn(rows, meta, stem)
		if csvErr != nil {
			return Artifact{}, WrapError(KindGeneration,
				fmt.Sprintf("la generación de Excel falló (%v) y el CSV de respaldo también falló (%v)", res.err, csvErr),
				res.err)
		}
		return csvArt, nil
	case <-ctx.Done():
		return Artifact{}, WrapError(KindGeneration, "la exportación fue cancelada", ctx.Err())
	case <-timer.C:
		return Artifact{}, NewError(KindGeneration, "la generación superó el tiempo máximo permitido")
	}
}

func (r excelRenderer) build(rows []Row, meta Metadata, stem string) (Artifact, error) {
	const sheet = "Instituciones"

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)

	boldStyle, err := f.NewStyle(`{"font":{"bold":true}}`)
	if err != nil {
		return Artifact{}, err
	}

	// metadata block
	setCell := func(sheet string, col, row int, v interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}
	if err := setCell(sheet, 1, 1, "Listado de Instituciones"); err != nil {
		return Artifact{}, err
	}
	_ = f.SetCellStyle(sheet, "A1", "A1", boldStyle)
	_ = setCell(sheet, 1, 2, "Generado: "+meta.GeneratedAt.Format(displayDateFormat))
	_ = setCell(sheet, 1, 3, "Rango: "+meta.RangeDesc)
	_ = setCell(sheet, 1, 4, fmt.Sprintf("Total: %d — %s", meta.Total, meta.StatsNote()))

	// header + data
	const headerRow = 6
	headers := Headers(meta.IncludeStats)
	for c, h := range headers {
		if err := setCell(sheet, c+1, headerRow, h); err != nil {
			return Artifact{}, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	_ = f.SetCellStyle(sheet, first, last, boldStyle)

	for i, row := range rows {
		for c, cell := range row.Cells(meta.IncludeStats) {
			// numeric columns as numbers so spreadsheets can sum them
			if meta.IncludeStats && c >= 6 {
				switch c {
				case 6:
					err = setCell(sheet, c+1, headerRow+1+i, row.Courses)
				case 7:
					err = setCell(sheet, c+1, headerRow+1+i, row.Students)
				case 8:
					err = setCell(sheet, c+1, headerRow+1+i, row.Professors)
				}
			} else {
				err = setCell(sheet, c+1, headerRow+1+i, cell)
			}
			if err != nil {
				return Artifact{}, err
			}
		}
	}

	if meta.IncludeStats {
		if err := r.buildStatsSheet(f, rows, boldStyle, setCell); err != nil {
			return Artifact{}, err
		}
	}
	f.SetActiveSheet(f.GetSheetIndex(sheet))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Artifact{}, err
	}
	if max := int64(r.conf.MaxExcelSizeMB) * 1024 * 1024; max > 0 && int64(buf.Len()) > max {
		return Artifact{}, NewError(KindGeneration,
			fmt.Sprintf("el archivo generado supera el tamaño máximo permitido (%d MB)", r.conf.MaxExcelSizeMB))
	}

	return Artifact{
		Filename:    stem + ".xlsx",
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

// buildStatsSheet adds per-institution ratios and a trailing TOTALS row.
func (r excelRenderer) buildStatsSheet(f *excelize.File, rows []Row, boldStyle int, setCell func(string, int, int, interface{}) error) error {
	const sheet = "Estadísticas"
	f.NewSheet(sheet)

	headers := []string{"Nombre", "Cursos", "Estudiantes", "Profesores", "Estudiantes por Curso", "Profesores por Curso"}
	for c, h := range headers {
		if err := setCell(sheet, c+1, 1, h); err != nil {
			return err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, first, last, boldStyle)

	var totCourses, totStudents, totProfessors int
	for i, row := range rows {
		n := i + 2
		if err := setCell(sheet, 1, n, row.Name); err != nil {
			return err
		}
		_ = setCell(sheet, 2, n, row.Courses)
		_ = setCell(sheet, 3, n, row.Students)
		_ = setCell(sheet, 4, n, row.Professors)
		_ = setCell(sheet, 5, n, ratio(row.Students, row.Courses))
		_ = setCell(sheet, 6, n, ratio(row.Professors, row.Courses))
		totCourses += row.Courses
		totStudents += row.Students
		totProfessors += row.Professors
	}

	n := len(rows) + 2
	_ = setCell(sheet, 1, n, "TOTAL")
	_ = setCell(sheet, 2, n, totCourses)
	_ = setCell(sheet, 3, n, totStudents)
	_ = setCell(sheet, 4, n, totProfessors)
	_ = setCell(sheet, 5, n, ratio(totStudents, totCourses))
	_ = setCell(sheet, 6, n, ratio(totProfessors, totCourses))
	firstTot, _ := excelize.CoordinatesToCellName(1, n)
	lastTot, _ := excelize.CoordinatesToCellName(len(headers), n)
	_ = f.SetCellStyle(sheet, firstTot, lastTot, boldStyle)
	return nil
}

// ratio returns num/den rounded to 2 decimals, 0 when den is 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(int(float64(num)/float64(den)*100+0.5)) / 100
}
