package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/escolarhq/escolar/core"
)

func testExportConfig() core.ExportConfig {
	return core.ExportConfig{
		MaxRows:        10000,
		MaxExcelSizeMB: 50,
		MaxPDFSizeMB:   25,
		Timeout:        45 * time.Second,
	}
}

func TestExcelRendererGuardrails(t *testing.T) {
	r := excelRenderer{conf: testExportConfig()}
	ctx := context.Background()

	// empty input
	_, err := r.render(ctx, nil, testMetadata(0, false), "x")
	xerr, ok := AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindData, xerr.Kind)

	// too many rows
	r.conf.MaxRows = 2
	rows := []Row{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	_, err = r.render(ctx, rows, testMetadata(3, false), "x")
	xerr, ok = AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindData, xerr.Kind)
	assert.Contains(t, xerr.Message, "supera el máximo")
}

func TestExcelRendererWorkbook(t *testing.T) {
	r := excelRenderer{conf: testExportConfig()}
	rows := []Row{
		{Name: "Colegio A", Address: "Calle 1", Phone: "123", Email: "a@example.com", CreatedAt: "10/03/2024 09:30", UpdatedAt: "12/03/2024 09:30", Courses: 2, Students: 40, Professors: 5},
		{Name: "Colegio B", CreatedAt: "N/A", UpdatedAt: "N/A", Courses: 1, Students: 10, Professors: 2},
	}

	artifact, err := r.render(context.Background(), rows, testMetadata(2, true), "instituciones_test")
	assert.NoError(t, err)
	assert.Equal(t, "instituciones_test.xlsx", artifact.Filename)
	assert.Equal(t, xlsxContentType, artifact.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Content))
	assert.NoError(t, err)

	get := func(sheet, cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		assert.NoError(t, err)
		return v
	}

	assert.Equal(t, "Listado de Instituciones", get("Instituciones", "A1"))
	assert.Equal(t, "Nombre", get("Instituciones", "A6"))
	assert.Equal(t, "Profesores", get("Instituciones", "I6"))
	assert.Equal(t, "Colegio A", get("Instituciones", "A7"))
	assert.Equal(t, "40", get("Instituciones", "H7"))
	assert.Equal(t, "Colegio B", get("Instituciones", "A8"))

	// stats sheet: ratios + TOTALS
	assert.Equal(t, "Estudiantes por Curso", get("Estadísticas", "E1"))
	assert.Equal(t, "20", get("Estadísticas", "E2")) // 40 students / 2 courses
	assert.Equal(t, "TOTAL", get("Estadísticas", "A4"))
	assert.Equal(t, "3", get("Estadísticas", "B4"))
	assert.Equal(t, "50", get("Estadísticas", "C4"))
}

func TestExcelRendererNoStatsSheet(t *testing.T) {
	r := excelRenderer{conf: testExportConfig()}
	rows := []Row{{Name: "Colegio A", CreatedAt: "N/A", UpdatedAt: "N/A"}}

	artifact, err := r.render(context.Background(), rows, testMetadata(1, false), "x")
	assert.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Content))
	assert.NoError(t, err)
	assert.Equal(t, -1, f.GetSheetIndex("Estadísticas"))
}

func TestExcelRendererCSVFallback(t *testing.T) {
	r := excelRenderer{conf: testExportConfig()}
	r.buildFn = func([]Row, Metadata, string) (Artifact, error) {
		return Artifact{}, errors.New("xlsx write failed")
	}
	rows := []Row{{Name: "Colegio A", Address: "Calle 1", CreatedAt: "N/A", UpdatedAt: "N/A"}}

	// an unclassified workbook failure degrades to the CSV strategy
	artifact, err := r.render(context.Background(), rows, testMetadata(1, false), "instituciones_test")
	assert.NoError(t, err)
	assert.Equal(t, "instituciones_test.csv", artifact.Filename)
	assert.Contains(t, artifact.ContentType, "text/csv")
	assert.Contains(t, string(artifact.Content), "Colegio A")
}

func TestExcelRendererNoFallbackForClassifiedErrors(t *testing.T) {
	r := excelRenderer{conf: testExportConfig()}
	sizeErr := NewError(KindGeneration, "el archivo generado supera el tamaño máximo permitido (50 MB)")
	r.buildFn = func([]Row, Metadata, string) (Artifact, error) {
		return Artifact{}, sizeErr
	}
	rows := []Row{{Name: "Colegio A", CreatedAt: "N/A", UpdatedAt: "N/A"}}

	// a guardrail violation passes through untouched, no CSV retry
	r.fallbackFn = func([]Row, Metadata, string) (Artifact, error) {
		t.Fatal("fallback must not run for classified errors")
		return Artifact{}, nil
	}
	_, err := r.render(context.Background(), rows, testMetadata(1, false), "x")
	assert.Equal(t, sizeErr, err)
}

func TestExcelRendererDoubleFailure(t *testing.T) {
	r := excelRenderer{conf: testExportConfig()}
	r.buildFn = func([]Row, Metadata, string) (Artifact, error) {
		return Artifact{}, errors.New("xlsx write failed")
	}
	r.fallbackFn = func([]Row, Metadata, string) (Artifact, error) {
		return Artifact{}, errors.New("disco lleno")
	}
	rows := []Row{{Name: "Colegio A", CreatedAt: "N/A", UpdatedAt: "N/A"}}

	_, err := r.render(context.Background(), rows, testMetadata(1, false), "x")
	xerr, ok := AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindGeneration, xerr.Kind)
	// both causes reported in the combined message
	assert.Contains(t, xerr.Message, "xlsx write failed")
	assert.Contains(t, xerr.Message, "disco lleno")
}

func TestExcelRendererCancelledContext(t *testing.T) {
	r := excelRenderer{conf: testExportConfig()}
	rows := make([]Row, 2000)
	for i := range rows {
		rows[i] = Row{Name: fmt.Sprintf("Colegio %d", i)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.render(ctx, rows, testMetadata(len(rows), false), "x")
	xerr, ok := AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindGeneration, xerr.Kind)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.0, ratio(10, 0))
	assert.Equal(t, 20.0, ratio(40, 2))
	assert.Equal(t, 0.33, ratio(1, 3))
}
