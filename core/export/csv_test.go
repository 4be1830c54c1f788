package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
)

func testMetadata(total int, includeStats bool) Metadata {
	return Metadata{
		GeneratedAt:  time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		Total:        total,
		RangeDesc:    "Todos los registros",
		IncludeStats: includeStats,
	}
}

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`Colegio "A", B`, `"Colegio ""A"", B"`},
		{"with,comma", `"with,comma"`},
		{"with\nnewline", "\"with\nnewline\""},
		{`just"quote`, `"just""quote"`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeCSV(tt.in))
	}
}

// A quoted field must survive a round-trip through a standard CSV parser.
func TestCSVEscapingRoundTrip(t *testing.T) {
	name := `Colegio "A", B`
	rows := []Row{{Name: name, Address: "Calle 1", CreatedAt: "10/03/2024 09:30", UpdatedAt: "N/A"}}

	artifact, err := csvRenderer{}.render(rows, testMetadata(1, false), "instituciones_test")
	assert.NoError(t, err)
	assert.Equal(t, "instituciones_test.csv", artifact.Filename)
	assert.Contains(t, string(artifact.Content), `"Colegio ""A"", B"`)

	r := csv.NewReader(bytes.NewReader(artifact.Content))
	r.FieldsPerRecord = -1
	parsed, err := r.ReadAll()
	assert.NoError(t, err)

	// last line is the data row; first field must be the original name exactly
	last := parsed[len(parsed)-1]
	assert.Equal(t, name, last[0])
}

func TestCSVRendererLayout(t *testing.T) {
	rows := []Row{
		{Name: "Colegio A", Address: "Calle 1", Phone: "123456", Email: "a@example.com", CreatedAt: "10/03/2024 09:30", UpdatedAt: "12/03/2024 09:30", Courses: 2, Students: 40, Professors: 5},
		{Name: "Colegio B", CreatedAt: "N/A", UpdatedAt: "N/A"},
	}

	artifact, err := csvRenderer{}.render(rows, testMetadata(2, true), "instituciones_test")
	assert.NoError(t, err)

	want := strings.Join([]string{
		"Listado de Instituciones",
		"Generado,15/06/2024 12:00",
		"Rango,Todos los registros",
		"Total,2",
		"Incluye estadísticas",
		"",
		"Nombre,Dirección,Teléfono,Email,Fecha de Creación,Última Actualización,Cursos,Estudiantes,Profesores",
		"Colegio A,Calle 1,123456,a@example.com,10/03/2024 09:30,12/03/2024 09:30,2,40,5",
		"Colegio B,,,,N/A,N/A,0,0,0",
		"",
	}, "\r\n")

	got := string(artifact.Content)
	if got != want {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(want),
			B:        difflib.SplitLines(got),
			FromFile: "want",
			ToFile:   "got",
			Context:  2,
		})
		t.Errorf("unexpected CSV output:\n%s", diff)
	}
}
