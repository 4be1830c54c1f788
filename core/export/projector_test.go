package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/escolarhq/escolar/core/institution"
)

func makeInstitution(id, name string) institution.Institution {
	created := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	return institution.Institution{
		ID:        id,
		Name:      name,
		Address:   null.StringFrom("Av. Siempre Viva 742"),
		Phone:     null.StringFrom("+54 11 4444-5555"),
		Email:     null.StringFrom(name + "@example.com"),
		CreatedAt: created,
		UpdatedAt: created.Add(48 * time.Hour),
	}
}

func TestProjectRowCountInvariant(t *testing.T) {
	records := []institution.Institution{
		makeInstitution("a", "Colegio A"),
		{}, // completely zero-valued record still yields a row
		makeInstitution("c", "Colegio C"),
	}

	rows, rowErrs := Project(records, nil, false)
	assert.Len(t, rows, len(records))
	assert.Empty(t, rowErrs)

	// order preserved
	assert.Equal(t, "Colegio A", rows[0].Name)
	assert.Equal(t, "Colegio C", rows[2].Name)
}

func TestProjectStatsDefaultToZero(t *testing.T) {
	records := []institution.Institution{
		makeInstitution("a", "Colegio A"),
		makeInstitution("b", "Colegio B"),
	}
	stats := map[string]institution.Statistics{
		"a": {CoursesCount: 3, StudentsCount: 120, ProfessorsCount: 12},
		// "b" intentionally absent
	}

	rows, rowErrs := Project(records, stats, true)
	assert.Empty(t, rowErrs)
	assert.Equal(t, 3, rows[0].Courses)
	assert.Equal(t, 120, rows[0].Students)
	assert.Equal(t, 12, rows[0].Professors)
	assert.Equal(t, 0, rows[1].Courses)
	assert.Equal(t, 0, rows[1].Students)
	assert.Equal(t, 0, rows[1].Professors)
}

func TestProjectNullFieldsAndDates(t *testing.T) {
	rec := makeInstitution("a", "Colegio A")
	rec.Address = null.String{} // NULL address
	rec.UpdatedAt = time.Time{}

	rows, rowErrs := Project([]institution.Institution{rec}, nil, false)
	assert.Empty(t, rowErrs)
	assert.Equal(t, "", rows[0].Address, "null address renders as empty string, not \"null\"")
	assert.Equal(t, "10/03/2024 09:30", rows[0].CreatedAt)
	assert.Equal(t, "N/A", rows[0].UpdatedAt)
}

// Scenario from the UI team: 3 institutions, one with a null address,
// stats requested but one id missing from the stats map.
func TestProjectMixedScenario(t *testing.T) {
	a := makeInstitution("a", "Colegio A")
	b := makeInstitution("b", "Colegio B")
	b.Address = null.String{}
	c := makeInstitution("c", "Colegio C")
	stats := map[string]institution.Statistics{
		"a": {CoursesCount: 2, StudentsCount: 40, ProfessorsCount: 5},
		"b": {CoursesCount: 1, StudentsCount: 15, ProfessorsCount: 2},
	}

	rows, rowErrs := Project([]institution.Institution{a, b, c}, stats, true)
	assert.Len(t, rows, 3)
	assert.Empty(t, rowErrs)
	assert.Equal(t, "", rows[1].Address)
	assert.Equal(t, []string{"0", "0", "0"}, rows[2].Cells(true)[6:])
}

func TestFallbackRow(t *testing.T) {
	row := fallbackRow(4, institution.Institution{})
	assert.Equal(t, "Institución 5", row.Name)
	assert.Equal(t, fallbackText, row.Address)
	assert.Equal(t, fallbackText, row.CreatedAt)
	assert.Equal(t, 0, row.Courses)

	named := fallbackRow(0, institution.Institution{Name: "Colegio A"})
	assert.Equal(t, "Colegio A", named.Name)
}

func TestHeadersAndCells(t *testing.T) {
	assert.Len(t, Headers(false), 6)
	assert.Len(t, Headers(true), 9)

	row := Row{Name: "X", Courses: 1, Students: 2, Professors: 3}
	assert.Len(t, row.Cells(false), 6)
	assert.Equal(t, []string{"1", "2", "3"}, row.Cells(true)[6:])
}

func TestRangeDescription(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Todos los registros", rangeDescription(nil))
	assert.Equal(t, "Todos los registros", rangeDescription(&DateRange{}))
	assert.Equal(t, "Desde 01/01/2024 hasta 31/01/2024", rangeDescription(&DateRange{From: from, To: to}))
	assert.Equal(t, "Desde 01/01/2024", rangeDescription(&DateRange{From: from}))
	assert.Equal(t, "Hasta 31/01/2024", rangeDescription(&DateRange{To: to}))
}

func TestMetadataStatsNote(t *testing.T) {
	assert.Equal(t, "Incluye estadísticas", Metadata{IncludeStats: true}.StatsNote())
	assert.Equal(t, "Sin estadísticas", Metadata{}.StatsNote())
}
