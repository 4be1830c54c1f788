package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/escolarhq/escolar/core/institution"
)

const (
	displayDateFormat = "02/01/2006 15:04"
	rangeDateFormat   = "02/01/2006"

	missingDate  = "N/A"
	fallbackText = "Error al procesar"
)

type (
	// Row is one line of the eventual export, independent of output format.
	Row struct {
		Name      string
		Address   string
		Phone     string
		Email     string
		CreatedAt string
		UpdatedAt string

		// stats columns; zero when the institution has no recorded stats
		Courses    int
		Students   int
		Professors int
	}

	// RowError records a degraded row so callers can assert on fallbacks
	// deterministically instead of digging through logs.
	RowError struct {
		Index int
		Err   error
	}

	// Metadata is the report-level header block shared by all renderers.
	Metadata struct {
		GeneratedAt  time.Time
		Total        int
		RangeDesc    string
		IncludeStats bool
	}
)

// Headers returns the column titles, with stats columns appended on demand.
func Headers(includeStats bool) []string {
	hs := []string{"Nombre", "Dirección", "Teléfono", "Email", "Fecha de Creación", "Última Actualización"}
	if includeStats {
		hs = append(hs, "Cursos", "Estudiantes", "Profesores")
	}
	return hs
}

// Cells flattens the row into column values matching Headers(includeStats).
func (r Row) Cells(includeStats bool) []string {
	cells := []string{r.Name, r.Address, r.Phone, r.Email, r.CreatedAt, r.UpdatedAt}
	if includeStats {
		cells = append(cells,
			strconv.Itoa(r.Courses),
			strconv.Itoa(r.Students),
			strconv.Itoa(r.Professors),
		)
	}
	return cells
}

// Project converts institution records into tabular rows, preserving input
// order. One malformed record never aborts the export: its row is replaced
// with a fallback row and the failure is reported in the second return value.
// The returned row count always equals len(records).
func Project(records []institution.Institution, statsByID map[string]institution.Statistics, includeStats bool) ([]Row, []RowError) {
	rows := make([]Row, 0, len(records))
	var rowErrs []RowError

	for i, rec := range records {
		row, err := projectOne(rec, statsByID, includeStats)
		if err != nil {
			row = fallbackRow(i, rec)
			rowErrs = append(rowErrs, RowError{Index: i, Err: err})
		}
		rows = append(rows, row)
	}
	return rows, rowErrs
}

func projectOne(rec institution.Institution, statsByID map[string]institution.Statistics, includeStats bool) (row Row, err error) {
	// a single bad record must degrade, not abort
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("projecting record %q: %v", rec.ID, r)
		}
	}()

	row = Row{
		Name:      rec.Name,
		Address:   rec.Address.String,
		Phone:     rec.Phone.String,
		Email:     rec.Email.String,
		CreatedAt: displayDate(rec.CreatedAt),
		UpdatedAt: displayDate(rec.UpdatedAt),
	}
	if includeStats {
		// absent id => counts stay 0
		if stats, ok := statsByID[rec.ID]; ok {
			row.Courses = stats.CoursesCount
			row.Students = stats.StudentsCount
			row.Professors = stats.ProfessorsCount
		}
	}
	return row, nil
}

func fallbackRow(i int, rec institution.Institution) Row {
	name := rec.Name
	if name == "" {
		name = fmt.Sprintf("Institución %d", i+1)
	}
	return Row{
		Name:      name,
		Address:   fallbackText,
		Phone:     fallbackText,
		Email:     fallbackText,
		CreatedAt: fallbackText,
		UpdatedAt: fallbackText,
	}
}

func displayDate(t time.Time) string {
	if t.IsZero() {
		return missingDate
	}
	return t.Format(displayDateFormat)
}

// NewMetadata derives the report header block for a render.
func NewMetadata(now time.Time, total int, opts Options) Metadata {
	return Metadata{
		GeneratedAt:  now,
		Total:        total,
		RangeDesc:    rangeDescription(opts.DateRange),
		IncludeStats: opts.IncludeStats,
	}
}

func rangeDescription(dr *DateRange) string {
	if dr == nil || (dr.From.IsZero() && dr.To.IsZero()) {
		return "Todos los registros"
	}
	switch {
	case !dr.From.IsZero() && !dr.To.IsZero():
		return fmt.Sprintf("Desde %s hasta %s", dr.From.Format(rangeDateFormat), dr.To.Format(rangeDateFormat))
	case !dr.From.IsZero():
		return "Desde " + dr.From.Format(rangeDateFormat)
	default:
		return "Hasta " + dr.To.Format(rangeDateFormat)
	}
}

// StatsNote is the stats-inclusion line of the header block.
func (m Metadata) StatsNote() string {
	if m.IncludeStats {
		return "Incluye estadísticas"
	}
	return "Sin estadísticas"
}
