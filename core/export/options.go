package export

import (
	"fmt"
	"time"

	"github.com/escolarhq/escolar/core"
)

// Format selects the export output strategy.
type Format string

const (
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// Ext returns the artifact file extension (without dot) for the format.
func (f Format) Ext() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	}
	return ""
}

func (f Format) Valid() bool {
	return f == FormatExcel || f == FormatPDF
}

type (
	// DateRange bounds the exported records by creation date.
	// A zero From or To means that end is open.
	DateRange struct {
		From time.Time `json:"from"`
		To   time.Time `json:"to"`
	}

	// Options drive a single export call.
	// Filters is opaque to the pipeline; it is echoed back to the caller only.
	Options struct {
		Format       Format                 `json:"format"`
		IncludeStats bool                   `json:"include_stats"`
		DateRange    *DateRange             `json:"date_range,omitempty"`
		Filters      map[string]interface{} `json:"filters,omitempty"`
	}
)

// Validate collects every violation instead of short-circuiting so callers
// can surface all problems at once. An empty result means the options are valid.
func (o Options) Validate(now time.Time) []core.FieldError {
	var errs []core.FieldError

	if !o.Format.Valid() {
		errs = append(errs, core.FieldError{
			Field: "format",
			Error: fmt.Sprintf("formato de exportación no válido: %q", string(o.Format)),
		})
	}

	if o.DateRange != nil {
		from, to := o.DateRange.From, o.DateRange.To
		if !from.IsZero() && !to.IsZero() && from.After(to) {
			errs = append(errs, core.FieldError{
				Field: "date_range",
				Error: "la fecha de inicio es posterior a la fecha de fin",
			})
		}
		if !from.IsZero() && from.After(now) {
			errs = append(errs, core.FieldError{
				Field: "date_range.from",
				Error: "la fecha no puede estar en el futuro",
			})
		}
		if !to.IsZero() && to.After(now) {
			errs = append(errs, core.FieldError{
				Field: "date_range.to",
				Error: "la fecha no puede estar en el futuro",
			})
		}
	}
	return errs
}
