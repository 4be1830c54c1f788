package main

import (
	"context"
	"fmt"
	"time"

	"github.com/escolarhq/escolar/core/export"
	"github.com/escolarhq/escolar/core/institution"
)

func (cli *commandLine) export(format, out string, withStats bool, from, to string) error {
	ctx := context.Background()

	opts := export.Options{
		Format:       export.Format(format),
		IncludeStats: withStats,
	}
	fromDate, err := parseDate(from)
	if err != nil {
		return err
	}
	toDate, err := parseDate(to)
	if err != nil {
		return err
	}
	if !fromDate.IsZero() || !toDate.IsZero() {
		opts.DateRange = &export.DateRange{From: fromDate, To: toDate}
	}

	records, err := cli.instSvc.Filter(ctx, institution.QueryFilter{CreatedFrom: fromDate, CreatedTo: toDate})
	if err != nil {
		return err
	}

	var stats map[string]institution.Statistics
	if withStats {
		ids := make([]string, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		if stats, err = cli.instSvc.Statistics(ctx, ids...); err != nil {
			return err
		}
	}

	summary := cli.expSvc.Summary(records, opts)
	fmt.Printf("Exportando %d instituciones (%s, ~%s)...\n", summary.TotalInstitutions, summary.Format, summary.EstimatedSize)

	if err := cli.expSvc.ExportTo(ctx, export.FileSink{Dir: out}, records, opts, stats); err != nil {
		return err
	}
	fmt.Println("Listo.")
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha no válida %q: se espera AAAA-MM-DD", s)
	}
	return t, nil
}
