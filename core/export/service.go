package export

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	gommonbytes "github.com/labstack/gommon/bytes"

	"github.com/escolarhq/escolar/core"
	"github.com/escolarhq/escolar/core/institution"
)

type (
	// Service is the export entry point: it validates options, projects
	// records into rows, dispatches to the renderer matching the requested
	// format and classifies every failure. No unclassified error escapes it.
	Service struct {
		conf   core.ExportConfig
		docCfg DocumentConfig
		logger core.Logger
		clock  func() time.Time

		busy int32 // one export in flight per service
	}

	// Summary previews an export's cost before the caller commits to it.
	Summary struct {
		TotalInstitutions int        `json:"total_institutions"`
		Format            Format     `json:"format"`
		IncludeStats      bool       `json:"include_stats"`
		DateRange         *DateRange `json:"date_range,omitempty"`
		EstimatedSize     string     `json:"estimated_size"`
	}
)

func NewService(conf *core.Config, logger core.Logger, docCfg ...DocumentConfig) *Service {
	svc := &Service{
		conf:   conf.Export,
		docCfg: DefaultDocumentConfig(conf.Export),
		logger: logger,
		clock:  time.Now,
	}
	if len(docCfg) > 0 {
		svc.docCfg = docCfg[0]
	}
	return svc
}

// DocumentConfig returns the service's default PDF configuration.
func (s *Service) DocumentConfig() DocumentConfig {
	return s.docCfg
}

// Export builds the artifact for the given records and options.
// Statistics may be nil; missing ids default to zero counts.
// An optional DocumentConfig overrides the service default for PDF output.
func (s *Service) Export(ctx context.Context, records []institution.Institution, opts Options, stats map[string]institution.Statistics, docCfg ...DocumentConfig) (Artifact, error) {
	if !atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
		return Artifact{}, NewError(KindData, "ya hay una exportación en curso")
	}
	defer atomic.StoreInt32(&s.busy, 0)

	now := s.clock().UTC()
	if fldErrs := opts.Validate(now); len(fldErrs) > 0 {
		msgs := make([]string, 0, len(fldErrs))
		for _, fe := range fldErrs {
			msgs = append(msgs, fe.Error)
		}
		return Artifact{}, NewError(KindData, strings.Join(msgs, "; "))
	}

	rows, rowErrs := Project(records, stats, opts.IncludeStats)
	for _, re := range rowErrs {
		s.logger.Warn(fmt.Sprintf("export: fila %d degradada", re.Index+1), re.Err)
	}

	meta := NewMetadata(now, len(rows), opts)
	stem := filenameStem(opts, now)

	var (
		artifact Artifact
		err      error
	)
	switch opts.Format {
	case FormatExcel:
		artifact, err = excelRenderer{conf: s.conf}.render(ctx, rows, meta, stem)
	case FormatPDF:
		cfg := s.docCfg
		if len(docCfg) > 0 {
			cfg = docCfg[0]
		}
		artifact, err = pdfRenderer{cfg: cfg}.render(ctx, rows, meta, stem)
	default:
		return Artifact{}, NewError(KindData, fmt.Sprintf("formato de exportación no soportado: %q", string(opts.Format)))
	}
	if err != nil {
		return Artifact{}, classify(err)
	}
	return artifact, nil
}

// ExportTo builds the artifact and delivers it to the sink.
func (s *Service) ExportTo(ctx context.Context, sink Sink, records []institution.Institution, opts Options, stats map[string]institution.Statistics, docCfg ...DocumentConfig) error {
	artifact, err := s.Export(ctx, records, opts, stats, docCfg...)
	if err != nil {
		return err
	}
	if err := sink.Deliver(ctx, artifact); err != nil {
		if _, ok := AsError(err); ok {
			return err
		}
		return WrapError(KindDownload, "no se pudo entregar la exportación", err)
	}
	return nil
}

// Summary is pure: no rendering, no I/O.
func (s *Service) Summary(records []institution.Institution, opts Options) Summary {
	return Summary{
		TotalInstitutions: len(records),
		Format:            opts.Format,
		IncludeStats:      opts.IncludeStats,
		DateRange:         opts.DateRange,
		EstimatedSize:     gommonbytes.Format(estimateSize(len(records), opts.Format, opts.IncludeStats)),
	}
}

// estimateSize is a rough per-row heuristic, good enough for a preview.
func estimateSize(n int, format Format, includeStats bool) int64 {
	var base, perRow int64
	switch format {
	case FormatPDF:
		base, perRow = 12*1024, 90
	default:
		base, perRow = 25*1024, 160
	}
	if includeStats {
		perRow += 40
	}
	return base + int64(n)*perRow
}

// checkBounds enforces the shared renderer preconditions.
func checkBounds(n, maxRows int) error {
	if n == 0 {
		return NewError(KindData, "no hay instituciones para exportar")
	}
	if maxRows > 0 && n > maxRows {
		return NewError(KindData, fmt.Sprintf("el número de registros (%d) supera el máximo permitido (%d)", n, maxRows))
	}
	return nil
}
