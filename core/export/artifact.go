package export

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"time"

	"github.com/escolarhq/escolar/core"
)

// Artifact is the final product of an export: bytes plus a filename.
// It lives only for the duration of one export call.
type Artifact struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Sink delivers a finished artifact to its destination (HTTP response,
// local file, email attachment...).
type Sink interface {
	Deliver(ctx context.Context, artifact Artifact) error
}

// filenameStem builds the deterministic artifact name, without extension:
// instituciones_<timestamp>[_desde_<date>][_hasta_<date>][_con_estadisticas]
func filenameStem(opts Options, now time.Time) string {
	name := "instituciones_" + now.Format("2006-01-02_15-04-05")
	if dr := opts.DateRange; dr != nil {
		if !dr.From.IsZero() {
			name += "_desde_" + dr.From.Format("2006-01-02")
		}
		if !dr.To.IsZero() {
			name += "_hasta_" + dr.To.Format("2006-01-02")
		}
	}
	if opts.IncludeStats {
		name += "_con_estadisticas"
	}
	return name
}

// FileSink writes artifacts into Dir.
type FileSink struct {
	Dir string
}

var _ Sink = (*FileSink)(nil)

func (s FileSink) Deliver(_ context.Context, artifact Artifact) error {
	path := filepath.Join(s.Dir, artifact.Filename)
	if err := os.WriteFile(path, artifact.Content, 0o644); err != nil {
		if os.IsPermission(err) {
			return WrapError(KindPermission, "sin permisos para guardar el archivo", err)
		}
		return WrapError(KindDownload, "no se pudo guardar el archivo", err)
	}
	return nil
}

// EmailSink sends artifacts as email attachments. Delivery is best-effort:
// SendMessages is asynchronous, so Deliver only reports misconfiguration
// (no service, no recipients); a failed send is logged by the mail service.
type EmailSink struct {
	Svc core.EmailService
	To  []mail.Address
}

var _ Sink = (*EmailSink)(nil)

func (s EmailSink) Deliver(_ context.Context, artifact Artifact) error {
	if s.Svc == nil {
		return NewError(KindPermission, "el servicio de correo no está disponible")
	}
	if len(s.To) == 0 {
		return NewError(KindDownload, "no hay destinatarios para enviar la exportación")
	}
	s.Svc.SendMessages(&core.EmailMessage{
		To:      s.To,
		Subject: "Exportación de instituciones",
		BodyStr: fmt.Sprintf("Adjunto: %s", artifact.Filename),
		Attachments: []core.Attachment{{
			Content:     bytes.NewBuffer(artifact.Content),
			ContentType: artifact.ContentType,
			Filename:    artifact.Filename,
		}},
	})
	return nil
}
