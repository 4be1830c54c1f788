package export

import (
	"bytes"
	"strconv"
	"strings"
)

// csvRenderer is the degraded fallback behind the spreadsheet strategy:
// a manually-escaped CSV blob that spreadsheet software opens as Excel.
type csvRenderer struct{}

func (csvRenderer) render(rows []Row, meta Metadata, stem string) (Artifact, error) {
	var buf bytes.Buffer

	// metadata block
	writeCSVLine(&buf, []string{"Listado de Instituciones"})
	writeCSVLine(&buf, []string{"Generado", meta.GeneratedAt.Format(displayDateFormat)})
	writeCSVLine(&buf, []string{"Rango", meta.RangeDesc})
	writeCSVLine(&buf, []string{"Total", strconv.Itoa(meta.Total)})
	writeCSVLine(&buf, []string{meta.StatsNote()})
	buf.WriteString("\r\n")

	writeCSVLine(&buf, Headers(meta.IncludeStats))
	for _, row := range rows {
		writeCSVLine(&buf, row.Cells(meta.IncludeStats))
	}

	return Artifact{
		Filename:    stem + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Content:     buf.Bytes(),
	}, nil
}

func writeCSVLine(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(escapeCSV(field))
	}
	buf.WriteString("\r\n")
}

// escapeCSV applies minimal RFC 4180 escaping: embedded quotes are doubled,
// and any field containing a comma, quote or newline is wrapped in quotes.
func escapeCSV(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
