package record

import (
	"strings"
	"time"
)

// timeLayout is the display format used in synthesized record text.
const timeLayout = "2006.01.02 15:04"

// Row is a structured program row, typically imported from an upstream
// administration export. Synthesize renders it into the canonical text form
// the extractor and embedder consume.
type Row struct {
	ID          string
	Title       string
	URL         string
	Location    string
	Description string

	ApplicationStart *time.Time
	ApplicationEnd   *time.Time
	EventStart       *time.Time
	EventEnd         *time.Time
}

// Synthesize builds the record text from structured columns. Field lines come
// first in a fixed order, the free-form description last, so the extractor
// always finds structured values before prose mentions.
func (r Row) Synthesize() string {
	var lines []string

	if r.Title != "" {
		lines = append(lines, "제목: "+r.Title)
	}
	if r.URL != "" {
		lines = append(lines, "URL: "+r.URL)
	}
	if span := formatSpan(r.ApplicationStart, r.ApplicationEnd); span != "" {
		lines = append(lines, "신청기간: "+span)
	}
	if span := formatSpan(r.EventStart, r.EventEnd); span != "" {
		lines = append(lines, "진행기간: "+span)
	}
	if r.Location != "" {
		lines = append(lines, "장소: "+r.Location)
	}
	if desc := strings.TrimSpace(r.Description); desc != "" {
		lines = append(lines, desc)
	}
	return strings.Join(lines, "\n")
}

func formatSpan(start, end *time.Time) string {
	if start == nil || end == nil {
		return ""
	}
	return start.Format(timeLayout) + "~" + end.Format(timeLayout)
}
