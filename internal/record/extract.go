// Package record models extracurricular program records: free-text field
// extraction, schedule parsing, text synthesis from structured rows, and the
// in-memory catalog the engine and answerer read from.
package record

import (
	"regexp"
	"strconv"
	"strings"
)

// NoTitle is the sentinel used when a record carries no 제목: line.
const NoTitle = "이름 없음"

// Canonical field names. Records are Korean administrative notices, so the
// field vocabulary is Korean as well.
const (
	FieldTitle       = "제목"
	FieldApplication = "신청기간"
	FieldAudience    = "대상자"
	FieldPeriod      = "진행기간"
	FieldURL         = "URL"
	FieldLocation    = "장소"
	FieldCertificate = "수료증"
	FieldMileage     = "KUM마일리지"
)

var (
	applicationRe = regexp.MustCompile(`(?:신청\s*기간|접수\s*기간)\s*:\s*([0-9.\-~\s:()]+)`)
	audienceRe    = regexp.MustCompile(`(?:대상자|대상)\s*:\s*([^\n]+)`)
	periodRe      = regexp.MustCompile(`(?:진행\s*기간|일시)\s*:\s*([0-9.\-~\s:()]+)`)
	urlRe         = regexp.MustCompile(`(?:URL|링크|주소)\s*:\s*(\S+)`)
	locationRe    = regexp.MustCompile(`(?:장소|위치)\s*:\s*([^\n]+)`)
	certificateRe = regexp.MustCompile(`(?:수료증)\s*[:\-]?\s*(있음|없음)`)

	// Mileage appears in inconsistent spellings (KUM마일리지, 쿰 마일리지,
	// 마일리리지 typos) with arbitrary filler before the number.
	mileageRe = regexp.MustCompile(`(?:KUM|쿰)\s*마일리(?:지|리지)[^\d]{0,8}(\d{1,3})`)
)

// ExtractTitle returns the value of the first 제목: line, or NoTitle when the
// record has none.
func ExtractTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "제목:") {
			title := strings.TrimSpace(strings.TrimPrefix(trimmed, "제목:"))
			if title != "" {
				return title
			}
		}
	}
	return NoTitle
}

// ExtractMileage returns the record's mileage points. Records sometimes state
// mileage more than once (summary line plus detail line); the maximum wins so
// a repeated mention never lowers the value.
func ExtractMileage(text string) (int, bool) {
	matches := mileageRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	max := 0
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, true
}

// ExtractFields pulls every recognizable field out of a record's raw text.
// Only fields actually present appear in the returned map; values are
// whitespace-trimmed.
func ExtractFields(text string) map[string]string {
	fields := make(map[string]string)

	if title := ExtractTitle(text); title != NoTitle {
		fields[FieldTitle] = title
	}
	setMatch(fields, FieldApplication, applicationRe, text)
	setMatch(fields, FieldAudience, audienceRe, text)
	setMatch(fields, FieldPeriod, periodRe, text)
	setMatch(fields, FieldURL, urlRe, text)
	setMatch(fields, FieldLocation, locationRe, text)
	setMatch(fields, FieldCertificate, certificateRe, text)

	if mileage, ok := ExtractMileage(text); ok {
		fields[FieldMileage] = strconv.Itoa(mileage)
	}
	return fields
}

func setMatch(fields map[string]string, key string, re *regexp.Regexp, text string) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return
	}
	value := strings.TrimSpace(m[1])
	if value != "" {
		fields[key] = value
	}
}
