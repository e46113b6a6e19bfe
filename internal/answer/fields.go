package answer

import (
	"strings"

	"github.com/se-wein/kumrec-go/internal/record"
)

// fieldKeywords maps question phrasing to record fields. Order matters:
// 신청/접수 must be tested before the bare 기간, which belongs to 진행기간.
var fieldKeywords = []struct {
	field    string
	keywords []string
}{
	{record.FieldLocation, []string{"장소", "위치", "어디서", "어디"}},
	{record.FieldApplication, []string{"신청기간", "접수기간", "신청", "접수", "마감"}},
	{record.FieldPeriod, []string{"진행기간", "일시", "언제", "기간"}},
	{record.FieldURL, []string{"url", "링크", "주소", "홈페이지"}},
	{record.FieldAudience, []string{"대상자", "대상", "누구"}},
	{record.FieldCertificate, []string{"수료증"}},
	{record.FieldMileage, []string{"마일리지", "kum", "쿰"}},
}

// FieldKeyword returns the record field a question asks about, if any.
// Matching happens on the normalized query so spacing does not matter.
func FieldKeyword(query string) (string, bool) {
	normalized := Normalize(query)
	for _, entry := range fieldKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(normalized, kw) {
				return entry.field, true
			}
		}
	}
	return "", false
}
