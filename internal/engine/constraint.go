package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/se-wein/kumrec-go/internal/profile"
)

// Query-side mileage filter. Unlike record extraction, the KUM/쿰 prefix is
// optional here ("마일리지 20점짜리 활동").
var queryMileageRe = regexp.MustCompile(`(?:KUM|쿰)?\s*마일리(?:지|리지)[^\d]{0,3}(\d{1,3})`)

// MileageFilter extracts an exact mileage demand from the query. Programs
// whose mileage differs, including those with no known mileage, are excluded.
func MileageFilter(query string) (int, bool) {
	m := queryMileageRe.FindStringSubmatch(query)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

var (
	weekdaySuffixRe     = regexp.MustCompile(`([월화수목금토일])요일`)
	weekdayStandaloneRe = regexp.MustCompile(`(?:^|[\s,에])([월화수목금토일])(?:[\s,에]|$)`)

	// "3시~5시", "15:00-17:00", "3~5시" and similar.
	timeRangeRe = regexp.MustCompile(`(\d{1,2})\s*(?:시|:)?\s*(\d{0,2})\s*[~\-]\s*(\d{1,2})\s*(?:시|:)?\s*(\d{0,2})`)
)

// TimeConstraint extracts an availability window stated inside the query
// itself ("월요일 3시~5시는 바빠") as an extra busy interval. Returns false
// when the query names no time range.
func TimeConstraint(query string) (profile.Interval, bool) {
	m := timeRangeRe.FindStringSubmatch(query)
	if m == nil {
		return profile.Interval{}, false
	}

	startH, _ := strconv.Atoi(m[1])
	startM := optionalMinutes(m[2])
	endH, _ := strconv.Atoi(m[3])
	endM := optionalMinutes(m[4])

	// Afternoon shorthand: "3시~5시" means 15~17 only when read as a range
	// that would otherwise run backwards.
	if endH < startH && startH <= 12 {
		endH += 12
	}
	if startH > 23 || endH > 23 {
		return profile.Interval{}, false
	}

	startMin := startH*60 + startM
	endMin := endH*60 + endM
	if endMin <= startMin {
		return profile.Interval{}, false
	}

	iv := profile.Interval{Kind: profile.KindDaily, StartMin: startMin, EndMin: endMin}
	if day, ok := queryWeekday(query); ok {
		iv.Kind = profile.KindWeekly
		iv.Weekday = day
	}
	return iv, true
}

func queryWeekday(query string) (time.Weekday, bool) {
	if m := weekdaySuffixRe.FindStringSubmatch(query); m != nil {
		return profile.ParseWeekday(m[1])
	}
	if m := weekdayStandaloneRe.FindStringSubmatch(query); m != nil {
		return profile.ParseWeekday(m[1])
	}
	return 0, false
}

func optionalMinutes(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > 59 {
		return 0
	}
	return n
}

// Tokens that carry no topical signal. A query reduced to nothing once these
// are removed gets the balanced generic weighting instead of the
// query-dominant one.
var genericTokens = []string{
	"추천", "해줘", "해 줘", "해주세요", "부탁",
	"프로그램", "활동", "비교과",
	"뭐", "무엇", "어떤", "있어", "있나", "좀", "요",
}

// IsGenericQuery reports whether the query is a bare recommendation request
// with no topical content.
func IsGenericQuery(query string) bool {
	s := strings.ToLower(query)
	for _, tok := range genericTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.TrimSpace(s)

	var content int
	for _, r := range s {
		if r == ' ' || r == '?' || r == '!' || r == '.' || r == ',' || r == '~' {
			continue
		}
		content++
	}
	return content <= 1
}
