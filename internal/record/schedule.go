package record

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ReliableDayThreshold is the number of calendar dates spanned at or above
// which a parsed schedule is considered a vague period rather than a concrete
// event time. Multi-day spans usually mean "runs during these weeks" and
// carry no usable hour-of-day information.
const ReliableDayThreshold = 3

// Schedule is a record's event interval. Reliable marks intervals short
// enough that the hour-of-day component can be trusted for conflict checks.
type Schedule struct {
	Start    time.Time
	End      time.Time
	Reliable bool
}

var (
	parenRe = regexp.MustCompile(`\([^)]*\)`)

	// 2026.03.02 14:00 ~ 2026.03.02 16:00, separators . - / all occur.
	fullRangeRe = regexp.MustCompile(
		`(\d{4}[.\-/]\d{1,2}[.\-/]\d{1,2})\s+(\d{1,2}:\d{2})\s*[~\-]\s*(\d{4}[.\-/]\d{1,2}[.\-/]\d{1,2})\s+(\d{1,2}:\d{2})`)

	// 2026.03.02 14:00 ~ 16:00, end date omitted on same-day events.
	shortRangeRe = regexp.MustCompile(
		`(\d{4}[.\-/]\d{1,2}[.\-/]\d{1,2})\s+(\d{1,2}:\d{2})\s*[~\-]\s*(\d{1,2}:\d{2})`)

	dateSepRe = regexp.MustCompile(`[.\-/]`)
)

// Lines announcing the event time proper, vs lines announcing the
// application window. Application lines never supply an event time: a
// submission deadline must not be mistaken for when the program runs.
var (
	eventLineKeywords       = []string{"진행기간", "진행 기간", "일시"}
	applicationLineKeywords = []string{"신청기간", "신청 기간", "접수기간", "접수 기간", "마감"}
)

// ParseSchedule scans a record's text for an event interval. Lines that name
// the event period are tried first; any other line except application-window
// lines serves as fallback. Parenthesized annotations like (월) are stripped
// before matching. Returns nil when no line yields a parseable interval.
func ParseSchedule(text string) *Schedule {
	lines := strings.Split(text, "\n")

	if s := scanLines(lines, isEventLine); s != nil {
		return s
	}
	return scanLines(lines, isPlainLine)
}

func isEventLine(line string) bool {
	return containsAny(line, eventLineKeywords)
}

func isPlainLine(line string) bool {
	return !containsAny(line, applicationLineKeywords)
}

func scanLines(lines []string, accept func(string) bool) *Schedule {
	for _, line := range lines {
		if !accept(line) {
			continue
		}
		cleaned := parenRe.ReplaceAllString(line, " ")
		if s := parseRange(cleaned); s != nil {
			return s
		}
	}
	return nil
}

func parseRange(line string) *Schedule {
	if m := fullRangeRe.FindStringSubmatch(line); m != nil {
		start, ok1 := parseDateTime(m[1], m[2])
		end, ok2 := parseDateTime(m[3], m[4])
		if ok1 && ok2 && end.After(start) {
			return newSchedule(start, end)
		}
	}
	if m := shortRangeRe.FindStringSubmatch(line); m != nil {
		start, ok1 := parseDateTime(m[1], m[2])
		end, ok2 := parseDateTime(m[1], m[3])
		if ok1 && ok2 && end.After(start) {
			return newSchedule(start, end)
		}
	}
	return nil
}

// NewSchedule builds a schedule from authoritative start/end columns.
// Structured columns take precedence over anything parsed from text.
func NewSchedule(start, end time.Time) *Schedule {
	return newSchedule(start, end)
}

func newSchedule(start, end time.Time) *Schedule {
	// Calendar-date difference, not elapsed time: a late-night start rolling
	// into a third morning already spans three dates.
	days := int(midnight(end).Sub(midnight(start)).Hours() / 24)
	return &Schedule{
		Start:    start,
		End:      end,
		Reliable: days < ReliableDayThreshold,
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseDateTime(date, clock string) (time.Time, bool) {
	parts := dateSepRe.Split(date, -1)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	hm := strings.SplitN(clock, ":", 2)
	if len(hm) != 2 {
		return time.Time{}, false
	}
	hour, err4 := strconv.Atoi(hm[0])
	minute, err5 := strconv.Atoi(hm[1])
	if err4 != nil || err5 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
