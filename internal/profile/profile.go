// Package profile models registered users: their interest keywords and busy
// timetable. Busy blocks arrive as loosely-shaped JSON and are normalized
// into typed intervals before any conflict check runs.
package profile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/se-wein/kumrec-go/internal/errors"
)

// Profile is one registered user's stored state.
type Profile struct {
	UserID    string      `json:"user_id"`
	Interests []string    `json:"interests"`
	Busy      []BusyBlock `json:"busy"`
}

// InterestText joins the interest keywords into the single string that gets
// embedded as the user's interest vector.
func (p *Profile) InterestText() string {
	return strings.Join(p.Interests, " ")
}

// BusyBlock is a raw timetable entry. Four shapes are accepted:
//
//	{"day": "월", "startTime": "09:00", "endTime": "12:00"}   weekly
//	{"start": "2026.03.02 14:00", "end": "2026.03.02 16:00"}  absolute
//	{"startDay": "2026.03.02", "startTime": "14:00",
//	 "endDay": "2026.03.04", "endTime": "16:00"}              absolute, split
//	{"startTime": "09:00", "endTime": "12:00"}                every day
type BusyBlock struct {
	Day       string `json:"day,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	StartDay  string `json:"startDay,omitempty"`
	EndDay    string `json:"endDay,omitempty"`
}

// IntervalKind classifies a normalized busy interval.
type IntervalKind int

const (
	// KindWeekly recurs on one weekday at fixed clock times.
	KindWeekly IntervalKind = iota
	// KindAbsolute is a concrete datetime range.
	KindAbsolute
	// KindDaily recurs every day at fixed clock times.
	KindDaily
)

// Interval is a normalized busy block. Weekly and daily intervals carry
// minutes-of-day; absolute intervals carry full timestamps.
type Interval struct {
	Kind     IntervalKind
	Weekday  time.Weekday
	StartMin int
	EndMin   int
	Start    time.Time
	End      time.Time
}

// Normalize converts raw busy blocks into typed intervals. Malformed blocks
// are reported as warnings and skipped rather than failing the whole profile.
func Normalize(blocks []BusyBlock) ([]Interval, []apperrors.BlockWarning) {
	var intervals []Interval
	var warnings []apperrors.BlockWarning

	for i, b := range blocks {
		iv, err := normalizeBlock(b)
		if err != nil {
			warnings = append(warnings, apperrors.BlockWarning{Index: i, Reason: err.Error()})
			continue
		}
		intervals = append(intervals, iv)
	}
	return intervals, warnings
}

func normalizeBlock(b BusyBlock) (Interval, error) {
	switch {
	case b.Start != "" || b.End != "":
		return normalizeAbsolute(b.Start, b.End)

	case b.StartDay != "" || b.EndDay != "":
		return normalizeAbsolute(
			strings.TrimSpace(b.StartDay+" "+b.StartTime),
			strings.TrimSpace(b.EndDay+" "+b.EndTime))

	case b.Day != "":
		return normalizeWeekly(b)

	case b.StartTime != "" || b.EndTime != "":
		return normalizeDaily(b)
	}
	return Interval{}, fmt.Errorf("unrecognized shape")
}

func normalizeAbsolute(start, end string) (Interval, error) {
	s, err := parseDateTime(start)
	if err != nil {
		return Interval{}, fmt.Errorf("bad start %q", start)
	}
	e, err := parseDateTime(end)
	if err != nil {
		return Interval{}, fmt.Errorf("bad end %q", end)
	}
	if !e.After(s) {
		return Interval{}, fmt.Errorf("end %q not after start %q", end, start)
	}
	return Interval{Kind: KindAbsolute, Start: s, End: e}, nil
}

func normalizeWeekly(b BusyBlock) (Interval, error) {
	day, ok := ParseWeekday(b.Day)
	if !ok {
		return Interval{}, fmt.Errorf("unknown day %q", b.Day)
	}
	startMin, endMin, err := parseClockRange(b.StartTime, b.EndTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Kind: KindWeekly, Weekday: day, StartMin: startMin, EndMin: endMin}, nil
}

func normalizeDaily(b BusyBlock) (Interval, error) {
	startMin, endMin, err := parseClockRange(b.StartTime, b.EndTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Kind: KindDaily, StartMin: startMin, EndMin: endMin}, nil
}

func parseClockRange(start, end string) (int, int, error) {
	if start == "" {
		return 0, 0, fmt.Errorf("missing startTime")
	}
	if end == "" {
		return 0, 0, fmt.Errorf("missing endTime")
	}
	startMin, ok := ParseClock(start)
	if !ok {
		return 0, 0, fmt.Errorf("bad startTime %q", start)
	}
	endMin, ok := ParseClock(end)
	if !ok {
		return 0, 0, fmt.Errorf("bad endTime %q", end)
	}
	if endMin <= startMin {
		return 0, 0, fmt.Errorf("endTime %q not after startTime %q", end, start)
	}
	return startMin, endMin, nil
}

var weekdayNames = map[string]time.Weekday{
	"월": time.Monday, "화": time.Tuesday, "수": time.Wednesday,
	"목": time.Thursday, "금": time.Friday, "토": time.Saturday, "일": time.Sunday,
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday, "sunday": time.Sunday,
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
}

// ParseWeekday recognizes Korean single-character and English day names.
// "월요일" style suffixed forms are accepted via their leading character.
func ParseWeekday(s string) (time.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdayNames[key]; ok {
		return d, true
	}
	runes := []rune(key)
	if len(runes) > 0 {
		if d, ok := weekdayNames[string(runes[0])]; ok {
			return d, true
		}
	}
	return 0, false
}

// ParseClock converts "HH:MM" into minutes of day.
func ParseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

var dateTimeLayouts = []string{
	"2006.01.02 15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime %q", s)
}
