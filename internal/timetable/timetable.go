// Package timetable decides whether a program's schedule collides with a
// user's busy intervals. Touching boundaries (one ends exactly when the other
// starts) never count as a conflict.
package timetable

import (
	"time"

	"github.com/se-wein/kumrec-go/internal/profile"
	"github.com/se-wein/kumrec-go/internal/record"
)

const minutesPerDay = 24 * 60

// daySegment is one calendar day's slice of a schedule, clamped to the
// schedule's own start and end on the first and last day.
type daySegment struct {
	weekday  time.Weekday
	startMin int
	endMin   int
}

// Conflicts reports whether the schedule collides with any busy interval.
// Absolute intervals are checked against every schedule. Recurring intervals
// (weekly, daily) are only checked against reliable schedules, since vague
// multi-week periods carry no trustworthy hour-of-day information.
func Conflicts(s *record.Schedule, busy []profile.Interval) bool {
	if s == nil || len(busy) == 0 {
		return false
	}

	var segments []daySegment

	for _, iv := range busy {
		switch iv.Kind {
		case profile.KindAbsolute:
			if overlaps(s.Start, s.End, iv.Start, iv.End) {
				return true
			}

		case profile.KindWeekly:
			if !s.Reliable {
				continue
			}
			if segments == nil {
				segments = expand(s)
			}
			for _, seg := range segments {
				if seg.weekday == iv.Weekday &&
					overlapsMinutes(seg.startMin, seg.endMin, iv.StartMin, iv.EndMin) {
					return true
				}
			}

		case profile.KindDaily:
			if !s.Reliable {
				continue
			}
			if segments == nil {
				segments = expand(s)
			}
			for _, seg := range segments {
				if overlapsMinutes(seg.startMin, seg.endMin, iv.StartMin, iv.EndMin) {
					return true
				}
			}
		}
	}
	return false
}

// overlaps is the strict interval test: max(starts) < min(ends).
func overlaps(s1, e1, s2, e2 time.Time) bool {
	start := s1
	if s2.After(start) {
		start = s2
	}
	end := e1
	if e2.Before(end) {
		end = e2
	}
	return start.Before(end)
}

func overlapsMinutes(s1, e1, s2, e2 int) bool {
	return max(s1, s2) < min(e1, e2)
}

// expand slices a schedule into per-day segments. The first day starts at the
// schedule's clock time, the last ends at it, and middle days cover the full
// day.
func expand(s *record.Schedule) []daySegment {
	startDay := s.Start.Truncate(24 * time.Hour)
	endDay := s.End.Truncate(24 * time.Hour)

	var segments []daySegment
	for day := startDay; !day.After(endDay); day = day.Add(24 * time.Hour) {
		startMin := 0
		endMin := minutesPerDay
		if day.Equal(startDay) {
			startMin = s.Start.Hour()*60 + s.Start.Minute()
		}
		if day.Equal(endDay) {
			endMin = s.End.Hour()*60 + s.End.Minute()
		}
		if startMin >= endMin {
			continue
		}
		segments = append(segments, daySegment{
			weekday:  day.Weekday(),
			startMin: startMin,
			endMin:   endMin,
		})
	}
	return segments
}
