package booking

import (
	"time"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
)

// NextOccurrence finds the first calendar date on or after now that matches
// the schedule's weekday, honoring its date bounds. After cutoffHour (local)
// a matching today no longer counts and the search jumps a week ahead.
//
// The returned date is the seed candidate only; SelectDates walks forward
// week by week from it.
func NextOccurrence(sched model.ClassSchedule, now time.Time, loc *time.Location, cutoffHour int) (time.Time, bool) {
	today := clock.StartOfDay(now, loc)

	offset := (sched.DayOfWeek - clock.DayOfWeek(now, loc) + 7) % 7
	if offset == 0 && now.In(loc).Hour() >= cutoffHour {
		offset = 7
	}
	candidate := clock.AddDays(today, offset, loc)

	if sched.DateStart != nil {
		start := clock.StartOfDay(*sched.DateStart, loc)
		if candidate.Before(start) {
			// Re-anchor on the schedule's start date. When the start date itself
			// falls on the configured weekday it is the first occurrence; a
			// mid-week start must not skip the matching day later that week.
			if clock.DayOfWeek(start, loc) == sched.DayOfWeek {
				candidate = start
			} else {
				candidate = clock.AddDays(start, (sched.DayOfWeek-clock.DayOfWeek(start, loc)+7)%7, loc)
			}
		}
	}

	if sched.DateEnd != nil && candidate.After(clock.StartOfDay(*sched.DateEnd, loc)) {
		return time.Time{}, false
	}
	return candidate, true
}
