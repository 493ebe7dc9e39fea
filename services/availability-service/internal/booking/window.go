package booking

import (
	"time"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/policy"
)

// SelectDates walks candidate dates forward from seed in 7-day steps and
// applies the booking-window decision table to each one:
//
//	same-day disabled and candidate is today        -> skip
//	candidate before today+minAdvanceDays           -> skip
//	candidate after today+maxAdvanceDays            -> stop (later dates are only further out)
//	candidate past the schedule's date_end          -> stop
//	weekday restriction and weekday not configured  -> skip
//	cancelled exception on the candidate            -> skip
//	otherwise                                       -> accept
//
// NEXT_AVAILABLE_ONLY stops at the first accepted date. MAX_DAYS_AHEAD
// accepts every date strictly inside the rolling horizon. Both walks are
// capped at pol.MaxWeeks iterations so a misconfigured schedule cannot loop
// unbounded. The policy must be normalized and validated before evaluation.
func SelectDates(seed time.Time, sched model.ClassSchedule, exceptions []model.ScheduleException, pol policy.Policy, scheduleDays map[int]bool, now time.Time, loc *time.Location) []time.Time {
	today := clock.StartOfDay(now, loc)

	var horizon time.Time
	if pol.Mode == policy.ModeMaxDaysAhead {
		horizon = clock.AddDays(today, pol.MaxDaysAhead, loc)
	}
	var minDate time.Time
	if pol.MinAdvanceDays != nil {
		minDate = clock.AddDays(today, *pol.MinAdvanceDays, loc)
	}
	var maxDate time.Time
	if pol.MaxAdvanceDays != nil {
		maxDate = clock.AddDays(today, *pol.MaxAdvanceDays, loc)
	}
	var dateEnd time.Time
	if sched.DateEnd != nil {
		dateEnd = clock.StartOfDay(*sched.DateEnd, loc)
	}

	var accepted []time.Time
	d := seed
	for week := 0; week < pol.MaxWeeks; week++ {
		if !horizon.IsZero() && !d.Before(horizon) {
			break
		}
		if !maxDate.IsZero() && d.After(maxDate) {
			break
		}
		if !dateEnd.IsZero() && d.After(dateEnd) {
			break
		}

		switch {
		case !pol.SameDayBookingEnabled && d.Equal(today):
			// same-day booking disabled
		case !minDate.IsZero() && d.Before(minDate):
			// inside the minimum advance-notice window
		case pol.RestrictToScheduleDays && !scheduleDays[clock.DayOfWeek(d, loc)]:
			// weekday not offered by the active schedule set
		case IsExcluded(d, exceptions, loc):
			// one-off cancellation
		default:
			accepted = append(accepted, d)
			if pol.Mode == policy.ModeNextAvailableOnly {
				return accepted
			}
		}

		d = clock.AddDays(d, 7, loc)
	}
	return accepted
}
