package booking

import (
	"time"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
)

// IsExcluded reports whether date is cancelled by an exception. Duplicate or
// conflicting rows for the same date are tolerated: any cancelled row wins,
// and rows with IsCancelled=false never un-cancel a date.
func IsExcluded(date time.Time, exceptions []model.ScheduleException, loc *time.Location) bool {
	for _, ex := range exceptions {
		if ex.IsCancelled && clock.SameDay(date, ex.ExceptionDate, loc) {
			return true
		}
	}
	return false
}

// IsEligible gates an entire schedule by participant age; an ineligible
// schedule contributes zero dates. A nil participantAge means browsing mode
// (always eligible), and absent bounds are unbounded.
func IsEligible(participantAge, minAge, maxAge *int) bool {
	if participantAge == nil {
		return true
	}
	if minAge != nil && *participantAge < *minAge {
		return false
	}
	if maxAge != nil && *participantAge > *maxAge {
		return false
	}
	return true
}
