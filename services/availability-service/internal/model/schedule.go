package model

import (
	"fmt"
	"time"
)

// ClassSchedule is one weekly recurring time slot for a class. Age bounds are
// denormalized from the owning class and the timezone from its location, so the
// engine can evaluate a schedule without further lookups.
type ClassSchedule struct {
	ID        string
	ClassID   string
	DayOfWeek int // 0=Sunday..6=Saturday
	StartTime string
	EndTime   string
	DateStart *time.Time
	DateEnd   *time.Time
	IsActive  bool
	MinAge    *int
	MaxAge    *int
	Timezone  string
}

// ScheduleException cancels a single occurrence of a schedule. Rows with
// IsCancelled=false are no-ops and never override a cancelling row for the
// same date.
type ScheduleException struct {
	ClassScheduleID string
	ExceptionDate   time.Time
	IsCancelled     bool
}

// AvailableDate is one bookable calendar date. At most one entry in any
// result set carries IsNextAvailable=true.
type AvailableDate struct {
	Date            string `json:"date"`
	DayName         string `json:"day_name"`
	IsNextAvailable bool   `json:"is_next_available"`
}

// Validate reports why a schedule cannot be evaluated. A DateEnd in the past
// is not a validation failure; such a schedule simply yields no dates.
func (s ClassSchedule) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range 0..6", s.DayOfWeek)
	}
	if _, err := parseClockTime(s.StartTime); err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	if _, err := parseClockTime(s.EndTime); err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if s.DateStart != nil && s.DateEnd != nil && s.DateStart.After(*s.DateEnd) {
		return fmt.Errorf("date_start %s after date_end %s",
			s.DateStart.Format("2006-01-02"), s.DateEnd.Format("2006-01-02"))
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("timezone %q: %w", s.Timezone, err)
		}
	}
	return nil
}

// Location resolves the schedule's timezone, falling back to the supplied
// default when the schedule carries none.
func (s ClassSchedule) Location(fallback *time.Location) (*time.Location, error) {
	if s.Timezone == "" {
		return fallback, nil
	}
	return time.LoadLocation(s.Timezone)
}

func parseClockTime(v string) (time.Time, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid HH:MM value %q", v)
	}
	return t, nil
}
