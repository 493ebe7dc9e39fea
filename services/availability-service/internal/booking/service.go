package booking

import (
	"fmt"
	"sort"
	"time"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/policy"
)

// Diagnostic reports a schedule skipped during evaluation. One malformed
// schedule never aborts the batch; it is reported here instead.
type Diagnostic struct {
	ScheduleID string `json:"schedule_id"`
	Reason     string `json:"reason"`
}

// Request carries everything one availability evaluation needs. The engine is
// pure: it owns no state, performs no I/O, and identical inputs with an
// identical now always produce identical output.
type Request struct {
	Schedules            []model.ClassSchedule
	ExceptionsBySchedule map[string][]model.ScheduleException
	Policy               policy.Policy
	ParticipantAge       *int
}

type Result struct {
	Dates   []model.AvailableDate `json:"dates"`
	Skipped []Diagnostic          `json:"skipped,omitempty"`
}

// ComputeAvailability evaluates every schedule in the request against the
// booking-window policy and returns the merged, ascending list of bookable
// dates. Identical dates offered by multiple schedules of a class are
// deduplicated, and only the globally earliest date is flagged next-available.
// No eligible schedules or no surviving dates is an empty result, not an
// error; only an unusable policy is.
func ComputeAvailability(req Request, now time.Time) (Result, error) {
	if err := req.Policy.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid booking policy: %w", err)
	}
	fallbackLoc, err := req.Policy.Location()
	if err != nil {
		return Result{}, fmt.Errorf("invalid booking policy: %w", err)
	}

	// Weekdays offered by the active schedule set, for the
	// restrict-to-schedule-days toggle.
	scheduleDays := make(map[int]bool, len(req.Schedules))
	for _, sched := range req.Schedules {
		if sched.IsActive && sched.DayOfWeek >= 0 && sched.DayOfWeek <= 6 {
			scheduleDays[sched.DayOfWeek] = true
		}
	}

	type dayEntry struct {
		at  time.Time
		loc *time.Location
	}
	merged := make(map[string]dayEntry)
	var skipped []Diagnostic

	for _, sched := range req.Schedules {
		if !sched.IsActive {
			continue
		}
		if !IsEligible(req.ParticipantAge, sched.MinAge, sched.MaxAge) {
			continue
		}
		if err := sched.Validate(); err != nil {
			skipped = append(skipped, Diagnostic{ScheduleID: sched.ID, Reason: err.Error()})
			continue
		}
		loc, err := sched.Location(fallbackLoc)
		if err != nil {
			skipped = append(skipped, Diagnostic{ScheduleID: sched.ID, Reason: err.Error()})
			continue
		}

		seed, ok := NextOccurrence(sched, now, loc, req.Policy.CutoffHour)
		if !ok {
			continue
		}
		for _, d := range SelectDates(seed, sched, req.ExceptionsBySchedule[sched.ID], req.Policy, scheduleDays, now, loc) {
			key := clock.DateString(d, loc)
			if _, dup := merged[key]; !dup {
				merged[key] = dayEntry{at: d, loc: loc}
			}
		}
	}

	// ISO date strings sort lexicographically in chronological order.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dates := make([]model.AvailableDate, 0, len(keys))
	for i, k := range keys {
		e := merged[k]
		dates = append(dates, model.AvailableDate{
			Date:            k,
			DayName:         clock.DayName(e.at, e.loc),
			IsNextAvailable: i == 0,
		})
	}
	return Result{Dates: dates, Skipped: skipped}, nil
}

// ResolveSingleSchedule evaluates one schedule, for callers that need
// per-slot detail (a date picker for a specific class time). Unlike the batch
// entry point, an invalid schedule here is returned as an error.
func ResolveSingleSchedule(sched model.ClassSchedule, exceptions []model.ScheduleException, pol policy.Policy, now time.Time) ([]model.AvailableDate, error) {
	if err := pol.Validate(); err != nil {
		return nil, fmt.Errorf("invalid booking policy: %w", err)
	}
	if err := sched.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule %s: %w", sched.ID, err)
	}
	fallbackLoc, err := pol.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid booking policy: %w", err)
	}
	loc, err := sched.Location(fallbackLoc)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %s: %w", sched.ID, err)
	}

	seed, ok := NextOccurrence(sched, now, loc, pol.CutoffHour)
	if !ok {
		return nil, nil
	}

	selected := SelectDates(seed, sched, exceptions, pol, map[int]bool{sched.DayOfWeek: true}, now, loc)
	dates := make([]model.AvailableDate, 0, len(selected))
	for i, d := range selected {
		dates = append(dates, model.AvailableDate{
			Date:            clock.DateString(d, loc),
			DayName:         clock.DayName(d, loc),
			IsNextAvailable: i == 0,
		})
	}
	return dates, nil
}
