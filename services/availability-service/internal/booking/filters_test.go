package booking

import (
	"testing"
	"time"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
)

func TestIsExcluded_AnyCancelledRowWins(t *testing.T) {
	loc := nyLoc(t)
	day, err := clock.ParseDate("2025-06-17", loc)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}

	// Conflicting rows for the same date: the cancelling one wins regardless
	// of order.
	exceptions := []model.ScheduleException{
		{ClassScheduleID: "s1", ExceptionDate: day, IsCancelled: false},
		{ClassScheduleID: "s1", ExceptionDate: day, IsCancelled: true},
		{ClassScheduleID: "s1", ExceptionDate: day, IsCancelled: false},
	}
	if !IsExcluded(day, exceptions, loc) {
		t.Fatal("expected date to be excluded")
	}
}

func TestIsExcluded_NonCancellingRowsAreNoOps(t *testing.T) {
	loc := nyLoc(t)
	day, err := clock.ParseDate("2025-06-17", loc)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}

	exceptions := []model.ScheduleException{
		{ClassScheduleID: "s1", ExceptionDate: day, IsCancelled: false},
	}
	if IsExcluded(day, exceptions, loc) {
		t.Fatal("non-cancelling row must not exclude the date")
	}
}

func TestIsExcluded_MatchesCalendarDayNotInstant(t *testing.T) {
	loc := nyLoc(t)
	day, err := clock.ParseDate("2025-06-17", loc)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	// Exception stored as a UTC instant that is still 06-17 in New York.
	exceptions := []model.ScheduleException{
		{ClassScheduleID: "s1", ExceptionDate: time.Date(2025, 6, 18, 1, 0, 0, 0, time.UTC), IsCancelled: true},
	}
	if !IsExcluded(day, exceptions, loc) {
		t.Fatal("expected same New York calendar day to match")
	}

	other, err := clock.ParseDate("2025-06-18", loc)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if IsExcluded(other, exceptions, loc) {
		t.Fatal("expected different New York calendar day not to match")
	}
}

func TestIsEligible(t *testing.T) {
	cases := []struct {
		name             string
		age, min, max    *int
		want             bool
	}{
		{"browsing mode", nil, intPtr(3), intPtr(6), true},
		{"no bounds", intPtr(8), nil, nil, true},
		{"within bounds", intPtr(5), intPtr(3), intPtr(6), true},
		{"at min", intPtr(3), intPtr(3), intPtr(6), true},
		{"at max", intPtr(6), intPtr(3), intPtr(6), true},
		{"too young", intPtr(2), intPtr(3), intPtr(6), false},
		{"too old", intPtr(8), intPtr(3), intPtr(6), false},
		{"min only", intPtr(2), intPtr(3), nil, false},
		{"max only", intPtr(8), nil, intPtr(6), false},
	}
	for _, tc := range cases {
		if got := IsEligible(tc.age, tc.min, tc.max); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
