package main

import (
	"testing"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/policy"
)

func TestDefaultPolicy(t *testing.T) {
	pol := defaultPolicy()
	if err := pol.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if pol.Mode != policy.ModeNextAvailableOnly {
		t.Fatalf("expected mode %s, got %s", policy.ModeNextAvailableOnly, pol.Mode)
	}
	if pol.MaxDaysAhead != policy.DefaultMaxDaysAhead {
		t.Fatalf("expected max days ahead %d, got %d", policy.DefaultMaxDaysAhead, pol.MaxDaysAhead)
	}
	if pol.CutoffHour != policy.DefaultCutoffHour {
		t.Fatalf("expected cutoff %d, got %d", policy.DefaultCutoffHour, pol.CutoffHour)
	}
}

func TestDefaultPolicyEnvOverrides(t *testing.T) {
	t.Setenv("DEFAULT_BOOKING_MODE", "MAX_DAYS_AHEAD")
	t.Setenv("SAME_DAY_CUTOFF_HOUR", "0")
	t.Setenv("DEFAULT_TIMEZONE", "America/Chicago")

	pol := defaultPolicy()
	if err := pol.Validate(); err != nil {
		t.Fatalf("overridden policy invalid: %v", err)
	}
	if pol.Mode != policy.ModeMaxDaysAhead {
		t.Fatalf("expected mode %s, got %s", policy.ModeMaxDaysAhead, pol.Mode)
	}
	if pol.CutoffHour != 0 {
		t.Fatalf("expected explicit cutoff 0 to survive, got %d", pol.CutoffHour)
	}
	if pol.Timezone != "America/Chicago" {
		t.Fatalf("expected America/Chicago, got %s", pol.Timezone)
	}
}
