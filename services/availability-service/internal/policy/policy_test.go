package policy

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestNormalize_Defaults(t *testing.T) {
	p := Normalize(Policy{})
	if p.Mode != ModeNextAvailableOnly {
		t.Fatalf("expected default mode %s, got %s", ModeNextAvailableOnly, p.Mode)
	}
	if p.CutoffHour != DefaultCutoffHour {
		t.Fatalf("expected cutoff %d, got %d", DefaultCutoffHour, p.CutoffHour)
	}
	if p.MaxWeeks != DefaultMaxWeeks {
		t.Fatalf("expected max weeks %d, got %d", DefaultMaxWeeks, p.MaxWeeks)
	}
	if p.Timezone != DefaultTimezone {
		t.Fatalf("expected timezone %s, got %s", DefaultTimezone, p.Timezone)
	}
}

func TestNormalize_MaxDaysAheadDefault(t *testing.T) {
	p := Normalize(Policy{Mode: ModeMaxDaysAhead})
	if p.MaxDaysAhead != DefaultMaxDaysAhead {
		t.Fatalf("expected %d, got %d", DefaultMaxDaysAhead, p.MaxDaysAhead)
	}

	p = Normalize(Policy{Mode: ModeMaxDaysAhead, MaxDaysAhead: 30})
	if p.MaxDaysAhead != 30 {
		t.Fatalf("explicit value must survive normalization, got %d", p.MaxDaysAhead)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{"valid default", func(*Policy) {}, ""},
		{"unknown mode", func(p *Policy) { p.Mode = "WHENEVER" }, "unknown booking mode"},
		{"max days too small", func(p *Policy) { p.Mode = ModeMaxDaysAhead; p.MaxDaysAhead = 0 }, "out of range"},
		{"max days too large", func(p *Policy) { p.Mode = ModeMaxDaysAhead; p.MaxDaysAhead = 366 }, "out of range"},
		{"max days at ceiling", func(p *Policy) { p.Mode = ModeMaxDaysAhead; p.MaxDaysAhead = 365 }, ""},
		{"negative min advance", func(p *Policy) { p.MinAdvanceDays = intPtr(-1) }, "negative"},
		{"negative max advance", func(p *Policy) { p.MaxAdvanceDays = intPtr(-2) }, "negative"},
		{"min exceeds max", func(p *Policy) { p.MinAdvanceDays = intPtr(5); p.MaxAdvanceDays = intPtr(3) }, "exceeds"},
		{"min equals max", func(p *Policy) { p.MinAdvanceDays = intPtr(3); p.MaxAdvanceDays = intPtr(3) }, ""},
		{"cutoff out of range", func(p *Policy) { p.CutoffHour = 24 }, "cutoff hour"},
		{"bad timezone", func(p *Policy) { p.Timezone = "Mars/Olympus" }, "timezone"},
	}
	for _, tc := range cases {
		p := Default()
		tc.mutate(&p)
		err := p.Validate()
		if tc.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestFromSettings_FullSet(t *testing.T) {
	p, err := FromSettings(map[string]string{
		SettingBookingRestriction: "max_days_ahead",
		SettingMaxDaysAhead:       "21",
		SettingMinAdvanceDays:     "1",
		SettingMaxAdvanceDays:     "30",
		SettingSameDayBooking:     "false",
		SettingRestrictToDays:     "true",
		SettingCutoffHour:         "17",
		SettingTimezone:           "America/Denver",
	})
	if err != nil {
		t.Fatalf("from settings: %v", err)
	}
	if p.Mode != ModeMaxDaysAhead || p.MaxDaysAhead != 21 {
		t.Fatalf("unexpected mode config: %+v", p)
	}
	if p.MinAdvanceDays == nil || *p.MinAdvanceDays != 1 {
		t.Fatalf("expected min advance 1, got %+v", p.MinAdvanceDays)
	}
	if p.MaxAdvanceDays == nil || *p.MaxAdvanceDays != 30 {
		t.Fatalf("expected max advance 30, got %+v", p.MaxAdvanceDays)
	}
	if p.SameDayBookingEnabled {
		t.Fatal("expected same-day booking disabled")
	}
	if !p.RestrictToScheduleDays {
		t.Fatal("expected restrict-to-schedule-days enabled")
	}
	if p.CutoffHour != 17 {
		t.Fatalf("expected cutoff 17, got %d", p.CutoffHour)
	}
	if p.Timezone != "America/Denver" {
		t.Fatalf("expected America/Denver, got %s", p.Timezone)
	}
}

func TestFromSettings_EmptyMapYieldsDefaults(t *testing.T) {
	p, err := FromSettings(map[string]string{})
	if err != nil {
		t.Fatalf("from settings: %v", err)
	}
	if p != Default() {
		t.Fatalf("expected default policy, got %+v", p)
	}
}

func TestFromSettings_RejectsGarbage(t *testing.T) {
	if _, err := FromSettings(map[string]string{SettingBookingRestriction: "whenever"}); err == nil {
		t.Fatal("expected unknown restriction to fail")
	}
	if _, err := FromSettings(map[string]string{SettingMaxDaysAhead: "lots"}); err == nil {
		t.Fatal("expected non-numeric max_days_ahead to fail")
	}
	if _, err := FromSettings(map[string]string{
		SettingBookingRestriction: "max_days_ahead",
		SettingMaxDaysAhead:       "9999",
	}); err == nil {
		t.Fatal("expected out-of-range max_days_ahead to fail validation")
	}
	if _, err := FromSettings(map[string]string{
		SettingMinAdvanceDays: "7",
		SettingMaxAdvanceDays: "2",
	}); err == nil {
		t.Fatal("expected min>max to fail validation")
	}
}

func TestFromSettings_ModeIsCaseInsensitive(t *testing.T) {
	p, err := FromSettings(map[string]string{SettingBookingRestriction: "NEXT_AVAILABLE_ONLY"})
	if err != nil {
		t.Fatalf("from settings: %v", err)
	}
	if p.Mode != ModeNextAvailableOnly {
		t.Fatalf("expected %s, got %s", ModeNextAvailableOnly, p.Mode)
	}
}

func TestFromSettings_ExplicitZeroCutoffHourKept(t *testing.T) {
	p, err := FromSettings(map[string]string{SettingCutoffHour: "0"})
	if err != nil {
		t.Fatalf("from settings: %v", err)
	}
	if p.CutoffHour != 0 {
		t.Fatalf("expected persisted cutoff hour 0 to survive, got %d", p.CutoffHour)
	}
}

func TestFromSettings_ExplicitZeroMaxDaysAheadRejected(t *testing.T) {
	_, err := FromSettings(map[string]string{
		SettingBookingRestriction: "MAX_DAYS_AHEAD",
		SettingMaxDaysAhead:       "0",
	})
	if err == nil {
		t.Fatal("expected max_days_ahead 0 to fail validation, not default to 14")
	}
}
