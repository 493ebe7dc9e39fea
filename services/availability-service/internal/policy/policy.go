package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode selects how far ahead a franchise exposes bookable dates. Exactly one
// mode is active per franchise; the modes are never combined.
type Mode string

const (
	// ModeNextAvailableOnly exposes the single soonest valid date.
	ModeNextAvailableOnly Mode = "NEXT_AVAILABLE_ONLY"
	// ModeMaxDaysAhead exposes every valid date inside a rolling horizon.
	ModeMaxDaysAhead Mode = "MAX_DAYS_AHEAD"
)

const (
	DefaultCutoffHour   = 18
	DefaultMaxWeeks     = 52
	DefaultMaxDaysAhead = 14
	DefaultTimezone     = "America/New_York"

	maxDaysAheadCeiling = 365
)

// Policy is a franchise's booking-window configuration, fully populated after
// Normalize. The finer-grained toggles (advance-day bounds, same-day, weekday
// restriction) compose with either mode.
type Policy struct {
	Mode                   Mode
	MaxDaysAhead           int
	MinAdvanceDays         *int
	MaxAdvanceDays         *int
	SameDayBookingEnabled  bool
	RestrictToScheduleDays bool

	// CutoffHour is the local hour after which "today" no longer counts as the
	// next occurrence of a matching weekday.
	CutoffHour int
	// MaxWeeks bounds the week-by-week walk so a misconfigured schedule can
	// never loop unbounded.
	MaxWeeks int
	// Timezone is the fallback IANA zone for schedules that carry none.
	Timezone string
}

// Default returns the policy applied when a franchise has no persisted
// booking settings.
func Default() Policy {
	return Normalize(Policy{SameDayBookingEnabled: true})
}

// Normalize is the single defaulting step for optional policy fields. Call
// sites must never fill defaults themselves; evaluation assumes a normalized
// policy.
func Normalize(p Policy) Policy {
	if p.Mode == "" {
		p.Mode = ModeNextAvailableOnly
	}
	if p.Mode == ModeMaxDaysAhead && p.MaxDaysAhead == 0 {
		p.MaxDaysAhead = DefaultMaxDaysAhead
	}
	if p.CutoffHour == 0 {
		p.CutoffHour = DefaultCutoffHour
	}
	if p.MaxWeeks == 0 {
		p.MaxWeeks = DefaultMaxWeeks
	}
	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}
	return p
}

// Validate rejects an invalid policy at construction time so evaluation never
// produces partial results from garbage configuration.
func (p Policy) Validate() error {
	switch p.Mode {
	case ModeNextAvailableOnly, ModeMaxDaysAhead:
	default:
		return fmt.Errorf("unknown booking mode %q", p.Mode)
	}
	if p.Mode == ModeMaxDaysAhead && (p.MaxDaysAhead < 1 || p.MaxDaysAhead > maxDaysAheadCeiling) {
		return fmt.Errorf("max_days_ahead %d out of range 1..%d", p.MaxDaysAhead, maxDaysAheadCeiling)
	}
	if p.MinAdvanceDays != nil && *p.MinAdvanceDays < 0 {
		return fmt.Errorf("min_advance_days %d is negative", *p.MinAdvanceDays)
	}
	if p.MaxAdvanceDays != nil && *p.MaxAdvanceDays < 0 {
		return fmt.Errorf("max_advance_days %d is negative", *p.MaxAdvanceDays)
	}
	if p.MinAdvanceDays != nil && p.MaxAdvanceDays != nil && *p.MinAdvanceDays > *p.MaxAdvanceDays {
		return fmt.Errorf("min_advance_days %d exceeds max_advance_days %d", *p.MinAdvanceDays, *p.MaxAdvanceDays)
	}
	if p.CutoffHour < 0 || p.CutoffHour > 23 {
		return fmt.Errorf("cutoff hour %d out of range 0..23", p.CutoffHour)
	}
	if p.MaxWeeks < 1 {
		return fmt.Errorf("max weeks %d must be positive", p.MaxWeeks)
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", p.Timezone, err)
	}
	return nil
}

// Location loads the policy's fallback timezone. Valid after Validate.
func (p Policy) Location() (*time.Location, error) {
	return time.LoadLocation(p.Timezone)
}

// Setting keys as persisted in franchise settings rows.
const (
	SettingBookingRestriction = "booking_restriction"
	SettingMaxDaysAhead       = "max_days_ahead"
	SettingMinAdvanceDays     = "min_advance_days"
	SettingMaxAdvanceDays     = "max_advance_days"
	SettingSameDayBooking     = "same_day_booking"
	SettingRestrictToDays     = "restrict_to_schedule_days"
	SettingCutoffHour         = "same_day_cutoff_hour"
	SettingTimezone           = "timezone"
)

// FromSettings derives a normalized, validated policy from persisted franchise
// settings rows. Missing keys fall back to defaults; unparseable values are
// configuration errors.
func FromSettings(settings map[string]string) (Policy, error) {
	p := Policy{SameDayBookingEnabled: true}

	// Zero is a legal explicit value for these two, so Normalize must not
	// treat a persisted zero as absent.
	var maxDaysSet, cutoffSet bool

	if v, ok := lookup(settings, SettingBookingRestriction); ok {
		switch strings.ToUpper(v) {
		case string(ModeNextAvailableOnly):
			p.Mode = ModeNextAvailableOnly
		case string(ModeMaxDaysAhead):
			p.Mode = ModeMaxDaysAhead
		default:
			return Policy{}, fmt.Errorf("setting %s: unknown value %q", SettingBookingRestriction, v)
		}
	}
	if v, ok := lookup(settings, SettingMaxDaysAhead); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Policy{}, fmt.Errorf("setting %s: %w", SettingMaxDaysAhead, err)
		}
		p.MaxDaysAhead = n
		maxDaysSet = true
	}
	if v, ok := lookup(settings, SettingMinAdvanceDays); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Policy{}, fmt.Errorf("setting %s: %w", SettingMinAdvanceDays, err)
		}
		p.MinAdvanceDays = &n
	}
	if v, ok := lookup(settings, SettingMaxAdvanceDays); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Policy{}, fmt.Errorf("setting %s: %w", SettingMaxAdvanceDays, err)
		}
		p.MaxAdvanceDays = &n
	}
	if v, ok := lookup(settings, SettingSameDayBooking); ok {
		p.SameDayBookingEnabled = isTruthy(v)
	}
	if v, ok := lookup(settings, SettingRestrictToDays); ok {
		p.RestrictToScheduleDays = isTruthy(v)
	}
	if v, ok := lookup(settings, SettingCutoffHour); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Policy{}, fmt.Errorf("setting %s: %w", SettingCutoffHour, err)
		}
		p.CutoffHour = n
		cutoffSet = true
	}
	if v, ok := lookup(settings, SettingTimezone); ok {
		p.Timezone = v
	}

	maxDays, cutoff := p.MaxDaysAhead, p.CutoffHour
	p = Normalize(p)
	if maxDaysSet {
		p.MaxDaysAhead = maxDays
	}
	if cutoffSet {
		p.CutoffHour = cutoff
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func lookup(settings map[string]string, key string) (string, bool) {
	v, ok := settings[key]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func isTruthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v != "" && v != "false" && v != "0"
}
