package clock

import "time"

// Clock supplies "now". Handlers and the engine never call time.Now directly;
// tests inject a Fixed clock to make availability output deterministic.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func System() Clock { return systemClock{} }

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func Fixed(t time.Time) Clock { return fixedClock{t: t} }

// StartOfDay returns midnight of t's calendar date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// AddDays adds n calendar days in loc. Going through time.Date keeps the
// result on a wall-clock midnight even when the interval crosses a DST
// transition (a 23- or 25-hour day).
func AddDays(t time.Time, n int, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+n, 0, 0, 0, 0, loc)
}

func SameDay(a, b time.Time, loc *time.Location) bool {
	al, bl := a.In(loc), b.In(loc)
	ay, am, ad := al.Date()
	by, bm, bd := bl.Date()
	return ay == by && am == bm && ad == bd
}

// DayOfWeek returns t's weekday in loc, 0=Sunday..6=Saturday.
func DayOfWeek(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday())
}

// DateString renders t's calendar date in loc as YYYY-MM-DD.
func DateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func DayName(t time.Time, loc *time.Location) string {
	return t.In(loc).Weekday().String()
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}
