package calendar

import (
	"time"
)

// =============================================================================
// TIME POINT - Calendar date with no time component
// =============================================================================

// TimePoint is a calendar date. All instants handed to the engine are
// assumed to be in a single reference zone already; internally a
// TimePoint is midnight UTC on its day.
type TimePoint struct {
	t time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO-8601 date string (2006-01-02).
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return TimePoint{}, err
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for compile-time-known literals; it panics
// on malformed input.
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.t.Before(other.t) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.t.Equal(other.t) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.t.After(other.t) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{t: tp.t.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.t.Year() }
func (tp TimePoint) Month() time.Month     { return tp.t.Month() }
func (tp TimePoint) Day() int              { return tp.t.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.t.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.t.IsZero() }

func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ShiftWeekendBack normalizes a weekend-landing trigger date to the
// preceding Friday: Saturday moves back one day, Sunday two. Weekdays
// are returned unchanged.
func (tp TimePoint) ShiftWeekendBack() TimePoint {
	switch tp.Weekday() {
	case time.Saturday:
		return tp.AddDays(-1)
	case time.Sunday:
		return tp.AddDays(-2)
	default:
		return tp
	}
}

// String formats as ISO-8601 date.
func (tp TimePoint) String() string { return tp.t.Format("2006-01-02") }

// DaysBetween returns the whole-day distance from one date to another.
func DaysBetween(from, to TimePoint) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}
