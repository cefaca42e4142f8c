package calendar

import "time"

// =============================================================================
// DATE RULE - Nth weekday of a month
// =============================================================================

// NthWeekdayOfMonth computes the nth occurrence of a weekday in a month:
// the first occurrence on or after the 1st, plus n-1 full weeks. It is
// pure and total for month 1-12; months outside that range are undefined
// input and the caller's responsibility to validate.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) TimePoint {
	first := NewTimePoint(year, month, 1)
	daysUntil := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(daysUntil + (n-1)*7)
}

// ThirdFriday is the domain's standard expiration rule. It carries no
// holiday adjustment; override tables handle exchange-declared shifts.
func ThirdFriday(year int, month time.Month) TimePoint {
	return NthWeekdayOfMonth(year, month, time.Friday, 3)
}
