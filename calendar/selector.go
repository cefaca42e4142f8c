package calendar

// =============================================================================
// EVENT SELECTOR
// =============================================================================

// SelectOn returns the events whose date equals exactly the reference
// date, preserving input order. Callers asking "is there an event N days
// from now" pass reference = today + N. An empty result is a valid,
// non-error outcome.
func SelectOn(events []Event, reference TimePoint) []Event {
	var out []Event
	for _, ev := range events {
		if ev.EventDate().Equal(reference) {
			out = append(out, ev)
		}
	}
	return out
}

// SelectInRange returns the events with start <= date <= end, inclusive
// on both ends, preserving input order. Weekly previews pass
// start = today, end = today + 7.
func SelectInRange(events []Event, start, end TimePoint) []Event {
	var out []Event
	for _, ev := range events {
		d := ev.EventDate()
		if d.AfterOrEqual(start) && d.BeforeOrEqual(end) {
			out = append(out, ev)
		}
	}
	return out
}
