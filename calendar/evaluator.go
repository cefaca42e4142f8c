/*
evaluator.go - Alert-trigger evaluation

PURPOSE:
  Decides whether a D-N alert fires for an event given a reference
  instant, and whether a weekly preview window has anything in it.

WEEKEND-SHIFT RULE:
  A trigger date landing on Saturday is shifted back one day and a
  Sunday trigger back two, both to the preceding Friday, before the
  comparison. The domain convention is that a weekend-scheduled alert
  effectively belongs to the preceding business day - never skipped,
  never deferred to Monday. The shift applies to the comparison target
  only; an event's own recorded date is never touched. An event whose
  recorded date itself falls on a weekend is undefined input pending an
  authoritative ruling, and gets no special handling here.

STATELESSNESS:
  Every evaluation is a pure, fresh computation from "now". There is no
  "already fired" state in the engine; duplicate suppression belongs to
  the external scheduler, which is expected to call at most once per
  calendar day per offset or to be idempotent about repeat decisions.
*/
package calendar

import "time"

// Decision is the transient outcome of one trigger evaluation. It is
// never persisted or cached; "now" changes each invocation.
type Decision struct {
	Fire bool

	// EffectiveDate is the weekend-normalized date the alert is for.
	EffectiveDate TimePoint
}

// WindowDecision is the outcome of a weekly-window evaluation.
type WindowDecision struct {
	Fire   bool
	Start  TimePoint
	End    TimePoint
	Events []Event
}

// ShouldFire reports whether a D-offsetDays alert fires for the event at
// the given reference instant. The instant is truncated to its date;
// target = date + offsetDays, weekend-shifted back to Friday, then
// compared with the event date.
//
// Negative offsets are not a supported concept for forward-looking
// alerts and fail with an InvalidOffsetError. All other inputs are total.
func ShouldFire(now time.Time, ev Event, offsetDays int) (Decision, error) {
	if offsetDays < 0 {
		return Decision{}, &InvalidOffsetError{Offset: offsetDays}
	}

	target := DateOf(now).AddDays(offsetDays).ShiftWeekendBack()
	return Decision{
		Fire:          target.Equal(ev.EventDate()),
		EffectiveDate: target,
	}, nil
}

// ShouldFireWindow reports whether a preview alert fires: true when at
// least one classified event falls in [date(now), date(now)+windowDays],
// inclusive on both ends. The matching events come back in chronological
// order.
func ShouldFireWindow(now time.Time, events []Event, windowDays int) (WindowDecision, error) {
	if windowDays < 0 {
		return WindowDecision{}, &InvalidOffsetError{Offset: windowDays}
	}

	start := DateOf(now)
	end := start.AddDays(windowDays)
	matched := SelectInRange(events, start, end)

	return WindowDecision{
		Fire:   len(matched) > 0,
		Start:  start,
		End:    end,
		Events: matched,
	}, nil
}
