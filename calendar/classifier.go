package calendar

// =============================================================================
// FREQUENCY CLASSIFIER
// =============================================================================

// Classify returns the calendar's events for one frequency tier, merged
// across the tier's kinds and sorted ascending by date with the fixed
// kind-priority tie-break. The result is a fresh slice on every call;
// the calendar is never mutated.
//
// An unrecognized tier fails with an UnknownTierError. It never falls
// back to a default tier, since silently alerting at the wrong frequency
// is a correctness hazard in this domain.
func Classify(cal *Calendar, tier Tier) ([]Event, error) {
	kinds, ok := cal.frequencies[tier]
	if !ok {
		return nil, &UnknownTierError{Tier: string(tier)}
	}

	included := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		included[k] = true
	}

	var out []Event
	for _, ev := range cal.events {
		if included[ev.EventKind()] {
			out = append(out, ev)
		}
	}

	// cal.events is already in canonical order; restating the sort keeps
	// the contract independent of Calendar internals.
	SortEvents(out)
	return out, nil
}
