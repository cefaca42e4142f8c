/*
Package calendar provides the core options-expiration calendar engine.

PURPOSE:
  This package contains the types and algorithms for working with an
  exchange expiration calendar: the six event kinds, the per-year
  Calendar value, frequency-tier classification, event selection, and
  alert-trigger evaluation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: A tagged variant over six event kinds, each carrying only
    its own fields
  - Calendar: The immutable per-year collection of events plus the
    frequency-tier table
  - Tier/FrequencyTable: Named verbosity levels mapping to event kinds

DESIGN PRINCIPLES:
  1. Immutability: A Calendar is never mutated after construction;
     accessors return fresh copies
  2. Determinism: Events sort by date with a fixed kind-priority
     tie-break, so identical inputs always produce identical output
  3. Exhaustiveness: Code dispatching on Event does so with a type
     switch over the closed set of kinds

USAGE:
  cal := calendar.Synthesize(2027)
  events, err := calendar.Classify(cal, calendar.TierMedium)

SEE ALSO:
  - classifier.go: Tier-based event classification
  - selector.go: Point and range selection
  - evaluator.go: Alert-trigger decisions
  - daterule.go: Third-Friday computation
*/
package calendar

import (
	"sort"
	"time"
)

// =============================================================================
// EVENT KINDS
// =============================================================================

// Kind identifies one of the six calendar event kinds. The set is closed:
// the engine matches exhaustively over it and does not accept extensions.
type Kind string

const (
	KindStandardExpiration      Kind = "standard_expiration"
	KindVixExpiration           Kind = "vix_expiration"
	KindAmSettledLastTradingDay Kind = "am_settled_last_trading_day"
	KindEndOfMonthQuarter       Kind = "end_of_month_quarter"
	KindLeapsAddition           Kind = "leaps_addition"
	KindExchangeHoliday         Kind = "exchange_holiday"
)

// kindPriority breaks date ties when sorting events of different kinds.
// Lower sorts first.
var kindPriority = map[Kind]int{
	KindExchangeHoliday:         0,
	KindStandardExpiration:      1,
	KindVixExpiration:           2,
	KindAmSettledLastTradingDay: 3,
	KindEndOfMonthQuarter:       4,
	KindLeapsAddition:           5,
}

// KnownKind reports whether k is one of the six supported kinds.
func KnownKind(k Kind) bool {
	_, ok := kindPriority[k]
	return ok
}

// =============================================================================
// EVENT - Tagged variant over the six kinds
// =============================================================================

// Event is the closed variant over the six calendar event kinds.
// Concrete types carry only the fields their kind defines.
type Event interface {
	// EventKind returns the kind tag of this event.
	EventKind() Kind

	// EventDate returns the event's anchor date. It is the sort key but
	// is NOT globally unique: a holiday and an expiration may coincide.
	EventDate() TimePoint

	// EventNotes returns the optional free-text annotation.
	EventNotes() string
}

// StandardExpiration is the monthly equity/index/ETF expiration
// (third Friday, or an exchange-declared override).
type StandardExpiration struct {
	Date  TimePoint
	Notes string
}

func (e StandardExpiration) EventKind() Kind      { return KindStandardExpiration }
func (e StandardExpiration) EventDate() TimePoint { return e.Date }
func (e StandardExpiration) EventNotes() string   { return e.Notes }

// VixExpiration is a VIX options expiration. LastTradingDay is always
// on or before Date.
type VixExpiration struct {
	Date           TimePoint
	LastTradingDay TimePoint
	Notes          string
}

func (e VixExpiration) EventKind() Kind      { return KindVixExpiration }
func (e VixExpiration) EventDate() TimePoint { return e.Date }
func (e VixExpiration) EventNotes() string   { return e.Notes }

// AmSettledLastTradingDay is the final trading day of an AM-settled
// series. ExpirationDate is always Date plus one day (next-morning
// settlement).
type AmSettledLastTradingDay struct {
	Date           TimePoint
	ExpirationDate TimePoint
	Notes          string
}

func (e AmSettledLastTradingDay) EventKind() Kind      { return KindAmSettledLastTradingDay }
func (e AmSettledLastTradingDay) EventDate() TimePoint { return e.Date }
func (e AmSettledLastTradingDay) EventNotes() string   { return e.Notes }

// EndOfMonthQuarter is a quarter-end expiration (last trading day of
// March, June, September, December).
type EndOfMonthQuarter struct {
	Date  TimePoint
	Notes string
}

func (e EndOfMonthQuarter) EventKind() Kind      { return KindEndOfMonthQuarter }
func (e EndOfMonthQuarter) EventDate() TimePoint { return e.Date }
func (e EndOfMonthQuarter) EventNotes() string   { return e.Notes }

// LeapsAddition marks the listing date of a new LEAPS series.
// LeapsYear is the forward year whose series is being added.
type LeapsAddition struct {
	Date      TimePoint
	LeapsYear int
	Notes     string
}

func (e LeapsAddition) EventKind() Kind      { return KindLeapsAddition }
func (e LeapsAddition) EventDate() TimePoint { return e.Date }
func (e LeapsAddition) EventNotes() string   { return e.Notes }

// ExchangeHoliday is a full market closure. DayOfWeek is derived data
// and must equal the weekday name of Date.
type ExchangeHoliday struct {
	Date      TimePoint
	Name      string
	DayOfWeek string
	Notes     string
}

func (e ExchangeHoliday) EventKind() Kind      { return KindExchangeHoliday }
func (e ExchangeHoliday) EventDate() TimePoint { return e.Date }
func (e ExchangeHoliday) EventNotes() string   { return e.Notes }

// Compile-time checks that every kind implements Event.
var (
	_ Event = StandardExpiration{}
	_ Event = VixExpiration{}
	_ Event = AmSettledLastTradingDay{}
	_ Event = EndOfMonthQuarter{}
	_ Event = LeapsAddition{}
	_ Event = ExchangeHoliday{}
)

// =============================================================================
// FREQUENCY TIERS
// =============================================================================

// Tier names a verbosity level. The tier table maps each tier to the
// event kinds considered alert-worthy at that level.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// ParseTier validates a tier name. Unknown names fail loudly: silently
// alerting at the wrong frequency is a correctness hazard.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierLow, TierMedium, TierHigh:
		return Tier(s), nil
	default:
		return "", &UnknownTierError{Tier: s}
	}
}

// FrequencyTable maps a tier to the event kinds it includes.
// Configuration is expected to expand monotonically (low ⊆ medium ⊆ high);
// a table violating that is a data error, not a code path.
type FrequencyTable map[Tier][]Kind

// DefaultFrequencies returns the domain's canonical tier table.
func DefaultFrequencies() FrequencyTable {
	return FrequencyTable{
		TierLow: {
			KindStandardExpiration,
			KindEndOfMonthQuarter,
		},
		TierMedium: {
			KindStandardExpiration,
			KindEndOfMonthQuarter,
			KindVixExpiration,
			KindLeapsAddition,
			KindExchangeHoliday,
		},
		TierHigh: {
			KindStandardExpiration,
			KindEndOfMonthQuarter,
			KindVixExpiration,
			KindLeapsAddition,
			KindExchangeHoliday,
			KindAmSettledLastTradingDay,
		},
	}
}

func (ft FrequencyTable) clone() FrequencyTable {
	out := make(FrequencyTable, len(ft))
	for tier, kinds := range ft {
		out[tier] = append([]Kind(nil), kinds...)
	}
	return out
}

// =============================================================================
// CALENDAR - Immutable per-year event collection
// =============================================================================

// Calendar owns the full event set for one year. It is immutable after
// construction: queries return fresh copies, and concurrent readers need
// no coordination.
type Calendar struct {
	year        int
	synthesized bool
	events      []Event
	frequencies FrequencyTable
}

// NewCalendar builds a Calendar from the given events and tier table.
// The input slice is copied and sorted (date ascending, kind-priority
// tie-break). A nil table falls back to DefaultFrequencies.
func NewCalendar(year int, events []Event, frequencies FrequencyTable) *Calendar {
	sorted := append([]Event(nil), events...)
	SortEvents(sorted)

	if frequencies == nil {
		frequencies = DefaultFrequencies()
	}

	return &Calendar{
		year:        year,
		events:      sorted,
		frequencies: frequencies.clone(),
	}
}

// Synthesize builds a best-effort calendar for a year with no override
// table: 12 StandardExpiration events from the third-Friday rule, with
// no holiday adjustment. Callers must treat a synthesized calendar as
// lower-confidence than an override year.
func Synthesize(year int) *Calendar {
	events := make([]Event, 0, 12)
	for month := time.January; month <= time.December; month++ {
		events = append(events, StandardExpiration{Date: ThirdFriday(year, month)})
	}
	cal := NewCalendar(year, events, nil)
	cal.synthesized = true
	return cal
}

// Empty returns a valid, degenerate calendar with zero events. It is
// the fallback when a source is missing or corrupt.
func Empty(year int) *Calendar {
	return NewCalendar(year, nil, nil)
}

// Year returns the calendar year.
func (c *Calendar) Year() int { return c.year }

// IsSynthesized reports whether this calendar was derived from the
// third-Friday rule rather than an authoritative override table.
func (c *Calendar) IsSynthesized() bool { return c.synthesized }

// Len returns the number of events across all kinds.
func (c *Calendar) Len() int { return len(c.events) }

// AllEvents returns every event, sorted, as a fresh slice.
func (c *Calendar) AllEvents() []Event {
	return append([]Event(nil), c.events...)
}

// EventsOfKind returns the events of a single kind, sorted, as a fresh
// slice.
func (c *Calendar) EventsOfKind(kind Kind) []Event {
	var out []Event
	for _, ev := range c.events {
		if ev.EventKind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Frequencies returns a copy of the tier table.
func (c *Calendar) Frequencies() FrequencyTable {
	return c.frequencies.clone()
}

// SortEvents orders events ascending by date, breaking date ties with
// the fixed kind priority so output is deterministic.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		di, dj := events[i].EventDate(), events[j].EventDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return kindPriority[events[i].EventKind()] < kindPriority[events[j].EventKind()]
	})
}
