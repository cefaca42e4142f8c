/*
Package factory provides JSON to Go calendar conversion and year loading.

PURPOSE:
  Converts JSON calendar source records into calendar.Calendar values.
  This keeps the authoritative exchange data out of code - a new year is
  a new JSON record (uploaded or shipped as a preset), not a code change.

JSON SCHEMA:
  {
    "year": 2026,
    "standard_expirations":         [{"date": "2026-01-16", "notes": ""}],
    "vix_expirations":              [{"date": "2026-01-21", "last_trading_day": "2026-01-20"}],
    "am_settled_last_trading_days": [{"date": "2026-01-15", "expiration_date": "2026-01-16"}],
    "end_of_month_quarter":         [{"date": "2026-03-31"}],
    "leaps_additions":              [{"date": "2026-09-21", "leaps_year": 2029}],
    "exchange_holidays":            [{"date": "2026-01-01", "name": "New Year's Day", "day_of_week": "Thursday"}],
    "frequencies": {
      "low":    ["standard_expiration", "end_of_month_quarter"],
      "medium": [...],
      "high":   [...]
    }
  }

VALIDATION:
  Parsing enforces the per-kind invariants: VIX last trading day on or
  before the expiration, AM-settled expiration exactly one day after the
  last trading day, holiday names non-empty, holiday day_of_week matching
  the actual weekday, and kind names in the frequency table recognized.
  Duplicate dates within one kind are collapsed to the first record.

LOADING:
  Loader.Load(year) resolves a year against an optional SourceStore and
  the built-in presets:
    - source record found     -> parsed override calendar (verbatim)
    - healthy store, no entry -> synthesized third-Friday calendar
    - store failure or corrupt record -> empty calendar plus a wrapped
      calendar.ErrDataUnavailable for the caller to log

SEE ALSO:
  - calendar/types.go: Event kinds and Calendar
  - year2026.go: Built-in authoritative 2026 record
  - store/sqlite: SourceStore implementation
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warp/opex-engine/calendar"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CalendarJSON is the JSON representation of one year's calendar source.
type CalendarJSON struct {
	Year                     int                 `json:"year"`
	StandardExpirations      []EventJSON         `json:"standard_expirations,omitempty"`
	VixExpirations           []EventJSON         `json:"vix_expirations,omitempty"`
	AmSettledLastTradingDays []EventJSON         `json:"am_settled_last_trading_days,omitempty"`
	EndOfMonthQuarter        []EventJSON         `json:"end_of_month_quarter,omitempty"`
	LeapsAdditions           []EventJSON         `json:"leaps_additions,omitempty"`
	ExchangeHolidays         []EventJSON         `json:"exchange_holidays,omitempty"`
	Frequencies              map[string][]string `json:"frequencies,omitempty"`
}

// EventJSON is one source record. Only `date` is universal; the other
// fields belong to specific kinds and are ignored elsewhere.
type EventJSON struct {
	Date           string `json:"date"`
	Notes          string `json:"notes,omitempty"`
	LastTradingDay string `json:"last_trading_day,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	LeapsYear      int    `json:"leaps_year,omitempty"`
	Name           string `json:"name,omitempty"`
	DayOfWeek      string `json:"day_of_week,omitempty"`
}

// =============================================================================
// CALENDAR FACTORY
// =============================================================================

// CalendarFactory converts JSON calendar sources to Calendar values.
type CalendarFactory struct{}

// NewCalendarFactory creates a new calendar factory.
func NewCalendarFactory() *CalendarFactory {
	return &CalendarFactory{}
}

// ParseCalendar parses a JSON source string into a Calendar.
func (f *CalendarFactory) ParseCalendar(jsonStr string) (*calendar.Calendar, error) {
	var cj CalendarJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts CalendarJSON to a Calendar, validating the per-kind
// invariants along the way.
func (f *CalendarFactory) FromJSON(cj CalendarJSON) (*calendar.Calendar, error) {
	if cj.Year == 0 {
		return nil, fmt.Errorf("calendar source is missing a year")
	}

	var events []calendar.Event

	add := func(kind calendar.Kind, records []EventJSON) error {
		seen := make(map[string]bool, len(records))
		for i, rec := range records {
			if seen[rec.Date] {
				// Same-kind duplicate dates collapse to the first record.
				continue
			}
			ev, err := parseEvent(kind, rec)
			if err != nil {
				return fmt.Errorf("%s record %d: %w", kind, i, err)
			}
			seen[rec.Date] = true
			events = append(events, ev)
		}
		return nil
	}

	if err := add(calendar.KindStandardExpiration, cj.StandardExpirations); err != nil {
		return nil, err
	}
	if err := add(calendar.KindVixExpiration, cj.VixExpirations); err != nil {
		return nil, err
	}
	if err := add(calendar.KindAmSettledLastTradingDay, cj.AmSettledLastTradingDays); err != nil {
		return nil, err
	}
	if err := add(calendar.KindEndOfMonthQuarter, cj.EndOfMonthQuarter); err != nil {
		return nil, err
	}
	if err := add(calendar.KindLeapsAddition, cj.LeapsAdditions); err != nil {
		return nil, err
	}
	if err := add(calendar.KindExchangeHoliday, cj.ExchangeHolidays); err != nil {
		return nil, err
	}

	frequencies, err := parseFrequencies(cj.Frequencies)
	if err != nil {
		return nil, err
	}

	return calendar.NewCalendar(cj.Year, events, frequencies), nil
}

// ToJSON converts a Calendar back to its source representation.
func (f *CalendarFactory) ToJSON(cal *calendar.Calendar) CalendarJSON {
	cj := CalendarJSON{Year: cal.Year(), Frequencies: map[string][]string{}}

	for _, ev := range cal.AllEvents() {
		rec := recordFromEvent(ev)
		switch ev.EventKind() {
		case calendar.KindStandardExpiration:
			cj.StandardExpirations = append(cj.StandardExpirations, rec)
		case calendar.KindVixExpiration:
			cj.VixExpirations = append(cj.VixExpirations, rec)
		case calendar.KindAmSettledLastTradingDay:
			cj.AmSettledLastTradingDays = append(cj.AmSettledLastTradingDays, rec)
		case calendar.KindEndOfMonthQuarter:
			cj.EndOfMonthQuarter = append(cj.EndOfMonthQuarter, rec)
		case calendar.KindLeapsAddition:
			cj.LeapsAdditions = append(cj.LeapsAdditions, rec)
		case calendar.KindExchangeHoliday:
			cj.ExchangeHolidays = append(cj.ExchangeHolidays, rec)
		}
	}

	for tier, kinds := range cal.Frequencies() {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		cj.Frequencies[string(tier)] = names
	}

	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseEvent(kind calendar.Kind, rec EventJSON) (calendar.Event, error) {
	date, err := calendar.ParseDate(rec.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", rec.Date, err)
	}

	switch kind {
	case calendar.KindStandardExpiration:
		return calendar.StandardExpiration{Date: date, Notes: rec.Notes}, nil

	case calendar.KindVixExpiration:
		ltd, err := calendar.ParseDate(rec.LastTradingDay)
		if err != nil {
			return nil, fmt.Errorf("invalid last_trading_day %q: %w", rec.LastTradingDay, err)
		}
		if ltd.After(date) {
			return nil, fmt.Errorf("last_trading_day %s after expiration %s", ltd, date)
		}
		return calendar.VixExpiration{Date: date, LastTradingDay: ltd, Notes: rec.Notes}, nil

	case calendar.KindAmSettledLastTradingDay:
		exp, err := calendar.ParseDate(rec.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expiration_date %q: %w", rec.ExpirationDate, err)
		}
		if !exp.Equal(date.AddDays(1)) {
			return nil, fmt.Errorf("expiration_date %s is not the day after %s", exp, date)
		}
		return calendar.AmSettledLastTradingDay{Date: date, ExpirationDate: exp, Notes: rec.Notes}, nil

	case calendar.KindEndOfMonthQuarter:
		return calendar.EndOfMonthQuarter{Date: date, Notes: rec.Notes}, nil

	case calendar.KindLeapsAddition:
		if rec.LeapsYear <= date.Year() {
			return nil, fmt.Errorf("leaps_year %d is not a forward year for %s", rec.LeapsYear, date)
		}
		return calendar.LeapsAddition{Date: date, LeapsYear: rec.LeapsYear, Notes: rec.Notes}, nil

	case calendar.KindExchangeHoliday:
		if rec.Name == "" {
			return nil, fmt.Errorf("holiday on %s has no name", date)
		}
		if rec.DayOfWeek != date.Weekday().String() {
			return nil, fmt.Errorf("holiday %q declares %s but %s is a %s",
				rec.Name, rec.DayOfWeek, date, date.Weekday())
		}
		return calendar.ExchangeHoliday{Date: date, Name: rec.Name, DayOfWeek: rec.DayOfWeek, Notes: rec.Notes}, nil

	default:
		return nil, fmt.Errorf("unsupported event kind %q", kind)
	}
}

func recordFromEvent(ev calendar.Event) EventJSON {
	rec := EventJSON{Date: ev.EventDate().String(), Notes: ev.EventNotes()}
	switch e := ev.(type) {
	case calendar.VixExpiration:
		rec.LastTradingDay = e.LastTradingDay.String()
	case calendar.AmSettledLastTradingDay:
		rec.ExpirationDate = e.ExpirationDate.String()
	case calendar.LeapsAddition:
		rec.LeapsYear = e.LeapsYear
	case calendar.ExchangeHoliday:
		rec.Name = e.Name
		rec.DayOfWeek = e.DayOfWeek
	}
	return rec
}

func parseFrequencies(raw map[string][]string) (calendar.FrequencyTable, error) {
	if len(raw) == 0 {
		// Sources may omit the table; the canonical one applies.
		return nil, nil
	}

	table := make(calendar.FrequencyTable, len(raw))
	for tierName, kindNames := range raw {
		tier, err := calendar.ParseTier(tierName)
		if err != nil {
			return nil, err
		}
		kinds := make([]calendar.Kind, 0, len(kindNames))
		for _, name := range kindNames {
			k := calendar.Kind(name)
			if !calendar.KnownKind(k) {
				return nil, fmt.Errorf("frequency tier %q references unknown kind %q", tierName, name)
			}
			kinds = append(kinds, k)
		}
		table[tier] = kinds
	}
	return table, nil
}

// =============================================================================
// LOADER
// =============================================================================

// SourceStore supplies externally managed calendar sources, typically
// database-backed. found=false means the store is healthy but has no
// record for the year.
type SourceStore interface {
	GetSource(ctx context.Context, year int) (jsonStr string, found bool, err error)
}

// Loader resolves a year to an immutable Calendar snapshot. Load may be
// called repeatedly (explicit reloads); every call builds a fresh value,
// so concurrent holders of older snapshots never observe mutation.
type Loader struct {
	factory *CalendarFactory
	sources SourceStore // optional
}

// NewLoader creates a Loader. sources may be nil, in which case only the
// built-in presets and the synthesis fallback apply.
func NewLoader(sources SourceStore) *Loader {
	return &Loader{factory: NewCalendarFactory(), sources: sources}
}

// Load returns the calendar for a year. A store failure or a corrupt
// record degrades to an empty calendar with a wrapped
// calendar.ErrDataUnavailable; a year nobody has data for degrades to a
// synthesized third-Friday calendar. Neither is fatal: the caller logs
// and treats the result as a valid, if lower-confidence, calendar.
func (l *Loader) Load(ctx context.Context, year int) (*calendar.Calendar, error) {
	jsonStr, found, err := l.lookup(ctx, year)
	if err != nil {
		return calendar.Empty(year), &calendar.SourceError{Year: year, Cause: err}
	}
	if !found {
		return calendar.Synthesize(year), nil
	}

	cal, err := l.factory.ParseCalendar(jsonStr)
	if err != nil {
		return calendar.Empty(year), &calendar.SourceError{Year: year, Cause: err}
	}
	if cal.Year() != year {
		return calendar.Empty(year), &calendar.SourceError{
			Year:  year,
			Cause: fmt.Errorf("source declares year %d", cal.Year()),
		}
	}
	return cal, nil
}

func (l *Loader) lookup(ctx context.Context, year int) (string, bool, error) {
	if l.sources != nil {
		jsonStr, found, err := l.sources.GetSource(ctx, year)
		if err != nil {
			return "", false, err
		}
		if found {
			return jsonStr, true, nil
		}
	}
	jsonStr, ok := presetSources[year]
	return jsonStr, ok, nil
}
