/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes for the REST surface. Domain types stay inside the
  calendar package; everything crossing the wire goes through these.

SEE ALSO:
  - handlers.go: Handler implementations that produce these
  - factory/calendar.go: the persisted source format (different shape:
    sources are grouped by kind, DTOs are a flat event list)
*/
package api

import (
	"time"

	"github.com/warp/opex-engine/calendar"
	"github.com/warp/opex-engine/store/sqlite"
)

// EventDTO is one calendar event on the wire. Kind-specific fields are
// omitted when they do not apply.
type EventDTO struct {
	Kind  string `json:"kind"`
	Date  string `json:"date"`
	Notes string `json:"notes,omitempty"`

	// VIX expirations
	LastTradingDay string `json:"last_trading_day,omitempty"`
	// AM-settled last trading days
	ExpirationDate string `json:"expiration_date,omitempty"`
	// LEAPS additions
	LeapsYear int `json:"leaps_year,omitempty"`
	// Exchange holidays
	Name      string `json:"name,omitempty"`
	DayOfWeek string `json:"day_of_week,omitempty"`
}

// CalendarDTO is a full-year calendar response.
type CalendarDTO struct {
	Year        int                 `json:"year"`
	Synthesized bool                `json:"synthesized"`
	Events      []EventDTO          `json:"events"`
	Frequencies map[string][]string `json:"frequencies"`
}

// AlertLogDTO is one fired-alert audit record.
type AlertLogDTO struct {
	ID            string `json:"id"`
	AlertType     string `json:"alert_type"`
	EventKind     string `json:"event_kind"`
	EventDate     string `json:"event_date"`
	OffsetDays    int    `json:"offset_days"`
	EffectiveDate string `json:"effective_date"`
	FiredOn       string `json:"fired_on"`
	Message       string `json:"message"`
	CreatedAt     string `json:"created_at"`
}

// NextEventDTO is the "what comes next" response.
type NextEventDTO struct {
	Event     EventDTO `json:"event"`
	From      string   `json:"from"`
	DaysUntil int      `json:"days_until"`
}

// CheckResultDTO reports what an on-demand alert check decided.
type CheckResultDTO struct {
	Now        string     `json:"now"`
	Tier       string     `json:"tier"`
	OffsetDays int        `json:"offset_days"`
	Fired      []EventDTO `json:"fired"`
	Skipped    int        `json:"skipped_duplicates"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// toEventDTO flattens a domain event into its wire shape. The type
// switch is exhaustive over the closed kind set.
func toEventDTO(ev calendar.Event) EventDTO {
	dto := EventDTO{
		Kind:  string(ev.EventKind()),
		Date:  ev.EventDate().String(),
		Notes: ev.EventNotes(),
	}
	switch e := ev.(type) {
	case calendar.VixExpiration:
		dto.LastTradingDay = e.LastTradingDay.String()
	case calendar.AmSettledLastTradingDay:
		dto.ExpirationDate = e.ExpirationDate.String()
	case calendar.LeapsAddition:
		dto.LeapsYear = e.LeapsYear
	case calendar.ExchangeHoliday:
		dto.Name = e.Name
		dto.DayOfWeek = e.DayOfWeek
	}
	return dto
}

func toEventDTOs(events []calendar.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev)
	}
	return dtos
}

func toCalendarDTO(cal *calendar.Calendar) CalendarDTO {
	freqs := make(map[string][]string)
	for tier, kinds := range cal.Frequencies() {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		freqs[string(tier)] = names
	}
	return CalendarDTO{
		Year:        cal.Year(),
		Synthesized: cal.IsSynthesized(),
		Events:      toEventDTOs(cal.AllEvents()),
		Frequencies: freqs,
	}
}

func toAlertLogDTO(rec sqlite.AlertRecord) AlertLogDTO {
	return AlertLogDTO{
		ID:            rec.ID,
		AlertType:     rec.AlertType,
		EventKind:     rec.EventKind,
		EventDate:     rec.EventDate,
		OffsetDays:    rec.OffsetDays,
		EffectiveDate: rec.EffectiveDate,
		FiredOn:       rec.FiredOn,
		Message:       rec.Message,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}
