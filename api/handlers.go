/*
handlers.go - HTTP API handlers for the OPEX calendar engine

PURPOSE:
  Exposes the calendar engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Calendars:
    GET    /api/calendar/{year}          Full calendar for a year
    GET    /api/calendar/{year}/events   Events filtered by tier
    GET    /api/calendar/{year}/on       Events on one date
    GET    /api/calendar/{year}/next     First event on or after a date
    GET    /api/calendar/{year}/range    Events in an inclusive date range
    POST   /api/calendar/{year}/source   Upload a source override
    DELETE /api/calendar/{year}/source   Remove a stored override

  Alerts:
    GET    /api/alerts/log               Recent fired alerts
    POST   /api/alerts/check             On-demand alert evaluation

  Admin:
    POST   /api/reload                   Drop cached calendar snapshots

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: sqlite persistence (source overrides, alert log)
  - Loader: source JSON to Calendar conversion with degrade semantics
  - Cached immutable snapshots per year

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Unknown tier, bad dates, negative offsets, invalid source JSON
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - scheduler.go: The cron-driven alert jobs sharing this Handler
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/opex-engine/calendar"
	"github.com/warp/opex-engine/factory"
	"github.com/warp/opex-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Loader *factory.Loader

	// Clock supplies "now" for on-demand alert checks; tests override it.
	Clock func() time.Time

	mu        sync.RWMutex
	calendars map[int]calendarEntry
}

// calendarEntry is one cached snapshot. degraded marks a load that
// fell back to an empty calendar; the flag is cached with the snapshot
// so every request for a broken year carries the marker, not just the
// first.
type calendarEntry struct {
	cal      *calendar.Calendar
	degraded bool
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:     store,
		Loader:    factory.NewLoader(store),
		Clock:     time.Now,
		calendars: make(map[int]calendarEntry),
	}
}

// Calendar returns the cached snapshot for a year, loading it on first
// use. Degraded loads (missing or corrupt source) return an empty
// calendar with degraded=true; the snapshot is still cached so a
// broken source is not re-parsed on every request, and a recovered
// source is picked up after /api/reload or a source upload.
func (h *Handler) Calendar(r *http.Request, year int) (*calendar.Calendar, bool) {
	h.mu.RLock()
	entry, ok := h.calendars[year]
	h.mu.RUnlock()
	if ok {
		return entry.cal, entry.degraded
	}

	cal, err := h.Loader.Load(r.Context(), year)
	entry = calendarEntry{cal: cal, degraded: err != nil}
	h.mu.Lock()
	h.calendars[year] = entry
	h.mu.Unlock()
	return entry.cal, entry.degraded
}

// invalidate drops the cached snapshot for a year (or all years if
// year is 0) so the next request reloads from the store.
func (h *Handler) invalidate(year int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if year == 0 {
		h.calendars = make(map[int]calendarEntry)
		return
	}
	delete(h.calendars, year)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetCalendar returns the full calendar for a year.
// GET /api/calendar/{year}
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	cal, degraded := h.Calendar(r, year)
	if degraded {
		// Degraded: empty calendar is still served, with a marker header.
		w.Header().Set("X-Calendar-Degraded", "true")
	}
	writeJSON(w, http.StatusOK, toCalendarDTO(cal))
}

// ListEvents returns a year's events, optionally filtered by tier.
// GET /api/calendar/{year}/events?tier=medium
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	cal, _ := h.Calendar(r, year)
	events := cal.AllEvents()

	if tierName := r.URL.Query().Get("tier"); tierName != "" {
		tier, err := calendar.ParseTier(tierName)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unknown tier", err)
			return
		}
		events, err = calendar.Classify(cal, tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Classification failed", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// EventsOn returns all events falling on one date.
// GET /api/calendar/{year}/on?date=2026-01-16
func (h *Handler) EventsOn(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	ref, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (want YYYY-MM-DD)", err)
		return
	}

	cal, _ := h.Calendar(r, year)
	writeJSON(w, http.StatusOK, toEventDTOs(calendar.SelectOn(cal.AllEvents(), ref)))
}

// EventsInRange returns events in an inclusive date range.
// GET /api/calendar/{year}/range?start=2026-01-12&end=2026-01-19
func (h *Handler) EventsInRange(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	start, err := calendar.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (want YYYY-MM-DD)", err)
		return
	}
	end, err := calendar.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (want YYYY-MM-DD)", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "End date precedes start date", nil)
		return
	}

	cal, _ := h.Calendar(r, year)
	events := cal.AllEvents()

	if tierName := r.URL.Query().Get("tier"); tierName != "" {
		tier, err := calendar.ParseTier(tierName)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unknown tier", err)
			return
		}
		if events, err = calendar.Classify(cal, tier); err != nil {
			writeError(w, http.StatusBadRequest, "Classification failed", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toEventDTOs(calendar.SelectInRange(events, start, end)))
}

// NextEvent returns the first event on or after a reference date,
// optionally restricted to a tier. Defaults to today when no date is
// given.
// GET /api/calendar/{year}/next?tier=medium&from=2026-01-05
func (h *Handler) NextEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	from := calendar.DateOf(h.Clock())
	if s := r.URL.Query().Get("from"); s != "" {
		var err error
		if from, err = calendar.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (want YYYY-MM-DD)", err)
			return
		}
	}

	cal, _ := h.Calendar(r, year)
	events := cal.AllEvents()

	if tierName := r.URL.Query().Get("tier"); tierName != "" {
		tier, err := calendar.ParseTier(tierName)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unknown tier", err)
			return
		}
		if events, err = calendar.Classify(cal, tier); err != nil {
			writeError(w, http.StatusBadRequest, "Classification failed", err)
			return
		}
	}

	for _, ev := range events {
		if ev.EventDate().AfterOrEqual(from) {
			writeJSON(w, http.StatusOK, NextEventDTO{
				Event:     toEventDTO(ev),
				From:      from.String(),
				DaysUntil: calendar.DaysBetween(from, ev.EventDate()),
			})
			return
		}
	}

	writeError(w, http.StatusNotFound,
		fmt.Sprintf("No events on or after %s in %d", from, year), nil)
}

// UploadSource stores a calendar source override for a year. The body
// must parse as a valid calendar for that exact year before it is
// persisted.
// POST /api/calendar/{year}/source
func (h *Handler) UploadSource(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	f := factory.NewCalendarFactory()
	cal, err := f.ParseCalendar(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar source", err)
		return
	}
	if cal.Year() != year {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Source year %d does not match path year %d", cal.Year(), year), nil)
		return
	}

	if err := h.Store.SaveSource(r.Context(), year, string(body)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save source", err)
		return
	}

	h.invalidate(year)
	writeJSON(w, http.StatusCreated, map[string]any{"year": year, "events": cal.Len()})
}

// DeleteSource removes a stored override; the year falls back to the
// built-in data or a synthesized calendar.
// DELETE /api/calendar/{year}/source
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteSource(r.Context(), year); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete source", err)
		return
	}

	h.invalidate(year)
	w.WriteHeader(http.StatusNoContent)
}

// Reload drops all cached snapshots.
// POST /api/reload
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	h.invalidate(0)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListAlertLog returns recently fired alerts, newest first.
// GET /api/alerts/log?limit=50
func (h *Handler) ListAlertLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	records, err := h.Store.ListAlerts(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	dtos := make([]AlertLogDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAlertLogDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CheckAlerts evaluates the alert rule once, on demand, without
// sending notifications or logging. Useful for dry runs and debugging
// the weekend shift.
// POST /api/alerts/check?tier=medium&offset=2&now=2026-01-14
func (h *Handler) CheckAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tier := calendar.TierMedium
	if tierName := q.Get("tier"); tierName != "" {
		var err error
		if tier, err = calendar.ParseTier(tierName); err != nil {
			writeError(w, http.StatusBadRequest, "Unknown tier", err)
			return
		}
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid offset", err)
			return
		}
		offset = n
	}

	now := h.Clock()
	if s := q.Get("now"); s != "" {
		tp, err := calendar.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid now date (want YYYY-MM-DD)", err)
			return
		}
		now = time.Date(tp.Year(), tp.Month(), tp.Day(), 12, 0, 0, 0, time.UTC)
	}

	cal, _ := h.Calendar(r, now.Year())
	events, err := calendar.Classify(cal, tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Classification failed", err)
		return
	}

	result := CheckResultDTO{
		Now:        calendar.DateOf(now).String(),
		Tier:       string(tier),
		OffsetDays: offset,
		Fired:      []EventDTO{},
	}
	firedOn := calendar.DateOf(now).String()
	for _, ev := range events {
		decision, err := calendar.ShouldFire(now, ev, offset)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Evaluation failed", err)
			return
		}
		if !decision.Fire {
			continue
		}

		// Matches the scheduler already notified about today count as
		// duplicates, not fresh fires.
		logged, err := h.Store.WasAlertLogged(r.Context(), alertTypeOffset,
			string(ev.EventKind()), ev.EventDate().String(), offset, firedOn)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Alert log lookup failed", err)
			return
		}
		if logged {
			result.Skipped++
			continue
		}
		result.Fired = append(result.Fired, toEventDTO(ev))
	}

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// HELPERS
// =============================================================================

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 2200 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
