package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/opex-engine/store/sqlite"
)

func newTestRouter(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	return h, NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestGetCalendarBuiltinYear(t *testing.T) {
	_, router := newTestRouter(t)

	var dto CalendarDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026", "", &dto)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2026, dto.Year)
	assert.False(t, dto.Synthesized)
	assert.Len(t, dto.Events, 53)
	assert.Contains(t, dto.Frequencies, "medium")
}

func TestGetCalendarUnknownYearSynthesizes(t *testing.T) {
	_, router := newTestRouter(t)

	var dto CalendarDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2031", "", &dto)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, dto.Synthesized)
	// Synthesis falls back to the pure third-Friday rule: one standard
	// expiration per month, nothing else.
	assert.Len(t, dto.Events, 12)
	for _, ev := range dto.Events {
		assert.Equal(t, "standard_expiration", ev.Kind)
	}
}

func TestListEventsByTier(t *testing.T) {
	_, router := newTestRouter(t)

	var low, medium, high []EventDTO
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/api/calendar/2026/events?tier=low", "", &low).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/api/calendar/2026/events?tier=medium", "", &medium).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/api/calendar/2026/events?tier=high", "", &high).Code)

	assert.Len(t, low, 16)
	assert.Len(t, medium, 41)
	assert.Len(t, high, 53)
}

func TestListEventsUnknownTier(t *testing.T) {
	_, router := newTestRouter(t)

	var errResp ErrorResponse
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/events?tier=verbose", "", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Details, "verbose")
}

func TestEventsOnDate(t *testing.T) {
	_, router := newTestRouter(t)

	var events []EventDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/on?date=2026-01-16", "", &events)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, events, 1)
	assert.Equal(t, "standard_expiration", events[0].Kind)
}

func TestEventsInRange(t *testing.T) {
	_, router := newTestRouter(t)

	// Jan 12-19 holds the AM-settled day (15th), the standard
	// expiration (16th) and the MLK holiday (19th, inclusive boundary).
	var events []EventDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/range?start=2026-01-12&end=2026-01-19", "", &events)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, events, 3)
	assert.Equal(t, "2026-01-15", events[0].Date)
	assert.Equal(t, "2026-01-16", events[1].Date)
	assert.Equal(t, "2026-01-19", events[2].Date)
}

func TestEventsInRangeRejectsInvertedBounds(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/range?start=2026-01-19&end=2026-01-12", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNextEvent(t *testing.T) {
	_, router := newTestRouter(t)

	var next NextEventDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/next?tier=low&from=2026-01-05", "", &next)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "standard_expiration", next.Event.Kind)
	assert.Equal(t, "2026-01-16", next.Event.Date)
	assert.Equal(t, "2026-01-05", next.From)
	assert.Equal(t, 11, next.DaysUntil)
}

func TestNextEventDefaultsToToday(t *testing.T) {
	h, router := newTestRouter(t)
	h.Clock = func() time.Time { return time.Date(2026, time.December, 30, 9, 0, 0, 0, time.UTC) }

	var next NextEventDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/next?tier=low", "", &next)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "end_of_month_quarter", next.Event.Kind)
	assert.Equal(t, "2026-12-31", next.Event.Date)
	assert.Equal(t, 1, next.DaysUntil)
}

func TestNextEventOnTheDay(t *testing.T) {
	_, router := newTestRouter(t)

	// An event dated exactly "from" is the next event, zero days out.
	var next NextEventDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/next?tier=low&from=2026-01-16", "", &next)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-01-16", next.Event.Date)
	assert.Equal(t, 0, next.DaysUntil)
}

func TestNextEventNoneRemaining(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/next?from=2027-01-01", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNextEventUnknownTier(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2026/next?tier=verbose", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadSourceOverridesYear(t *testing.T) {
	_, router := newTestRouter(t)

	source := `{
		"year": 2027,
		"standard_expirations": [{"date": "2027-01-15"}],
		"exchange_holidays": [{"date": "2027-01-01", "name": "New Year's Day", "day_of_week": "Friday"}]
	}`
	rec := doJSON(t, router, http.MethodPost, "/api/calendar/2027/source", source, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var dto CalendarDTO
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/api/calendar/2027", "", &dto).Code)
	assert.False(t, dto.Synthesized)
	assert.Len(t, dto.Events, 2)

	// Deleting the override falls back to synthesis.
	require.Equal(t, http.StatusNoContent, doJSON(t, router, http.MethodDelete, "/api/calendar/2027/source", "", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/api/calendar/2027", "", &dto).Code)
	assert.True(t, dto.Synthesized)
	assert.Len(t, dto.Events, 12)
}

func TestUploadSourceYearMismatch(t *testing.T) {
	_, router := newTestRouter(t)

	source := `{"year": 2028, "standard_expirations": [{"date": "2028-01-21"}]}`
	rec := doJSON(t, router, http.MethodPost, "/api/calendar/2027/source", source, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadSourceRejectsCorruptJSON(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/calendar/2027/source", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckAlertsExactMatch(t *testing.T) {
	_, router := newTestRouter(t)

	// Wednesday Jan 14 + 2 days = Friday Jan 16, the standard expiration.
	var result CheckResultDTO
	rec := doJSON(t, router, http.MethodPost, "/api/alerts/check?tier=medium&offset=2&now=2026-01-14", "", &result)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, result.Fired, 1)
	assert.Equal(t, "standard_expiration", result.Fired[0].Kind)
	assert.Equal(t, "2026-01-16", result.Fired[0].Date)
}

func TestCheckAlertsWeekendShift(t *testing.T) {
	_, router := newTestRouter(t)

	// Thursday Jun 18 + 2 days = Saturday Jun 20, shifted back to
	// Friday Jun 19: the Juneteenth holiday.
	var result CheckResultDTO
	rec := doJSON(t, router, http.MethodPost, "/api/alerts/check?tier=medium&offset=2&now=2026-06-18", "", &result)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, result.Fired, 1)
	assert.Equal(t, "exchange_holiday", result.Fired[0].Kind)
	assert.Equal(t, "2026-06-19", result.Fired[0].Date)
	assert.Equal(t, "Juneteenth", result.Fired[0].Name)
}

func TestCheckAlertsQuietDay(t *testing.T) {
	_, router := newTestRouter(t)

	var result CheckResultDTO
	rec := doJSON(t, router, http.MethodPost, "/api/alerts/check?tier=low&offset=0&now=2026-01-05", "", &result)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, result.Fired)
}

func TestCheckAlertsCountsLoggedDuplicates(t *testing.T) {
	h, router := newTestRouter(t)

	// An equivalent alert already went out on the tick date.
	require.NoError(t, h.Store.LogAlert(context.Background(), sqlite.AlertRecord{
		ID:         "offset:standard_expiration:2026-01-16:2:2026-01-14",
		AlertType:  "offset",
		EventKind:  "standard_expiration",
		EventDate:  "2026-01-16",
		OffsetDays: 2,
		FiredOn:    "2026-01-14",
	}))

	var result CheckResultDTO
	rec := doJSON(t, router, http.MethodPost, "/api/alerts/check?tier=medium&offset=2&now=2026-01-14", "", &result)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, result.Fired)
	assert.Equal(t, 1, result.Skipped)
}

func TestDegradedCalendarMarkedOnEveryRequest(t *testing.T) {
	h, router := newTestRouter(t)

	// A corrupt stored source degrades to an empty calendar.
	require.NoError(t, h.Store.SaveSource(context.Background(), 2029, "{corrupt"))

	for i := 0; i < 2; i++ {
		var dto CalendarDTO
		rec := doJSON(t, router, http.MethodGet, "/api/calendar/2029", "", &dto)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get("X-Calendar-Degraded"), "request %d", i+1)
		assert.Empty(t, dto.Events)
	}

	// Replacing the source clears the marker.
	source := `{"year": 2029, "standard_expirations": [{"date": "2029-01-19"}]}`
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/calendar/2029/source", source, nil).Code)

	var dto CalendarDTO
	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2029", "", &dto)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Calendar-Degraded"))
	assert.Len(t, dto.Events, 1)
}

func TestAlertLogEmpty(t *testing.T) {
	_, router := newTestRouter(t)

	var logs []AlertLogDTO
	rec := doJSON(t, router, http.MethodGet, "/api/alerts/log", "", &logs)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, logs)
}

func TestInvalidYearParam(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/calendar/banana", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
