package calendar_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/opex-engine/calendar"
)

// instant returns a reference instant at an arbitrary intra-day time;
// the evaluator must truncate it to the date.
func instant(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 16, 0, 0, 0, time.UTC)
}

func TestShouldFire_ExactDayMatch(t *testing.T) {
	// GIVEN: standard expiration on Friday 2026-01-16
	// WHEN:  evaluated two days before with offset 2
	// THEN:  the alert fires
	ev := calendar.StandardExpiration{Date: date(2026, time.January, 16)}

	dec, err := calendar.ShouldFire(instant(2026, time.January, 14), ev, 2)
	require.NoError(t, err)
	assert.True(t, dec.Fire)
	assert.Equal(t, date(2026, time.January, 16), dec.EffectiveDate)
}

func TestShouldFire_DZero(t *testing.T) {
	ev := calendar.StandardExpiration{Date: date(2026, time.June, 18)}

	dec, err := calendar.ShouldFire(instant(2026, time.June, 18), ev, 0)
	require.NoError(t, err)
	assert.True(t, dec.Fire)
}

func TestShouldFire_NoMatch(t *testing.T) {
	ev := calendar.StandardExpiration{Date: date(2026, time.January, 16)}

	dec, err := calendar.ShouldFire(instant(2026, time.January, 14), ev, 1)
	require.NoError(t, err)
	assert.False(t, dec.Fire)
	assert.Equal(t, date(2026, time.January, 15), dec.EffectiveDate)
}

func TestShouldFire_SaturdayTargetShiftsToFriday(t *testing.T) {
	// GIVEN: 2026-01-01 (Thursday) with offset 2, landing on Saturday
	//        2026-01-03
	// WHEN:  an event is dated Friday 2026-01-02
	// THEN:  the shifted comparison fires against the Friday
	ev := calendar.VixExpiration{Date: date(2026, time.January, 2), LastTradingDay: date(2026, time.January, 2)}

	dec, err := calendar.ShouldFire(instant(2026, time.January, 1), ev, 2)
	require.NoError(t, err)
	assert.True(t, dec.Fire)
	assert.Equal(t, date(2026, time.January, 2), dec.EffectiveDate)
	assert.Equal(t, time.Friday, dec.EffectiveDate.Weekday())
}

func TestShouldFire_SundayTargetShiftsToFriday(t *testing.T) {
	// Friday 2026-01-02 + 2 lands on Sunday 2026-01-04; comparison moves
	// back two days to the Friday itself.
	ev := calendar.StandardExpiration{Date: date(2026, time.January, 2)}

	dec, err := calendar.ShouldFire(instant(2026, time.January, 2), ev, 2)
	require.NoError(t, err)
	assert.True(t, dec.Fire)
	assert.Equal(t, date(2026, time.January, 2), dec.EffectiveDate)
}

func TestShouldFire_WeekdayTargetNotShifted(t *testing.T) {
	ev := calendar.StandardExpiration{Date: date(2026, time.January, 16)}

	dec, err := calendar.ShouldFire(instant(2026, time.January, 13), ev, 3)
	require.NoError(t, err)
	assert.True(t, dec.Fire)

	// The event's own recorded date is never mutated by the shift.
	assert.Equal(t, date(2026, time.January, 16), ev.EventDate())
}

func TestShouldFire_NegativeOffsetRejected(t *testing.T) {
	ev := calendar.StandardExpiration{Date: date(2026, time.January, 16)}

	_, err := calendar.ShouldFire(instant(2026, time.January, 17), ev, -1)
	require.Error(t, err)

	var offErr *calendar.InvalidOffsetError
	assert.ErrorAs(t, err, &offErr)
	assert.Equal(t, -1, offErr.Offset)
	assert.True(t, errors.Is(err, calendar.ErrInvalidOffset))
}

func TestShouldFireWindow_WeeklyPreview(t *testing.T) {
	// GIVEN: Sunday 2026-01-11 with a 7-day window
	// WHEN:  the classified set holds events on Jan 14, 16, 23
	// THEN:  the preview fires with the first two, excluding the 23rd
	dec, err := calendar.ShouldFireWindow(instant(2026, time.January, 11), januaryEvents(), 7)
	require.NoError(t, err)

	assert.True(t, dec.Fire)
	require.Len(t, dec.Events, 2)
	assert.Equal(t, date(2026, time.January, 11), dec.Start)
	assert.Equal(t, date(2026, time.January, 18), dec.End)
}

func TestShouldFireWindow_EndBoundaryInclusive(t *testing.T) {
	// Jan 9 + 7 = Jan 16: an event dated exactly window-end is included.
	dec, err := calendar.ShouldFireWindow(instant(2026, time.January, 9), januaryEvents(), 7)
	require.NoError(t, err)

	assert.True(t, dec.Fire)
	require.Len(t, dec.Events, 2)
	assert.Equal(t, date(2026, time.January, 16), dec.Events[1].EventDate())
}

func TestShouldFireWindow_QuietWeek(t *testing.T) {
	// Most weeks have zero OPEX events; that is a no-fire, not an error.
	dec, err := calendar.ShouldFireWindow(instant(2026, time.January, 25), januaryEvents(), 7)
	require.NoError(t, err)
	assert.False(t, dec.Fire)
	assert.Empty(t, dec.Events)
}

func TestShouldFireWindow_NegativeWindowRejected(t *testing.T) {
	_, err := calendar.ShouldFireWindow(instant(2026, time.January, 11), januaryEvents(), -7)
	assert.True(t, errors.Is(err, calendar.ErrInvalidOffset))
}
