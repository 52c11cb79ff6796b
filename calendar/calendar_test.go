package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestDate_ParseAndFormat_RoundTrips(t *testing.T) {
	d, err := calendar.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())
}

func TestDate_Parse_RejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "10-03-2025", "2025/03/10", "2025-13-01", "march 10"} {
		_, err := calendar.ParseDate(raw)
		assert.Error(t, err, "input %q should not parse", raw)
	}
}

func TestDate_AddDays_CrossesMonthBoundary(t *testing.T) {
	d := calendar.NewDate(2025, time.January, 31)
	assert.Equal(t, "2025-02-01", d.AddDays(1).String())
	assert.Equal(t, "2025-01-30", d.AddDays(-1).String())
}

func TestDate_DaysBetween(t *testing.T) {
	a := calendar.NewDate(2025, time.March, 1)
	b := calendar.NewDate(2025, time.March, 11)
	assert.Equal(t, 10, a.DaysBetween(b))
}

func TestDate_Weekend(t *testing.T) {
	// 2025-03-08 is a Saturday, 2025-03-10 a Monday.
	sat := calendar.NewDate(2025, time.March, 8)
	mon := calendar.NewDate(2025, time.March, 10)

	assert.True(t, sat.IsWeekend())
	assert.False(t, sat.IsWorkday())
	assert.True(t, mon.IsWorkday())
}

func TestDate_DateOf_DropsClock(t *testing.T) {
	at := time.Date(2025, time.March, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2025-03-10", calendar.DateOf(at).String())
}

func TestDate_StartOfMonth(t *testing.T) {
	d := calendar.NewDate(2025, time.March, 17)
	assert.Equal(t, "2025-03-01", d.StartOfMonth().String())
}

// =============================================================================
// RANGE TESTS
// =============================================================================

func TestRange_Contains_IsInclusive(t *testing.T) {
	r := calendar.NewRange(
		calendar.NewDate(2025, time.March, 10),
		calendar.NewDate(2025, time.March, 12),
	)

	assert.True(t, r.Contains(calendar.NewDate(2025, time.March, 10)))
	assert.True(t, r.Contains(calendar.NewDate(2025, time.March, 12)))
	assert.False(t, r.Contains(calendar.NewDate(2025, time.March, 13)))
	assert.False(t, r.Contains(calendar.NewDate(2025, time.March, 9)))
}

func TestRange_Each_VisitsEveryDayOnce(t *testing.T) {
	r := calendar.NewRange(
		calendar.NewDate(2025, time.March, 10),
		calendar.NewDate(2025, time.March, 13),
	)

	var seen []string
	r.Each(func(d calendar.Date) { seen = append(seen, d.String()) })

	assert.Equal(t, []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13"}, seen)
}

// =============================================================================
// CLOCK TESTS
// =============================================================================

func TestClock_Parse_AcceptsBothLayouts(t *testing.T) {
	short, err := calendar.ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05:00", short.String())

	long, err := calendar.ParseClock("09:05:42")
	require.NoError(t, err)
	assert.Equal(t, "09:05:42", long.String())
}

func TestClock_Parse_RejectsOutOfRange(t *testing.T) {
	for _, raw := range []string{"24:00", "09:60", "-1:00", "garbage", ""} {
		_, err := calendar.ParseClock(raw)
		assert.Error(t, err, "input %q should not parse", raw)
	}
}

func TestClock_MinutesSince_TruncatesSeconds(t *testing.T) {
	start, _ := calendar.ParseClock("09:00:00")
	arrival, _ := calendar.ParseClock("09:23:59")

	// 23m59s late is reported as 23 whole minutes.
	assert.Equal(t, 23, arrival.MinutesSince(start))
}

func TestClock_AddMinutes_CapsAtEndOfDay(t *testing.T) {
	late, _ := calendar.ParseClock("23:55")
	capped := late.AddMinutes(30)
	assert.Equal(t, "23:59:59", capped.String())
}

func TestClock_Ordering(t *testing.T) {
	a, _ := calendar.ParseClock("09:00")
	b, _ := calendar.ParseClock("09:10")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.False(t, b.BeforeOrEqual(a))
}
