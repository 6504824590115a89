package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func loadZone(t *testing.T, zone string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(zone)
	require.NoError(t, err)
	return loc
}

func TestWeekWindowMondayStart(t *testing.T) {
	loc := loadZone(t, "America/New_York")

	// Wednesday 2025-06-04 15:00 UTC is Wednesday local.
	instant := time.Date(2025, time.June, 4, 15, 0, 0, 0, time.UTC)
	start, end := WeekWindow(loc, time.Monday, instant)

	// Monday 2025-06-02 00:00 EDT = 04:00 UTC.
	require.Equal(t, time.Date(2025, time.June, 2, 4, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, time.June, 9, 4, 0, 0, 0, time.UTC), end)
}

func TestWeekWindowInstantOnBoundaryBelongsToNewWeek(t *testing.T) {
	loc := loadZone(t, "America/New_York")

	boundary := time.Date(2025, time.June, 2, 4, 0, 0, 0, time.UTC)
	start, _ := WeekWindow(loc, time.Monday, boundary)
	require.Equal(t, boundary, start)

	// One second earlier falls in the previous week.
	prevStart, prevEnd := WeekWindow(loc, time.Monday, boundary.Add(-time.Second))
	require.Equal(t, time.Date(2025, time.May, 26, 4, 0, 0, 0, time.UTC), prevStart)
	require.Equal(t, boundary, prevEnd)
}

func TestWeekWindowSundayStart(t *testing.T) {
	loc := loadZone(t, "Asia/Tokyo")

	// Tuesday 2025-06-03 local.
	instant := time.Date(2025, time.June, 3, 3, 0, 0, 0, time.UTC)
	start, end := WeekWindow(loc, time.Sunday, instant)

	// Sunday 2025-06-01 00:00 JST = 2025-05-31 15:00 UTC.
	require.Equal(t, time.Date(2025, time.May, 31, 15, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, time.June, 7, 15, 0, 0, 0, time.UTC), end)
}

func TestWeekWindowSpansSpringForwardAt167Hours(t *testing.T) {
	loc := loadZone(t, "America/New_York")

	// Week of Monday 2025-03-03 contains the 2025-03-09 spring-forward.
	instant := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
	start, end := WeekWindow(loc, time.Monday, instant)

	require.Equal(t, time.Date(2025, time.March, 3, 5, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, time.March, 10, 4, 0, 0, 0, time.UTC), end)
	require.Equal(t, 167*time.Hour, end.Sub(start))
}

func TestWeekWindowSpansFallBackAt169Hours(t *testing.T) {
	loc := loadZone(t, "America/New_York")

	// Week of Monday 2025-10-27 contains the 2025-11-02 fall-back.
	instant := time.Date(2025, time.October, 29, 12, 0, 0, 0, time.UTC)
	start, end := WeekWindow(loc, time.Monday, instant)

	require.Equal(t, time.Date(2025, time.October, 27, 4, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, time.November, 3, 5, 0, 0, 0, time.UTC), end)
	require.Equal(t, 169*time.Hour, end.Sub(start))
}
