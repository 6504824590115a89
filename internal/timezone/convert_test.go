package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, zone string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(zone)
	require.NoError(t, err)
	return loc
}

func TestAtWallClockPlainTime(t *testing.T) {
	loc := mustLoad(t, "America/New_York")

	got := AtWallClock(loc, 2025, time.January, 15, 18, 0)

	require.Equal(t, time.Date(2025, time.January, 15, 23, 0, 0, 0, time.UTC), got)
}

func TestAtWallClockSpringForwardGapSnapsForward(t *testing.T) {
	loc := mustLoad(t, "America/New_York")

	// 2:30 on 2025-03-09 does not exist; clocks jump 02:00 -> 03:00.
	got := AtWallClock(loc, 2025, time.March, 9, 2, 30)

	local := got.In(loc)
	require.Equal(t, 3, local.Hour())
	require.Equal(t, 30, local.Minute())
}

func TestAtWallClockFallBackPrefersEarlierInstant(t *testing.T) {
	loc := mustLoad(t, "America/New_York")

	// 1:30 on 2025-11-02 occurs twice; the earlier instant is still EDT.
	got := AtWallClock(loc, 2025, time.November, 2, 1, 30)

	require.Equal(t, time.Date(2025, time.November, 2, 5, 30, 0, 0, time.UTC), got)
}

func TestResolverCachesLocations(t *testing.T) {
	r := NewResolver()

	first, err := r.Resolve("Asia/Tokyo")
	require.NoError(t, err)
	second, err := r.Resolve("Asia/Tokyo")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestResolverRejectsUnknownZone(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("Not/AZone")
	require.Error(t, err)

	_, err = r.Resolve("")
	require.Error(t, err)
}
