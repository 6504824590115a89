package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/testfixtures"
	"github.com/example/studio-scheduler/internal/timezone"
)

func TestSweepOnceMaterializesEveryStudio(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	clock := testfixtures.NewClock(time.Time{})
	gen := testfixtures.NewIDGenerator("sweep")

	first := testfixtures.NewStudioFixture()
	second := testfixtures.NewStudioFixture(testfixtures.WithTimeZone("Asia/Tokyo"))
	require.NoError(t, harness.Studios.CreateStudio(ctx, first))
	require.NoError(t, harness.Studios.CreateStudio(ctx, second))

	require.NoError(t, harness.Schedules.CreateSeries(ctx, testfixtures.NewSeriesFixture(first.ID)))
	require.NoError(t, harness.Schedules.CreateSeries(ctx, testfixtures.NewSeriesFixture(second.ID)))

	schedules := application.NewScheduleService(harness.Schedules, timezone.NewResolver(), gen.NextFunc(), clock.NowFunc(), nil)
	sweeper := application.NewSweeper(harness.Studios, schedules, time.Hour, 14*24*time.Hour, clock.NowFunc(), nil)

	sweeper.SweepOnce(ctx)

	from := clock.Now()
	to := from.Add(14 * 24 * time.Hour)
	firstInstances, err := harness.Schedules.ListInstancesOverlapping(ctx, first.ID, from, to)
	require.NoError(t, err)
	assert.NotEmpty(t, firstInstances)

	secondInstances, err := harness.Schedules.ListInstancesOverlapping(ctx, second.ID, from, to)
	require.NoError(t, err)
	assert.NotEmpty(t, secondInstances)

	// Sweeping again creates nothing new.
	before := len(firstInstances)
	sweeper.SweepOnce(ctx)
	after, err := harness.Schedules.ListInstancesOverlapping(ctx, first.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, after, before)
}
