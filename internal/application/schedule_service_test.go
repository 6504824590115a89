package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
	"github.com/example/studio-scheduler/internal/timezone"
)

type scheduleEnv struct {
	harness *testfixtures.SQLiteHarness
	service *application.ScheduleService
	clock   *testfixtures.Clock
	studio  persistence.Studio
}

func newScheduleEnv(t *testing.T) *scheduleEnv {
	t.Helper()
	ctx := context.Background()

	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	gen := testfixtures.NewIDGenerator("sched")

	studio := testfixtures.NewStudioFixture()
	require.NoError(t, harness.Studios.CreateStudio(ctx, studio))

	service := application.NewScheduleService(harness.Schedules, timezone.NewResolver(), gen.NextFunc(), clock.NowFunc(), nil)

	return &scheduleEnv{harness: harness, service: service, clock: clock, studio: studio}
}

func (e *scheduleEnv) window() (time.Time, time.Time) {
	from := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 28)
}

func TestGenerateForSeriesIsIdempotent(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	series := testfixtures.NewSeriesFixture(env.studio.ID)
	require.NoError(t, env.harness.Schedules.CreateSeries(ctx, series))

	from, to := env.window()
	created, err := env.service.GenerateForSeries(ctx, env.studio, series, from, to)
	require.NoError(t, err)
	// Tuesdays Mar 4, 11, 18, 25.
	assert.Equal(t, 4, created)

	again, err := env.service.GenerateForSeries(ctx, env.studio, series, from, to)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestGenerateForSeriesSkipsConflictingOccurrences(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	roomID := "room-1"
	series := testfixtures.NewSeriesFixture(env.studio.ID)
	series.RoomID = &roomID
	require.NoError(t, env.harness.Schedules.CreateSeries(ctx, series))

	// Occupy the room over the Mar 11 occurrence (18:00 EDT = 22:00 UTC).
	blocker := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithWindow(
			time.Date(2025, time.March, 11, 22, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 11, 23, 0, 0, 0, time.UTC)))
	blocker.RoomID = &roomID
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, blocker))

	from, to := env.window()
	created, err := env.service.GenerateForSeries(ctx, env.studio, series, from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	exists, err := env.harness.Schedules.SeriesInstanceExistsAt(ctx, series.ID,
		time.Date(2025, time.March, 11, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateForSeriesFailsFastOnInvalidDuration(t *testing.T) {
	env := newScheduleEnv(t)

	series := testfixtures.NewSeriesFixture(env.studio.ID)
	series.DurationMinutes = 0

	from, to := env.window()
	_, err := env.service.GenerateForSeries(context.Background(), env.studio, series, from, to)

	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "duration_minutes")
}

func TestInsertInstancesSkipsOccurrencesAnotherWriterCreated(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	series := testfixtures.NewSeriesFixture(env.studio.ID)
	require.NoError(t, env.harness.Schedules.CreateSeries(ctx, series))

	start := time.Date(2025, time.March, 4, 23, 0, 0, 0, time.UTC)
	existing := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithSeries(series.ID),
		testfixtures.WithWindow(start, start.Add(time.Hour)))
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, existing))

	duplicate := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithSeries(series.ID),
		testfixtures.WithWindow(start, start.Add(time.Hour)))
	fresh := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithSeries(series.ID),
		testfixtures.WithWindow(start.AddDate(0, 0, 7), start.AddDate(0, 0, 7).Add(time.Hour)))

	inserted, err := env.harness.Schedules.InsertInstances(ctx, []persistence.EventInstance{duplicate, fresh})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	instances, err := env.harness.Schedules.ListInstancesOverlapping(ctx, env.studio.ID, start, start.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.Len(t, instances, 2)
}

func TestGenerateForStudioSumsActiveSeries(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	weekly := testfixtures.NewSeriesFixture(env.studio.ID)
	require.NoError(t, env.harness.Schedules.CreateSeries(ctx, weekly))

	biweekly := testfixtures.NewSeriesFixture(env.studio.ID)
	biweekly.DayOfWeek = time.Thursday
	biweekly.RecurrenceIntervalWeeks = 2
	require.NoError(t, env.harness.Schedules.CreateSeries(ctx, biweekly))

	inactive := testfixtures.NewSeriesFixture(env.studio.ID)
	inactive.Active = false
	require.NoError(t, env.harness.Schedules.CreateSeries(ctx, inactive))

	from, to := env.window()
	created, err := env.service.GenerateForStudio(ctx, env.studio, from, to)
	require.NoError(t, err)
	// 4 weekly Tuesdays + 2 biweekly Thursdays (Mar 6, Mar 20).
	assert.Equal(t, 6, created)
}

func TestCreateAdHocInstanceDetectsConflicts(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	instructorID := "instructor-1"
	start := time.Date(2025, time.April, 1, 17, 0, 0, 0, time.UTC)

	first, err := env.service.CreateAdHocInstance(ctx, application.AdHocInstanceInput{
		Studio:       env.studio,
		Principal:    staffPrincipal(),
		Title:        "Open Mat",
		InstructorID: &instructorID,
		StartUTC:     start,
		EndUTC:       start.Add(time.Hour),
		Capacity:     12,
	})
	require.NoError(t, err)
	assert.Equal(t, persistence.InstanceScheduled, first.Status)

	_, err = env.service.CreateAdHocInstance(ctx, application.AdHocInstanceInput{
		Studio:       env.studio,
		Principal:    staffPrincipal(),
		Title:        "Private Session",
		InstructorID: &instructorID,
		StartUTC:     start.Add(30 * time.Minute),
		EndUTC:       start.Add(90 * time.Minute),
		Capacity:     1,
	})
	assert.ErrorIs(t, err, application.ErrSchedulingConflict)

	// Back-to-back is fine.
	_, err = env.service.CreateAdHocInstance(ctx, application.AdHocInstanceInput{
		Studio:       env.studio,
		Principal:    staffPrincipal(),
		Title:        "Private Session",
		InstructorID: &instructorID,
		StartUTC:     start.Add(time.Hour),
		EndUTC:       start.Add(2 * time.Hour),
		Capacity:     1,
	})
	require.NoError(t, err)
}

func TestRescheduleInstanceIgnoresItself(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	roomID := "room-1"
	start := time.Date(2025, time.April, 1, 17, 0, 0, 0, time.UTC)
	instance, err := env.service.CreateAdHocInstance(ctx, application.AdHocInstanceInput{
		Studio:    env.studio,
		Principal: staffPrincipal(),
		Title:     "Workshop",
		RoomID:    &roomID,
		StartUTC:  start,
		EndUTC:    start.Add(time.Hour),
		Capacity:  10,
	})
	require.NoError(t, err)

	// Shifting within its own original window must not self-conflict.
	moved, err := env.service.RescheduleInstance(ctx, staffPrincipal(), instance.ID,
		start.Add(30*time.Minute), start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Minute), moved.StartUTC)
}

func TestCancelInstanceIsIdempotent(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	instance := testfixtures.NewInstanceFixture(env.studio.ID)
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, instance))

	require.NoError(t, env.service.CancelInstance(ctx, staffPrincipal(), instance.ID))
	require.NoError(t, env.service.CancelInstance(ctx, staffPrincipal(), instance.ID))

	stored, err := env.harness.Schedules.GetInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.InstanceCancelled, stored.Status)
}

func TestScheduleOperationsRequireManagementRole(t *testing.T) {
	env := newScheduleEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateSeries(ctx, customerPrincipal("c-1"), testfixtures.NewSeriesFixture(env.studio.ID))
	assert.ErrorIs(t, err, application.ErrUnauthorized)

	_, err = env.service.CreateAdHocInstance(ctx, application.AdHocInstanceInput{
		Studio:    env.studio,
		Principal: customerPrincipal("c-1"),
		Title:     "Nope",
		StartUTC:  time.Now(),
		EndUTC:    time.Now().Add(time.Hour),
		Capacity:  1,
	})
	assert.ErrorIs(t, err, application.ErrUnauthorized)
}
