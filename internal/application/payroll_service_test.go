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
)

type payrollEnv struct {
	harness    *testfixtures.SQLiteHarness
	service    *application.PayrollService
	studio     persistence.Studio
	instructor persistence.Instructor
	instance   persistence.EventInstance
}

func newPayrollEnv(t *testing.T) *payrollEnv {
	t.Helper()
	ctx := context.Background()

	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	gen := testfixtures.NewIDGenerator("pay")

	studio := testfixtures.NewStudioFixture()
	require.NoError(t, harness.Studios.CreateStudio(ctx, studio))

	instructor := testfixtures.NewInstructorFixture(studio.ID)
	require.NoError(t, harness.Instructors.CreateInstructor(ctx, instructor))

	instance := testfixtures.NewInstanceFixture(studio.ID)
	instance.InstructorID = &instructor.ID
	require.NoError(t, harness.Schedules.CreateInstance(ctx, instance))

	service := application.NewPayrollService(harness.Payroll, harness.Attendance, harness.Instructors, harness.Schedules, gen.NextFunc(), clock.NowFunc(), nil)

	return &payrollEnv{
		harness:    harness,
		service:    service,
		studio:     studio,
		instructor: instructor,
		instance:   instance,
	}
}

func (e *payrollEnv) seedBooking(t *testing.T, customerID string) {
	t.Helper()
	ctx := context.Background()

	customer := testfixtures.NewCustomerFixture(e.studio.ID)
	customer.ID = customerID
	customer.Email = customerID + "@example.com"
	require.NoError(t, e.harness.Customers.CreateCustomer(ctx, customer))

	err := e.harness.BookingStore.InBookingTx(ctx, func(tx persistence.BookingTx) error {
		return tx.InsertBooking(persistence.Booking{
			ID:         "booking-" + customerID,
			StudioID:   e.studio.ID,
			CustomerID: customerID,
			InstanceID: e.instance.ID,
			Status:     persistence.BookingConfirmed,
			CreatedAt:  testfixtures.ReferenceTime(),
			UpdatedAt:  testfixtures.ReferenceTime(),
		})
	})
	require.NoError(t, err)
}

func TestComputeForInstanceSessionRate(t *testing.T) {
	env := newPayrollEnv(t)
	ctx := context.Background()

	env.seedBooking(t, "pay-cust-1")
	env.seedBooking(t, "pay-cust-2")
	require.NoError(t, env.service.RecordAttendance(ctx, staffPrincipal(), env.instance.ID, "pay-cust-1", persistence.AttendancePresent))
	require.NoError(t, env.service.RecordAttendance(ctx, staffPrincipal(), env.instance.ID, "pay-cust-2", persistence.AttendanceAbsent))

	entry, err := env.service.ComputeForInstance(ctx, staffPrincipal(), env.instructor.ID, env.instance.ID)
	require.NoError(t, err)

	assert.Equal(t, 60, entry.DurationMinutes)
	assert.Equal(t, 2, entry.BookedCount)
	assert.Equal(t, 1, entry.PresentCount)
	assert.Equal(t, 1.0, entry.Units)
	assert.Equal(t, int64(5000), entry.AmountCents)
}

func TestComputeForInstanceHourlyRateScalesWithDuration(t *testing.T) {
	env := newPayrollEnv(t)
	ctx := context.Background()

	hourly := testfixtures.NewInstructorFixture(env.studio.ID)
	hourly.RateCents = 6000
	hourly.RateUnit = persistence.RateUnitHour
	require.NoError(t, env.harness.Instructors.CreateInstructor(ctx, hourly))

	long := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithWindow(env.instance.StartUTC.AddDate(0, 0, 1), env.instance.StartUTC.AddDate(0, 0, 1).Add(90*time.Minute)))
	long.InstructorID = &hourly.ID
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, long))

	entry, err := env.service.ComputeForInstance(ctx, staffPrincipal(), hourly.ID, long.ID)
	require.NoError(t, err)

	assert.Equal(t, 90, entry.DurationMinutes)
	assert.InDelta(t, 1.5, entry.Units, 1e-9)
	assert.Equal(t, int64(9000), entry.AmountCents)
}

func TestComputeForInstanceRecomputationReplacesEntry(t *testing.T) {
	env := newPayrollEnv(t)
	ctx := context.Background()

	first, err := env.service.ComputeForInstance(ctx, staffPrincipal(), env.instructor.ID, env.instance.ID)
	require.NoError(t, err)
	assert.Zero(t, first.BookedCount)

	env.seedBooking(t, "pay-cust-3")
	second, err := env.service.ComputeForInstance(ctx, staffPrincipal(), env.instructor.ID, env.instance.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.BookedCount)

	stored, err := env.harness.Payroll.GetPayrollEntry(ctx, env.instructor.ID, env.instance.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.BookedCount)
}

func TestRecordAttendanceValidatesStatus(t *testing.T) {
	env := newPayrollEnv(t)

	err := env.service.RecordAttendance(context.Background(), staffPrincipal(), env.instance.ID, "c-1", "late")
	var vErr *application.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestPayrollRequiresManagementRole(t *testing.T) {
	env := newPayrollEnv(t)

	_, err := env.service.ComputeForInstance(context.Background(), customerPrincipal("c-1"), env.instructor.ID, env.instance.ID)
	assert.ErrorIs(t, err, application.ErrUnauthorized)
}
