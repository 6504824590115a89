package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
	"github.com/example/studio-scheduler/internal/timezone"
)

type bookingEnv struct {
	harness  *testfixtures.SQLiteHarness
	service  *application.BookingService
	clock    *testfixtures.Clock
	studio   persistence.Studio
	customer persistence.Customer
	instance persistence.EventInstance
}

func customerPrincipal(customerID string) application.Principal {
	return application.Principal{UserID: customerID, Roles: []application.Role{application.RoleCustomer}}
}

func staffPrincipal() application.Principal {
	return application.Principal{UserID: "staff-1", Roles: []application.Role{application.RoleStaff}}
}

func newBookingEnv(t *testing.T) *bookingEnv {
	t.Helper()
	ctx := context.Background()

	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	gen := testfixtures.NewIDGenerator("gen")

	studio := testfixtures.NewStudioFixture()
	require.NoError(t, harness.Studios.CreateStudio(ctx, studio))

	customer := testfixtures.NewCustomerFixture(studio.ID)
	require.NoError(t, harness.Customers.CreateCustomer(ctx, customer))

	instance := testfixtures.NewInstanceFixture(studio.ID)
	require.NoError(t, harness.Schedules.CreateInstance(ctx, instance))

	service := application.NewBookingService(harness.BookingStore, timezone.NewResolver(), gen.NextFunc(), clock.NowFunc(), nil)

	return &bookingEnv{
		harness:  harness,
		service:  service,
		clock:    clock,
		studio:   studio,
		customer: customer,
		instance: instance,
	}
}

func (e *bookingEnv) createInput() application.CreateBookingInput {
	return application.CreateBookingInput{
		Studio:     e.studio,
		Principal:  customerPrincipal(e.customer.ID),
		CustomerID: e.customer.ID,
		InstanceID: e.instance.ID,
	}
}

func TestCreateBookingDropInConfirmsWithPayment(t *testing.T) {
	env := newBookingEnv(t)

	booking, err := env.service.CreateBooking(context.Background(), env.createInput())
	require.NoError(t, err)

	assert.Equal(t, persistence.BookingConfirmed, booking.Status)
	assert.Equal(t, env.customer.ID, booking.CustomerID)
	require.NotNil(t, booking.PaymentID)
	assert.Nil(t, booking.MembershipID)
}

func TestCreateBookingRejectsDuplicate(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateBooking(ctx, env.createInput())
	require.NoError(t, err)

	_, err = env.service.CreateBooking(ctx, env.createInput())
	assert.ErrorIs(t, err, application.ErrAlreadyBooked)
}

func TestCreateBookingRejectsCancelledInstance(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	env.instance.Status = persistence.InstanceCancelled
	require.NoError(t, env.harness.Schedules.UpdateInstance(ctx, env.instance))

	_, err := env.service.CreateBooking(ctx, env.createInput())
	assert.ErrorIs(t, err, application.ErrEventUnavailable)
}

func TestCreateBookingRejectsUnknownInstance(t *testing.T) {
	env := newBookingEnv(t)

	input := env.createInput()
	input.InstanceID = "missing"
	_, err := env.service.CreateBooking(context.Background(), input)
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestCreateBookingEnforcesCapacityPerPool(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	small := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithCapacity(1), testfixtures.WithRemoteCapacity(1))
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, small))

	other := testfixtures.NewCustomerFixture(env.studio.ID)
	third := testfixtures.NewCustomerFixture(env.studio.ID)
	require.NoError(t, env.harness.Customers.CreateCustomer(ctx, other))
	require.NoError(t, env.harness.Customers.CreateCustomer(ctx, third))

	first := env.createInput()
	first.InstanceID = small.ID
	_, err := env.service.CreateBooking(ctx, first)
	require.NoError(t, err)

	// In-person pool is now full.
	second := application.CreateBookingInput{
		Studio:     env.studio,
		Principal:  customerPrincipal(other.ID),
		CustomerID: other.ID,
		InstanceID: small.ID,
	}
	_, err = env.service.CreateBooking(ctx, second)
	assert.ErrorIs(t, err, application.ErrClassFull)

	// The remote pool counts separately.
	second.IsRemote = true
	_, err = env.service.CreateBooking(ctx, second)
	require.NoError(t, err)

	remote := application.CreateBookingInput{
		Studio:     env.studio,
		Principal:  customerPrincipal(third.ID),
		CustomerID: third.ID,
		InstanceID: small.ID,
		IsRemote:   true,
	}
	_, err = env.service.CreateBooking(ctx, remote)
	assert.ErrorIs(t, err, application.ErrRemoteFull)
}

func TestConcurrentBookingsNeverExceedCapacity(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	small := testfixtures.NewInstanceFixture(env.studio.ID, testfixtures.WithCapacity(2))
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, small))

	const attempts = 8
	customers := make([]persistence.Customer, attempts)
	for i := range customers {
		customers[i] = testfixtures.NewCustomerFixture(env.studio.ID)
		require.NoError(t, env.harness.Customers.CreateCustomer(ctx, customers[i]))
	}

	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for _, customer := range customers {
		wg.Add(1)
		go func(c persistence.Customer) {
			defer wg.Done()
			_, err := env.service.CreateBooking(ctx, application.CreateBookingInput{
				Studio:     env.studio,
				Principal:  customerPrincipal(c.ID),
				CustomerID: c.ID,
				InstanceID: small.ID,
			})
			results <- err
		}(customer)
	}
	wg.Wait()
	close(results)

	confirmed, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, application.ErrClassFull):
			full++
		default:
			t.Fatalf("unexpected booking error: %v", err)
		}
	}
	assert.Equal(t, 2, confirmed)
	assert.Equal(t, attempts-2, full)
}

func TestCreateBookingRemoteRequiresRemoteCapacity(t *testing.T) {
	env := newBookingEnv(t)

	input := env.createInput()
	input.IsRemote = true
	_, err := env.service.CreateBooking(context.Background(), input)
	assert.ErrorIs(t, err, application.ErrRemoteUnavailable)
}

func TestCreateBookingRequiresHealthDeclaration(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	unsigned := testfixtures.NewCustomerFixture(env.studio.ID, testfixtures.WithoutWaiver())
	require.NoError(t, env.harness.Customers.CreateCustomer(ctx, unsigned))

	input := application.CreateBookingInput{
		Studio:     env.studio,
		Principal:  customerPrincipal(unsigned.ID),
		CustomerID: unsigned.ID,
		InstanceID: env.instance.ID,
	}
	_, err := env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrHealthDeclarationRequired)
}

func TestCreateBookingSelfHealsWaiverFromDeclaration(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	unsigned := testfixtures.NewCustomerFixture(env.studio.ID, testfixtures.WithoutWaiver())
	require.NoError(t, env.harness.Customers.CreateCustomer(ctx, unsigned))
	require.NoError(t, env.harness.Customers.AddHealthDeclaration(ctx, persistence.HealthDeclaration{
		ID:         "decl-1",
		CustomerID: unsigned.ID,
		CreatedAt:  env.clock.Now(),
	}))

	input := application.CreateBookingInput{
		Studio:     env.studio,
		Principal:  customerPrincipal(unsigned.ID),
		CustomerID: unsigned.ID,
		InstanceID: env.instance.ID,
	}
	_, err := env.service.CreateBooking(ctx, input)
	require.NoError(t, err)

	repaired, err := env.harness.Customers.GetCustomer(ctx, unsigned.ID)
	require.NoError(t, err)
	assert.NotNil(t, repaired.WaiverSignedAt)
}

func TestCreateBookingRejectsInactiveMembership(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	plan := testfixtures.NewPlanFixture(env.studio.ID)
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, plan))
	membership := testfixtures.NewMembershipFixture(plan, env.customer.ID)
	membership.Status = persistence.MembershipCancelled
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, membership))

	input := env.createInput()
	input.MembershipID = &membership.ID
	_, err := env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrMembershipNotActive)
}

func TestCreateBookingRejectsAnotherCustomersMembership(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	other := testfixtures.NewCustomerFixture(env.studio.ID)
	require.NoError(t, env.harness.Customers.CreateCustomer(ctx, other))

	plan := testfixtures.NewPlanFixture(env.studio.ID)
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, plan))
	membership := testfixtures.NewMembershipFixture(plan, other.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, membership))

	input := env.createInput()
	input.MembershipID = &membership.ID
	_, err := env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrMembershipNotActive)
}

func TestCreateBookingRejectsInactivePlan(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	plan := testfixtures.NewPlanFixture(env.studio.ID)
	plan.Active = false
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, plan))
	membership := testfixtures.NewMembershipFixture(plan, env.customer.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, membership))

	input := env.createInput()
	input.MembershipID = &membership.ID
	_, err := env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrPlanUnavailable)
}

func TestPunchCardDecrementsAndCancellationRestores(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	plan := testfixtures.NewPlanFixture(env.studio.ID, testfixtures.AsPunchCard(2))
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, plan))
	membership := testfixtures.NewMembershipFixture(plan, env.customer.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, membership))

	input := env.createInput()
	input.MembershipID = &membership.ID
	booking, err := env.service.CreateBooking(ctx, input)
	require.NoError(t, err)
	assert.Nil(t, booking.PaymentID)

	after, err := env.harness.Memberships.GetMembership(ctx, membership.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.RemainingUses)

	err = env.service.CancelBooking(ctx, application.CancelBookingInput{
		Studio:     env.studio,
		Principal:  customerPrincipal(env.customer.ID),
		CustomerID: env.customer.ID,
		BookingID:  booking.ID,
	})
	require.NoError(t, err)

	restored, err := env.harness.Memberships.GetMembership(ctx, membership.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.RemainingUses)
}

func TestPunchCardWithNoRemainingUsesIsRejected(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	plan := testfixtures.NewPlanFixture(env.studio.ID, testfixtures.AsPunchCard(0))
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, plan))
	membership := testfixtures.NewMembershipFixture(plan, env.customer.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, membership))

	input := env.createInput()
	input.MembershipID = &membership.ID
	_, err := env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrNoRemainingUses)
}

func TestWeeklyLimitCountsInstanceWeekNotBookingWeek(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	plan := testfixtures.NewPlanFixture(env.studio.ID, testfixtures.AsWeeklyLimit(1))
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, plan))
	membership := testfixtures.NewMembershipFixture(plan, env.customer.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, membership))

	// Second instance one day later, same studio-local week.
	sameWeek := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithWindow(env.instance.StartUTC.AddDate(0, 0, 1), env.instance.EndUTC.AddDate(0, 0, 1)))
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, sameWeek))

	// And one the following week.
	nextWeek := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithWindow(env.instance.StartUTC.AddDate(0, 0, 7), env.instance.EndUTC.AddDate(0, 0, 7)))
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, nextWeek))

	input := env.createInput()
	input.MembershipID = &membership.ID
	_, err := env.service.CreateBooking(ctx, input)
	require.NoError(t, err)

	second := input
	second.InstanceID = sameWeek.ID
	_, err = env.service.CreateBooking(ctx, second)
	assert.ErrorIs(t, err, application.ErrWeeklyLimitReached)

	third := input
	third.InstanceID = nextWeek.ID
	_, err = env.service.CreateBooking(ctx, third)
	require.NoError(t, err)
}

func TestWeeklyLimitCountsOnlyConfirmedBookings(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	plan := testfixtures.NewPlanFixture(env.studio.ID, testfixtures.AsWeeklyLimit(1))
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, plan))
	membership := testfixtures.NewMembershipFixture(plan, env.customer.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, membership))

	sameWeek := testfixtures.NewInstanceFixture(env.studio.ID,
		testfixtures.WithWindow(env.instance.StartUTC.AddDate(0, 0, 1), env.instance.EndUTC.AddDate(0, 0, 1)))
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, sameWeek))

	// A pending hold on the membership must not consume the weekly budget.
	err := env.harness.BookingStore.InBookingTx(ctx, func(tx persistence.BookingTx) error {
		return tx.InsertBooking(persistence.Booking{
			ID:           "hold-1",
			StudioID:     env.studio.ID,
			CustomerID:   env.customer.ID,
			InstanceID:   sameWeek.ID,
			MembershipID: &membership.ID,
			Status:       persistence.BookingPending,
			CreatedAt:    env.clock.Now(),
			UpdatedAt:    env.clock.Now(),
		})
	})
	require.NoError(t, err)

	input := env.createInput()
	input.MembershipID = &membership.ID
	_, err = env.service.CreateBooking(ctx, input)
	require.NoError(t, err)
}

func TestSeriesPlanGating(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	allowed := testfixtures.NewPlanFixture(env.studio.ID)
	other := testfixtures.NewPlanFixture(env.studio.ID)
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, allowed))
	require.NoError(t, env.harness.Plans.CreatePlan(ctx, other))

	series := testfixtures.NewSeriesFixture(env.studio.ID)
	series.AllowedPlanIDs = []string{allowed.ID}
	require.NoError(t, env.harness.Schedules.CreateSeries(ctx, series))

	gated := testfixtures.NewInstanceFixture(env.studio.ID, testfixtures.WithSeries(series.ID))
	require.NoError(t, env.harness.Schedules.CreateInstance(ctx, gated))

	// Drop-in booking on a gated class is refused.
	input := env.createInput()
	input.InstanceID = gated.ID
	_, err := env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrPlanRequiredForClass)

	// A membership on the wrong plan is refused.
	wrongMembership := testfixtures.NewMembershipFixture(other, env.customer.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, wrongMembership))
	input.MembershipID = &wrongMembership.ID
	_, err = env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrPlanNotEligible)

	// The allowed plan passes.
	rightMembership := testfixtures.NewMembershipFixture(allowed, env.customer.ID)
	require.NoError(t, env.harness.Memberships.CreateMembership(ctx, rightMembership))
	input.MembershipID = &rightMembership.ID
	_, err = env.service.CreateBooking(ctx, input)
	require.NoError(t, err)
}

func TestCancelBookingOutcomes(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createInput())
	require.NoError(t, err)

	cancel := application.CancelBookingInput{
		Studio:     env.studio,
		Principal:  customerPrincipal(env.customer.ID),
		CustomerID: env.customer.ID,
		BookingID:  booking.ID,
	}

	// Another customer cannot see the booking.
	other := testfixtures.NewCustomerFixture(env.studio.ID)
	require.NoError(t, env.harness.Customers.CreateCustomer(ctx, other))
	foreign := cancel
	foreign.Principal = customerPrincipal(other.ID)
	foreign.CustomerID = other.ID
	assert.ErrorIs(t, env.service.CancelBooking(ctx, foreign), application.ErrNotFound)

	require.NoError(t, env.service.CancelBooking(ctx, cancel))
	assert.ErrorIs(t, env.service.CancelBooking(ctx, cancel), application.ErrAlreadyCancelled)
}

func TestCancelBookingAfterDeadlineIsRefused(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createInput())
	require.NoError(t, err)

	// Move the clock past start minus the 24h cancellation window.
	deadline := env.instance.StartUTC.Add(-24 * time.Hour)
	env.clock.Set(deadline.Add(time.Minute))

	err = env.service.CancelBooking(ctx, application.CancelBookingInput{
		Studio:     env.studio,
		Principal:  customerPrincipal(env.customer.ID),
		CustomerID: env.customer.ID,
		BookingID:  booking.ID,
	})
	assert.ErrorIs(t, err, application.ErrCancellationWindowClosed)
}

func TestBookingAuthorization(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()

	// A customer cannot book for someone else.
	input := env.createInput()
	input.Principal = customerPrincipal("someone-else")
	_, err := env.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, application.ErrUnauthorized)

	// Staff can.
	input.Principal = staffPrincipal()
	_, err = env.service.CreateBooking(ctx, input)
	require.NoError(t, err)
}
