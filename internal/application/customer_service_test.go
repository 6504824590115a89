package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/testfixtures"
)

func newCustomerService(t *testing.T) (*application.CustomerService, *testfixtures.SQLiteHarness, string) {
	t.Helper()
	ctx := context.Background()

	harness := testfixtures.NewSQLiteHarness(t)
	studio := testfixtures.NewStudioFixture()
	require.NoError(t, harness.Studios.CreateStudio(ctx, studio))

	gen := testfixtures.NewIDGenerator("cust")
	clock := testfixtures.NewClock(time.Time{})
	service := application.NewCustomerService(harness.Customers, gen.NextFunc(), clock.NowFunc(), nil)
	return service, harness, studio.ID
}

func TestRegisterCustomerHashesPassword(t *testing.T) {
	service, harness, studioID := newCustomerService(t)
	ctx := context.Background()

	customer, err := service.RegisterCustomer(ctx, application.RegisterCustomerInput{
		StudioID: studioID,
		Email:    "Ada@Example.com",
		Name:     "Ada",
		Password: "correct horse",
	})
	require.NoError(t, err)

	// Email is normalized to lower case.
	assert.Equal(t, "ada@example.com", customer.Email)
	assert.NotEqual(t, "correct horse", customer.PasswordHash)

	stored, err := harness.Customers.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	ok, err := application.VerifyPassword("correct horse", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterCustomerRejectsDuplicateEmail(t *testing.T) {
	service, _, studioID := newCustomerService(t)
	ctx := context.Background()

	input := application.RegisterCustomerInput{
		StudioID: studioID,
		Email:    "ada@example.com",
		Name:     "Ada",
		Password: "correct horse",
	}
	_, err := service.RegisterCustomer(ctx, input)
	require.NoError(t, err)

	_, err = service.RegisterCustomer(ctx, input)
	assert.ErrorIs(t, err, application.ErrAlreadyExists)
}

func TestRegisterCustomerValidation(t *testing.T) {
	service, _, studioID := newCustomerService(t)

	_, err := service.RegisterCustomer(context.Background(), application.RegisterCustomerInput{
		StudioID: studioID,
		Email:    "not-an-email",
		Name:     "",
		Password: "short",
	})

	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "email")
	assert.Contains(t, vErr.FieldErrors, "name")
	assert.Contains(t, vErr.FieldErrors, "password")
}

func TestSignWaiverIsIdempotent(t *testing.T) {
	service, harness, studioID := newCustomerService(t)
	ctx := context.Background()

	customer := testfixtures.NewCustomerFixture(studioID, testfixtures.WithoutWaiver())
	require.NoError(t, harness.Customers.CreateCustomer(ctx, customer))

	require.NoError(t, service.SignWaiver(ctx, customer.ID))
	signed, err := harness.Customers.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, signed.WaiverSignedAt)
	firstSignature := *signed.WaiverSignedAt

	require.NoError(t, service.SignWaiver(ctx, customer.ID))
	again, err := harness.Customers.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, firstSignature, *again.WaiverSignedAt)
}

func TestAddHealthDeclarationRequiresCustomer(t *testing.T) {
	service, _, _ := newCustomerService(t)

	err := service.AddHealthDeclaration(context.Background(), "missing", "all good")
	assert.ErrorIs(t, err, application.ErrNotFound)
}
