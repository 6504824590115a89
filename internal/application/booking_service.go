package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/scheduler"
	"github.com/example/studio-scheduler/internal/timezone"
)

// BookingService arbitrates seat reservations. Every create or cancel runs
// inside one store write transaction, so the capacity count and the booking
// insert cannot interleave with a concurrent request for the same instance.
type BookingService struct {
	store       persistence.BookingStore
	zones       *timezone.Resolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking arbitration.
func NewBookingService(store persistence.BookingStore, zones *timezone.Resolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		store:       store,
		zones:       zones,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateBookingInput carries a validated booking request.
type CreateBookingInput struct {
	Studio       persistence.Studio
	Principal    Principal
	CustomerID   string
	InstanceID   string
	MembershipID *string
	IsRemote     bool
}

// CancelBookingInput carries a cancellation request.
type CancelBookingInput struct {
	Studio     persistence.Studio
	Principal  Principal
	CustomerID string
	BookingID  string
}

// CreateBooking validates eligibility and reserves a seat. The validation
// sequence short-circuits on the first failing check so callers receive a
// deterministic outcome:
//
//  1. instance must be scheduled
//  2. no duplicate active booking
//  3. health waiver on file (self-healing from prior declarations)
//  4. capacity of the selected pool
//  5. membership, plan and plan-type eligibility
//  6. series plan gating
//
// The payment, punch decrement and booking insert then commit atomically.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (persistence.Booking, error) {
	if s == nil || s.store == nil {
		return persistence.Booking{}, fmt.Errorf("booking store not configured")
	}
	if !input.Principal.CanActFor(input.CustomerID) {
		return persistence.Booking{}, ErrUnauthorized
	}

	loc, err := s.zones.Resolve(input.Studio.TimeZone)
	if err != nil {
		return persistence.Booking{}, err
	}

	var booking persistence.Booking
	err = s.withRetry(ctx, func() error {
		return s.store.InBookingTx(ctx, func(tx persistence.BookingTx) error {
			created, txErr := s.arbitrate(tx, input, loc)
			if txErr != nil {
				return txErr
			}
			booking = created
			return nil
		})
	})
	if err != nil {
		return persistence.Booking{}, err
	}

	s.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", booking.ID,
		"instance_id", booking.InstanceID,
		"customer_id", booking.CustomerID,
		"remote", booking.IsRemote,
	)
	return booking, nil
}

func (s *BookingService) arbitrate(tx persistence.BookingTx, input CreateBookingInput, loc *time.Location) (persistence.Booking, error) {
	instance, err := tx.InstanceByID(input.InstanceID)
	if err != nil {
		return persistence.Booking{}, mapStoreError(err)
	}
	if instance.Status != persistence.InstanceScheduled {
		return persistence.Booking{}, ErrEventUnavailable
	}

	exists, err := tx.ActiveBookingExists(input.CustomerID, instance.ID)
	if err != nil {
		return persistence.Booking{}, err
	}
	if exists {
		return persistence.Booking{}, ErrAlreadyBooked
	}

	if err := s.ensureWaiver(tx, input.CustomerID); err != nil {
		return persistence.Booking{}, err
	}

	if input.IsRemote && instance.RemoteCapacity <= 0 {
		return persistence.Booking{}, ErrRemoteUnavailable
	}
	count, err := tx.CountConfirmedBookings(instance.ID, input.IsRemote)
	if err != nil {
		return persistence.Booking{}, err
	}
	if input.IsRemote {
		if count >= instance.RemoteCapacity {
			return persistence.Booking{}, ErrRemoteFull
		}
	} else if count >= instance.Capacity {
		return persistence.Booking{}, ErrClassFull
	}

	var membership *persistence.Membership
	var plan *persistence.Plan
	if input.MembershipID != nil {
		m, p, err := s.checkMembership(tx, input, instance, loc)
		if err != nil {
			return persistence.Booking{}, err
		}
		membership, plan = m, p
	}

	if instance.SeriesID != nil {
		series, err := tx.SeriesByID(*instance.SeriesID)
		if err != nil {
			return persistence.Booking{}, mapStoreError(err)
		}
		if len(series.AllowedPlanIDs) > 0 {
			if plan == nil {
				return persistence.Booking{}, ErrPlanRequiredForClass
			}
			if !containsString(series.AllowedPlanIDs, plan.ID) {
				return persistence.Booking{}, ErrPlanNotEligible
			}
		}
	}

	now := s.now().UTC()
	booking := persistence.Booking{
		ID:           s.idGenerator(),
		StudioID:     input.Studio.ID,
		CustomerID:   input.CustomerID,
		InstanceID:   instance.ID,
		MembershipID: input.MembershipID,
		IsRemote:     input.IsRemote,
		Status:       persistence.BookingConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch {
	case membership == nil:
		payment := persistence.Payment{
			ID:          s.idGenerator(),
			StudioID:    input.Studio.ID,
			CustomerID:  input.CustomerID,
			AmountCents: instance.PriceCents,
			Currency:    instance.Currency,
			Status:      persistence.PaymentPaid,
			ProviderRef: "synthetic:" + booking.ID,
			CreatedAt:   now,
		}
		if err := tx.InsertPayment(payment); err != nil {
			return persistence.Booking{}, err
		}
		booking.PaymentID = &payment.ID
	case plan.Type == persistence.PlanPunchCard:
		remaining := membership.RemainingUses - 1
		if remaining < 0 {
			remaining = 0
		}
		if err := tx.SetMembershipRemainingUses(membership.ID, remaining, now); err != nil {
			return persistence.Booking{}, err
		}
	}

	if err := tx.InsertBooking(booking); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

// ensureWaiver enforces the health-waiver gate. A customer without a signed
// waiver but with a declaration on file gets the flag repaired in place.
func (s *BookingService) ensureWaiver(tx persistence.BookingTx, customerID string) error {
	customer, err := tx.CustomerByID(customerID)
	if err != nil {
		return mapStoreError(err)
	}
	if customer.WaiverSignedAt != nil {
		return nil
	}

	declared, err := tx.HasHealthDeclaration(customerID)
	if err != nil {
		return err
	}
	if !declared {
		return ErrHealthDeclarationRequired
	}
	return tx.MarkWaiverSigned(customerID, s.now().UTC())
}

func (s *BookingService) checkMembership(tx persistence.BookingTx, input CreateBookingInput, instance persistence.EventInstance, loc *time.Location) (*persistence.Membership, *persistence.Plan, error) {
	membership, err := tx.MembershipByID(*input.MembershipID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil, ErrMembershipNotActive
		}
		return nil, nil, err
	}
	if membership.CustomerID != input.CustomerID ||
		membership.StudioID != input.Studio.ID ||
		membership.Status != persistence.MembershipActive {
		return nil, nil, ErrMembershipNotActive
	}

	plan, err := tx.PlanByID(membership.PlanID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil, ErrPlanUnavailable
		}
		return nil, nil, err
	}
	if !plan.Active {
		return nil, nil, ErrPlanUnavailable
	}

	switch plan.Type {
	case persistence.PlanUnlimited:
	case persistence.PlanPunchCard:
		if membership.RemainingUses <= 0 {
			return nil, nil, ErrNoRemainingUses
		}
	case persistence.PlanWeeklyLimit:
		// The limit window is anchored on the instance start, not on the
		// booking time.
		weekStart, weekEnd := scheduler.WeekWindow(loc, input.Studio.WeekStartsOn, instance.StartUTC)
		used, err := tx.CountMembershipBookingsBetween(membership.ID, weekStart, weekEnd)
		if err != nil {
			return nil, nil, err
		}
		if used >= plan.WeeklyLimit {
			return nil, nil, ErrWeeklyLimitReached
		}
	default:
		return nil, nil, ErrPlanUnavailable
	}

	return &membership, &plan, nil
}

// CancelBooking soft-cancels a booking ahead of the instance's cancellation
// deadline and restores a consumed punch.
func (s *BookingService) CancelBooking(ctx context.Context, input CancelBookingInput) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("booking store not configured")
	}
	if !input.Principal.CanActFor(input.CustomerID) {
		return ErrUnauthorized
	}

	err := s.withRetry(ctx, func() error {
		return s.store.InBookingTx(ctx, func(tx persistence.BookingTx) error {
			booking, err := tx.BookingByID(input.BookingID)
			if err != nil {
				return mapStoreError(err)
			}
			if booking.CustomerID != input.CustomerID || booking.StudioID != input.Studio.ID {
				return ErrNotFound
			}
			if booking.Status == persistence.BookingCancelled {
				return ErrAlreadyCancelled
			}

			instance, err := tx.InstanceByID(booking.InstanceID)
			if err != nil {
				return mapStoreError(err)
			}
			deadline := instance.StartUTC.Add(-time.Duration(instance.CancellationWindowHours) * time.Hour)
			if s.now().UTC().After(deadline) {
				return ErrCancellationWindowClosed
			}

			now := s.now().UTC()
			if err := tx.MarkBookingCancelled(booking.ID, now); err != nil {
				return err
			}

			if booking.MembershipID == nil {
				return nil
			}
			membership, err := tx.MembershipByID(*booking.MembershipID)
			if err != nil {
				return mapStoreError(err)
			}
			plan, err := tx.PlanByID(membership.PlanID)
			if err != nil {
				return mapStoreError(err)
			}
			if plan.Type == persistence.PlanPunchCard {
				return tx.SetMembershipRemainingUses(membership.ID, membership.RemainingUses+1, now)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "booking cancelled",
		"booking_id", input.BookingID,
		"customer_id", input.CustomerID,
	)
	return nil
}

// withRetry re-runs the transaction once when the store reports a lost
// serialization race; any further failure surfaces to the caller.
func (s *BookingService) withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, persistence.ErrBusy) {
		return err
	}
	s.logger.WarnContext(ctx, "booking transaction retried after busy store")
	return fn()
}

func mapStoreError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
