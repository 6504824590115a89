package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// BookingStore implements persistence.BookingStore. Every arbitration runs
// inside one write transaction on the single-connection pool, so capacity
// counts and the subsequent insert cannot interleave with another booking.
type BookingStore struct {
	pool *ConnectionPool
}

// NewBookingStore creates the store over the shared pool.
func NewBookingStore(pool *ConnectionPool) *BookingStore {
	return &BookingStore{pool: pool}
}

// InBookingTx runs fn against a transactional view.
func (s *BookingStore) InBookingTx(ctx context.Context, fn func(tx persistence.BookingTx) error) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&bookingTx{tx: tx})
	})
}

type bookingTx struct {
	tx *sql.Tx
}

func (b *bookingTx) InstanceByID(id string) (persistence.EventInstance, error) {
	row := b.tx.QueryRow(selectInstance+` WHERE id = ?`, id)
	return scanInstance(row)
}

func (b *bookingTx) SeriesByID(id string) (persistence.EventSeries, error) {
	row := b.tx.QueryRow(selectSeries+` WHERE id = ?`, id)
	series, err := scanSeries(row)
	if err != nil {
		return persistence.EventSeries{}, err
	}

	rows, err := b.tx.Query(`SELECT plan_id FROM series_allowed_plans WHERE series_id = ? ORDER BY plan_id ASC`, id)
	if err != nil {
		return persistence.EventSeries{}, mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var planID string
		if err := rows.Scan(&planID); err != nil {
			return persistence.EventSeries{}, mapError(err)
		}
		series.AllowedPlanIDs = append(series.AllowedPlanIDs, planID)
	}
	return series, rows.Err()
}

func (b *bookingTx) ActiveBookingExists(customerID, instanceID string) (bool, error) {
	var count int
	err := b.tx.QueryRow(
		`SELECT COUNT(*) FROM bookings WHERE customer_id = ? AND instance_id = ? AND status != 'cancelled'`,
		customerID, instanceID).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func (b *bookingTx) CountConfirmedBookings(instanceID string, remote bool) (int, error) {
	var count int
	err := b.tx.QueryRow(
		`SELECT COUNT(*) FROM bookings WHERE instance_id = ? AND status = 'confirmed' AND is_remote = ?`,
		instanceID, boolInt(remote)).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (b *bookingTx) CustomerByID(id string) (persistence.Customer, error) {
	row := b.tx.QueryRow(
		`SELECT id, studio_id, email, name, password_hash, waiver_signed_at, created_at, updated_at
		 FROM customers WHERE id = ?`, id)
	return scanCustomer(row)
}

func (b *bookingTx) MarkWaiverSigned(customerID string, at time.Time) error {
	result, err := b.tx.Exec(
		`UPDATE customers SET waiver_signed_at = ?, updated_at = ? WHERE id = ?`,
		fmtTime(at), fmtTime(at), customerID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (b *bookingTx) HasHealthDeclaration(customerID string) (bool, error) {
	var count int
	err := b.tx.QueryRow(
		`SELECT COUNT(*) FROM health_declarations WHERE customer_id = ?`, customerID).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func (b *bookingTx) MembershipByID(id string) (persistence.Membership, error) {
	row := b.tx.QueryRow(
		`SELECT id, studio_id, customer_id, plan_id, status, remaining_uses, started_at, created_at, updated_at
		 FROM memberships WHERE id = ?`, id)
	return scanMembership(row)
}

func (b *bookingTx) SetMembershipRemainingUses(id string, uses int, at time.Time) error {
	result, err := b.tx.Exec(
		`UPDATE memberships SET remaining_uses = ?, updated_at = ? WHERE id = ?`,
		uses, fmtTime(at), id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (b *bookingTx) PlanByID(id string) (persistence.Plan, error) {
	row := b.tx.QueryRow(
		`SELECT id, studio_id, name, type, weekly_limit, punch_total, price_cents, currency, active, created_at, updated_at
		 FROM plans WHERE id = ?`, id)
	return scanPlan(row)
}

// CountMembershipBookingsBetween counts confirmed bookings consuming the
// membership whose instance starts inside [fromUTC, toUTC).
func (b *bookingTx) CountMembershipBookingsBetween(membershipID string, fromUTC, toUTC time.Time) (int, error) {
	var count int
	err := b.tx.QueryRow(
		`SELECT COUNT(*)
		 FROM bookings b
		 JOIN event_instances i ON i.id = b.instance_id
		 WHERE b.membership_id = ? AND b.status = 'confirmed'
		   AND i.start_utc >= ? AND i.start_utc < ?`,
		membershipID, fmtTime(fromUTC), fmtTime(toUTC)).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (b *bookingTx) BookingByID(id string) (persistence.Booking, error) {
	var booking persistence.Booking
	var membershipID, paymentID, cancelledAt sql.NullString
	var isRemote int
	var status, createdAt, updatedAt string

	err := b.tx.QueryRow(
		`SELECT id, studio_id, customer_id, instance_id, membership_id, payment_id, is_remote, status, cancelled_at, created_at, updated_at
		 FROM bookings WHERE id = ?`, id).
		Scan(&booking.ID, &booking.StudioID, &booking.CustomerID, &booking.InstanceID,
			&membershipID, &paymentID, &isRemote, &status, &cancelledAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, mapError(err)
	}

	booking.MembershipID = stringPtr(membershipID)
	booking.PaymentID = stringPtr(paymentID)
	booking.IsRemote = isRemote != 0
	booking.Status = persistence.BookingStatus(status)
	if booking.CancelledAt, err = timePtr("cancelled_at", cancelledAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func (b *bookingTx) InsertBooking(booking persistence.Booking) error {
	_, err := b.tx.Exec(
		`INSERT INTO bookings (id, studio_id, customer_id, instance_id, membership_id, payment_id, is_remote, status, cancelled_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID, booking.StudioID, booking.CustomerID, booking.InstanceID,
		nullString(booking.MembershipID), nullString(booking.PaymentID),
		boolInt(booking.IsRemote), string(booking.Status), nullTime(booking.CancelledAt),
		fmtTime(booking.CreatedAt), fmtTime(booking.UpdatedAt))
	return mapError(err)
}

func (b *bookingTx) MarkBookingCancelled(id string, at time.Time) error {
	result, err := b.tx.Exec(
		`UPDATE bookings SET status = 'cancelled', cancelled_at = ?, updated_at = ? WHERE id = ?`,
		fmtTime(at), fmtTime(at), id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (b *bookingTx) InsertPayment(payment persistence.Payment) error {
	_, err := b.tx.Exec(
		`INSERT INTO payments (id, studio_id, customer_id, amount_cents, currency, status, provider_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.StudioID, payment.CustomerID, payment.AmountCents,
		payment.Currency, string(payment.Status), payment.ProviderRef, fmtTime(payment.CreatedAt))
	return mapError(err)
}
