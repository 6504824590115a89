package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-scheduler/internal/persistence"
)

// PayrollRepository implements persistence.PayrollRepository and
// persistence.AttendanceRepository.
type PayrollRepository struct {
	pool *ConnectionPool
}

// NewPayrollRepository creates the repository over the shared pool.
func NewPayrollRepository(pool *ConnectionPool) *PayrollRepository {
	return &PayrollRepository{pool: pool}
}

// RecordAttendance inserts or replaces the presence mark for the
// (instance, customer) pair.
func (r *PayrollRepository) RecordAttendance(ctx context.Context, attendance persistence.Attendance) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO attendance (id, instance_id, customer_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (instance_id, customer_id) DO UPDATE SET status = excluded.status`,
		attendance.ID, attendance.InstanceID, attendance.CustomerID,
		string(attendance.Status), fmtTime(attendance.CreatedAt))
	return mapError(err)
}

// UpsertPayrollEntry replaces any prior entry for the (instructor, instance)
// pair so recomputation is idempotent.
func (r *PayrollRepository) UpsertPayrollEntry(ctx context.Context, entry persistence.PayrollEntry) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO payroll_entries (id, studio_id, instructor_id, instance_id, duration_minutes,
		    booked_count, present_count, units, rate_cents, rate_unit, amount_cents, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (instructor_id, instance_id) DO UPDATE SET
		    duration_minutes = excluded.duration_minutes,
		    booked_count = excluded.booked_count,
		    present_count = excluded.present_count,
		    units = excluded.units,
		    rate_cents = excluded.rate_cents,
		    rate_unit = excluded.rate_unit,
		    amount_cents = excluded.amount_cents,
		    computed_at = excluded.computed_at`,
		entry.ID, entry.StudioID, entry.InstructorID, entry.InstanceID, entry.DurationMinutes,
		entry.BookedCount, entry.PresentCount, entry.Units, entry.RateCents,
		string(entry.RateUnit), entry.AmountCents, fmtTime(entry.ComputedAt))
	return mapError(err)
}

// GetPayrollEntry retrieves the entry for the (instructor, instance) pair.
func (r *PayrollRepository) GetPayrollEntry(ctx context.Context, instructorID, instanceID string) (persistence.PayrollEntry, error) {
	var entry persistence.PayrollEntry
	var rateUnit, computedAt string

	err := r.pool.db.QueryRowContext(ctx,
		`SELECT id, studio_id, instructor_id, instance_id, duration_minutes, booked_count,
		    present_count, units, rate_cents, rate_unit, amount_cents, computed_at
		 FROM payroll_entries WHERE instructor_id = ? AND instance_id = ?`,
		instructorID, instanceID).
		Scan(&entry.ID, &entry.StudioID, &entry.InstructorID, &entry.InstanceID,
			&entry.DurationMinutes, &entry.BookedCount, &entry.PresentCount, &entry.Units,
			&entry.RateCents, &rateUnit, &entry.AmountCents, &computedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.PayrollEntry{}, persistence.ErrNotFound
		}
		return persistence.PayrollEntry{}, mapError(err)
	}

	entry.RateUnit = persistence.RateUnit(rateUnit)
	if entry.ComputedAt, err = parseTime("computed_at", computedAt); err != nil {
		return persistence.PayrollEntry{}, err
	}
	return entry, nil
}

// CountConfirmedBookingsForInstance counts confirmed seats on the instance
// across both capacity pools.
func (r *PayrollRepository) CountConfirmedBookingsForInstance(ctx context.Context, instanceID string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE instance_id = ? AND status = 'confirmed'`,
		instanceID).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// CountPresentForInstance counts customers marked present.
func (r *PayrollRepository) CountPresentForInstance(ctx context.Context, instanceID string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE instance_id = ? AND status = 'present'`,
		instanceID).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}
