package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; schema_version records the last applied
// index so restarts only run what is new.
var migrations = []string{
	`CREATE TABLE studios (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		time_zone TEXT NOT NULL,
		week_starts_on INTEGER NOT NULL DEFAULT 0 CHECK (week_starts_on BETWEEN 0 AND 6),
		locale TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE studio_holiday_calendars (
		studio_id TEXT NOT NULL REFERENCES studios(id),
		calendar_id TEXT NOT NULL,
		PRIMARY KEY (studio_id, calendar_id)
	)`,
	`CREATE TABLE rooms (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE instructors (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		rate_cents INTEGER NOT NULL DEFAULT 0,
		rate_unit TEXT NOT NULL DEFAULT 'session',
		rate_currency TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		waiver_signed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (studio_id, email)
	)`,
	`CREATE TABLE health_declarations (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE plans (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		name TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('weekly_limit','punch_card','unlimited')),
		weekly_limit INTEGER NOT NULL DEFAULT 0,
		punch_total INTEGER NOT NULL DEFAULT 0,
		price_cents INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE memberships (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		customer_id TEXT NOT NULL REFERENCES customers(id),
		plan_id TEXT NOT NULL REFERENCES plans(id),
		status TEXT NOT NULL CHECK (status IN ('active','cancelled','expired')),
		remaining_uses INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE event_series (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		title TEXT NOT NULL,
		room_id TEXT REFERENCES rooms(id),
		instructor_id TEXT REFERENCES instructors(id),
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		start_hour_local INTEGER NOT NULL CHECK (start_hour_local BETWEEN 0 AND 23),
		start_minute_local INTEGER NOT NULL CHECK (start_minute_local BETWEEN 0 AND 59),
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		recurrence_interval_weeks INTEGER NOT NULL DEFAULT 1,
		capacity INTEGER NOT NULL,
		remote_capacity INTEGER NOT NULL DEFAULT 0,
		price_cents INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		cancellation_window_hours INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE series_allowed_plans (
		series_id TEXT NOT NULL REFERENCES event_series(id),
		plan_id TEXT NOT NULL REFERENCES plans(id),
		PRIMARY KEY (series_id, plan_id)
	)`,
	`CREATE TABLE event_instances (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		series_id TEXT REFERENCES event_series(id),
		title TEXT NOT NULL,
		room_id TEXT REFERENCES rooms(id),
		instructor_id TEXT REFERENCES instructors(id),
		start_utc TEXT NOT NULL,
		end_utc TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		remote_capacity INTEGER NOT NULL DEFAULT 0,
		price_cents INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		cancellation_window_hours INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('scheduled','cancelled')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (start_utc < end_utc)
	)`,
	`CREATE INDEX idx_event_instances_studio_start ON event_instances(studio_id, start_utc)`,
	`CREATE UNIQUE INDEX idx_event_instances_series_start ON event_instances(series_id, start_utc) WHERE series_id IS NOT NULL`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		customer_id TEXT NOT NULL REFERENCES customers(id),
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		provider_ref TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE bookings (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		customer_id TEXT NOT NULL REFERENCES customers(id),
		instance_id TEXT NOT NULL REFERENCES event_instances(id),
		membership_id TEXT REFERENCES memberships(id),
		payment_id TEXT REFERENCES payments(id),
		is_remote INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('pending','confirmed','cancelled')),
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_bookings_instance ON bookings(instance_id, status)`,
	`CREATE INDEX idx_bookings_membership ON bookings(membership_id, status)`,
	`CREATE UNIQUE INDEX idx_bookings_active_seat ON bookings(customer_id, instance_id) WHERE status != 'cancelled'`,
	`CREATE TABLE attendance (
		id TEXT PRIMARY KEY,
		instance_id TEXT NOT NULL REFERENCES event_instances(id),
		customer_id TEXT NOT NULL REFERENCES customers(id),
		status TEXT NOT NULL CHECK (status IN ('present','absent')),
		created_at TEXT NOT NULL,
		UNIQUE (instance_id, customer_id)
	)`,
	`CREATE TABLE payroll_entries (
		id TEXT PRIMARY KEY,
		studio_id TEXT NOT NULL REFERENCES studios(id),
		instructor_id TEXT NOT NULL REFERENCES instructors(id),
		instance_id TEXT NOT NULL REFERENCES event_instances(id),
		duration_minutes INTEGER NOT NULL,
		booked_count INTEGER NOT NULL,
		present_count INTEGER NOT NULL,
		units REAL NOT NULL,
		rate_cents INTEGER NOT NULL,
		rate_unit TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		computed_at TEXT NOT NULL,
		UNIQUE (instructor_id, instance_id)
	)`,
}

// Migrate applies pending schema migrations.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", mapError(err))
	}

	var version int
	err := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", mapError(err))
	}

	for i := version; i < len(migrations); i++ {
		stmt := migrations[i]
		next := i + 1
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("sqlite: migration %d: %w", next, mapError(err))
			}
			if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
				return mapError(err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, next); err != nil {
				return mapError(err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
