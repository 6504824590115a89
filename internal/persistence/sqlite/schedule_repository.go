package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository.
type ScheduleRepository struct {
	pool *ConnectionPool
}

// NewScheduleRepository creates the repository over the shared pool.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// CreateSeries inserts a series with its allowed-plan links.
func (r *ScheduleRepository) CreateSeries(ctx context.Context, series persistence.EventSeries) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO event_series (id, studio_id, title, room_id, instructor_id, day_of_week,
			    start_hour_local, start_minute_local, duration_minutes, recurrence_interval_weeks,
			    capacity, remote_capacity, price_cents, currency, cancellation_window_hours, active,
			    created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			series.ID, series.StudioID, series.Title, nullString(series.RoomID), nullString(series.InstructorID),
			int(series.DayOfWeek), series.StartHourLocal, series.StartMinuteLocal, series.DurationMinutes,
			series.RecurrenceIntervalWeeks, series.Capacity, series.RemoteCapacity,
			series.PriceCents, series.Currency, series.CancellationWindowHours, boolInt(series.Active),
			fmtTime(series.CreatedAt), fmtTime(series.UpdatedAt))
		if err != nil {
			return mapError(err)
		}
		return insertAllowedPlans(tx, series.ID, series.AllowedPlanIDs)
	})
}

// UpdateSeries updates a series and replaces its allowed-plan links.
func (r *ScheduleRepository) UpdateSeries(ctx context.Context, series persistence.EventSeries) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE event_series SET title = ?, room_id = ?, instructor_id = ?, day_of_week = ?,
			    start_hour_local = ?, start_minute_local = ?, duration_minutes = ?,
			    recurrence_interval_weeks = ?, capacity = ?, remote_capacity = ?, price_cents = ?,
			    currency = ?, cancellation_window_hours = ?, active = ?, updated_at = ?
			 WHERE id = ?`,
			series.Title, nullString(series.RoomID), nullString(series.InstructorID), int(series.DayOfWeek),
			series.StartHourLocal, series.StartMinuteLocal, series.DurationMinutes,
			series.RecurrenceIntervalWeeks, series.Capacity, series.RemoteCapacity, series.PriceCents,
			series.Currency, series.CancellationWindowHours, boolInt(series.Active),
			fmtTime(series.UpdatedAt), series.ID)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		if _, err := tx.Exec(`DELETE FROM series_allowed_plans WHERE series_id = ?`, series.ID); err != nil {
			return mapError(err)
		}
		return insertAllowedPlans(tx, series.ID, series.AllowedPlanIDs)
	})
}

func insertAllowedPlans(tx *sql.Tx, seriesID string, planIDs []string) error {
	for _, planID := range planIDs {
		if planID == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO series_allowed_plans (series_id, plan_id) VALUES (?, ?)`,
			seriesID, planID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

// GetSeries retrieves a series with its allowed-plan ids.
func (r *ScheduleRepository) GetSeries(ctx context.Context, id string) (persistence.EventSeries, error) {
	row := r.pool.db.QueryRowContext(ctx, selectSeries+` WHERE id = ?`, id)
	series, err := scanSeries(row)
	if err != nil {
		return persistence.EventSeries{}, err
	}
	if series.AllowedPlanIDs, err = r.loadAllowedPlans(ctx, series.ID); err != nil {
		return persistence.EventSeries{}, err
	}
	return series, nil
}

// ListActiveSeries returns the studio's active series ordered by title.
func (r *ScheduleRepository) ListActiveSeries(ctx context.Context, studioID string) ([]persistence.EventSeries, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		selectSeries+` WHERE studio_id = ? AND active = 1 ORDER BY title ASC, id ASC`, studioID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var list []persistence.EventSeries
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, series)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range list {
		if list[i].AllowedPlanIDs, err = r.loadAllowedPlans(ctx, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

const selectSeries = `SELECT id, studio_id, title, room_id, instructor_id, day_of_week,
	start_hour_local, start_minute_local, duration_minutes, recurrence_interval_weeks,
	capacity, remote_capacity, price_cents, currency, cancellation_window_hours, active,
	created_at, updated_at
 FROM event_series`

func scanSeries(row rowScanner) (persistence.EventSeries, error) {
	var series persistence.EventSeries
	var roomID, instructorID sql.NullString
	var dayOfWeek, active int
	var createdAt, updatedAt string

	err := row.Scan(&series.ID, &series.StudioID, &series.Title, &roomID, &instructorID,
		&dayOfWeek, &series.StartHourLocal, &series.StartMinuteLocal, &series.DurationMinutes,
		&series.RecurrenceIntervalWeeks, &series.Capacity, &series.RemoteCapacity,
		&series.PriceCents, &series.Currency, &series.CancellationWindowHours, &active,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EventSeries{}, persistence.ErrNotFound
		}
		return persistence.EventSeries{}, mapError(err)
	}

	series.RoomID = stringPtr(roomID)
	series.InstructorID = stringPtr(instructorID)
	series.DayOfWeek = time.Weekday(dayOfWeek)
	series.Active = active != 0
	if series.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.EventSeries{}, err
	}
	if series.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.EventSeries{}, err
	}
	return series, nil
}

func (r *ScheduleRepository) loadAllowedPlans(ctx context.Context, seriesID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT plan_id FROM series_allowed_plans WHERE series_id = ? ORDER BY plan_id ASC`, seriesID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var plans []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		plans = append(plans, id)
	}
	return plans, rows.Err()
}

// CreateInstance inserts a single instance.
func (r *ScheduleRepository) CreateInstance(ctx context.Context, instance persistence.EventInstance) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insertInstance(tx, instance)
	})
}

// UpdateInstance updates an instance.
func (r *ScheduleRepository) UpdateInstance(ctx context.Context, instance persistence.EventInstance) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE event_instances SET title = ?, room_id = ?, instructor_id = ?, start_utc = ?, end_utc = ?,
		    capacity = ?, remote_capacity = ?, price_cents = ?, currency = ?,
		    cancellation_window_hours = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		instance.Title, nullString(instance.RoomID), nullString(instance.InstructorID),
		fmtTime(instance.StartUTC), fmtTime(instance.EndUTC),
		instance.Capacity, instance.RemoteCapacity, instance.PriceCents, instance.Currency,
		instance.CancellationWindowHours, string(instance.Status), fmtTime(instance.UpdatedAt),
		instance.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetInstance retrieves an instance by id.
func (r *ScheduleRepository) GetInstance(ctx context.Context, id string) (persistence.EventInstance, error) {
	row := r.pool.db.QueryRowContext(ctx, selectInstance+` WHERE id = ?`, id)
	return scanInstance(row)
}

// ListInstancesOverlapping returns non-cancelled instances intersecting
// [from, to). Half-open interval logic in SQL relies on RFC3339 UTC strings
// ordering lexically.
func (r *ScheduleRepository) ListInstancesOverlapping(ctx context.Context, studioID string, from, to time.Time) ([]persistence.EventInstance, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		selectInstance+` WHERE studio_id = ? AND status != 'cancelled' AND start_utc < ? AND end_utc > ?
		 ORDER BY start_utc ASC, id ASC`,
		studioID, fmtTime(to), fmtTime(from))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var instances []persistence.EventInstance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, rows.Err()
}

// SeriesInstanceExistsAt reports whether the series already materialized an
// instance at the exact UTC start.
func (r *ScheduleRepository) SeriesInstanceExistsAt(ctx context.Context, seriesID string, startUTC time.Time) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_instances WHERE series_id = ? AND start_utc = ?`,
		seriesID, fmtTime(startUTC)).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

// InsertInstances writes the batch in one transaction. An occurrence another
// writer materialized since the caller's existence check is skipped via the
// unique (series_id, start_utc) index rather than failing the batch.
func (r *ScheduleRepository) InsertInstances(ctx context.Context, instances []persistence.EventInstance) (int, error) {
	if len(instances) == 0 {
		return 0, nil
	}
	inserted := 0
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, instance := range instances {
			result, err := tx.Exec(
				`INSERT INTO event_instances (id, studio_id, series_id, title, room_id, instructor_id,
				    start_utc, end_utc, capacity, remote_capacity, price_cents, currency,
				    cancellation_window_hours, status, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (series_id, start_utc) WHERE series_id IS NOT NULL DO NOTHING`,
				instance.ID, instance.StudioID, nullString(instance.SeriesID), instance.Title,
				nullString(instance.RoomID), nullString(instance.InstructorID),
				fmtTime(instance.StartUTC), fmtTime(instance.EndUTC),
				instance.Capacity, instance.RemoteCapacity, instance.PriceCents, instance.Currency,
				instance.CancellationWindowHours, string(instance.Status),
				fmtTime(instance.CreatedAt), fmtTime(instance.UpdatedAt))
			if err != nil {
				return mapError(err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return mapError(err)
			}
			inserted += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func insertInstance(tx *sql.Tx, instance persistence.EventInstance) error {
	_, err := tx.Exec(
		`INSERT INTO event_instances (id, studio_id, series_id, title, room_id, instructor_id,
		    start_utc, end_utc, capacity, remote_capacity, price_cents, currency,
		    cancellation_window_hours, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		instance.ID, instance.StudioID, nullString(instance.SeriesID), instance.Title,
		nullString(instance.RoomID), nullString(instance.InstructorID),
		fmtTime(instance.StartUTC), fmtTime(instance.EndUTC),
		instance.Capacity, instance.RemoteCapacity, instance.PriceCents, instance.Currency,
		instance.CancellationWindowHours, string(instance.Status),
		fmtTime(instance.CreatedAt), fmtTime(instance.UpdatedAt))
	return mapError(err)
}

const selectInstance = `SELECT id, studio_id, series_id, title, room_id, instructor_id,
	start_utc, end_utc, capacity, remote_capacity, price_cents, currency,
	cancellation_window_hours, status, created_at, updated_at
 FROM event_instances`

func scanInstance(row rowScanner) (persistence.EventInstance, error) {
	var instance persistence.EventInstance
	var seriesID, roomID, instructorID sql.NullString
	var startUTC, endUTC, status, createdAt, updatedAt string

	err := row.Scan(&instance.ID, &instance.StudioID, &seriesID, &instance.Title,
		&roomID, &instructorID, &startUTC, &endUTC,
		&instance.Capacity, &instance.RemoteCapacity, &instance.PriceCents, &instance.Currency,
		&instance.CancellationWindowHours, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EventInstance{}, persistence.ErrNotFound
		}
		return persistence.EventInstance{}, mapError(err)
	}

	instance.SeriesID = stringPtr(seriesID)
	instance.RoomID = stringPtr(roomID)
	instance.InstructorID = stringPtr(instructorID)
	instance.Status = persistence.InstanceStatus(status)
	if instance.StartUTC, err = parseTime("start_utc", startUTC); err != nil {
		return persistence.EventInstance{}, err
	}
	if instance.EndUTC, err = parseTime("end_utc", endUTC); err != nil {
		return persistence.EventInstance{}, err
	}
	if instance.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.EventInstance{}, err
	}
	if instance.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.EventInstance{}, err
	}
	return instance, nil
}
