package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// StudioRepository implements persistence.StudioRepository,
// persistence.RoomRepository and persistence.InstructorRepository.
type StudioRepository struct {
	pool *ConnectionPool
}

// NewStudioRepository creates the repository over the shared pool.
func NewStudioRepository(pool *ConnectionPool) *StudioRepository {
	return &StudioRepository{pool: pool}
}

// CreateStudio inserts a studio with its holiday calendar links.
func (r *StudioRepository) CreateStudio(ctx context.Context, studio persistence.Studio) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO studios (id, slug, name, time_zone, week_starts_on, locale, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			studio.ID, studio.Slug, studio.Name, studio.TimeZone, int(studio.WeekStartsOn),
			studio.Locale, fmtTime(studio.CreatedAt), fmtTime(studio.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		return insertHolidayCalendars(tx, studio.ID, studio.HolidayCalendarIDs)
	})
}

// UpdateStudio updates studio settings and replaces holiday calendar links.
func (r *StudioRepository) UpdateStudio(ctx context.Context, studio persistence.Studio) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE studios SET slug = ?, name = ?, time_zone = ?, week_starts_on = ?, locale = ?, updated_at = ?
			 WHERE id = ?`,
			studio.Slug, studio.Name, studio.TimeZone, int(studio.WeekStartsOn),
			studio.Locale, fmtTime(studio.UpdatedAt), studio.ID,
		)
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
		if _, err := tx.Exec(`DELETE FROM studio_holiday_calendars WHERE studio_id = ?`, studio.ID); err != nil {
			return mapError(err)
		}
		return insertHolidayCalendars(tx, studio.ID, studio.HolidayCalendarIDs)
	})
}

// GetStudio retrieves a studio by id.
func (r *StudioRepository) GetStudio(ctx context.Context, id string) (persistence.Studio, error) {
	return r.getStudio(ctx, `WHERE id = ?`, id)
}

// GetStudioBySlug retrieves a studio by its unique slug.
func (r *StudioRepository) GetStudioBySlug(ctx context.Context, slug string) (persistence.Studio, error) {
	return r.getStudio(ctx, `WHERE slug = ?`, slug)
}

func (r *StudioRepository) getStudio(ctx context.Context, where string, arg any) (persistence.Studio, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, slug, name, time_zone, week_starts_on, locale, created_at, updated_at
		 FROM studios `+where, arg)

	studio, err := scanStudio(row)
	if err != nil {
		return persistence.Studio{}, err
	}

	calendars, err := r.loadHolidayCalendars(ctx, studio.ID)
	if err != nil {
		return persistence.Studio{}, err
	}
	studio.HolidayCalendarIDs = calendars
	return studio, nil
}

// ListStudios returns all studios ordered by slug.
func (r *StudioRepository) ListStudios(ctx context.Context) ([]persistence.Studio, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, slug, name, time_zone, week_starts_on, locale, created_at, updated_at
		 FROM studios ORDER BY slug ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var studios []persistence.Studio
	for rows.Next() {
		studio, err := scanStudio(rows)
		if err != nil {
			return nil, err
		}
		studios = append(studios, studio)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range studios {
		calendars, err := r.loadHolidayCalendars(ctx, studios[i].ID)
		if err != nil {
			return nil, err
		}
		studios[i].HolidayCalendarIDs = calendars
	}
	return studios, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudio(row rowScanner) (persistence.Studio, error) {
	var studio persistence.Studio
	var weekStartsOn int
	var createdAt, updatedAt string

	err := row.Scan(&studio.ID, &studio.Slug, &studio.Name, &studio.TimeZone,
		&weekStartsOn, &studio.Locale, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Studio{}, persistence.ErrNotFound
		}
		return persistence.Studio{}, mapError(err)
	}

	studio.WeekStartsOn = time.Weekday(weekStartsOn)
	if studio.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Studio{}, err
	}
	if studio.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Studio{}, err
	}
	return studio, nil
}

func insertHolidayCalendars(tx *sql.Tx, studioID string, calendarIDs []string) error {
	for _, calendarID := range calendarIDs {
		if calendarID == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO studio_holiday_calendars (studio_id, calendar_id) VALUES (?, ?)`,
			studioID, calendarID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *StudioRepository) loadHolidayCalendars(ctx context.Context, studioID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT calendar_id FROM studio_holiday_calendars WHERE studio_id = ? ORDER BY calendar_id ASC`,
		studioID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var calendars []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		calendars = append(calendars, id)
	}
	return calendars, rows.Err()
}

// CreateRoom inserts a room.
func (r *StudioRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO rooms (id, studio_id, name, capacity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID, room.StudioID, room.Name, room.Capacity,
		fmtTime(room.CreatedAt), fmtTime(room.UpdatedAt))
	return mapError(err)
}

// UpdateRoom updates a room.
func (r *StudioRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, capacity = ?, updated_at = ? WHERE id = ?`,
		room.Name, room.Capacity, fmtTime(room.UpdatedAt), room.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetRoom retrieves a room by id.
func (r *StudioRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	var room persistence.Room
	var createdAt, updatedAt string
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT id, studio_id, name, capacity, created_at, updated_at FROM rooms WHERE id = ?`, id).
		Scan(&room.ID, &room.StudioID, &room.Name, &room.Capacity, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}
	if room.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

// ListRooms returns the studio's rooms ordered by name.
func (r *StudioRepository) ListRooms(ctx context.Context, studioID string) ([]persistence.Room, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, studio_id, name, capacity, created_at, updated_at
		 FROM rooms WHERE studio_id = ? ORDER BY name ASC, id ASC`, studioID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		var room persistence.Room
		var createdAt, updatedAt string
		if err := rows.Scan(&room.ID, &room.StudioID, &room.Name, &room.Capacity, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		if room.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if room.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes a room.
func (r *StudioRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// CreateInstructor inserts an instructor.
func (r *StudioRepository) CreateInstructor(ctx context.Context, instructor persistence.Instructor) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO instructors (id, studio_id, name, email, rate_cents, rate_unit, rate_currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		instructor.ID, instructor.StudioID, instructor.Name, instructor.Email,
		instructor.RateCents, string(instructor.RateUnit), instructor.RateCurrency,
		fmtTime(instructor.CreatedAt), fmtTime(instructor.UpdatedAt))
	return mapError(err)
}

// UpdateInstructor updates an instructor.
func (r *StudioRepository) UpdateInstructor(ctx context.Context, instructor persistence.Instructor) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE instructors SET name = ?, email = ?, rate_cents = ?, rate_unit = ?, rate_currency = ?, updated_at = ?
		 WHERE id = ?`,
		instructor.Name, instructor.Email, instructor.RateCents, string(instructor.RateUnit),
		instructor.RateCurrency, fmtTime(instructor.UpdatedAt), instructor.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetInstructor retrieves an instructor by id.
func (r *StudioRepository) GetInstructor(ctx context.Context, id string) (persistence.Instructor, error) {
	var instructor persistence.Instructor
	var rateUnit, createdAt, updatedAt string
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT id, studio_id, name, email, rate_cents, rate_unit, rate_currency, created_at, updated_at
		 FROM instructors WHERE id = ?`, id).
		Scan(&instructor.ID, &instructor.StudioID, &instructor.Name, &instructor.Email,
			&instructor.RateCents, &rateUnit, &instructor.RateCurrency, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Instructor{}, persistence.ErrNotFound
		}
		return persistence.Instructor{}, mapError(err)
	}
	instructor.RateUnit = persistence.RateUnit(rateUnit)
	if instructor.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Instructor{}, err
	}
	if instructor.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Instructor{}, err
	}
	return instructor, nil
}

// ListInstructors returns the studio's instructors ordered by name.
func (r *StudioRepository) ListInstructors(ctx context.Context, studioID string) ([]persistence.Instructor, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, studio_id, name, email, rate_cents, rate_unit, rate_currency, created_at, updated_at
		 FROM instructors WHERE studio_id = ? ORDER BY name ASC, id ASC`, studioID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var instructors []persistence.Instructor
	for rows.Next() {
		var instructor persistence.Instructor
		var rateUnit, createdAt, updatedAt string
		if err := rows.Scan(&instructor.ID, &instructor.StudioID, &instructor.Name, &instructor.Email,
			&instructor.RateCents, &rateUnit, &instructor.RateCurrency, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		instructor.RateUnit = persistence.RateUnit(rateUnit)
		if instructor.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if instructor.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		instructors = append(instructors, instructor)
	}
	return instructors, rows.Err()
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
