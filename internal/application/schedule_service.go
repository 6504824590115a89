package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/recurrence"
	"github.com/example/studio-scheduler/internal/scheduler"
	"github.com/example/studio-scheduler/internal/timezone"
)

// ScheduleService materializes series occurrences into instances and manages
// ad-hoc classes. Conflicting occurrences are skipped, never fatal; a staff
// member is expected to resolve them manually.
type ScheduleService struct {
	schedules   persistence.ScheduleRepository
	zones       *timezone.Resolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules persistence.ScheduleRepository, zones *timezone.Resolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{
		schedules:   schedules,
		zones:       zones,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateSeries validates and stores a recurrence template.
func (s *ScheduleService) CreateSeries(ctx context.Context, principal Principal, series persistence.EventSeries) (persistence.EventSeries, error) {
	if !principal.CanManageSchedule() {
		return persistence.EventSeries{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if series.Title == "" {
		vErr.add("title", "title is required")
	}
	if series.DayOfWeek < time.Sunday || series.DayOfWeek > time.Saturday {
		vErr.add("day_of_week", "day of week must be 0-6")
	}
	if series.StartHourLocal < 0 || series.StartHourLocal > 23 || series.StartMinuteLocal < 0 || series.StartMinuteLocal > 59 {
		vErr.add("start_time", "start time is out of range")
	}
	if series.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if series.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if series.RemoteCapacity < 0 {
		vErr.add("remote_capacity", "remote capacity cannot be negative")
	}
	if vErr.HasErrors() {
		return persistence.EventSeries{}, vErr
	}

	now := s.now().UTC()
	series.ID = s.idGenerator()
	series.Active = true
	series.CreatedAt = now
	series.UpdatedAt = now
	if series.RecurrenceIntervalWeeks < 1 {
		series.RecurrenceIntervalWeeks = 1
	}

	if err := s.schedules.CreateSeries(ctx, series); err != nil {
		return persistence.EventSeries{}, mapStoreError(err)
	}
	return series, nil
}

// GetSeries retrieves a recurrence template.
func (s *ScheduleService) GetSeries(ctx context.Context, id string) (persistence.EventSeries, error) {
	series, err := s.schedules.GetSeries(ctx, id)
	if err != nil {
		return persistence.EventSeries{}, mapStoreError(err)
	}
	return series, nil
}

// GenerateForSeries expands the series over [from, to) and materializes the
// occurrences that do not already exist and do not collide with another
// instance's room or instructor. It returns the number of instances actually
// created; regeneration over the same window creates nothing.
func (s *ScheduleService) GenerateForSeries(ctx context.Context, studio persistence.Studio, series persistence.EventSeries, from, to time.Time) (int, error) {
	if series.DurationMinutes <= 0 {
		vErr := &ValidationError{}
		vErr.add("duration_minutes", "duration must be positive")
		return 0, vErr
	}

	loc, err := s.zones.Resolve(studio.TimeZone)
	if err != nil {
		return 0, err
	}

	occurrences, err := recurrence.Expand(recurrence.Rule{
		DayOfWeek:       series.DayOfWeek,
		StartHourLocal:  series.StartHourLocal,
		StartMinute:     series.StartMinuteLocal,
		DurationMinutes: series.DurationMinutes,
		IntervalWeeks:   series.RecurrenceIntervalWeeks,
	}, loc, from, to)
	if err != nil {
		return 0, err
	}
	if len(occurrences) == 0 {
		return 0, nil
	}

	windowStart := occurrences[0].Start
	windowEnd := occurrences[len(occurrences)-1].End
	existing, err := s.schedules.ListInstancesOverlapping(ctx, studio.ID, windowStart, windowEnd)
	if err != nil {
		return 0, err
	}
	neighbors := toSchedulerInstances(existing)

	var batch []persistence.EventInstance
	now := s.now().UTC()
	for _, occ := range occurrences {
		known, err := s.schedules.SeriesInstanceExistsAt(ctx, series.ID, occ.Start)
		if err != nil {
			return 0, err
		}
		if known {
			continue
		}

		if scheduler.HasConflict(neighbors, occ.Start, occ.End, series.RoomID, series.InstructorID, "") {
			s.logger.WarnContext(ctx, "occurrence skipped due to resource conflict",
				"series_id", series.ID,
				"start_utc", occ.Start,
			)
			continue
		}

		seriesID := series.ID
		instance := persistence.EventInstance{
			ID:                      s.idGenerator(),
			StudioID:                studio.ID,
			SeriesID:                &seriesID,
			Title:                   series.Title,
			RoomID:                  series.RoomID,
			InstructorID:            series.InstructorID,
			StartUTC:                occ.Start,
			EndUTC:                  occ.End,
			Capacity:                series.Capacity,
			RemoteCapacity:          series.RemoteCapacity,
			PriceCents:              series.PriceCents,
			Currency:                series.Currency,
			CancellationWindowHours: series.CancellationWindowHours,
			Status:                  persistence.InstanceScheduled,
			CreatedAt:               now,
			UpdatedAt:               now,
		}
		batch = append(batch, instance)
		neighbors = append(neighbors, toSchedulerInstance(instance))
	}

	if len(batch) == 0 {
		return 0, nil
	}
	// A concurrent sweep may have materialized an occurrence after the
	// existence check above; the insert skips those rows.
	created, err := s.schedules.InsertInstances(ctx, batch)
	if err != nil {
		return 0, err
	}
	return created, nil
}

// GenerateForStudio expands every active series of the studio. A series with
// invalid data is logged and skipped; store failures abort.
func (s *ScheduleService) GenerateForStudio(ctx context.Context, studio persistence.Studio, from, to time.Time) (int, error) {
	series, err := s.schedules.ListActiveSeries(ctx, studio.ID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, sr := range series {
		created, err := s.GenerateForSeries(ctx, studio, sr, from, to)
		if err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				s.logger.WarnContext(ctx, "series skipped during generation",
					"series_id", sr.ID,
					"errors", vErr.FieldErrors,
				)
				continue
			}
			return total, err
		}
		total += created
	}
	return total, nil
}

// AdHocInstanceInput describes a one-off class outside any series.
type AdHocInstanceInput struct {
	Studio                  persistence.Studio
	Principal               Principal
	Title                   string
	RoomID                  *string
	InstructorID            *string
	StartUTC                time.Time
	EndUTC                  time.Time
	Capacity                int
	RemoteCapacity          int
	PriceCents              int64
	Currency                string
	CancellationWindowHours int
}

// CreateAdHocInstance stores a one-off class after checking its room and
// instructor are free for the window.
func (s *ScheduleService) CreateAdHocInstance(ctx context.Context, input AdHocInstanceInput) (persistence.EventInstance, error) {
	if !input.Principal.CanManageSchedule() {
		return persistence.EventInstance{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if !input.StartUTC.Before(input.EndUTC) {
		vErr.add("time", "start must be before end")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return persistence.EventInstance{}, vErr
	}

	conflict, err := s.hasConflict(ctx, input.Studio.ID, input.StartUTC, input.EndUTC, input.RoomID, input.InstructorID, "")
	if err != nil {
		return persistence.EventInstance{}, err
	}
	if conflict {
		return persistence.EventInstance{}, ErrSchedulingConflict
	}

	now := s.now().UTC()
	instance := persistence.EventInstance{
		ID:                      s.idGenerator(),
		StudioID:                input.Studio.ID,
		Title:                   input.Title,
		RoomID:                  input.RoomID,
		InstructorID:            input.InstructorID,
		StartUTC:                input.StartUTC.UTC(),
		EndUTC:                  input.EndUTC.UTC(),
		Capacity:                input.Capacity,
		RemoteCapacity:          input.RemoteCapacity,
		PriceCents:              input.PriceCents,
		Currency:                input.Currency,
		CancellationWindowHours: input.CancellationWindowHours,
		Status:                  persistence.InstanceScheduled,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.schedules.CreateInstance(ctx, instance); err != nil {
		return persistence.EventInstance{}, mapStoreError(err)
	}
	return instance, nil
}

// RescheduleInstance moves an instance to a new window, checking conflicts
// against everything except the instance itself.
func (s *ScheduleService) RescheduleInstance(ctx context.Context, principal Principal, instanceID string, startUTC, endUTC time.Time) (persistence.EventInstance, error) {
	if !principal.CanManageSchedule() {
		return persistence.EventInstance{}, ErrUnauthorized
	}
	if !startUTC.Before(endUTC) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return persistence.EventInstance{}, vErr
	}

	instance, err := s.schedules.GetInstance(ctx, instanceID)
	if err != nil {
		return persistence.EventInstance{}, mapStoreError(err)
	}

	conflict, err := s.hasConflict(ctx, instance.StudioID, startUTC, endUTC, instance.RoomID, instance.InstructorID, instance.ID)
	if err != nil {
		return persistence.EventInstance{}, err
	}
	if conflict {
		return persistence.EventInstance{}, ErrSchedulingConflict
	}

	instance.StartUTC = startUTC.UTC()
	instance.EndUTC = endUTC.UTC()
	instance.UpdatedAt = s.now().UTC()
	if err := s.schedules.UpdateInstance(ctx, instance); err != nil {
		return persistence.EventInstance{}, mapStoreError(err)
	}
	return instance, nil
}

// CancelInstance marks an instance cancelled. Its bookings stay untouched;
// refund handling lives outside the scheduler.
func (s *ScheduleService) CancelInstance(ctx context.Context, principal Principal, instanceID string) error {
	if !principal.CanManageSchedule() {
		return ErrUnauthorized
	}
	instance, err := s.schedules.GetInstance(ctx, instanceID)
	if err != nil {
		return mapStoreError(err)
	}
	if instance.Status == persistence.InstanceCancelled {
		return nil
	}
	instance.Status = persistence.InstanceCancelled
	instance.UpdatedAt = s.now().UTC()
	return mapStoreError(s.schedules.UpdateInstance(ctx, instance))
}

// ComputeWeekWindow resolves the studio-local week containing instant.
func (s *ScheduleService) ComputeWeekWindow(studio persistence.Studio, instant time.Time) (time.Time, time.Time, error) {
	loc, err := s.zones.Resolve(studio.TimeZone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end := scheduler.WeekWindow(loc, studio.WeekStartsOn, instant)
	return start, end, nil
}

// HasConflict answers whether any non-cancelled instance overlapping
// [startUTC, endUTC) double-books the room or instructor.
func (s *ScheduleService) HasConflict(ctx context.Context, studioID string, startUTC, endUTC time.Time, roomID, instructorID *string, excludeInstanceID string) (bool, error) {
	return s.hasConflict(ctx, studioID, startUTC, endUTC, roomID, instructorID, excludeInstanceID)
}

func (s *ScheduleService) hasConflict(ctx context.Context, studioID string, startUTC, endUTC time.Time, roomID, instructorID *string, excludeInstanceID string) (bool, error) {
	if roomID == nil && instructorID == nil {
		return false, nil
	}
	existing, err := s.schedules.ListInstancesOverlapping(ctx, studioID, startUTC, endUTC)
	if err != nil {
		return false, err
	}
	return scheduler.HasConflict(toSchedulerInstances(existing), startUTC, endUTC, roomID, instructorID, excludeInstanceID), nil
}

func toSchedulerInstances(instances []persistence.EventInstance) []scheduler.Instance {
	out := make([]scheduler.Instance, 0, len(instances))
	for _, inst := range instances {
		out = append(out, toSchedulerInstance(inst))
	}
	return out
}

func toSchedulerInstance(inst persistence.EventInstance) scheduler.Instance {
	return scheduler.Instance{
		ID:           inst.ID,
		RoomID:       inst.RoomID,
		InstructorID: inst.InstructorID,
		Start:        inst.StartUTC,
		End:          inst.EndUTC,
		Cancelled:    inst.Status == persistence.InstanceCancelled,
	}
}
