package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/scheduler"
)

// PayrollService derives instructor compensation rows from session duration
// and attendance. Entries are recomputed from scratch on every upsert, so
// repeated calls converge on the latest counts instead of accumulating.
type PayrollService struct {
	payroll     persistence.PayrollRepository
	attendance  persistence.AttendanceRepository
	instructors persistence.InstructorRepository
	schedules   persistence.ScheduleRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPayrollService wires dependencies for payroll computation.
func NewPayrollService(payroll persistence.PayrollRepository, attendance persistence.AttendanceRepository, instructors persistence.InstructorRepository, schedules persistence.ScheduleRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PayrollService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollService{
		payroll:     payroll,
		attendance:  attendance,
		instructors: instructors,
		schedules:   schedules,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// ComputeForInstance resolves the instructor and instance then recomputes
// the payroll row.
func (s *PayrollService) ComputeForInstance(ctx context.Context, principal Principal, instructorID, instanceID string) (persistence.PayrollEntry, error) {
	if !principal.CanManageSchedule() {
		return persistence.PayrollEntry{}, ErrUnauthorized
	}
	instructor, err := s.instructors.GetInstructor(ctx, instructorID)
	if err != nil {
		return persistence.PayrollEntry{}, mapStoreError(err)
	}
	instance, err := s.schedules.GetInstance(ctx, instanceID)
	if err != nil {
		return persistence.PayrollEntry{}, mapStoreError(err)
	}
	return s.UpsertEntry(ctx, principal, instructor, instance)
}

// UpsertEntry recomputes the payroll row for the instructor on this
// instance.
func (s *PayrollService) UpsertEntry(ctx context.Context, principal Principal, instructor persistence.Instructor, instance persistence.EventInstance) (persistence.PayrollEntry, error) {
	if !principal.CanManageSchedule() {
		return persistence.PayrollEntry{}, ErrUnauthorized
	}

	duration := int(instance.EndUTC.Sub(instance.StartUTC) / time.Minute)
	booked, err := s.payroll.CountConfirmedBookingsForInstance(ctx, instance.ID)
	if err != nil {
		return persistence.PayrollEntry{}, err
	}
	present, err := s.payroll.CountPresentForInstance(ctx, instance.ID)
	if err != nil {
		return persistence.PayrollEntry{}, err
	}

	units, amount := scheduler.ComputeUnits(instructor.RateCents, scheduler.RateUnit(instructor.RateUnit), duration)

	entry := persistence.PayrollEntry{
		ID:              s.idGenerator(),
		StudioID:        instance.StudioID,
		InstructorID:    instructor.ID,
		InstanceID:      instance.ID,
		DurationMinutes: duration,
		BookedCount:     booked,
		PresentCount:    present,
		Units:           units,
		RateCents:       instructor.RateCents,
		RateUnit:        instructor.RateUnit,
		AmountCents:     amount,
		ComputedAt:      s.now().UTC(),
	}

	if err := s.payroll.UpsertPayrollEntry(ctx, entry); err != nil {
		return persistence.PayrollEntry{}, err
	}

	stored, err := s.payroll.GetPayrollEntry(ctx, instructor.ID, instance.ID)
	if err != nil {
		return persistence.PayrollEntry{}, mapStoreError(err)
	}
	return stored, nil
}

// RecordAttendance marks a customer present or absent for an instance.
func (s *PayrollService) RecordAttendance(ctx context.Context, principal Principal, instanceID, customerID string, status persistence.AttendanceStatus) error {
	if !principal.CanManageSchedule() {
		return ErrUnauthorized
	}
	if status != persistence.AttendancePresent && status != persistence.AttendanceAbsent {
		vErr := &ValidationError{}
		vErr.add("status", "attendance status must be present or absent")
		return vErr
	}
	return s.attendance.RecordAttendance(ctx, persistence.Attendance{
		ID:         s.idGenerator(),
		InstanceID: instanceID,
		CustomerID: customerID,
		Status:     status,
		CreatedAt:  s.now().UTC(),
	})
}
