package persistence

import (
	"context"
	"time"
)

// StudioRepository exposes CRUD operations for studios.
type StudioRepository interface {
	CreateStudio(ctx context.Context, studio Studio) error
	UpdateStudio(ctx context.Context, studio Studio) error
	GetStudio(ctx context.Context, id string) (Studio, error)
	GetStudioBySlug(ctx context.Context, slug string) (Studio, error)
	ListStudios(ctx context.Context) ([]Studio, error)
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, studioID string) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// InstructorRepository exposes CRUD operations for instructors.
type InstructorRepository interface {
	CreateInstructor(ctx context.Context, instructor Instructor) error
	UpdateInstructor(ctx context.Context, instructor Instructor) error
	GetInstructor(ctx context.Context, id string) (Instructor, error)
	ListInstructors(ctx context.Context, studioID string) ([]Instructor, error)
}

// CustomerRepository stores customer accounts and their health records.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer Customer) error
	UpdateCustomer(ctx context.Context, customer Customer) error
	GetCustomer(ctx context.Context, id string) (Customer, error)
	GetCustomerByEmail(ctx context.Context, studioID, email string) (Customer, error)
	AddHealthDeclaration(ctx context.Context, declaration HealthDeclaration) error
	HasHealthDeclaration(ctx context.Context, customerID string) (bool, error)
}

// PlanRepository exposes CRUD operations for plans.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan Plan) error
	UpdatePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlans(ctx context.Context, studioID string) ([]Plan, error)
}

// MembershipRepository stores customer subscriptions.
type MembershipRepository interface {
	CreateMembership(ctx context.Context, membership Membership) error
	GetMembership(ctx context.Context, id string) (Membership, error)
	ListMembershipsForCustomer(ctx context.Context, customerID string) ([]Membership, error)
}

// PaymentRepository stores synthetic payment records created outside of
// booking arbitration (plan checkout).
type PaymentRepository interface {
	InsertPayment(ctx context.Context, payment Payment) error
}

// ScheduleRepository stores event series and their materialized instances.
type ScheduleRepository interface {
	CreateSeries(ctx context.Context, series EventSeries) error
	UpdateSeries(ctx context.Context, series EventSeries) error
	GetSeries(ctx context.Context, id string) (EventSeries, error)
	ListActiveSeries(ctx context.Context, studioID string) ([]EventSeries, error)

	CreateInstance(ctx context.Context, instance EventInstance) error
	UpdateInstance(ctx context.Context, instance EventInstance) error
	GetInstance(ctx context.Context, id string) (EventInstance, error)
	// ListInstancesOverlapping returns non-cancelled instances of the studio
	// whose [StartUTC, EndUTC) interval intersects [from, to).
	ListInstancesOverlapping(ctx context.Context, studioID string, from, to time.Time) ([]EventInstance, error)
	// SeriesInstanceExistsAt reports whether the series already owns an
	// instance at the exact UTC start.
	SeriesInstanceExistsAt(ctx context.Context, seriesID string, startUTC time.Time) (bool, error)
	// InsertInstances writes the batch in one transaction. Rows whose series
	// occurrence was materialized by a concurrent writer are skipped, and the
	// number of rows actually inserted is returned.
	InsertInstances(ctx context.Context, instances []EventInstance) (int, error)
}

// AttendanceRepository records per-instance presence.
type AttendanceRepository interface {
	RecordAttendance(ctx context.Context, attendance Attendance) error
}

// PayrollRepository stores computed payroll entries and the counts feeding
// them.
type PayrollRepository interface {
	// UpsertPayrollEntry replaces any prior entry for the same (instructor,
	// instance) pair.
	UpsertPayrollEntry(ctx context.Context, entry PayrollEntry) error
	GetPayrollEntry(ctx context.Context, instructorID, instanceID string) (PayrollEntry, error)
	CountConfirmedBookingsForInstance(ctx context.Context, instanceID string) (int, error)
	CountPresentForInstance(ctx context.Context, instanceID string) (int, error)
}

// BookingTx is the transactional view the booking arbiter operates on. All
// reads and writes issued through it belong to one store transaction; the
// capacity count and the booking insert are therefore serialized against
// concurrent arbitration for the same instance.
type BookingTx interface {
	InstanceByID(id string) (EventInstance, error)
	SeriesByID(id string) (EventSeries, error)
	ActiveBookingExists(customerID, instanceID string) (bool, error)
	CountConfirmedBookings(instanceID string, remote bool) (int, error)

	CustomerByID(id string) (Customer, error)
	MarkWaiverSigned(customerID string, at time.Time) error
	HasHealthDeclaration(customerID string) (bool, error)

	MembershipByID(id string) (Membership, error)
	SetMembershipRemainingUses(id string, uses int, at time.Time) error
	PlanByID(id string) (Plan, error)
	CountMembershipBookingsBetween(membershipID string, fromUTC, toUTC time.Time) (int, error)

	BookingByID(id string) (Booking, error)
	InsertBooking(booking Booking) error
	MarkBookingCancelled(id string, at time.Time) error
	InsertPayment(payment Payment) error
}

// BookingStore runs booking arbitration inside a single write transaction.
type BookingStore interface {
	InBookingTx(ctx context.Context, fn func(tx BookingTx) error) error
}
