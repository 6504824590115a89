package persistence

import "time"

// Studio is the tenant root. All other records are scoped to a studio.
type Studio struct {
	ID                 string
	Slug               string
	Name               string
	TimeZone           string
	WeekStartsOn       time.Weekday
	Locale             string
	HolidayCalendarIDs []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Room is a bookable physical space within a studio.
type Room struct {
	ID        string
	StudioID  string
	Name      string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RateUnit determines how an instructor rate scales with session length.
type RateUnit string

const (
	RateUnitSession RateUnit = "session"
	RateUnitHour    RateUnit = "hour"
	RateUnitDay     RateUnit = "day"
	RateUnitWeek    RateUnit = "week"
	RateUnitMonth   RateUnit = "month"
)

// Instructor teaches sessions and carries a payroll rate.
type Instructor struct {
	ID           string
	StudioID     string
	Name         string
	Email        string
	RateCents    int64
	RateUnit     RateUnit
	RateCurrency string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer is a studio member account.
type Customer struct {
	ID             string
	StudioID       string
	Email          string
	Name           string
	PasswordHash   string
	WaiverSignedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HealthDeclaration is a per-customer health statement kept on file.
type HealthDeclaration struct {
	ID         string
	CustomerID string
	Notes      string
	CreatedAt  time.Time
}

// PlanType distinguishes how a plan limits bookings.
type PlanType string

const (
	PlanWeeklyLimit PlanType = "weekly_limit"
	PlanPunchCard   PlanType = "punch_card"
	PlanUnlimited   PlanType = "unlimited"
)

// Plan is a purchasable membership template.
type Plan struct {
	ID          string
	StudioID    string
	Name        string
	Type        PlanType
	WeeklyLimit int
	PunchTotal  int
	PriceCents  int64
	Currency    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MembershipStatus is the lifecycle state of a membership.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipCancelled MembershipStatus = "cancelled"
	MembershipExpired   MembershipStatus = "expired"
)

// Membership links a customer to a plan. RemainingUses is meaningful only
// for punch-card plans.
type Membership struct {
	ID            string
	StudioID      string
	CustomerID    string
	PlanID        string
	Status        MembershipStatus
	RemainingUses int
	StartedAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventSeries is a weekly recurrence template for a class.
type EventSeries struct {
	ID                      string
	StudioID                string
	Title                   string
	RoomID                  *string
	InstructorID            *string
	DayOfWeek               time.Weekday
	StartHourLocal          int
	StartMinuteLocal        int
	DurationMinutes         int
	RecurrenceIntervalWeeks int
	Capacity                int
	RemoteCapacity          int
	PriceCents              int64
	Currency                string
	CancellationWindowHours int
	AllowedPlanIDs          []string
	Active                  bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// InstanceStatus is the lifecycle state of an event instance.
type InstanceStatus string

const (
	InstanceScheduled InstanceStatus = "scheduled"
	InstanceCancelled InstanceStatus = "cancelled"
)

// EventInstance is one concrete occurrence of a series, or an ad-hoc
// one-off class when SeriesID is nil. StartUTC and EndUTC are absolute
// instants; StartUTC < EndUTC always holds for stored rows.
type EventInstance struct {
	ID                      string
	StudioID                string
	SeriesID                *string
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
	Status                  InstanceStatus
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking reserves one seat on an event instance for a customer. IsRemote
// selects which capacity pool the seat consumes. At most one non-cancelled
// booking may exist per (customer, instance) pair.
type Booking struct {
	ID           string
	StudioID     string
	CustomerID   string
	InstanceID   string
	MembershipID *string
	PaymentID    *string
	IsRemote     bool
	Status       BookingStatus
	CancelledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

// PaymentPaid is the only settlement state; payments are synthetic and
// settle immediately.
const PaymentPaid PaymentStatus = "paid"

// Payment is a synthetic charge record snapshotting price at booking or
// checkout time.
type Payment struct {
	ID          string
	StudioID    string
	CustomerID  string
	AmountCents int64
	Currency    string
	Status      PaymentStatus
	ProviderRef string
	CreatedAt   time.Time
}

// AttendanceStatus marks whether a booked customer showed up.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Attendance records presence for a booking.
type Attendance struct {
	ID         string
	InstanceID string
	CustomerID string
	Status     AttendanceStatus
	CreatedAt  time.Time
}

// PayrollEntry is the computed compensation row for one (instructor,
// instance) pair. Recomputation replaces prior numbers.
type PayrollEntry struct {
	ID              string
	StudioID        string
	InstructorID    string
	InstanceID      string
	DurationMinutes int
	BookedCount     int
	PresentCount    int
	Units           float64
	RateCents       int64
	RateUnit        RateUnit
	AmountCents     int64
	ComputedAt      time.Time
}
