package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

var (
	studioCounter     uint64
	customerCounter   uint64
	instructorCounter uint64
	planCounter       uint64
	seriesCounter     uint64
	instanceCounter   uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// StudioOption configures a generated studio fixture.
type StudioOption func(*persistence.Studio)

// NewStudioFixture returns a deterministic studio with optional overrides.
// The default zone exercises DST transitions in both directions.
func NewStudioFixture(opts ...StudioOption) persistence.Studio {
	idx := atomic.AddUint64(&studioCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	studio := persistence.Studio{
		ID:           fmt.Sprintf("studio-%03d", idx),
		Slug:         fmt.Sprintf("studio-%03d", idx),
		Name:         fmt.Sprintf("Studio %03d", idx),
		TimeZone:     "America/New_York",
		WeekStartsOn: time.Monday,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&studio)
	}
	return studio
}

// WithTimeZone overrides the studio zone.
func WithTimeZone(zone string) StudioOption {
	return func(s *persistence.Studio) { s.TimeZone = zone }
}

// WithWeekStartsOn overrides the studio week-start day.
func WithWeekStartsOn(day time.Weekday) StudioOption {
	return func(s *persistence.Studio) { s.WeekStartsOn = day }
}

// CustomerOption configures a generated customer fixture.
type CustomerOption func(*persistence.Customer)

// NewCustomerFixture returns a deterministic customer belonging to the studio.
// The waiver is signed by default so booking fixtures pass the health gate.
func NewCustomerFixture(studioID string, opts ...CustomerOption) persistence.Customer {
	idx := atomic.AddUint64(&customerCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	signed := created
	customer := persistence.Customer{
		ID:             fmt.Sprintf("customer-%03d", idx),
		StudioID:       studioID,
		Email:          fmt.Sprintf("customer-%03d@example.com", idx),
		Name:           fmt.Sprintf("Customer %03d", idx),
		PasswordHash:   fmt.Sprintf("hash-%03d", idx),
		WaiverSignedAt: &signed,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&customer)
	}
	return customer
}

// WithoutWaiver clears the waiver signature.
func WithoutWaiver() CustomerOption {
	return func(c *persistence.Customer) { c.WaiverSignedAt = nil }
}

// NewInstructorFixture returns a deterministic instructor with a per-session
// rate.
func NewInstructorFixture(studioID string) persistence.Instructor {
	idx := atomic.AddUint64(&instructorCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	return persistence.Instructor{
		ID:           fmt.Sprintf("instructor-%03d", idx),
		StudioID:     studioID,
		Name:         fmt.Sprintf("Instructor %03d", idx),
		Email:        fmt.Sprintf("instructor-%03d@example.com", idx),
		RateCents:    5000,
		RateUnit:     persistence.RateUnitSession,
		RateCurrency: "USD",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

// PlanOption configures a generated plan fixture.
type PlanOption func(*persistence.Plan)

// NewPlanFixture returns a deterministic active plan, unlimited by default.
func NewPlanFixture(studioID string, opts ...PlanOption) persistence.Plan {
	idx := atomic.AddUint64(&planCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	plan := persistence.Plan{
		ID:         fmt.Sprintf("plan-%03d", idx),
		StudioID:   studioID,
		Name:       fmt.Sprintf("Plan %03d", idx),
		Type:       persistence.PlanUnlimited,
		PriceCents: 9900,
		Currency:   "USD",
		Active:     true,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&plan)
	}
	return plan
}

// AsPunchCard converts the plan into a punch card with the given bank.
func AsPunchCard(total int) PlanOption {
	return func(p *persistence.Plan) {
		p.Type = persistence.PlanPunchCard
		p.PunchTotal = total
	}
}

// AsWeeklyLimit converts the plan into a weekly-limit plan.
func AsWeeklyLimit(limit int) PlanOption {
	return func(p *persistence.Plan) {
		p.Type = persistence.PlanWeeklyLimit
		p.WeeklyLimit = limit
	}
}

// NewMembershipFixture returns an active membership for the customer on the
// plan. RemainingUses mirrors the plan's punch bank.
func NewMembershipFixture(plan persistence.Plan, customerID string) persistence.Membership {
	created := referenceTime
	membership := persistence.Membership{
		ID:         "membership-" + plan.ID + "-" + customerID,
		StudioID:   plan.StudioID,
		CustomerID: customerID,
		PlanID:     plan.ID,
		Status:     persistence.MembershipActive,
		StartedAt:  created,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	if plan.Type == persistence.PlanPunchCard {
		membership.RemainingUses = plan.PunchTotal
	}
	return membership
}

// SeriesOption configures a generated series fixture.
type SeriesOption func(*persistence.EventSeries)

// NewSeriesFixture returns a deterministic weekly series: Tuesday 18:00
// local, 60 minutes, capacity 10.
func NewSeriesFixture(studioID string, opts ...SeriesOption) persistence.EventSeries {
	idx := atomic.AddUint64(&seriesCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	series := persistence.EventSeries{
		ID:                      fmt.Sprintf("series-%03d", idx),
		StudioID:                studioID,
		Title:                   fmt.Sprintf("Class %03d", idx),
		DayOfWeek:               time.Tuesday,
		StartHourLocal:          18,
		StartMinuteLocal:        0,
		DurationMinutes:         60,
		RecurrenceIntervalWeeks: 1,
		Capacity:                10,
		RemoteCapacity:          0,
		PriceCents:              2500,
		Currency:                "USD",
		CancellationWindowHours: 24,
		Active:                  true,
		CreatedAt:               created,
		UpdatedAt:               created,
	}
	for _, opt := range opts {
		opt(&series)
	}
	return series
}

// InstanceOption configures a generated instance fixture.
type InstanceOption func(*persistence.EventInstance)

// NewInstanceFixture returns a scheduled one-hour ad-hoc instance starting a
// week after ReferenceTime.
func NewInstanceFixture(studioID string, opts ...InstanceOption) persistence.EventInstance {
	idx := atomic.AddUint64(&instanceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	start := referenceTime.AddDate(0, 0, 7)
	instance := persistence.EventInstance{
		ID:                      fmt.Sprintf("instance-%03d", idx),
		StudioID:                studioID,
		Title:                   fmt.Sprintf("Session %03d", idx),
		StartUTC:                start,
		EndUTC:                  start.Add(time.Hour),
		Capacity:                10,
		RemoteCapacity:          0,
		PriceCents:              2500,
		Currency:                "USD",
		CancellationWindowHours: 24,
		Status:                  persistence.InstanceScheduled,
		CreatedAt:               created,
		UpdatedAt:               created,
	}
	for _, opt := range opts {
		opt(&instance)
	}
	return instance
}

// WithWindow overrides the instance window.
func WithWindow(start, end time.Time) InstanceOption {
	return func(i *persistence.EventInstance) {
		i.StartUTC = start
		i.EndUTC = end
	}
}

// WithCapacity overrides the in-person capacity.
func WithCapacity(capacity int) InstanceOption {
	return func(i *persistence.EventInstance) { i.Capacity = capacity }
}

// WithRemoteCapacity overrides the remote capacity.
func WithRemoteCapacity(capacity int) InstanceOption {
	return func(i *persistence.EventInstance) { i.RemoteCapacity = capacity }
}

// WithSeries links the instance to a series.
func WithSeries(seriesID string) InstanceOption {
	return func(i *persistence.EventInstance) { i.SeriesID = &seriesID }
}
