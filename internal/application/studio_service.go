package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/timezone"
)

// StudioService manages tenant onboarding, resources, plans and checkout.
type StudioService struct {
	studios     persistence.StudioRepository
	rooms       persistence.RoomRepository
	instructors persistence.InstructorRepository
	plans       persistence.PlanRepository
	memberships persistence.MembershipRepository
	payments    persistence.PaymentRepository
	zones       *timezone.Resolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStudioService wires dependencies for studio management.
func NewStudioService(studios persistence.StudioRepository, rooms persistence.RoomRepository, instructors persistence.InstructorRepository, plans persistence.PlanRepository, memberships persistence.MembershipRepository, payments persistence.PaymentRepository, zones *timezone.Resolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StudioService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudioService{
		studios:     studios,
		rooms:       rooms,
		instructors: instructors,
		plans:       plans,
		memberships: memberships,
		payments:    payments,
		zones:       zones,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateStudioInput carries tenant onboarding values.
type CreateStudioInput struct {
	Slug         string
	Name         string
	TimeZone     string
	WeekStartsOn time.Weekday
	Locale       string
}

// CreateStudio onboards a tenant. The slug is globally unique and the time
// zone must resolve against the IANA database.
func (s *StudioService) CreateStudio(ctx context.Context, input CreateStudioInput) (persistence.Studio, error) {
	vErr := &ValidationError{}
	slug := strings.TrimSpace(strings.ToLower(input.Slug))
	if slug == "" {
		vErr.add("slug", "slug is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.WeekStartsOn < time.Sunday || input.WeekStartsOn > time.Saturday {
		vErr.add("week_starts_on", "week start day must be 0-6")
	}
	if _, err := s.zones.Resolve(input.TimeZone); err != nil {
		vErr.add("time_zone", "time zone is not a known IANA identifier")
	}
	if vErr.HasErrors() {
		return persistence.Studio{}, vErr
	}

	now := s.now().UTC()
	studio := persistence.Studio{
		ID:           s.idGenerator(),
		Slug:         slug,
		Name:         strings.TrimSpace(input.Name),
		TimeZone:     input.TimeZone,
		WeekStartsOn: input.WeekStartsOn,
		Locale:       input.Locale,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.studios.CreateStudio(ctx, studio); err != nil {
		return persistence.Studio{}, mapStudioError(err)
	}
	return studio, nil
}

// UpdateStudioSettings applies zone, week-start and naming changes.
func (s *StudioService) UpdateStudioSettings(ctx context.Context, principal Principal, studio persistence.Studio) (persistence.Studio, error) {
	if !principal.HasRole(RoleOwner) {
		return persistence.Studio{}, ErrUnauthorized
	}
	if _, err := s.zones.Resolve(studio.TimeZone); err != nil {
		vErr := &ValidationError{}
		vErr.add("time_zone", "time zone is not a known IANA identifier")
		return persistence.Studio{}, vErr
	}
	if studio.WeekStartsOn < time.Sunday || studio.WeekStartsOn > time.Saturday {
		vErr := &ValidationError{}
		vErr.add("week_starts_on", "week start day must be 0-6")
		return persistence.Studio{}, vErr
	}
	studio.UpdatedAt = s.now().UTC()
	if err := s.studios.UpdateStudio(ctx, studio); err != nil {
		return persistence.Studio{}, mapStudioError(err)
	}
	return studio, nil
}

// GetStudioBySlug resolves a tenant by its public slug.
func (s *StudioService) GetStudioBySlug(ctx context.Context, slug string) (persistence.Studio, error) {
	studio, err := s.studios.GetStudioBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return persistence.Studio{}, mapStoreError(err)
	}
	return studio, nil
}

// CreateRoom adds a bookable room to the studio.
func (s *StudioService) CreateRoom(ctx context.Context, principal Principal, room persistence.Room) (persistence.Room, error) {
	if !principal.HasRole(RoleOwner) {
		return persistence.Room{}, ErrUnauthorized
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(room.Name) == "" {
		vErr.add("name", "name is required")
	}
	if room.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	now := s.now().UTC()
	room.ID = s.idGenerator()
	room.CreatedAt = now
	room.UpdatedAt = now
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return persistence.Room{}, mapStoreError(err)
	}
	return room, nil
}

// CreateInstructor adds an instructor with a payroll rate.
func (s *StudioService) CreateInstructor(ctx context.Context, principal Principal, instructor persistence.Instructor) (persistence.Instructor, error) {
	if !principal.HasRole(RoleOwner) {
		return persistence.Instructor{}, ErrUnauthorized
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(instructor.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch instructor.RateUnit {
	case persistence.RateUnitSession, persistence.RateUnitHour, persistence.RateUnitDay,
		persistence.RateUnitWeek, persistence.RateUnitMonth:
	default:
		vErr.add("rate_unit", "rate unit must be session, hour, day, week or month")
	}
	if instructor.RateCents < 0 {
		vErr.add("rate_cents", "rate cannot be negative")
	}
	if vErr.HasErrors() {
		return persistence.Instructor{}, vErr
	}

	now := s.now().UTC()
	instructor.ID = s.idGenerator()
	instructor.CreatedAt = now
	instructor.UpdatedAt = now
	if err := s.instructors.CreateInstructor(ctx, instructor); err != nil {
		return persistence.Instructor{}, mapStoreError(err)
	}
	return instructor, nil
}

// CreatePlan adds a membership plan.
func (s *StudioService) CreatePlan(ctx context.Context, principal Principal, plan persistence.Plan) (persistence.Plan, error) {
	if !principal.HasRole(RoleOwner) {
		return persistence.Plan{}, ErrUnauthorized
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(plan.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch plan.Type {
	case persistence.PlanWeeklyLimit:
		if plan.WeeklyLimit <= 0 {
			vErr.add("weekly_limit", "weekly limit must be positive")
		}
	case persistence.PlanPunchCard:
		if plan.PunchTotal <= 0 {
			vErr.add("punch_total", "punch total must be positive")
		}
	case persistence.PlanUnlimited:
	default:
		vErr.add("type", "plan type must be weekly_limit, punch_card or unlimited")
	}
	if vErr.HasErrors() {
		return persistence.Plan{}, vErr
	}

	now := s.now().UTC()
	plan.ID = s.idGenerator()
	plan.Active = true
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if err := s.plans.CreatePlan(ctx, plan); err != nil {
		return persistence.Plan{}, mapStoreError(err)
	}
	return plan, nil
}

// CheckoutPlan creates an active membership for the customer plus the
// synthetic payment snapshot. Punch-card memberships start with the plan's
// full punch bank.
func (s *StudioService) CheckoutPlan(ctx context.Context, principal Principal, studioID, customerID, planID string) (persistence.Membership, error) {
	if !principal.CanActFor(customerID) {
		return persistence.Membership{}, ErrUnauthorized
	}

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return persistence.Membership{}, mapStoreError(err)
	}
	if !plan.Active || plan.StudioID != studioID {
		return persistence.Membership{}, ErrPlanUnavailable
	}

	now := s.now().UTC()
	membership := persistence.Membership{
		ID:         s.idGenerator(),
		StudioID:   studioID,
		CustomerID: customerID,
		PlanID:     plan.ID,
		Status:     persistence.MembershipActive,
		StartedAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if plan.Type == persistence.PlanPunchCard {
		membership.RemainingUses = plan.PunchTotal
	}

	payment := persistence.Payment{
		ID:          s.idGenerator(),
		StudioID:    studioID,
		CustomerID:  customerID,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		Status:      persistence.PaymentPaid,
		ProviderRef: "synthetic:" + membership.ID,
		CreatedAt:   now,
	}
	if err := s.payments.InsertPayment(ctx, payment); err != nil {
		return persistence.Membership{}, err
	}
	if err := s.memberships.CreateMembership(ctx, membership); err != nil {
		return persistence.Membership{}, mapStoreError(err)
	}
	return membership, nil
}

func mapStudioError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return mapStoreError(err)
}
