package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-scheduler/internal/persistence"
)

// PlanRepository implements persistence.PlanRepository,
// persistence.MembershipRepository and persistence.PaymentRepository.
type PlanRepository struct {
	pool *ConnectionPool
}

// NewPlanRepository creates the repository over the shared pool.
func NewPlanRepository(pool *ConnectionPool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// CreatePlan inserts a plan.
func (r *PlanRepository) CreatePlan(ctx context.Context, plan persistence.Plan) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO plans (id, studio_id, name, type, weekly_limit, punch_total, price_cents, currency, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.StudioID, plan.Name, string(plan.Type), plan.WeeklyLimit, plan.PunchTotal,
		plan.PriceCents, plan.Currency, boolInt(plan.Active),
		fmtTime(plan.CreatedAt), fmtTime(plan.UpdatedAt))
	return mapError(err)
}

// UpdatePlan updates a plan.
func (r *PlanRepository) UpdatePlan(ctx context.Context, plan persistence.Plan) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE plans SET name = ?, type = ?, weekly_limit = ?, punch_total = ?, price_cents = ?, currency = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		plan.Name, string(plan.Type), plan.WeeklyLimit, plan.PunchTotal,
		plan.PriceCents, plan.Currency, boolInt(plan.Active), fmtTime(plan.UpdatedAt), plan.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetPlan retrieves a plan by id.
func (r *PlanRepository) GetPlan(ctx context.Context, id string) (persistence.Plan, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, studio_id, name, type, weekly_limit, punch_total, price_cents, currency, active, created_at, updated_at
		 FROM plans WHERE id = ?`, id)
	return scanPlan(row)
}

// ListPlans returns the studio's plans ordered by name.
func (r *PlanRepository) ListPlans(ctx context.Context, studioID string) ([]persistence.Plan, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, studio_id, name, type, weekly_limit, punch_total, price_cents, currency, active, created_at, updated_at
		 FROM plans WHERE studio_id = ? ORDER BY name ASC, id ASC`, studioID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var plans []persistence.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanPlan(row rowScanner) (persistence.Plan, error) {
	var plan persistence.Plan
	var planType string
	var active int
	var createdAt, updatedAt string

	err := row.Scan(&plan.ID, &plan.StudioID, &plan.Name, &planType, &plan.WeeklyLimit,
		&plan.PunchTotal, &plan.PriceCents, &plan.Currency, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Plan{}, persistence.ErrNotFound
		}
		return persistence.Plan{}, mapError(err)
	}

	plan.Type = persistence.PlanType(planType)
	plan.Active = active != 0
	if plan.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Plan{}, err
	}
	if plan.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Plan{}, err
	}
	return plan, nil
}

// CreateMembership inserts a membership.
func (r *PlanRepository) CreateMembership(ctx context.Context, membership persistence.Membership) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO memberships (id, studio_id, customer_id, plan_id, status, remaining_uses, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		membership.ID, membership.StudioID, membership.CustomerID, membership.PlanID,
		string(membership.Status), membership.RemainingUses,
		fmtTime(membership.StartedAt), fmtTime(membership.CreatedAt), fmtTime(membership.UpdatedAt))
	return mapError(err)
}

// GetMembership retrieves a membership by id.
func (r *PlanRepository) GetMembership(ctx context.Context, id string) (persistence.Membership, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, studio_id, customer_id, plan_id, status, remaining_uses, started_at, created_at, updated_at
		 FROM memberships WHERE id = ?`, id)
	return scanMembership(row)
}

// ListMembershipsForCustomer returns the customer's memberships, newest first.
func (r *PlanRepository) ListMembershipsForCustomer(ctx context.Context, customerID string) ([]persistence.Membership, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, studio_id, customer_id, plan_id, status, remaining_uses, started_at, created_at, updated_at
		 FROM memberships WHERE customer_id = ? ORDER BY started_at DESC, id ASC`, customerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var memberships []persistence.Membership
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	return memberships, rows.Err()
}

func scanMembership(row rowScanner) (persistence.Membership, error) {
	var membership persistence.Membership
	var status string
	var startedAt, createdAt, updatedAt string

	err := row.Scan(&membership.ID, &membership.StudioID, &membership.CustomerID,
		&membership.PlanID, &status, &membership.RemainingUses,
		&startedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Membership{}, persistence.ErrNotFound
		}
		return persistence.Membership{}, mapError(err)
	}

	membership.Status = persistence.MembershipStatus(status)
	if membership.StartedAt, err = parseTime("started_at", startedAt); err != nil {
		return persistence.Membership{}, err
	}
	if membership.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Membership{}, err
	}
	if membership.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Membership{}, err
	}
	return membership, nil
}

// InsertPayment records a synthetic payment.
func (r *PlanRepository) InsertPayment(ctx context.Context, payment persistence.Payment) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO payments (id, studio_id, customer_id, amount_cents, currency, status, provider_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.StudioID, payment.CustomerID, payment.AmountCents,
		payment.Currency, string(payment.Status), payment.ProviderRef, fmtTime(payment.CreatedAt))
	return mapError(err)
}
