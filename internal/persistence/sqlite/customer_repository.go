package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-scheduler/internal/persistence"
)

// CustomerRepository implements persistence.CustomerRepository.
type CustomerRepository struct {
	pool *ConnectionPool
}

// NewCustomerRepository creates the repository over the shared pool.
func NewCustomerRepository(pool *ConnectionPool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// CreateCustomer inserts a customer account.
func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer persistence.Customer) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO customers (id, studio_id, email, name, password_hash, waiver_signed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		customer.ID, customer.StudioID, customer.Email, customer.Name, customer.PasswordHash,
		nullTime(customer.WaiverSignedAt), fmtTime(customer.CreatedAt), fmtTime(customer.UpdatedAt))
	return mapError(err)
}

// UpdateCustomer updates an account, including the waiver timestamp.
func (r *CustomerRepository) UpdateCustomer(ctx context.Context, customer persistence.Customer) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE customers SET email = ?, name = ?, password_hash = ?, waiver_signed_at = ?, updated_at = ?
		 WHERE id = ?`,
		customer.Email, customer.Name, customer.PasswordHash,
		nullTime(customer.WaiverSignedAt), fmtTime(customer.UpdatedAt), customer.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetCustomer retrieves an account by id.
func (r *CustomerRepository) GetCustomer(ctx context.Context, id string) (persistence.Customer, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, studio_id, email, name, password_hash, waiver_signed_at, created_at, updated_at
		 FROM customers WHERE id = ?`, id)
	return scanCustomer(row)
}

// GetCustomerByEmail retrieves an account by its studio-unique email.
func (r *CustomerRepository) GetCustomerByEmail(ctx context.Context, studioID, email string) (persistence.Customer, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, studio_id, email, name, password_hash, waiver_signed_at, created_at, updated_at
		 FROM customers WHERE studio_id = ? AND email = ?`, studioID, email)
	return scanCustomer(row)
}

func scanCustomer(row rowScanner) (persistence.Customer, error) {
	var customer persistence.Customer
	var waiverSignedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&customer.ID, &customer.StudioID, &customer.Email, &customer.Name,
		&customer.PasswordHash, &waiverSignedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Customer{}, persistence.ErrNotFound
		}
		return persistence.Customer{}, mapError(err)
	}

	if customer.WaiverSignedAt, err = timePtr("waiver_signed_at", waiverSignedAt); err != nil {
		return persistence.Customer{}, err
	}
	if customer.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Customer{}, err
	}
	if customer.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Customer{}, err
	}
	return customer, nil
}

// AddHealthDeclaration records a health statement for the customer.
func (r *CustomerRepository) AddHealthDeclaration(ctx context.Context, declaration persistence.HealthDeclaration) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO health_declarations (id, customer_id, notes, created_at) VALUES (?, ?, ?, ?)`,
		declaration.ID, declaration.CustomerID, declaration.Notes, fmtTime(declaration.CreatedAt))
	return mapError(err)
}

// HasHealthDeclaration reports whether any declaration is on file.
func (r *CustomerRepository) HasHealthDeclaration(ctx context.Context, customerID string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM health_declarations WHERE customer_id = ?`, customerID).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}
