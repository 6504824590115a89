package application

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// CustomerService manages customer accounts, waivers and health
// declarations.
type CustomerService struct {
	customers   persistence.CustomerRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCustomerService wires dependencies for customer operations.
func NewCustomerService(customers persistence.CustomerRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CustomerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerService{
		customers:   customers,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// RegisterCustomerInput carries a registration request.
type RegisterCustomerInput struct {
	StudioID string
	Email    string
	Name     string
	Password string
}

// RegisterCustomer creates a customer account with an argon2id password
// hash. Email is unique per studio.
func (s *CustomerService) RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (persistence.Customer, error) {
	vErr := &ValidationError{}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return persistence.Customer{}, vErr
	}

	if _, err := s.customers.GetCustomerByEmail(ctx, input.StudioID, email); err == nil {
		return persistence.Customer{}, ErrAlreadyExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return persistence.Customer{}, err
	}

	now := s.now().UTC()
	customer := persistence.Customer{
		ID:           s.idGenerator(),
		StudioID:     input.StudioID,
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return persistence.Customer{}, mapStoreError(err)
	}
	return customer, nil
}

// SignWaiver records the health-waiver signature timestamp.
func (s *CustomerService) SignWaiver(ctx context.Context, customerID string) error {
	customer, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return mapStoreError(err)
	}
	if customer.WaiverSignedAt != nil {
		return nil
	}
	signedAt := s.now().UTC()
	customer.WaiverSignedAt = &signedAt
	customer.UpdatedAt = signedAt
	return mapStoreError(s.customers.UpdateCustomer(ctx, customer))
}

// AddHealthDeclaration files a health statement for the customer.
func (s *CustomerService) AddHealthDeclaration(ctx context.Context, customerID, notes string) error {
	if _, err := s.customers.GetCustomer(ctx, customerID); err != nil {
		return mapStoreError(err)
	}
	return s.customers.AddHealthDeclaration(ctx, persistence.HealthDeclaration{
		ID:         s.idGenerator(),
		CustomerID: customerID,
		Notes:      notes,
		CreatedAt:  s.now().UTC(),
	})
}
