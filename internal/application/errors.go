package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission
	// for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is taken.
	ErrAlreadyExists = errors.New("application: already exists")
)

// Booking and scheduling outcomes. These are expected business-rule results
// the transport layer maps one-to-one to user-facing responses; they are
// never wrapped in panics.
var (
	ErrEventUnavailable          = errors.New("booking: event unavailable")
	ErrAlreadyBooked             = errors.New("booking: already booked")
	ErrHealthDeclarationRequired = errors.New("booking: health declaration required")
	ErrClassFull                 = errors.New("booking: class full")
	ErrRemoteUnavailable         = errors.New("booking: remote attendance unavailable")
	ErrRemoteFull                = errors.New("booking: remote capacity full")
	ErrMembershipNotActive       = errors.New("booking: membership not active")
	ErrPlanUnavailable           = errors.New("booking: plan unavailable")
	ErrNoRemainingUses           = errors.New("booking: no remaining uses")
	ErrWeeklyLimitReached        = errors.New("booking: weekly limit reached")
	ErrPlanRequiredForClass      = errors.New("booking: plan required for class")
	ErrPlanNotEligible           = errors.New("booking: plan not eligible for class")
	ErrAlreadyCancelled          = errors.New("booking: already cancelled")
	ErrCancellationWindowClosed  = errors.New("booking: cancellation window closed")
	ErrSchedulingConflict        = errors.New("schedule: resource conflict")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
