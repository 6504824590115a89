package application

// Role tags a capability of an authenticated principal.
type Role string

const (
	// RoleOwner manages studio settings, schedules and payroll.
	RoleOwner Role = "owner"
	// RoleStaff manages schedules and bookings on behalf of customers.
	RoleStaff Role = "staff"
	// RoleCustomer books and cancels their own seats.
	RoleCustomer Role = "customer"
)

// Principal is the already-resolved identity attached to a request. Core
// operations receive it instead of inspecting transport-level credentials.
type Principal struct {
	UserID   string
	StudioID string
	Roles    []Role
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanManageSchedule reports whether the principal may create series,
// instances and payroll entries.
func (p Principal) CanManageSchedule() bool {
	return p.HasRole(RoleOwner) || p.HasRole(RoleStaff)
}

// CanActFor reports whether the principal may create or cancel bookings for
// the given customer.
func (p Principal) CanActFor(customerID string) bool {
	if p.CanManageSchedule() {
		return true
	}
	return p.HasRole(RoleCustomer) && p.UserID == customerID
}
