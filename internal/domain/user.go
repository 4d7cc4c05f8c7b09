package domain

import "time"

// Role enumerates what a user may do across the system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// Valid reports whether the value is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether the role may work tickets (assign, transition, reprioritize).
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAgent
}

// User is the domain model for everyone in the directory: customers who
// open tickets and the agents/admins who work them.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
