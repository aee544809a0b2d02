package domain

import "time"

// Role is the flat actor role tag consulted by the authorization guard.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleTenant || r == RoleLandlord || r == RoleAdmin
}

// Actor identifies who is requesting a transition.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is used for scheduler-raised transitions (expiries, overdue
// marks). It carries the admin role so time-based events pass the guard
// through the same pipeline as user calls.
var SystemActor = Actor{ID: "system", Role: RoleAdmin}

// User models an authenticated account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
