package model

import "time"

// Role governs which workflow actions a user may invoke.
type Role string

const (
	RoleClient   Role = "client"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

// CanReview reports whether the role may resolve pending documents.
func (r Role) CanReview() bool {
	return r == RoleApprover || r == RoleAdmin
}

// Profile is the application-side record of a user.
type Profile struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Identity is the caller as asserted by the identity provider. It is trusted as given.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
