package domain

import "time"

// Role is the capability tag embedded in access tokens and enforced by
// the role middleware.
type Role string

const (
	RoleUser     Role = "USER"
	RoleNGOAdmin Role = "NGO_ADMIN"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleNGOAdmin, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string // argon2id encoded, never serialized
	Role         Role
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
