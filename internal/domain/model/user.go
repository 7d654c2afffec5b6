package model

import "time"

// Role gates access to admin endpoints.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleBuyer Role = "buyer"
)

// User represents a registered customer or back-office operator.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// HasRole reports whether user carries the given role.
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role == role
}
