package domain

import "time"

// UserRole enumerates dashboard roles.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleAnalyst UserRole = "ANALYST"
	RoleOps     UserRole = "OPS"
	RoleViewer  UserRole = "VIEWER"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAnalyst, RoleOps, RoleViewer:
		return true
	}
	return false
}

// User is an operator of the dashboard.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
