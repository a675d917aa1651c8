package dto

import "time"

// UserCreateRequest payload for admin-created accounts.
type UserCreateRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=ADMIN MANAGER ANALYST OPS VIEWER"`
}

// UserUpdateRequest payload for PATCH /users/:id.
type UserUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER ANALYST OPS VIEWER"`
	IsActive *bool   `json:"is_active"`
}

// UserResponse is the public view of an account. The password hash never leaves the service.
type UserResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
