package model

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleReader UserRole = "reader"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserWithLoans is the /users/me and /users/:id response shape.
type UserWithLoans struct {
	User
	Rebooks []Rebook `json:"rebooks"`
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	Username string `json:"username" validate:"required,max=20"`
	Email    string `json:"email" validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserReq lets the current user change username and/or password.
type UpdateUserReq struct {
	Username *string `json:"username,omitempty" validate:"omitempty,max=20"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// RoleUpdateReq is the admin-only role change payload.
type RoleUpdateReq struct {
	NewRole UserRole `json:"new_role" validate:"required,oneof=admin reader"`
}
