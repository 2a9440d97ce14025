package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. Role dispatch is exhaustive;
// an unknown role is rejected rather than falling through to patient access.
type Role string

const (
	RoleUser   Role = "USER"
	RoleDoctor Role = "DOCTOR"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDoctor, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account. Patients, doctors and staff all
// share this table; the role decides which surface they land on.
type User struct {
	Base
	Name         string     `json:"name" db:"name"`
	Phone        string     `json:"phone" db:"phone"`
	Email        string     `json:"email,omitempty" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Phone    string `json:"phone" binding:"required,min=10,max=15"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// TokenClaims is the identity carried in issued access tokens.
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Phone  string    `json:"phone"`
}
