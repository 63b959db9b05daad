// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an administrator's permission level in the system.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// Admin represents an administrator account with authentication and 2FA fields.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the account has the admin role.
// Editors can manage articles but not categories or other admin accounts.
func (a *Admin) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Needs2FASetup returns true if the account has not completed 2FA enrollment.
// All administrators must set up 2FA on their first login.
func (a *Admin) Needs2FASetup() bool {
	return !a.TOTPEnabled
}
