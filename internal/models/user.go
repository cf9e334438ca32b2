package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the known principal roles
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// NormalizeEmail lowercases and trims an email address for lookup and storage
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicUser is the read view of a principal. It never carries a secret.
type PublicUser struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Role          string     `json:"role"`
	Active        bool       `json:"active"`
	IsBanned      bool       `json:"isBanned"`
	IsVerified    bool       `json:"isVerified"`
	AccountLocked bool       `json:"accountLocked"`
	LockUntil     *time.Time `json:"lockUntil,omitempty"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// SetActive updates standing and the derived banned flag together
func (u *PublicUser) SetActive(active bool) {
	u.Active = active
	u.IsBanned = !active
}

// IsAdmin reports whether the principal currently holds the admin role
func (u *PublicUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// User is the internal principal record used by credential verification and
// password reset. Only repositories and the services that verify secrets
// handle it; everything else works with PublicUser.
type User struct {
	PublicUser

	PasswordHash        string
	FailedLoginAttempts int
	ResetOTP            string
	ResetOTPExpiresAt   *time.Time
	ResetOTPAttempts    int
	PasswordChangedAt   *time.Time
}

// Public returns a copy of the record without secret material
func (u *User) Public() *PublicUser {
	p := u.PublicUser
	return &p
}
