package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token origins. Admin-login tokens get a shorter lifetime.
const (
	TokenOriginUser  = "user"
	TokenOriginAdmin = "admin"
)

// TokenClaims is the identity asserted by a session token. Role is carried
// for clients only; authorization always uses the principal re-read from the
// store.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Origin string `json:"origin"`
	jwt.RegisteredClaims
}

// PendingRegistration is a submitted but unconfirmed sign-up. It lives in a
// TTL store and is never visible through a read API.
type PendingRegistration struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password_hash"`
	OTP          string    `json:"otp"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired reports whether the challenge can no longer be redeemed at now
func (p *PendingRegistration) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
