package models

import "time"

// LockoutPolicy describes when repeated password failures lock an account
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockDuration      time.Duration
}

// DefaultLockoutPolicy locks an account for 30 minutes after 5 failures
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: 5,
		LockDuration:      30 * time.Minute,
	}
}

// IsLocked reports whether authentication must be refused at now.
// A lock whose LockUntil has passed is stale and does not block; it is only
// cleared by the next successful login.
func (p LockoutPolicy) IsLocked(u *User, now time.Time) bool {
	return u.AccountLocked && u.LockUntil != nil && u.LockUntil.After(now)
}

// ApplyFailure records a failed password check. The counter is never reset
// by lock expiry, so a stale lock re-locks on the very next failure.
func (p LockoutPolicy) ApplyFailure(u *User, now time.Time) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= p.MaxFailedAttempts {
		lockUntil := now.Add(p.LockDuration)
		u.AccountLocked = true
		u.LockUntil = &lockUntil
	}
}

// ApplySuccess records a successful login
func (p LockoutPolicy) ApplySuccess(u *User, now time.Time) {
	u.FailedLoginAttempts = 0
	u.AccountLocked = false
	u.LockUntil = nil
	lastLogin := now
	u.LastLogin = &lastLogin
}
