package models

import "time"

// MaxLoginHistory is the number of most recent login attempts kept per principal
const MaxLoginHistory = 10

// LoginAttempt is one entry of a principal's login audit trail
type LoginAttempt struct {
	Timestamp  time.Time `json:"timestamp"`
	IPAddress  string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	Successful bool      `json:"successful"`
}
