package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const otpDigits = 6

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random 6-digit code. Leading zeros are kept.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// otpMatches compares a submitted code with the issued one in constant time
func otpMatches(issued, submitted string) bool {
	if issued == "" || len(submitted) != len(issued) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(issued), []byte(submitted)) == 1
}
