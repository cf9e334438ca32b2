package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 8
	MaxPasswordLen = 100
	maxRepeatedRun = 3
)

// BcryptCost is the work factor used by HashPassword. Tests lower it.
var BcryptCost = 12

// PolicyError lists every password rule that failed
type PolicyError struct {
	Errors []string
}

func (e *PolicyError) Error() string {
	if len(e.Errors) == 0 {
		return "password does not meet requirements"
	}
	return "password does not meet requirements: " + strings.Join(e.Errors, "; ")
}

// Known-weak literals, compared case-insensitively
var blacklistedPasswords = map[string]bool{
	"password123!": true,
	"admin123!":    true,
	"password":     true,
	"password123":  true,
	"12345678":     true,
	"qwerty123":    true,
	"letmein":      true,
	"welcome":      true,
	"passw0rd":     true,
	"trustno1":     true,
	"iloveyou":     true,
	"sunshine":     true,
	"football":     true,
	"princess":     true,
}

var weakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][a-z]+\d{2,4}[!@#$%^&*]$`), // Password123!
	regexp.MustCompile(`^[A-Z][a-z]{7,}[1-9]$`),          // Password1
	regexp.MustCompile(`^1234`),
	regexp.MustCompile(`^qwerty`),
	regexp.MustCompile(`(?i)^admin`),
	regexp.MustCompile(`(?i)^pass`),
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword checks every policy rule and reports all failures together
func ValidatePassword(password string) error {
	errors := make([]string, 0)

	length := utf8.RuneCountInString(password)
	if length < MinPasswordLen {
		errors = append(errors, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLen))
	}
	if length > MaxPasswordLen {
		errors = append(errors, fmt.Sprintf("Password must be at most %d characters long", MaxPasswordLen))
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSymbol := false
	hasSpace := false

	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			hasSpace = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		errors = append(errors, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		errors = append(errors, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errors = append(errors, "Password must contain at least one number")
	}
	if !hasSymbol {
		errors = append(errors, "Password must contain at least one symbol")
	}
	if hasSpace {
		errors = append(errors, "Password must not contain spaces")
	}

	if blacklistedPasswords[strings.ToLower(password)] {
		errors = append(errors, "Password is too common")
	}

	for _, pattern := range weakPatterns {
		if pattern.MatchString(password) {
			errors = append(errors, "Password matches a common pattern and would be easy to guess")
			break
		}
	}

	if hasRepeatedRun(password, maxRepeatedRun) {
		errors = append(errors, "Password contains too many repeated characters")
	}

	if len(errors) > 0 {
		return &PolicyError{Errors: errors}
	}

	return nil
}

// hasRepeatedRun reports whether s contains n or more identical consecutive runes
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range []rune(s) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
