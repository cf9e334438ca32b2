package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/storefront/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	// IPConfig decides which forwarding headers are trusted when keying by
	// client IP. Nil keys by the connection's remote address.
	IPConfig *pkghttp.IPConfig
}

// DefaultAuthRateLimit returns the default limit for the public auth endpoints
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 10}
}

// RateLimitByIP throttles requests per client IP. It guards the
// unauthenticated login, registration and reset endpoints against
// credential stuffing and OTP guessing.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	limit := config.RequestsPerMinute
	if limit <= 0 {
		limit = DefaultAuthRateLimit().RequestsPerMinute
	}

	return httprate.Limit(
		limit,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, config.IPConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Too many requests. Please try again later.")
		}),
	)
}
