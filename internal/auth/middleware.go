package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/storefront/internal/models"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	principalContextKey contextKey = "principal"
	claimsContextKey    contextKey = "claims"
)

// PrincipalResolver loads the current state of the principal a token names
type PrincipalResolver interface {
	FindByID(ctx context.Context, id string) (*models.PublicUser, error)
}

// Authenticate verifies the bearer token and re-reads the principal from the
// store, so a banned, demoted or deleted account is seen on its next request
// even though its token is still unexpired.
func Authenticate(tm *TokenManager, resolver PrincipalResolver, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tm.VerifyToken(pkghttp.BearerToken(r))
			if err != nil {
				switch {
				case errors.Is(err, models.ErrMissingToken):
					pkghttp.WriteUnauthorized(w, "Authentication required")
				case errors.Is(err, models.ErrTokenExpired):
					pkghttp.WriteUnauthorized(w, "Token expired")
				default:
					pkghttp.WriteUnauthorized(w, "Invalid token")
				}
				return
			}

			principal, err := resolver.FindByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "User not found")
					return
				}
				logger.Error("failed to resolve principal",
					slog.String("user_id", claims.UserID),
					slog.Any("error", err),
				)
				pkghttp.WriteServiceUnavailable(w, "Unable to verify session")
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits only active principals holding role. It must run after
// Authenticate and judges the freshly resolved principal, never the token.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			if principal.Role != role {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}

			if !principal.Active {
				pkghttp.WriteForbidden(w, "Account has been deactivated")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the principal attached by Authenticate, or nil
func PrincipalFromContext(ctx context.Context) *models.PublicUser {
	principal, _ := ctx.Value(principalContextKey).(*models.PublicUser)
	return principal
}

// ClaimsFromContext returns the verified token claims, or nil
func ClaimsFromContext(ctx context.Context) *models.TokenClaims {
	claims, _ := ctx.Value(claimsContextKey).(*models.TokenClaims)
	return claims
}

// WithPrincipal attaches a principal to ctx the way Authenticate does.
// Handler tests use it to skip token plumbing.
func WithPrincipal(ctx context.Context, principal *models.PublicUser) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
