package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/storefront/internal/auth"
	"github.com/BradenHooton/storefront/internal/handlers"
	"github.com/BradenHooton/storefront/internal/middleware"
	"github.com/BradenHooton/storefront/internal/models"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
	"github.com/go-chi/chi/v5"
)

// HealthCheck reports whether a backing store is reachable
type HealthCheck func(ctx context.Context) error

// Dependencies carries everything the route table needs
type Dependencies struct {
	Auth          *handlers.AuthHandler
	Registration  *handlers.RegistrationHandler
	PasswordReset *handlers.PasswordResetHandler
	Admin         *handlers.AdminHandler

	TokenManager *auth.TokenManager
	Principals   auth.PrincipalResolver
	RateLimit    middleware.RateLimitConfig
	Logger       *slog.Logger

	// HealthChecks are probed by GET /health, keyed by component name
	HealthChecks map[string]HealthCheck
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", healthHandler(deps.HealthChecks))

	limited := middleware.RateLimitByIP(deps.RateLimit)
	authenticate := auth.Authenticate(deps.TokenManager, deps.Principals, deps.Logger)

	router.Route("/api/auth", func(r chi.Router) {
		// Public routes - rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/login", deps.Auth.Login)
			r.Post("/register/send-otp", deps.Registration.SendOTP)
			r.Post("/register/verify-otp", deps.Registration.VerifyOTP)
			r.Post("/send-otp", deps.PasswordReset.SendOTP)
			r.Post("/verify-otp", deps.PasswordReset.VerifyOTP)
		})

		// Session routes
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", deps.Auth.Me)
			r.Put("/profile", deps.Auth.UpdateProfile)
			r.Put("/password", deps.Auth.ChangePassword)
			r.Get("/login-history", deps.Auth.LoginHistory)
		})
	})

	router.Route("/api/admin", func(r chi.Router) {
		r.With(limited).Post("/login", deps.Auth.AdminLogin)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(auth.RequireRole(models.RoleAdmin))
			deps.Admin.RegisterRoutes(r)
		})
	})
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "healthy", Components: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Components[name] = "down"
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "up"
		}

		pkghttp.WriteJSON(w, status, resp)
	}
}
