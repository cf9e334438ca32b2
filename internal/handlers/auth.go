package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/storefront/internal/auth"
	"github.com/BradenHooton/storefront/internal/models"
	"github.com/BradenHooton/storefront/internal/services"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
)

// AuthServiceInterface defines the interface for credential and session logic
type AuthServiceInterface interface {
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error)
	AdminLogin(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error)
	CurrentUser(ctx context.Context, id string) (*models.PublicUser, error)
	UpdateProfile(ctx context.Context, id, name, phone string) (*models.PublicUser, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword, ipAddress string) error
	LoginHistory(ctx context.Context, id string) ([]models.LoginAttempt, error)
}

// AuthHandler handles login and session-holder HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// LoginRequest represents the request body for user and admin login
type LoginRequest struct {
	Email    string `json:"email" label:"Email" validate:"required"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// UpdateProfileRequest represents the request body for a profile update
type UpdateProfileRequest struct {
	Name  string `json:"name" label:"Name" validate:"omitempty,max=100"`
	Phone string `json:"phone" label:"Phone" validate:"omitempty,max=30"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" label:"Current password" validate:"required"`
	NewPassword     string `json:"newPassword" label:"New password" validate:"required"`
}

// Response DTOs

// UserSummary is the principal summary returned with a session token
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// LoginResponse carries a freshly issued session token
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserSummary `json:"user"`
}

// LoginHistoryResponse lists the most recent login attempts, newest first
type LoginHistoryResponse struct {
	LoginHistory []models.LoginAttempt `json:"loginHistory"`
}

func toLoginResponse(resp *services.AuthResponse) LoginResponse {
	return LoginResponse{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		User: UserSummary{
			ID:    resp.User.ID,
			Name:  resp.User.Name,
			Email: resp.User.Email,
			Phone: resp.User.Phone,
			Role:  resp.User.Role,
		},
	}
}

func (h *AuthHandler) loginInput(r *http.Request, req LoginRequest) services.LoginInput {
	return services.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: pkghttp.UserAgent(r),
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), h.loginInput(r, req))
	if err != nil {
		// Unknown email and wrong password are indistinguishable to the caller
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidCredentials) {
			pkghttp.WriteBadRequest(w, "Invalid email or password")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toLoginResponse(resp))
}

// AdminLogin handles POST /api/admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.AdminLogin(r.Context(), h.loginInput(r, req))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		case errors.Is(err, models.ErrAccountDeactivated):
			pkghttp.WriteForbidden(w, "Account is inactive.")
		default:
			writeServiceError(w, err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toLoginResponse(resp))
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal.ID, req.Name, req.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword,
		pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			pkghttp.WriteBadRequest(w, "Current password is incorrect")
			return
		}
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password updated successfully", nil)
}

// LoginHistory handles GET /api/auth/login-history
func (h *AuthHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	history, err := h.service.LoginHistory(r.Context(), principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LoginHistoryResponse{LoginHistory: history})
}
