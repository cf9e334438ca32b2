package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/storefront/internal/models"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
)

// PasswordResetServiceInterface defines the interface for emailed-code password reset
type PasswordResetServiceInterface interface {
	RequestOTP(ctx context.Context, email string) error
	ConfirmOTP(ctx context.Context, email, code, newPassword string) error
}

// PasswordResetHandler handles forgotten-password requests
type PasswordResetHandler struct {
	service PasswordResetServiceInterface
}

// NewPasswordResetHandler creates a new PasswordResetHandler
func NewPasswordResetHandler(service PasswordResetServiceInterface) *PasswordResetHandler {
	return &PasswordResetHandler{service: service}
}

// SendResetOTPRequest represents the request body for requesting a reset code
type SendResetOTPRequest struct {
	Email string `json:"email" label:"Email" validate:"required"`
}

// ResetPasswordRequest represents the request body for redeeming a reset code
type ResetPasswordRequest struct {
	Email       string `json:"email" label:"Email" validate:"required"`
	OTP         string `json:"otp" label:"OTP" validate:"required"`
	NewPassword string `json:"newPassword" label:"New password" validate:"required"`
}

// SendOTP handles POST /api/auth/send-otp
func (h *PasswordResetHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendResetOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RequestOTP(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found with this email")
		case errors.Is(err, models.ErrDependency):
			pkghttp.WriteInternalError(w, "Failed to send OTP. Please try again later.")
		default:
			writeServiceError(w, err)
		}
		return
	}

	writeMessage(w, http.StatusOK, "OTP sent", nil)
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *PasswordResetHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ConfirmOTP(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password successfully reset", nil)
}
