package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/storefront/internal/models"
	"github.com/BradenHooton/storefront/internal/services"
)

// RegistrationServiceInterface defines the interface for emailed-code sign-up
type RegistrationServiceInterface interface {
	RequestOTP(ctx context.Context, in services.RegistrationInput) error
	ConfirmOTP(ctx context.Context, email, code string) (*models.PublicUser, error)
}

// RegistrationHandler handles the two-step sign-up
type RegistrationHandler struct {
	service RegistrationServiceInterface
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(service RegistrationServiceInterface) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// RegisterRequest represents the request body for starting a sign-up.
// The password policy is applied by the service so every failed rule is
// reported together.
type RegisterRequest struct {
	Name     string `json:"name" label:"Name" validate:"required,max=100"`
	Email    string `json:"email" label:"Email" validate:"required,email"`
	Phone    string `json:"phone" label:"Phone" validate:"required,max=30"`
	Password string `json:"password" label:"Password" validate:"required"`
}

func (r *RegisterRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

// VerifyRegistrationRequest represents the request body for confirming a sign-up
type VerifyRegistrationRequest struct {
	Email string `json:"email" label:"Email" validate:"required"`
	OTP   string `json:"otp" label:"OTP" validate:"required"`
}

// SendOTP handles POST /api/auth/register/send-otp
func (h *RegistrationHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.RequestOTP(r.Context(), services.RegistrationInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "OTP sent to your email. Please verify to complete registration.", nil)
}

// VerifyOTP handles POST /api/auth/register/verify-otp
func (h *RegistrationHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyRegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.ConfirmOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Registration complete! You can now log in.", user)
}
