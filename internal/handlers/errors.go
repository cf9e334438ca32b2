package handlers

import (
	"errors"
	"net/http"

	"github.com/BradenHooton/storefront/internal/models"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
)

// writeServiceError maps a service error to its status code. Internal causes
// are logged by the services and never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		pkghttp.WriteValidationErrors(w, "Validation failed", validationErr.Errors)

	case errors.Is(err, models.ErrInvalidOTP):
		pkghttp.WriteBadRequest(w, "Invalid or expired OTP")
	case errors.Is(err, models.ErrSelfModification):
		pkghttp.WriteBadRequest(w, "You cannot modify your own account")
	case errors.Is(err, models.ErrInvalidRole):
		pkghttp.WriteBadRequest(w, "Invalid role")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteBadRequest(w, "User already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")

	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")

	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication required")

	case errors.Is(err, models.ErrAccountLocked):
		pkghttp.WriteForbidden(w, "Account is locked due to too many failed login attempts. Please try again later.")
	case errors.Is(err, models.ErrAccountDeactivated):
		pkghttp.WriteForbidden(w, "This account has been deactivated. Please contact support.")
	case errors.Is(err, models.ErrEmailNotVerified):
		pkghttp.WriteForbidden(w, "Please verify your email before logging in.")
	case errors.Is(err, models.ErrNotAdmin):
		pkghttp.WriteForbidden(w, "Access denied. Not an admin.")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient permissions")

	case errors.Is(err, models.ErrDependency):
		pkghttp.WriteInternalError(w, "A required service is unavailable. Please try again later.")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// MessageResponse confirms an operation that returns no resource
type MessageResponse struct {
	Message string             `json:"message"`
	User    *models.PublicUser `json:"user,omitempty"`
}

func writeMessage(w http.ResponseWriter, status int, message string, user *models.PublicUser) {
	pkghttp.WriteJSON(w, status, MessageResponse{Message: message, User: user})
}
