package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/storefront/internal/auth"
	"github.com/BradenHooton/storefront/internal/models"
	"github.com/BradenHooton/storefront/internal/services"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithPrincipal attaches a resolved principal to the request the way the
// Authenticate middleware does
func WithPrincipal(req *http.Request, id, role string) *http.Request {
	principal := &models.PublicUser{ID: id, Email: id + "@example.com", Role: role, Active: true, IsVerified: true}
	return req.WithContext(auth.WithPrincipal(req.Context(), principal))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response and returns it
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error)
	AdminLoginFunc     func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error)
	CurrentUserFunc    func(ctx context.Context, id string) (*models.PublicUser, error)
	UpdateProfileFunc  func(ctx context.Context, id, name, phone string) (*models.PublicUser, error)
	ChangePasswordFunc func(ctx context.Context, id, currentPassword, newPassword, ipAddress string) error
	LoginHistoryFunc   func(ctx context.Context, id string) ([]models.LoginAttempt, error)
}

func (m *MockAuthService) Login(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, in)
}

func (m *MockAuthService) AdminLogin(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
	if m.AdminLoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.AdminLoginFunc(ctx, in)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, id string) (*models.PublicUser, error) {
	if m.CurrentUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.CurrentUserFunc(ctx, id)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, id, name, phone string) (*models.PublicUser, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, id, name, phone)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword, ipAddress string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, id, currentPassword, newPassword, ipAddress)
}

func (m *MockAuthService) LoginHistory(ctx context.Context, id string) ([]models.LoginAttempt, error) {
	if m.LoginHistoryFunc == nil {
		return []models.LoginAttempt{}, nil
	}
	return m.LoginHistoryFunc(ctx, id)
}

// MockRegistrationService implements RegistrationServiceInterface for testing
type MockRegistrationService struct {
	RequestOTPFunc func(ctx context.Context, in services.RegistrationInput) error
	ConfirmOTPFunc func(ctx context.Context, email, code string) (*models.PublicUser, error)
}

func (m *MockRegistrationService) RequestOTP(ctx context.Context, in services.RegistrationInput) error {
	if m.RequestOTPFunc == nil {
		return nil
	}
	return m.RequestOTPFunc(ctx, in)
}

func (m *MockRegistrationService) ConfirmOTP(ctx context.Context, email, code string) (*models.PublicUser, error) {
	if m.ConfirmOTPFunc == nil {
		return nil, models.ErrInvalidOTP
	}
	return m.ConfirmOTPFunc(ctx, email, code)
}

// MockPasswordResetService implements PasswordResetServiceInterface for testing
type MockPasswordResetService struct {
	RequestOTPFunc func(ctx context.Context, email string) error
	ConfirmOTPFunc func(ctx context.Context, email, code, newPassword string) error
}

func (m *MockPasswordResetService) RequestOTP(ctx context.Context, email string) error {
	if m.RequestOTPFunc == nil {
		return nil
	}
	return m.RequestOTPFunc(ctx, email)
}

func (m *MockPasswordResetService) ConfirmOTP(ctx context.Context, email, code, newPassword string) error {
	if m.ConfirmOTPFunc == nil {
		return models.ErrInvalidOTP
	}
	return m.ConfirmOTPFunc(ctx, email, code, newPassword)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	ListUsersFunc  func(ctx context.Context, limit, offset int) (*services.UserListResponse, error)
	BanFunc        func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	UnbanFunc      func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	PromoteFunc    func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	DemoteFunc     func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	SetRoleFunc    func(ctx context.Context, actorID, targetID, role string) (*models.PublicUser, error)
	DeleteUserFunc func(ctx context.Context, actorID, targetID string) error
}

func (m *MockAdminService) ListUsers(ctx context.Context, limit, offset int) (*services.UserListResponse, error) {
	if m.ListUsersFunc == nil {
		return &services.UserListResponse{Users: []*models.PublicUser{}}, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockAdminService) Ban(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	if m.BanFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.BanFunc(ctx, actorID, targetID)
}

func (m *MockAdminService) Unban(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	if m.UnbanFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UnbanFunc(ctx, actorID, targetID)
}

func (m *MockAdminService) Promote(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	if m.PromoteFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.PromoteFunc(ctx, actorID, targetID)
}

func (m *MockAdminService) Demote(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	if m.DemoteFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.DemoteFunc(ctx, actorID, targetID)
}

func (m *MockAdminService) SetRole(ctx context.Context, actorID, targetID, role string) (*models.PublicUser, error) {
	if m.SetRoleFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.SetRoleFunc(ctx, actorID, targetID, role)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if m.DeleteUserFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteUserFunc(ctx, actorID, targetID)
}

// WithChiRouteContext adds chi URL parameters to request context for testing.
// It lets tests set URL parameters that would normally be extracted by the
// chi router from the URL path.
//
// Example usage:
//
//	req := httptest.NewRequest("PUT", "/api/admin/users/user123/ban", nil)
//	req = WithChiRouteContext(req, map[string]string{
//	    "id": "user123",
//	})
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
