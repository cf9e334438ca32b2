package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/storefront/internal/handlers"
	"github.com/BradenHooton/storefront/internal/models"
	"github.com/BradenHooton/storefront/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRequest(t *testing.T, method, url string, body interface{}, targetID string) *http.Request {
	req := handlers.NewTestRequest(t, method, url, body)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": targetID})
	return handlers.WithPrincipal(req, "admin-1", models.RoleAdmin)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	t.Run("passes paging through", func(t *testing.T) {
		var gotLimit, gotOffset int
		handler := handlers.NewAdminHandler(&handlers.MockAdminService{
			ListUsersFunc: func(ctx context.Context, limit, offset int) (*services.UserListResponse, error) {
				gotLimit, gotOffset = limit, offset
				user := &models.PublicUser{ID: "u1", Email: "a@b.com"}
				user.SetActive(false)
				return &services.UserListResponse{Users: []*models.PublicUser{user}, Total: 1, Limit: limit, Offset: offset}, nil
			},
		})

		req := handlers.WithPrincipal(httptest.NewRequest("GET", "/api/admin/users?limit=5&offset=10", nil), "admin-1", models.RoleAdmin)
		w := httptest.NewRecorder()
		handler.ListUsers(w, req)

		var resp services.UserListResponse
		handlers.AssertJSONResponse(t, w, 200, &resp)
		assert.Equal(t, 5, gotLimit)
		assert.Equal(t, 10, gotOffset)
		require.Len(t, resp.Users, 1)
		assert.True(t, resp.Users[0].IsBanned)
		assert.Contains(t, w.Body.String(), `"isBanned":true`)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		handler := handlers.NewAdminHandler(&handlers.MockAdminService{})

		req := handlers.WithPrincipal(httptest.NewRequest("GET", "/api/admin/users?limit=abc", nil), "admin-1", models.RoleAdmin)
		w := httptest.NewRecorder()
		handler.ListUsers(w, req)

		handlers.AssertErrorResponse(t, w, 400, "bad_request")
	})
}

func TestAdminHandler_StandingAndRole(t *testing.T) {
	updated := func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
		return &models.PublicUser{ID: targetID}, nil
	}
	mock := &handlers.MockAdminService{
		BanFunc:     updated,
		UnbanFunc:   updated,
		PromoteFunc: updated,
		DemoteFunc:  updated,
	}
	handler := handlers.NewAdminHandler(mock)

	tests := []struct {
		name    string
		handle  http.HandlerFunc
		wantMsg string
	}{
		{"ban", handler.Ban, "User banned"},
		{"unban", handler.Unban, "User unbanned"},
		{"promote", handler.Promote, "User promoted to admin"},
		{"demote", handler.Demote, "User demoted to user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handle(w, adminRequest(t, "PUT", "/api/admin/users/u2/"+tt.name, nil, "u2"))

			var resp handlers.MessageResponse
			handlers.AssertJSONResponse(t, w, 200, &resp)
			assert.Equal(t, tt.wantMsg, resp.Message)
			require.NotNil(t, resp.User)
			assert.Equal(t, "u2", resp.User.ID)
		})
	}
}

func TestAdminHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown target", models.ErrNotFound, 404},
		{"self modification", models.ErrSelfModification, 400},
		{"store down", models.ErrDependency, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewAdminHandler(&handlers.MockAdminService{
				BanFunc: func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
					return nil, tt.err
				},
			})

			w := httptest.NewRecorder()
			handler.Ban(w, adminRequest(t, "PUT", "/api/admin/users/u2/ban", nil, "u2"))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAdminHandler_SetRole(t *testing.T) {
	t.Run("valid role", func(t *testing.T) {
		var gotRole, gotActor string
		handler := handlers.NewAdminHandler(&handlers.MockAdminService{
			SetRoleFunc: func(ctx context.Context, actorID, targetID, role string) (*models.PublicUser, error) {
				gotActor, gotRole = actorID, role
				return &models.PublicUser{ID: targetID, Role: role}, nil
			},
		})

		w := httptest.NewRecorder()
		handler.SetRole(w, adminRequest(t, "PUT", "/api/admin/users/u2/role", handlers.SetRoleRequest{Role: "admin"}, "u2"))

		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "admin", gotRole)
		assert.Equal(t, "admin-1", gotActor)
	})

	t.Run("invalid role", func(t *testing.T) {
		handler := handlers.NewAdminHandler(&handlers.MockAdminService{
			SetRoleFunc: func(ctx context.Context, actorID, targetID, role string) (*models.PublicUser, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		})

		w := httptest.NewRecorder()
		handler.SetRole(w, adminRequest(t, "PUT", "/api/admin/users/u2/role", handlers.SetRoleRequest{Role: "superuser"}, "u2"))

		resp := handlers.AssertErrorResponse(t, w, 400, "validation_failed")
		assert.Equal(t, []string{"Role must be one of: user, admin"}, resp.Errors)
	})
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	var deleted string
	handler := handlers.NewAdminHandler(&handlers.MockAdminService{
		DeleteUserFunc: func(ctx context.Context, actorID, targetID string) error {
			deleted = targetID
			return nil
		},
	})

	w := httptest.NewRecorder()
	handler.DeleteUser(w, adminRequest(t, "DELETE", "/api/admin/users/u2", nil, "u2"))

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "User deleted", resp.Message)
	assert.Equal(t, "u2", deleted)
}
