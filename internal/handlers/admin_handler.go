package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BradenHooton/storefront/internal/auth"
	"github.com/BradenHooton/storefront/internal/models"
	"github.com/BradenHooton/storefront/internal/services"
	pkghttp "github.com/BradenHooton/storefront/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AdminServiceInterface defines the account administration contract
type AdminServiceInterface interface {
	ListUsers(ctx context.Context, limit, offset int) (*services.UserListResponse, error)
	Ban(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	Unban(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	Promote(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	Demote(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)
	SetRole(ctx context.Context, actorID, targetID, role string) (*models.PublicUser, error)
	DeleteUser(ctx context.Context, actorID, targetID string) error
}

// AdminHandler handles account administration HTTP requests
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// SetRoleRequest represents the request body for PUT /api/admin/users/{id}/role
type SetRoleRequest struct {
	Role string `json:"role" label:"Role" validate:"required,oneof=user admin"`
}

// RegisterRoutes mounts the user administration routes. The caller applies
// authentication and the admin role check.
func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Put("/{id}/ban", h.Ban)
		r.Put("/{id}/unban", h.Unban)
		r.Put("/{id}/promote", h.Promote)
		r.Put("/{id}/demote", h.Demote)
		r.Put("/{id}/role", h.SetRole)
		r.Delete("/{id}", h.DeleteUser)
	})
}

// ListUsers handles GET /api/admin/users
// Accepts optional query params ?limit=N (default 20, max 100) and ?offset=N.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := 0, 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			pkghttp.WriteBadRequest(w, "Invalid limit")
			return
		}
		limit = n
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			pkghttp.WriteBadRequest(w, "Invalid offset")
			return
		}
		offset = n
	}

	resp, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Ban handles PUT /api/admin/users/{id}/ban
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, "User banned", h.service.Ban)
}

// Unban handles PUT /api/admin/users/{id}/unban
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, "User unbanned", h.service.Unban)
}

// Promote handles PUT /api/admin/users/{id}/promote
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, "User promoted to admin", h.service.Promote)
}

// Demote handles PUT /api/admin/users/{id}/demote
func (h *AdminHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, "User demoted to user", h.service.Demote)
}

// SetRole handles PUT /api/admin/users/{id}/role
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.updateUser(w, r, "Role updated", func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
		return h.service.SetRole(ctx, actorID, targetID, req.Role)
	})
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := adminTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor.ID, targetID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "User deleted", nil)
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request, message string,
	fn func(ctx context.Context, actorID, targetID string) (*models.PublicUser, error)) {
	actor, targetID, ok := adminTarget(w, r)
	if !ok {
		return
	}

	user, err := fn(r.Context(), actor.ID, targetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, message, user)
}

// adminTarget returns the acting principal and the {id} path parameter
func adminTarget(w http.ResponseWriter, r *http.Request) (*models.PublicUser, string, bool) {
	actor := auth.PrincipalFromContext(r.Context())
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return nil, "", false
	}

	targetID := chi.URLParam(r, "id")
	if targetID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return nil, "", false
	}
	return actor, targetID, true
}
