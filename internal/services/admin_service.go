package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/storefront/internal/models"
	pkgauth "github.com/BradenHooton/storefront/pkg/auth"
	pkglogger "github.com/BradenHooton/storefront/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminUserRepository is the Record Store surface used by account administration
type AdminUserRepository interface {
	List(ctx context.Context, limit, offset int) ([]*models.PublicUser, error)
	Count(ctx context.Context) (int64, error)
	SetActive(ctx context.Context, id string, active bool) (*models.PublicUser, error)
	SetRole(ctx context.Context, id, role string) (*models.PublicUser, error)
	SetVerified(ctx context.Context, id string) (*models.PublicUser, error)
	Delete(ctx context.Context, id string) error
	FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.PublicUser, error)
}

// AdminService manages other principals' standing and role
type AdminService struct {
	repo        AdminUserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAdminService(repo AdminUserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AdminService {
	return &AdminService{repo: repo, logger: logger, auditLogger: auditLogger}
}

// UserListResponse is one page of principals
type UserListResponse struct {
	Users  []*models.PublicUser `json:"users"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) (*UserListResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, storeFailure(s.logger, "failed to list users", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, "failed to count users", err)
	}

	return &UserListResponse{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// Ban deactivates a principal. Their existing tokens stop working on the next
// request because every request re-reads standing.
func (s *AdminService) Ban(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	if actorID == targetID {
		return nil, models.ErrSelfModification
	}
	return s.apply(ctx, "ban", actorID, targetID, func() (*models.PublicUser, error) {
		return s.repo.SetActive(ctx, targetID, false)
	})
}

func (s *AdminService) Unban(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	return s.apply(ctx, "unban", actorID, targetID, func() (*models.PublicUser, error) {
		return s.repo.SetActive(ctx, targetID, true)
	})
}

func (s *AdminService) Promote(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	return s.SetRole(ctx, actorID, targetID, models.RoleAdmin)
}

func (s *AdminService) Demote(ctx context.Context, actorID, targetID string) (*models.PublicUser, error) {
	return s.SetRole(ctx, actorID, targetID, models.RoleUser)
}

// SetRole assigns role to the target. An admin may not remove their own admin role.
func (s *AdminService) SetRole(ctx context.Context, actorID, targetID, role string) (*models.PublicUser, error) {
	if !models.ValidRole(role) {
		return nil, models.ErrInvalidRole
	}
	if actorID == targetID && role != models.RoleAdmin {
		return nil, models.ErrSelfModification
	}
	return s.apply(ctx, "set_role_"+role, actorID, targetID, func() (*models.PublicUser, error) {
		return s.repo.SetRole(ctx, targetID, role)
	})
}

func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return models.ErrSelfModification
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return storeFailure(s.logger, "failed to delete user", err, slog.String("user_id", targetID))
	}
	s.auditLogger.LogAccountAction(ctx, "delete", actorID, targetID)
	return nil
}

func (s *AdminService) apply(ctx context.Context, action, actorID, targetID string, fn func() (*models.PublicUser, error)) (*models.PublicUser, error) {
	user, err := fn()
	if err != nil {
		return nil, storeFailure(s.logger, "failed to "+strings.ReplaceAll(action, "_", " "), err, slog.String("user_id", targetID))
	}
	s.auditLogger.LogAccountAction(ctx, action, actorID, targetID)
	return user, nil
}

// AdminSeed describes the bootstrap administrator created at startup
type AdminSeed struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// SeedAdmin creates the bootstrap administrator, or re-asserts admin role,
// verification and active standing if the account already exists. The
// password of an existing account is never changed.
func (s *AdminService) SeedAdmin(ctx context.Context, seed AdminSeed) (*models.PublicUser, error) {
	email := models.NormalizeEmail(seed.Email)
	if email == "" || seed.Password == "" {
		return nil, &models.ValidationError{Errors: []string{"admin email and password are required"}}
	}

	existing, err := s.repo.FindCredentialsByEmail(ctx, email)
	switch {
	case err == nil:
		return s.reassertAdmin(ctx, existing)
	case !errors.Is(err, models.ErrNotFound):
		return nil, storeFailure(s.logger, "failed to look up admin", err)
	}

	if err := validateNewPassword(seed.Password); err != nil {
		return nil, err
	}
	hash, err := pkgauth.HashPassword(seed.Password)
	if err != nil {
		s.logger.Error("failed to hash admin password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	admin, err := s.repo.Create(ctx, &models.User{
		PublicUser: models.PublicUser{
			Name:       seed.Name,
			Email:      email,
			Phone:      seed.Phone,
			Role:       models.RoleAdmin,
			Active:     true,
			IsVerified: true,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return nil, storeFailure(s.logger, "failed to create admin", err)
	}

	s.logger.Info("admin account created", slog.String("user_id", admin.ID))
	return admin, nil
}

func (s *AdminService) reassertAdmin(ctx context.Context, user *models.User) (*models.PublicUser, error) {
	current := user.Public()
	var err error

	if current.Role != models.RoleAdmin {
		if current, err = s.repo.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return nil, storeFailure(s.logger, "failed to restore admin role", err)
		}
	}
	if !current.IsVerified {
		if current, err = s.repo.SetVerified(ctx, user.ID); err != nil {
			return nil, storeFailure(s.logger, "failed to verify admin", err)
		}
	}
	if !current.Active {
		if current, err = s.repo.SetActive(ctx, user.ID, true); err != nil {
			return nil, storeFailure(s.logger, "failed to reactivate admin", err)
		}
	}

	s.logger.Info("admin account verified", slog.String("user_id", user.ID))
	return current, nil
}
