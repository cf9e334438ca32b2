package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/storefront/internal/auth"
	"github.com/BradenHooton/storefront/internal/models"
	pkgauth "github.com/BradenHooton/storefront/pkg/auth"
	pkglogger "github.com/BradenHooton/storefront/pkg/logger"
)

// CredentialRepository is the Record Store surface used by credential
// verification and session-holder operations
type CredentialRepository interface {
	FindByID(ctx context.Context, id string) (*models.PublicUser, error)
	FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error)
	FindCredentialsByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, phone string) (*models.PublicUser, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RecordLoginFailure(ctx context.Context, id string, attempt models.LoginAttempt, policy models.LockoutPolicy) (*models.User, error)
	RecordLoginSuccess(ctx context.Context, id string, attempt models.LoginAttempt) error
	RecordLockedAttempt(ctx context.Context, id string, attempt models.LoginAttempt) error
	ListLoginHistory(ctx context.Context, id string) ([]models.LoginAttempt, error)
}

// AuthService verifies credentials, issues session tokens and serves the
// session holder's own account operations
type AuthService struct {
	repo        CredentialRepository
	tm          *auth.TokenManager
	timing      *auth.TimingDelay
	lockout     models.LockoutPolicy
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewAuthService(repo CredentialRepository, tm *auth.TokenManager, timing *auth.TimingDelay, lockout models.LockoutPolicy, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		timing:      timing,
		lockout:     lockout,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// LoginInput is a submitted credential pair plus request metadata for the audit trail
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// AuthResponse is returned by a successful login
type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *models.PublicUser `json:"user"`
}

// Login runs the ordered standing checks for a storefront login and issues a
// long-lived user token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	return s.authenticate(ctx, in, false)
}

// AdminLogin is Login restricted to principals currently holding the admin
// role. It issues a short-lived admin token.
func (s *AuthService) AdminLogin(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	return s.authenticate(ctx, in, true)
}

func (s *AuthService) authenticate(ctx context.Context, in LoginInput, adminOnly bool) (*AuthResponse, error) {
	start := time.Now()
	event := pkglogger.AuditEvent{
		EventType: pkglogger.EventLogin,
		Email:     models.NormalizeEmail(in.Email),
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
	}
	if adminOnly {
		event.EventType = pkglogger.EventAdminLogin
	}

	if event.Email == "" || in.Password == "" {
		return nil, s.reject(ctx, start, event, "missing_credentials", models.ErrInvalidCredentials)
	}

	user, err := s.repo.FindCredentialsByEmail(ctx, event.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.reject(ctx, start, event, "unknown_account", models.ErrNotFound)
		}
		return nil, storeFailure(s.logger, "failed to load credentials", err)
	}
	event.UserID = user.ID

	if adminOnly && !user.IsAdmin() {
		return nil, s.reject(ctx, start, event, "not_admin", models.ErrNotAdmin)
	}
	if !user.Active {
		return nil, s.reject(ctx, start, event, "deactivated", models.ErrAccountDeactivated)
	}
	if !user.IsVerified {
		return nil, s.reject(ctx, start, event, "unverified", models.ErrEmailNotVerified)
	}

	now := s.now()
	attempt := models.LoginAttempt{Timestamp: now, IPAddress: in.IPAddress, UserAgent: in.UserAgent}

	if s.lockout.IsLocked(user, now) {
		if err := s.repo.RecordLockedAttempt(ctx, user.ID, attempt); err != nil {
			s.logger.Warn("failed to record locked login attempt",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
		return nil, s.reject(ctx, start, event, "locked", models.ErrAccountLocked)
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		updated, recErr := s.repo.RecordLoginFailure(ctx, user.ID, attempt, s.lockout)
		if recErr != nil {
			return nil, storeFailure(s.logger, "failed to record login failure", recErr, slog.String("user_id", user.ID))
		}
		if s.lockout.IsLocked(updated, now) {
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType: pkglogger.EventAccountLocked,
				UserID:    user.ID,
				IPAddress: in.IPAddress,
				Success:   true,
			})
		}
		return nil, s.reject(ctx, start, event, "invalid_password", models.ErrInvalidCredentials)
	}

	attempt.Successful = true
	if err := s.repo.RecordLoginSuccess(ctx, user.ID, attempt); err != nil {
		return nil, storeFailure(s.logger, "failed to record login success", err, slog.String("user_id", user.ID))
	}
	s.lockout.ApplySuccess(user, now)

	issue := s.tm.IssueUserToken
	if adminOnly {
		issue = s.tm.IssueAdminToken
	}
	token, expiresAt, err := issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	event.Success = true
	s.auditLogger.LogAuthAttempt(ctx, event)
	s.logger.Info("user logged in", slog.String("user_id", user.ID), slog.Bool("admin", adminOnly))

	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user.Public()}, nil
}

// reject audits a refused login, pads its response time and returns err
func (s *AuthService) reject(ctx context.Context, start time.Time, event pkglogger.AuditEvent, reason string, err error) error {
	event.Success = false
	event.FailureReason = reason
	s.auditLogger.LogAuthAttempt(ctx, event)
	s.timing.WaitFrom(ctx, start, false)
	return err
}

// CurrentUser returns the stored view of the session holder
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, "failed to load user", err, slog.String("user_id", id))
	}
	return user, nil
}

// UpdateProfile changes the session holder's name and/or phone. A blank field
// keeps its stored value. Email, role and standing are not editable here.
func (s *AuthService) UpdateProfile(ctx context.Context, id, name, phone string) (*models.PublicUser, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" && phone == "" {
		return nil, &models.ValidationError{Errors: []string{"Name or phone is required"}}
	}

	user, err := s.repo.UpdateProfile(ctx, id, name, phone)
	if err != nil {
		return nil, storeFailure(s.logger, "failed to update profile", err, slog.String("user_id", id))
	}
	return user, nil
}

// ChangePassword replaces the session holder's password after re-checking
// the current one
func (s *AuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword, ipAddress string) error {
	if err := validateNewPassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return &models.ValidationError{Errors: []string{"New password must differ from the current password"}}
	}

	user, err := s.repo.FindCredentialsByID(ctx, id)
	if err != nil {
		return storeFailure(s.logger, "failed to load credentials", err, slog.String("user_id", id))
	}

	event := pkglogger.AuditEvent{EventType: pkglogger.EventPasswordChange, UserID: id, IPAddress: ipAddress}
	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		event.FailureReason = "invalid_password"
		s.auditLogger.LogAuthAttempt(ctx, event)
		return models.ErrInvalidCredentials
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return storeFailure(s.logger, "failed to update password", err, slog.String("user_id", id))
	}

	event.Success = true
	s.auditLogger.LogAuthAttempt(ctx, event)
	return nil
}

// LoginHistory returns the session holder's recent login attempts, newest first
func (s *AuthService) LoginHistory(ctx context.Context, id string) ([]models.LoginAttempt, error) {
	history, err := s.repo.ListLoginHistory(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, "failed to load login history", err, slog.String("user_id", id))
	}
	return history, nil
}
