package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/storefront/internal/models"
	pkgauth "github.com/BradenHooton/storefront/pkg/auth"
	pkglogger "github.com/BradenHooton/storefront/pkg/logger"
)

// PasswordResetRepository is the Record Store surface used by password reset
type PasswordResetRepository interface {
	FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	IncrementResetOTPAttempts(ctx context.Context, id string) (int, error)
	ClearResetOTP(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// PasswordResetService issues and redeems emailed password reset codes
type PasswordResetService struct {
	repo        PasswordResetRepository
	mailer      Mailer
	otpTTL      time.Duration
	maxAttempts int
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewPasswordResetService(repo PasswordResetRepository, mailer Mailer, otpTTL time.Duration, maxAttempts int, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *PasswordResetService {
	return &PasswordResetService{
		repo:        repo,
		mailer:      mailer,
		otpTTL:      otpTTL,
		maxAttempts: maxAttempts,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// RequestOTP emails a reset code to a known account. The code is stored only
// after the relay accepts the message, so a failed send leaves no dead code.
func (s *PasswordResetService) RequestOTP(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return &models.ValidationError{Errors: []string{"Email is required"}}
	}

	user, err := s.repo.FindCredentialsByEmail(ctx, email)
	if err != nil {
		return storeFailure(s.logger, "failed to load account for reset", err)
	}

	code, err := GenerateOTP()
	if err != nil {
		s.logger.Error("failed to generate reset code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.mailer.Send(ctx, email, renderOTPEmail(OTPPurposePasswordReset, code, s.otpTTL)); err != nil {
		s.logger.Error("failed to deliver reset code",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrDependency
	}

	if err := s.repo.SetResetOTP(ctx, user.ID, code, s.now().Add(s.otpTTL)); err != nil {
		return storeFailure(s.logger, "failed to store reset code", err, slog.String("user_id", user.ID))
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventResetOTPSent,
		UserID:    user.ID,
		Success:   true,
	})
	return nil
}

// ConfirmOTP sets a new password when code matches the outstanding reset
// code. Each wrong code counts against the code; once maxAttempts is reached
// the code is discarded and a new one must be requested.
func (s *PasswordResetService) ConfirmOTP(ctx context.Context, email, code, newPassword string) error {
	if err := validateNewPassword(newPassword); err != nil {
		return err
	}

	email = models.NormalizeEmail(email)
	event := pkglogger.AuditEvent{EventType: pkglogger.EventPasswordReset, Email: email}

	user, err := s.repo.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			event.FailureReason = "unknown_account"
			s.auditLogger.LogAuthAttempt(ctx, event)
			return models.ErrInvalidOTP
		}
		return storeFailure(s.logger, "failed to load account for reset", err)
	}
	event.UserID = user.ID

	if user.ResetOTP == "" || user.ResetOTPExpiresAt == nil || !s.now().Before(*user.ResetOTPExpiresAt) {
		event.FailureReason = "expired_otp"
		s.auditLogger.LogAuthAttempt(ctx, event)
		return models.ErrInvalidOTP
	}

	if !otpMatches(user.ResetOTP, strings.TrimSpace(code)) {
		s.countWrongCode(ctx, user.ID)
		event.FailureReason = "invalid_otp"
		s.auditLogger.LogAuthAttempt(ctx, event)
		return models.ErrInvalidOTP
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return storeFailure(s.logger, "failed to update password", err, slog.String("user_id", user.ID))
	}

	event.Success = true
	s.auditLogger.LogAuthAttempt(ctx, event)
	return nil
}

func (s *PasswordResetService) countWrongCode(ctx context.Context, userID string) {
	attempts, err := s.repo.IncrementResetOTPAttempts(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count reset attempt", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if attempts < s.maxAttempts {
		return
	}
	if err := s.repo.ClearResetOTP(ctx, userID); err != nil {
		s.logger.Error("failed to discard exhausted reset code", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	s.logger.Warn("reset code discarded after too many attempts", slog.String("user_id", userID))
}
