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

// PendingRegistrationStore holds unconfirmed sign-ups until their code expires
type PendingRegistrationStore interface {
	Save(ctx context.Context, p *models.PendingRegistration, ttl time.Duration) error
	Get(ctx context.Context, email string) (*models.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
}

// RegistrationUserRepository is the Record Store surface used by sign-up
type RegistrationUserRepository interface {
	FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.PublicUser, error)
}

// RegistrationService runs the two-step emailed-code sign-up. Nothing is
// written to the Record Store until the code is confirmed.
type RegistrationService struct {
	repo        RegistrationUserRepository
	pending     PendingRegistrationStore
	mailer      Mailer
	otpTTL      time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewRegistrationService(repo RegistrationUserRepository, pending PendingRegistrationStore, mailer Mailer, otpTTL time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *RegistrationService {
	return &RegistrationService{
		repo:        repo,
		pending:     pending,
		mailer:      mailer,
		otpTTL:      otpTTL,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// RegistrationInput is a submitted sign-up form
type RegistrationInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// RequestOTP validates the sign-up, emails a confirmation code and parks the
// sign-up in the pending store. A repeat request replaces the earlier code.
func (s *RegistrationService) RequestOTP(ctx context.Context, in RegistrationInput) error {
	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	errs := requireFields(
		[2]string{"Name", name},
		[2]string{"Email", email},
		[2]string{"Phone", phone},
		[2]string{"Password", in.Password},
	)
	if in.Password != "" {
		var policyErr *models.ValidationError
		if err := validateNewPassword(in.Password); errors.As(err, &policyErr) {
			errs = append(errs, policyErr.Errors...)
		}
	}
	if len(errs) > 0 {
		return &models.ValidationError{Errors: errs}
	}

	if _, err := s.repo.FindCredentialsByEmail(ctx, email); err == nil {
		return models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		return storeFailure(s.logger, "failed to check existing account", err)
	}

	hash, err := pkgauth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	code, err := GenerateOTP()
	if err != nil {
		s.logger.Error("failed to generate registration code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.mailer.Send(ctx, email, renderOTPEmail(OTPPurposeRegistration, code, s.otpTTL)); err != nil {
		s.logger.Error("failed to deliver registration code",
			slog.String("email", pkglogger.SanitizedEmail(email)), slog.Any("error", err))
		return models.ErrDependency
	}

	now := s.now()
	pending := &models.PendingRegistration{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		OTP:          code,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.otpTTL),
	}
	if err := s.pending.Save(ctx, pending, s.otpTTL); err != nil {
		s.logger.Error("failed to store pending registration", slog.Any("error", err))
		return models.ErrDependency
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventRegistrationOTPSent,
		Email:     email,
		Success:   true,
	})
	return nil
}

// ConfirmOTP creates the verified principal when code matches an unexpired
// pending sign-up. A wrong or late code leaves the pending sign-up untouched.
func (s *RegistrationService) ConfirmOTP(ctx context.Context, email, code string) (*models.PublicUser, error) {
	email = models.NormalizeEmail(email)
	event := pkglogger.AuditEvent{EventType: pkglogger.EventRegistrationDone, Email: email}

	pending, err := s.pending.Get(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			event.FailureReason = "no_pending_registration"
			s.auditLogger.LogAuthAttempt(ctx, event)
			return nil, models.ErrInvalidOTP
		}
		s.logger.Error("failed to load pending registration", slog.Any("error", err))
		return nil, models.ErrDependency
	}

	if pending.IsExpired(s.now()) || !otpMatches(pending.OTP, strings.TrimSpace(code)) {
		event.FailureReason = "invalid_otp"
		s.auditLogger.LogAuthAttempt(ctx, event)
		return nil, models.ErrInvalidOTP
	}

	user, err := s.repo.Create(ctx, &models.User{
		PublicUser: models.PublicUser{
			Name:       pending.Name,
			Email:      pending.Email,
			Phone:      pending.Phone,
			Role:       models.RoleUser,
			Active:     true,
			IsVerified: true,
		},
		PasswordHash: pending.PasswordHash,
	})
	if err != nil {
		return nil, storeFailure(s.logger, "failed to create user", err)
	}

	if err := s.pending.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to discard pending registration", slog.Any("error", err))
	}

	event.UserID = user.ID
	event.Success = true
	s.auditLogger.LogAuthAttempt(ctx, event)
	s.logger.Info("user registered", slog.String("user_id", user.ID))

	return user, nil
}
