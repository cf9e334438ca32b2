package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventLogin               = "login"
	EventAdminLogin          = "admin_login"
	EventRegistrationOTPSent = "registration_otp_sent"
	EventRegistrationDone    = "registration_confirmed"
	EventResetOTPSent        = "reset_otp_sent"
	EventPasswordReset       = "password_reset"
	EventPasswordChange      = "password_change"
	EventAccountLocked       = "account_locked"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
}

// AuditLogger writes security events as structured log records tagged with
// audit_type so they can be filtered out of the general request log.
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, now: time.Now}
}

// LogAuthAttempt records a login, OTP or reset outcome
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogAccountAction records an administrative change to a principal
func (al *AuditLogger) LogAccountAction(ctx context.Context, action, actorID, targetID string) {
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_type", "account"),
		slog.String("event_type", action),
		slog.String("actor_id", actorID),
		slog.String("user_id", targetID),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	)
}
