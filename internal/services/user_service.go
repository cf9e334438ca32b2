package services

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/storefront/internal/models"
	pkgauth "github.com/BradenHooton/storefront/pkg/auth"
)

// storeFailure passes domain sentinels through and turns anything else into
// ErrDependency after logging the cause.
func storeFailure(logger *slog.Logger, msg string, err error, attrs ...any) error {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrBadRequest):
		return err
	}
	logger.Error(msg, append(attrs, slog.Any("error", err))...)
	return models.ErrDependency
}

// validateNewPassword applies the password policy and reports every failed
// rule as a ValidationError
func validateNewPassword(password string) error {
	if err := pkgauth.ValidatePassword(password); err != nil {
		var policyErr *pkgauth.PolicyError
		if errors.As(err, &policyErr) {
			return &models.ValidationError{Errors: policyErr.Errors}
		}
		return &models.ValidationError{Errors: []string{err.Error()}}
	}
	return nil
}

// requireFields returns a message for every blank field, in the order given
func requireFields(fields ...[2]string) []string {
	var errs []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			errs = append(errs, f[0]+" is required")
		}
	}
	return errs
}
