package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	pkghttp "github.com/BradenHooton/storefront/pkg/http"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// normalizer is implemented by request DTOs that clean their input before
// validation
type normalizer interface {
	normalize()
}

// Global validator instance (reused across all handlers)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under a human label rather than the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return v
}

// ValidateRequest validates a request struct and returns one message per
// failed rule, in field order. A nil result means the request is valid.
func ValidateRequest(req interface{}) []string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"Invalid request"}
	}

	messages := make([]string, 0, len(ve))
	for _, fe := range ve {
		messages = append(messages, formatValidationError(fe))
	}
	return messages
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return field + " must contain only digits"
	case "min":
		return fmt.Sprintf("%s must have a minimum of %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have a maximum of %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// decodeJSON reads a size-limited JSON body into dst and validates it. On
// failure it writes the 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if errs := ValidateRequest(dst); len(errs) > 0 {
		pkghttp.WriteValidationErrors(w, "Validation failed", errs)
		return false
	}
	return true
}
