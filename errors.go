package translatable

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrAttributesRequired indicates a declaration with no attribute names.
	ErrAttributesRequired = errors.New("translatable: at least one translated attribute is required")
	// ErrLocaleProviderRequired indicates a declaration without a locale provider.
	ErrLocaleProviderRequired = errors.New("translatable: locale provider is required")
	// ErrDatabaseRequired indicates a store or sync operation without a database.
	ErrDatabaseRequired = errors.New("translatable: database is required")
	// ErrEntityRequired indicates a store operation invoked with a nil entity.
	ErrEntityRequired = errors.New("translatable: entity is required")
	// ErrOverlayRequired indicates a store operation invoked with a nil overlay.
	ErrOverlayRequired = errors.New("translatable: translation overlay is required")
	// ErrParentNotSaved indicates an overlay operation before the parent has an identity.
	ErrParentNotSaved = errors.New("translatable: parent must be saved before its translations")
)

const validationFailedCode = "TRANSLATION_VALIDATION_FAILED"

// ConfigurationError reports declaration or binding misuse: an unknown option
// key, a mistyped option value, or an attribute that is not a declared
// column.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	field := strings.TrimSpace(e.Field)
	if field == "" {
		return "translatable: invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("translatable: invalid configuration for %q: %s", field, e.Reason)
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// NotFoundError describes a missing parent record.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ConstraintViolationError surfaces the storage layer's authoritative
// duplicate-locale detection. It wraps the driver error unchanged; the
// store never retries it.
type ConstraintViolationError struct {
	Table string
	Err   error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("translatable: unique (parent, locale) constraint violated on %s: %v", e.Table, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// IsConstraintViolation reports whether err carries a duplicate-locale
// constraint violation.
func IsConstraintViolation(err error) bool {
	var constraintErr *ConstraintViolationError
	return errors.As(err, &constraintErr)
}

// IsValidationError reports whether err is an overlay validation failure.
func IsValidationError(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "translation overlay validation failed").
		WithTextCode(validationFailedCode)
}

// isUniqueViolation sniffs driver-level unique index violations. Neither the
// sqlite nor the postgres driver exposes a shared typed error through bun, so
// the messages are matched directly.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
