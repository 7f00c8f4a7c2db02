// Package validation wraps go-playground/validator with the conventions
// shared by the project and task domains: JSON field names in messages and a
// nonblank rule that rejects whitespace-only strings.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is the sentinel every FieldError unwraps to.
var ErrInvalidInput = errors.New("invalid input")

// FieldError reports the first field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// Required builds the error for a missing required field.
func Required(field string) *FieldError {
	return &FieldError{Field: field, Message: field + " is required"}
}

// Invalid builds a free-form field error.
func Invalid(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		instance = v
	})
	return instance
}

// Struct validates v and converts the first failure into a *FieldError.
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating %T: %w", v, err)
	}

	fe := verrs[0]
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required", "nonblank":
		return Required(field)
	case "oneof":
		return Invalid(field, "%s must be one of %s", field, fe.Param())
	default:
		return Invalid(field, "%s is invalid", field)
	}
}

// fieldPath trims the top-level struct name from the namespace so nested
// checklist fields read as "checklistItems[0].title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
