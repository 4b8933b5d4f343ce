package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error reports the first input field that failed validation
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// NewError creates a validation error for a single field
func NewError(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

// IsValidationError reports whether err is or wraps a validation Error
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

// Validator checks struct tags and names fields by their json key
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns nil or an *Error for the first failing field
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &Error{Field: fieldPath(fe.Namespace()), Reason: reason(fe)}
	}
	return &Error{Field: "input", Reason: err.Error()}
}

// fieldPath drops the struct type name from a validator namespace
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters long"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
