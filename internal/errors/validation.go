package errors

import (
	stderrors "errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

func (pe *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", pe.Field, pe.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewValidationErrorWithRule creates a new validation error with rule
func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    rule,
	}
}

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	var validatorErr validator.ValidationErrors
	if stderrors.As(err, &validatorErr) {
		for _, err := range validatorErr {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// customMessages covers the tags registered by internal/validator
var customMessages = map[string]string{
	"question_type":    "must be a valid question type (multiple_choice_single, multiple_choice_multiple, true_false, short_answer, html_field)",
	"share_permission": "must be read or edit",
	"user_role":        "must be a valid user role (user, admin)",
	"merge_policy":     "must be one of: detect, skip, replace, merge",
	"option_key":       "must be one of the option keys A, B, C, D",
}

// getErrorMessage returns user-friendly error messages
func getErrorMessage(err validator.FieldError) string {
	if msg, ok := customMessages[err.Tag()]; ok {
		return msg
	}

	switch err.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", err.Param())
	case "min":
		return fmt.Sprintf("must be at least %s%s", err.Param(), unitOf(err.Kind()))
	case "max":
		return fmt.Sprintf("must be at most %s%s", err.Param(), unitOf(err.Kind()))
	case "email":
		return "must be a valid email address"
	case "alphanum":
		return "must contain only letters and numbers"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}

func unitOf(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		return " items"
	default:
		return ""
	}
}

// IsValidationError reports whether err carries any of the validation error shapes.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var single *ValidationError
	var many ValidationErrors
	var tagged validator.ValidationErrors
	return stderrors.As(err, &single) || stderrors.As(err, &many) || stderrors.As(err, &tagged)
}
