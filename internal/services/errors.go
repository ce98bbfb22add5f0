package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/dump-practice-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Dump specific errors
	ErrDumpNotFound     = errors.New("dump not found")
	ErrDumpAccessDenied = errors.New("access denied to dump")

	// Quiz session errors
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrSessionBusy     = errors.New("quiz session is being modified by another request")

	// History errors
	ErrHistoryNotFound     = errors.New("attempt history not found")
	ErrHistoryAccessDenied = errors.New("access denied to attempt history")

	// Group errors
	ErrGroupNotFound     = errors.New("group not found")
	ErrGroupAccessDenied = errors.New("access denied to group")
	ErrMemberNotFound    = errors.New("group member not found")

	// Category errors
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryDuplicateName = errors.New("category name already exists")

	// User/Permission errors
	ErrUserNotFound            = errors.New("user not found")
	ErrUserInactive            = errors.New("user account is disabled")
	ErrUsernameTaken           = errors.New("username already exists")
	ErrEmailTaken              = errors.New("email already exists")
	ErrInvalidCredentials      = errors.New("invalid username or password")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrSelfModification        = errors.New("administrators cannot change their own account this way")
	ErrLocalAuthDisabled       = errors.New("local accounts are disabled for this deployment")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrForbidden
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID interface{}, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: fmt.Sprint(resourceID),
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDumpNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrHistoryNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUserInactive)
}

// IsForbidden checks if error represents a permission failure
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrDumpAccessDenied) ||
		errors.Is(err, ErrHistoryAccessDenied) ||
		errors.Is(err, ErrGroupAccessDenied) ||
		errors.Is(err, ErrInsufficientPermissions) ||
		errors.Is(err, ErrSelfModification) ||
		errors.Is(err, ErrLocalAuthDisabled)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidationFailed) || apperrors.IsValidationError(err)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionBusy) ||
		errors.Is(err, ErrCategoryDuplicateName) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrEmailTaken)
}
