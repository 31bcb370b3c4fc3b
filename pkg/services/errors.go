// Package services implements the suggestion lifecycle on top of persistence.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/pressdesk/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInvalidSuggestion      = errors.New("invalid suggestion")
	ErrEmptyReasoning         = errors.New("suggestion reasoning is required")
	ErrInvalidConfidence      = errors.New("confidence score must be between 0 and 1")
	ErrInvalidPriority        = errors.New("priority must be between 1 and 5")
	ErrInvalidRule            = errors.New("invalid workflow rule")
	ErrConditionsRequired     = errors.New("workflow rule must have at least one condition")
	ErrActionsRequired        = errors.New("workflow rule must have at least one action")
	ErrInvalidCondition       = errors.New("invalid rule condition")
	ErrInvalidAction          = errors.New("invalid rule action")
	ErrUntrustedAutoImplement = errors.New("auto_implement requires a trusted rule")
	ErrInvalidAgent           = errors.New("invalid agent")
	ErrInvalidArticle         = errors.New("invalid article")

	// Authentication Errors (401 Unauthorized).
	ErrActorRequired = errors.New("an acting administrator is required")

	// Business Logic Conflicts (409 Conflict).
	ErrInvalidTransition   = errors.New("invalid suggestion status transition")
	ErrAlreadyImplemented  = errors.New("suggestion already implemented")
	ErrSuggestionExpired   = errors.New("suggestion has expired")
	ErrAgentNameTaken      = persistence.ErrAgentNameTaken
	ErrSystemAgentReadOnly = errors.New("the system agent cannot be modified")

	// Implementation Errors (422 Unprocessable Entity).
	ErrMissingTarget = errors.New("suggestion target not found")
)

// Not-found errors are the persistence sentinels.
var (
	ErrSuggestionNotFound = persistence.ErrSuggestionNotFound
	ErrAgentNotFound      = persistence.ErrAgentNotFound
	ErrRuleNotFound       = persistence.ErrRuleNotFound
	ErrArticleNotFound    = persistence.ErrArticleNotFound
	ErrTaskNotFound       = persistence.ErrTaskNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSuggestion) ||
		errors.Is(err, ErrEmptyReasoning) ||
		errors.Is(err, ErrInvalidConfidence) ||
		errors.Is(err, ErrInvalidPriority) ||
		errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrConditionsRequired) ||
		errors.Is(err, ErrActionsRequired) ||
		errors.Is(err, ErrInvalidCondition) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrUntrustedAutoImplement) ||
		errors.Is(err, ErrInvalidAgent) ||
		errors.Is(err, ErrInvalidArticle)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyImplemented) ||
		errors.Is(err, ErrSuggestionExpired) ||
		errors.Is(err, ErrAgentNameTaken) ||
		errors.Is(err, ErrSystemAgentReadOnly) ||
		persistence.IsStatusConflict(err)
}

// IsImplementationError checks if an error means the suggestion could not be applied to its target.
func IsImplementationError(err error) bool {
	return errors.Is(err, ErrMissingTarget)
}

// IsNotFound checks if an error indicates a missing record.
func IsNotFound(err error) bool {
	return persistence.IsNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error with context.
func NewConflictError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
