// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"

	"github.com/dukex/pressdesk/pkg/models"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrAgentNotFound indicates an agent was not found by the given identifier or name.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentNameTaken indicates another agent already uses the name.
	ErrAgentNameTaken = errors.New("agent name already taken")

	// ErrSuggestionNotFound indicates a suggestion was not found by the given identifier.
	ErrSuggestionNotFound = errors.New("suggestion not found")

	// ErrSuggestionAlreadyExists indicates a suggestion with the same identifier already exists.
	ErrSuggestionAlreadyExists = errors.New("suggestion already exists")

	// ErrStatusConflict indicates the stored status differs from the expected previous status.
	ErrStatusConflict = errors.New("suggestion status conflict")

	// ErrRuleNotFound indicates a workflow rule was not found by the given identifier.
	ErrRuleNotFound = errors.New("workflow rule not found")

	// ErrExecutionNotFound indicates a workflow execution was not found.
	ErrExecutionNotFound = errors.New("workflow execution not found")

	// ErrArticleNotFound indicates an article was not found by the given identifier.
	ErrArticleNotFound = errors.New("article not found")

	// ErrTaskNotFound indicates a task was not found by the given identifier.
	ErrTaskNotFound = errors.New("task not found")
)

// RecordError wraps a repository error with the operation and record involved.
type RecordError struct {
	Op    string // Operation being performed (e.g., "GetByID", "Save")
	Table string // Table or collection name
	ID    string // Record ID if applicable
	Err   error  // Underlying error
}

func (e *RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s operation failed on %s: %v", e.Op, e.Table, e.Err)
	}

	return fmt.Sprintf("%s operation failed on %s %s: %v", e.Op, e.Table, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for record errors.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRecordError creates a new record error with context.
func NewRecordError(op, table, id string, err error) *RecordError {
	return &RecordError{
		Op:    op,
		Table: table,
		ID:    id,
		Err:   err,
	}
}

// StatusConflictError reports a lost compare-and-set on a suggestion status.
type StatusConflictError struct {
	SuggestionID string
	Expected     models.SuggestionStatus
	Actual       models.SuggestionStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("suggestion %s: expected status %s, found %s", e.SuggestionID, e.Expected, e.Actual)
}

func (e *StatusConflictError) Unwrap() error {
	return ErrStatusConflict
}

// NewStatusConflictError creates a new status conflict error.
func NewStatusConflictError(id string, expected, actual models.SuggestionStatus) *StatusConflictError {
	return &StatusConflictError{SuggestionID: id, Expected: expected, Actual: actual}
}

// IsNotFound checks if an error indicates any record was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound) ||
		errors.Is(err, ErrSuggestionNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrArticleNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}

// IsSuggestionNotFound checks if an error indicates a suggestion was not found.
func IsSuggestionNotFound(err error) bool {
	return errors.Is(err, ErrSuggestionNotFound)
}

// IsAgentNotFound checks if an error indicates an agent was not found.
func IsAgentNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound)
}

// IsRuleNotFound checks if an error indicates a workflow rule was not found.
func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

// IsArticleNotFound checks if an error indicates an article was not found.
func IsArticleNotFound(err error) bool {
	return errors.Is(err, ErrArticleNotFound)
}

// IsStatusConflict checks if an error indicates a lost status compare-and-set.
func IsStatusConflict(err error) bool {
	return errors.Is(err, ErrStatusConflict)
}

// IsAgentNameTaken checks if an error indicates a duplicate agent name.
func IsAgentNameTaken(err error) bool {
	return errors.Is(err, ErrAgentNameTaken)
}
