package models

import "time"

// ExecutionStatus is the lifecycle state of a rule execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusExecuting ExecutionStatus = "executing"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// WorkflowExecution records one matched (rule, suggestion) evaluation.
// Actions applied before a failure are not rolled back.
type WorkflowExecution struct {
	ID             string          `json:"id"`
	WorkflowRuleID string          `json:"workflow_rule_id"`
	SuggestionID   string          `json:"suggestion_id"`
	Status         ExecutionStatus `json:"status"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Result         map[string]any  `json:"result,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
}

// IsTerminal reports whether the execution has finished.
func (e *WorkflowExecution) IsTerminal() bool {
	return e.Status == ExecutionStatusCompleted || e.Status == ExecutionStatusFailed
}
