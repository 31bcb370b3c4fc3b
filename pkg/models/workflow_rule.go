package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ConditionType names what a rule condition inspects.
type ConditionType string

const (
	ConditionConfidenceThreshold ConditionType = "confidence_threshold"
	ConditionAgentType           ConditionType = "agent_type"
	ConditionSuggestionType      ConditionType = "suggestion_type"
	ConditionTimeBased           ConditionType = "time_based"
)

// Operator compares a suggestion attribute with a condition value.
type Operator string

const (
	OperatorGreaterThan    Operator = ">"
	OperatorGreaterOrEqual Operator = ">="
	OperatorLessThan       Operator = "<"
	OperatorLessOrEqual    Operator = "<="
	OperatorEqual          Operator = "="
)

// RuleActionType names a workflow action factory.
type RuleActionType string

const (
	RuleActionAutoApprove    RuleActionType = "auto_approve"
	RuleActionAutoImplement  RuleActionType = "auto_implement"
	RuleActionNotifyAdmin    RuleActionType = "notify_admin"
	RuleActionScheduleReview RuleActionType = "schedule_review"
	RuleActionCreateTask     RuleActionType = "create_task"
)

// Condition is one predicate of a rule. All conditions of a rule must hold for it to fire.
type Condition struct {
	Type     ConditionType `json:"type"     validate:"required"`
	Operator Operator      `json:"operator" validate:"required"`
	Value    any           `json:"value"    validate:"required"`
}

// RuleAction is one step executed when a rule fires.
type RuleAction struct {
	Type       RuleActionType `json:"type"                 validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// WorkflowRule maps a conjunction of conditions to an ordered list of actions.
type WorkflowRule struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"            validate:"required,min=3"`
	Description    string       `json:"description"`
	Priority       int          `json:"priority"` // lower is evaluated first
	Conditions     []Condition  `json:"conditions"`
	Actions        []RuleAction `json:"actions"`
	Enabled        bool         `json:"enabled"`
	Trusted        bool         `json:"trusted"` // required for auto_implement
	ExecutionCount int          `json:"execution_count"`
	SuccessRate    float64      `json:"success_rate"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// RecordOutcome folds one execution outcome into the running aggregates.
func (r *WorkflowRule) RecordOutcome(success bool) {
	outcome := 0.0
	if success {
		outcome = 1.0
	}

	r.SuccessRate = (r.SuccessRate*float64(r.ExecutionCount) + outcome) / float64(r.ExecutionCount+1)
	r.ExecutionCount++
}

// NumericValue returns the condition value as a number. JSON numbers, Go numeric types and
// numeric strings are accepted.
func (c Condition) NumericValue() (float64, bool) {
	switch v := c.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// StringValue returns the condition value as a string.
func (c Condition) StringValue() (string, bool) {
	v, ok := c.Value.(string)

	return v, ok
}

// IsValid reports whether o is a known operator.
func (o Operator) IsValid() bool {
	switch o {
	case OperatorGreaterThan, OperatorGreaterOrEqual, OperatorLessThan, OperatorLessOrEqual, OperatorEqual:
		return true
	}

	return false
}
