// Package events defines the change-feed events emitted by the suggestion lifecycle.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
)

type EventType string

// Topic is the single change-feed topic.
const Topic = "pressdesk.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Suggestion lifecycle events.
	SuggestionCreatedEvent       EventType = "suggestion.created"
	SuggestionStatusChangedEvent EventType = "suggestion.status_changed"
	SuggestionEditedEvent        EventType = "suggestion.edited"

	// Agent runner events.
	AgentRunCompletedEvent    EventType = "agent.run.completed"
	AgentRunFailedEvent       EventType = "agent.run.failed"
	AgentsBatchCompletedEvent EventType = "agents.batch.completed"

	// Rule engine events.
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"

	// Deferred work events.
	TaskDueEvent EventType = "task.due"
)

// Event is anything published on the change feed.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps an event with its type and the current time.
func NewBaseEvent(id string, eventType EventType) BaseEvent {
	return BaseEvent{ID: id, Type: eventType, Timestamp: time.Now().UTC()}
}

type SuggestionCreated struct {
	BaseEvent

	SuggestionID    string            `json:"suggestion_id"`
	AgentID         string            `json:"agent_id"`
	TargetType      models.TargetType `json:"target_type"`
	ConfidenceScore *float64          `json:"confidence_score,omitempty"`
}

func (e SuggestionCreated) GetType() EventType {
	return SuggestionCreatedEvent
}

// SuggestionStatusChanged carries the old and new row state of a status transition.
type SuggestionStatusChanged struct {
	BaseEvent

	SuggestionID string                  `json:"suggestion_id"`
	OldStatus    models.SuggestionStatus `json:"old_status"`
	NewStatus    models.SuggestionStatus `json:"new_status"`
	Actor        string                  `json:"actor"`
}

func (e SuggestionStatusChanged) GetType() EventType {
	return SuggestionStatusChangedEvent
}

// IsAutomated reports whether the transition was made by automation.
func (e SuggestionStatusChanged) IsAutomated() bool {
	return e.Actor == models.SystemAdminID
}

type SuggestionEdited struct {
	BaseEvent

	SuggestionID string `json:"suggestion_id"`
	Actor        string `json:"actor"`
}

func (e SuggestionEdited) GetType() EventType {
	return SuggestionEditedEvent
}

type AgentRunCompleted struct {
	BaseEvent

	AgentID            string `json:"agent_id"`
	AgentName          string `json:"agent_name"`
	SuggestionsCreated int    `json:"suggestions_created"`
	Cached             bool   `json:"cached"`
	DurationMs         int64  `json:"duration_ms"`
}

func (e AgentRunCompleted) GetType() EventType {
	return AgentRunCompletedEvent
}

type AgentRunFailed struct {
	BaseEvent

	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Error     string `json:"error"`
}

func (e AgentRunFailed) GetType() EventType {
	return AgentRunFailedEvent
}

type AgentsBatchCompleted struct {
	BaseEvent

	Succeeded        int `json:"succeeded"`
	Failed           int `json:"failed"`
	TotalSuggestions int `json:"total_suggestions"`
}

func (e AgentsBatchCompleted) GetType() EventType {
	return AgentsBatchCompletedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID     string `json:"execution_id"`
	RuleID          string `json:"rule_id"`
	RuleName        string `json:"rule_name"`
	SuggestionID    string `json:"suggestion_id"`
	ActionsExecuted int    `json:"actions_executed"`
}

func (e WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID     string `json:"execution_id"`
	RuleID          string `json:"rule_id"`
	RuleName        string `json:"rule_name"`
	SuggestionID    string `json:"suggestion_id"`
	ActionsExecuted int    `json:"actions_executed"`
	Error           string `json:"error"`
}

func (e WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

type TaskDue struct {
	BaseEvent

	TaskID       string  `json:"task_id"`
	Title        string  `json:"title"`
	SuggestionID *string `json:"suggestion_id,omitempty"`
}

func (e TaskDue) GetType() EventType {
	return TaskDueEvent
}

// Decode turns a payload into the concrete event for its type.
func Decode(eventType EventType, payload []byte) (Event, error) {
	var event Event

	switch eventType {
	case SuggestionCreatedEvent:
		event = &SuggestionCreated{}
	case SuggestionStatusChangedEvent:
		event = &SuggestionStatusChanged{}
	case SuggestionEditedEvent:
		event = &SuggestionEdited{}
	case AgentRunCompletedEvent:
		event = &AgentRunCompleted{}
	case AgentRunFailedEvent:
		event = &AgentRunFailed{}
	case AgentsBatchCompletedEvent:
		event = &AgentsBatchCompleted{}
	case WorkflowExecutionCompletedEvent:
		event = &WorkflowExecutionCompleted{}
	case WorkflowExecutionFailedEvent:
		event = &WorkflowExecutionFailed{}
	case TaskDueEvent:
		event = &TaskDue{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	err := json.Unmarshal(payload, event)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
	}

	return event, nil
}
