package web

import (
	"encoding/json"
	"time"

	"github.com/dukex/pressdesk/pkg/chat"
	"github.com/dukex/pressdesk/pkg/models"
)

// DecisionRequest is the optional body of approve, reject and dismiss.
type DecisionRequest struct {
	Reasoning *string `json:"reasoning,omitempty" validate:"omitempty,max=2000"`
}

// EditSuggestionRequest replaces a pending suggestion's payload. SuggestionData is decoded
// against the suggestion's target type.
type EditSuggestionRequest struct {
	SuggestionData json.RawMessage `json:"suggestion_data" validate:"required"`
	Reasoning      *string         `json:"reasoning,omitempty" validate:"omitempty,max=2000"`
}

type AgentRequest struct {
	Name        string         `json:"name"        validate:"required,min=2"`
	Type        string         `json:"type"        validate:"omitempty"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	IsActive    bool           `json:"is_active"`
}

func (r AgentRequest) model() *models.AIAgent {
	return &models.AIAgent{
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		Config:      r.Config,
		IsActive:    r.IsActive,
	}
}

// EnqueueRequest schedules an agent run on the execution queue. Priority defaults to medium.
type EnqueueRequest struct {
	Priority     string     `json:"priority"      validate:"omitempty,oneof=low medium high critical"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

type RuleRequest struct {
	Name        string              `json:"name"        validate:"required,min=3"`
	Description string              `json:"description"`
	Priority    int                 `json:"priority"    validate:"gte=0"`
	Conditions  []models.Condition  `json:"conditions"  validate:"required,min=1"`
	Actions     []models.RuleAction `json:"actions"     validate:"required,min=1"`
	Enabled     bool                `json:"enabled"`
	Trusted     bool                `json:"trusted"`
}

func (r RuleRequest) model() *models.WorkflowRule {
	return &models.WorkflowRule{
		Name:        r.Name,
		Description: r.Description,
		Priority:    r.Priority,
		Conditions:  r.Conditions,
		Actions:     r.Actions,
		Enabled:     r.Enabled,
		Trusted:     r.Trusted,
	}
}

type ChatRequest struct {
	Query   string      `json:"query"   validate:"required,max=1000"`
	History []chat.Turn `json:"history" validate:"omitempty,dive"`
}
