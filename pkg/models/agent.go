package models

import "time"

// SystemAgentName is the sentinel agent that owns automated decisions and
// suggestions whose producing agent has been removed.
const SystemAgentName = "system"

// SystemAgentType is the type of the sentinel agent.
const SystemAgentType = "system"

// AIAgent is an administrator-configured instance of a registered agent type.
type AIAgent struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=2"`
	Type        string         `json:"type"        validate:"required"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsSystem reports whether this is the sentinel system agent.
func (a *AIAgent) IsSystem() bool {
	return a.Type == SystemAgentType
}

// CandidateSuggestion is what an agent emits before it is persisted.
type CandidateSuggestion struct {
	TargetType      TargetType     `json:"target_type"`
	TargetID        *string        `json:"target_id,omitempty"`
	SuggestionData  SuggestionData `json:"suggestion_data"`
	Reasoning       string         `json:"reasoning"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	Priority        *int           `json:"priority,omitempty"`
	ExpiresAt       *time.Time     `json:"expires_at,omitempty"`
}
