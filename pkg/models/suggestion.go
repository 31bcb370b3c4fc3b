package models

import (
	"encoding/json"
	"time"
)

// SuggestionStatus represents the review state of a suggestion.
type SuggestionStatus string

const (
	SuggestionStatusPending     SuggestionStatus = "pending"
	SuggestionStatusApproved    SuggestionStatus = "approved"
	SuggestionStatusRejected    SuggestionStatus = "rejected"
	SuggestionStatusImplemented SuggestionStatus = "implemented"
)

// IsTerminal reports whether no further transition is possible from this status.
func (s SuggestionStatus) IsTerminal() bool {
	return s == SuggestionStatusRejected || s == SuggestionStatusImplemented
}

// IsValid reports whether s is a known status.
func (s SuggestionStatus) IsValid() bool {
	switch s {
	case SuggestionStatusPending, SuggestionStatusApproved, SuggestionStatusRejected, SuggestionStatusImplemented:
		return true
	}

	return false
}

// CanTransition reports whether a suggestion may move from one status to another.
// Only pending→approved, pending→rejected and approved→implemented are allowed.
func CanTransition(from, to SuggestionStatus) bool {
	switch from {
	case SuggestionStatusPending:
		return to == SuggestionStatusApproved || to == SuggestionStatusRejected
	case SuggestionStatusApproved:
		return to == SuggestionStatusImplemented
	default:
		return false
	}
}

// AISuggestion is a proposed change to a target entity produced by an agent.
type AISuggestion struct {
	ID              string           `json:"id"`
	AgentID         string           `json:"agent_id"`
	TargetType      TargetType       `json:"target_type"`
	TargetID        *string          `json:"target_id,omitempty"`
	SuggestionData  SuggestionData   `json:"suggestion_data"`
	Reasoning       string           `json:"reasoning"`
	Status          SuggestionStatus `json:"status"`
	ConfidenceScore *float64         `json:"confidence_score,omitempty"`
	Priority        *int             `json:"priority,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy      *string          `json:"reviewed_by,omitempty"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
}

// IsExpired reports whether the suggestion is past its expiry at the given instant.
func (s *AISuggestion) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

type aiSuggestionJSON struct {
	ID              string           `json:"id"`
	AgentID         string           `json:"agent_id"`
	TargetType      TargetType       `json:"target_type"`
	TargetID        *string          `json:"target_id,omitempty"`
	SuggestionData  json.RawMessage  `json:"suggestion_data"`
	Reasoning       string           `json:"reasoning"`
	Status          SuggestionStatus `json:"status"`
	ConfidenceScore *float64         `json:"confidence_score,omitempty"`
	Priority        *int             `json:"priority,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy      *string          `json:"reviewed_by,omitempty"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
}

// MarshalJSON encodes the payload as a flat object under suggestion_data.
func (s AISuggestion) MarshalJSON() ([]byte, error) {
	data, err := EncodeSuggestionData(s.SuggestionData)
	if err != nil {
		return nil, err
	}

	return json.Marshal(aiSuggestionJSON{
		ID:              s.ID,
		AgentID:         s.AgentID,
		TargetType:      s.TargetType,
		TargetID:        s.TargetID,
		SuggestionData:  data,
		Reasoning:       s.Reasoning,
		Status:          s.Status,
		ConfidenceScore: s.ConfidenceScore,
		Priority:        s.Priority,
		CreatedAt:       s.CreatedAt,
		ReviewedAt:      s.ReviewedAt,
		ReviewedBy:      s.ReviewedBy,
		ExpiresAt:       s.ExpiresAt,
	})
}

// UnmarshalJSON decodes suggestion_data into the variant named by target_type.
func (s *AISuggestion) UnmarshalJSON(b []byte) error {
	var raw aiSuggestionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data, err := DecodeSuggestionData(raw.TargetType, raw.SuggestionData)
	if err != nil {
		return err
	}

	*s = AISuggestion{
		ID:              raw.ID,
		AgentID:         raw.AgentID,
		TargetType:      raw.TargetType,
		TargetID:        raw.TargetID,
		SuggestionData:  data,
		Reasoning:       raw.Reasoning,
		Status:          raw.Status,
		ConfidenceScore: raw.ConfidenceScore,
		Priority:        raw.Priority,
		CreatedAt:       raw.CreatedAt,
		ReviewedAt:      raw.ReviewedAt,
		ReviewedBy:      raw.ReviewedBy,
		ExpiresAt:       raw.ExpiresAt,
	}

	return nil
}

type candidateSuggestionJSON struct {
	TargetType      TargetType      `json:"target_type"`
	TargetID        *string         `json:"target_id,omitempty"`
	SuggestionData  json.RawMessage `json:"suggestion_data"`
	Reasoning       string          `json:"reasoning"`
	ConfidenceScore *float64        `json:"confidence_score,omitempty"`
	Priority        *int            `json:"priority,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
}

// MarshalJSON encodes a candidate with its payload flattened under suggestion_data.
func (c CandidateSuggestion) MarshalJSON() ([]byte, error) {
	data, err := EncodeSuggestionData(c.SuggestionData)
	if err != nil {
		return nil, err
	}

	return json.Marshal(candidateSuggestionJSON{
		TargetType:      c.TargetType,
		TargetID:        c.TargetID,
		SuggestionData:  data,
		Reasoning:       c.Reasoning,
		ConfidenceScore: c.ConfidenceScore,
		Priority:        c.Priority,
		ExpiresAt:       c.ExpiresAt,
	})
}

// UnmarshalJSON decodes a candidate produced outside the process.
func (c *CandidateSuggestion) UnmarshalJSON(b []byte) error {
	var raw candidateSuggestionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data, err := DecodeSuggestionData(raw.TargetType, raw.SuggestionData)
	if err != nil {
		return err
	}

	*c = CandidateSuggestion{
		TargetType:      raw.TargetType,
		TargetID:        raw.TargetID,
		SuggestionData:  data,
		Reasoning:       raw.Reasoning,
		ConfidenceScore: raw.ConfidenceScore,
		Priority:        raw.Priority,
		ExpiresAt:       raw.ExpiresAt,
	}

	return nil
}
