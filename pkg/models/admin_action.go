package models

import (
	"encoding/json"
	"time"
)

// ActionType is the kind of decision recorded in the audit log.
type ActionType string

const (
	ActionTypeApprove ActionType = "approve"
	ActionTypeReject  ActionType = "reject"
	ActionTypeEdit    ActionType = "edit"
	ActionTypeDismiss ActionType = "dismiss"
)

// SystemAdminID stamps decisions taken by automation instead of a human.
const SystemAdminID = "system"

// AdminAction is an append-only audit record of one decision on a suggestion.
type AdminAction struct {
	ID             string          `json:"id"`
	AdminID        string          `json:"admin_id"`
	SuggestionID   string          `json:"suggestion_id"`
	ActionType     ActionType      `json:"action_type"`
	OriginalData   json.RawMessage `json:"original_data,omitempty"`
	ModifiedData   json.RawMessage `json:"modified_data,omitempty"`
	AdminReasoning *string         `json:"admin_reasoning,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// IsAutomated reports whether the decision was taken by automation.
func (a *AdminAction) IsAutomated() bool {
	return a.AdminID == SystemAdminID
}
