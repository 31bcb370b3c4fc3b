package autoapprove

import (
	"github.com/dukex/pressdesk/pkg/actions"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
)

const defaultReasoning = `Auto-approved by rule "{{ .rule.name }}"`

// ActionFactory builds auto_approve actions bound to the suggestion decision path.
type ActionFactory struct {
	approver Approver
}

func NewActionFactory(approver Approver) *ActionFactory {
	return &ActionFactory{approver: approver}
}

func (*ActionFactory) ID() string {
	return string(models.RuleActionAutoApprove)
}

func (*ActionFactory) Name() string {
	return "Auto approve"
}

func (*ActionFactory) Description() string {
	return "Approves the matched suggestion on behalf of the system actor."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return &Action{
		approver:  f.approver,
		reasoning: actions.StringParam(config, "reasoning", defaultReasoning),
	}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reasoning": map[string]any{
				"type":        "string",
				"description": "Reasoning stored on the audit entry. Supports {{ .rule.* }} and {{ .suggestion.* }} fields.",
				"default":     defaultReasoning,
			},
		},
	}
}
