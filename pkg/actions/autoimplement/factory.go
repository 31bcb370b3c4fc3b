package autoimplement

import (
	"github.com/dukex/pressdesk/pkg/actions"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
)

const defaultReasoning = `Approved for implementation by trusted rule "{{ .rule.name }}"`

type ActionFactory struct {
	approver    Approver
	implementer Implementer
}

func NewActionFactory(approver Approver, implementer Implementer) *ActionFactory {
	return &ActionFactory{approver: approver, implementer: implementer}
}

func (*ActionFactory) ID() string {
	return string(models.RuleActionAutoImplement)
}

func (*ActionFactory) Name() string {
	return "Auto implement"
}

func (*ActionFactory) Description() string {
	return "Applies the matched suggestion to its target without manual review. Only trusted rules may use it."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return &Action{
		approver:    f.approver,
		implementer: f.implementer,
		reasoning:   actions.StringParam(config, "reasoning", defaultReasoning),
	}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reasoning": map[string]any{
				"type":        "string",
				"description": "Reasoning stored on the system approval when the suggestion is still pending.",
				"default":     defaultReasoning,
			},
		},
	}
}
