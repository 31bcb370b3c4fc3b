package notifyadmin

import (
	"errors"

	"github.com/dukex/pressdesk/pkg/actions"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/services"
)

const defaultTitle = `Rule "{{ .rule.name }}" matched`

var ErrMessageRequired = errors.New("notify_admin requires a message")

type ActionFactory struct {
	notifier services.Notifier
}

func NewActionFactory(notifier services.Notifier) *ActionFactory {
	return &ActionFactory{notifier: notifier}
}

func (*ActionFactory) ID() string {
	return string(models.RuleActionNotifyAdmin)
}

func (*ActionFactory) Name() string {
	return "Notify admin"
}

func (*ActionFactory) Description() string {
	return "Posts a message to the administrator activity feed."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	message := actions.StringParam(config, "message", "")
	if message == "" {
		return nil, ErrMessageRequired
	}

	return &Action{
		notifier: f.notifier,
		title:    actions.StringParam(config, "title", defaultTitle),
		message:  message,
		level:    models.NotificationLevel(actions.StringParam(config, "level", string(models.NotificationInfo))),
	}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message body. Supports {{ .rule.* }} and {{ .suggestion.* }} fields.",
				"minLength":   1,
				"examples": []string{
					"New {{ .suggestion.target_type }} suggestion at {{ percent .suggestion.confidence }} confidence",
				},
			},
			"title": map[string]any{
				"type":    "string",
				"default": defaultTitle,
			},
			"level": map[string]any{
				"type":    "string",
				"default": "info",
				"enum":    []string{"info", "success", "warning", "error"},
			},
		},
		"required": []string{"message"},
	}
}
