// Package notifyadmin posts a rule-defined message to the activity feed.
package notifyadmin

import (
	"context"
	"log/slog"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/dukex/pressdesk/pkg/template"
)

type Action struct {
	notifier services.Notifier
	title    string
	message  string
	level    models.NotificationLevel
}

func (a *Action) Execute(ctx context.Context, actx protocol.ActionContext, logger *slog.Logger) (map[string]any, error) {
	data := template.ActionData(actx.Rule, actx.Suggestion)

	title, err := template.Render(a.title, data)
	if err != nil {
		return nil, err
	}

	message, err := template.Render(a.message, data)
	if err != nil {
		return nil, err
	}

	a.notifier.Notify(ctx, models.Notification{
		Kind:    "workflow.notify",
		Title:   title,
		Message: message,
		Level:   a.level,
		Meta: map[string]any{
			"rule_id":       actx.Rule.ID,
			"suggestion_id": actx.Suggestion.ID,
			"execution_id":  actx.ExecutionID,
		},
	})

	logger.DebugContext(ctx, "Admin notified", "action_type", models.RuleActionNotifyAdmin, "title", title)

	return map[string]any{"title": title, "message": message}, nil
}
