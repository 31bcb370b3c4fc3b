// Package autoapprove approves matched suggestions as the system actor.
package autoapprove

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/dukex/pressdesk/pkg/template"
)

// Approver is the suggestion decision path.
type Approver interface {
	Approve(ctx context.Context, id string, reasoning *string) (*models.AISuggestion, error)
}

type Action struct {
	approver  Approver
	reasoning string
}

// Execute approves the suggestion. A suggestion that is already approved is left alone.
func (a *Action) Execute(ctx context.Context, actx protocol.ActionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", models.RuleActionAutoApprove, "suggestion_id", actx.Suggestion.ID)

	if actx.Suggestion.Status == models.SuggestionStatusApproved {
		logger.InfoContext(ctx, "Suggestion already approved, skipping")

		return map[string]any{"skipped": true, "reason": "already approved"}, nil
	}

	reasoning, err := template.Render(a.reasoning, template.ActionData(actx.Rule, actx.Suggestion))
	if err != nil {
		return nil, err
	}

	updated, err := a.approver.Approve(services.SystemContext(ctx), actx.Suggestion.ID, &reasoning)
	if err != nil {
		return nil, fmt.Errorf("failed to approve suggestion: %w", err)
	}

	logger.InfoContext(ctx, "Suggestion auto-approved")

	return map[string]any{"status": string(updated.Status), "reasoning": reasoning}, nil
}
