// Package autoimplement applies matched suggestions without waiting for a human decision.
package autoimplement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/dukex/pressdesk/pkg/template"
)

type Approver interface {
	Approve(ctx context.Context, id string, reasoning *string) (*models.AISuggestion, error)
}

type Implementer interface {
	Implement(ctx context.Context, id string) (*services.ImplementationResult, error)
}

type Action struct {
	approver    Approver
	implementer Implementer
	reasoning   string
}

// Execute approves a pending suggestion as the system actor and then implements it.
func (a *Action) Execute(ctx context.Context, actx protocol.ActionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", models.RuleActionAutoImplement, "suggestion_id", actx.Suggestion.ID)
	ctx = services.SystemContext(ctx)

	approvedFirst := false

	if actx.Suggestion.Status == models.SuggestionStatusPending {
		reasoning, err := template.Render(a.reasoning, template.ActionData(actx.Rule, actx.Suggestion))
		if err != nil {
			return nil, err
		}

		_, err = a.approver.Approve(ctx, actx.Suggestion.ID, &reasoning)
		if err != nil {
			return nil, fmt.Errorf("failed to approve suggestion before implementing: %w", err)
		}

		approvedFirst = true
	}

	result, err := a.implementer.Implement(ctx, actx.Suggestion.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to implement suggestion: %w", err)
	}

	logger.InfoContext(ctx, "Suggestion auto-implemented", "changes", len(result.Changes))

	out := map[string]any{
		"approved_first": approvedFirst,
		"changes":        len(result.Changes),
	}

	if result.Article != nil {
		out["article_id"] = result.Article.ID
	}

	return out, nil
}
