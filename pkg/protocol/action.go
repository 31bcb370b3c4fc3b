package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/pressdesk/pkg/models"
)

// ActionContext is what a rule action sees when it runs.
type ActionContext struct {
	ExecutionID string
	Rule        *models.WorkflowRule
	Suggestion  *models.AISuggestion
}

// Action is one step of a workflow rule's action list.
type Action interface {
	Execute(ctx context.Context, actionCtx ActionContext, logger *slog.Logger) (map[string]any, error)
}

type ActionFactory interface {
	ID() string
	Name() string
	Description() string
	Schema() map[string]any
	Create(config map[string]any) (Action, error)
}
