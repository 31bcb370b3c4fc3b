// Package schedulereview defers a suggestion to a later review task.
package schedulereview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/template"
	"github.com/google/uuid"
)

type Action struct {
	tasks persistence.TaskRepository
	now   func() time.Time
	delay time.Duration
	title string
}

func (a *Action) Execute(ctx context.Context, actx protocol.ActionContext, logger *slog.Logger) (map[string]any, error) {
	title, err := template.Render(a.title, template.ActionData(actx.Rule, actx.Suggestion))
	if err != nil {
		return nil, err
	}

	now := a.now()
	due := now.Add(a.delay)

	task := &models.Task{
		ID:           uuid.NewString(),
		Type:         models.TaskTypeReview,
		Title:        title,
		SuggestionID: &actx.Suggestion.ID,
		RuleID:       &actx.Rule.ID,
		DueAt:        &due,
		Status:       models.TaskStatusOpen,
		CreatedAt:    now,
	}

	err = a.tasks.Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to save review task: %w", err)
	}

	logger.InfoContext(ctx, "Review scheduled",
		"action_type", models.RuleActionScheduleReview, "task_id", task.ID, "due_at", due)

	return map[string]any{"task_id": task.ID, "due_at": due.Format(time.RFC3339)}, nil
}
