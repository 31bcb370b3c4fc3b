// Package createtask records an administrative task for a matched suggestion.
package createtask

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
	title string
	dueIn time.Duration
}

func (a *Action) Execute(ctx context.Context, actx protocol.ActionContext, logger *slog.Logger) (map[string]any, error) {
	title, err := template.Render(a.title, template.ActionData(actx.Rule, actx.Suggestion))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:           uuid.NewString(),
		Type:         models.TaskTypeAdmin,
		Title:        title,
		SuggestionID: &actx.Suggestion.ID,
		RuleID:       &actx.Rule.ID,
		Status:       models.TaskStatusOpen,
		CreatedAt:    now,
	}

	if a.dueIn > 0 {
		due := now.Add(a.dueIn)
		task.DueAt = &due
	}

	err = a.tasks.Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	logger.InfoContext(ctx, "Task created", "action_type", models.RuleActionCreateTask, "task_id", task.ID)

	return map[string]any{"task_id": task.ID, "title": title}, nil
}
