package createtask

import (
	"time"

	"github.com/dukex/pressdesk/pkg/actions"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/protocol"
)

type ActionFactory struct {
	tasks persistence.TaskRepository
}

func NewActionFactory(tasks persistence.TaskRepository) *ActionFactory {
	return &ActionFactory{tasks: tasks}
}

func (*ActionFactory) ID() string {
	return string(models.RuleActionCreateTask)
}

func (*ActionFactory) Name() string {
	return "Create task"
}

func (*ActionFactory) Description() string {
	return "Creates an administrative task linked to the matched suggestion."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return &Action{
		tasks: f.tasks,
		title: actions.StringParam(config, "title", ""),
		dueIn: time.Duration(actions.IntParam(config, "due_in_minutes", 0)) * time.Minute,
	}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Task title. Supports {{ .rule.* }} and {{ .suggestion.* }} fields.",
				"minLength":   1,
				"examples":    []string{"Write the article suggested by {{ .suggestion.id }}"},
			},
			"due_in_minutes": map[string]any{
				"type":        "integer",
				"description": "Optional due date, in minutes from now",
				"minimum":     0,
			},
		},
		"required": []string{"title"},
	}
}
