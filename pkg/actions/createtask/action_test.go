package createtask

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence/file"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_CreatesAdminTask(t *testing.T) {
	tasks := file.NewPersistence(t.TempDir()).TaskRepository()

	factory := NewActionFactory(tasks)
	assert.Equal(t, "create_task", factory.ID())
	assert.Equal(t, []string{"title"}, factory.Schema()["required"])

	action, err := factory.Create(map[string]any{"title": "Draft a piece for {{ .suggestion.id }}"})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), protocol.ActionContext{
		Rule:       &models.WorkflowRule{ID: "rule-1"},
		Suggestion: &models.AISuggestion{ID: "s-7", TargetType: models.TargetTypeContentGap},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	task, err := tasks.GetByID(t.Context(), result["task_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, models.TaskTypeAdmin, task.Type)
	assert.Equal(t, "Draft a piece for s-7", task.Title)
	assert.Equal(t, "rule-1", *task.RuleID)
	assert.Nil(t, task.DueAt)

	open := models.TaskStatusOpen
	list, err := tasks.List(t.Context(), &open)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAction_DueDate(t *testing.T) {
	tasks := file.NewPersistence(t.TempDir()).TaskRepository()

	action, err := NewActionFactory(tasks).Create(map[string]any{"title": "Follow up", "due_in_minutes": 30})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), protocol.ActionContext{
		Rule:       &models.WorkflowRule{ID: "rule-1"},
		Suggestion: &models.AISuggestion{ID: "s-1"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	task, err := tasks.GetByID(t.Context(), result["task_id"].(string))
	require.NoError(t, err)
	assert.NotNil(t, task.DueAt)
}
