package schedulereview

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence/file"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_CreatesDeferredReview(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tasks := file.NewPersistence(t.TempDir()).TaskRepository()

	factory := NewActionFactory(tasks).WithClock(func() time.Time { return now })
	assert.Equal(t, "schedule_review", factory.ID())

	action, err := factory.Create(map[string]any{"delay_minutes": 90.0})
	require.NoError(t, err)

	suggestion := &models.AISuggestion{ID: "s-1", TargetType: models.TargetTypeArticle, Status: models.SuggestionStatusPending}

	result, err := action.Execute(t.Context(), protocol.ActionContext{
		Rule:       &models.WorkflowRule{ID: "rule-1", Name: "Defer"},
		Suggestion: suggestion,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	task, err := tasks.GetByID(t.Context(), result["task_id"].(string))
	require.NoError(t, err)

	assert.Equal(t, models.TaskTypeReview, task.Type)
	assert.Equal(t, models.TaskStatusOpen, task.Status)
	assert.Equal(t, "Review article suggestion s-1", task.Title)
	require.NotNil(t, task.DueAt)
	assert.True(t, now.Add(90*time.Minute).Equal(*task.DueAt))
	assert.Equal(t, "s-1", *task.SuggestionID)
	assert.Equal(t, models.SuggestionStatusPending, suggestion.Status)

	assert.False(t, task.IsDue(now))
	assert.True(t, task.IsDue(now.Add(2*time.Hour)))
}

func TestAction_DefaultDelay(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tasks := file.NewPersistence(t.TempDir()).TaskRepository()

	action, err := NewActionFactory(tasks).WithClock(func() time.Time { return now }).Create(nil)
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), protocol.ActionContext{
		Rule:       &models.WorkflowRule{ID: "rule-1"},
		Suggestion: &models.AISuggestion{ID: "s-1"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Format(time.RFC3339), result["due_at"])
}
