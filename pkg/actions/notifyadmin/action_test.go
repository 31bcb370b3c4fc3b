package notifyadmin

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feed struct {
	got []models.Notification
}

func (f *feed) Notify(_ context.Context, n models.Notification) {
	f.got = append(f.got, n)
}

func TestActionFactory_Schema(t *testing.T) {
	factory := NewActionFactory(&feed{})

	assert.Equal(t, "notify_admin", factory.ID())
	assert.Equal(t, []string{"message"}, factory.Schema()["required"])
}

func TestActionFactory_CreateRequiresMessage(t *testing.T) {
	_, err := NewActionFactory(&feed{}).Create(map[string]any{"title": "Heads up"})
	require.ErrorIs(t, err, ErrMessageRequired)

	_, err = NewActionFactory(&feed{}).Create(map[string]any{"message": "  "})
	require.ErrorIs(t, err, ErrMessageRequired)
}

func TestAction_RendersMessage(t *testing.T) {
	f := &feed{}
	confidence := 0.9

	action, err := NewActionFactory(f).Create(map[string]any{
		"message": "{{ .suggestion.target_type }} suggestion at {{ percent .suggestion.confidence }}",
		"level":   "warning",
	})
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), protocol.ActionContext{
		ExecutionID: "exec-1",
		Rule:        &models.WorkflowRule{ID: "rule-1", Name: "Watch SEO"},
		Suggestion:  &models.AISuggestion{ID: "s-1", TargetType: models.TargetTypeSEO, ConfidenceScore: &confidence},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.Len(t, f.got, 1)
	assert.Equal(t, `Rule "Watch SEO" matched`, f.got[0].Title)
	assert.Equal(t, "seo suggestion at 90%", f.got[0].Message)
	assert.Equal(t, models.NotificationWarning, f.got[0].Level)
	assert.Equal(t, "s-1", f.got[0].Meta["suggestion_id"])
	assert.Equal(t, "seo suggestion at 90%", result["message"])
}

func TestAction_BadTemplateFails(t *testing.T) {
	f := &feed{}

	action, err := NewActionFactory(f).Create(map[string]any{"message": "{{ .broken"})
	require.NoError(t, err)

	_, err = action.Execute(t.Context(), protocol.ActionContext{
		Rule:       &models.WorkflowRule{ID: "rule-1"},
		Suggestion: &models.AISuggestion{ID: "s-1"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Empty(t, f.got)
}
