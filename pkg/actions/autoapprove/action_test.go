package autoapprove

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApprover struct {
	actor     string
	id        string
	reasoning string
	err       error
}

func (f *fakeApprover) Approve(ctx context.Context, id string, reasoning *string) (*models.AISuggestion, error) {
	f.actor = services.ActorFromContext(ctx)
	f.id = id
	f.reasoning = *reasoning

	if f.err != nil {
		return nil, f.err
	}

	return &models.AISuggestion{ID: id, Status: models.SuggestionStatusApproved}, nil
}

func actionContext(status models.SuggestionStatus) protocol.ActionContext {
	return protocol.ActionContext{
		ExecutionID: "exec-1",
		Rule:        &models.WorkflowRule{ID: "rule-1", Name: "Confident SEO"},
		Suggestion:  &models.AISuggestion{ID: "s-1", Status: status, TargetType: models.TargetTypeSEO},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestActionFactory(t *testing.T) {
	factory := NewActionFactory(&fakeApprover{})

	assert.Equal(t, "auto_approve", factory.ID())
	assert.NotEmpty(t, factory.Name())
	assert.NotEmpty(t, factory.Description())
	assert.Equal(t, "object", factory.Schema()["type"])

	action, err := factory.Create(nil)
	require.NoError(t, err)
	assert.IsType(t, &Action{}, action)
}

func TestAction_ApprovesAsSystem(t *testing.T) {
	approver := &fakeApprover{}
	action, err := NewActionFactory(approver).Create(nil)
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), actionContext(models.SuggestionStatusPending), discard())
	require.NoError(t, err)

	assert.Equal(t, services.SystemActor, approver.actor)
	assert.Equal(t, "s-1", approver.id)
	assert.Equal(t, `Auto-approved by rule "Confident SEO"`, approver.reasoning)
	assert.Equal(t, "approved", result["status"])
}

func TestAction_CustomReasoning(t *testing.T) {
	approver := &fakeApprover{}
	action, err := NewActionFactory(approver).Create(map[string]any{"reasoning": "{{ .suggestion.target_type }} rule"})
	require.NoError(t, err)

	_, err = action.Execute(t.Context(), actionContext(models.SuggestionStatusPending), discard())
	require.NoError(t, err)
	assert.Equal(t, "seo rule", approver.reasoning)
}

func TestAction_AlreadyApprovedIsNoop(t *testing.T) {
	approver := &fakeApprover{}
	action, err := NewActionFactory(approver).Create(nil)
	require.NoError(t, err)

	result, err := action.Execute(t.Context(), actionContext(models.SuggestionStatusApproved), discard())
	require.NoError(t, err)
	assert.Equal(t, true, result["skipped"])
	assert.Empty(t, approver.id)
}

func TestAction_PropagatesFailure(t *testing.T) {
	approver := &fakeApprover{err: services.ErrSuggestionExpired}
	action, err := NewActionFactory(approver).Create(nil)
	require.NoError(t, err)

	_, err = action.Execute(t.Context(), actionContext(models.SuggestionStatusPending), discard())
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrSuggestionExpired))
}
