package services

import (
	"sync"
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCandidate(t *testing.T) {
	valid := seoCandidate("article-1")

	tests := []struct {
		name    string
		mutate  func(c *models.CandidateSuggestion)
		wantErr error
	}{
		{name: "valid", mutate: func(*models.CandidateSuggestion) {}},
		{
			name:    "blank reasoning",
			mutate:  func(c *models.CandidateSuggestion) { c.Reasoning = "   " },
			wantErr: ErrEmptyReasoning,
		},
		{
			name:    "confidence above one",
			mutate:  func(c *models.CandidateSuggestion) { c.ConfidenceScore = ptr(1.2) },
			wantErr: ErrInvalidConfidence,
		},
		{
			name:    "negative confidence",
			mutate:  func(c *models.CandidateSuggestion) { c.ConfidenceScore = ptr(-0.1) },
			wantErr: ErrInvalidConfidence,
		},
		{
			name:    "priority zero",
			mutate:  func(c *models.CandidateSuggestion) { c.Priority = ptr(0) },
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "priority six",
			mutate:  func(c *models.CandidateSuggestion) { c.Priority = ptr(6) },
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "unknown target type",
			mutate:  func(c *models.CandidateSuggestion) { c.TargetType = "newsletter" },
			wantErr: ErrInvalidSuggestion,
		},
		{
			name: "payload of another variant",
			mutate: func(c *models.CandidateSuggestion) {
				c.SuggestionData = &models.ContentGap{SuggestedTitle: "Topic"}
			},
			wantErr: models.ErrTargetTypeMismatch,
		},
		{
			name:    "empty payload",
			mutate:  func(c *models.CandidateSuggestion) { c.SuggestionData = &models.SEOImprovement{} },
			wantErr: models.ErrEmptySuggestionData,
		},
		{
			name:   "no confidence or priority",
			mutate: func(c *models.CandidateSuggestion) { c.ConfidenceScore, c.Priority = nil, nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := valid
			tt.mutate(&candidate)

			err := ValidateCandidate(candidate)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestSuggestions_CreateStoresPending(t *testing.T) {
	env := newTestEnv(t)

	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	assert.NotEmpty(t, suggestion.ID)
	assert.Equal(t, models.SuggestionStatusPending, suggestion.Status)
	assert.Equal(t, "agent-1", suggestion.AgentID)
	assert.Equal(t, testNow, suggestion.CreatedAt)
	assert.Nil(t, suggestion.ReviewedAt)
	assert.Nil(t, suggestion.ReviewedBy)

	stored, err := env.suggestions.FetchByID(t.Context(), suggestion.ID)
	require.NoError(t, err)
	assert.Equal(t, suggestion.SuggestionData, stored.SuggestionData)

	created := env.bus.Published(events.SuggestionCreatedEvent)
	require.Len(t, created, 1)
	assert.Equal(t, suggestion.ID, created[0].(events.SuggestionCreated).SuggestionID)
}

func TestSuggestions_CreateRejectsInvalidCandidate(t *testing.T) {
	env := newTestEnv(t)

	candidate := seoCandidate("article-1")
	candidate.Reasoning = ""

	_, err := env.suggestions.Create(t.Context(), "agent-1", candidate)
	require.ErrorIs(t, err, ErrEmptyReasoning)

	all, err := env.suggestions.List(t.Context(), ListSuggestionsRequest{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, env.bus.Published(events.SuggestionCreatedEvent))
}

func TestSuggestions_ApproveRecordsReviewAndAudit(t *testing.T) {
	env := newTestEnv(t)
	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	approved, err := env.suggestions.Approve(adminCtx(t), suggestion.ID, ptr("looks right"))
	require.NoError(t, err)

	assert.Equal(t, models.SuggestionStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "admin-1", *approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, testNow, *approved.ReviewedAt)

	history, err := env.suggestions.History(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ActionTypeApprove, history[0].ActionType)
	assert.Equal(t, "admin-1", history[0].AdminID)
	assert.Equal(t, "looks right", *history[0].AdminReasoning)
	assert.JSONEq(t, `{"meta_title":"A Better Title For Search Engines","meta_description":"A description that fits the recommended length for result pages."}`,
		string(history[0].OriginalData))

	changed := env.bus.Published(events.SuggestionStatusChangedEvent)
	require.Len(t, changed, 1)

	event := changed[0].(events.SuggestionStatusChanged)
	assert.Equal(t, models.SuggestionStatusPending, event.OldStatus)
	assert.Equal(t, models.SuggestionStatusApproved, event.NewStatus)
	assert.False(t, event.IsAutomated())
}

func TestSuggestions_DecisionsRequireActor(t *testing.T) {
	env := newTestEnv(t)
	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	_, err := env.suggestions.Approve(t.Context(), suggestion.ID, nil)
	require.ErrorIs(t, err, ErrActorRequired)

	stored, err := env.suggestions.FetchByID(t.Context(), suggestion.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionStatusPending, stored.Status)
}

func TestSuggestions_InvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminCtx(t)

	rejected := env.createSuggestion(t, seoCandidate("article-1"))
	_, err := env.suggestions.Reject(ctx, rejected.ID, ptr("off-brand"))
	require.NoError(t, err)

	_, err = env.suggestions.Approve(ctx, rejected.ID, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsConflictError(err))

	_, err = env.suggestions.Reject(ctx, rejected.ID, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	approved := env.createSuggestion(t, seoCandidate("article-1"))
	_, err = env.suggestions.Approve(ctx, approved.ID, nil)
	require.NoError(t, err)

	_, err = env.suggestions.Reject(ctx, approved.ID, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	history, err := env.suggestions.History(t.Context(), rejected.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSuggestions_DismissEndsRejected(t *testing.T) {
	env := newTestEnv(t)
	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	dismissed, err := env.suggestions.Dismiss(adminCtx(t), suggestion.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionStatusRejected, dismissed.Status)

	history, err := env.suggestions.History(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ActionTypeDismiss, history[0].ActionType)
}

func TestSuggestions_ExpiredCannotBeApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminCtx(t)

	candidate := seoCandidate("article-1")
	candidate.ExpiresAt = ptr(testNow.Add(-time.Hour))
	expired := env.createSuggestion(t, candidate)

	_, err := env.suggestions.Approve(ctx, expired.ID, nil)
	require.ErrorIs(t, err, ErrSuggestionExpired)

	rejected, err := env.suggestions.Reject(ctx, expired.ID, ptr("stale"))
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionStatusRejected, rejected.Status)
}

func TestSuggestions_ConcurrentDecisionsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losers []error
	)

	decide := func(fn func() error) {
		defer wg.Done()

		err := fn()

		mu.Lock()
		defer mu.Unlock()

		if err == nil {
			wins++
		} else {
			losers = append(losers, err)
		}
	}

	for range 5 {
		wg.Add(2)

		go decide(func() error {
			_, err := env.suggestions.Approve(WithActor(t.Context(), "alice"), suggestion.ID, nil)

			return err
		})
		go decide(func() error {
			_, err := env.suggestions.Reject(WithActor(t.Context(), "bob"), suggestion.ID, nil)

			return err
		})
	}

	wg.Wait()

	assert.Equal(t, 1, wins)
	require.Len(t, losers, 9)

	for _, err := range losers {
		assert.True(t, IsConflictError(err), "unexpected error: %v", err)
	}

	history, err := env.suggestions.History(t.Context(), suggestion.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 0, env.suggestions.locks.Len())
}

func TestSuggestions_EditKeepsBothVersions(t *testing.T) {
	env := newTestEnv(t)
	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	edited, err := env.suggestions.Edit(adminCtx(t), suggestion.ID,
		&models.SEOImprovement{MetaTitle: ptr("Edited Title")}, ptr("tighter"))
	require.NoError(t, err)

	assert.Equal(t, models.SuggestionStatusPending, edited.Status)
	assert.Equal(t, &models.SEOImprovement{MetaTitle: ptr("Edited Title")}, edited.SuggestionData)

	history, err := env.suggestions.History(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ActionTypeEdit, history[0].ActionType)
	assert.Contains(t, string(history[0].OriginalData), "A Better Title For Search Engines")
	assert.JSONEq(t, `{"meta_title":"Edited Title"}`, string(history[0].ModifiedData))
	assert.Len(t, env.bus.Published(events.SuggestionEditedEvent), 1)
}

func TestSuggestions_EditRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminCtx(t)
	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	_, err := env.suggestions.Edit(ctx, suggestion.ID, &models.ContentGap{SuggestedTitle: "Other"}, nil)
	require.ErrorIs(t, err, models.ErrTargetTypeMismatch)

	_, err = env.suggestions.Approve(ctx, suggestion.ID, nil)
	require.NoError(t, err)

	_, err = env.suggestions.Edit(ctx, suggestion.ID, &models.SEOImprovement{MetaTitle: ptr("Late")}, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSuggestions_AuditOrderFollowsDecisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminCtx(t)
	suggestion := env.createSuggestion(t, seoCandidate("article-1"))

	_, err := env.suggestions.Edit(ctx, suggestion.ID, &models.SEOImprovement{MetaTitle: ptr("First")}, nil)
	require.NoError(t, err)
	_, err = env.suggestions.Edit(ctx, suggestion.ID, &models.SEOImprovement{MetaTitle: ptr("Second")}, nil)
	require.NoError(t, err)
	_, err = env.suggestions.Approve(ctx, suggestion.ID, nil)
	require.NoError(t, err)

	history, err := env.suggestions.History(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.ActionTypeEdit, history[0].ActionType)
	assert.Equal(t, models.ActionTypeEdit, history[1].ActionType)
	assert.Equal(t, models.ActionTypeApprove, history[2].ActionType)
	assert.JSONEq(t, `{"meta_title":"Second"}`, string(history[2].OriginalData))
}

func TestSuggestions_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminCtx(t)

	first := env.createSuggestion(t, seoCandidate("article-1"))
	env.createSuggestion(t, seoCandidate("article-2"))
	env.createSuggestion(t, models.CandidateSuggestion{
		TargetType:     models.TargetTypeContentGap,
		SuggestionData: &models.ContentGap{SuggestedTitle: "Budget Travel in 2025"},
		Reasoning:      "No coverage for travel.",
	})

	_, err := env.suggestions.Approve(ctx, first.ID, nil)
	require.NoError(t, err)

	pending := models.SuggestionStatusPending
	list, err := env.suggestions.List(t.Context(), ListSuggestionsRequest{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = env.suggestions.List(t.Context(), ListSuggestionsRequest{TargetType: models.TargetTypeContentGap})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = env.suggestions.List(t.Context(), ListSuggestionsRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	bogus := models.SuggestionStatus("archived")
	_, err = env.suggestions.List(t.Context(), ListSuggestionsRequest{Status: &bogus})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSuggestions_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.suggestions.Approve(adminCtx(t), "missing", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = env.suggestions.History(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
}
