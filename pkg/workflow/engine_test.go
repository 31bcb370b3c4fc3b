package workflow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/actions/autoapprove"
	"github.com/dukex/pressdesk/pkg/actions/autoimplement"
	"github.com/dukex/pressdesk/pkg/actions/createtask"
	"github.com/dukex/pressdesk/pkg/actions/notifyadmin"
	"github.com/dukex/pressdesk/pkg/actions/schedulereview"
	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/mocks"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence/file"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feed struct {
	mu  sync.Mutex
	got []models.Notification
}

func (f *feed) Notify(_ context.Context, n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.got = append(f.got, n)
}

func (f *feed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.got)
}

type harness struct {
	persistence *file.Persistence
	bus         *mocks.MockEventBus
	feed        *feed
	suggestions *services.Suggestions
	engine      *Engine

	mu  sync.Mutex
	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		persistence: file.NewPersistence(t.TempDir()),
		bus:         mocks.NewPermissiveEventBus(),
		feed:        &feed{},
		now:         time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	h.suggestions = services.NewSuggestions(logger, h.persistence, h.bus, services.NewKeyedMutex()).WithClock(h.clock)
	implementer := services.NewImplementer(logger, h.persistence, h.suggestions, h.feed)

	reg := registry.NewRegistry(logger)
	reg.RegisterAction(autoapprove.NewActionFactory(h.suggestions))
	reg.RegisterAction(autoimplement.NewActionFactory(h.suggestions, implementer))
	reg.RegisterAction(notifyadmin.NewActionFactory(h.feed))
	reg.RegisterAction(schedulereview.NewActionFactory(h.persistence.TaskRepository()).WithClock(h.clock))
	reg.RegisterAction(createtask.NewActionFactory(h.persistence.TaskRepository()))

	h.engine = NewEngine(logger, h.persistence, reg, h.bus, nil).WithClock(h.clock)

	require.NoError(t, h.persistence.AgentRepository().Save(t.Context(), &models.AIAgent{
		ID: "agent-seo", Name: "seo", Type: "seo_optimizer", IsActive: true,
	}))

	return h
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.now
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.now = h.now.Add(d)
}

func (h *harness) rule(t *testing.T, rule *models.WorkflowRule) *models.WorkflowRule {
	t.Helper()

	rule.ID = uuid.NewString()
	rule.Enabled = true

	if rule.Name == "" {
		rule.Name = "rule " + rule.ID[:8]
	}

	require.NoError(t, h.persistence.WorkflowRuleRepository().Save(t.Context(), rule))

	return rule
}

func (h *harness) suggestion(t *testing.T, confidence *float64, mutate ...func(*models.CandidateSuggestion)) *models.AISuggestion {
	t.Helper()

	candidate := models.CandidateSuggestion{
		TargetType:      models.TargetTypeSEO,
		TargetID:        ptr("article-1"),
		SuggestionData:  &models.SEOImprovement{MetaTitle: ptr("A Title Long Enough For Search Results")},
		Reasoning:       "Title too short.",
		ConfidenceScore: confidence,
	}

	for _, m := range mutate {
		m(&candidate)
	}

	suggestion, err := h.suggestions.Create(t.Context(), "agent-seo", candidate)
	require.NoError(t, err)

	return suggestion
}

func (h *harness) fetch(t *testing.T, id string) *models.AISuggestion {
	t.Helper()

	suggestion, err := h.persistence.SuggestionRepository().GetByID(t.Context(), id)
	require.NoError(t, err)

	return suggestion
}

func confidenceAbove(v float64) models.Condition {
	return models.Condition{Type: models.ConditionConfidenceThreshold, Operator: models.OperatorGreaterThan, Value: v}
}

func TestEngine_AutoApprovesConfidentSuggestion(t *testing.T) {
	h := newHarness(t)
	rule := h.rule(t, &models.WorkflowRule{
		Name:       "Auto-approve confident",
		Conditions: []models.Condition{confidenceAbove(0.9)},
		Actions:    []models.RuleAction{{Type: models.RuleActionAutoApprove}},
	})
	suggestion := h.suggestion(t, ptr(0.95))

	executions, err := h.engine.EvaluateSuggestion(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, executions, 1)

	execution := executions[0]
	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, rule.ID, execution.WorkflowRuleID)
	assert.Equal(t, 1, execution.Result["actions_executed"])
	require.NotNil(t, execution.CompletedAt)

	stored := h.fetch(t, suggestion.ID)
	assert.Equal(t, models.SuggestionStatusApproved, stored.Status)
	assert.Equal(t, models.SystemAdminID, *stored.ReviewedBy)

	history, err := h.suggestions.History(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsAutomated())

	updated, err := h.persistence.WorkflowRuleRepository().GetByID(t.Context(), rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ExecutionCount)
	assert.InDelta(t, 1.0, updated.SuccessRate, 1e-9)

	assert.Len(t, h.bus.Published(events.WorkflowExecutionCompletedEvent), 1)
}

func TestEngine_NoMatchRecordsNothing(t *testing.T) {
	h := newHarness(t)
	h.rule(t, &models.WorkflowRule{
		Conditions: []models.Condition{confidenceAbove(0.9)},
		Actions:    []models.RuleAction{{Type: models.RuleActionAutoApprove}},
	})

	for _, confidence := range []*float64{ptr(0.5), nil} {
		suggestion := h.suggestion(t, confidence)

		executions, err := h.engine.EvaluateSuggestion(t.Context(), suggestion.ID)
		require.NoError(t, err)
		assert.Empty(t, executions)
		assert.Equal(t, models.SuggestionStatusPending, h.fetch(t, suggestion.ID).Status)
	}
}

func TestEngine_PartialFailureKeepsEarlierActions(t *testing.T) {
	h := newHarness(t)
	rule := h.rule(t, &models.WorkflowRule{
		Trusted:    true,
		Conditions: []models.Condition{confidenceAbove(0.5)},
		Actions: []models.RuleAction{
			{Type: models.RuleActionNotifyAdmin, Parameters: map[string]any{"message": "Implementing {{ .suggestion.id }}"}},
			{Type: models.RuleActionAutoImplement},
			{Type: models.RuleActionCreateTask, Parameters: map[string]any{"title": "never created"}},
		},
	})

	// article-1 does not exist, so implementing fails.
	suggestion := h.suggestion(t, ptr(0.8))

	executions, err := h.engine.EvaluateSuggestion(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, executions, 1)

	execution := executions[0]
	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, 1, execution.Result["actions_executed"])
	require.NotNil(t, execution.ErrorMessage)
	assert.Contains(t, *execution.ErrorMessage, "action 1 (auto_implement)")

	assert.Equal(t, 1, h.feed.count(), "the notification is not rolled back")
	assert.Equal(t, models.SuggestionStatusApproved, h.fetch(t, suggestion.ID).Status)

	tasks, err := h.persistence.TaskRepository().List(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	updated, err := h.persistence.WorkflowRuleRepository().GetByID(t.Context(), rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ExecutionCount)
	assert.InDelta(t, 0.0, updated.SuccessRate, 1e-9)

	assert.Len(t, h.bus.Published(events.WorkflowExecutionFailedEvent), 1)
}

func TestEngine_PairFiresOnce(t *testing.T) {
	h := newHarness(t)
	h.rule(t, &models.WorkflowRule{
		Conditions: []models.Condition{{Type: models.ConditionSuggestionType, Operator: "=", Value: "seo"}},
		Actions:    []models.RuleAction{{Type: models.RuleActionNotifyAdmin, Parameters: map[string]any{"message": "SEO"}}},
	})
	suggestion := h.suggestion(t, ptr(0.4))

	first, err := h.engine.EvaluateSuggestion(t.Context(), suggestion.ID)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := h.engine.EvaluateSuggestion(t.Context(), suggestion.ID)
	require.NoError(t, err)
	assert.Empty(t, second)

	recorded, err := h.persistence.WorkflowExecutionRepository().ListBySuggestion(t.Context(), suggestion.ID)
	require.NoError(t, err)
	assert.Len(t, recorded, 1)
	assert.Equal(t, 1, h.feed.count())
}

func TestEngine_SkipsExpiredAndTerminal(t *testing.T) {
	h := newHarness(t)
	h.rule(t, &models.WorkflowRule{
		Conditions: []models.Condition{confidenceAbove(0.1)},
		Actions:    []models.RuleAction{{Type: models.RuleActionNotifyAdmin, Parameters: map[string]any{"message": "match"}}},
	})

	expired := h.suggestion(t, ptr(0.9), func(c *models.CandidateSuggestion) {
		c.ExpiresAt = ptr(h.clock().Add(-time.Minute))
	})

	rejected := h.suggestion(t, ptr(0.9))
	_, err := h.suggestions.Reject(services.WithActor(t.Context(), "admin"), rejected.ID, nil)
	require.NoError(t, err)

	for _, id := range []string{expired.ID, rejected.ID} {
		executions, err := h.engine.EvaluateSuggestion(t.Context(), id)
		require.NoError(t, err)
		assert.Empty(t, executions)
	}

	assert.Zero(t, h.feed.count())
}

func TestEngine_DisabledRulesAreIgnored(t *testing.T) {
	h := newHarness(t)
	rule := h.rule(t, &models.WorkflowRule{
		Conditions: []models.Condition{confidenceAbove(0.1)},
		Actions:    []models.RuleAction{{Type: models.RuleActionAutoApprove}},
	})
	rule.Enabled = false
	require.NoError(t, h.persistence.WorkflowRuleRepository().Save(t.Context(), rule))

	suggestion := h.suggestion(t, ptr(0.9))

	executions, err := h.engine.EvaluateSuggestion(t.Context(), suggestion.ID)
	require.NoError(t, err)
	assert.Empty(t, executions)
}

func TestEngine_RulesRunInPriorityOrderAndStopWhenTerminal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.persistence.ArticleRepository().Save(t.Context(), &models.Article{
		ID: "article-1", Title: "Short", Status: models.ArticleStatusPublished,
	}))

	seo := models.Condition{Type: models.ConditionAgentType, Operator: "=", Value: "seo_optimizer"}

	implement := h.rule(t, &models.WorkflowRule{
		Name: "implement", Priority: 2, Trusted: true,
		Conditions: []models.Condition{seo},
		Actions:    []models.RuleAction{{Type: models.RuleActionAutoImplement}},
	})
	approve := h.rule(t, &models.WorkflowRule{
		Name: "approve", Priority: 1,
		Conditions: []models.Condition{seo},
		Actions:    []models.RuleAction{{Type: models.RuleActionAutoApprove}},
	})
	h.rule(t, &models.WorkflowRule{
		Name: "notify", Priority: 3,
		Conditions: []models.Condition{seo},
		Actions:    []models.RuleAction{{Type: models.RuleActionNotifyAdmin, Parameters: map[string]any{"message": "late"}}},
	})

	suggestion := h.suggestion(t, nil)

	executions, err := h.engine.EvaluateSuggestion(t.Context(), suggestion.ID)
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, approve.ID, executions[0].WorkflowRuleID)
	assert.Equal(t, implement.ID, executions[1].WorkflowRuleID)
	assert.Equal(t, models.ExecutionStatusCompleted, executions[1].Status)

	assert.Equal(t, models.SuggestionStatusImplemented, h.fetch(t, suggestion.ID).Status)
	assert.Zero(t, h.feed.count())

	article, err := h.persistence.ArticleRepository().GetByID(t.Context(), "article-1")
	require.NoError(t, err)
	assert.Equal(t, "A Title Long Enough For Search Results", article.Title)
}

func TestEngine_EvaluatePendingFiresTimeBasedRules(t *testing.T) {
	h := newHarness(t)
	h.rule(t, &models.WorkflowRule{
		Conditions: []models.Condition{{Type: models.ConditionTimeBased, Operator: ">=", Value: 60}},
		Actions:    []models.RuleAction{{Type: models.RuleActionScheduleReview, Parameters: map[string]any{"delay_minutes": 30}}},
	})
	suggestion := h.suggestion(t, ptr(0.6))

	count, err := h.engine.EvaluatePending(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)

	h.advance(2 * time.Hour)

	count, err = h.engine.EvaluatePending(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	tasks, err := h.persistence.TaskRepository().List(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, suggestion.ID, *tasks[0].SuggestionID)
	assert.Equal(t, models.SuggestionStatusPending, h.fetch(t, suggestion.ID).Status)

	count, err = h.engine.EvaluatePending(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngine_ListenIgnoresAutomatedChanges(t *testing.T) {
	h := newHarness(t)
	h.rule(t, &models.WorkflowRule{
		Conditions: []models.Condition{confidenceAbove(0.5)},
		Actions:    []models.RuleAction{{Type: models.RuleActionNotifyAdmin, Parameters: map[string]any{"message": "seen"}}},
	})

	automated := h.suggestion(t, ptr(0.9))
	created := h.suggestion(t, ptr(0.9))

	stream := make(chan eventbus.Envelope, 4)
	stream <- eventbus.Envelope{Key: automated.ID, Event: &events.SuggestionStatusChanged{
		SuggestionID: automated.ID, OldStatus: "pending", NewStatus: "approved", Actor: models.SystemAdminID,
	}}
	stream <- eventbus.Envelope{Key: created.ID, Event: &events.SuggestionCreated{SuggestionID: created.ID}}
	close(stream)

	h.engine.Listen(t.Context(), stream)

	fired, err := h.persistence.WorkflowExecutionRepository().ListBySuggestion(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, fired, 1)

	ignored, err := h.persistence.WorkflowExecutionRepository().ListBySuggestion(t.Context(), automated.ID)
	require.NoError(t, err)
	assert.Empty(t, ignored)
}

func TestEngine_ListenStopsOnCancel(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})

	go func() {
		h.engine.Listen(ctx, make(chan eventbus.Envelope))
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}
