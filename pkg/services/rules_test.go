package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence/file"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubActionFactory struct {
	id     models.RuleActionType
	schema map[string]any
}

func (f stubActionFactory) ID() string             { return string(f.id) }
func (f stubActionFactory) Name() string           { return string(f.id) }
func (f stubActionFactory) Description() string    { return "stub" }
func (f stubActionFactory) Schema() map[string]any { return f.schema }
func (f stubActionFactory) Create(map[string]any) (protocol.Action, error) {
	return stubAction{}, nil
}

type stubAction struct{}

func (stubAction) Execute(context.Context, protocol.ActionContext, *slog.Logger) (map[string]any, error) {
	return map[string]any{}, nil
}

func newRulesService(t *testing.T) *Rules {
	t.Helper()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterAction(stubActionFactory{id: models.RuleActionAutoApprove})
	reg.RegisterAction(stubActionFactory{id: models.RuleActionAutoImplement})
	reg.RegisterAction(stubActionFactory{
		id: models.RuleActionScheduleReview,
		schema: map[string]any{
			"type":     "object",
			"required": []string{"delay_minutes"},
			"properties": map[string]any{
				"delay_minutes": map[string]any{"type": "number", "minimum": 0},
			},
		},
	})

	return NewRules(testLogger(), file.NewPersistence(t.TempDir()), reg)
}

func validRule() *models.WorkflowRule {
	return &models.WorkflowRule{
		Name:     "Auto-approve confident SEO",
		Priority: 1,
		Enabled:  true,
		Conditions: []models.Condition{
			{Type: models.ConditionConfidenceThreshold, Operator: models.OperatorGreaterOrEqual, Value: 0.9},
			{Type: models.ConditionSuggestionType, Operator: models.OperatorEqual, Value: "seo"},
		},
		Actions: []models.RuleAction{{Type: models.RuleActionAutoApprove}},
	}
}

func TestRules_Validate(t *testing.T) {
	svc := newRulesService(t)

	tests := []struct {
		name   string
		mutate func(r *models.WorkflowRule)
		want   error
	}{
		{name: "valid", mutate: func(*models.WorkflowRule) {}},
		{name: "short name", mutate: func(r *models.WorkflowRule) { r.Name = "ab" }, want: ErrInvalidRule},
		{name: "no conditions", mutate: func(r *models.WorkflowRule) { r.Conditions = nil }, want: ErrConditionsRequired},
		{name: "no actions", mutate: func(r *models.WorkflowRule) { r.Actions = nil }, want: ErrActionsRequired},
		{
			name:   "confidence above one",
			mutate: func(r *models.WorkflowRule) { r.Conditions[0].Value = 1.5 },
			want:   ErrInvalidCondition,
		},
		{
			name:   "confidence as numeric string",
			mutate: func(r *models.WorkflowRule) { r.Conditions[0].Value = "0.75" },
		},
		{
			name:   "unknown suggestion type",
			mutate: func(r *models.WorkflowRule) { r.Conditions[1].Value = "newsletter" },
			want:   ErrInvalidCondition,
		},
		{
			name: "ordering operator on agent type",
			mutate: func(r *models.WorkflowRule) {
				r.Conditions[1] = models.Condition{Type: models.ConditionAgentType, Operator: ">", Value: "seo"}
			},
			want: ErrInvalidCondition,
		},
		{
			name: "negative age",
			mutate: func(r *models.WorkflowRule) {
				r.Conditions[1] = models.Condition{Type: models.ConditionTimeBased, Operator: ">=", Value: -5}
			},
			want: ErrInvalidCondition,
		},
		{
			name:   "unknown condition type",
			mutate: func(r *models.WorkflowRule) { r.Conditions[1].Type = "author" },
			want:   ErrInvalidCondition,
		},
		{
			name:   "unknown action",
			mutate: func(r *models.WorkflowRule) { r.Actions[0].Type = "publish_tweet" },
			want:   registry.ErrUnknownActionType,
		},
		{
			name: "action parameters violate schema",
			mutate: func(r *models.WorkflowRule) {
				r.Actions = []models.RuleAction{{Type: models.RuleActionScheduleReview, Parameters: map[string]any{"delay_minutes": "soon"}}}
			},
			want: registry.ErrInvalidConfig,
		},
		{
			name: "auto implement on untrusted rule",
			mutate: func(r *models.WorkflowRule) {
				r.Actions = append(r.Actions, models.RuleAction{Type: models.RuleActionAutoImplement})
			},
			want: ErrUntrustedAutoImplement,
		},
		{
			name: "auto implement on trusted rule",
			mutate: func(r *models.WorkflowRule) {
				r.Trusted = true
				r.Actions = append(r.Actions, models.RuleAction{Type: models.RuleActionAutoImplement})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(rule)

			err := svc.Validate(rule)
			if tt.want == nil {
				assert.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestRules_CreateUpdateKeepsAggregates(t *testing.T) {
	svc := newRulesService(t)

	rule, err := svc.Create(t.Context(), validRule())
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.Zero(t, rule.ExecutionCount)

	stored, err := svc.FetchByID(t.Context(), rule.ID)
	require.NoError(t, err)

	stored.RecordOutcome(true)
	stored.RecordOutcome(false)
	require.NoError(t, svc.persistence.WorkflowRuleRepository().Save(t.Context(), stored))

	replacement := validRule()
	replacement.Name = "Renamed rule"
	replacement.ExecutionCount = 99

	updated, err := svc.Update(t.Context(), rule.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, "Renamed rule", updated.Name)
	assert.Equal(t, 2, updated.ExecutionCount)
	assert.InDelta(t, 0.5, updated.SuccessRate, 1e-9)
}

func TestRules_ListIsOrderedByPriority(t *testing.T) {
	svc := newRulesService(t)

	for _, p := range []int{3, 1, 2} {
		rule := validRule()
		rule.Priority = p
		_, err := svc.Create(t.Context(), rule)
		require.NoError(t, err)
	}

	rules, err := svc.List(t.Context())
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, 1, rules[0].Priority)
	assert.Equal(t, 2, rules[1].Priority)
	assert.Equal(t, 3, rules[2].Priority)
}

func TestRules_SetEnabledAndDelete(t *testing.T) {
	svc := newRulesService(t)

	rule, err := svc.Create(t.Context(), validRule())
	require.NoError(t, err)

	disabled, err := svc.SetEnabled(t.Context(), rule.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	require.NoError(t, svc.Delete(t.Context(), rule.ID))

	_, err = svc.FetchByID(t.Context(), rule.ID)
	assert.ErrorIs(t, err, ErrRuleNotFound)

	err = svc.Delete(t.Context(), rule.ID)
	assert.True(t, IsNotFound(err))
}
