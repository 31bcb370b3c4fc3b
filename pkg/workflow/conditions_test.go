package workflow

import (
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestMatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	suggestion := &models.AISuggestion{
		ID:              "s-1",
		TargetType:      models.TargetTypeSEO,
		ConfidenceScore: ptr(0.95),
		CreatedAt:       now.Add(-45 * time.Minute),
	}
	subject := Subject{Suggestion: suggestion, AgentType: "seo_optimizer", Now: now}

	tests := []struct {
		name       string
		conditions []models.Condition
		subject    Subject
		want       bool
	}{
		{name: "no conditions", want: true},
		{
			name:       "confidence above threshold",
			conditions: []models.Condition{{Type: models.ConditionConfidenceThreshold, Operator: ">", Value: 0.9}},
			want:       true,
		},
		{
			name:       "confidence below threshold",
			conditions: []models.Condition{{Type: models.ConditionConfidenceThreshold, Operator: "<", Value: 0.5}},
			want:       false,
		},
		{
			name:       "confidence equals",
			conditions: []models.Condition{{Type: models.ConditionConfidenceThreshold, Operator: "=", Value: 0.95}},
			want:       true,
		},
		{
			name:       "confidence from string value",
			conditions: []models.Condition{{Type: models.ConditionConfidenceThreshold, Operator: ">=", Value: "0.95"}},
			want:       true,
		},
		{
			name:       "null confidence never matches",
			conditions: []models.Condition{{Type: models.ConditionConfidenceThreshold, Operator: "<", Value: 1.0}},
			subject: Subject{
				Suggestion: &models.AISuggestion{TargetType: models.TargetTypeSEO},
				Now:        now,
			},
			want: false,
		},
		{
			name:       "agent type",
			conditions: []models.Condition{{Type: models.ConditionAgentType, Operator: "=", Value: "seo_optimizer"}},
			want:       true,
		},
		{
			name:       "other agent type",
			conditions: []models.Condition{{Type: models.ConditionAgentType, Operator: "=", Value: "content_gap"}},
			want:       false,
		},
		{
			name:       "suggestion type",
			conditions: []models.Condition{{Type: models.ConditionSuggestionType, Operator: "=", Value: "seo"}},
			want:       true,
		},
		{
			name:       "old enough",
			conditions: []models.Condition{{Type: models.ConditionTimeBased, Operator: ">=", Value: 30}},
			want:       true,
		},
		{
			name:       "too young",
			conditions: []models.Condition{{Type: models.ConditionTimeBased, Operator: ">", Value: 60}},
			want:       false,
		},
		{
			name:       "age counted in whole minutes",
			conditions: []models.Condition{{Type: models.ConditionTimeBased, Operator: "=", Value: 60}},
			subject: Subject{
				Suggestion: &models.AISuggestion{TargetType: models.TargetTypeSEO, CreatedAt: now.Add(-(60*time.Minute + 20*time.Second))},
				Now:        now,
			},
			want: true,
		},
		{
			name:       "partial minute does not round up",
			conditions: []models.Condition{{Type: models.ConditionTimeBased, Operator: ">=", Value: 60}},
			subject: Subject{
				Suggestion: &models.AISuggestion{TargetType: models.TargetTypeSEO, CreatedAt: now.Add(-(59*time.Minute + 50*time.Second))},
				Now:        now,
			},
			want: false,
		},
		{
			name: "all conditions must hold",
			conditions: []models.Condition{
				{Type: models.ConditionConfidenceThreshold, Operator: ">", Value: 0.9},
				{Type: models.ConditionSuggestionType, Operator: "=", Value: "content_gap"},
			},
			want: false,
		},
		{
			name:       "unknown condition type",
			conditions: []models.Condition{{Type: "author", Operator: "=", Value: "x"}},
			want:       false,
		},
		{
			name:       "non numeric threshold",
			conditions: []models.Condition{{Type: models.ConditionConfidenceThreshold, Operator: ">", Value: "high"}},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := subject
			if tt.subject.Suggestion != nil {
				s = tt.subject
			}

			rule := &models.WorkflowRule{Conditions: tt.conditions}
			assert.Equal(t, tt.want, Matches(rule, s))
		})
	}
}
