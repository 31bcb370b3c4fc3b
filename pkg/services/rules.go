package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/google/uuid"
)

var numericOperators = []models.Operator{
	models.OperatorGreaterThan,
	models.OperatorGreaterOrEqual,
	models.OperatorLessThan,
	models.OperatorLessOrEqual,
	models.OperatorEqual,
}

// Rules manages workflow rules and exposes their execution history.
type Rules struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	logger      *slog.Logger
}

func NewRules(logger *slog.Logger, persistence persistence.Persistence, registry *registry.Registry) *Rules {
	return &Rules{
		persistence: persistence,
		registry:    registry,
		logger:      logger.With("module", "rules"),
	}
}

func (r *Rules) Create(ctx context.Context, rule *models.WorkflowRule) (*models.WorkflowRule, error) {
	err := r.Validate(rule)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule.ID = uuid.NewString()
	rule.ExecutionCount = 0
	rule.SuccessRate = 0
	rule.CreatedAt = now
	rule.UpdatedAt = now

	err = r.persistence.WorkflowRuleRepository().Save(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow rule: %w", err)
	}

	return rule, nil
}

// Update replaces a rule's definition. Running aggregates are kept.
func (r *Rules) Update(ctx context.Context, id string, rule *models.WorkflowRule) (*models.WorkflowRule, error) {
	existing, err := r.persistence.WorkflowRuleRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.Validate(rule)
	if err != nil {
		return nil, err
	}

	rule.ID = id
	rule.ExecutionCount = existing.ExecutionCount
	rule.SuccessRate = existing.SuccessRate
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()

	err = r.persistence.WorkflowRuleRepository().Save(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow rule: %w", err)
	}

	return rule, nil
}

// SetEnabled switches a rule on or off without touching its definition.
func (r *Rules) SetEnabled(ctx context.Context, id string, enabled bool) (*models.WorkflowRule, error) {
	rule, err := r.persistence.WorkflowRuleRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled
	rule.UpdatedAt = time.Now().UTC()

	err = r.persistence.WorkflowRuleRepository().Save(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow rule: %w", err)
	}

	return rule, nil
}

func (r *Rules) Delete(ctx context.Context, id string) error {
	_, err := r.persistence.WorkflowRuleRepository().GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = r.persistence.WorkflowRuleRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow rule: %w", err)
	}

	return nil
}

func (r *Rules) FetchByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	return r.persistence.WorkflowRuleRepository().GetByID(ctx, id)
}

// List returns every rule in evaluation order.
func (r *Rules) List(ctx context.Context) ([]*models.WorkflowRule, error) {
	rules, err := r.persistence.WorkflowRuleRepository().List(ctx)
	if err != nil {
		return nil, err
	}

	persistence.SortRules(rules)

	return rules, nil
}

// Executions returns the executions of one rule, newest first.
func (r *Rules) Executions(ctx context.Context, ruleID string) ([]*models.WorkflowExecution, error) {
	_, err := r.persistence.WorkflowRuleRepository().GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	return r.persistence.WorkflowExecutionRepository().ListByRule(ctx, ruleID)
}

// RecentExecutions returns up to limit executions across all rules, newest first.
func (r *Rules) RecentExecutions(ctx context.Context, limit int) ([]*models.WorkflowExecution, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	return r.persistence.WorkflowExecutionRepository().List(ctx, limit)
}

func (r *Rules) FetchExecution(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return r.persistence.WorkflowExecutionRepository().GetByID(ctx, id)
}

// Validate checks a rule before it is persisted.
func (r *Rules) Validate(rule *models.WorkflowRule) error {
	const op = "ValidateRule"

	if rule == nil {
		return NewValidationError(op, "RULE_REQUIRED", "rule is required", ErrInvalidRule)
	}

	rule.Name = strings.TrimSpace(rule.Name)
	if len(rule.Name) < 3 {
		return NewValidationError(op, "INVALID_NAME", "rule name must have at least 3 characters", ErrInvalidRule)
	}

	if len(rule.Conditions) == 0 {
		return NewValidationError(op, "CONDITIONS_REQUIRED", "at least one condition is required", ErrConditionsRequired)
	}

	if len(rule.Actions) == 0 {
		return NewValidationError(op, "ACTIONS_REQUIRED", "at least one action is required", ErrActionsRequired)
	}

	for i, condition := range rule.Conditions {
		err := validateCondition(condition)
		if err != nil {
			return NewValidationError(op, "INVALID_CONDITION", fmt.Sprintf("condition %d: %v", i, err), ErrInvalidCondition)
		}
	}

	for i, action := range rule.Actions {
		if action.Type == models.RuleActionAutoImplement && !rule.Trusted {
			return NewValidationError(
				op, "UNTRUSTED_AUTO_IMPLEMENT",
				fmt.Sprintf("action %d: auto_implement is only allowed on trusted rules", i),
				ErrUntrustedAutoImplement,
			)
		}

		err := r.registry.ValidateActionConfig(string(action.Type), action.Parameters)
		if err != nil {
			return NewValidationError(
				op, "INVALID_ACTION",
				fmt.Sprintf("action %d: %v", i, err),
				errors.Join(ErrInvalidAction, err),
			)
		}
	}

	return nil
}

func validateCondition(condition models.Condition) error {
	switch condition.Type {
	case models.ConditionConfidenceThreshold:
		if !slices.Contains(numericOperators, condition.Operator) {
			return fmt.Errorf("operator %q is not supported for %s", condition.Operator, condition.Type)
		}

		v, ok := condition.NumericValue()
		if !ok || v < 0 || v > 1 {
			return fmt.Errorf("%s value must be a number between 0 and 1", condition.Type)
		}
	case models.ConditionTimeBased:
		if !slices.Contains(numericOperators, condition.Operator) {
			return fmt.Errorf("operator %q is not supported for %s", condition.Operator, condition.Type)
		}

		v, ok := condition.NumericValue()
		if !ok || v < 0 {
			return fmt.Errorf("%s value must be a non-negative number of minutes", condition.Type)
		}
	case models.ConditionAgentType:
		if condition.Operator != models.OperatorEqual {
			return fmt.Errorf("%s only supports the = operator", condition.Type)
		}

		v, ok := condition.StringValue()
		if !ok || strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s value must be a non-empty string", condition.Type)
		}
	case models.ConditionSuggestionType:
		if condition.Operator != models.OperatorEqual {
			return fmt.Errorf("%s only supports the = operator", condition.Type)
		}

		v, ok := condition.StringValue()
		if !ok || !slices.Contains(models.TargetTypes(), models.TargetType(v)) {
			return fmt.Errorf("%s value must be one of the target types", condition.Type)
		}
	default:
		return fmt.Errorf("unknown condition type %q", condition.Type)
	}

	return nil
}
