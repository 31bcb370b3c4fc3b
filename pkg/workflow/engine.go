// Package workflow evaluates administrator-defined rules against suggestions and runs their actions.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/otelhelper"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const pendingPageSize = 100

// Engine matches enabled rules against suggestions and records one execution per fired
// (rule, suggestion) pair. Actions run in order and are not rolled back when a later one fails.
type Engine struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	locks       *services.KeyedMutex
	logger      *slog.Logger
	now         func() time.Time
}

func NewEngine(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
) *Engine {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Engine{
		persistence: persistence,
		registry:    registry,
		publisher:   publisher,
		tracer:      tracer,
		locks:       services.NewKeyedMutex(),
		logger:      logger.With("module", "workflow_engine"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now

	return e
}

// EvaluateSuggestion fires every enabled rule that matches the suggestion and has not fired
// for it before. Expired and terminal suggestions are skipped.
func (e *Engine) EvaluateSuggestion(ctx context.Context, suggestionID string) ([]*models.WorkflowExecution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.evaluate",
		attribute.String(otelhelper.SuggestionIDKey, suggestionID))
	defer span.End()

	unlock := e.locks.Lock("suggestion:" + suggestionID)
	defer unlock()

	logger := e.logger.With("suggestion_id", suggestionID)

	suggestion, err := e.persistence.SuggestionRepository().GetByID(ctx, suggestionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if skip, reason := e.skip(suggestion); skip {
		logger.DebugContext(ctx, "Skipping rule evaluation", "reason", reason)

		return nil, nil
	}

	rules, err := e.persistence.WorkflowRuleRepository().ListEnabled(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list enabled rules: %w", err)
	}

	persistence.SortRules(rules)

	fired, err := e.firedRules(ctx, suggestionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	agentType := e.agentType(ctx, suggestion.AgentID)
	executions := make([]*models.WorkflowExecution, 0)

	for _, rule := range rules {
		if fired[rule.ID] {
			continue
		}

		if !Matches(rule, Subject{Suggestion: suggestion, AgentType: agentType, Now: e.now()}) {
			continue
		}

		execution, err := e.execute(ctx, rule, suggestion)
		if err != nil {
			otelhelper.SetError(span, err)

			return executions, err
		}

		executions = append(executions, execution)

		// Actions may have moved the suggestion on. Later rules see its current state.
		suggestion, err = e.persistence.SuggestionRepository().GetByID(ctx, suggestionID)
		if err != nil {
			return executions, err
		}

		if skip, reason := e.skip(suggestion); skip {
			logger.InfoContext(ctx, "Stopping rule evaluation", "reason", reason, "executions", len(executions))

			break
		}
	}

	span.SetAttributes(attribute.Int("pressdesk.executions", len(executions)))

	return executions, nil
}

// EvaluatePending evaluates every pending suggestion and returns how many executions were recorded.
func (e *Engine) EvaluatePending(ctx context.Context) (int, error) {
	pending := models.SuggestionStatusPending
	ids := make([]string, 0)

	for offset := 0; ; offset += pendingPageSize {
		page, err := e.persistence.SuggestionRepository().List(ctx, persistence.ListSuggestionsOptions{
			Status: &pending,
			Limit:  pendingPageSize,
			Offset: offset,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to list pending suggestions: %w", err)
		}

		for _, s := range page {
			ids = append(ids, s.ID)
		}

		if len(page) < pendingPageSize {
			break
		}
	}

	total := 0

	for _, id := range ids {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		executions, err := e.EvaluateSuggestion(ctx, id)
		if err != nil {
			e.logger.WarnContext(ctx, "Rule evaluation failed", "suggestion_id", id, "error", err)

			continue
		}

		total += len(executions)
	}

	e.logger.InfoContext(ctx, "Evaluated pending suggestions", "suggestions", len(ids), "executions", total)

	return total, nil
}

func (e *Engine) skip(suggestion *models.AISuggestion) (bool, string) {
	if suggestion.Status.IsTerminal() {
		return true, "suggestion is " + string(suggestion.Status)
	}

	if suggestion.IsExpired(e.now()) {
		return true, "suggestion expired"
	}

	return false, ""
}

func (e *Engine) firedRules(ctx context.Context, suggestionID string) (map[string]bool, error) {
	previous, err := e.persistence.WorkflowExecutionRepository().ListBySuggestion(ctx, suggestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	fired := make(map[string]bool, len(previous))
	for _, execution := range previous {
		fired[execution.WorkflowRuleID] = true
	}

	return fired, nil
}

func (e *Engine) agentType(ctx context.Context, agentID string) string {
	agent, err := e.persistence.AgentRepository().GetByID(ctx, agentID)
	if err != nil {
		if !persistence.IsAgentNotFound(err) {
			e.logger.WarnContext(ctx, "Failed to load suggestion agent", "agent_id", agentID, "error", err)
		}

		return ""
	}

	return agent.Type
}

// execute runs the rule's actions in order and records the outcome. An action failure marks
// the execution failed without returning an error; only storage failures are returned.
func (e *Engine) execute(
	ctx context.Context,
	rule *models.WorkflowRule,
	suggestion *models.AISuggestion,
) (*models.WorkflowExecution, error) {
	execution := &models.WorkflowExecution{
		ID:             uuid.NewString(),
		WorkflowRuleID: rule.ID,
		SuggestionID:   suggestion.ID,
		Status:         models.ExecutionStatusPending,
		StartedAt:      e.now(),
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.RuleIDKey, rule.ID),
		attribute.String(otelhelper.RuleNameKey, rule.Name),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.SuggestionIDKey, suggestion.ID),
	)
	defer span.End()

	logger := e.logger.With("rule_id", rule.ID, "rule_name", rule.Name, "suggestion_id", suggestion.ID,
		"execution_id", execution.ID)

	err := e.persistence.WorkflowExecutionRepository().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	execution.Status = models.ExecutionStatusExecuting

	err = e.persistence.WorkflowExecutionRepository().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	logger.InfoContext(ctx, "Executing workflow rule", "actions", len(rule.Actions))

	results, failure := e.runActions(ctx, logger, execution.ID, rule, suggestion.ID)

	completedAt := e.now()
	execution.CompletedAt = &completedAt
	execution.Result = map[string]any{
		"actions_executed": len(results),
		"actions":          results,
	}

	if failure != nil {
		message := failure.Error()
		execution.Status = models.ExecutionStatusFailed
		execution.ErrorMessage = &message

		otelhelper.SetError(span, failure)
		logger.WarnContext(ctx, "Workflow rule failed", "actions_executed", len(results), "error", failure)
	} else {
		execution.Status = models.ExecutionStatusCompleted

		logger.InfoContext(ctx, "Workflow rule completed", "actions_executed", len(results))
	}

	err = e.persistence.WorkflowExecutionRepository().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	err = e.recordOutcome(ctx, rule.ID, failure == nil)
	if err != nil {
		logger.WarnContext(ctx, "Failed to update rule aggregates", "error", err)
	}

	e.publishOutcome(ctx, rule, execution, len(results))

	return execution, nil
}

func (e *Engine) runActions(
	ctx context.Context,
	logger *slog.Logger,
	executionID string,
	rule *models.WorkflowRule,
	suggestionID string,
) ([]map[string]any, error) {
	results := make([]map[string]any, 0, len(rule.Actions))

	for i, ruleAction := range rule.Actions {
		current, err := e.persistence.SuggestionRepository().GetByID(ctx, suggestionID)
		if err != nil {
			return results, fmt.Errorf("action %d (%s): %w", i, ruleAction.Type, err)
		}

		action, err := e.registry.CreateAction(string(ruleAction.Type), ruleAction.Parameters)
		if err != nil {
			return results, fmt.Errorf("action %d (%s): %w", i, ruleAction.Type, err)
		}

		output, err := e.runAction(ctx, action, protocol.ActionContext{
			ExecutionID: executionID,
			Rule:        rule,
			Suggestion:  current,
		}, logger.With("action_index", i))
		if err != nil {
			return results, fmt.Errorf("action %d (%s): %w", i, ruleAction.Type, err)
		}

		results = append(results, map[string]any{
			"type":   string(ruleAction.Type),
			"result": output,
		})
	}

	return results, nil
}

func (e *Engine) runAction(
	ctx context.Context,
	action protocol.Action,
	actx protocol.ActionContext,
	logger *slog.Logger,
) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()

	return action.Execute(ctx, actx, logger)
}

func (e *Engine) recordOutcome(ctx context.Context, ruleID string, success bool) error {
	unlock := e.locks.Lock("rule:" + ruleID)
	defer unlock()

	rule, err := e.persistence.WorkflowRuleRepository().GetByID(ctx, ruleID)
	if err != nil {
		return err
	}

	rule.RecordOutcome(success)

	return e.persistence.WorkflowRuleRepository().Save(ctx, rule)
}

func (e *Engine) publishOutcome(
	ctx context.Context,
	rule *models.WorkflowRule,
	execution *models.WorkflowExecution,
	actionsExecuted int,
) {
	if e.publisher == nil {
		return
	}

	var event events.Event

	if execution.Status == models.ExecutionStatusFailed {
		event = events.WorkflowExecutionFailed{
			BaseEvent:       events.NewBaseEvent(uuid.NewString(), events.WorkflowExecutionFailedEvent),
			ExecutionID:     execution.ID,
			RuleID:          rule.ID,
			RuleName:        rule.Name,
			SuggestionID:    execution.SuggestionID,
			ActionsExecuted: actionsExecuted,
			Error:           *execution.ErrorMessage,
		}
	} else {
		event = events.WorkflowExecutionCompleted{
			BaseEvent:       events.NewBaseEvent(uuid.NewString(), events.WorkflowExecutionCompletedEvent),
			ExecutionID:     execution.ID,
			RuleID:          rule.ID,
			RuleName:        rule.Name,
			SuggestionID:    execution.SuggestionID,
			ActionsExecuted: actionsExecuted,
		}
	}

	err := e.publisher.Publish(ctx, execution.SuggestionID, event)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish execution event", "execution_id", execution.ID, "error", err)
	}
}
