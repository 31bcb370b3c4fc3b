package notifications

import (
	"context"
	"fmt"

	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
)

// Consume turns change events into notifications until ctx is done or the stream closes.
// Agent runs and due tasks are reported by their producers and are skipped here.
func (f *Feed) Consume(ctx context.Context, stream <-chan eventbus.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case envelope, ok := <-stream:
			if !ok {
				return
			}

			notification, ok := FromEvent(envelope.Event)
			if !ok {
				continue
			}

			f.Notify(ctx, notification)
		}
	}
}

// FromEvent maps a change event to the notification shown for it.
func FromEvent(event events.Event) (models.Notification, bool) {
	switch e := event.(type) {
	case *events.SuggestionCreated:
		return suggestionCreated(*e), true
	case events.SuggestionCreated:
		return suggestionCreated(e), true
	case *events.SuggestionStatusChanged:
		return statusChanged(*e), true
	case events.SuggestionStatusChanged:
		return statusChanged(e), true
	case *events.SuggestionEdited:
		return suggestionEdited(*e), true
	case events.SuggestionEdited:
		return suggestionEdited(e), true
	case *events.WorkflowExecutionCompleted:
		return executionCompleted(*e), true
	case events.WorkflowExecutionCompleted:
		return executionCompleted(e), true
	case *events.WorkflowExecutionFailed:
		return executionFailed(*e), true
	case events.WorkflowExecutionFailed:
		return executionFailed(e), true
	default:
		return models.Notification{}, false
	}
}

func suggestionCreated(e events.SuggestionCreated) models.Notification {
	message := fmt.Sprintf("A new %s suggestion is waiting for review.", e.TargetType)
	if e.ConfidenceScore != nil {
		message = fmt.Sprintf("A new %s suggestion (%.0f%% confidence) is waiting for review.",
			e.TargetType, *e.ConfidenceScore*100)
	}

	return models.Notification{
		Kind:    string(events.SuggestionCreatedEvent),
		Title:   "New suggestion",
		Message: message,
		Level:   models.NotificationInfo,
		Meta:    map[string]any{"suggestion_id": e.SuggestionID, "agent_id": e.AgentID},
	}
}

func statusChanged(e events.SuggestionStatusChanged) models.Notification {
	level := models.NotificationInfo

	switch e.NewStatus {
	case models.SuggestionStatusApproved, models.SuggestionStatusImplemented:
		level = models.NotificationSuccess
	case models.SuggestionStatusRejected:
		level = models.NotificationWarning
	}

	by := e.Actor
	if e.IsAutomated() {
		by = "automation"
	}

	return models.Notification{
		Kind:    string(events.SuggestionStatusChangedEvent),
		Title:   "Suggestion " + string(e.NewStatus),
		Message: fmt.Sprintf("Suggestion moved from %s to %s by %s.", e.OldStatus, e.NewStatus, by),
		Level:   level,
		Meta: map[string]any{
			"suggestion_id": e.SuggestionID,
			"actor":         e.Actor,
			"automated":     e.IsAutomated(),
		},
	}
}

func suggestionEdited(e events.SuggestionEdited) models.Notification {
	return models.Notification{
		Kind:    string(events.SuggestionEditedEvent),
		Title:   "Suggestion edited",
		Message: fmt.Sprintf("%s edited a suggestion before deciding on it.", e.Actor),
		Level:   models.NotificationInfo,
		Meta:    map[string]any{"suggestion_id": e.SuggestionID, "actor": e.Actor},
	}
}

func executionCompleted(e events.WorkflowExecutionCompleted) models.Notification {
	return models.Notification{
		Kind:    string(events.WorkflowExecutionCompletedEvent),
		Title:   fmt.Sprintf("Rule %q ran", e.RuleName),
		Message: fmt.Sprintf("%d action(s) applied.", e.ActionsExecuted),
		Level:   models.NotificationSuccess,
		Meta: map[string]any{
			"rule_id":       e.RuleID,
			"execution_id":  e.ExecutionID,
			"suggestion_id": e.SuggestionID,
		},
	}
}

func executionFailed(e events.WorkflowExecutionFailed) models.Notification {
	return models.Notification{
		Kind:    string(events.WorkflowExecutionFailedEvent),
		Title:   fmt.Sprintf("Rule %q failed", e.RuleName),
		Message: fmt.Sprintf("%s (%d action(s) applied before the failure and not rolled back)", e.Error, e.ActionsExecuted),
		Level:   models.NotificationError,
		Meta: map[string]any{
			"rule_id":       e.RuleID,
			"execution_id":  e.ExecutionID,
			"suggestion_id": e.SuggestionID,
		},
	}
}
