package workflow

import (
	"context"

	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
)

// Listen evaluates rules as suggestions are created or decided by an administrator. Status
// changes made by automation are ignored so rule actions never re-trigger evaluation.
// It returns when ctx is done or the stream closes.
func (e *Engine) Listen(ctx context.Context, stream <-chan eventbus.Envelope) {
	e.logger.InfoContext(ctx, "Listening for suggestion events")

	for {
		select {
		case <-ctx.Done():
			return
		case envelope, ok := <-stream:
			if !ok {
				e.logger.InfoContext(ctx, "Event stream closed")

				return
			}

			suggestionID, ok := triggeringSuggestion(envelope.Event)
			if !ok {
				continue
			}

			_, err := e.EvaluateSuggestion(ctx, suggestionID)
			if err != nil {
				e.logger.ErrorContext(ctx, "Rule evaluation failed",
					"suggestion_id", suggestionID, "event_type", envelope.Event.GetType(), "error", err)
			}
		}
	}
}

func triggeringSuggestion(event events.Event) (string, bool) {
	switch e := event.(type) {
	case *events.SuggestionCreated:
		return e.SuggestionID, true
	case events.SuggestionCreated:
		return e.SuggestionID, true
	case *events.SuggestionStatusChanged:
		return e.SuggestionID, !e.IsAutomated()
	case events.SuggestionStatusChanged:
		return e.SuggestionID, !e.IsAutomated()
	default:
		return "", false
	}
}
