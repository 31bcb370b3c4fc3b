package events_test

import (
	"encoding/json"
	"testing"

	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	original := events.SuggestionStatusChanged{
		BaseEvent:    events.NewBaseEvent("evt-1", events.SuggestionStatusChangedEvent),
		SuggestionID: "sug-1",
		OldStatus:    models.SuggestionStatusPending,
		NewStatus:    models.SuggestionStatusApproved,
		Actor:        models.SystemAdminID,
	}

	payload, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := events.Decode(events.SuggestionStatusChangedEvent, payload)
	require.NoError(t, err)

	changed, ok := decoded.(*events.SuggestionStatusChanged)
	require.True(t, ok)
	assert.Equal(t, "sug-1", changed.SuggestionID)
	assert.Equal(t, models.SuggestionStatusApproved, changed.NewStatus)
	assert.True(t, changed.IsAutomated())
}

func TestDecode_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := events.Decode("nope", []byte(`{}`))
	assert.Error(t, err)
}

func TestEventTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, events.SuggestionCreatedEvent, events.SuggestionCreated{}.GetType())
	assert.Equal(t, events.AgentsBatchCompletedEvent, events.AgentsBatchCompleted{}.GetType())
	assert.Equal(t, events.TaskDueEvent, events.TaskDue{}.GetType())
}
