package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPersister struct {
	agent      string
	candidates []models.CandidateSuggestion
	err        error
}

func (s *stubPersister) PersistCandidates(
	_ context.Context,
	agentName string,
	candidates []models.CandidateSuggestion,
) (*runner.Result, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.agent = agentName
	s.candidates = candidates

	return &runner.Result{AgentName: agentName, Suggestions: make([]*models.AISuggestion, len(candidates))}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validPayload = `{
	"agent": "external-seo",
	"candidates": [{
		"target_type": "seo",
		"target_id": "article-1",
		"suggestion_data": {"meta_title": "Sharper title"},
		"reasoning": "Title is too generic",
		"confidence_score": 0.81
	}]
}`

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{name: "valid", payload: validPayload},
		{name: "not json", payload: `agent=seo`},
		{name: "missing agent", payload: `{"candidates":[{"target_type":"seo","suggestion_data":{"meta_title":"x"}}]}`, want: ErrAgentRequired},
		{name: "no candidates", payload: `{"agent":"seo","candidates":[]}`, want: ErrNoCandidates},
		{name: "unknown target type", payload: `{"agent":"seo","candidates":[{"target_type":"podcast","suggestion_data":{}}]}`, want: models.ErrUnknownTargetType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope, err := Decode([]byte(tt.payload))

			if tt.name == "valid" {
				require.NoError(t, err)
				assert.Equal(t, "external-seo", envelope.Agent)
				require.Len(t, envelope.Candidates, 1)
				assert.Equal(t, models.TargetTypeSEO, envelope.Candidates[0].TargetType)

				return
			}

			require.Error(t, err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr))

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(), ErrQueueRequired)
	assert.Error(t, Config{Queue: DefaultQueue, DB: -1}.Validate())
	assert.NoError(t, Config{Queue: DefaultQueue}.Validate())

	_, err := NewConsumer(testLogger(), nil, &stubPersister{}, Config{})
	assert.ErrorIs(t, err, ErrQueueRequired)
}

func TestConsumer_Handle(t *testing.T) {
	persister := &stubPersister{}
	consumer, err := NewConsumer(testLogger(), nil, persister, Config{Queue: DefaultQueue})
	require.NoError(t, err)

	require.NoError(t, consumer.Handle(t.Context(), []byte(validPayload)))
	assert.Equal(t, "external-seo", persister.agent)
	require.Len(t, persister.candidates, 1)

	data, ok := persister.candidates[0].SuggestionData.(*models.SEOImprovement)
	require.True(t, ok)
	assert.Equal(t, "Sharper title", *data.MetaTitle)
}

func TestConsumer_HandlePersistFailure(t *testing.T) {
	persister := &stubPersister{err: errors.New("agent not found")}
	consumer, err := NewConsumer(testLogger(), nil, persister, Config{Queue: DefaultQueue})
	require.NoError(t, err)

	err = consumer.Handle(t.Context(), []byte(validPayload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external-seo")

	var decodeErr *DecodeError
	assert.False(t, errors.As(err, &decodeErr), "persistence failures are retryable")
}
