package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, endpoint string, timeout time.Duration) *Client {
	t.Helper()

	client, err := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), Config{
		Endpoint: endpoint,
		Token:    "secret",
		Timeout:  timeout,
	})
	require.NoError(t, err)

	return client
}

func history(n int) []Turn {
	turns := make([]Turn, n)
	for i := range turns {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}

		turns[i] = Turn{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}

	return turns
}

func TestClient_AskSuccess(t *testing.T) {
	var got request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response{
			Success: true,
			Answer:  "Mortgage rates rose again this week.",
			References: []Reference{
				{Title: "Rates climb", URL: "/a/1", Category: "Finance", Author: "Dana"},
				{Title: "Housing outlook", URL: "/a/2", Category: "Housing"},
				{Title: "Third", URL: "/a/3", Category: "Finance"},
			},
		})
	}))
	defer server.Close()

	msg, err := newClient(t, server.URL, 0).Ask(t.Context(), "  mortgage rates ", history(14))
	require.NoError(t, err)

	assert.Equal(t, "mortgage rates", got.Query)
	assert.Equal(t, "en", got.Language)
	require.Len(t, got.ConversationHistory, MaxHistoryTurns)
	assert.Equal(t, "turn 4", got.ConversationHistory[0].Content)

	assert.False(t, msg.IsError)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "Mortgage rates rose again this week.", msg.Content)
	require.Len(t, msg.References, MaxReferencesShown)
	assert.Equal(t, []string{
		"Show me more articles about Finance",
		"Show me more articles about Housing",
		"What else has Dana written?",
	}, msg.Suggestions)
	assert.NotEmpty(t, msg.ID)
}

func TestClient_AskFailuresBecomeApology(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "unsuccessful",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(response{Success: false, Error: "index offline"})
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			msg, err := newClient(t, server.URL, 100*time.Millisecond).Ask(t.Context(), "hello", nil)
			require.NoError(t, err)

			assert.True(t, msg.IsError)
			assert.Equal(t, apologyMessage, msg.Content)
			assert.Empty(t, msg.References)
			assert.Empty(t, msg.Suggestions)
		})
	}
}

func TestClient_Validation(t *testing.T) {
	_, err := NewClient(slog.Default(), Config{})
	assert.ErrorIs(t, err, ErrEndpointRequired)

	_, err = newClient(t, "http://127.0.0.1:0", 0).Ask(t.Context(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRecentHistory(t *testing.T) {
	assert.Equal(t, []Turn{}, RecentHistory(nil))
	assert.Len(t, RecentHistory(history(3)), 3)

	trimmed := RecentHistory(history(12))
	require.Len(t, trimmed, MaxHistoryTurns)
	assert.Equal(t, "turn 2", trimmed[0].Content)
	assert.Equal(t, "turn 11", trimmed[9].Content)
}

func TestFollowUps_FallsBackToQuery(t *testing.T) {
	assert.Equal(t, []string{`Tell me more about "elections"`}, FollowUps("elections", nil))
}

func TestReveal(t *testing.T) {
	var frames []string
	for frame := range Reveal(t.Context(), "one  two three", time.Millisecond) {
		frames = append(frames, frame)
	}

	assert.Equal(t, []string{"one", "one two", "one two three"}, frames)

	ctx, cancel := context.WithCancel(t.Context())
	stream := Reveal(ctx, "a b c d e f", time.Hour)
	assert.Equal(t, "a", <-stream)
	cancel()

	_, open := <-stream
	assert.False(t, open)
}
