package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/mocks"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence/file"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.Notification(nil), r.notifications...)
}

type testEnv struct {
	persistence *file.Persistence
	bus         *mocks.MockEventBus
	notifier    *recordingNotifier
	suggestions *Suggestions
	implementer *Implementer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	p := file.NewPersistence(t.TempDir())
	bus := mocks.NewPermissiveEventBus()
	notifier := &recordingNotifier{}

	suggestions := NewSuggestions(logger, p, bus, NewKeyedMutex()).WithClock(func() time.Time { return testNow })

	return &testEnv{
		persistence: p,
		bus:         bus,
		notifier:    notifier,
		suggestions: suggestions,
		implementer: NewImplementer(logger, p, suggestions, notifier),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adminCtx(t *testing.T) context.Context {
	t.Helper()

	return WithActor(t.Context(), "admin-1")
}

func (e *testEnv) saveArticle(t *testing.T, article *models.Article) *models.Article {
	t.Helper()

	if article.Status == "" {
		article.Status = models.ArticleStatusPublished
	}

	require.NoError(t, e.persistence.ArticleRepository().Save(t.Context(), article))

	return article
}

func (e *testEnv) createSuggestion(t *testing.T, candidate models.CandidateSuggestion) *models.AISuggestion {
	t.Helper()

	suggestion, err := e.suggestions.Create(t.Context(), "agent-1", candidate)
	require.NoError(t, err)

	return suggestion
}

func seoCandidate(articleID string) models.CandidateSuggestion {
	return models.CandidateSuggestion{
		TargetType: models.TargetTypeSEO,
		TargetID:   ptr(articleID),
		SuggestionData: &models.SEOImprovement{
			MetaTitle:       ptr("A Better Title For Search Engines"),
			MetaDescription: ptr("A description that fits the recommended length for result pages."),
		},
		Reasoning:       "Title is too short for search results.",
		ConfidenceScore: ptr(0.8),
		Priority:        ptr(2),
	}
}
