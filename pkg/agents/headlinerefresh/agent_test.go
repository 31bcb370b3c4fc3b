package headlinerefresh_test

import (
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/agents/headlinerefresh"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestAgent_StaleArticlesAndHero(t *testing.T) {
	t.Parallel()

	agent := headlinerefresh.NewAgent(headlinerefresh.Config{
		MaxAgeDays:  100,
		FeatureHero: true,
	}).WithClock(func() time.Time { return fixedNow })

	day := 24 * time.Hour
	articles := []*models.Article{
		{ID: "fresh", Title: "Fresh", Excerpt: "New!", Status: models.ArticleStatusPublished, PublishedDate: fixedNow.Add(-day)},
		{ID: "ancient", Title: "Ancient", Status: models.ArticleStatusPublished, PublishedDate: fixedNow.Add(-300 * day)},
		{ID: "old", Title: "Old", Status: models.ArticleStatusPublished, PublishedDate: fixedNow.Add(-150 * day)},
		{ID: "draft", Title: "Draft", Status: models.ArticleStatusDraft, PublishedDate: fixedNow.Add(-500 * day)},
	}

	candidates, err := agent.Analyze(t.Context(), models.AnalysisContext{Articles: articles})
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "ancient", *candidates[0].TargetID)
	assert.InDelta(t, 0.9, *candidates[0].ConfidenceScore, 0.0001)
	assert.Equal(t, "old", *candidates[1].TargetID)
	assert.InDelta(t, 0.7, *candidates[1].ConfidenceScore, 0.0001)

	improvement, ok := candidates[0].SuggestionData.(*models.ArticleImprovement)
	require.True(t, ok)
	require.NotNil(t, improvement.ContentAppend)
	assert.Contains(t, *improvement.ContentAppend, "2025-06-01")

	hero := candidates[2]
	assert.Equal(t, models.TargetTypeHeroSection, hero.TargetType)

	feature, ok := hero.SuggestionData.(*models.HeroFeature)
	require.True(t, ok)
	assert.Equal(t, "fresh", feature.ArticleID)
	assert.Equal(t, "Fresh", feature.Headline)
	assert.Equal(t, "New!", feature.Subheadline)
}

func TestAgent_NoPublishedArticles(t *testing.T) {
	t.Parallel()

	agent, err := headlinerefresh.NewAgentFactory().Create(nil)
	require.NoError(t, err)

	candidates, err := agent.Analyze(t.Context(), models.AnalysisContext{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
