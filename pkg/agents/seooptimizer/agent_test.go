package seooptimizer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/agents/seooptimizer"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newAgent(t *testing.T, config map[string]any) *seooptimizer.Agent {
	t.Helper()

	agent, err := seooptimizer.NewAgentFactory().Create(config)
	require.NoError(t, err)

	seo, ok := agent.(*seooptimizer.Agent)
	require.True(t, ok)

	return seo.WithClock(func() time.Time { return fixedNow })
}

func TestAgent_LongTitle(t *testing.T) {
	t.Parallel()

	agent := newAgent(t, nil)

	article := &models.Article{
		ID:      "a1",
		Title:   "A remarkably long headline that keeps going well past anything a search engine would show",
		Excerpt: strings.Repeat("x", 100),
		Status:  models.ArticleStatusPublished,
	}

	candidates, err := agent.Analyze(t.Context(), models.AnalysisContext{Articles: []*models.Article{article}})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	candidate := candidates[0]
	assert.Equal(t, models.TargetTypeSEO, candidate.TargetType)
	assert.Equal(t, "a1", *candidate.TargetID)
	assert.NotEmpty(t, candidate.Reasoning)
	assert.Equal(t, 2, *candidate.Priority)
	assert.GreaterOrEqual(t, *candidate.ConfidenceScore, 0.6)
	assert.LessOrEqual(t, *candidate.ConfidenceScore, 1.0)
	require.NotNil(t, candidate.ExpiresAt)
	assert.Equal(t, fixedNow.Add(14*24*time.Hour), *candidate.ExpiresAt)

	data, ok := candidate.SuggestionData.(*models.SEOImprovement)
	require.True(t, ok)
	require.NotNil(t, data.MetaTitle)
	assert.LessOrEqual(t, len([]rune(*data.MetaTitle)), 60)
	assert.Nil(t, data.MetaDescription)
}

func TestAgent_ShortExcerptUsesContent(t *testing.T) {
	t.Parallel()

	agent := newAgent(t, nil)

	article := &models.Article{
		ID:      "a2",
		Title:   "A headline of a perfectly reasonable length",
		Excerpt: "Too short",
		Content: "## Intro\n\nThis article explains how local newsrooms adopted *automation* tools over the past decade and what changed.",
		Status:  models.ArticleStatusPublished,
	}

	candidates, err := agent.Analyze(t.Context(), models.AnalysisContext{Articles: []*models.Article{article}})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	data := candidates[0].SuggestionData.(*models.SEOImprovement)
	require.NotNil(t, data.MetaDescription)
	assert.True(t, strings.HasPrefix(*data.MetaDescription, "Intro This article explains"))
	assert.NotContains(t, *data.MetaDescription, "*")
	assert.Equal(t, 3, *candidates[0].Priority)
}

func TestAgent_SkipsDraftsAndHealthyArticles(t *testing.T) {
	t.Parallel()

	agent := newAgent(t, nil)

	articles := []*models.Article{
		{ID: "draft", Title: "x", Status: models.ArticleStatusDraft},
		{
			ID:      "ok",
			Title:   "A headline of a perfectly reasonable length",
			Excerpt: strings.Repeat("word ", 20),
			Status:  models.ArticleStatusPublished,
		},
	}

	candidates, err := agent.Analyze(t.Context(), models.AnalysisContext{Articles: articles})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestAgent_MaxSuggestions(t *testing.T) {
	t.Parallel()

	agent := newAgent(t, map[string]any{"max_suggestions": 2})

	articles := make([]*models.Article, 0, 5)
	for range 5 {
		articles = append(articles, &models.Article{
			ID:     "a",
			Title:  strings.Repeat("long title ", 10),
			Status: models.ArticleStatusPublished,
		})
	}

	candidates, err := agent.Analyze(t.Context(), models.AnalysisContext{Articles: articles})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestFactory_RejectsInvertedBounds(t *testing.T) {
	t.Parallel()

	_, err := seooptimizer.NewAgentFactory().Create(map[string]any{"title_min": 80, "title_max": 60})
	assert.Error(t, err)
}
