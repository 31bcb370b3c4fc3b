// Package seooptimizer flags published articles whose title or excerpt fall outside
// search-friendly length bounds and proposes trimmed or extended metadata.
//
// Scoring: each issue's confidence is 0.6 plus 0.4 times its relative deviation from the
// nearest bound (capped at 1). The suggestion carries the highest issue confidence.
// Title problems get priority 2, excerpt-only problems priority 3.
package seooptimizer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukex/pressdesk/pkg/agents"
	"github.com/dukex/pressdesk/pkg/models"
)

type Config struct {
	TitleMin       int
	TitleMax       int
	ExcerptMin     int
	ExcerptMax     int
	MaxSuggestions int
	ExpiresInDays  int
}

type Agent struct {
	config Config
	now    func() time.Time
}

func NewAgent(config Config) *Agent {
	return &Agent{config: config, now: time.Now}
}

// WithClock replaces the agent's time source.
func (a *Agent) WithClock(now func() time.Time) *Agent {
	a.now = now

	return a
}

func (a *Agent) Analyze(ctx context.Context, analysisCtx models.AnalysisContext) ([]models.CandidateSuggestion, error) {
	now := a.now()
	candidates := make([]models.CandidateSuggestion, 0)

	for _, article := range analysisCtx.Articles {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if article == nil || !article.IsPublished() {
			continue
		}

		if a.config.MaxSuggestions > 0 && len(candidates) >= a.config.MaxSuggestions {
			break
		}

		candidate, ok := a.inspect(article, now)
		if ok {
			candidates = append(candidates, candidate)
		}
	}

	return candidates, nil
}

func (a *Agent) inspect(article *models.Article, now time.Time) (models.CandidateSuggestion, bool) {
	var (
		data       models.SEOImprovement
		reasons    []string
		confidence float64
		priority   = 3
	)

	titleLen := utf8.RuneCountInString(strings.TrimSpace(article.Title))

	switch {
	case titleLen > a.config.TitleMax:
		data.MetaTitle = agents.Ptr(agents.Truncate(article.Title, a.config.TitleMax))
		reasons = append(reasons, fmt.Sprintf("title is %d characters, above the %d limit", titleLen, a.config.TitleMax))
		confidence = max(confidence, score(titleLen, a.config.TitleMax))
		priority = 2
	case titleLen < a.config.TitleMin && article.Category != "":
		extended := agents.Truncate(article.Title+" | "+article.Category, a.config.TitleMax)
		if extended != article.Title {
			data.MetaTitle = agents.Ptr(extended)
			reasons = append(reasons, fmt.Sprintf("title is %d characters, below the %d minimum", titleLen, a.config.TitleMin))
			confidence = max(confidence, score(titleLen, a.config.TitleMin))
			priority = 2
		}
	}

	excerptLen := utf8.RuneCountInString(strings.TrimSpace(article.Excerpt))

	switch {
	case excerptLen > a.config.ExcerptMax:
		data.MetaDescription = agents.Ptr(agents.Truncate(article.Excerpt, a.config.ExcerptMax))
		reasons = append(reasons, fmt.Sprintf("excerpt is %d characters, above the %d limit", excerptLen, a.config.ExcerptMax))
		confidence = max(confidence, score(excerptLen, a.config.ExcerptMax))
	case excerptLen < a.config.ExcerptMin:
		description := agents.Truncate(plainText(article.Content), a.config.ExcerptMax)
		if utf8.RuneCountInString(description) > excerptLen {
			data.MetaDescription = agents.Ptr(description)
			reasons = append(reasons, fmt.Sprintf("excerpt is %d characters, below the %d minimum", excerptLen, a.config.ExcerptMin))
			confidence = max(confidence, score(excerptLen, a.config.ExcerptMin))
		}
	}

	if len(reasons) == 0 {
		return models.CandidateSuggestion{}, false
	}

	return models.CandidateSuggestion{
		TargetType:      models.TargetTypeSEO,
		TargetID:        agents.Ptr(article.ID),
		SuggestionData:  &data,
		Reasoning:       fmt.Sprintf("%q: %s.", article.Title, strings.Join(reasons, "; ")),
		ConfidenceScore: agents.Ptr(confidence),
		Priority:        agents.Ptr(priority),
		ExpiresAt:       agents.ExpiresAt(now, a.config.ExpiresInDays),
	}, true
}

func score(length, bound int) float64 {
	if bound == 0 {
		return 1
	}

	deviation := float64(length-bound) / float64(bound)
	if deviation < 0 {
		deviation = -deviation
	}

	return agents.Clamp(0.6+0.4*deviation, 0.6, 1)
}

// plainText collapses whitespace and drops markdown heading and emphasis markers.
func plainText(content string) string {
	replacer := strings.NewReplacer("#", "", "*", "", "_", "", "`", "")

	return strings.Join(strings.Fields(replacer.Replace(content)), " ")
}
