// Package contentgap compares recent publishing volume per category against a list of
// target categories and proposes new articles for under-covered ones.
//
// Scoring: with n recent articles in a category and a target of m, confidence is
// 0.5 + 0.5*(m-n)/m. Priority is 1 when the category has no recent coverage,
// 2 when it has less than half the target, 3 otherwise.
package contentgap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/pressdesk/pkg/agents"
	"github.com/dukex/pressdesk/pkg/models"
)

type Config struct {
	TargetCategories []string
	MinArticles      int
	WindowDays       int
	ExpiresInDays    int
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
	since := now.Add(-time.Duration(a.config.WindowDays) * 24 * time.Hour)

	counts := make(map[string]int)

	for _, article := range analysisCtx.Articles {
		if article == nil || !article.IsPublished() || article.PublishedDate.Before(since) {
			continue
		}

		counts[strings.ToLower(strings.TrimSpace(article.Category))]++
	}

	candidates := make([]models.CandidateSuggestion, 0)

	for _, category := range a.config.TargetCategories {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		count := counts[strings.ToLower(category)]
		if count >= a.config.MinArticles {
			continue
		}

		missing := a.config.MinArticles - count

		priority := 3

		switch {
		case count == 0:
			priority = 1
		case count*2 < a.config.MinArticles:
			priority = 2
		}

		candidates = append(candidates, models.CandidateSuggestion{
			TargetType: models.TargetTypeContentGap,
			SuggestionData: &models.ContentGap{
				SuggestedTitle: fmt.Sprintf("%s in %d: What Readers Need to Know", category, now.Year()),
				ContentOutline: outline(category),
				Excerpt:        fmt.Sprintf("A fresh look at %s, a topic that has gone under-covered on the site.", category),
				Category:       category,
			},
			Reasoning: fmt.Sprintf(
				"Category %q has %d published article(s) in the last %d days against a target of %d.",
				category, count, a.config.WindowDays, a.config.MinArticles,
			),
			ConfidenceScore: agents.Ptr(0.5 + 0.5*float64(missing)/float64(a.config.MinArticles)),
			Priority:        agents.Ptr(priority),
			ExpiresAt:       agents.ExpiresAt(now, a.config.ExpiresInDays),
		})
	}

	return candidates, nil
}

func outline(category string) string {
	return strings.Join([]string{
		"1. Why " + category + " matters right now",
		"2. Recent developments",
		"3. What experts are saying",
		"4. What it means for our readers",
	}, "\n")
}
