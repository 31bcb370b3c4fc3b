// Package headlinerefresh proposes update notes for stale published articles and
// suggests featuring the freshest article in the hero section.
//
// Scoring: a stale article's confidence grows linearly from 0.5 at max_age_days to 0.9
// at twice that age. The hero suggestion has a fixed 0.7 confidence.
package headlinerefresh

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dukex/pressdesk/pkg/agents"
	"github.com/dukex/pressdesk/pkg/models"
)

const heroConfidence = 0.7

type Config struct {
	MaxAgeDays     int
	MaxSuggestions int
	FeatureHero    bool
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
	maxAge := time.Duration(a.config.MaxAgeDays) * 24 * time.Hour

	published := make([]*models.Article, 0, len(analysisCtx.Articles))
	for _, article := range analysisCtx.Articles {
		if article != nil && article.IsPublished() {
			published = append(published, article)
		}
	}

	sort.SliceStable(published, func(i, j int) bool {
		return published[i].PublishedDate.Before(published[j].PublishedDate)
	})

	candidates := make([]models.CandidateSuggestion, 0)

	for _, article := range published {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if a.config.MaxSuggestions > 0 && len(candidates) >= a.config.MaxSuggestions {
			break
		}

		age := now.Sub(article.PublishedDate)
		if age <= maxAge {
			break
		}

		ageDays := int(age.Hours() / 24)
		note := fmt.Sprintf(
			"\n\n_Editor's note (%s): this article is under review and will be refreshed with current information._",
			now.Format(time.DateOnly),
		)

		candidates = append(candidates, models.CandidateSuggestion{
			TargetType:     models.TargetTypeArticle,
			TargetID:       agents.Ptr(article.ID),
			SuggestionData: &models.ArticleImprovement{ContentAppend: agents.Ptr(note)},
			Reasoning: fmt.Sprintf(
				"%q was published %d days ago, past the %d day freshness window.",
				article.Title, ageDays, a.config.MaxAgeDays,
			),
			ConfidenceScore: agents.Ptr(staleness(age, maxAge)),
			Priority:        agents.Ptr(4),
			ExpiresAt:       agents.ExpiresAt(now, a.config.ExpiresInDays),
		})
	}

	if a.config.FeatureHero && len(published) > 0 {
		freshest := published[len(published)-1]

		candidates = append(candidates, models.CandidateSuggestion{
			TargetType: models.TargetTypeHeroSection,
			TargetID:   agents.Ptr(freshest.ID),
			SuggestionData: &models.HeroFeature{
				ArticleID:   freshest.ID,
				Headline:    freshest.Title,
				Subheadline: freshest.Excerpt,
			},
			Reasoning:       fmt.Sprintf("%q is the most recently published article.", freshest.Title),
			ConfidenceScore: agents.Ptr(heroConfidence),
			Priority:        agents.Ptr(3),
			ExpiresAt:       agents.ExpiresAt(now, a.config.ExpiresInDays),
		})
	}

	return candidates, nil
}

func staleness(age, maxAge time.Duration) float64 {
	if maxAge <= 0 {
		return 0.9
	}

	over := float64(age-maxAge) / float64(maxAge)

	return agents.Clamp(0.5+0.4*over, 0.5, 0.9)
}
