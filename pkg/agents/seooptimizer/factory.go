package seooptimizer

import (
	"errors"

	"github.com/dukex/pressdesk/pkg/agents"
	"github.com/dukex/pressdesk/pkg/protocol"
)

const (
	defaultTitleMin      = 30
	defaultTitleMax      = 60
	defaultExcerptMin    = 70
	defaultExcerptMax    = 160
	defaultMaxSuggestion = 10
	defaultExpiresInDays = 14
)

var errInvalidBounds = errors.New("seo_optimizer: minimum lengths must be below maximum lengths")

// AgentFactory is the factory for the seo_optimizer agent type.
type AgentFactory struct{}

func NewAgentFactory() *AgentFactory {
	return &AgentFactory{}
}

func (*AgentFactory) ID() string {
	return "seo_optimizer"
}

func (*AgentFactory) Name() string {
	return "SEO Optimizer"
}

func (*AgentFactory) Description() string {
	return "Flags titles and excerpts outside search-friendly length bounds and proposes replacement metadata."
}

func (f *AgentFactory) Create(config map[string]any) (protocol.Agent, error) {
	cfg := Config{
		TitleMin:       agents.IntOption(config, "title_min", defaultTitleMin),
		TitleMax:       agents.IntOption(config, "title_max", defaultTitleMax),
		ExcerptMin:     agents.IntOption(config, "excerpt_min", defaultExcerptMin),
		ExcerptMax:     agents.IntOption(config, "excerpt_max", defaultExcerptMax),
		MaxSuggestions: agents.IntOption(config, "max_suggestions", defaultMaxSuggestion),
		ExpiresInDays:  agents.IntOption(config, "expires_in_days", defaultExpiresInDays),
	}

	if cfg.TitleMin >= cfg.TitleMax || cfg.ExcerptMin >= cfg.ExcerptMax {
		return nil, errInvalidBounds
	}

	return NewAgent(cfg), nil
}

func (f *AgentFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title_min": map[string]any{
				"type":        "integer",
				"description": "Shortest acceptable title, in characters",
				"default":     defaultTitleMin,
				"minimum":     1,
			},
			"title_max": map[string]any{
				"type":        "integer",
				"description": "Longest acceptable title, in characters",
				"default":     defaultTitleMax,
				"minimum":     1,
			},
			"excerpt_min": map[string]any{
				"type":        "integer",
				"description": "Shortest acceptable excerpt, in characters",
				"default":     defaultExcerptMin,
				"minimum":     0,
			},
			"excerpt_max": map[string]any{
				"type":        "integer",
				"description": "Longest acceptable excerpt, in characters",
				"default":     defaultExcerptMax,
				"minimum":     1,
			},
			"max_suggestions": map[string]any{
				"type":        "integer",
				"description": "Upper bound on suggestions per run (0 for unlimited)",
				"default":     defaultMaxSuggestion,
				"minimum":     0,
			},
			"expires_in_days": map[string]any{
				"type":        "integer",
				"description": "Days until an emitted suggestion expires (0 for never)",
				"default":     defaultExpiresInDays,
				"minimum":     0,
			},
		},
	}
}
