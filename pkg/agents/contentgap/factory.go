package contentgap

import (
	"errors"

	"github.com/dukex/pressdesk/pkg/agents"
	"github.com/dukex/pressdesk/pkg/protocol"
)

const (
	defaultMinArticles   = 3
	defaultWindowDays    = 90
	defaultExpiresInDays = 30
)

var errNoCategories = errors.New("content_gap: target_categories must list at least one category")

type AgentFactory struct{}

func NewAgentFactory() *AgentFactory {
	return &AgentFactory{}
}

func (*AgentFactory) ID() string {
	return "content_gap"
}

func (*AgentFactory) Name() string {
	return "Content Gap Detector"
}

func (*AgentFactory) Description() string {
	return "Proposes new articles for target categories with too little recent coverage."
}

func (f *AgentFactory) Create(config map[string]any) (protocol.Agent, error) {
	cfg := Config{
		TargetCategories: agents.StringsOption(config, "target_categories"),
		MinArticles:      agents.IntOption(config, "min_articles", defaultMinArticles),
		WindowDays:       agents.IntOption(config, "window_days", defaultWindowDays),
		ExpiresInDays:    agents.IntOption(config, "expires_in_days", defaultExpiresInDays),
	}

	if len(cfg.TargetCategories) == 0 {
		return nil, errNoCategories
	}

	if cfg.MinArticles < 1 {
		cfg.MinArticles = defaultMinArticles
	}

	return NewAgent(cfg), nil
}

func (f *AgentFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_categories": map[string]any{
				"type":        "array",
				"description": "Categories the site wants steady coverage of",
				"items":       map[string]any{"type": "string", "minLength": 1},
				"minItems":    1,
				"examples":    []any{[]string{"Technology", "Health", "Culture"}},
			},
			"min_articles": map[string]any{
				"type":        "integer",
				"description": "Published articles per category expected within the window",
				"default":     defaultMinArticles,
				"minimum":     1,
			},
			"window_days": map[string]any{
				"type":        "integer",
				"description": "How far back to count published articles",
				"default":     defaultWindowDays,
				"minimum":     1,
			},
			"expires_in_days": map[string]any{
				"type":        "integer",
				"description": "Days until an emitted suggestion expires (0 for never)",
				"default":     defaultExpiresInDays,
				"minimum":     0,
			},
		},
		"required": []string{"target_categories"},
	}
}
