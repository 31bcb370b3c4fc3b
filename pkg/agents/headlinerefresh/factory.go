package headlinerefresh

import (
	"github.com/dukex/pressdesk/pkg/agents"
	"github.com/dukex/pressdesk/pkg/protocol"
)

const (
	defaultMaxAgeDays     = 180
	defaultMaxSuggestions = 5
	defaultExpiresInDays  = 7
)

type AgentFactory struct{}

func NewAgentFactory() *AgentFactory {
	return &AgentFactory{}
}

func (*AgentFactory) ID() string {
	return "headline_refresh"
}

func (*AgentFactory) Name() string {
	return "Headline Refresh"
}

func (*AgentFactory) Description() string {
	return "Flags stale published articles for an update and proposes the freshest article for the hero section."
}

func (f *AgentFactory) Create(config map[string]any) (protocol.Agent, error) {
	return NewAgent(Config{
		MaxAgeDays:     agents.IntOption(config, "max_age_days", defaultMaxAgeDays),
		MaxSuggestions: agents.IntOption(config, "max_suggestions", defaultMaxSuggestions),
		FeatureHero:    agents.BoolOption(config, "feature_hero", true),
		ExpiresInDays:  agents.IntOption(config, "expires_in_days", defaultExpiresInDays),
	}), nil
}

func (f *AgentFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"max_age_days": map[string]any{
				"type":        "integer",
				"description": "Articles older than this are considered stale",
				"default":     defaultMaxAgeDays,
				"minimum":     1,
			},
			"max_suggestions": map[string]any{
				"type":        "integer",
				"description": "Upper bound on stale-article suggestions per run (0 for unlimited)",
				"default":     defaultMaxSuggestions,
				"minimum":     0,
			},
			"feature_hero": map[string]any{
				"type":        "boolean",
				"description": "Also propose the freshest article for the hero section",
				"default":     true,
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
