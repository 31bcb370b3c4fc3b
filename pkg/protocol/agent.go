// Package protocol defines the interfaces and contracts for pluggable agents and rule actions.
package protocol

import (
	"context"

	"github.com/dukex/pressdesk/pkg/models"
)

// Agent inspects content and proposes candidate suggestions.
//
// Every candidate must carry a non-empty reasoning; an agent that cannot justify a
// suggestion must not emit it.
type Agent interface {
	Analyze(ctx context.Context, analysisCtx models.AnalysisContext) ([]models.CandidateSuggestion, error)
}

// AgentFactory creates agent instances and provides metadata about the agent type.
type AgentFactory interface {
	// ID returns the agent type this factory builds, e.g. "seo_optimizer".
	ID() string

	// Name returns the human-readable name for this agent type
	Name() string

	// Description returns a description of what this agent looks for
	Description() string

	// Schema returns the JSON schema for the agent's config
	Schema() map[string]any

	// Create builds an agent from an already validated config.
	Create(config map[string]any) (Agent, error)
}
