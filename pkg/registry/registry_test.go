package registry_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	config map[string]any
}

func (a *stubAgent) Analyze(context.Context, models.AnalysisContext) ([]models.CandidateSuggestion, error) {
	return nil, nil
}

type stubAgentFactory struct{}

func (stubAgentFactory) ID() string          { return "stub" }
func (stubAgentFactory) Name() string        { return "Stub" }
func (stubAgentFactory) Description() string { return "Does nothing" }

func (stubAgentFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"threshold": map[string]any{"type": "number", "minimum": 0},
		},
		"required": []string{"threshold"},
	}
}

func (stubAgentFactory) Create(config map[string]any) (protocol.Agent, error) {
	return &stubAgent{config: config}, nil
}

type stubActionFactory struct{ id string }

func (f stubActionFactory) ID() string           { return f.id }
func (stubActionFactory) Name() string           { return "Stub action" }
func (stubActionFactory) Description() string    { return "" }
func (stubActionFactory) Schema() map[string]any { return nil }

func (stubActionFactory) Create(map[string]any) (protocol.Action, error) {
	return nil, nil
}

func newRegistry() *registry.Registry {
	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.RegisterAgent(stubAgentFactory{})
	reg.RegisterAction(stubActionFactory{id: "b_action"})
	reg.RegisterAction(stubActionFactory{id: "a_action"})

	return reg
}

func TestRegistry_CreateAgent(t *testing.T) {
	t.Parallel()

	reg := newRegistry()

	agent, err := reg.CreateAgent("stub", map[string]any{"threshold": 0.5})
	require.NoError(t, err)

	stub, ok := agent.(*stubAgent)
	require.True(t, ok)
	assert.InDelta(t, 0.5, stub.config["threshold"], 0.0001)
}

func TestRegistry_CreateAgent_InvalidConfig(t *testing.T) {
	t.Parallel()

	reg := newRegistry()

	_, err := reg.CreateAgent("stub", nil)
	require.Error(t, err)
	assert.True(t, registry.IsConfigError(err))

	var configErr *registry.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "stub", configErr.Type)
	assert.NotEmpty(t, configErr.Problems)

	_, err = reg.CreateAgent("stub", map[string]any{"threshold": -1})
	assert.True(t, registry.IsConfigError(err))
}

func TestRegistry_UnknownTypes(t *testing.T) {
	t.Parallel()

	reg := newRegistry()

	_, err := reg.CreateAgent("missing", nil)
	require.ErrorIs(t, err, registry.ErrUnknownAgentType)

	_, err = reg.CreateAction("missing", nil)
	require.ErrorIs(t, err, registry.ErrUnknownActionType)

	assert.False(t, reg.HasAgentType("missing"))
	assert.True(t, reg.HasActionType("a_action"))
}

func TestRegistry_TypesAreSorted(t *testing.T) {
	t.Parallel()

	reg := newRegistry()

	actions := reg.ActionTypes()
	require.Len(t, actions, 2)
	assert.Equal(t, "a_action", actions[0].ID)
	assert.Equal(t, "b_action", actions[1].ID)

	agents := reg.AgentTypes()
	require.Len(t, agents, 1)
	assert.Equal(t, "Stub", agents[0].Name)
}

func TestRegistry_LoadAgentPlugins_EmptyDir(t *testing.T) {
	t.Parallel()

	reg := newRegistry()

	factories, err := reg.LoadAgentPlugins(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, factories)

	factories, err = reg.LoadAgentPlugins("")
	require.NoError(t, err)
	assert.Empty(t, factories)
}
