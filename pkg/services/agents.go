package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/google/uuid"
)

// Agents manages configured agent instances.
type Agents struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	logger      *slog.Logger
}

func NewAgents(logger *slog.Logger, persistence persistence.Persistence, registry *registry.Registry) *Agents {
	return &Agents{
		persistence: persistence,
		registry:    registry,
		logger:      logger.With("module", "agents"),
	}
}

// EnsureSystemAgent returns the sentinel system agent, creating it on first use.
func (a *Agents) EnsureSystemAgent(ctx context.Context) (*models.AIAgent, error) {
	agent, err := a.persistence.AgentRepository().GetByName(ctx, models.SystemAgentName)
	if err == nil {
		return agent, nil
	}

	if !persistence.IsAgentNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	agent = &models.AIAgent{
		ID:          uuid.NewString(),
		Name:        models.SystemAgentName,
		Type:        models.SystemAgentType,
		Description: "Owns automated decisions and suggestions whose agent was removed.",
		Config:      map[string]any{},
		IsActive:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = a.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		if persistence.IsAgentNameTaken(err) {
			return a.persistence.AgentRepository().GetByName(ctx, models.SystemAgentName)
		}

		return nil, fmt.Errorf("failed to create system agent: %w", err)
	}

	a.logger.InfoContext(ctx, "Created system agent", "agent_id", agent.ID)

	return agent, nil
}

// Create registers a new agent after validating its type and config.
func (a *Agents) Create(ctx context.Context, agent *models.AIAgent) (*models.AIAgent, error) {
	err := a.validate("Create", agent)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	agent.ID = uuid.NewString()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	err = a.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		if persistence.IsAgentNameTaken(err) {
			return nil, NewConflictError("Create", "AGENT_NAME_TAKEN", fmt.Sprintf("agent name %q is taken", agent.Name), err)
		}

		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return agent, nil
}

// Update replaces an agent's name, description, config and active flag.
func (a *Agents) Update(ctx context.Context, id string, agent *models.AIAgent) (*models.AIAgent, error) {
	existing, err := a.persistence.AgentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.IsSystem() {
		return nil, NewConflictError("Update", "SYSTEM_AGENT", "the system agent cannot be modified", ErrSystemAgentReadOnly)
	}

	if agent.Type == "" {
		agent.Type = existing.Type
	}

	err = a.validate("Update", agent)
	if err != nil {
		return nil, err
	}

	agent.ID = id
	agent.CreatedAt = existing.CreatedAt
	agent.UpdatedAt = time.Now().UTC()

	err = a.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		if persistence.IsAgentNameTaken(err) {
			return nil, NewConflictError("Update", "AGENT_NAME_TAKEN", fmt.Sprintf("agent name %q is taken", agent.Name), err)
		}

		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	return agent, nil
}

// SetActive toggles whether the agent takes part in batch runs.
func (a *Agents) SetActive(ctx context.Context, id string, active bool) (*models.AIAgent, error) {
	agent, err := a.persistence.AgentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if agent.IsSystem() {
		return nil, NewConflictError("SetActive", "SYSTEM_AGENT", "the system agent cannot be activated", ErrSystemAgentReadOnly)
	}

	agent.IsActive = active
	agent.UpdatedAt = time.Now().UTC()

	err = a.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	return agent, nil
}

func (a *Agents) FetchByID(ctx context.Context, id string) (*models.AIAgent, error) {
	return a.persistence.AgentRepository().GetByID(ctx, id)
}

func (a *Agents) FetchByName(ctx context.Context, name string) (*models.AIAgent, error) {
	return a.persistence.AgentRepository().GetByName(ctx, name)
}

func (a *Agents) List(ctx context.Context) ([]*models.AIAgent, error) {
	return a.persistence.AgentRepository().List(ctx)
}

func (a *Agents) ListActive(ctx context.Context) ([]*models.AIAgent, error) {
	return a.persistence.AgentRepository().ListActive(ctx)
}

// Types lists the agent types that can be configured.
func (a *Agents) Types() []registry.ComponentInfo {
	return a.registry.AgentTypes()
}

func (a *Agents) validate(op string, agent *models.AIAgent) error {
	if agent == nil {
		return NewValidationError(op, "AGENT_REQUIRED", "agent is required", ErrInvalidAgent)
	}

	agent.Name = strings.TrimSpace(agent.Name)
	if len(agent.Name) < 2 {
		return NewValidationError(op, "INVALID_NAME", "agent name must have at least 2 characters", ErrInvalidAgent)
	}

	if agent.Name == models.SystemAgentName || agent.Type == models.SystemAgentType {
		return NewValidationError(op, "RESERVED", "the system agent name and type are reserved", ErrInvalidAgent)
	}

	if agent.Config == nil {
		agent.Config = map[string]any{}
	}

	err := a.registry.ValidateAgentConfig(agent.Type, agent.Config)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownAgentType) {
			return NewValidationError(op, "UNKNOWN_AGENT_TYPE", err.Error(), errors.Join(ErrInvalidAgent, err))
		}

		if registry.IsConfigError(err) {
			return NewValidationError(op, "INVALID_CONFIG", err.Error(), errors.Join(ErrInvalidAgent, err))
		}

		return err
	}

	return nil
}
