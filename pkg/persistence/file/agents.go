package file

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// AgentRepository handles agent file operations.
type AgentRepository struct {
	mu    *sync.RWMutex
	table *table[models.AIAgent]
}

// Save creates or updates an agent. Names must be unique across agents.
func (ar *AgentRepository) Save(_ context.Context, agent *models.AIAgent) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	agents, err := ar.table.all()
	if err != nil {
		return persistence.NewRecordError("Save", "ai_agents", agent.ID, err)
	}

	for _, existing := range agents {
		if existing.Name == agent.Name && existing.ID != agent.ID {
			return persistence.NewRecordError("Save", "ai_agents", agent.ID, persistence.ErrAgentNameTaken)
		}
	}

	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	return ar.table.write(agent.ID, agent)
}

// GetByID retrieves an agent by its ID.
func (ar *AgentRepository) GetByID(_ context.Context, id string) (*models.AIAgent, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	agent, err := ar.table.read(id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "ai_agents", id, err)
	}

	if agent == nil {
		return nil, persistence.NewRecordError("GetByID", "ai_agents", id, persistence.ErrAgentNotFound)
	}

	return agent, nil
}

// GetByName retrieves an agent by its unique name.
func (ar *AgentRepository) GetByName(_ context.Context, name string) (*models.AIAgent, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	agents, err := ar.table.all()
	if err != nil {
		return nil, persistence.NewRecordError("GetByName", "ai_agents", name, err)
	}

	for _, agent := range agents {
		if agent.Name == name {
			return agent, nil
		}
	}

	return nil, persistence.NewRecordError("GetByName", "ai_agents", name, persistence.ErrAgentNotFound)
}

// List returns all agents ordered by name.
func (ar *AgentRepository) List(_ context.Context) ([]*models.AIAgent, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	agents, err := ar.table.all()
	if err != nil {
		return nil, persistence.NewRecordError("List", "ai_agents", "", err)
	}

	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })

	return agents, nil
}

// ListActive returns active agents ordered by name. The system agent is never listed.
func (ar *AgentRepository) ListActive(ctx context.Context) ([]*models.AIAgent, error) {
	agents, err := ar.List(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*models.AIAgent, 0, len(agents))

	for _, agent := range agents {
		if agent.IsActive && !agent.IsSystem() {
			active = append(active, agent)
		}
	}

	return active, nil
}
