package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

const agentColumns = `
			id
		  , name
		  , type
		  , description
		  , config
		  , is_active
		  , created_at
		  , updated_at`

// AgentRepository handles agent database operations.
type AgentRepository struct {
	repository
}

// Save inserts or updates an agent.
func (r *AgentRepository) Save(ctx context.Context, agent *models.AIAgent) error {
	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	config, err := json.Marshal(agent.Config)
	if err != nil {
		return persistence.NewRecordError("Save", "ai_agents", agent.ID, fmt.Errorf("failed to marshal config: %w", err))
	}

	query := `
		INSERT INTO ai_agents (id, name, type, description, config, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			config = EXCLUDED.config,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		agent.ID, agent.Name, agent.Type, agent.Description, config, agent.IsActive, agent.CreatedAt, agent.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewRecordError("Save", "ai_agents", agent.ID, persistence.ErrAgentNameTaken)
		}

		return persistence.NewRecordError("Save", "ai_agents", agent.ID, err)
	}

	return nil
}

// GetByID retrieves an agent by its ID.
func (r *AgentRepository) GetByID(ctx context.Context, id string) (*models.AIAgent, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+agentColumns+" FROM ai_agents WHERE id = $1", id)

	return r.scanOne("GetByID", id, row)
}

// GetByName retrieves an agent by its unique name.
func (r *AgentRepository) GetByName(ctx context.Context, name string) (*models.AIAgent, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+agentColumns+" FROM ai_agents WHERE name = $1", name)

	return r.scanOne("GetByName", name, row)
}

// List returns all agents ordered by name.
func (r *AgentRepository) List(ctx context.Context) ([]*models.AIAgent, error) {
	return r.query(ctx, "List", "SELECT"+agentColumns+" FROM ai_agents ORDER BY name")
}

// ListActive returns active agents ordered by name. The system agent is never listed.
func (r *AgentRepository) ListActive(ctx context.Context) ([]*models.AIAgent, error) {
	return r.query(ctx, "ListActive",
		"SELECT"+agentColumns+" FROM ai_agents WHERE is_active AND type <> $1 ORDER BY name", models.SystemAgentType)
}

func (r *AgentRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.AIAgent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRecordError(op, "ai_agents", "", err)
	}

	defer r.closeRows(ctx, rows)

	agents := make([]*models.AIAgent, 0)

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, persistence.NewRecordError(op, "ai_agents", "", err)
		}

		agents = append(agents, agent)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRecordError(op, "ai_agents", "", err)
	}

	return agents, nil
}

func (r *AgentRepository) scanOne(op, key string, row *sql.Row) (*models.AIAgent, error) {
	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError(op, "ai_agents", key, persistence.ErrAgentNotFound)
		}

		return nil, persistence.NewRecordError(op, "ai_agents", key, err)
	}

	return agent, nil
}

func scanAgent(row scanner) (*models.AIAgent, error) {
	var (
		agent  models.AIAgent
		config []byte
	)

	err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Type,
		&agent.Description,
		&config,
		&agent.IsActive,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(config) > 0 {
		err = json.Unmarshal(config, &agent.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal agent config: %w", err)
		}
	}

	return &agent, nil
}
