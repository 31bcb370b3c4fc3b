// Package postgresql provides PostgreSQL persistence for agents, suggestions and workflow rules.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/persistence/sqlbase"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	agents      *AgentRepository
	suggestions *SuggestionRepository
	actions     *AdminActionRepository
	rules       *WorkflowRuleRepository
	executions  *WorkflowExecutionRepository
	articles    *ArticleRepository
	tasks       *TaskRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	base := repository{db: database, logger: logger}

	return &Persistence{
		db:          database,
		logger:      logger,
		agents:      &AgentRepository{base},
		suggestions: &SuggestionRepository{base},
		actions:     &AdminActionRepository{base},
		rules:       &WorkflowRuleRepository{base},
		executions:  &WorkflowExecutionRepository{base},
		articles:    &ArticleRepository{base},
		tasks:       &TaskRepository{base},
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) AgentRepository() persistence.AgentRepository {
	return p.agents
}

func (p *Persistence) SuggestionRepository() persistence.SuggestionRepository {
	return p.suggestions
}

func (p *Persistence) AdminActionRepository() persistence.AdminActionRepository {
	return p.actions
}

func (p *Persistence) WorkflowRuleRepository() persistence.WorkflowRuleRepository {
	return p.rules
}

func (p *Persistence) WorkflowExecutionRepository() persistence.WorkflowExecutionRepository {
	return p.executions
}

func (p *Persistence) ArticleRepository() persistence.ArticleRepository {
	return p.articles
}

func (p *Persistence) TaskRepository() persistence.TaskRepository {
	return p.tasks
}

// repository carries what every table repository needs.
type repository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r repository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type scanner interface {
	Scan(dest ...any) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return &s.String
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	value := t.Time.UTC()

	return &value
}
