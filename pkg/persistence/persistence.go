// Package persistence provides the data storage abstraction for agents, suggestions and workflow rules.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
)

// Persistence exposes one repository per table.
type Persistence interface {
	AgentRepository() AgentRepository
	SuggestionRepository() SuggestionRepository
	AdminActionRepository() AdminActionRepository
	WorkflowRuleRepository() WorkflowRuleRepository
	WorkflowExecutionRepository() WorkflowExecutionRepository
	ArticleRepository() ArticleRepository
	TaskRepository() TaskRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// AgentRepository stores configured agents. Names are unique.
type AgentRepository interface {
	Save(ctx context.Context, agent *models.AIAgent) error
	GetByID(ctx context.Context, id string) (*models.AIAgent, error)
	GetByName(ctx context.Context, name string) (*models.AIAgent, error)
	List(ctx context.Context) ([]*models.AIAgent, error)
	ListActive(ctx context.Context) ([]*models.AIAgent, error)
}

// ListSuggestionsOptions filters and paginates suggestion listings.
type ListSuggestionsOptions struct {
	Status     *models.SuggestionStatus
	AgentID    string
	TargetType models.TargetType
	Limit      int
	Offset     int
}

// SuggestionRepository stores suggestions. Status changes go through UpdateStatus only.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *models.AISuggestion) error
	GetByID(ctx context.Context, id string) (*models.AISuggestion, error)
	List(ctx context.Context, opts ListSuggestionsOptions) ([]*models.AISuggestion, error)

	// UpdateStatus moves a suggestion from one status to another if its current status is from.
	// It returns ErrStatusConflict when the stored status differs.
	UpdateStatus(
		ctx context.Context,
		id string,
		from, to models.SuggestionStatus,
		reviewedBy string,
		reviewedAt time.Time,
	) (*models.AISuggestion, error)

	// UpdateData replaces the payload of a suggestion whose current status is expected.
	UpdateData(
		ctx context.Context,
		id string,
		expected models.SuggestionStatus,
		data models.SuggestionData,
	) (*models.AISuggestion, error)
}

// AdminActionRepository is the append-only audit log.
type AdminActionRepository interface {
	Append(ctx context.Context, action *models.AdminAction) error
	// ListBySuggestion returns actions in the order they were appended.
	ListBySuggestion(ctx context.Context, suggestionID string) ([]*models.AdminAction, error)
}

// WorkflowRuleRepository stores rules.
type WorkflowRuleRepository interface {
	Save(ctx context.Context, rule *models.WorkflowRule) error
	GetByID(ctx context.Context, id string) (*models.WorkflowRule, error)
	List(ctx context.Context) ([]*models.WorkflowRule, error)
	ListEnabled(ctx context.Context) ([]*models.WorkflowRule, error)
	Delete(ctx context.Context, id string) error
}

// WorkflowExecutionRepository stores rule executions.
type WorkflowExecutionRepository interface {
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	List(ctx context.Context, limit int) ([]*models.WorkflowExecution, error)
	ListByRule(ctx context.Context, ruleID string) ([]*models.WorkflowExecution, error)
	ListBySuggestion(ctx context.Context, suggestionID string) ([]*models.WorkflowExecution, error)
}

// ListArticlesOptions filters article listings.
type ListArticlesOptions struct {
	Status *models.ArticleStatus
}

// ArticleRepository stores site articles.
type ArticleRepository interface {
	Save(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	List(ctx context.Context, opts ListArticlesOptions) ([]*models.Article, error)
}

// TaskRepository stores admin and review tasks.
type TaskRepository interface {
	Save(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, status *models.TaskStatus) ([]*models.Task, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Task, error)
}
