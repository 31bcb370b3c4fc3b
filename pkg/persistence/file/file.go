// Package file provides file-based persistence for agents, suggestions and workflow rules.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
// A single lock serializes every repository so read-modify-write updates are atomic.
type Persistence struct {
	root string
	mu   sync.RWMutex

	agents      *AgentRepository
	suggestions *SuggestionRepository
	actions     *AdminActionRepository
	rules       *WorkflowRuleRepository
	executions  *WorkflowExecutionRepository
	articles    *ArticleRepository
	tasks       *TaskRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	fp := &Persistence{root: cleanRoot}
	fp.agents = &AgentRepository{mu: &fp.mu, table: newTable[models.AIAgent](cleanRoot, "ai_agents")}
	fp.suggestions = &SuggestionRepository{mu: &fp.mu, table: newTable[models.AISuggestion](cleanRoot, "ai_suggestions")}
	fp.actions = &AdminActionRepository{mu: &fp.mu, table: newTable[actionLog](cleanRoot, "admin_actions_log")}
	fp.rules = &WorkflowRuleRepository{mu: &fp.mu, table: newTable[models.WorkflowRule](cleanRoot, "workflow_rules")}
	fp.executions = &WorkflowExecutionRepository{
		mu:    &fp.mu,
		table: newTable[models.WorkflowExecution](cleanRoot, "workflow_executions"),
	}
	fp.articles = &ArticleRepository{mu: &fp.mu, table: newTable[models.Article](cleanRoot, "articles")}
	fp.tasks = &TaskRepository{mu: &fp.mu, table: newTable[models.Task](cleanRoot, "tasks")}

	return fp
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) AgentRepository() persistence.AgentRepository {
	return fp.agents
}

func (fp *Persistence) SuggestionRepository() persistence.SuggestionRepository {
	return fp.suggestions
}

func (fp *Persistence) AdminActionRepository() persistence.AdminActionRepository {
	return fp.actions
}

func (fp *Persistence) WorkflowRuleRepository() persistence.WorkflowRuleRepository {
	return fp.rules
}

func (fp *Persistence) WorkflowExecutionRepository() persistence.WorkflowExecutionRepository {
	return fp.executions
}

func (fp *Persistence) ArticleRepository() persistence.ArticleRepository {
	return fp.articles
}

func (fp *Persistence) TaskRepository() persistence.TaskRepository {
	return fp.tasks
}
