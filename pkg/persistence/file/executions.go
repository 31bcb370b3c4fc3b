package file

import (
	"context"
	"sort"
	"sync"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// WorkflowExecutionRepository handles workflow execution file operations.
type WorkflowExecutionRepository struct {
	mu    *sync.RWMutex
	table *table[models.WorkflowExecution]
}

// Save creates or updates an execution.
func (er *WorkflowExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	err := er.table.write(execution.ID, execution)
	if err != nil {
		return persistence.NewRecordError("Save", "workflow_executions", execution.ID, err)
	}

	return nil
}

// GetByID retrieves an execution by its ID.
func (er *WorkflowExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	execution, err := er.table.read(id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "workflow_executions", id, err)
	}

	if execution == nil {
		return nil, persistence.NewRecordError("GetByID", "workflow_executions", id, persistence.ErrExecutionNotFound)
	}

	return execution, nil
}

// List returns the most recent executions first.
func (er *WorkflowExecutionRepository) List(_ context.Context, limit int) ([]*models.WorkflowExecution, error) {
	executions, err := er.filter(func(*models.WorkflowExecution) bool { return true })
	if err != nil {
		return nil, persistence.NewRecordError("List", "workflow_executions", "", err)
	}

	return paginate(executions, limit, 0), nil
}

// ListByRule returns executions of a rule, most recent first.
func (er *WorkflowExecutionRepository) ListByRule(_ context.Context, ruleID string) ([]*models.WorkflowExecution, error) {
	executions, err := er.filter(func(e *models.WorkflowExecution) bool { return e.WorkflowRuleID == ruleID })
	if err != nil {
		return nil, persistence.NewRecordError("ListByRule", "workflow_executions", ruleID, err)
	}

	return executions, nil
}

// ListBySuggestion returns executions against a suggestion, most recent first.
func (er *WorkflowExecutionRepository) ListBySuggestion(
	_ context.Context,
	suggestionID string,
) ([]*models.WorkflowExecution, error) {
	executions, err := er.filter(func(e *models.WorkflowExecution) bool { return e.SuggestionID == suggestionID })
	if err != nil {
		return nil, persistence.NewRecordError("ListBySuggestion", "workflow_executions", suggestionID, err)
	}

	return executions, nil
}

func (er *WorkflowExecutionRepository) filter(keep func(*models.WorkflowExecution) bool) ([]*models.WorkflowExecution, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	all, err := er.table.all()
	if err != nil {
		return nil, err
	}

	executions := make([]*models.WorkflowExecution, 0, len(all))

	for _, execution := range all {
		if keep(execution) {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		if executions[i].StartedAt.Equal(executions[j].StartedAt) {
			return executions[i].ID > executions[j].ID
		}

		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}
