package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

const executionColumns = `
			id
		  , workflow_rule_id
		  , suggestion_id
		  , status
		  , started_at
		  , completed_at
		  , result
		  , error_message`

// WorkflowExecutionRepository handles workflow execution database operations.
type WorkflowExecutionRepository struct {
	repository
}

// Save inserts or updates an execution.
func (r *WorkflowExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	var result any

	if execution.Result != nil {
		encoded, err := json.Marshal(execution.Result)
		if err != nil {
			return persistence.NewRecordError("Save", "workflow_executions", execution.ID,
				fmt.Errorf("failed to marshal result: %w", err))
		}

		result = encoded
	}

	query := `
		INSERT INTO workflow_executions (` + executionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			result = EXCLUDED.result,
			error_message = EXCLUDED.error_message
	`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowRuleID,
		execution.SuggestionID,
		execution.Status,
		execution.StartedAt,
		nullTime(execution.CompletedAt),
		result,
		nullString(execution.ErrorMessage),
	)
	if err != nil {
		return persistence.NewRecordError("Save", "workflow_executions", execution.ID, err)
	}

	return nil
}

// GetByID retrieves an execution by its ID.
func (r *WorkflowExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+executionColumns+" FROM workflow_executions WHERE id = $1", id)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "workflow_executions", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "workflow_executions", id, err)
	}

	return execution, nil
}

// List returns the most recent executions first.
func (r *WorkflowExecutionRepository) List(ctx context.Context, limit int) ([]*models.WorkflowExecution, error) {
	if limit <= 0 {
		return r.query(ctx, "List", "SELECT"+executionColumns+" FROM workflow_executions ORDER BY started_at DESC, id DESC")
	}

	return r.query(ctx, "List",
		"SELECT"+executionColumns+" FROM workflow_executions ORDER BY started_at DESC, id DESC LIMIT $1", limit)
}

// ListByRule returns executions of a rule, most recent first.
func (r *WorkflowExecutionRepository) ListByRule(ctx context.Context, ruleID string) ([]*models.WorkflowExecution, error) {
	return r.query(ctx, "ListByRule",
		"SELECT"+executionColumns+" FROM workflow_executions WHERE workflow_rule_id = $1 ORDER BY started_at DESC, id DESC",
		ruleID)
}

// ListBySuggestion returns executions against a suggestion, most recent first.
func (r *WorkflowExecutionRepository) ListBySuggestion(
	ctx context.Context,
	suggestionID string,
) ([]*models.WorkflowExecution, error) {
	return r.query(ctx, "ListBySuggestion",
		"SELECT"+executionColumns+" FROM workflow_executions WHERE suggestion_id = $1 ORDER BY started_at DESC, id DESC",
		suggestionID)
}

func (r *WorkflowExecutionRepository) query(
	ctx context.Context,
	op, query string,
	args ...any,
) ([]*models.WorkflowExecution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRecordError(op, "workflow_executions", "", err)
	}

	defer r.closeRows(ctx, rows)

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, persistence.NewRecordError(op, "workflow_executions", "", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRecordError(op, "workflow_executions", "", err)
	}

	return executions, nil
}

func scanExecution(row scanner) (*models.WorkflowExecution, error) {
	var (
		execution    models.WorkflowExecution
		completedAt  sql.NullTime
		result       []byte
		errorMessage sql.NullString
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowRuleID,
		&execution.SuggestionID,
		&execution.Status,
		&execution.StartedAt,
		&completedAt,
		&result,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	if len(result) > 0 {
		err = json.Unmarshal(result, &execution.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution result: %w", err)
		}
	}

	execution.StartedAt = execution.StartedAt.UTC()
	execution.CompletedAt = timePtr(completedAt)
	execution.ErrorMessage = stringPtr(errorMessage)

	return &execution, nil
}
