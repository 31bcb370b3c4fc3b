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

const ruleColumns = `
			id
		  , name
		  , description
		  , priority
		  , conditions
		  , actions
		  , enabled
		  , trusted
		  , execution_count
		  , success_rate
		  , created_at
		  , updated_at`

// WorkflowRuleRepository handles workflow rule database operations.
type WorkflowRuleRepository struct {
	repository
}

// Save inserts or updates a rule.
func (r *WorkflowRuleRepository) Save(ctx context.Context, rule *models.WorkflowRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return persistence.NewRecordError("Save", "workflow_rules", rule.ID, fmt.Errorf("failed to marshal conditions: %w", err))
	}

	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return persistence.NewRecordError("Save", "workflow_rules", rule.ID, fmt.Errorf("failed to marshal actions: %w", err))
	}

	query := `
		INSERT INTO workflow_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			enabled = EXCLUDED.enabled,
			trusted = EXCLUDED.trusted,
			execution_count = EXCLUDED.execution_count,
			success_rate = EXCLUDED.success_rate,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.Priority, conditions, actions,
		rule.Enabled, rule.Trusted, rule.ExecutionCount, rule.SuccessRate, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return persistence.NewRecordError("Save", "workflow_rules", rule.ID, err)
	}

	return nil
}

// GetByID retrieves a rule by its ID.
func (r *WorkflowRuleRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+ruleColumns+" FROM workflow_rules WHERE id = $1", id)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "workflow_rules", id, persistence.ErrRuleNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "workflow_rules", id, err)
	}

	return rule, nil
}

// List returns all rules in evaluation order.
func (r *WorkflowRuleRepository) List(ctx context.Context) ([]*models.WorkflowRule, error) {
	return r.query(ctx, "List", "SELECT"+ruleColumns+" FROM workflow_rules ORDER BY priority, created_at, id")
}

// ListEnabled returns enabled rules in evaluation order.
func (r *WorkflowRuleRepository) ListEnabled(ctx context.Context) ([]*models.WorkflowRule, error) {
	return r.query(ctx, "ListEnabled",
		"SELECT"+ruleColumns+" FROM workflow_rules WHERE enabled ORDER BY priority, created_at, id")
}

// Delete removes a rule.
func (r *WorkflowRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflow_rules WHERE id = $1", id)
	if err != nil {
		return persistence.NewRecordError("Delete", "workflow_rules", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRecordError("Delete", "workflow_rules", id, err)
	}

	if affected == 0 {
		return persistence.NewRecordError("Delete", "workflow_rules", id, persistence.ErrRuleNotFound)
	}

	return nil
}

func (r *WorkflowRuleRepository) query(ctx context.Context, op, query string) ([]*models.WorkflowRule, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewRecordError(op, "workflow_rules", "", err)
	}

	defer r.closeRows(ctx, rows)

	rules := make([]*models.WorkflowRule, 0)

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, persistence.NewRecordError(op, "workflow_rules", "", err)
		}

		rules = append(rules, rule)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRecordError(op, "workflow_rules", "", err)
	}

	return rules, nil
}

func scanRule(row scanner) (*models.WorkflowRule, error) {
	var (
		rule       models.WorkflowRule
		conditions []byte
		actions    []byte
	)

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.Priority,
		&conditions,
		&actions,
		&rule.Enabled,
		&rule.Trusted,
		&rule.ExecutionCount,
		&rule.SuccessRate,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(conditions, &rule.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}

	err = json.Unmarshal(actions, &rule.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	rule.CreatedAt = rule.CreatedAt.UTC()
	rule.UpdatedAt = rule.UpdatedAt.UTC()

	return &rule, nil
}
