package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

const taskColumns = `
			id
		  , type
		  , title
		  , suggestion_id
		  , rule_id
		  , due_at
		  , status
		  , created_at
		  , updated_at`

// TaskRepository handles task database operations.
type TaskRepository struct {
	repository
}

// Save inserts or updates a task.
func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			due_at = EXCLUDED.due_at,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Type, task.Title, nullString(task.SuggestionID), nullString(task.RuleID),
		nullTime(task.DueAt), task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return persistence.NewRecordError("Save", "tasks", task.ID, err)
	}

	return nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+taskColumns+" FROM tasks WHERE id = $1", id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "tasks", id, persistence.ErrTaskNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "tasks", id, err)
	}

	return task, nil
}

// List returns tasks ordered by creation time, optionally filtered by status.
func (r *TaskRepository) List(ctx context.Context, status *models.TaskStatus) ([]*models.Task, error) {
	if status == nil {
		return r.query(ctx, "List", "SELECT"+taskColumns+" FROM tasks ORDER BY created_at, id")
	}

	return r.query(ctx, "List", "SELECT"+taskColumns+" FROM tasks WHERE status = $1 ORDER BY created_at, id", *status)
}

// ListDue returns open tasks whose due time has passed.
func (r *TaskRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Task, error) {
	return r.query(ctx, "ListDue",
		"SELECT"+taskColumns+" FROM tasks WHERE status = $1 AND due_at IS NOT NULL AND due_at <= $2 ORDER BY created_at, id",
		models.TaskStatusOpen, now)
}

func (r *TaskRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRecordError(op, "tasks", "", err)
	}

	defer r.closeRows(ctx, rows)

	tasks := make([]*models.Task, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, persistence.NewRecordError(op, "tasks", "", err)
		}

		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRecordError(op, "tasks", "", err)
	}

	return tasks, nil
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		task         models.Task
		suggestionID sql.NullString
		ruleID       sql.NullString
		dueAt        sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Type,
		&task.Title,
		&suggestionID,
		&ruleID,
		&dueAt,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.SuggestionID = stringPtr(suggestionID)
	task.RuleID = stringPtr(ruleID)
	task.DueAt = timePtr(dueAt)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return &task, nil
}
