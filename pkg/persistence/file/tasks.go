package file

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// TaskRepository handles task file operations.
type TaskRepository struct {
	mu    *sync.RWMutex
	table *table[models.Task]
}

// Save creates or updates a task.
func (tr *TaskRepository) Save(_ context.Context, task *models.Task) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	err := tr.table.write(task.ID, task)
	if err != nil {
		return persistence.NewRecordError("Save", "tasks", task.ID, err)
	}

	return nil
}

// GetByID retrieves a task by its ID.
func (tr *TaskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	task, err := tr.table.read(id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "tasks", id, err)
	}

	if task == nil {
		return nil, persistence.NewRecordError("GetByID", "tasks", id, persistence.ErrTaskNotFound)
	}

	return task, nil
}

// List returns tasks ordered by creation time, optionally filtered by status.
func (tr *TaskRepository) List(_ context.Context, status *models.TaskStatus) ([]*models.Task, error) {
	return tr.filter("List", func(t *models.Task) bool { return status == nil || t.Status == *status })
}

// ListDue returns open tasks whose due time has passed.
func (tr *TaskRepository) ListDue(_ context.Context, now time.Time) ([]*models.Task, error) {
	return tr.filter("ListDue", func(t *models.Task) bool { return t.IsDue(now) })
}

func (tr *TaskRepository) filter(op string, keep func(*models.Task) bool) ([]*models.Task, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	all, err := tr.table.all()
	if err != nil {
		return nil, persistence.NewRecordError(op, "tasks", "", err)
	}

	tasks := make([]*models.Task, 0, len(all))

	for _, task := range all {
		if keep(task) {
			tasks = append(tasks, task)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}

		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}
