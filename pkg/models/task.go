package models

import "time"

// TaskType distinguishes deferred reviews from free-form admin tasks.
type TaskType string

const (
	TaskTypeReview TaskType = "review"
	TaskTypeAdmin  TaskType = "admin"
)

// TaskStatus is the state of an admin task.
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDue  TaskStatus = "due"
	TaskStatusDone TaskStatus = "done"
)

// Task is a unit of admin work created by workflow rules.
type Task struct {
	ID           string     `json:"id"`
	Type         TaskType   `json:"type"`
	Title        string     `json:"title"`
	SuggestionID *string    `json:"suggestion_id,omitempty"`
	RuleID       *string    `json:"rule_id,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	Status       TaskStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsDue reports whether an open task has reached its due time.
func (t *Task) IsDue(now time.Time) bool {
	return t.Status == TaskStatusOpen && t.DueAt != nil && !now.Before(*t.DueAt)
}
