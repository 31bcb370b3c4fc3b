package models

import (
	"fmt"
	"time"
)

// QueuePriority orders agent executions. Higher values run first.
type QueuePriority int

const (
	PriorityLow QueuePriority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[QueuePriority]string{
	PriorityLow:      "low",
	PriorityMedium:   "medium",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

func (p QueuePriority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}

	return fmt.Sprintf("priority(%d)", int(p))
}

// ParseQueuePriority converts a priority name into its value.
func ParseQueuePriority(name string) (QueuePriority, error) {
	for p, n := range priorityNames {
		if n == name {
			return p, nil
		}
	}

	return PriorityLow, fmt.Errorf("unknown queue priority %q", name)
}

// MarshalText encodes the priority by name.
func (p QueuePriority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a priority name.
func (p *QueuePriority) UnmarshalText(b []byte) error {
	parsed, err := ParseQueuePriority(string(b))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// QueueTaskStatus is the state of a queued agent execution.
type QueueTaskStatus string

const (
	QueueTaskPending    QueueTaskStatus = "pending"
	QueueTaskProcessing QueueTaskStatus = "processing"
	QueueTaskCompleted  QueueTaskStatus = "completed"
	QueueTaskFailed     QueueTaskStatus = "failed"
)

// QueueTask is a deferred or prioritized agent execution.
type QueueTask struct {
	ID           string           `json:"id"`
	AgentID      string           `json:"agent_id"`
	Context      *AnalysisContext `json:"context,omitempty"`
	Priority     QueuePriority    `json:"priority"`
	ScheduledFor *time.Time       `json:"scheduled_for,omitempty"`
	Status       QueueTaskStatus  `json:"status"`
	Attempts     int              `json:"attempts"`
	LastError    string           `json:"last_error,omitempty"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
}
