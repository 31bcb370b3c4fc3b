// Package queue holds prioritized and deferred agent executions and runs them in bounded batches.
package queue

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/google/uuid"
)

const (
	DefaultBatchSize    = 3
	DefaultPollInterval = time.Second
	DefaultMaxHistory   = 1000
)

var (
	ErrTaskNotFound = errors.New("queue task not found")
	ErrNotRetryable = errors.New("only failed tasks can be retried")
	ErrInvalidTask  = errors.New("invalid queue task")
)

// Handler executes one task. A returned error marks the task failed.
type Handler func(ctx context.Context, task *models.QueueTask) error

type Config struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxHistory bounds how many finished tasks are retained for inspection.
	MaxHistory int
}

type Stats struct {
	Pending   int `json:"pending"`
	Scheduled int `json:"scheduled"`

	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`

	AverageProcessingMs float64 `json:"average_processing_ms"`
}

type Queue struct {
	mu       sync.Mutex
	config   Config
	logger   *slog.Logger
	now      func() time.Time
	tasks    map[string]*models.QueueTask
	ready    readyHeap
	delayed  delayedHeap
	finished []string
	seq      uint64

	processed     int
	completed     int
	failed        int
	totalDuration time.Duration

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(logger *slog.Logger, config Config) *Queue {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	if config.MaxHistory <= 0 {
		config.MaxHistory = DefaultMaxHistory
	}

	return &Queue{
		config: config,
		logger: logger.With("module", "queue"),
		now:    time.Now,
		tasks:  make(map[string]*models.QueueTask),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

// WithClock replaces the queue's time source.
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.now = now

	return q
}

// Submit enqueues an agent execution and returns its id. A task with a future
// scheduledFor is not eligible until that time.
func (q *Queue) Submit(
	agentID string,
	analysisCtx *models.AnalysisContext,
	priority models.QueuePriority,
	scheduledFor *time.Time,
) (string, error) {
	if agentID == "" {
		return "", fmt.Errorf("%w: agent id is required", ErrInvalidTask)
	}

	if priority < models.PriorityLow || priority > models.PriorityCritical {
		return "", fmt.Errorf("%w: unknown priority %d", ErrInvalidTask, priority)
	}

	q.mu.Lock()

	task := &models.QueueTask{
		ID:           uuid.NewString(),
		AgentID:      agentID,
		Context:      analysisCtx,
		Priority:     priority,
		ScheduledFor: scheduledFor,
		Status:       models.QueueTaskPending,
		SubmittedAt:  q.now(),
	}

	q.tasks[task.ID] = task
	q.enqueue(task)

	q.mu.Unlock()

	q.signal()

	return task.ID, nil
}

// Next marks the highest-priority eligible task as processing and returns a copy of it.
func (q *Queue) Next() (*models.QueueTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.next()
}

func (q *Queue) Complete(id string) error {
	return q.finish(id, nil)
}

func (q *Queue) Fail(id string, cause error) error {
	if cause == nil {
		cause = errors.New("unknown failure")
	}

	return q.finish(id, cause)
}

// Retry puts a failed task back in line as a fresh submission. Attempts are kept.
func (q *Queue) Retry(id string) error {
	q.mu.Lock()

	task, ok := q.tasks[id]
	if !ok {
		q.mu.Unlock()

		return ErrTaskNotFound
	}

	if task.Status != models.QueueTaskFailed {
		q.mu.Unlock()

		return fmt.Errorf("%w: task %s is %s", ErrNotRetryable, id, task.Status)
	}

	q.dropFinished(id)
	q.failed--

	task.Status = models.QueueTaskPending
	task.StartedAt = nil
	task.FinishedAt = nil
	q.enqueue(task)

	q.mu.Unlock()

	q.signal()

	return nil
}

func (q *Queue) Get(id string) (*models.QueueTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	clone := *task

	return &clone, nil
}

// List returns copies of all retained tasks, oldest submission first.
func (q *Queue) List() []*models.QueueTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.QueueTask, 0, len(q.tasks))
	for _, task := range q.tasks {
		clone := *task
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})

	return out
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	var stats Stats

	now := q.now()

	for _, task := range q.tasks {
		switch task.Status {
		case models.QueueTaskPending:
			stats.Pending++

			if task.ScheduledFor != nil && task.ScheduledFor.After(now) {
				stats.Scheduled++
			}
		case models.QueueTaskProcessing:
			stats.Processing++
		}
	}

	// Finished counts are running totals; history trimming does not lower them.
	stats.Completed = q.completed
	stats.Failed = q.failed

	if q.processed > 0 {
		stats.AverageProcessingMs = float64(q.totalDuration.Milliseconds()) / float64(q.processed)
	}

	return stats
}

// Start runs batches of up to BatchSize eligible tasks concurrently until ctx is done or
// Stop is called. Every task of a batch settles before the next batch starts.
func (q *Queue) Start(ctx context.Context, handler Handler) {
	q.wg.Add(1)

	go func() {
		defer q.wg.Done()

		ticker := time.NewTicker(q.config.PollInterval)
		defer ticker.Stop()

		q.logger.InfoContext(ctx, "Queue worker started", "batch_size", q.config.BatchSize)

		for {
			select {
			case <-ctx.Done():
				return
			case <-q.stop:
				return
			case <-ticker.C:
			case <-q.wake:
			}

			for q.RunBatch(ctx, handler) > 0 {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}()
}

func (q *Queue) Stop() {
	q.stopOnce.Do(func() { close(q.stop) })
	q.wg.Wait()
}

// RunBatch takes up to BatchSize eligible tasks, runs them concurrently and waits for all
// of them. It returns the number of tasks run.
func (q *Queue) RunBatch(ctx context.Context, handler Handler) int {
	q.mu.Lock()

	batch := make([]*models.QueueTask, 0, q.config.BatchSize)

	for len(batch) < q.config.BatchSize {
		task, ok := q.next()
		if !ok {
			break
		}

		batch = append(batch, task)
	}

	q.mu.Unlock()

	var wg sync.WaitGroup

	for _, task := range batch {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := q.run(ctx, handler, task)
			if err != nil {
				q.logger.WarnContext(ctx, "Queue task failed", "task_id", task.ID, "agent_id", task.AgentID, "error", err)
				_ = q.Fail(task.ID, err)

				return
			}

			_ = q.Complete(task.ID)
		}()
	}

	wg.Wait()

	return len(batch)
}

func (q *Queue) run(ctx context.Context, handler Handler, task *models.QueueTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return handler(ctx, task)
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) enqueue(task *models.QueueTask) {
	q.seq++

	it := &item{id: task.ID, priority: task.Priority, seq: q.seq}

	if task.ScheduledFor != nil && task.ScheduledFor.After(q.now()) {
		it.scheduledFor = *task.ScheduledFor
		heap.Push(&q.delayed, it)

		return
	}

	heap.Push(&q.ready, it)
}

func (q *Queue) next() (*models.QueueTask, bool) {
	now := q.now()

	for q.delayed.Len() > 0 && !q.delayed[0].scheduledFor.After(now) {
		heap.Push(&q.ready, heap.Pop(&q.delayed))
	}

	for q.ready.Len() > 0 {
		it := heap.Pop(&q.ready).(*item)

		task, ok := q.tasks[it.id]
		if !ok || task.Status != models.QueueTaskPending {
			continue
		}

		task.Status = models.QueueTaskProcessing
		task.Attempts++
		task.LastError = ""
		task.StartedAt = &now

		clone := *task

		return &clone, true
	}

	return nil, false
}

func (q *Queue) finish(id string, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}

	if task.Status != models.QueueTaskProcessing {
		return fmt.Errorf("%w: task %s is %s", ErrInvalidTask, id, task.Status)
	}

	now := q.now()
	task.FinishedAt = &now

	if task.StartedAt != nil {
		q.processed++
		q.totalDuration += now.Sub(*task.StartedAt)
	}

	if cause != nil {
		task.Status = models.QueueTaskFailed
		task.LastError = cause.Error()
		q.failed++
	} else {
		task.Status = models.QueueTaskCompleted
		q.completed++
	}

	q.finished = append(q.finished, id)

	for len(q.finished) > q.config.MaxHistory {
		delete(q.tasks, q.finished[0])
		q.finished = q.finished[1:]
	}

	return nil
}

func (q *Queue) dropFinished(id string) {
	for i, finishedID := range q.finished {
		if finishedID == id {
			q.finished = append(q.finished[:i], q.finished[i+1:]...)

			return
		}
	}
}
