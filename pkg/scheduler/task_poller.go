// Package scheduler runs the periodic background work: due review tasks, scheduled agent runs
// and the rule sweep over pending suggestions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/google/uuid"
)

const DefaultPollInterval = time.Minute

// TaskPoller periodically marks open tasks whose due time has passed as due and announces them.
type TaskPoller struct {
	tasks     persistence.TaskRepository
	publisher eventbus.EventPublisher
	notifier  services.Notifier
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger

	ticker  *time.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewTaskPoller(
	logger *slog.Logger,
	tasks persistence.TaskRepository,
	publisher eventbus.EventPublisher,
	notifier services.Notifier,
	interval time.Duration,
) *TaskPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &TaskPoller{
		tasks:     tasks,
		publisher: publisher,
		notifier:  notifier,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With("module", "task_poller"),
	}
}

// WithClock replaces the poller's time source.
func (p *TaskPoller) WithClock(now func() time.Time) *TaskPoller {
	p.now = now

	return p
}

// Start polls every interval until Stop is called or ctx is done.
func (p *TaskPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	p.logger.InfoContext(ctx, "Starting task poller", "interval", p.interval)

	p.ticker = time.NewTicker(p.interval)
	p.done = make(chan struct{})
	p.started = true

	p.wg.Add(1)

	go p.loop(ctx, p.ticker, p.done)
}

func (p *TaskPoller) Stop(ctx context.Context) {
	p.mu.Lock()

	if !p.started {
		p.mu.Unlock()

		return
	}

	p.ticker.Stop()
	close(p.done)
	p.started = false

	p.mu.Unlock()

	p.wg.Wait()
	p.logger.InfoContext(ctx, "Task poller stopped")
}

func (p *TaskPoller) loop(ctx context.Context, ticker *time.Ticker, done <-chan struct{}) {
	defer p.wg.Done()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := p.Poll(ctx)
			if err != nil {
				p.logger.ErrorContext(ctx, "Failed to poll due tasks", "error", err)
			}
		}
	}
}

// Poll processes every task due now and returns how many were marked due. A task that
// fails to save is skipped and picked up again on the next poll.
func (p *TaskPoller) Poll(ctx context.Context) (int, error) {
	now := p.now()

	due, err := p.tasks.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due tasks: %w", err)
	}

	if len(due) > 0 {
		p.logger.InfoContext(ctx, "Processing due tasks", "count", len(due))
	}

	processed := 0

	for _, task := range due {
		task.Status = models.TaskStatusDue
		task.UpdatedAt = now

		err := p.tasks.Save(ctx, task)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to mark task due", "task_id", task.ID, "error", err)

			continue
		}

		processed++

		p.announce(ctx, task)
	}

	return processed, nil
}

func (p *TaskPoller) announce(ctx context.Context, task *models.Task) {
	if p.publisher != nil {
		err := p.publisher.Publish(ctx, task.ID, events.TaskDue{
			BaseEvent:    events.NewBaseEvent(uuid.NewString(), events.TaskDueEvent),
			TaskID:       task.ID,
			Title:        task.Title,
			SuggestionID: task.SuggestionID,
		})
		if err != nil {
			p.logger.WarnContext(ctx, "Failed to publish task due event", "task_id", task.ID, "error", err)
		}
	}

	if p.notifier == nil {
		return
	}

	meta := map[string]any{"task_id": task.ID, "task_type": string(task.Type)}
	if task.SuggestionID != nil {
		meta["suggestion_id"] = *task.SuggestionID
	}

	level := models.NotificationInfo
	if task.Type == models.TaskTypeReview {
		level = models.NotificationWarning
	}

	p.notifier.Notify(ctx, models.Notification{
		Kind:    string(events.TaskDueEvent),
		Title:   "Task due",
		Message: task.Title,
		Level:   level,
		Meta:    meta,
	})
}
