package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/robfig/cron/v3"
)

const (
	DefaultAgentSchedule = "0 */6 * * *"
	DefaultRuleSweep     = "@every 5m"
)

// Job is a unit of periodic work. Run returns how many items it handled.
type Job interface {
	Name() string
	Run(ctx context.Context) (int, error)
}

// Cron runs jobs on cron expressions. Overlapping runs of the same job are skipped and
// panics are recovered.
type Cron struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewCron(logger *slog.Logger) *Cron {
	logger = logger.With("module", "cron")
	adapter := cronLogger{logger: logger}

	return &Cron{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(adapter),
			cron.Recover(adapter),
		)),
		logger: logger,
	}
}

// Add schedules job on spec, a standard five-field expression or a descriptor such as "@every 5m".
func (c *Cron) Add(ctx context.Context, spec string, job Job) (cron.EntryID, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return 0, fmt.Errorf("invalid cron expression %q for %s: %w", spec, job.Name(), err)
	}

	logger := c.logger.With("job", job.Name(), "cron", spec)

	id, err := c.cron.AddFunc(spec, func() {
		started := time.Now()

		handled, err := job.Run(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Scheduled job failed", "error", err)

			return
		}

		logger.InfoContext(ctx, "Scheduled job finished", "handled", handled, "duration", time.Since(started))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add cron job %s: %w", job.Name(), err)
	}

	logger.InfoContext(ctx, "Scheduled job", "entry_id", id)

	return id, nil
}

func (c *Cron) Start() {
	c.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (c *Cron) Stop(ctx context.Context) {
	select {
	case <-c.cron.Stop().Done():
	case <-ctx.Done():
		c.logger.WarnContext(ctx, "Cron jobs still running at shutdown")
	}
}

// Submitter enqueues agent executions.
type Submitter interface {
	Submit(
		agentID string,
		analysisCtx *models.AnalysisContext,
		priority models.QueuePriority,
		scheduledFor *time.Time,
	) (string, error)
}

// AgentSchedule submits every active agent to the execution queue.
type AgentSchedule struct {
	agents   persistence.AgentRepository
	queue    Submitter
	priority models.QueuePriority
	logger   *slog.Logger
}

func NewAgentSchedule(
	logger *slog.Logger,
	agents persistence.AgentRepository,
	queue Submitter,
	priority models.QueuePriority,
) *AgentSchedule {
	return &AgentSchedule{
		agents:   agents,
		queue:    queue,
		priority: priority,
		logger:   logger.With("module", "agent_schedule"),
	}
}

func (s *AgentSchedule) Name() string { return "agent_schedule" }

// Run submits the active agents with no fixed context, so each run sees the articles
// published at execution time.
func (s *AgentSchedule) Run(ctx context.Context) (int, error) {
	active, err := s.agents.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active agents: %w", err)
	}

	submitted := 0

	for _, agent := range active {
		if agent.IsSystem() {
			continue
		}

		taskID, err := s.queue.Submit(agent.ID, nil, s.priority, nil)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to submit agent", "agent_id", agent.ID, "error", err)

			continue
		}

		s.logger.DebugContext(ctx, "Submitted agent", "agent_id", agent.ID, "task_id", taskID)

		submitted++
	}

	return submitted, nil
}

// PendingEvaluator re-evaluates rules against pending suggestions.
type PendingEvaluator interface {
	EvaluatePending(ctx context.Context) (int, error)
}

// RuleSweep gives time-based rules a chance to fire on suggestions nobody has touched.
type RuleSweep struct {
	evaluator PendingEvaluator
}

func NewRuleSweep(evaluator PendingEvaluator) *RuleSweep {
	return &RuleSweep{evaluator: evaluator}
}

func (s *RuleSweep) Name() string { return "rule_sweep" }

func (s *RuleSweep) Run(ctx context.Context) (int, error) {
	return s.evaluator.EvaluatePending(ctx)
}

// PollJob adapts a TaskPoller to run from Cron instead of its own ticker.
type PollJob struct {
	Poller *TaskPoller
}

func (j PollJob) Name() string { return "task_poll" }

func (j PollJob) Run(ctx context.Context) (int, error) {
	return j.Poller.Poll(ctx)
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
