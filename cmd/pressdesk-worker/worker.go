package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/pressdesk/pkg/cmd"
	"github.com/dukex/pressdesk/pkg/intake"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/scheduler"
	redis "github.com/redis/go-redis/v9"
)

type Config struct {
	AgentSchedule    string
	RuleSweep        string
	TaskPollInterval time.Duration
	// Intake is nil when no Redis intake queue is configured.
	Intake *intake.Config
}

// Worker runs the periodic side of the lifecycle: scheduled agent runs, the rule sweep for
// time-based rules, due review tasks and the external candidate intake.
type Worker struct {
	id     string
	core   *cmd.Core
	config Config
	logger *slog.Logger

	cron     *scheduler.Cron
	poller   *scheduler.TaskPoller
	consumer *intake.Consumer
	redis    redis.UniversalClient
}

func NewWorker(id string, logger *slog.Logger, core *cmd.Core, config Config) *Worker {
	if config.AgentSchedule == "" {
		config.AgentSchedule = scheduler.DefaultAgentSchedule
	}

	if config.RuleSweep == "" {
		config.RuleSweep = scheduler.DefaultRuleSweep
	}

	return &Worker{
		id:     id,
		core:   core,
		config: config,
		logger: logger,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.cron = scheduler.NewCron(w.logger)

	_, err := w.cron.Add(ctx, w.config.AgentSchedule,
		scheduler.NewAgentSchedule(w.logger, w.core.Persistence.AgentRepository(), w.core.Queue, models.PriorityMedium))
	if err != nil {
		return err
	}

	_, err = w.cron.Add(ctx, w.config.RuleSweep, scheduler.NewRuleSweep(w.core.Engine))
	if err != nil {
		return err
	}

	if w.config.Intake != nil {
		w.redis, err = intake.Connect(ctx, *w.config.Intake)
		if err != nil {
			return err
		}

		w.consumer, err = intake.NewConsumer(w.logger, w.redis, w.core.Runner, *w.config.Intake)
		if err != nil {
			return err
		}
	}

	w.poller = scheduler.NewTaskPoller(w.logger, w.core.Persistence.TaskRepository(), w.core.EventBus, w.core.Feed,
		w.config.TaskPollInterval)

	w.cron.Start()
	w.poller.Start(ctx)

	if w.consumer != nil {
		w.consumer.Start(ctx)
	}

	w.logger.InfoContext(ctx, "Worker started", "worker_id", w.id,
		"agent_schedule", w.config.AgentSchedule, "rule_sweep", w.config.RuleSweep, "intake", w.consumer != nil)

	return nil
}

// Stop halts everything Start began. It is safe to call after a failed Start.
func (w *Worker) Stop(ctx context.Context) {
	if w.consumer != nil {
		w.consumer.Stop(ctx)
	}

	if w.poller != nil {
		w.poller.Stop(ctx)
	}

	if w.cron != nil {
		w.cron.Stop(ctx)
	}

	if w.redis != nil {
		err := w.redis.Close()
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to close redis client", "error", err)
		}
	}

	w.logger.InfoContext(ctx, "Worker stopped", "worker_id", w.id)
}
