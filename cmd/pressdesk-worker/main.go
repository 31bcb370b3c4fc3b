// Package main provides the pressdesk background worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/pressdesk/pkg/cmd"
	"github.com/dukex/pressdesk/pkg/intake"
	"github.com/dukex/pressdesk/pkg/log"
	"github.com/dukex/pressdesk/pkg/scheduler"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

const stopTimeout = 30 * time.Second

func main() {
	err := cmd.LoadDotEnv()
	if err != nil {
		panic(err)
	}

	command := &cli.Command{
		Name:                  "pressdesk-worker",
		Usage:                 "Run agents on a schedule and apply workflow rules",
		EnableShellCompletion: true,
		Flags: append(cmd.CommonFlags(),
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "agent-schedule",
				Usage:   "Cron expression for running every active agent",
				Value:   scheduler.DefaultAgentSchedule,
				Sources: cli.EnvVars("AGENT_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "rule-sweep",
				Usage:   "Cron expression for re-evaluating pending suggestions",
				Value:   scheduler.DefaultRuleSweep,
				Sources: cli.EnvVars("RULE_SWEEP"),
			},
			&cli.DurationFlag{
				Name:    "task-poll-interval",
				Usage:   "How often due review tasks are checked",
				Value:   scheduler.DefaultPollInterval,
				Sources: cli.EnvVars("TASK_POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address of the candidate intake queue; empty disables intake",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				Sources: cli.EnvVars("REDIS_DB"),
			},
			&cli.StringFlag{
				Name:    "intake-queue",
				Usage:   "Redis list external agents push candidates onto",
				Value:   intake.DefaultQueue,
				Sources: cli.EnvVars("INTAKE_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "intake-dead-letter",
				Usage:   "Redis list receiving undecodable payloads",
				Value:   intake.DefaultQueue + ":dead",
				Sources: cli.EnvVars("INTAKE_DEAD_LETTER"),
			},
		),
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = command.Run(ctx, os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	closeLog := log.Setup(command.String("log-level"), command.String("log-file"))
	defer func() { _ = closeLog() }()

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("pressdesk-worker").With("worker_id", workerID)

	logger.InfoContext(ctx, "Initializing pressdesk worker")

	core, cleanup, err := cmd.Bootstrap(ctx, logger, command, "pressdesk-worker")
	defer cleanup()

	if err != nil {
		return err
	}

	config := Config{
		AgentSchedule:    command.String("agent-schedule"),
		RuleSweep:        command.String("rule-sweep"),
		TaskPollInterval: command.Duration("task-poll-interval"),
	}

	if addr := command.String("redis-addr"); addr != "" {
		config.Intake = &intake.Config{
			Addr:       addr,
			Password:   command.String("redis-password"),
			DB:         command.Int("redis-db"),
			Queue:      command.String("intake-queue"),
			DeadLetter: command.String("intake-dead-letter"),
		}
	}

	err = core.Start(ctx)
	if err != nil {
		return err
	}

	worker := NewWorker(workerID, logger, core, config)

	err = worker.Start(ctx)
	if err != nil {
		core.Stop(context.WithoutCancel(ctx))

		return err
	}

	<-ctx.Done()

	logger.Info("Shutting down worker")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	worker.Stop(stopCtx)
	core.Stop(stopCtx)

	return nil
}
