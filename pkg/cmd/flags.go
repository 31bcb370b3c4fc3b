package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dukex/pressdesk/pkg/config"
	"github.com/dukex/pressdesk/pkg/otelhelper"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// LoadDotEnv loads .env from the working directory when it exists. Variables already set
// in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	return nil
}

// CommonFlags are shared by every pressdesk binary.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Persistence URL (postgres://... or a file:// directory)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "kafka-consumer-group",
			Usage:   "Kafka consumer group; each process should use its own",
			Sources: cli.EnvVars("KAFKA_CONSUMER_GROUP"),
		},
		&cli.StringFlag{
			Name:    "plugins-path",
			Usage:   "Path to the directory containing agent plugins",
			Value:   "./plugins",
			Sources: cli.EnvVars("PLUGINS_PATH"),
		},
		&cli.StringFlag{
			Name:    "seed-file",
			Usage:   "YAML file of agents and rules to create on start",
			Sources: cli.EnvVars("SEED_FILE"),
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Agents run concurrently per batch",
			Value:   3,
			Sources: cli.EnvVars("AGENT_BATCH_SIZE"),
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Usage:   "How long agent results are reused",
			Value:   30 * time.Minute,
			Sources: cli.EnvVars("CACHE_TTL"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "Also write JSON logs to this file",
			Sources: cli.EnvVars("LOG_FILE"),
		},
	}
}

// Bootstrap opens the store and event bus named by the common flags, builds the Core and
// applies the seed file. The returned cleanup closes what was opened.
func Bootstrap(ctx context.Context, logger *slog.Logger, command *cli.Command, serviceName string) (*Core, func(), error) {
	var closers []func()

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	tracer, err := newTracer(ctx, command.Bool("otel"), serviceName)
	if err != nil {
		return nil, cleanup, err
	}

	reg, err := NewRegistry(logger, command.String("plugins-path"))
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to load agent plugins: %w", err)
	}

	p, err := NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, cleanup, err
	}

	closers = append(closers, func() {
		err := p.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	})

	bus, err := NewEventBus(EventBusConfig{
		Provider:      command.String("event-bus"),
		KafkaBrokers:  command.String("kafka-brokers"),
		ConsumerGroup: command.String("kafka-consumer-group"),
		OTELEnabled:   command.Bool("otel"),
	}, logger)
	if err != nil {
		return nil, cleanup, err
	}

	closers = append(closers, func() {
		err := bus.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	})

	core, err := NewCore(logger, p, bus, reg, tracer, CoreConfig{
		RunnerBatchSize: command.Int("batch-size"),
		CacheTTL:        command.Duration("cache-ttl"),
	})
	if err != nil {
		return nil, cleanup, err
	}

	seedFile := command.String("seed-file")
	if seedFile != "" {
		err = applySeed(ctx, logger, core, seedFile)
		if err != nil {
			return nil, cleanup, err
		}
	}

	return core, cleanup, nil
}

func applySeed(ctx context.Context, logger *slog.Logger, core *Core, path string) error {
	seed, err := config.Load(path)
	if err != nil {
		return err
	}

	result, err := seed.Apply(ctx, logger, core.Agents, core.Rules)
	if err != nil {
		return fmt.Errorf("failed to apply seed file: %w", err)
	}

	logger.InfoContext(ctx, "Seed applied",
		"agents_created", result.AgentsCreated, "agents_skipped", result.AgentsSkipped,
		"rules_created", result.RulesCreated, "rules_skipped", result.RulesSkipped)

	return nil
}

// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func newTracer(ctx context.Context, enabled bool, serviceName string) (trace.Tracer, error) {
	if !enabled {
		return otelhelper.NoopTracer(), nil
	}

	tracer, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return tracer, nil
}
