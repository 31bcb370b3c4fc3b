package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/cache"
	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/notifications"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/queue"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/dukex/pressdesk/pkg/runner"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/dukex/pressdesk/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

// CoreConfig tunes the in-memory components. Zero values use each component's defaults.
type CoreConfig struct {
	RunnerBatchSize   int
	CacheTTL          time.Duration
	CacheMaxSize      int
	QueueBatchSize    int
	QueuePollInterval time.Duration
	FeedCapacity      int
}

// Core is the suggestion lifecycle wired together: services, runner, cache, queue, feed and
// the rule engine, all sharing one store and one event bus.
type Core struct {
	Persistence persistence.Persistence
	Registry    *registry.Registry
	EventBus    eventbus.EventBus

	Feed        *notifications.Feed
	Suggestions *services.Suggestions
	Implementer *services.Implementer
	Articles    *services.Articles
	Agents      *services.Agents
	Rules       *services.Rules
	Cache       *cache.Cache[[]models.CandidateSuggestion]
	Runner      *runner.Runner
	Queue       *queue.Queue
	Engine      *workflow.Engine

	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCore builds the components and registers the rule actions, which need the services.
func NewCore(
	logger *slog.Logger,
	p persistence.Persistence,
	bus eventbus.EventBus,
	reg *registry.Registry,
	tracer trace.Tracer,
	config CoreConfig,
) (*Core, error) {
	feed := notifications.NewFeed(logger, config.FeedCapacity)
	locks := services.NewKeyedMutex()
	suggestions := services.NewSuggestions(logger, p, bus, locks)
	implementer := services.NewImplementer(logger, p, suggestions, feed)

	registerNativeActions(reg, p, suggestions, implementer, feed)

	resultCache, err := cache.New[[]models.CandidateSuggestion](logger, cache.Config{MaxSize: config.CacheMaxSize})
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	return &Core{
		Persistence: p,
		Registry:    reg,
		EventBus:    bus,
		Feed:        feed,
		Suggestions: suggestions,
		Implementer: implementer,
		Articles:    services.NewArticles(p),
		Agents:      services.NewAgents(logger, p, reg),
		Rules:       services.NewRules(logger, p, reg),
		Cache:       resultCache,
		Runner: runner.New(runner.Dependencies{
			Logger:      logger,
			Persistence: p,
			Registry:    reg,
			Suggestions: suggestions,
			Cache:       resultCache,
			Notifier:    feed,
			Publisher:   bus,
			Tracer:      tracer,
		}, runner.Config{BatchSize: config.RunnerBatchSize, CacheTTL: config.CacheTTL}),
		Queue: queue.New(logger, queue.Config{
			BatchSize:    config.QueueBatchSize,
			PollInterval: config.QueuePollInterval,
		}),
		Engine: workflow.NewEngine(logger, p, reg, bus, tracer),
		logger: logger.With("module", "core"),
	}, nil
}

// Start ensures the system agent exists, then starts the queue worker, the cache sweep and
// the change feed consumers (notification feed and rule engine).
func (c *Core) Start(ctx context.Context) error {
	_, err := c.Agents.EnsureSystemAgent(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure system agent: %w", err)
	}

	ctx, c.cancel = context.WithCancel(ctx)

	stream, err := c.EventBus.Subscribe(ctx)
	if err != nil {
		c.cancel()

		return fmt.Errorf("failed to subscribe to the event bus: %w", err)
	}

	c.Queue.Start(ctx, c.Runner.HandleTask)
	c.Cache.Start(ctx)

	streams := fanOut(ctx, stream, 2)

	c.wg.Add(2)

	go func() {
		defer c.wg.Done()
		c.Feed.Consume(ctx, streams[0])
	}()

	go func() {
		defer c.wg.Done()
		c.Engine.Listen(ctx, streams[1])
	}()

	c.logger.InfoContext(ctx, "Core started",
		"agent_types", len(c.Registry.AgentTypes()), "action_types", len(c.Registry.ActionTypes()))

	return nil
}

// Stop halts the background work started by Start and waits for the consumers to return.
func (c *Core) Stop(ctx context.Context) {
	c.Queue.Stop()
	c.Cache.Stop()

	if c.cancel != nil {
		c.cancel()
	}

	c.wg.Wait()

	c.logger.InfoContext(ctx, "Core stopped")
}

// fanOut copies every envelope of stream to n outputs. Outputs close when stream closes or
// ctx is done.
func fanOut(ctx context.Context, stream <-chan eventbus.Envelope, n int) []<-chan eventbus.Envelope {
	outs := make([]chan eventbus.Envelope, n)
	readOnly := make([]<-chan eventbus.Envelope, n)

	for i := range outs {
		outs[i] = make(chan eventbus.Envelope, 16)
		readOnly[i] = outs[i]
	}

	go func() {
		defer func() {
			for _, out := range outs {
				close(out)
			}
		}()

		for envelope := range stream {
			for _, out := range outs {
				select {
				case out <- envelope:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return readOnly
}
