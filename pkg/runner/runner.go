// Package runner executes agents against the published site content and stores what they propose.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/cache"
	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/otelhelper"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBatchSize = 3
	DefaultCacheTTL  = 30 * time.Minute
)

var (
	ErrAgentInactive = errors.New("agent is not active")
	ErrSystemAgent   = errors.New("the system agent cannot be run")
)

type Config struct {
	// BatchSize bounds how many agents run concurrently in RunAllActiveAgents.
	BatchSize int
	CacheTTL  time.Duration
}

// Dependencies are the collaborators a Runner needs. Cache, Notifier, Publisher and Tracer are optional.
type Dependencies struct {
	Logger      *slog.Logger
	Persistence persistence.Persistence
	Registry    *registry.Registry
	Suggestions *services.Suggestions
	Cache       *cache.Cache[[]models.CandidateSuggestion]
	Notifier    services.Notifier
	Publisher   eventbus.EventPublisher
	Tracer      trace.Tracer
}

// Result is the outcome of one agent run.
type Result struct {
	AgentID     string                 `json:"agent_id"`
	AgentName   string                 `json:"agent_name"`
	Suggestions []*models.AISuggestion `json:"suggestions"`
	// Candidates is the agent output for this input, read back from the cache on a cached run.
	Candidates []models.CandidateSuggestion `json:"candidates,omitempty"`
	// Dropped counts candidates that failed validation and were not stored.
	Dropped  int           `json:"dropped"`
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

func (r *Result) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// BatchResult summarizes RunAllActiveAgents.
type BatchResult struct {
	Results          []*Result `json:"results"`
	Succeeded        int       `json:"succeeded"`
	Failed           int       `json:"failed"`
	TotalSuggestions int       `json:"total_suggestions"`
}

type Runner struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	suggestions *services.Suggestions
	cache       *cache.Cache[[]models.CandidateSuggestion]
	notifier    services.Notifier
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	config      Config
	logger      *slog.Logger
}

func New(deps Dependencies, config Config) *Runner {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Runner{
		persistence: deps.Persistence,
		registry:    deps.Registry,
		suggestions: deps.Suggestions,
		cache:       deps.Cache,
		notifier:    deps.Notifier,
		publisher:   deps.Publisher,
		tracer:      tracer,
		config:      config,
		logger:      deps.Logger.With("module", "runner"),
	}
}

// RunAgent runs the agent with the given name. A nil analysisCtx means the published articles.
func (r *Runner) RunAgent(ctx context.Context, name string, analysisCtx *models.AnalysisContext) (*Result, error) {
	agent, err := r.persistence.AgentRepository().GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	return r.runLoaded(ctx, agent, analysisCtx)
}

// RunAgentByID runs the agent with the given id. A nil analysisCtx means the published articles.
func (r *Runner) RunAgentByID(ctx context.Context, id string, analysisCtx *models.AnalysisContext) (*Result, error) {
	agent, err := r.persistence.AgentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return r.runLoaded(ctx, agent, analysisCtx)
}

func (r *Runner) runLoaded(ctx context.Context, agent *models.AIAgent, analysisCtx *models.AnalysisContext) (*Result, error) {
	if agent.IsSystem() {
		return nil, ErrSystemAgent
	}

	if !agent.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrAgentInactive, agent.Name)
	}

	if analysisCtx == nil {
		published, err := r.publishedContext(ctx)
		if err != nil {
			return nil, err
		}

		analysisCtx = published
	}

	result := r.run(ctx, agent, *analysisCtx)

	return result, result.Err
}

// HandleTask runs a queued agent execution.
func (r *Runner) HandleTask(ctx context.Context, task *models.QueueTask) error {
	_, err := r.RunAgentByID(ctx, task.AgentID, task.Context)

	return err
}

// RunAllActiveAgents runs every active agent against one snapshot of the published articles,
// BatchSize agents at a time. A failing agent never stops the others.
func (r *Runner) RunAllActiveAgents(ctx context.Context) (*BatchResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.run_all",
		attribute.Int(otelhelper.BatchSizeKey, r.config.BatchSize))
	defer span.End()

	agents, err := r.persistence.AgentRepository().ListActive(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list active agents: %w", err)
	}

	runnable := make([]*models.AIAgent, 0, len(agents))

	for _, agent := range agents {
		if !agent.IsSystem() {
			runnable = append(runnable, agent)
		}
	}

	analysisCtx, err := r.publishedContext(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	r.logger.InfoContext(ctx, "Running active agents",
		"agents", len(runnable), "articles", len(analysisCtx.Articles), "batch_size", r.config.BatchSize)

	batch := &BatchResult{Results: make([]*Result, len(runnable))}

	for start := 0; start < len(runnable); start += r.config.BatchSize {
		end := min(start+r.config.BatchSize, len(runnable))

		var wg sync.WaitGroup

		for i := start; i < end; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				batch.Results[i] = r.run(ctx, runnable[i], *analysisCtx)
			}()
		}

		wg.Wait()
	}

	for _, result := range batch.Results {
		if result.Err != nil {
			batch.Failed++

			continue
		}

		batch.Succeeded++
		batch.TotalSuggestions += len(result.Suggestions)
	}

	span.SetAttributes(
		attribute.Int("pressdesk.batch.succeeded", batch.Succeeded),
		attribute.Int("pressdesk.batch.failed", batch.Failed),
	)

	r.reportBatch(ctx, batch)

	return batch, nil
}

// PersistCandidates stores candidates produced outside the process on behalf of the named agent.
func (r *Runner) PersistCandidates(
	ctx context.Context,
	agentName string,
	candidates []models.CandidateSuggestion,
) (*Result, error) {
	agent, err := r.persistence.AgentRepository().GetByName(ctx, agentName)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := &Result{AgentID: agent.ID, AgentName: agent.Name}

	result.Candidates = candidates

	err = r.persist(ctx, agent, candidates, result)
	result.Duration = time.Since(started)

	if err != nil {
		result.fail(err)
	}

	r.report(ctx, result)

	return result, result.Err
}

// run never returns a nil result; failures, including panics, are recorded on it.
func (r *Runner) run(ctx context.Context, agent *models.AIAgent, analysisCtx models.AnalysisContext) (result *Result) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.run_agent",
		attribute.String(otelhelper.AgentIDKey, agent.ID),
		attribute.String(otelhelper.AgentNameKey, agent.Name),
		attribute.String(otelhelper.AgentTypeKey, agent.Type),
	)
	defer span.End()

	logger := r.logger.With("agent_id", agent.ID, "agent_name", agent.Name, "agent_type", agent.Type)
	started := time.Now()
	result = &Result{AgentID: agent.ID, AgentName: agent.Name}

	defer func() {
		if p := recover(); p != nil {
			result.fail(fmt.Errorf("agent %s panicked: %v", agent.Name, p))
		}

		result.Duration = time.Since(started)

		if result.Err != nil {
			otelhelper.SetError(span, result.Err)
			logger.WarnContext(ctx, "Agent run failed", "error", result.Err, "duration", result.Duration)
		} else {
			logger.InfoContext(ctx, "Agent run completed",
				"suggestions", len(result.Suggestions), "dropped", result.Dropped, "cached", result.Cached,
				"duration", result.Duration)
		}

		r.report(ctx, result)
	}()

	key, err := r.cacheKey(agent, analysisCtx)
	if err != nil {
		result.fail(err)

		return result
	}

	if key != "" {
		if candidates, ok := r.cache.Get(key); ok {
			// Output for this exact input is already stored as suggestions.
			result.Cached = true
			result.Candidates = candidates

			return result
		}
	}

	instance, err := r.registry.CreateAgent(agent.Type, agent.Config)
	if err != nil {
		result.fail(fmt.Errorf("failed to create agent %s: %w", agent.Name, err))

		return result
	}

	candidates, err := instance.Analyze(ctx, analysisCtx)
	if err != nil {
		result.fail(fmt.Errorf("agent %s failed to analyze: %w", agent.Name, err))

		return result
	}

	result.Candidates = candidates

	err = r.persist(ctx, agent, candidates, result)
	if err != nil {
		result.fail(err)

		return result
	}

	if key != "" {
		r.cache.Set(key, candidates, r.config.CacheTTL)
	}

	return result
}

func (r *Runner) persist(
	ctx context.Context,
	agent *models.AIAgent,
	candidates []models.CandidateSuggestion,
	result *Result,
) error {
	for _, candidate := range candidates {
		suggestion, err := r.suggestions.Create(ctx, agent.ID, candidate)
		if err != nil {
			if services.IsValidationError(err) {
				result.Dropped++

				r.logger.WarnContext(ctx, "Dropping invalid candidate",
					"agent_name", agent.Name, "target_type", candidate.TargetType, "error", err)

				continue
			}

			return fmt.Errorf("failed to store suggestion from %s: %w", agent.Name, err)
		}

		result.Suggestions = append(result.Suggestions, suggestion)
	}

	return nil
}

func (r *Runner) cacheKey(agent *models.AIAgent, analysisCtx models.AnalysisContext) (string, error) {
	if r.cache == nil {
		return "", nil
	}

	return cache.GenerateKey(agent.ID, struct {
		Config  map[string]any         `json:"config"`
		Context models.AnalysisContext `json:"context"`
	}{agent.Config, analysisCtx})
}

func (r *Runner) publishedContext(ctx context.Context) (*models.AnalysisContext, error) {
	published := models.ArticleStatusPublished

	articles, err := r.persistence.ArticleRepository().List(ctx, persistence.ListArticlesOptions{Status: &published})
	if err != nil {
		return nil, fmt.Errorf("failed to load published articles: %w", err)
	}

	return &models.AnalysisContext{Articles: articles}, nil
}

func (r *Runner) report(ctx context.Context, result *Result) {
	meta := map[string]any{"agent_id": result.AgentID, "agent_name": result.AgentName}

	if result.Err != nil {
		r.notify(ctx, models.Notification{
			Kind:    "agent.failed",
			Title:   fmt.Sprintf("%s failed", result.AgentName),
			Message: result.Err.Error(),
			Level:   models.NotificationError,
			Meta:    meta,
		})

		r.publish(ctx, result.AgentID, events.AgentRunFailed{
			BaseEvent: events.NewBaseEvent(uuid.NewString(), events.AgentRunFailedEvent),
			AgentID:   result.AgentID,
			AgentName: result.AgentName,
			Error:     result.Err.Error(),
		})

		return
	}

	message := fmt.Sprintf("%d new suggestion(s).", len(result.Suggestions))
	if result.Cached {
		message = "Nothing changed since the last run."
	}

	r.notify(ctx, models.Notification{
		Kind:    "agent.completed",
		Title:   fmt.Sprintf("%s finished", result.AgentName),
		Message: message,
		Level:   models.NotificationSuccess,
		Meta:    meta,
	})

	r.publish(ctx, result.AgentID, events.AgentRunCompleted{
		BaseEvent:          events.NewBaseEvent(uuid.NewString(), events.AgentRunCompletedEvent),
		AgentID:            result.AgentID,
		AgentName:          result.AgentName,
		SuggestionsCreated: len(result.Suggestions),
		Cached:             result.Cached,
		DurationMs:         result.Duration.Milliseconds(),
	})
}

func (r *Runner) reportBatch(ctx context.Context, batch *BatchResult) {
	level := models.NotificationSuccess
	if batch.Failed > 0 {
		level = models.NotificationWarning
	}

	if batch.Succeeded == 0 && batch.Failed > 0 {
		level = models.NotificationError
	}

	r.notify(ctx, models.Notification{
		Kind:  "agents.batch",
		Title: "Agent run finished",
		Message: fmt.Sprintf("%d succeeded, %d failed, %d new suggestion(s).",
			batch.Succeeded, batch.Failed, batch.TotalSuggestions),
		Level: level,
		Meta: map[string]any{
			"succeeded":         batch.Succeeded,
			"failed":            batch.Failed,
			"total_suggestions": batch.TotalSuggestions,
		},
	})

	r.publish(ctx, "agents", events.AgentsBatchCompleted{
		BaseEvent:        events.NewBaseEvent(uuid.NewString(), events.AgentsBatchCompletedEvent),
		Succeeded:        batch.Succeeded,
		Failed:           batch.Failed,
		TotalSuggestions: batch.TotalSuggestions,
	})
}

func (r *Runner) notify(ctx context.Context, notification models.Notification) {
	if r.notifier != nil {
		r.notifier.Notify(ctx, notification)
	}
}

func (r *Runner) publish(ctx context.Context, key string, event events.Event) {
	if r.publisher == nil {
		return
	}

	err := r.publisher.Publish(ctx, key, event)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to publish runner event", "event_type", event.GetType(), "error", err)
	}
}
