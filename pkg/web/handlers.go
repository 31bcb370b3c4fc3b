// Package web provides the admin REST API for suggestions, agents and workflow rules.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/pressdesk/pkg/cache"
	"github.com/dukex/pressdesk/pkg/chat"
	"github.com/dukex/pressdesk/pkg/notifications"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/queue"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/dukex/pressdesk/pkg/runner"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ResultCache is the part of the agent result cache the API exposes.
type ResultCache interface {
	Stats() cache.Stats
	Clear()
}

// Dependencies groups what the handlers serve. Chat may be nil when no endpoint is configured.
type Dependencies struct {
	Logger      *slog.Logger
	Persistence persistence.Persistence
	Registry    *registry.Registry
	Suggestions *services.Suggestions
	Implementer *services.Implementer
	Articles    *services.Articles
	Agents      *services.Agents
	Rules       *services.Rules
	Runner      *runner.Runner
	Queue       *queue.Queue
	Cache       ResultCache
	Feed        *notifications.Feed
	Chat        *chat.Client
	Validate    *validator.Validate
}

type APIHandlers struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	suggestions *services.Suggestions
	implementer *services.Implementer
	articles    *services.Articles
	agents      *services.Agents
	rules       *services.Rules
	runner      *runner.Runner
	queue       *queue.Queue
	cache       ResultCache
	feed        *notifications.Feed
	chat        *chat.Client
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(deps Dependencies) *APIHandlers {
	validate := deps.Validate
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	articles := deps.Articles
	if articles == nil {
		articles = services.NewArticles(deps.Persistence)
	}

	return &APIHandlers{
		persistence: deps.Persistence,
		registry:    deps.Registry,
		suggestions: deps.Suggestions,
		implementer: deps.Implementer,
		articles:    articles,
		agents:      deps.Agents,
		rules:       deps.Rules,
		runner:      deps.Runner,
		queue:       deps.Queue,
		cache:       deps.Cache,
		feed:        deps.Feed,
		chat:        deps.Chat,
		validator:   validate,
		logger:      logger.With("module", "web"),
	}
}

// Register mounts every route on router. Decisions require the X-Admin-ID header.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	s := router.Group("/suggestions", ActorMiddleware())
	s.Get("/", h.ListSuggestions)
	s.Get("/:id", h.GetSuggestion)
	s.Get("/:id/history", h.SuggestionHistory)
	s.Get("/:id/preview", h.PreviewSuggestion)
	s.Get("/:id/executions", h.SuggestionExecutions)
	s.Post("/:id/approve", h.ApproveSuggestion)
	s.Post("/:id/reject", h.RejectSuggestion)
	s.Post("/:id/dismiss", h.DismissSuggestion)
	s.Post("/:id/implement", h.ImplementSuggestion)
	s.Patch("/:id", h.EditSuggestion)

	ar := router.Group("/articles")
	ar.Get("/", h.ListArticles)
	ar.Post("/", h.CreateArticle)
	ar.Get("/:id", h.GetArticle)
	ar.Put("/:id", h.UpdateArticle)

	a := router.Group("/agents")
	a.Get("/", h.ListAgents)
	a.Get("/types", h.AgentTypes)
	a.Post("/", h.CreateAgent)
	a.Post("/run", h.RunAllAgents)
	a.Get("/:id", h.GetAgent)
	a.Put("/:id", h.UpdateAgent)
	a.Post("/:id/activate", h.ActivateAgent)
	a.Post("/:id/deactivate", h.DeactivateAgent)
	a.Post("/:id/run", h.RunAgent)
	a.Post("/:id/enqueue", h.EnqueueAgent)

	r := router.Group("/rules")
	r.Get("/", h.ListRules)
	r.Get("/actions", h.ActionTypes)
	r.Post("/", h.CreateRule)
	r.Get("/:id", h.GetRule)
	r.Put("/:id", h.UpdateRule)
	r.Delete("/:id", h.DeleteRule)
	r.Post("/:id/enable", h.EnableRule)
	r.Post("/:id/disable", h.DisableRule)
	r.Get("/:id/executions", h.RuleExecutions)

	router.Get("/executions", h.ListExecutions)
	router.Get("/executions/:id", h.GetExecution)

	router.Get("/tasks", h.ListTasks)
	router.Post("/tasks/:id/complete", h.CompleteTask)

	n := router.Group("/notifications")
	n.Get("/", h.ListNotifications)
	n.Post("/read", h.MarkAllNotificationsRead)
	n.Post("/:id/read", h.MarkNotificationRead)

	router.Get("/queue", h.QueueStatus)
	router.Post("/queue/:id/retry", h.RetryQueueTask)
	router.Get("/cache", h.CacheStats)
	router.Delete("/cache", h.ClearCache)

	router.Post("/chat", h.Chat)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		healthy = false
		checks["persistence"] = err.Error()
	} else {
		checks["persistence"] = "ok"
	}

	checks["agent_types"] = len(h.registry.AgentTypes())
	checks["action_types"] = len(h.registry.ActionTypes())

	status := "unhealthy"
	message := "PressDesk API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if healthy {
		status = "healthy"
		message = "PressDesk API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"checkers":  checks,
		"timestamp": time.Now().UTC(),
	})
}

// bind decodes a JSON body into req and validates it.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if len(c.Body()) == 0 {
		return h.validator.Struct(req)
	}

	err := c.Bind().JSON(req)
	if err != nil {
		return errInvalidJSON
	}

	return h.validator.Struct(req)
}

func queryInt(c fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	return strconv.Atoi(raw)
}
