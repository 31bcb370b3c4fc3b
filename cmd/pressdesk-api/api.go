// Package main provides the pressdesk admin API server.
package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/pressdesk/pkg/chat"
	"github.com/dukex/pressdesk/pkg/cmd"
	"github.com/dukex/pressdesk/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	core     *cmd.Core
	chat     *chat.Client
	validate *validator.Validate
}

const shutdownTimeout = 10 * time.Second

// NewAPI serves core over HTTP. chatClient may be nil when no answer endpoint is configured.
func NewAPI(logger *slog.Logger, core *cmd.Core, chatClient *chat.Client) *API {
	return &API{
		logger:   logger,
		core:     core,
		chat:     chatClient,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(web.Dependencies{
		Logger:      a.logger,
		Persistence: a.core.Persistence,
		Registry:    a.core.Registry,
		Suggestions: a.core.Suggestions,
		Implementer: a.core.Implementer,
		Articles:    a.core.Articles,
		Agents:      a.core.Agents,
		Rules:       a.core.Rules,
		Runner:      a.core.Runner,
		Queue:       a.core.Queue,
		Cache:       a.core.Cache,
		Feed:        a.core.Feed,
		Chat:        a.chat,
		Validate:    a.validate,
	})

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.core.Persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("pressdesk API")
	})

	handlers.Register(app)

	return app
}

// Start listens on port until ctx is done, then drains in-flight requests.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := app.ShutdownWithContext(shutdownCtx)
		if err != nil {
			a.logger.Error("Failed to shut down HTTP server", "error", err)
		}
	}()

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
