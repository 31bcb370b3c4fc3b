package web

import (
	"context"
	"strings"

	"github.com/dukex/pressdesk/pkg/services"
	"github.com/gofiber/fiber/v3"
)

const (
	ActorHeader = "X-Admin-ID"
	actorLocal  = "actor"
)

// ActorMiddleware records the administrator named by the X-Admin-ID header. Requests without
// it still pass; operations that need an actor reject them.
func ActorMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor := strings.TrimSpace(c.Get(ActorHeader))
		if actor != "" {
			c.Locals(actorLocal, actor)
		}

		return c.Next()
	}
}

// actorContext returns the request context carrying the acting administrator, if any.
func actorContext(c fiber.Ctx) context.Context {
	actor, _ := c.Locals(actorLocal).(string)
	if actor == "" {
		return c.Context()
	}

	return services.WithActor(c.Context(), actor)
}
