package services

import (
	"context"
	"strings"

	"github.com/dukex/pressdesk/pkg/models"
)

// SystemActor is the actor id automation acts under.
const SystemActor = models.SystemAdminID

type actorKey struct{}

// WithActor returns a context carrying the id of the administrator making decisions.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, strings.TrimSpace(actorID))
}

// ActorFromContext returns the acting administrator, or "" when none is set.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)

	return actor
}

// SystemContext marks ctx as acting on behalf of automation.
func SystemContext(ctx context.Context) context.Context {
	return WithActor(ctx, SystemActor)
}
