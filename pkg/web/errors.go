package web

import (
	"errors"

	"github.com/dukex/pressdesk/pkg/notifications"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/queue"
	"github.com/dukex/pressdesk/pkg/runner"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, kind, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusNotFound, "not_found", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError translates service and persistence errors into problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrActorRequired):
		return problem(c, fiber.StatusUnauthorized, "actor_required", "the X-Admin-ID header is required")

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	case services.IsImplementationError(err):
		return problem(c, fiber.StatusUnprocessableEntity, "implementation_failed", err.Error())

	case errors.Is(err, runner.ErrAgentInactive), errors.Is(err, runner.ErrSystemAgent):
		return problem(c, fiber.StatusConflict, "agent_not_runnable", err.Error())

	case persistence.IsSuggestionNotFound(err):
		return problem(c, fiber.StatusNotFound, "suggestion_not_found", "suggestion not found")

	case persistence.IsAgentNotFound(err):
		return problem(c, fiber.StatusNotFound, "agent_not_found", "agent not found")

	case persistence.IsArticleNotFound(err):
		return problem(c, fiber.StatusNotFound, "article_not_found", "article not found")

	case persistence.IsRuleNotFound(err):
		return problem(c, fiber.StatusNotFound, "rule_not_found", "workflow rule not found")

	case errors.Is(err, persistence.ErrExecutionNotFound):
		return problem(c, fiber.StatusNotFound, "execution_not_found", "workflow execution not found")

	case errors.Is(err, persistence.ErrTaskNotFound), errors.Is(err, queue.ErrTaskNotFound):
		return problem(c, fiber.StatusNotFound, "task_not_found", "task not found")

	case errors.Is(err, notifications.ErrNotificationNotFound):
		return problem(c, fiber.StatusNotFound, "notification_not_found", "notification not found")

	case errors.Is(err, queue.ErrInvalidTask):
		return badRequest(c, err.Error())

	case errors.Is(err, queue.ErrNotRetryable):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	case persistence.IsNotFound(err):
		return notFound(c, err.Error())

	default:
		return internalError(c, err)
	}
}

var errInvalidJSON = errors.New("invalid JSON format")
