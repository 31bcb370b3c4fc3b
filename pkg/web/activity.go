package web

import (
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) ListTasks(c fiber.Ctx) error {
	var status *models.TaskStatus

	if raw := c.Query("status"); raw != "" {
		s := models.TaskStatus(raw)
		status = &s
	}

	tasks, err := h.persistence.TaskRepository().List(c.Context(), status)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

func (h *APIHandlers) CompleteTask(c fiber.Ctx) error {
	repo := h.persistence.TaskRepository()

	task, err := repo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	task.Status = models.TaskStatusDone
	task.UpdatedAt = time.Now().UTC()

	err = repo.Save(c.Context(), task)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) ListNotifications(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	return c.JSON(fiber.Map{
		"notifications": h.feed.List(limit),
		"unread":        h.feed.UnreadCount(),
	})
}

func (h *APIHandlers) MarkNotificationRead(c fiber.Ctx) error {
	err := h.feed.MarkRead(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) MarkAllNotificationsRead(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"marked": h.feed.MarkAllRead()})
}

func (h *APIHandlers) QueueStatus(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"stats": h.queue.Stats(),
		"tasks": h.queue.List(),
	})
}

func (h *APIHandlers) RetryQueueTask(c fiber.Ctx) error {
	err := h.queue.Retry(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) CacheStats(c fiber.Ctx) error {
	return c.JSON(h.cache.Stats())
}

func (h *APIHandlers) ClearCache(c fiber.Ctx) error {
	h.cache.Clear()

	return c.SendStatus(fiber.StatusNoContent)
}

// Chat forwards a visitor question to the remote answer endpoint. Endpoint failures come back
// as a 200 with an apology message flagged is_error.
func (h *APIHandlers) Chat(c fiber.Ctx) error {
	if h.chat == nil {
		return problem(c, fiber.StatusServiceUnavailable, "chat_unavailable", "chat endpoint is not configured")
	}

	var req ChatRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	message, err := h.chat.Ask(c.Context(), req.Query, req.History)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(message)
}
