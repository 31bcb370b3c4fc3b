package web

import (
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) ListAgents(c fiber.Ctx) error {
	agents, err := h.agents.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"agents": agents})
}

func (h *APIHandlers) AgentTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"types": h.agents.Types()})
}

func (h *APIHandlers) GetAgent(c fiber.Ctx) error {
	agent, err := h.agents.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(agent)
}

func (h *APIHandlers) CreateAgent(c fiber.Ctx) error {
	var req AgentRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if req.Type == "" {
		return badRequest(c, "Agent type is required")
	}

	agent, err := h.agents.Create(c.Context(), req.model())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(agent)
}

func (h *APIHandlers) UpdateAgent(c fiber.Ctx) error {
	var req AgentRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	agent, err := h.agents.Update(c.Context(), c.Params("id"), req.model())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(agent)
}

func (h *APIHandlers) ActivateAgent(c fiber.Ctx) error {
	return h.setAgentActive(c, true)
}

func (h *APIHandlers) DeactivateAgent(c fiber.Ctx) error {
	return h.setAgentActive(c, false)
}

func (h *APIHandlers) setAgentActive(c fiber.Ctx, active bool) error {
	agent, err := h.agents.SetActive(c.Context(), c.Params("id"), active)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(agent)
}

// RunAgent runs one agent now over the published articles and returns its result.
func (h *APIHandlers) RunAgent(c fiber.Ctx) error {
	result, err := h.runner.RunAgentByID(c.Context(), c.Params("id"), nil)
	if err != nil && result == nil {
		return handleServiceError(c, err)
	}

	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) RunAllAgents(c fiber.Ctx) error {
	batch, err := h.runner.RunAllActiveAgents(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(batch)
}

// EnqueueAgent submits an agent run to the execution queue and returns the task id.
func (h *APIHandlers) EnqueueAgent(c fiber.Ctx) error {
	var req EnqueueRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	agent, err := h.agents.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		priority, err = models.ParseQueuePriority(req.Priority)
		if err != nil {
			return badRequest(c, err.Error())
		}
	}

	taskID, err := h.queue.Submit(agent.ID, nil, priority, req.ScheduledFor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": taskID})
}
