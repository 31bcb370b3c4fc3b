package web

import (
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) ListRules(c fiber.Ctx) error {
	rules, err := h.rules.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"rules": rules})
}

func (h *APIHandlers) ActionTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"types": h.registry.ActionTypes()})
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	rule, err := h.rules.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) CreateRule(c fiber.Ctx) error {
	var req RuleRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	rule, err := h.rules.Create(c.Context(), req.model())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

func (h *APIHandlers) UpdateRule(c fiber.Ctx) error {
	var req RuleRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	rule, err := h.rules.Update(c.Context(), c.Params("id"), req.model())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) DeleteRule(c fiber.Ctx) error {
	err := h.rules.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) EnableRule(c fiber.Ctx) error {
	return h.setRuleEnabled(c, true)
}

func (h *APIHandlers) DisableRule(c fiber.Ctx) error {
	return h.setRuleEnabled(c, false)
}

func (h *APIHandlers) setRuleEnabled(c fiber.Ctx, enabled bool) error {
	rule, err := h.rules.SetEnabled(c.Context(), c.Params("id"), enabled)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) RuleExecutions(c fiber.Ctx) error {
	executions, err := h.rules.Executions(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	executions, err := h.rules.RecentExecutions(c.Context(), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.rules.FetchExecution(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}
