package web

import (
	"context"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) ListSuggestions(c fiber.Ctx) error {
	req, err := parseListSuggestionsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	suggestions, err := h.suggestions.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"suggestions": suggestions,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

func parseListSuggestionsRequest(c fiber.Ctx) (*services.ListSuggestionsRequest, error) {
	req := &services.ListSuggestionsRequest{
		AgentID:    c.Query("agent_id"),
		TargetType: models.TargetType(c.Query("target_type")),
	}

	var err error

	req.Limit, err = queryInt(c, "limit")
	if err != nil {
		return nil, err
	}

	req.Offset, err = queryInt(c, "offset")
	if err != nil {
		return nil, err
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.SuggestionStatus(statusStr)
		req.Status = &status
	}

	return req, nil
}

func (h *APIHandlers) GetSuggestion(c fiber.Ctx) error {
	suggestion, err := h.suggestions.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(suggestion)
}

func (h *APIHandlers) SuggestionHistory(c fiber.Ctx) error {
	history, err := h.suggestions.History(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"actions": history})
}

func (h *APIHandlers) SuggestionExecutions(c fiber.Ctx) error {
	id := c.Params("id")

	_, err := h.suggestions.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	executions, err := h.persistence.WorkflowExecutionRepository().ListBySuggestion(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) PreviewSuggestion(c fiber.Ctx) error {
	preview, err := h.implementer.Preview(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(preview)
}

type decision func(ctx context.Context, id string, reasoning *string) (*models.AISuggestion, error)

func (h *APIHandlers) decide(c fiber.Ctx, decide decision) error {
	var req DecisionRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	suggestion, err := decide(actorContext(c), c.Params("id"), req.Reasoning)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(suggestion)
}

func (h *APIHandlers) ApproveSuggestion(c fiber.Ctx) error {
	return h.decide(c, h.suggestions.Approve)
}

func (h *APIHandlers) RejectSuggestion(c fiber.Ctx) error {
	return h.decide(c, h.suggestions.Reject)
}

func (h *APIHandlers) DismissSuggestion(c fiber.Ctx) error {
	return h.decide(c, h.suggestions.Dismiss)
}

func (h *APIHandlers) ImplementSuggestion(c fiber.Ctx) error {
	result, err := h.implementer.Implement(actorContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) EditSuggestion(c fiber.Ctx) error {
	var req EditSuggestionRequest

	err := h.bind(c, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")

	current, err := h.suggestions.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	data, err := models.DecodeSuggestionData(current.TargetType, req.SuggestionData)
	if err != nil {
		return badRequest(c, "Invalid suggestion_data: "+err.Error())
	}

	updated, err := h.suggestions.Edit(actorContext(c), id, data, req.Reasoning)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}
