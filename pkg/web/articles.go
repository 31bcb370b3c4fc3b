package web

import (
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) ListArticles(c fiber.Ctx) error {
	var status *models.ArticleStatus

	if raw := c.Query("status"); raw != "" {
		s := models.ArticleStatus(raw)
		status = &s
	}

	articles, err := h.articles.List(c.Context(), status)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"articles": articles})
}

func (h *APIHandlers) GetArticle(c fiber.Ctx) error {
	article, err := h.articles.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(article)
}

func (h *APIHandlers) CreateArticle(c fiber.Ctx) error {
	var article models.Article

	err := h.bind(c, &article)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.articles.Create(c.Context(), &article)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateArticle(c fiber.Ctx) error {
	var article models.Article

	err := h.bind(c, &article)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.articles.Update(c.Context(), c.Params("id"), &article)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}
