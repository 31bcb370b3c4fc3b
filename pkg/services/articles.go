package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/google/uuid"
)

type Articles struct {
	persistence persistence.Persistence
}

func NewArticles(persistence persistence.Persistence) *Articles {
	return &Articles{persistence: persistence}
}

// List returns articles, optionally only those with the given status.
func (a *Articles) List(ctx context.Context, status *models.ArticleStatus) ([]*models.Article, error) {
	return a.persistence.ArticleRepository().List(ctx, persistence.ListArticlesOptions{Status: status})
}

// Published returns the articles agents analyze.
func (a *Articles) Published(ctx context.Context) ([]*models.Article, error) {
	status := models.ArticleStatusPublished

	return a.List(ctx, &status)
}

func (a *Articles) FetchByID(ctx context.Context, id string) (*models.Article, error) {
	return a.persistence.ArticleRepository().GetByID(ctx, id)
}

func (a *Articles) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	err := validateArticle("Create", article)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	article.ID = uuid.NewString()
	article.CreatedAt = now
	article.UpdatedAt = now

	if article.PublishedDate.IsZero() {
		article.PublishedDate = now
	}

	err = a.persistence.ArticleRepository().Save(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	return article, nil
}

func (a *Articles) Update(ctx context.Context, id string, article *models.Article) (*models.Article, error) {
	existing, err := a.persistence.ArticleRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = validateArticle("Update", article)
	if err != nil {
		return nil, err
	}

	article.ID = id
	article.CreatedAt = existing.CreatedAt
	article.UpdatedAt = time.Now().UTC()

	if article.PublishedDate.IsZero() {
		article.PublishedDate = existing.PublishedDate
	}

	err = a.persistence.ArticleRepository().Save(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}

	return article, nil
}

func validateArticle(op string, article *models.Article) error {
	if article == nil {
		return NewValidationError(op, "ARTICLE_REQUIRED", "article is required", ErrInvalidArticle)
	}

	article.Title = strings.TrimSpace(article.Title)
	if len(article.Title) < 3 {
		return NewValidationError(op, "INVALID_TITLE", "title must have at least 3 characters", ErrInvalidArticle)
	}

	if article.Status == "" {
		article.Status = models.ArticleStatusDraft
	}

	if article.Status != models.ArticleStatusDraft && article.Status != models.ArticleStatusPublished {
		return NewValidationError(op, "INVALID_STATUS", fmt.Sprintf("invalid status '%s'", article.Status), ErrInvalidArticle)
	}

	if article.Slug == "" {
		article.Slug = Slugify(article.Title)
	}

	return nil
}
