package file

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// ArticleRepository handles article file operations.
type ArticleRepository struct {
	mu    *sync.RWMutex
	table *table[models.Article]
}

// Save creates or updates an article.
func (ar *ArticleRepository) Save(_ context.Context, article *models.Article) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}

	article.UpdatedAt = now

	err := ar.table.write(article.ID, article)
	if err != nil {
		return persistence.NewRecordError("Save", "articles", article.ID, err)
	}

	return nil
}

// GetByID retrieves an article by its ID.
func (ar *ArticleRepository) GetByID(_ context.Context, id string) (*models.Article, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	article, err := ar.table.read(id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "articles", id, err)
	}

	if article == nil {
		return nil, persistence.NewRecordError("GetByID", "articles", id, persistence.ErrArticleNotFound)
	}

	return article, nil
}

// List returns articles newest published first.
func (ar *ArticleRepository) List(_ context.Context, opts persistence.ListArticlesOptions) ([]*models.Article, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	all, err := ar.table.all()
	if err != nil {
		return nil, persistence.NewRecordError("List", "articles", "", err)
	}

	articles := make([]*models.Article, 0, len(all))

	for _, article := range all {
		if opts.Status != nil && article.Status != *opts.Status {
			continue
		}

		articles = append(articles, article)
	}

	sort.Slice(articles, func(i, j int) bool {
		if articles[i].PublishedDate.Equal(articles[j].PublishedDate) {
			return articles[i].ID < articles[j].ID
		}

		return articles[i].PublishedDate.After(articles[j].PublishedDate)
	})

	return articles, nil
}
