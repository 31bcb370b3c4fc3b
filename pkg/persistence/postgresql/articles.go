package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

const articleColumns = `
			id
		  , title
		  , slug
		  , excerpt
		  , content
		  , category
		  , author
		  , status
		  , published_date
		  , created_at
		  , updated_at`

// ArticleRepository handles article database operations.
type ArticleRepository struct {
	repository
}

// Save inserts or updates an article.
func (r *ArticleRepository) Save(ctx context.Context, article *models.Article) error {
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}

	article.UpdatedAt = now

	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			excerpt = EXCLUDED.excerpt,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			author = EXCLUDED.author,
			status = EXCLUDED.status,
			published_date = EXCLUDED.published_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Slug, article.Excerpt, article.Content, article.Category,
		article.Author, article.Status, article.PublishedDate, article.CreatedAt, article.UpdatedAt)
	if err != nil {
		return persistence.NewRecordError("Save", "articles", article.ID, err)
	}

	return nil
}

// GetByID retrieves an article by its ID.
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+articleColumns+" FROM articles WHERE id = $1", id)

	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "articles", id, persistence.ErrArticleNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "articles", id, err)
	}

	return article, nil
}

// List returns articles newest published first.
func (r *ArticleRepository) List(ctx context.Context, opts persistence.ListArticlesOptions) ([]*models.Article, error) {
	query := "SELECT" + articleColumns + " FROM articles"

	var args []any

	if opts.Status != nil {
		query += " WHERE status = $1"

		args = append(args, *opts.Status)
	}

	query += " ORDER BY published_date DESC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRecordError("List", "articles", "", err)
	}

	defer r.closeRows(ctx, rows)

	articles := make([]*models.Article, 0)

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, persistence.NewRecordError("List", "articles", "", err)
		}

		articles = append(articles, article)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRecordError("List", "articles", "", err)
	}

	return articles, nil
}

func scanArticle(row scanner) (*models.Article, error) {
	var article models.Article

	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Slug,
		&article.Excerpt,
		&article.Content,
		&article.Category,
		&article.Author,
		&article.Status,
		&article.PublishedDate,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.PublishedDate = article.PublishedDate.UTC()
	article.CreatedAt = article.CreatedAt.UTC()
	article.UpdatedAt = article.UpdatedAt.UTC()

	return &article, nil
}
