// Package models defines the core domain models for the publishing co-pilot.
package models

import "time"

// ArticleStatus represents the publication state of an article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

// Article is a piece of site content that agents analyze and suggestions target.
type Article struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"          validate:"required,min=3"`
	Slug          string        `json:"slug"`
	Excerpt       string        `json:"excerpt"`
	Content       string        `json:"content"`
	Category      string        `json:"category"`
	Author        string        `json:"author"`
	Status        ArticleStatus `json:"status"         validate:"required,oneof=draft published"`
	PublishedDate time.Time     `json:"published_date"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsPublished reports whether the article is visible on the site.
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// AnalysisContext is the input handed to every agent run.
type AnalysisContext struct {
	Articles []*Article `json:"articles"`
}
