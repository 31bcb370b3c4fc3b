package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/google/uuid"
)

// draftNamespace seeds the ids of drafts created from content gap suggestions, so a retried
// Implement overwrites the same draft.
var draftNamespace = uuid.MustParse("5b0e9f4c-6f4e-4d8e-9b59-0c1f3c7a2d61")

// Notifier posts entries to the administrator activity feed.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification)
}

// FieldChange is one field of the current vs. proposed diff.
type FieldChange struct {
	Field    string `json:"field"`
	Current  string `json:"current"`
	Proposed string `json:"proposed"`
}

// Preview describes what implementing a suggestion would do.
type Preview struct {
	SuggestionID   string            `json:"suggestion_id"`
	TargetType     models.TargetType `json:"target_type"`
	ArticleID      *string           `json:"article_id,omitempty"`
	CreatesArticle bool              `json:"creates_article"`
	Changes        []FieldChange     `json:"changes"`
	Notice         string            `json:"notice,omitempty"`
}

// ImplementationResult is the outcome of a successful implementation.
type ImplementationResult struct {
	Suggestion *models.AISuggestion `json:"suggestion"`
	Article    *models.Article      `json:"article,omitempty"`
	Changes    []FieldChange        `json:"changes"`
}

// Implementer applies approved suggestions to their targets.
type Implementer struct {
	suggestions *Suggestions
	persistence persistence.Persistence
	notifier    Notifier
	logger      *slog.Logger
}

func NewImplementer(
	logger *slog.Logger,
	persistence persistence.Persistence,
	suggestions *Suggestions,
	notifier Notifier,
) *Implementer {
	return &Implementer{
		suggestions: suggestions,
		persistence: persistence,
		notifier:    notifier,
		logger:      logger.With("module", "implementer"),
	}
}

// plan is the computed effect of a suggestion, built without touching storage.
type plan struct {
	article      *models.Article
	create       bool
	changes      []FieldChange
	notification *models.Notification
}

// Implement applies an approved suggestion and marks it implemented. The suggestion's
// lock is held for the whole operation, so a second call sees the implemented status
// and returns ErrAlreadyImplemented. On failure the status is left untouched.
func (i *Implementer) Implement(ctx context.Context, id string) (*ImplementationResult, error) {
	actor := ActorFromContext(ctx)
	if actor == "" {
		return nil, ErrActorRequired
	}

	unlock := i.suggestions.locks.Lock(id)
	defer unlock()

	suggestion, err := i.persistence.SuggestionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = i.suggestions.checkTransition("Implement", suggestion, models.SuggestionStatusImplemented)
	if err != nil {
		return nil, err
	}

	if suggestion.IsExpired(i.suggestions.now()) {
		return nil, NewConflictError("Implement", "SUGGESTION_EXPIRED", "suggestion has expired", ErrSuggestionExpired)
	}

	p, err := i.plan(ctx, suggestion)
	if err != nil {
		return nil, err
	}

	if p.article != nil {
		err = i.persistence.ArticleRepository().Save(ctx, p.article)
		if err != nil {
			return nil, fmt.Errorf("failed to save article: %w", err)
		}
	}

	if p.notification != nil && i.notifier != nil {
		i.notifier.Notify(ctx, *p.notification)
	}

	updated, err := i.suggestions.transition(ctx, suggestion, models.SuggestionStatusImplemented, actor)
	if err != nil {
		return nil, err
	}

	i.logger.InfoContext(ctx, "Suggestion implemented",
		"suggestion_id", id, "target_type", suggestion.TargetType, "changes", len(p.changes), "actor", actor)

	return &ImplementationResult{Suggestion: updated, Article: p.article, Changes: p.changes}, nil
}

// Preview computes the diff implementing a suggestion would produce. It never writes.
func (i *Implementer) Preview(ctx context.Context, id string) (*Preview, error) {
	suggestion, err := i.persistence.SuggestionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := i.plan(ctx, suggestion)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		SuggestionID:   suggestion.ID,
		TargetType:     suggestion.TargetType,
		CreatesArticle: p.create,
		Changes:        p.changes,
	}

	if p.article != nil && !p.create {
		preview.ArticleID = &p.article.ID
	}

	if p.notification != nil {
		preview.Notice = p.notification.Message
	}

	return preview, nil
}

func (i *Implementer) plan(ctx context.Context, suggestion *models.AISuggestion) (*plan, error) {
	now := i.suggestions.now()

	switch data := suggestion.SuggestionData.(type) {
	case *models.ArticleImprovement:
		article, err := i.target(ctx, suggestion.TargetID)
		if err != nil {
			return nil, err
		}

		p := &plan{article: article}
		p.set("title", &article.Title, data.Title)
		p.set("excerpt", &article.Excerpt, data.Excerpt)
		p.set("category", &article.Category, data.Category)

		if data.ContentAppend != nil && *data.ContentAppend != "" {
			p.set("content", &article.Content, ptr(appendContent(article.Content, *data.ContentAppend)))
		}

		article.UpdatedAt = now

		return p, nil
	case *models.SEOImprovement:
		article, err := i.target(ctx, suggestion.TargetID)
		if err != nil {
			return nil, err
		}

		p := &plan{article: article}
		p.set("title", &article.Title, data.MetaTitle)
		p.set("excerpt", &article.Excerpt, data.MetaDescription)
		article.UpdatedAt = now

		return p, nil
	case *models.ContentGap:
		article := &models.Article{
			ID:            uuid.NewSHA1(draftNamespace, []byte(suggestion.ID)).String(),
			Title:         data.SuggestedTitle,
			Slug:          Slugify(data.SuggestedTitle),
			Excerpt:       data.Excerpt,
			Content:       data.ContentOutline,
			Category:      data.Category,
			Status:        models.ArticleStatusDraft,
			PublishedDate: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		p := &plan{article: article, create: true}
		p.changes = []FieldChange{
			{Field: "title", Proposed: article.Title},
			{Field: "slug", Proposed: article.Slug},
			{Field: "excerpt", Proposed: article.Excerpt},
			{Field: "content", Proposed: article.Content},
			{Field: "category", Proposed: article.Category},
			{Field: "status", Proposed: string(article.Status)},
		}

		return p, nil
	case *models.HeroFeature:
		article, err := i.target(ctx, &data.ArticleID)
		if err != nil {
			return nil, err
		}

		message := fmt.Sprintf("Feature %q in the hero section with headline %q.", article.Title, data.Headline)

		return &plan{
			changes: []FieldChange{
				{Field: "hero.headline", Proposed: data.Headline},
				{Field: "hero.subheadline", Proposed: data.Subheadline},
			},
			notification: &models.Notification{
				Kind:    "hero.featured",
				Title:   "Hero section update",
				Message: message,
				Level:   models.NotificationInfo,
				Meta:    map[string]any{"article_id": article.ID, "suggestion_id": suggestion.ID},
			},
		}, nil
	default:
		return nil, NewValidationError(
			"Implement", "UNKNOWN_TARGET_TYPE",
			fmt.Sprintf("no implementation for target type %q", suggestion.TargetType),
			ErrInvalidSuggestion,
		)
	}
}

func (i *Implementer) target(ctx context.Context, articleID *string) (*models.Article, error) {
	if articleID == nil || *articleID == "" {
		return nil, &ServiceError{Op: "Implement", Code: "MISSING_TARGET", Message: "suggestion has no target article", Err: ErrMissingTarget}
	}

	article, err := i.persistence.ArticleRepository().GetByID(ctx, *articleID)
	if err != nil {
		if persistence.IsArticleNotFound(err) {
			return nil, &ServiceError{
				Op: "Implement", Code: "MISSING_TARGET", Message: "target article " + *articleID + " does not exist", Err: ErrMissingTarget,
			}
		}

		return nil, err
	}

	return article, nil
}

// set records and applies a change when proposed is present and differs.
func (p *plan) set(field string, current *string, proposed *string) {
	if proposed == nil || *proposed == *current {
		return
	}

	p.changes = append(p.changes, FieldChange{Field: field, Current: *current, Proposed: *proposed})
	*current = *proposed
}

// appendContent adds addition after content unless content already ends with it.
func appendContent(content, addition string) string {
	if content == "" {
		return strings.TrimLeft(addition, "\n")
	}

	if strings.HasSuffix(content, strings.TrimLeft(addition, "\n")) {
		return content
	}

	if strings.HasPrefix(addition, "\n") {
		return content + addition
	}

	return content + "\n\n" + addition
}

// Slugify lowercases s, turns every run of non-alphanumerics into one hyphen and trims
// hyphens from both ends.
func Slugify(s string) string {
	var b strings.Builder

	hyphen := false

	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			hyphen = false

			continue
		}

		if !hyphen {
			b.WriteRune('-')

			hyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}

func ptr[T any](v T) *T {
	return &v
}
