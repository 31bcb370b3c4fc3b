package file

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// SuggestionRepository handles suggestion file operations.
type SuggestionRepository struct {
	mu    *sync.RWMutex
	table *table[models.AISuggestion]
}

// Create stores a new suggestion.
func (sr *SuggestionRepository) Create(_ context.Context, suggestion *models.AISuggestion) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	existing, err := sr.table.read(suggestion.ID)
	if err != nil {
		return persistence.NewRecordError("Create", "ai_suggestions", suggestion.ID, err)
	}

	if existing != nil {
		return persistence.NewRecordError("Create", "ai_suggestions", suggestion.ID, persistence.ErrSuggestionAlreadyExists)
	}

	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}

	return sr.table.write(suggestion.ID, suggestion)
}

// GetByID retrieves a suggestion by its ID.
func (sr *SuggestionRepository) GetByID(_ context.Context, id string) (*models.AISuggestion, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	return sr.get("GetByID", id)
}

func (sr *SuggestionRepository) get(op, id string) (*models.AISuggestion, error) {
	suggestion, err := sr.table.read(id)
	if err != nil {
		return nil, persistence.NewRecordError(op, "ai_suggestions", id, err)
	}

	if suggestion == nil {
		return nil, persistence.NewRecordError(op, "ai_suggestions", id, persistence.ErrSuggestionNotFound)
	}

	return suggestion, nil
}

// List returns suggestions newest first, filtered and paginated.
func (sr *SuggestionRepository) List(
	_ context.Context,
	opts persistence.ListSuggestionsOptions,
) ([]*models.AISuggestion, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	all, err := sr.table.all()
	if err != nil {
		return nil, persistence.NewRecordError("List", "ai_suggestions", "", err)
	}

	filtered := make([]*models.AISuggestion, 0, len(all))

	for _, suggestion := range all {
		if opts.Status != nil && suggestion.Status != *opts.Status {
			continue
		}

		if opts.AgentID != "" && suggestion.AgentID != opts.AgentID {
			continue
		}

		if opts.TargetType != "" && suggestion.TargetType != opts.TargetType {
			continue
		}

		filtered = append(filtered, suggestion)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID < filtered[j].ID
		}

		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	return paginate(filtered, opts.Limit, opts.Offset), nil
}

// UpdateStatus performs a compare-and-set on the suggestion status.
func (sr *SuggestionRepository) UpdateStatus(
	_ context.Context,
	id string,
	from, to models.SuggestionStatus,
	reviewedBy string,
	reviewedAt time.Time,
) (*models.AISuggestion, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	suggestion, err := sr.get("UpdateStatus", id)
	if err != nil {
		return nil, err
	}

	if suggestion.Status != from {
		return nil, persistence.NewStatusConflictError(id, from, suggestion.Status)
	}

	suggestion.Status = to
	suggestion.ReviewedAt = &reviewedAt
	suggestion.ReviewedBy = &reviewedBy

	err = sr.table.write(id, suggestion)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateStatus", "ai_suggestions", id, err)
	}

	return suggestion, nil
}

// UpdateData replaces the payload if the suggestion is still in the expected status.
func (sr *SuggestionRepository) UpdateData(
	_ context.Context,
	id string,
	expected models.SuggestionStatus,
	data models.SuggestionData,
) (*models.AISuggestion, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	suggestion, err := sr.get("UpdateData", id)
	if err != nil {
		return nil, err
	}

	if suggestion.Status != expected {
		return nil, persistence.NewStatusConflictError(id, expected, suggestion.Status)
	}

	suggestion.SuggestionData = data

	err = sr.table.write(id, suggestion)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateData", "ai_suggestions", id, err)
	}

	return suggestion, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}

	if offset >= len(items) {
		return make([]T, 0)
	}

	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return items[offset:end]
}
