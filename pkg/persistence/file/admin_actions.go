package file

import (
	"context"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// actionLog keeps every decision on one suggestion in append order.
type actionLog struct {
	SuggestionID string                `json:"suggestion_id"`
	Actions      []*models.AdminAction `json:"actions"`
}

// AdminActionRepository handles audit log file operations.
type AdminActionRepository struct {
	mu    *sync.RWMutex
	table *table[actionLog]
}

// Append adds an action to the end of its suggestion's log.
func (ar *AdminActionRepository) Append(_ context.Context, action *models.AdminAction) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	log, err := ar.table.read(action.SuggestionID)
	if err != nil {
		return persistence.NewRecordError("Append", "admin_actions_log", action.ID, err)
	}

	if log == nil {
		log = &actionLog{SuggestionID: action.SuggestionID}
	}

	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now().UTC()
	}

	log.Actions = append(log.Actions, action)

	return ar.table.write(action.SuggestionID, log)
}

// ListBySuggestion returns the actions for a suggestion in append order.
func (ar *AdminActionRepository) ListBySuggestion(_ context.Context, suggestionID string) ([]*models.AdminAction, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	log, err := ar.table.read(suggestionID)
	if err != nil {
		return nil, persistence.NewRecordError("ListBySuggestion", "admin_actions_log", suggestionID, err)
	}

	if log == nil {
		return make([]*models.AdminAction, 0), nil
	}

	return log.Actions, nil
}
