package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// AdminActionRepository handles audit log database operations.
type AdminActionRepository struct {
	repository
}

// Append inserts an action. The serial column preserves append order.
func (r *AdminActionRepository) Append(ctx context.Context, action *models.AdminAction) error {
	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO admin_actions_log (
			id, admin_id, suggestion_id, action_type, original_data, modified_data, admin_reasoning, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		action.ID,
		action.AdminID,
		action.SuggestionID,
		action.ActionType,
		nullJSON(action.OriginalData),
		nullJSON(action.ModifiedData),
		nullString(action.AdminReasoning),
		action.Timestamp,
	)
	if err != nil {
		return persistence.NewRecordError("Append", "admin_actions_log", action.ID, err)
	}

	return nil
}

// ListBySuggestion returns the actions for a suggestion in append order.
func (r *AdminActionRepository) ListBySuggestion(ctx context.Context, suggestionID string) ([]*models.AdminAction, error) {
	query := `
		SELECT
			id
		  , admin_id
		  , suggestion_id
		  , action_type
		  , original_data
		  , modified_data
		  , admin_reasoning
		  , timestamp
		FROM admin_actions_log
		WHERE suggestion_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, suggestionID)
	if err != nil {
		return nil, persistence.NewRecordError("ListBySuggestion", "admin_actions_log", suggestionID, err)
	}

	defer r.closeRows(ctx, rows)

	actions := make([]*models.AdminAction, 0)

	for rows.Next() {
		var (
			action    models.AdminAction
			original  []byte
			modified  []byte
			reasoning sql.NullString
		)

		err := rows.Scan(
			&action.ID,
			&action.AdminID,
			&action.SuggestionID,
			&action.ActionType,
			&original,
			&modified,
			&reasoning,
			&action.Timestamp,
		)
		if err != nil {
			return nil, persistence.NewRecordError("ListBySuggestion", "admin_actions_log", suggestionID, err)
		}

		if len(original) > 0 {
			action.OriginalData = json.RawMessage(original)
		}

		if len(modified) > 0 {
			action.ModifiedData = json.RawMessage(modified)
		}

		action.AdminReasoning = stringPtr(reasoning)
		action.Timestamp = action.Timestamp.UTC()
		actions = append(actions, &action)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRecordError("ListBySuggestion", "admin_actions_log", suggestionID, err)
	}

	return actions, nil
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	return []byte(raw)
}
