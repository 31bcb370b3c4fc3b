package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

const suggestionColumns = `
			id
		  , agent_id
		  , target_type
		  , target_id
		  , suggestion_data
		  , reasoning
		  , status
		  , confidence_score
		  , priority
		  , created_at
		  , reviewed_at
		  , reviewed_by
		  , expires_at`

// SuggestionRepository handles suggestion database operations.
type SuggestionRepository struct {
	repository
}

// Create inserts a new suggestion.
func (r *SuggestionRepository) Create(ctx context.Context, suggestion *models.AISuggestion) error {
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}

	data, err := models.EncodeSuggestionData(suggestion.SuggestionData)
	if err != nil {
		return persistence.NewRecordError("Create", "ai_suggestions", suggestion.ID, err)
	}

	query := `
		INSERT INTO ai_suggestions (` + suggestionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		suggestion.ID,
		suggestion.AgentID,
		suggestion.TargetType,
		nullString(suggestion.TargetID),
		[]byte(data),
		suggestion.Reasoning,
		suggestion.Status,
		nullFloat(suggestion.ConfidenceScore),
		nullInt(suggestion.Priority),
		suggestion.CreatedAt,
		nullTime(suggestion.ReviewedAt),
		nullString(suggestion.ReviewedBy),
		nullTime(suggestion.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewRecordError("Create", "ai_suggestions", suggestion.ID, persistence.ErrSuggestionAlreadyExists)
		}

		return persistence.NewRecordError("Create", "ai_suggestions", suggestion.ID, err)
	}

	return nil
}

// GetByID retrieves a suggestion by its ID.
func (r *SuggestionRepository) GetByID(ctx context.Context, id string) (*models.AISuggestion, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+suggestionColumns+" FROM ai_suggestions WHERE id = $1", id)

	suggestion, err := scanSuggestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "ai_suggestions", id, persistence.ErrSuggestionNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "ai_suggestions", id, err)
	}

	return suggestion, nil
}

// List returns suggestions newest first, filtered and paginated.
func (r *SuggestionRepository) List(
	ctx context.Context,
	opts persistence.ListSuggestionsOptions,
) ([]*models.AISuggestion, error) {
	var (
		where []string
		args  []any
	)

	if opts.Status != nil {
		args = append(args, *opts.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	if opts.AgentID != "" {
		args = append(args, opts.AgentID)
		where = append(where, fmt.Sprintf("agent_id = $%d", len(args)))
	}

	if opts.TargetType != "" {
		args = append(args, opts.TargetType)
		where = append(where, fmt.Sprintf("target_type = $%d", len(args)))
	}

	query := "SELECT" + suggestionColumns + " FROM ai_suggestions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY created_at DESC, id ASC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRecordError("List", "ai_suggestions", "", err)
	}

	defer r.closeRows(ctx, rows)

	suggestions := make([]*models.AISuggestion, 0)

	for rows.Next() {
		suggestion, err := scanSuggestion(rows)
		if err != nil {
			return nil, persistence.NewRecordError("List", "ai_suggestions", "", err)
		}

		suggestions = append(suggestions, suggestion)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRecordError("List", "ai_suggestions", "", err)
	}

	return suggestions, nil
}

// UpdateStatus performs a conditional update keyed on the previous status.
func (r *SuggestionRepository) UpdateStatus(
	ctx context.Context,
	id string,
	from, to models.SuggestionStatus,
	reviewedBy string,
	reviewedAt time.Time,
) (*models.AISuggestion, error) {
	query := `
		UPDATE ai_suggestions
		SET status = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = $2
		RETURNING` + suggestionColumns

	row := r.db.QueryRowContext(ctx, query, id, from, to, reviewedBy, reviewedAt)

	suggestion, err := scanSuggestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrMissing(ctx, "UpdateStatus", id, from)
		}

		return nil, persistence.NewRecordError("UpdateStatus", "ai_suggestions", id, err)
	}

	return suggestion, nil
}

// UpdateData replaces the payload of a suggestion still in the expected status.
func (r *SuggestionRepository) UpdateData(
	ctx context.Context,
	id string,
	expected models.SuggestionStatus,
	data models.SuggestionData,
) (*models.AISuggestion, error) {
	encoded, err := models.EncodeSuggestionData(data)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateData", "ai_suggestions", id, err)
	}

	query := `
		UPDATE ai_suggestions
		SET suggestion_data = $3
		WHERE id = $1 AND status = $2
		RETURNING` + suggestionColumns

	row := r.db.QueryRowContext(ctx, query, id, expected, []byte(encoded))

	suggestion, err := scanSuggestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.conflictOrMissing(ctx, "UpdateData", id, expected)
		}

		return nil, persistence.NewRecordError("UpdateData", "ai_suggestions", id, err)
	}

	return suggestion, nil
}

func (r *SuggestionRepository) conflictOrMissing(
	ctx context.Context,
	op, id string,
	expected models.SuggestionStatus,
) error {
	var actual models.SuggestionStatus

	err := r.db.QueryRowContext(ctx, "SELECT status FROM ai_suggestions WHERE id = $1", id).Scan(&actual)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.NewRecordError(op, "ai_suggestions", id, persistence.ErrSuggestionNotFound)
		}

		return persistence.NewRecordError(op, "ai_suggestions", id, err)
	}

	return persistence.NewStatusConflictError(id, expected, actual)
}

func scanSuggestion(row scanner) (*models.AISuggestion, error) {
	var (
		suggestion models.AISuggestion
		targetID   sql.NullString
		data       []byte
		confidence sql.NullFloat64
		priority   sql.NullInt64
		reviewedAt sql.NullTime
		reviewedBy sql.NullString
		expiresAt  sql.NullTime
	)

	err := row.Scan(
		&suggestion.ID,
		&suggestion.AgentID,
		&suggestion.TargetType,
		&targetID,
		&data,
		&suggestion.Reasoning,
		&suggestion.Status,
		&confidence,
		&priority,
		&suggestion.CreatedAt,
		&reviewedAt,
		&reviewedBy,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	suggestion.SuggestionData, err = models.DecodeSuggestionData(suggestion.TargetType, data)
	if err != nil {
		return nil, err
	}

	suggestion.TargetID = stringPtr(targetID)
	suggestion.ReviewedAt = timePtr(reviewedAt)
	suggestion.ReviewedBy = stringPtr(reviewedBy)
	suggestion.ExpiresAt = timePtr(expiresAt)
	suggestion.CreatedAt = suggestion.CreatedAt.UTC()

	if confidence.Valid {
		suggestion.ConfidenceScore = &confidence.Float64
	}

	if priority.Valid {
		value := int(priority.Int64)
		suggestion.Priority = &value
	}

	return &suggestion, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
