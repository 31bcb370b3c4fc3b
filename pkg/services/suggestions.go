package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/google/uuid"
)

// Suggestions owns suggestion state. Status changes on one suggestion are serialized by a
// per-id lock and a compare-and-set on the stored status; every decision appends to the audit log.
type Suggestions struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	locks       *KeyedMutex
	logger      *slog.Logger
	now         func() time.Time
}

func NewSuggestions(
	logger *slog.Logger,
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	locks *KeyedMutex,
) *Suggestions {
	if locks == nil {
		locks = NewKeyedMutex()
	}

	return &Suggestions{
		persistence: persistence,
		publisher:   publisher,
		locks:       locks,
		logger:      logger.With("module", "suggestions"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service's time source.
func (s *Suggestions) WithClock(now func() time.Time) *Suggestions {
	s.now = now

	return s
}

// ValidateCandidate rejects candidates that must never be persisted.
func ValidateCandidate(candidate models.CandidateSuggestion) error {
	const op = "ValidateCandidate"

	if strings.TrimSpace(candidate.Reasoning) == "" {
		return NewValidationError(op, "EMPTY_REASONING", "reasoning is required", ErrEmptyReasoning)
	}

	if candidate.ConfidenceScore != nil && (*candidate.ConfidenceScore < 0 || *candidate.ConfidenceScore > 1) {
		return NewValidationError(
			op, "INVALID_CONFIDENCE",
			fmt.Sprintf("confidence score %v is outside [0, 1]", *candidate.ConfidenceScore),
			ErrInvalidConfidence,
		)
	}

	if candidate.Priority != nil && (*candidate.Priority < 1 || *candidate.Priority > 5) {
		return NewValidationError(
			op, "INVALID_PRIORITY",
			fmt.Sprintf("priority %d is outside 1..5", *candidate.Priority),
			ErrInvalidPriority,
		)
	}

	if !slices.Contains(models.TargetTypes(), candidate.TargetType) {
		return NewValidationError(
			op, "UNKNOWN_TARGET_TYPE",
			fmt.Sprintf("unknown target type %q", candidate.TargetType),
			ErrInvalidSuggestion,
		)
	}

	err := models.ValidateSuggestionData(candidate.TargetType, candidate.SuggestionData)
	if err != nil {
		return NewValidationError(op, "INVALID_SUGGESTION_DATA", err.Error(), errors.Join(ErrInvalidSuggestion, err))
	}

	return nil
}

// Create persists a candidate from agentID as a pending suggestion.
func (s *Suggestions) Create(
	ctx context.Context,
	agentID string,
	candidate models.CandidateSuggestion,
) (*models.AISuggestion, error) {
	err := ValidateCandidate(candidate)
	if err != nil {
		return nil, err
	}

	if agentID == "" {
		return nil, NewValidationError("Create", "AGENT_REQUIRED", "agent id is required", ErrInvalidSuggestion)
	}

	suggestion := &models.AISuggestion{
		ID:              uuid.NewString(),
		AgentID:         agentID,
		TargetType:      candidate.TargetType,
		TargetID:        candidate.TargetID,
		SuggestionData:  candidate.SuggestionData,
		Reasoning:       strings.TrimSpace(candidate.Reasoning),
		Status:          models.SuggestionStatusPending,
		ConfidenceScore: candidate.ConfidenceScore,
		Priority:        candidate.Priority,
		CreatedAt:       s.now(),
		ExpiresAt:       candidate.ExpiresAt,
	}

	err = s.persistence.SuggestionRepository().Create(ctx, suggestion)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion: %w", err)
	}

	s.publish(ctx, suggestion.ID, events.SuggestionCreated{
		BaseEvent:       events.NewBaseEvent(uuid.NewString(), events.SuggestionCreatedEvent),
		SuggestionID:    suggestion.ID,
		AgentID:         suggestion.AgentID,
		TargetType:      suggestion.TargetType,
		ConfidenceScore: suggestion.ConfidenceScore,
	})

	return suggestion, nil
}

// FetchByID retrieves a suggestion by its ID.
func (s *Suggestions) FetchByID(ctx context.Context, id string) (*models.AISuggestion, error) {
	return s.persistence.SuggestionRepository().GetByID(ctx, id)
}

// ListSuggestionsRequest contains options for listing suggestions.
type ListSuggestionsRequest struct {
	Status     *models.SuggestionStatus
	AgentID    string
	TargetType models.TargetType
	Limit      int
	Offset     int
}

// List returns suggestions newest first.
func (s *Suggestions) List(ctx context.Context, req ListSuggestionsRequest) ([]*models.AISuggestion, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.Status != nil && !req.Status.IsValid() {
		return nil, NewValidationError("List", "INVALID_STATUS", fmt.Sprintf("invalid status '%s'", *req.Status), ErrInvalidRequest)
	}

	if req.TargetType != "" && !slices.Contains(models.TargetTypes(), req.TargetType) {
		return nil, NewValidationError(
			"List", "INVALID_TARGET_TYPE", fmt.Sprintf("invalid target type '%s'", req.TargetType), ErrInvalidRequest,
		)
	}

	return s.persistence.SuggestionRepository().List(ctx, persistence.ListSuggestionsOptions{
		Status:     req.Status,
		AgentID:    req.AgentID,
		TargetType: req.TargetType,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
}

// Approve moves a pending suggestion to approved under the actor in ctx.
func (s *Suggestions) Approve(ctx context.Context, id string, reasoning *string) (*models.AISuggestion, error) {
	return s.decide(ctx, "Approve", id, models.SuggestionStatusApproved, models.ActionTypeApprove, reasoning)
}

// Reject moves a pending suggestion to rejected under the actor in ctx.
func (s *Suggestions) Reject(ctx context.Context, id string, reasoning *string) (*models.AISuggestion, error) {
	return s.decide(ctx, "Reject", id, models.SuggestionStatusRejected, models.ActionTypeReject, reasoning)
}

// Dismiss closes a pending suggestion without feedback. It ends as rejected with a dismiss audit entry.
func (s *Suggestions) Dismiss(ctx context.Context, id string, reasoning *string) (*models.AISuggestion, error) {
	return s.decide(ctx, "Dismiss", id, models.SuggestionStatusRejected, models.ActionTypeDismiss, reasoning)
}

// Edit replaces the payload of a pending suggestion and records both versions.
func (s *Suggestions) Edit(
	ctx context.Context,
	id string,
	data models.SuggestionData,
	reasoning *string,
) (*models.AISuggestion, error) {
	actor := ActorFromContext(ctx)
	if actor == "" {
		return nil, ErrActorRequired
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.persistence.SuggestionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status != models.SuggestionStatusPending {
		return nil, NewConflictError(
			"Edit", "INVALID_TRANSITION",
			fmt.Sprintf("only pending suggestions can be edited, suggestion is %s", current.Status),
			ErrInvalidTransition,
		)
	}

	err = models.ValidateSuggestionData(current.TargetType, data)
	if err != nil {
		return nil, NewValidationError("Edit", "INVALID_SUGGESTION_DATA", err.Error(), errors.Join(ErrInvalidSuggestion, err))
	}

	original, err := models.EncodeSuggestionData(current.SuggestionData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode original data: %w", err)
	}

	modified, err := models.EncodeSuggestionData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode modified data: %w", err)
	}

	updated, err := s.persistence.SuggestionRepository().UpdateData(ctx, id, models.SuggestionStatusPending, data)
	if err != nil {
		return nil, err
	}

	err = s.appendAction(ctx, &models.AdminAction{
		AdminID:        actor,
		SuggestionID:   id,
		ActionType:     models.ActionTypeEdit,
		OriginalData:   original,
		ModifiedData:   modified,
		AdminReasoning: reasoning,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, id, events.SuggestionEdited{
		BaseEvent:    events.NewBaseEvent(uuid.NewString(), events.SuggestionEditedEvent),
		SuggestionID: id,
		Actor:        actor,
	})

	return updated, nil
}

// History returns the audit log of a suggestion in decision order.
func (s *Suggestions) History(ctx context.Context, id string) ([]*models.AdminAction, error) {
	_, err := s.persistence.SuggestionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.persistence.AdminActionRepository().ListBySuggestion(ctx, id)
}

func (s *Suggestions) decide(
	ctx context.Context,
	op, id string,
	to models.SuggestionStatus,
	actionType models.ActionType,
	reasoning *string,
) (*models.AISuggestion, error) {
	actor := ActorFromContext(ctx)
	if actor == "" {
		return nil, ErrActorRequired
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.persistence.SuggestionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.checkTransition(op, current, to)
	if err != nil {
		return nil, err
	}

	if to == models.SuggestionStatusApproved && current.IsExpired(s.now()) {
		return nil, NewConflictError(op, "SUGGESTION_EXPIRED", "suggestion expired at "+current.ExpiresAt.Format(time.RFC3339), ErrSuggestionExpired)
	}

	updated, err := s.transition(ctx, current, to, actor)
	if err != nil {
		return nil, err
	}

	data, err := models.EncodeSuggestionData(current.SuggestionData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode suggestion data: %w", err)
	}

	err = s.appendAction(ctx, &models.AdminAction{
		AdminID:        actor,
		SuggestionID:   id,
		ActionType:     actionType,
		OriginalData:   data,
		AdminReasoning: reasoning,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Suggestion decided",
		"suggestion_id", id, "action", actionType, "status", to, "actor", actor)

	return updated, nil
}

func (s *Suggestions) checkTransition(op string, current *models.AISuggestion, to models.SuggestionStatus) error {
	if models.CanTransition(current.Status, to) {
		return nil
	}

	if current.Status == models.SuggestionStatusImplemented && to == models.SuggestionStatusImplemented {
		return NewConflictError(op, "ALREADY_IMPLEMENTED", "suggestion is already implemented", ErrAlreadyImplemented)
	}

	return NewConflictError(
		op, "INVALID_TRANSITION",
		fmt.Sprintf("cannot move suggestion from %s to %s", current.Status, to),
		ErrInvalidTransition,
	)
}

// transition performs the compare-and-set and publishes the change. Callers hold the id lock.
func (s *Suggestions) transition(
	ctx context.Context,
	current *models.AISuggestion,
	to models.SuggestionStatus,
	actor string,
) (*models.AISuggestion, error) {
	updated, err := s.persistence.SuggestionRepository().UpdateStatus(ctx, current.ID, current.Status, to, actor, s.now())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, current.ID, events.SuggestionStatusChanged{
		BaseEvent:    events.NewBaseEvent(uuid.NewString(), events.SuggestionStatusChangedEvent),
		SuggestionID: current.ID,
		OldStatus:    current.Status,
		NewStatus:    to,
		Actor:        actor,
	})

	return updated, nil
}

func (s *Suggestions) appendAction(ctx context.Context, action *models.AdminAction) error {
	action.ID = uuid.NewString()
	action.Timestamp = s.now()

	err := s.persistence.AdminActionRepository().Append(ctx, action)
	if err != nil {
		return fmt.Errorf("failed to record admin action: %w", err)
	}

	return nil
}

func (s *Suggestions) publish(ctx context.Context, key string, event events.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, key, event)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish suggestion event", "event_type", event.GetType(), "error", err)
	}
}
