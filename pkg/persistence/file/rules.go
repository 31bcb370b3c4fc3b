package file

import (
	"context"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
)

// WorkflowRuleRepository handles workflow rule file operations.
type WorkflowRuleRepository struct {
	mu    *sync.RWMutex
	table *table[models.WorkflowRule]
}

// Save creates or updates a rule.
func (rr *WorkflowRuleRepository) Save(_ context.Context, rule *models.WorkflowRule) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	err := rr.table.write(rule.ID, rule)
	if err != nil {
		return persistence.NewRecordError("Save", "workflow_rules", rule.ID, err)
	}

	return nil
}

// GetByID retrieves a rule by its ID.
func (rr *WorkflowRuleRepository) GetByID(_ context.Context, id string) (*models.WorkflowRule, error) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	rule, err := rr.table.read(id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "workflow_rules", id, err)
	}

	if rule == nil {
		return nil, persistence.NewRecordError("GetByID", "workflow_rules", id, persistence.ErrRuleNotFound)
	}

	return rule, nil
}

// List returns all rules in evaluation order.
func (rr *WorkflowRuleRepository) List(_ context.Context) ([]*models.WorkflowRule, error) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	rules, err := rr.table.all()
	if err != nil {
		return nil, persistence.NewRecordError("List", "workflow_rules", "", err)
	}

	persistence.SortRules(rules)

	return rules, nil
}

// ListEnabled returns enabled rules in evaluation order.
func (rr *WorkflowRuleRepository) ListEnabled(ctx context.Context) ([]*models.WorkflowRule, error) {
	rules, err := rr.List(ctx)
	if err != nil {
		return nil, err
	}

	enabled := make([]*models.WorkflowRule, 0, len(rules))

	for _, rule := range rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}

	return enabled, nil
}

// Delete removes a rule.
func (rr *WorkflowRuleRepository) Delete(_ context.Context, id string) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	removed, err := rr.table.remove(id)
	if err != nil {
		return persistence.NewRecordError("Delete", "workflow_rules", id, err)
	}

	if !removed {
		return persistence.NewRecordError("Delete", "workflow_rules", id, persistence.ErrRuleNotFound)
	}

	return nil
}
