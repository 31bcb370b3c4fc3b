package persistence

import (
	"sort"

	"github.com/dukex/pressdesk/pkg/models"
)

// SortRules orders rules for evaluation: priority ascending, then creation time, then id.
func SortRules(rules []*models.WorkflowRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}

		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}

		return a.ID < b.ID
	})
}
