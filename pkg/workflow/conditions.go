package workflow

import (
	"math"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
)

const floatTolerance = 1e-9

// Subject is what rule conditions are evaluated against.
type Subject struct {
	Suggestion *models.AISuggestion
	AgentType  string
	Now        time.Time
}

// Matches reports whether every condition of the rule holds. A rule without conditions matches.
func Matches(rule *models.WorkflowRule, subject Subject) bool {
	for _, condition := range rule.Conditions {
		if !conditionHolds(condition, subject) {
			return false
		}
	}

	return true
}

func conditionHolds(condition models.Condition, subject Subject) bool {
	switch condition.Type {
	case models.ConditionConfidenceThreshold:
		if subject.Suggestion.ConfidenceScore == nil {
			return false
		}

		want, ok := condition.NumericValue()
		if !ok {
			return false
		}

		return compare(*subject.Suggestion.ConfidenceScore, condition.Operator, want)
	case models.ConditionTimeBased:
		want, ok := condition.NumericValue()
		if !ok {
			return false
		}

		elapsed := math.Floor(subject.Now.Sub(subject.Suggestion.CreatedAt).Minutes())

		return compare(elapsed, condition.Operator, want)
	case models.ConditionAgentType:
		want, ok := condition.StringValue()

		return ok && condition.Operator == models.OperatorEqual && subject.AgentType == want
	case models.ConditionSuggestionType:
		want, ok := condition.StringValue()

		return ok && condition.Operator == models.OperatorEqual && string(subject.Suggestion.TargetType) == want
	default:
		return false
	}
}

func compare(actual float64, operator models.Operator, want float64) bool {
	switch operator {
	case models.OperatorGreaterThan:
		return actual > want
	case models.OperatorGreaterOrEqual:
		return actual >= want
	case models.OperatorLessThan:
		return actual < want
	case models.OperatorLessOrEqual:
		return actual <= want
	case models.OperatorEqual:
		return math.Abs(actual-want) < floatTolerance
	default:
		return false
	}
}
