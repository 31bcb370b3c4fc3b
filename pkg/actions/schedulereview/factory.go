package schedulereview

import (
	"time"

	"github.com/dukex/pressdesk/pkg/actions"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/protocol"
)

const (
	defaultDelayMinutes = 60
	defaultTitle        = `Review {{ .suggestion.target_type }} suggestion {{ .suggestion.id }}`
)

type ActionFactory struct {
	tasks persistence.TaskRepository
	now   func() time.Time
}

func NewActionFactory(tasks persistence.TaskRepository) *ActionFactory {
	return &ActionFactory{tasks: tasks, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source used to compute due dates.
func (f *ActionFactory) WithClock(now func() time.Time) *ActionFactory {
	f.now = now

	return f
}

func (*ActionFactory) ID() string {
	return string(models.RuleActionScheduleReview)
}

func (*ActionFactory) Name() string {
	return "Schedule review"
}

func (*ActionFactory) Description() string {
	return "Creates a review task due after a delay. The suggestion status is not changed."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return &Action{
		tasks: f.tasks,
		now:   f.now,
		delay: time.Duration(actions.IntParam(config, "delay_minutes", defaultDelayMinutes)) * time.Minute,
		title: actions.StringParam(config, "title", defaultTitle),
	}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"delay_minutes": map[string]any{
				"type":        "integer",
				"description": "Minutes until the review is due",
				"default":     defaultDelayMinutes,
				"minimum":     0,
			},
			"title": map[string]any{
				"type":    "string",
				"default": defaultTitle,
			},
		},
	}
}
