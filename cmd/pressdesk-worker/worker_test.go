package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/cmd"
	"github.com/dukex/pressdesk/pkg/intake"
	"github.com/dukex/pressdesk/pkg/mocks"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/otelhelper"
	"github.com/dukex/pressdesk/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCore(t *testing.T) *cmd.Core {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := cmd.NewRegistry(logger, "")
	require.NoError(t, err)

	core, err := cmd.NewCore(logger, file.NewPersistence(t.TempDir()), mocks.NewPermissiveEventBus(), reg,
		otelhelper.NoopTracer(), cmd.CoreConfig{})
	require.NoError(t, err)

	return core
}

func TestWorker_InvalidSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	worker := NewWorker("w1", logger, newTestCore(t), Config{AgentSchedule: "every tuesday"})

	err := worker.Start(t.Context())
	require.ErrorContains(t, err, "invalid cron expression")

	worker.Stop(t.Context())
}

func TestWorker_InvalidIntake(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	worker := NewWorker("w1", logger, newTestCore(t), Config{Intake: &intake.Config{Addr: "127.0.0.1:1"}})

	err := worker.Start(t.Context())
	require.Error(t, err)

	worker.Stop(t.Context())
}

func TestWorker_ScheduleSubmitsActiveAgents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := newTestCore(t)

	_, err := core.Agents.Create(t.Context(), &models.AIAgent{Name: "seo", Type: "seo_optimizer", IsActive: true})
	require.NoError(t, err)

	_, err = core.Agents.Create(t.Context(), &models.AIAgent{Name: "idle", Type: "content_gap", IsActive: false})
	require.NoError(t, err)

	worker := NewWorker("w1", logger, core, Config{AgentSchedule: "@every 1s", TaskPollInterval: time.Hour})
	require.NoError(t, worker.Start(t.Context()))

	defer worker.Stop(t.Context())

	assert.Eventually(t, func() bool {
		return len(core.Queue.List()) >= 1
	}, 5*time.Second, 50*time.Millisecond)

	for _, task := range core.Queue.List() {
		assert.Equal(t, models.PriorityMedium, task.Priority)
	}
}
