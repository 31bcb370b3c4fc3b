//go:build integration

package intake

import (
	"testing"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) Config {
	t.Helper()

	ctx := t.Context()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	return Config{Addr: endpoint, Queue: "test:candidates", DeadLetter: "test:candidates:dead"}
}

func TestConsumer_Redis(t *testing.T) {
	config := setupRedis(t)

	client, err := Connect(t.Context(), config)
	require.NoError(t, err)

	defer client.Close()

	persister := &stubPersister{}
	consumer, err := NewConsumer(testLogger(), client, persister, config)
	require.NoError(t, err)

	confidence := 0.7
	target := "article-1"
	title := "Pushed title"

	require.NoError(t, Push(t.Context(), client, config.Queue, Envelope{
		Agent: "external-seo",
		Candidates: []models.CandidateSuggestion{{
			TargetType:      models.TargetTypeSEO,
			TargetID:        &target,
			SuggestionData:  &models.SEOImprovement{MetaTitle: &title},
			ConfidenceScore: &confidence,
		}},
	}))
	require.NoError(t, client.RPush(t.Context(), config.Queue, "not json").Err())

	taken, err := consumer.ProcessOne(t.Context())
	require.NoError(t, err)
	assert.True(t, taken)
	assert.Equal(t, "external-seo", persister.agent)

	taken, err = consumer.ProcessOne(t.Context())
	require.NoError(t, err)
	assert.True(t, taken)

	dead, err := client.LRange(t.Context(), config.DeadLetter, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"not json"}, dead)

	taken, err = consumer.ProcessOne(t.Context())
	require.NoError(t, err)
	assert.False(t, taken, "empty queue times out quietly")
}
