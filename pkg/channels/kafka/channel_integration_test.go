//go:build integration

package kafka_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/pressdesk/pkg/channels/kafka"
	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/dukex/pressdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.5.0", kafkaTc.WithClusterID("pressdesk-test"))
	require.NoError(t, err)

	t.Cleanup(func() {
		err := container.Terminate(ctx)
		if err != nil {
			t.Logf("Failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0

	admin, err := sarama.NewClusterAdmin(brokers, config)
	require.NoError(t, err)

	defer func() { _ = admin.Close() }()

	err = admin.CreateTopic(events.Topic, &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}, false)
	require.NoError(t, err)

	return brokers[0]
}

func TestCreateChannel_DeliversEvents(t *testing.T) {
	brokers := setupKafka(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pub, sub, err := kafka.CreateChannel(watermill.NopLogger{}, kafka.Config{
		Brokers:       brokers,
		ConsumerGroup: "cg-pressdesk-test",
	})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(logger, pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(t.Context(), time.Minute)
	defer cancel()

	stream, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	publish := func() {
		err := bus.Publish(ctx, "sug-1", events.SuggestionCreated{
			BaseEvent:    events.NewBaseEvent(bus.GenerateID(), events.SuggestionCreatedEvent),
			SuggestionID: "sug-1",
			AgentID:      "agent-1",
			TargetType:   models.TargetTypeSEO,
		})
		require.NoError(t, err)
	}

	publish()

	// The consumer group may join after the first publish; keep publishing until one arrives.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case envelope, ok := <-stream:
			require.True(t, ok, "stream closed")
			assert.Equal(t, "sug-1", envelope.Key)

			created, ok := envelope.Event.(*events.SuggestionCreated)
			require.True(t, ok)
			assert.Equal(t, "agent-1", created.AgentID)

			return
		case <-ticker.C:
			publish()
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
	}
}
