package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/pressdesk/pkg/channels/gochannel"
	"github.com/dukex/pressdesk/pkg/channels/kafka"
	"github.com/dukex/pressdesk/pkg/eventbus"
)

// EventBusConfig selects and configures the change feed transport.
type EventBusConfig struct {
	// Provider is "gochannel" (in-process) or "kafka".
	Provider      string
	KafkaBrokers  string
	ConsumerGroup string
	OTELEnabled   bool
}

func NewEventBus(config EventBusConfig, logger *slog.Logger) (*eventbus.WatermillEventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch config.Provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger, gochannel.DefaultBuffer)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-process pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.Config{
			Brokers:       config.KafkaBrokers,
			ConsumerGroup: config.ConsumerGroup,
			OTELEnabled:   config.OTELEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", config.Provider)
	}
}
