// Package mocks provides testify mocks for the change feed.
package mocks

import (
	"context"

	"github.com/dukex/pressdesk/pkg/eventbus"
	"github.com/dukex/pressdesk/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockEventBus is a mock implementation of eventbus.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

// NewPermissiveEventBus returns a mock that accepts every publish.
func NewPermissiveEventBus() *MockEventBus {
	m := &MockEventBus{}
	m.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return m
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event events.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) (<-chan eventbus.Envelope, error) {
	args := m.Called(ctx)

	stream, _ := args.Get(0).(<-chan eventbus.Envelope)

	return stream, args.Error(1)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}

// Published returns the events passed to Publish with the given type, in call order.
func (m *MockEventBus) Published(eventType events.EventType) []events.Event {
	published := make([]events.Event, 0)

	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}

		if event, ok := call.Arguments.Get(2).(events.Event); ok && event.GetType() == eventType {
			published = append(published, event)
		}
	}

	return published
}
