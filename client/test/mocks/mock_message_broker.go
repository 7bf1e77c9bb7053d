package mocks

import (
	"context"
	"sync"

	"github.com/graphboard/graphboard/internal/message_broaker"
)

// MockMessageBroker is a mock implementation of message_broaker.MessageBroker for testing.
type MockMessageBroker struct {
	PublishFunc func(ctx context.Context, queue string, message []byte) error
	ConsumeFunc func(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error)
	CloseFunc   func() error
}

func (m *MockMessageBroker) Publish(ctx context.Context, queue string, message []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, queue, message)
	}
	return nil
}

func (m *MockMessageBroker) Consume(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, queue)
	}
	ch := make(chan message_broaker.Delivery)
	close(ch)
	return ch, nil
}

func (m *MockMessageBroker) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockDelivery records how a consumed message was settled.
type MockDelivery struct {
	mu       sync.Mutex
	acked    bool
	nacked   bool
	requeued bool
}

// Delivery wraps body in a message_broaker.Delivery that reports to m.
func (m *MockDelivery) Delivery(body []byte) message_broaker.Delivery {
	return message_broaker.Delivery{
		Body: body,
		Ack: func() error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.acked = true
			return nil
		},
		Nack: func(requeue bool) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.nacked = true
			m.requeued = requeue
			return nil
		},
	}
}

// State returns whether the message was acked, nacked and requeued.
func (m *MockDelivery) State() (acked, nacked, requeued bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked, m.nacked, m.requeued
}
