package message_broaker

import "context"

// Delivery is one consumed message. The consumer settles it with exactly one
// call to Ack or Nack; unsettled messages are redelivered once the consumer
// goes away.
type Delivery struct {
	Body []byte
	Ack  func() error
	// Nack rejects the message. With requeue it goes back on the queue,
	// otherwise it is dropped or dead-lettered by the broker.
	Nack func(requeue bool) error
}

// MessageBroker moves opaque messages between the submitter and its sync worker.
type MessageBroker interface {
	Publish(ctx context.Context, queue string, message []byte) error
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)
	Close() error
}
