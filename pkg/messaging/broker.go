package messaging

import "context"

// Broker is the pub/sub capability used to fan out in-app notification
// events to connected front ends. Delivery is fire-and-forget; the mailbox
// remains the source of truth.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
