package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/learnloop/engage-api/pkg/messaging"
)

// Broker is a Redis pub/sub implementation of messaging.Broker. It shares
// the application's Redis connection rather than owning one, so closing
// the broker does not close the client.
type Broker struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewBroker(client *redis.Client, logger *zerolog.Logger) messaging.Broker {
	return &Broker{client: client, logger: logger}
}

func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	msgChan := make(chan []byte, 100)

	go func() {
		defer func() {
			pubsub.Close()
			close(msgChan)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					b.logger.Warn().Err(err).Str("channel", channel).Msg("pub/sub receive failed")
					continue
				}
				msgChan <- []byte(msg.Payload)
			}
		}
	}()

	return msgChan, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (b *Broker) Close() error { return nil }
