package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/jobquest/jobquest/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUB/SUB
// ══════════════════════════════════════════════════════════════════════════════

// PubSub adapts a go-redis client to messaging.RedisClient.
type PubSub struct {
	client *redis.Client
}

var _ messaging.RedisClient = (*PubSub)(nil)

// NewPubSub wraps client.
func NewPubSub(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

// Publish publishes a message to a channel.
func (p *PubSub) Publish(ctx context.Context, channel string, message any) error {
	if channel == "" {
		return ErrKeyEmpty
	}
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to channels and forwards messages until ctx is done.
func (p *PubSub) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	if len(channels) == 0 {
		return nil, errors.New("redis: at least one channel is required")
	}

	sub := p.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer sub.Close()

		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the client is owned by the Store.
func (p *PubSub) Close() error {
	return nil
}
