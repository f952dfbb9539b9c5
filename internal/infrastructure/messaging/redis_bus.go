package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/circuitbreaker"
)

// DefaultChannel is the Redis channel events travel on.
const DefaultChannel = "jobquest:events"

// RedisClient is the slice of Redis pub/sub the bus needs.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) error

	// Subscribe streams messages until ctx ends, then closes the channel.
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage is one pub/sub delivery. Err is set for transport failures.
type RedisMessage struct {
	Channel string
	Payload string
	Err     error
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBusConfig configures NewRedisEventBus. Only Client is required.
type RedisEventBusConfig struct {
	Client      RedisClient
	ChannelName string

	// InstanceID tags outgoing messages so the sender can drop its own echo.
	// A random id is used when empty.
	InstanceID string

	LocalBusConfig InMemoryEventBusConfig

	// Breaker guards Redis publishes. While it is open, events reach local
	// handlers only. Defaults to circuitbreaker.PubSubBreaker.
	Breaker *circuitbreaker.CircuitBreaker

	Logger *slog.Logger
}

// RedisEventBus delivers every event to local handlers and mirrors it onto a
// Redis channel, so the CLI sees reminders the worker raises and vice versa.
// Redis trouble never fails a Publish.
type RedisEventBus struct {
	local    *InMemoryEventBus
	client   RedisClient
	channel  string
	instance string
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger

	closed atomic.Bool
	stop   context.CancelFunc
	ctx    context.Context
	done   sync.WaitGroup
}

// NewRedisEventBus subscribes to the channel and starts relaying remote
// events to local handlers.
func NewRedisEventBus(cfg RedisEventBusConfig) (*RedisEventBus, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.ChannelName == "" {
		cfg.ChannelName = DefaultChannel
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LocalBusConfig.Logger == nil {
		cfg.LocalBusConfig.Logger = cfg.Logger
	}
	log := cfg.Logger.With("instance_id", cfg.InstanceID)
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.PubSubBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		})
	}

	ctx, stop := context.WithCancel(context.Background())
	incoming, err := cfg.Client.Subscribe(ctx, cfg.ChannelName)
	if err != nil {
		stop()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.ChannelName, err)
	}

	b := &RedisEventBus{
		local:    NewInMemoryEventBus(cfg.LocalBusConfig),
		client:   cfg.Client,
		channel:  cfg.ChannelName,
		instance: cfg.InstanceID,
		breaker:  cfg.Breaker,
		logger:   log,
		ctx:      ctx,
		stop:     stop,
	}
	b.done.Add(1)
	go b.relay(incoming)
	return b, nil
}

func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish mirrors event to Redis, then delivers it locally.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}
	if b.closed.Load() {
		return ErrEventBusClosed
	}
	b.mirror(event)
	return b.local.Publish(event)
}

func (b *RedisEventBus) mirror(event shared.Event) {
	env, err := shared.NewEventEnvelope(uuid.NewString(), event)
	if err != nil {
		b.logger.Error("event not mirrored", "event_type", event.EventType(), "error", err)
		return
	}
	data, err := json.Marshal(wireMessage{InstanceID: b.instance, Event: env})
	if err != nil {
		b.logger.Error("event not mirrored", "event_type", event.EventType(), "error", err)
		return
	}

	err = b.breaker.Execute(b.ctx, func(ctx context.Context) error {
		return b.client.Publish(ctx, b.channel, string(data))
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		b.logger.Debug("redis publish skipped", "event_type", event.EventType(), "reason", err)
	} else if err != nil {
		b.logger.Error("redis publish failed", "event_type", event.EventType(), "error", err)
	}
}

// relay hands messages from other instances to local handlers until the
// subscription ends.
func (b *RedisEventBus) relay(incoming <-chan RedisMessage) {
	defer b.done.Done()
	for {
		var msg RedisMessage
		var ok bool
		select {
		case <-b.ctx.Done():
			return
		case msg, ok = <-incoming:
			if !ok {
				return
			}
		}
		if msg.Err != nil {
			b.logger.Error("redis subscription error", "error", msg.Err)
			continue
		}

		event, fromSelf, err := b.decode(msg.Payload)
		switch {
		case err != nil:
			b.logger.Error("dropping undecodable message", "error", err)
		case fromSelf:
		default:
			if err := b.local.Publish(event); err != nil {
				b.logger.Error("remote event not delivered", "event_type", event.EventType(), "error", err)
			}
		}
	}
}

func (b *RedisEventBus) decode(payload string) (RemoteEvent, bool, error) {
	var wire wireMessage
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return RemoteEvent{}, false, err
	}
	if wire.InstanceID == b.instance {
		return RemoteEvent{}, true, nil
	}
	event, err := decodeEnvelope(wire.Event)
	if err != nil {
		return RemoteEvent{}, false, fmt.Errorf("%s payload: %w", wire.Event.Type, err)
	}
	return event, false, nil
}

// Close ends the subscription, then drains the local bus. Closing twice is
// a no-op.
func (b *RedisEventBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.stop()
	b.done.Wait()
	return b.local.Close()
}

// InstanceID is the id stamped on outgoing messages.
func (b *RedisEventBus) InstanceID() string { return b.instance }

// Metrics returns the local bus counters.
func (b *RedisEventBus) Metrics() *EventBusMetrics { return b.local.Metrics() }

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

type wireMessage struct {
	InstanceID string               `json:"instance_id"`
	Event      shared.EventEnvelope `json:"event"`
}

// RemoteEvent is an event that arrived from another process. The concrete
// type is lost on the wire; the payload comes back as a generic map.
type RemoteEvent struct {
	ID          string
	Type        shared.EventType
	Aggregate   string
	Timestamp   time.Time
	PayloadData map[string]any
}

func (e RemoteEvent) EventType() shared.EventType { return e.Type }
func (e RemoteEvent) AggregateID() string         { return e.Aggregate }
func (e RemoteEvent) OccurredAt() time.Time       { return e.Timestamp }
func (e RemoteEvent) Payload() map[string]any     { return e.PayloadData }

func decodeEnvelope(env shared.EventEnvelope) (RemoteEvent, error) {
	ev := RemoteEvent{
		ID:          env.ID,
		Type:        env.Type,
		Aggregate:   env.AggregateID,
		Timestamp:   env.Timestamp,
		PayloadData: map[string]any{},
	}
	if len(env.Payload) == 0 {
		return ev, nil
	}
	if err := json.Unmarshal(env.Payload, &ev.PayloadData); err != nil {
		return RemoteEvent{}, err
	}
	return ev, nil
}
