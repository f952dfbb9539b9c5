// Package messaging implements the JobQuest event buses.
// The in-memory bus serves a single process; the Redis bus fans events out to
// every process sharing a Redis instance (the CLI and the worker).
package messaging

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jobquest/jobquest/internal/domain/shared"
)

var (
	ErrEventBusClosed = errors.New("event bus is closed")
	ErrHandlerPanic   = errors.New("handler panicked")
	ErrNilHandler     = errors.New("handler cannot be nil")
	ErrNilEvent       = errors.New("event cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBusConfig configures NewInMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode hands each delivery to a bounded pool of goroutines.
	// Off, handlers run on the publisher's goroutine in subscription order,
	// which keeps CLI toasts in the order the command produced them.
	AsyncMode      bool
	WorkerPoolSize int

	Logger        *slog.Logger
	EnableMetrics bool

	// Middlewares wrap every subscribed handler, inside panic recovery and
	// failure logging.
	Middlewares []Middleware
}

// DefaultInMemoryEventBusConfig is synchronous with metrics on.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{WorkerPoolSize: 4, EnableMetrics: true}
}

type subscription struct {
	eventType shared.EventType // empty matches every type
	handler   shared.EventHandler
}

// InMemoryEventBus delivers events to handlers in the same process.
// Handler failures are logged and counted, never returned to the publisher.
type InMemoryEventBus struct {
	cfg     InMemoryEventBusConfig
	logger  *slog.Logger
	metrics *EventBusMetrics
	slots   chan struct{}

	mu     sync.RWMutex
	subs   []subscription
	closed bool
	wg     sync.WaitGroup
}

// NewInMemoryEventBus creates a bus.
func NewInMemoryEventBus(cfg InMemoryEventBusConfig) *InMemoryEventBus {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	b := &InMemoryEventBus{
		cfg:    cfg,
		logger: cfg.Logger,
		slots:  make(chan struct{}, cfg.WorkerPoolSize),
	}
	if cfg.EnableMetrics {
		b.metrics = NewEventBusMetrics()
	}
	return b
}

// Subscribe registers handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if eventType == "" {
		return errors.New("event type cannot be empty")
	}
	return b.subscribe(eventType, handler)
}

// SubscribeAll registers handler for every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.subscribe("", handler)
}

func (b *InMemoryEventBus) subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	mws := append([]Middleware{RecoveryMiddleware(b.logger), LoggingMiddleware(b.logger)}, b.cfg.Middlewares...)
	wrapped := Chain(handler, mws...)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.subs = append(b.subs, subscription{eventType: eventType, handler: wrapped})
	return nil
}

// Publish delivers event to every matching handler.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	var targets []shared.EventHandler
	for _, s := range b.subs {
		if s.eventType == "" || s.eventType == event.EventType() {
			targets = append(targets, s.handler)
		}
	}
	// Registering with the WaitGroup under the read lock keeps Close from
	// slipping in between the closed check and the Add.
	if b.cfg.AsyncMode {
		b.wg.Add(len(targets))
	}
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}
	for _, h := range targets {
		if !b.cfg.AsyncMode {
			b.deliver(event, h)
			continue
		}
		go func(h shared.EventHandler) {
			defer b.wg.Done()
			b.slots <- struct{}{}
			defer func() { <-b.slots }()
			b.deliver(event, h)
		}(h)
	}
	return nil
}

func (b *InMemoryEventBus) deliver(event shared.Event, h shared.EventHandler) {
	start := time.Now()
	err := h(event)
	if b.metrics != nil {
		b.metrics.RecordHandlerExecution(time.Since(start), err == nil)
	}
}

// Close waits for in-flight async deliveries and rejects further use.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Metrics returns the counters, nil when disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts publishes per type and handler outcomes.
type EventBusMetrics struct {
	mu        sync.RWMutex
	published map[shared.EventType]int64
	execs     int64
	failures  int64
	busy      time.Duration
}

// NewEventBusMetrics returns zeroed counters.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish counts one published event.
func (m *EventBusMetrics) RecordPublish(t shared.EventType) {
	m.mu.Lock()
	m.published[t]++
	m.mu.Unlock()
}

// RecordHandlerExecution counts one handler run.
func (m *EventBusMetrics) RecordHandlerExecution(d time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execs++
	m.busy += d
	if !ok {
		m.failures++
	}
}

// Published returns how many events of one type were published.
func (m *EventBusMetrics) Published(t shared.EventType) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published[t]
}

// EventBusMetricsSnapshot is a point-in-time copy of the counters.
type EventBusMetricsSnapshot struct {
	TotalPublished         int64
	TotalHandlerExecs      int64
	HandlerFailures        int64
	HandlerSuccessRate     float64
	AverageHandlerDuration time.Duration
}

// Snapshot copies the counters. The success rate is 1 before any handler ran.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := EventBusMetricsSnapshot{
		TotalHandlerExecs:  m.execs,
		HandlerFailures:    m.failures,
		HandlerSuccessRate: 1,
	}
	for _, n := range m.published {
		snap.TotalPublished += n
	}
	if m.execs > 0 {
		snap.HandlerSuccessRate = float64(m.execs-m.failures) / float64(m.execs)
		snap.AverageHandlerDuration = m.busy / time.Duration(m.execs)
	}
	return snap
}
