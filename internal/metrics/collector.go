package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventCacheHit          EventType = "cache_hit"
	EventCacheMiss         EventType = "cache_miss"
	EventStrategySucceeded EventType = "strategy_succeeded"
	EventStrategyFailed    EventType = "strategy_failed"
	EventNotFound          EventType = "not_found"
	EventHealthChanged     EventType = "health_changed"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Domain    string
	Strategy  string
	Upstream  string
	Duration  time.Duration
	Healthy   bool
}

// Emitter accepts events without blocking.
type Emitter interface {
	Emit(Event)
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}

type Collector struct {
	eventCh chan Event
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues e, dropping it when the buffer is full.
func (c *Collector) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- e:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(e.Type)))
	}
}

// Run processes events until ctx is cancelled, then drains what is queued.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case e := <-c.eventCh:
			c.process(e)
		case <-ctx.Done():
			c.drain()
			return nil
		}
	}
}

func (c *Collector) process(e Event) {
	switch e.Type {
	case EventCacheHit:
		c.metrics.RecordCacheHit()
	case EventCacheMiss:
		c.metrics.RecordCacheMiss()
	case EventStrategySucceeded:
		c.metrics.RecordAttempt(e.Strategy, e.Duration, true)
	case EventStrategyFailed:
		c.metrics.RecordAttempt(e.Strategy, e.Duration, false)
	case EventNotFound:
		c.metrics.RecordNotFound()
	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(e.Upstream, e.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case e := <-c.eventCh:
			c.process(e)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
