package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shadownc/favicon-api/internal/fetcher"
	"github.com/Shadownc/favicon-api/internal/metrics"
	"github.com/Shadownc/favicon-api/internal/upstream"
)

// Getter is the subset of the fetcher the checker needs.
type Getter interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (*fetcher.Response, error)
}

// Checker probes one upstream service on a fixed interval.
type Checker struct {
	service  *upstream.Service
	getter   Getter
	interval time.Duration
	timeout  time.Duration
	events   metrics.Emitter
	logger   *slog.Logger
}

func New(service *upstream.Service, getter Getter, interval, timeout time.Duration, events metrics.Emitter, logger *slog.Logger) *Checker {
	if events == nil {
		events = metrics.Discard
	}

	return &Checker{
		service:  service,
		getter:   getter,
		interval: interval,
		timeout:  timeout,
		events:   events,
		logger:   logger,
	}
}

// Run probes immediately and then on every tick until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Health check stopped",
				slog.String("upstream", c.service.Name()))
			return nil

		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check runs a single probe and updates the service health.
func (c *Checker) Check(ctx context.Context) {
	start := time.Now()
	res, err := c.getter.Fetch(ctx, c.service.ProbeURL(), c.timeout)
	if ctx.Err() != nil {
		return
	}

	healthy := err == nil && res.OK()
	if healthy {
		c.service.RecordResponse(time.Since(start))
	}

	if !c.service.SetHealthy(healthy) {
		return
	}

	c.events.Emit(metrics.Event{
		Type:     metrics.EventHealthChanged,
		Upstream: c.service.Name(),
		Healthy:  healthy,
	})

	if healthy {
		c.logger.Info("Upstream is back up",
			slog.String("upstream", c.service.Name()))
	} else {
		c.logger.Warn("Upstream is down",
			slog.String("upstream", c.service.Name()),
			slog.Any("err", err))
	}
}
