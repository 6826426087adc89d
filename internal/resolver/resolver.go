package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"

	"github.com/Shadownc/favicon-api/internal/cache"
	"github.com/Shadownc/favicon-api/internal/favicon"
	"github.com/Shadownc/favicon-api/internal/metrics"
	"github.com/Shadownc/favicon-api/internal/strategy"
)

// Resolver finds a domain's favicon, consulting the cache before the strategies.
type Resolver struct {
	logger     *slog.Logger
	cache      cache.Favicons
	events     metrics.Emitter
	strategies []strategy.Strategy
	flights    singleflight.Group
}

// New builds a Resolver trying strategies in the given order.
func New(logger *slog.Logger, c cache.Favicons, events metrics.Emitter, strategies ...strategy.Strategy) *Resolver {
	if events == nil {
		events = metrics.Discard
	}

	return &Resolver{
		logger:     logger,
		cache:      c,
		events:     events,
		strategies: strategies,
	}
}

// Resolve returns the favicon of an already-normalized domain. The error is
// favicon.ErrNotFound when every strategy failed and favicon.ErrInternal when
// a strategy blew up.
func (r *Resolver) Resolve(ctx context.Context, domain string) (favicon.Result, error) {
	if res, ok := r.cache.Get(domain); ok {
		r.events.Emit(metrics.Event{Type: metrics.EventCacheHit, Domain: domain})
		r.logger.Debug("Cache hit", slog.String("domain", domain))
		return res, nil
	}

	r.events.Emit(metrics.Event{Type: metrics.EventCacheMiss, Domain: domain})

	// The lookup outlives a disconnecting client: every fetch is bounded by
	// its own timeout and a result is still worth caching.
	flightCtx := context.WithoutCancel(ctx)

	v, err, shared := r.flights.Do(domain, func() (any, error) {
		return r.resolve(flightCtx, domain)
	})
	if shared {
		r.logger.Debug("Joined in-flight lookup", slog.String("domain", domain))
	}
	if err != nil {
		return favicon.Result{}, err
	}

	return v.(favicon.Result), nil
}

func (r *Resolver) resolve(ctx context.Context, domain string) (res favicon.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Strategy panicked",
				slog.String("domain", domain),
				slog.Any("panic", p))
			res, err = favicon.Result{}, fmt.Errorf("resolve %s: %w: %v", domain, favicon.ErrInternal, p)
		}
	}()

	// A flight that finished just before this one started already cached it.
	if cached, ok := r.cache.Get(domain); ok {
		return cached, nil
	}

	var failures *multierror.Error

	for _, s := range r.strategies {
		start := time.Now()
		found, err := s.Find(ctx, domain)
		elapsed := time.Since(start)

		if errors.Is(err, strategy.ErrNotApplicable) {
			continue
		}

		if err != nil {
			r.events.Emit(metrics.Event{
				Type:     metrics.EventStrategyFailed,
				Domain:   domain,
				Strategy: s.Name(),
				Duration: elapsed,
			})
			failures = multierror.Append(failures, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}

		r.events.Emit(metrics.Event{
			Type:     metrics.EventStrategySucceeded,
			Domain:   domain,
			Strategy: s.Name(),
			Duration: elapsed,
		})

		r.cache.Set(domain, found)

		r.logger.Info("Favicon resolved",
			slog.String("domain", domain),
			slog.String("strategy", s.Name()),
			slog.String("content_type", found.ContentType),
			slog.Int("bytes", len(found.Data)),
			slog.Duration("took", elapsed))

		return found, nil
	}

	r.events.Emit(metrics.Event{Type: metrics.EventNotFound, Domain: domain})

	attempts := failures.ErrorOrNil()
	r.logger.Info("Favicon not found",
		slog.String("domain", domain),
		slog.Any("attempts", attempts))

	if attempts == nil {
		return favicon.Result{}, fmt.Errorf("%s: %w", domain, favicon.ErrNotFound)
	}
	return favicon.Result{}, fmt.Errorf("%s: %w: %w", domain, favicon.ErrNotFound, attempts)
}

// Strategies returns the configured strategy names in priority order.
func (r *Resolver) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	return names
}
