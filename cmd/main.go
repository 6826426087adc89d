package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Shadownc/favicon-api/config"
	"github.com/Shadownc/favicon-api/internal/cache"
	"github.com/Shadownc/favicon-api/internal/circuitbreaker"
	"github.com/Shadownc/favicon-api/internal/favicon"
	"github.com/Shadownc/favicon-api/internal/fetcher"
	"github.com/Shadownc/favicon-api/internal/handler"
	"github.com/Shadownc/favicon-api/internal/healthcheck"
	"github.com/Shadownc/favicon-api/internal/httpserver"
	"github.com/Shadownc/favicon-api/internal/metrics"
	"github.com/Shadownc/favicon-api/internal/resolver"
	"github.com/Shadownc/favicon-api/internal/strategy"
	"github.com/Shadownc/favicon-api/internal/upstream"
	"github.com/Shadownc/favicon-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Favicon API stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)

	f := newFetcher(cfg)
	service := newService(cfg)

	strategies, err := buildStrategies(cfg, f, service)
	if err != nil {
		log.Error("Failed to build strategies", slog.Any("err", err))
		return err
	}

	icons := cache.NewMemory[string, favicon.Result]()
	res := resolver.New(log, icons, collector, strategies...)
	log.Info("Resolver ready", slog.Any("strategies", res.Strategies()))

	faviconHandler := handler.NewFaviconHandler(log, res)
	srv, err := httpserver.New(cfg.Server.Address(), setupRouter(faviconHandler, collector, icons.Len), log)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return collector.Run(gctx)
	})

	if service != nil {
		checker := healthcheck.New(service, f, cfg.Service.HealthInterval, cfg.Service.Timeout, collector, log)
		g.Go(func() error {
			return checker.Run(gctx)
		})
	}

	g.Go(func() error {
		return srv.Run(gctx)
	})

	return g.Wait()
}

func newFetcher(cfg *config.Config) *fetcher.Fetcher {
	opts := []fetcher.Option{
		fetcher.WithUserAgent(cfg.Fetch.UserAgent),
		fetcher.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
	}
	if cfg.CircuitBreaker.Enabled {
		opts = append(opts, fetcher.WithBreakers(
			circuitbreaker.NewRegistry(cfg.CircuitBreaker.Threshold, cfg.CircuitBreaker.ResetTimeout)))
	}
	return fetcher.New(opts...)
}

func newService(cfg *config.Config) *upstream.Service {
	if !cfg.Service.Enabled {
		return nil
	}
	return upstream.New(cfg.Service.Name, cfg.Service.URLTemplate)
}

// buildStrategies assembles the lookup order: special domains, the
// third-party service, well-known paths, then the homepage HTML.
func buildStrategies(cfg *config.Config, getter strategy.Getter, service *upstream.Service) ([]strategy.Strategy, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	var strategies []strategy.Strategy

	if len(rules) > 0 {
		strategies = append(strategies, strategy.NewSpecialDomainStrategy(rules, getter))
	}

	if service != nil {
		strategies = append(strategies, strategy.NewServiceStrategy(service, getter, cfg.Service.Timeout))
	}

	paths := cfg.Probe.Paths
	if len(paths) == 0 {
		paths = strategy.DefaultPaths
	}
	strategies = append(strategies,
		strategy.NewWellKnownPathsStrategy(paths, getter, cfg.Probe.PathTimeout, cfg.Probe.Ceiling, cfg.Probe.Concurrent),
		strategy.NewHTMLStrategy(getter, cfg.HTML.PageTimeout, cfg.HTML.IconTimeout),
	)

	return strategies, nil
}
