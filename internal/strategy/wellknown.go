package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Shadownc/favicon-api/internal/favicon"
	"github.com/Shadownc/favicon-api/internal/fetcher"
)

// DefaultPaths are probed in this order when running sequentially.
var DefaultPaths = []string{
	"/favicon.ico",
	"/favicon.png",
	"/assets/favicon.ico",
	"/static/favicon.ico",
	"/public/favicon.ico",
}

type wellKnownPathsStrategy struct {
	paths       []string
	getter      Getter
	pathTimeout time.Duration
	ceiling     time.Duration
	concurrent  bool
}

// NewWellKnownPathsStrategy probes conventional favicon locations on the
// domain itself. Concurrent probing races all paths and keeps the first
// success; either way the whole batch is bounded by ceiling.
func NewWellKnownPathsStrategy(paths []string, getter Getter, pathTimeout, ceiling time.Duration, concurrent bool) Strategy {
	if len(paths) == 0 {
		paths = DefaultPaths
	}

	return &wellKnownPathsStrategy{
		paths:       paths,
		getter:      getter,
		pathTimeout: pathTimeout,
		ceiling:     ceiling,
		concurrent:  concurrent,
	}
}

func (w *wellKnownPathsStrategy) Name() string {
	return "well-known-paths"
}

func (w *wellKnownPathsStrategy) Find(ctx context.Context, domain string) (favicon.Result, error) {
	// One slow origin fails every path; that is a single strike against it.
	ctx = fetcher.WithBatch(ctx)

	if w.ceiling > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.ceiling)
		defer cancel()
	}

	if w.concurrent {
		return w.race(ctx, domain)
	}
	return w.sequential(ctx, domain)
}

func (w *wellKnownPathsStrategy) sequential(ctx context.Context, domain string) (favicon.Result, error) {
	var errs *multierror.Error

	for _, p := range w.paths {
		if ctx.Err() != nil {
			return favicon.Result{}, multierror.Append(errs, ErrBatchExpire)
		}

		res, err := fetchIcon(ctx, w.getter, Origin(domain)+p, w.pathTimeout)
		if err == nil {
			return res, nil
		}
		errs = multierror.Append(errs, err)
	}

	return favicon.Result{}, errs.ErrorOrNil()
}

type probeOutcome struct {
	res favicon.Result
	err error
}

// race launches every probe at once. Losers are cancelled when Find returns;
// the buffered channel lets them exit without a reader.
func (w *wellKnownPathsStrategy) race(ctx context.Context, domain string) (favicon.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan probeOutcome, len(w.paths))
	for _, p := range w.paths {
		p := p
		go func() {
			res, err := fetchIcon(ctx, w.getter, Origin(domain)+p, w.pathTimeout)
			outcomes <- probeOutcome{res: res, err: err}
		}()
	}

	var errs *multierror.Error
	for range w.paths {
		select {
		case o := <-outcomes:
			if o.err == nil {
				return o.res, nil
			}
			errs = multierror.Append(errs, o.err)
		case <-ctx.Done():
			return favicon.Result{}, multierror.Append(errs, fmt.Errorf("%w: %v", ErrBatchExpire, ctx.Err()))
		}
	}

	return favicon.Result{}, errs.ErrorOrNil()
}
