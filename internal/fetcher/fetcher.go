package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Shadownc/favicon-api/internal/circuitbreaker"
)

const (
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"
	DefaultMaxBodyBytes = 5 << 20
	DefaultTimeout      = 5 * time.Second
)

var (
	ErrTimeout      = errors.New("fetch timed out")
	ErrCircuitOpen  = errors.New("origin circuit open")
	ErrBodyTooLarge = errors.New("response body too large")
)

// Response is a fully read upstream response.
type Response struct {
	URL         string
	StatusCode  int
	Header      http.Header
	Body        []byte
	ContentType string
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher performs bounded GETs with a browser User-Agent.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	breakers     *circuitbreaker.Registry
}

type Option func(*Fetcher)

// WithHTTPClient replaces the underlying client. Its own Timeout, if any,
// still applies on top of the per-call timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

// WithBreakers enables per-host circuit breaking.
func WithBreakers(r *circuitbreaker.Registry) Option {
	return func(f *Fetcher) {
		f.breakers = r
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       &http.Client{},
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}

	for _, apply := range opts {
		apply(f)
	}

	return f
}

// Fetch GETs rawURL, giving up after timeout. Non-2xx statuses are returned
// as a Response, only transport problems are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}

	var breaker *circuitbreaker.Breaker
	if f.breakers != nil {
		breaker = f.breakers.For(u.Hostname())
		if !breaker.Allow() {
			return nil, fmt.Errorf("%s: %w", u.Host, ErrCircuitOpen)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	res, err := f.client.Do(req)
	if err != nil {
		record(ctx, breaker, err)
		return nil, classify(ctx, rawURL, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, f.maxBodyBytes+1))
	if err != nil {
		record(ctx, breaker, err)
		return nil, classify(ctx, rawURL, err)
	}

	if breaker != nil {
		breaker.RecordSuccess()
	}

	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrBodyTooLarge)
	}

	return &Response{
		URL:         res.Request.URL.String(),
		StatusCode:  res.StatusCode,
		Header:      res.Header,
		Body:        body,
		ContentType: res.Header.Get("Content-Type"),
	}, nil
}

type batchKey struct{}

type batch struct {
	charged sync.Map
}

// WithBatch marks ctx so that the fetches made under it charge each origin's
// breaker with at most one failure.
func WithBatch(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchKey{}, &batch{})
}

// record charges a transport failure to the origin, unless the caller
// abandoned the request (a lost race is not the origin's fault) or the
// batch it belongs to already charged this origin.
func record(ctx context.Context, b *circuitbreaker.Breaker, err error) {
	if b == nil {
		return
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		b.Abort()
		return
	}
	if bt, ok := ctx.Value(batchKey{}).(*batch); ok {
		if _, seen := bt.charged.LoadOrStore(b, struct{}{}); seen {
			return
		}
	}
	b.RecordFailure()
}

func classify(ctx context.Context, rawURL string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", rawURL, ErrTimeout)
	}
	return fmt.Errorf("get %s: %w", rawURL, err)
}
