package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/Shadownc/favicon-api/internal/favicon"
	"github.com/Shadownc/favicon-api/internal/fetcher"
)

var (
	// ErrNotApplicable means the strategy has nothing to try for this domain.
	ErrNotApplicable = errors.New("strategy not applicable")

	ErrBadStatus   = errors.New("unexpected status")
	ErrNotAnImage  = errors.New("response is not an image")
	ErrNoIconLink  = errors.New("no icon link in page")
	ErrBatchExpire = errors.New("probe batch deadline exceeded")
)

// Strategy is one way of locating a domain's favicon.
type Strategy interface {
	Name() string
	Find(ctx context.Context, domain string) (favicon.Result, error)
}

// Getter performs a single bounded GET.
type Getter interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (*fetcher.Response, error)
}

// Origin is the base URL generic strategies probe for domain.
func Origin(domain string) string {
	return "https://" + favicon.URLHost(domain)
}
