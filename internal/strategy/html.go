package strategy

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Shadownc/favicon-api/internal/favicon"
	"github.com/Shadownc/favicon-api/internal/htmlicon"
)

type htmlStrategy struct {
	getter      Getter
	pageTimeout time.Duration
	iconTimeout time.Duration
}

// NewHTMLStrategy reads the homepage and follows its icon link.
func NewHTMLStrategy(getter Getter, pageTimeout, iconTimeout time.Duration) Strategy {
	return &htmlStrategy{
		getter:      getter,
		pageTimeout: pageTimeout,
		iconTimeout: iconTimeout,
	}
}

func (h *htmlStrategy) Name() string {
	return "html"
}

func (h *htmlStrategy) Find(ctx context.Context, domain string) (favicon.Result, error) {
	home := Origin(domain) + "/"

	page, err := h.getter.Fetch(ctx, home, h.pageTimeout)
	if err != nil {
		return favicon.Result{}, err
	}
	if !page.OK() {
		return favicon.Result{}, fmt.Errorf("%s: %w %d", home, ErrBadStatus, page.StatusCode)
	}

	// Redirects move the page; relative hrefs resolve against where it landed.
	base, err := url.Parse(page.URL)
	if err != nil || base.Host == "" {
		base, _ = url.Parse(home)
	}

	icon, ok := htmlicon.Extract(page.Body, base)
	if !ok {
		return favicon.Result{}, fmt.Errorf("%s: %w", home, ErrNoIconLink)
	}

	return fetchIcon(ctx, h.getter, icon.String(), h.iconTimeout)
}
