package strategy

import (
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/Shadownc/favicon-api/internal/favicon"
)

// fetchIcon downloads rawURL and accepts it only if it looks like an icon:
// 2xx, non-empty, and not an HTML page served in place of a missing file.
func fetchIcon(ctx context.Context, g Getter, rawURL string, timeout time.Duration) (favicon.Result, error) {
	res, err := g.Fetch(ctx, rawURL, timeout)
	if err != nil {
		return favicon.Result{}, err
	}

	if !res.OK() {
		return favicon.Result{}, fmt.Errorf("%s: %w %d", rawURL, ErrBadStatus, res.StatusCode)
	}

	if len(res.Body) == 0 {
		return favicon.Result{}, fmt.Errorf("%s: %w: empty body", rawURL, ErrNotAnImage)
	}

	if res.ContentType != "" {
		if mt, _, err := mime.ParseMediaType(res.ContentType); err == nil && mt == "text/html" {
			return favicon.Result{}, fmt.Errorf("%s: %w: %s", rawURL, ErrNotAnImage, mt)
		}
	}

	return favicon.NewResult(res.Body, res.ContentType), nil
}
