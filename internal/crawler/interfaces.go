package crawler

import (
	"context"
	"net/url"
)

// Fetcher fetches a URL and returns the body plus metadata. Non-2xx statuses
// are not errors; only transport and body-read failures are.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (Page, error)
}

// HitHandler is notified for every hit as it is accumulated.
type HitHandler func(ctx context.Context, rawURL string)
