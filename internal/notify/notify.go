// Package notify publishes crawl hits to downstream consumers.
package notify

import "context"

// Publisher announces pages that matched the crawl's match criteria.
type Publisher interface {
	PublishHit(ctx context.Context, runID, rawURL string) error
	Close() error
}

// NoOp discards every hit.
type NoOp struct{}

// PublishHit does nothing.
func (NoOp) PublishHit(context.Context, string, string) error { return nil }

// Close does nothing.
func (NoOp) Close() error { return nil }
