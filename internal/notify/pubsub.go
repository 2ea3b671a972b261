package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// RunIDAttribute is the message attribute carrying the crawl's run ID.
const RunIDAttribute = "run_id"

// PubSubPublisher publishes each hit URL as a Pub/Sub message.
type PubSubPublisher struct {
	Client *pubsub.Client
	Topic  *pubsub.Topic
	logger *zap.Logger

	mu      sync.Mutex
	pending []*pubsub.PublishResult
}

// NewPubSubPublisher creates a client and gets a handle to topicID. It
// authenticates using Application Default Credentials unless opts say
// otherwise, and fails if the topic does not exist.
func NewPubSubPublisher(ctx context.Context, projectID, topicID string, logger *zap.Logger, opts ...option.ClientOption) (*PubSubPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil || !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Failed to close pubsub client after topic check failure", zap.Error(closeErr))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check pubsub topic '%s': %w", topicID, err)
		}
		return nil, fmt.Errorf("pubsub topic '%s' does not exist in project '%s'", topicID, projectID)
	}

	return &PubSubPublisher{
		Client: client,
		Topic:  topic,
		logger: logger,
	}, nil
}

// PublishHit queues a message whose data is the hit URL. The send is
// asynchronous; delivery errors surface from Close.
func (p *PubSubPublisher) PublishHit(ctx context.Context, runID, rawURL string) error {
	if p.Topic == nil {
		return errors.New("pubsub topic is not configured")
	}
	msg := &pubsub.Message{
		Data:       []byte(rawURL),
		Attributes: map[string]string{RunIDAttribute: runID},
	}
	result := p.Topic.Publish(ctx, msg)

	p.mu.Lock()
	p.pending = append(p.pending, result)
	p.mu.Unlock()
	return nil
}

// Close flushes queued messages, reports any that failed and closes the
// client connection.
func (p *PubSubPublisher) Close() error {
	p.Topic.Stop()

	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	var errs []error
	for _, result := range pending {
		if _, err := result.Get(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		p.logger.Warn("Some hit notifications were not delivered", zap.Int("failed", len(errs)), zap.Int("total", len(pending)))
	}

	if err := p.Client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close pubsub client: %w", err))
	}
	return errors.Join(errs...)
}
