// Package app initializes and holds the services that live for one crawl
// run, acting as a small dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/creepy/internal/config"
	"github.com/JakeFAU/creepy/internal/id"
	"github.com/JakeFAU/creepy/internal/logging"
	"github.com/JakeFAU/creepy/internal/metrics"
	"github.com/JakeFAU/creepy/internal/notify"
)

// App holds the run identifier, the run-scoped logger, the hit publisher
// and, when enabled, the metrics server.
type App struct {
	runID     string
	logger    *zap.Logger
	publisher notify.Publisher
	metrics   *metrics.Server
}

// Option customizes New.
type Option func(*options)

type options struct {
	ids           id.Source
	publisher     notify.Publisher
	pubsubOptions []option.ClientOption
}

// WithIDSource replaces the UUIDv7 run ID generator.
func WithIDSource(src id.Source) Option {
	return func(o *options) {
		o.ids = src
	}
}

// WithPublisher bypasses the configured hit publisher.
func WithPublisher(p notify.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithPubSubOptions passes client options to the Pub/Sub publisher.
func WithPubSubOptions(opts ...option.ClientOption) Option {
	return func(o *options) {
		o.pubsubOptions = append(o.pubsubOptions, opts...)
	}
}

// GetRunID returns the identifier of this crawl run.
func (a *App) GetRunID() string {
	return a.runID
}

// GetLogger returns the run-scoped logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetPublisher returns the hit publisher.
func (a *App) GetPublisher() notify.Publisher {
	return a.publisher
}

// New creates the services for one crawl from cfg. It fails fast when an
// enabled service cannot be reached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{ids: id.NewGenerator()}
	for _, opt := range opts {
		opt(&o)
	}

	runID, err := o.ids.NewRunID()
	if err != nil {
		return nil, fmt.Errorf("failed to create run id: %w", err)
	}
	l := logging.ForRun(logger, runID)
	l.Info("Initializing crawl services...")

	a := &App{runID: runID, logger: l}

	switch {
	case o.publisher != nil:
		a.publisher = o.publisher
	case cfg.PubSub.Enabled():
		l.Info("Connecting to GCP Pub/Sub", zap.String("topic", cfg.PubSub.TopicName))
		pub, err := notify.NewPubSubPublisher(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName, l, o.pubsubOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize hit publisher: %w", err)
		}
		a.publisher = pub
	default:
		l.Debug("Using No-Op hit publisher. Hits will not be announced.")
		a.publisher = notify.NoOp{}
	}

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		srv := metrics.NewServer(addr, l)
		if err := srv.Start(); err != nil {
			if closeErr := a.publisher.Close(); closeErr != nil {
				l.Warn("Error closing hit publisher", zap.Error(closeErr))
			}
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
		a.metrics = srv
	}

	l.Info("Crawl services initialized.")
	return a, nil
}

// Close shuts down every service in the App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("Error closing hit publisher", zap.Error(err))
		errs = append(errs, err)
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warn("Error stopping metrics server", zap.Error(err))
			errs = append(errs, err)
		}
	}
	// Sync fails on terminals; best effort.
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
