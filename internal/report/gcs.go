package report

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSWriter uploads reports to a Google Cloud Storage bucket.
type GCSWriter struct {
	Client      *storage.Client
	Bucket      string
	ContentType string
	logger      *zap.Logger
}

// NewGCSWriter creates a client and verifies the bucket is reachable.
// Authentication uses Application Default Credentials unless opts say
// otherwise.
func NewGCSWriter(ctx context.Context, bucket string, logger *zap.Logger, opts ...option.ClientOption) (*GCSWriter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Failed to close GCS client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to get GCS bucket '%s' attributes: %w", bucket, err)
	}

	return &GCSWriter{
		Client:      client,
		Bucket:      bucket,
		ContentType: "text/plain; charset=utf-8",
		logger:      logger,
	}, nil
}

// Write uploads lines to object.
func (g *GCSWriter) Write(ctx context.Context, object string, lines []string) error {
	wc := g.Client.Bucket(g.Bucket).Object(object).NewWriter(ctx)
	wc.ContentType = g.ContentType

	if _, err := wc.Write(Encode(lines)); err != nil {
		if closeErr := wc.Close(); closeErr != nil {
			g.logger.Warn("Failed to close GCS writer after write failure", zap.Error(err), zap.NamedError("close_error", closeErr))
		}
		return fmt.Errorf("failed to write report to GCS object %s: %w", object, err)
	}

	// Close finalizes the upload.
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for object %s: %w", object, err)
	}
	g.logger.Debug("Uploaded report", zap.String("bucket", g.Bucket), zap.String("object", object), zap.Int("lines", len(lines)))
	return nil
}

// Close releases the storage client.
func (g *GCSWriter) Close() error {
	if err := g.Client.Close(); err != nil {
		return fmt.Errorf("close GCS client: %w", err)
	}
	return nil
}
