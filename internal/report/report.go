// Package report writes crawl results, one URL per line, to a local file,
// stdout or a Cloud Storage object.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

// ErrFellBack is returned when the report could not be written to its
// destination and was dumped to the fallback writer instead.
var ErrFellBack = errors.New("report dumped to fallback output")

// Writer stores a list of lines under name.
type Writer interface {
	Write(ctx context.Context, name string, lines []string) error
}

// Report is an opened destination for one list of URLs.
type Report struct {
	writer Writer
	name   string
	closer io.Closer
}

// Open picks the writer for path: "-" is stdout, gs://bucket/object is a
// Cloud Storage object and anything else is a local file. Local reports
// that cannot be written are dumped to stdout. Client options apply to the
// Cloud Storage client only.
func Open(ctx context.Context, path string, stdout io.Writer, logger *zap.Logger, opts ...option.ClientOption) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bucket, object, ok := parseGCSPath(path); ok {
		w, err := NewGCSWriter(ctx, bucket, logger, opts...)
		if err != nil {
			return nil, err
		}
		return &Report{writer: w, name: object, closer: w}, nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("report path is empty")
	}
	return &Report{writer: NewFileWriter(stdout, logger), name: path}, nil
}

// Write stores lines at the report's destination.
func (r *Report) Write(ctx context.Context, lines []string) error {
	return r.writer.Write(ctx, r.name, lines)
}

// Location returns the path or object name lines are written to.
func (r *Report) Location() string {
	return r.name
}

// Close releases any client held by the report.
func (r *Report) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Encode renders lines one per line with a trailing newline.
func Encode(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func parseGCSPath(path string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(path, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}
