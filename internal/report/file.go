package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileWriter writes reports to the local filesystem. When a file cannot be
// written the lines are dumped to Fallback instead.
type FileWriter struct {
	Fallback io.Writer
	logger   *zap.Logger
}

// NewFileWriter returns a FileWriter that falls back to fallback.
func NewFileWriter(fallback io.Writer, logger *zap.Logger) *FileWriter {
	if fallback == nil {
		fallback = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWriter{Fallback: fallback, logger: logger}
}

// Write stores lines at path, creating parent directories as needed. A
// path of "-" writes straight to Fallback.
func (w *FileWriter) Write(ctx context.Context, path string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	data := Encode(lines)
	if path == Stdout {
		if _, err := w.Fallback.Write(data); err != nil {
			return fmt.Errorf("write report to stdout: %w", err)
		}
		return nil
	}

	err := writeFile(path, data)
	if err == nil {
		return nil
	}
	w.logger.Error("Error writing report file, dumping to stdout", zap.String("path", path), zap.Error(err))
	if _, dumpErr := w.Fallback.Write(data); dumpErr != nil {
		return fmt.Errorf("write report %s: %w (fallback failed: %v)", path, err, dumpErr)
	}
	return fmt.Errorf("%w: %v", ErrFellBack, err)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
