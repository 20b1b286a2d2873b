package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Writer renders generated files and writes them in parallel.
type Writer struct {
	cfg *Config

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation output.
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
}

// NewWriter creates a writer for the configured target directory.
func NewWriter(cfg *Config) *Writer {
	return &Writer{cfg: cfg, metrics: &WriterMetrics{}}
}

// Metrics returns the generation metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.metrics
}

// WriteAll writes every file, using at most cfg.Workers goroutines.
func (w *Writer) WriteAll(ctx context.Context, files []Output) error {
	if err := os.MkdirAll(w.cfg.Target, 0o755); err != nil {
		return NewGenerationError("write", w.cfg.Target, "create output directory", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.cfg.Workers)

	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.write(f)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	m := w.Metrics()
	w.cfg.Logger.Info("generated schema handles", "dir", w.cfg.Target, "files", m.FilesGenerated, "bytes", m.TotalBytes)
	return nil
}

// write renders a single file, formats it with goimports and writes it.
func (w *Writer) write(f Output) error {
	var buf bytes.Buffer
	if err := f.File.Render(&buf); err != nil {
		return NewGenerationError("render", f.Name, "", err)
	}

	fullPath := filepath.Join(w.cfg.Target, f.Name)
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Write unformatted file for debugging (errors intentionally ignored as we're already in error state)
		debugPath := fullPath + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError("format", f.Name, "unformatted output written to "+debugPath, err)
	}

	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return NewGenerationError("write", f.Name, "", err)
	}

	w.mu.Lock()
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(formatted))
	w.mu.Unlock()

	w.cfg.Logger.Debug("wrote file", "file", f.Name, "table", f.Table)
	return nil
}
