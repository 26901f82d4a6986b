// Package watcher ingests documents dropped into a watched directory.
//
// Files written into the drop folder are ingested once they settle and
// removed on success, turning the folder into a queue. Failed files are
// left in place so they can be inspected and retried.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/documind/internal/ingest"
)

// Ingestor runs the upload pipeline for a dropped file.
type Ingestor interface {
	Ingest(ctx context.Context, filename, contentType string, content []byte) (*ingest.Receipt, error)
}

// Config holds drop-folder configuration.
type Config struct {
	// Dir is the directory to watch.
	Dir string

	// SettleDelay is how long a file must be quiet before ingestion.
	// Default: 2s.
	SettleDelay time.Duration

	// AllowedExtensions lists the file extensions to pick up.
	AllowedExtensions []string
}

// Watcher ingests files dropped into a directory.
type Watcher struct {
	cfg      Config
	ingestor Ingestor
	logger   *zap.Logger
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a drop-folder watcher.
func New(cfg Config, ingestor Ingestor, logger *zap.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Watcher{
		cfg:      cfg,
		ingestor: ingestor,
		logger:   logger,
		fsw:      fsw,
		pending:  map[string]*time.Timer{},
	}, nil
}

// Run watches the directory until the context is canceled. Files already
// present at startup are picked up as well.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("creating watch directory: %w", err)
	}
	if err := w.fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}

	w.logger.Info("watching drop folder",
		zap.String("dir", w.cfg.Dir),
		zap.Duration("settle_delay", w.cfg.SettleDelay),
	)

	w.sweepExisting(ctx)

	defer func() {
		_ = w.fsw.Close()
		w.cancelPending()
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

// sweepExisting schedules files that were already in the folder.
func (w *Watcher) sweepExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Error("listing drop folder", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.schedule(ctx, filepath.Join(w.cfg.Dir, entry.Name()))
	}
}

// schedule (re)starts the settle timer for a path. Each write resets the
// timer, so a file is only ingested once it has been quiet.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !w.allowed(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(w.cfg.SettleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.wg.Add(1)
		defer w.wg.Done()

		if ctx.Err() != nil {
			return
		}
		w.process(ctx, path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// process ingests one settled file and removes it on success.
func (w *Watcher) process(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		w.logger.Error("reading dropped file", zap.String("path", path), zap.Error(err))
		return
	}

	filename := filepath.Base(path)
	receipt, err := w.ingestor.Ingest(ctx, filename, "", content)
	if err != nil {
		w.logger.Error("ingesting dropped file, leaving it in place",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}

	if err := os.Remove(path); err != nil {
		w.logger.Warn("removing ingested file", zap.String("path", path), zap.Error(err))
	}

	w.logger.Info("ingested dropped file",
		zap.String("path", path),
		zap.String("document_id", receipt.DocumentID),
		zap.Int("chunks", receipt.ChunksStored),
	)
}

func (w *Watcher) allowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range w.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
