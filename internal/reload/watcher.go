// Package reload applies configuration changes at runtime: a polling
// watcher detects config file modifications, and a handler loads,
// validates, and pushes the fresh config into the running components.
package reload

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// Watcher polls a configuration file's modification time and invokes
// the reload callback when it changes. At most one reload runs per
// tick; errors are logged and polling continues.
type Watcher struct {
	path     string
	interval time.Duration
	reload   func(ctx context.Context) error
	logger   *slog.Logger

	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a file watcher. interval <= 0 selects the default.
func NewWatcher(path string, interval time.Duration, reload func(ctx context.Context) error, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		interval: interval,
		reload:   reload,
		logger:   logger,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins polling. Safe to call multiple times; only the first
// call starts the goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.poll(ctx)
	})
}

// Stop halts polling. Safe to call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastMod := w.statModTime()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current := w.statModTime()
			if current.IsZero() || !current.After(lastMod) {
				continue
			}
			lastMod = current
			w.logger.Info("config file changed, reloading", "path", w.path)
			if err := w.reload(ctx); err != nil {
				w.logger.Error("config reload failed, keeping previous config", "error", err)
			}
		}
	}
}

// statModTime returns the file's mtime, or zero when the file is
// temporarily unreadable (editors often replace files non-atomically).
func (w *Watcher) statModTime() time.Time {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
