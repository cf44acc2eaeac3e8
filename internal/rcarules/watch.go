package rcarules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kcalliga/rca-core/internal/logging"
)

// ReloadCallback is invoked with the freshly loaded rule set whenever the
// watched file changes. A returned error is logged; the watcher keeps
// running with the previous rule set.
type ReloadCallback func([]Rule) error

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	FilePath       string
	DebounceMillis int // default 500
}

// Watcher watches a rule file for changes and triggers debounced reloads.
// It never evaluates rules itself; the rule engine stays a pure function of
// (episode, rules, graph) and is simply re-invoked with the new slice.
type Watcher struct {
	cfg      WatcherConfig
	callback ReloadCallback
	logger   *logging.Logger

	cancel  context.CancelFunc
	stopped chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the given rule file.
func NewWatcher(cfg WatcherConfig, callback ReloadCallback) (*Watcher, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if cfg.DebounceMillis == 0 {
		cfg.DebounceMillis = 500
	}
	return &Watcher{
		cfg:      cfg,
		callback: callback,
		logger:   logging.GetLogger("rcarules.watch"),
		stopped:  make(chan struct{}),
	}, nil
}

// Start loads the initial rule set, invokes the callback, and then watches
// the file for changes in a background goroutine. It blocks only for the
// initial load.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := Load(w.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial rules: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}
	w.logger.Info("loaded initial rules from %s", w.cfg.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create file watcher: %v", err)
		return
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.FilePath); err != nil {
		w.logger.Error("failed to watch file %s: %v", w.cfg.FilePath, err)
		return
	}
	w.logger.Debug("watching %s for changes (debounce: %dms)", w.cfg.FilePath, w.cfg.DebounceMillis)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.handleChange(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(time.Duration(w.cfg.DebounceMillis)*time.Millisecond, func() {
		w.reload(ctx)
	})
}

func (w *Watcher) reload(_ context.Context) {
	rules, err := Load(w.cfg.FilePath)
	if err != nil {
		w.logger.Warn("failed to reload rules (keeping previous set): %v", err)
		return
	}
	if err := w.callback(rules); err != nil {
		w.logger.Warn("reload callback error (continuing to watch): %v", err)
		return
	}
	w.logger.Info("rules reloaded from %s", w.cfg.FilePath)
}

// Stop cancels the watch loop and waits up to 5 seconds for it to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	select {
	case <-w.stopped:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for rule watcher to stop")
	}
}
