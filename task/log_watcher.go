package task

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LogWatcher calls onChange when the watched file is written or
// recreated. Bursts of events within the debounce period collapse into
// a single call.
type LogWatcher struct {
	logger   *slog.Logger
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
}

// NewLogWatcher watches the directory holding path, so the file may be
// created or replaced after the watcher starts.
func NewLogWatcher(logger *slog.Logger, path string, debounce time.Duration, onChange func()) (*LogWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create log watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &LogWatcher{
		logger:   logger,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		watcher:  watcher,
	}, nil
}

// Run delivers change notifications until ctx is done, then closes the watcher.
func (w *LogWatcher) Run(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("log file changed", slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.AfterFunc(w.debounce, w.onChange)
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("error watching log file", slog.Any("error", err))
		}
	}
}
