package task

import (
	"log/slog"
	"sync"

	"github.com/angas/sacplot/plot"
)

// Reloader keeps the most recent figure of a log file and tells
// listeners whenever a reload succeeds.
type Reloader struct {
	logger    *slog.Logger
	source    plot.Source
	mutex     sync.RWMutex
	figure    plot.Figure
	err       error
	listeners []func(plot.Figure)
}

func NewReloader(logger *slog.Logger, source plot.Source) *Reloader {
	return &Reloader{
		logger: logger,
		source: source,
		err:    plot.ErrNoData,
	}
}

func (r *Reloader) Source() plot.Source {
	return r.source
}

// OnReload registers fn to run after every successful reload. Listeners
// must be registered before the first reload.
func (r *Reloader) OnReload(fn func(plot.Figure)) {
	r.listeners = append(r.listeners, fn)
}

// Reload reads the log file again. On failure the previous figure is kept
// and the error is remembered for Current.
func (r *Reloader) Reload() error {
	fig, err := r.source.Load()

	r.mutex.Lock()
	r.err = err
	if err == nil {
		r.figure = fig
	}
	r.mutex.Unlock()

	if err != nil {
		r.logger.Debug("reload failed", slog.String("path", r.source.Path), slog.Any("error", err))
		return err
	}

	r.logger.Debug("log reloaded",
		slog.String("path", r.source.Path),
		slog.Int("rows", fig.Summary.Rows),
		slog.Int("skipped", fig.Summary.Skipped))

	for _, fn := range r.listeners {
		fn(fig)
	}
	return nil
}

// Current returns the last good figure. The error is the outcome of the
// latest reload, so a figure can be returned together with an error.
func (r *Reloader) Current() (plot.Figure, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.figure, r.err
}

// WithWindow loads the log with a different smoothing window without
// touching the stored figure.
func (r *Reloader) WithWindow(window int) (plot.Figure, error) {
	if window == r.source.Window {
		fig, err := r.Current()
		if fig.Summary.Rows > 0 {
			return fig, nil
		}
		return fig, err
	}
	return r.source.WithWindow(window).Load()
}
