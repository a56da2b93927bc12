package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron            *cron.Cron
	reloadAt        string
	ReloadTask      func()
	MaintenanceTask func()
}

// NewTasks schedules periodic reloads of the log. Maintenance only runs
// when a database is given.
func NewTasks(reloader *Reloader, db MaintenanceStore, reloadAt string, maxLogEntries int) *Tasks {
	logger := slog.Default().With("module", "tasks")
	t := &Tasks{
		cron:       cron.New(),
		reloadAt:   reloadAt,
		ReloadTask: NewReloadTask(logger.With(slog.String("task", "reload")), reloader),
	}
	if db != nil {
		t.MaintenanceTask = NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, maxLogEntries)
	}
	return t
}

func (t *Tasks) Run() error {
	if _, err := t.cron.AddFunc(t.reloadAt, t.ReloadTask); err != nil {
		return fmt.Errorf("scheduling reload at %q: %w", t.reloadAt, err)
	}
	if t.MaintenanceTask != nil {
		if _, err := t.cron.AddFunc("30 2 * * *", t.MaintenanceTask); err != nil {
			return fmt.Errorf("scheduling maintenance: %w", err)
		}
	}
	t.cron.Start()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}

// NewReloadTask re-reads the log. A missing or empty log is expected
// while training is starting up and is only logged at debug level by
// the reloader.
func NewReloadTask(logger *slog.Logger, reloader *Reloader) func() {
	return func() {
		if err := reloader.Reload(); err != nil {
			logger.Debug("scheduled reload found nothing new", slog.Any("error", err))
		}
	}
}
