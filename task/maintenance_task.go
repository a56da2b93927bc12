package task

import (
	"context"
	"log/slog"
	"time"
)

const maxSnapshots = 5000

// MaintenanceStore is the part of the database the maintenance task trims.
type MaintenanceStore interface {
	PurgeLog(ctx context.Context, maxLogEntries int) error
	PurgeSnapshots(ctx context.Context, maxSnapshots int) error
}

func NewMaintenanceTask(logger *slog.Logger, db MaintenanceStore, maxLogEntries int) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if err := db.PurgeLog(ctx, maxLogEntries); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeSnapshots(ctx, maxSnapshots); err != nil {
			logger.Error("snapshot maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
