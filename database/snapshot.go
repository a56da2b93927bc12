package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// SnapshotRow records what a log file contained when it was last read.
type SnapshotRow struct {
	LoadedAt     time.Time
	Kind         string
	Path         string
	Rows         int
	Skipped      int
	Window       int
	LastStep     float64
	LastValue    float64
	LastSmoothed float64
}

func (d *Database) SaveSnapshot(ctx context.Context, row SnapshotRow) error {
	d.logger.Debug("saving snapshot",
		"kind", row.Kind,
		"path", row.Path,
		"rows", row.Rows,
		"skipped", row.Skipped,
		"last_step", row.LastStep)

	_, err := d.write.ExecContext(ctx, `
		INSERT INTO snapshot (
			loaded_at,
			kind,
			path,
			row_count,
			skipped_count,
			smooth_window,
			last_step,
			last_value,
			last_smoothed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.LoadedAt.UTC().Format(time.RFC3339Nano),
		row.Kind,
		row.Path,
		row.Rows,
		row.Skipped,
		row.Window,
		row.LastStep,
		nullFloat(row.LastValue),
		nullFloat(row.LastSmoothed))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// GetSnapshots returns the most recent snapshots of the given kind, newest first.
func (d *Database) GetSnapshots(ctx context.Context, kind string, limit int) ([]SnapshotRow, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT loaded_at, kind, path, row_count, skipped_count, smooth_window,
			last_step, last_value, last_smoothed
		FROM snapshot
		WHERE kind = ?
		ORDER BY id DESC
		LIMIT ?`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshots: %w", err)
	}
	defer rows.Close()

	var result []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		var ts string
		var value, smoothed sql.NullFloat64
		if err := rows.Scan(&ts, &r.Kind, &r.Path, &r.Rows, &r.Skipped, &r.Window,
			&r.LastStep, &value, &smoothed); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		r.LastValue = floatOrNaN(value)
		r.LastSmoothed = floatOrNaN(smoothed)
		if r.LoadedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing snapshot time: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot rows: %w", err)
	}

	return result, nil
}

// PurgeSnapshots keeps the newest maxSnapshots rows.
func (d *Database) PurgeSnapshots(ctx context.Context, maxSnapshots int) error {
	d.logger.Debug("purging snapshots")
	_, err := d.write.ExecContext(ctx, `
		DELETE FROM snapshot WHERE id <= (SELECT id FROM snapshot ORDER BY id DESC LIMIT 1 OFFSET ?)`, maxSnapshots)
	if err != nil {
		return fmt.Errorf("purging snapshots: %w", err)
	}
	return nil
}

// NaN and infinities are stored as NULL.
func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
