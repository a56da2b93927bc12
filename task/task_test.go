package task

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angas/sacplot/plot"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	logs, snapshots int
}

func (f *fakeStore) PurgeLog(ctx context.Context, maxLogEntries int) error {
	f.logs = maxLogEntries
	return nil
}

func (f *fakeStore) PurgeSnapshots(ctx context.Context, maxSnapshots int) error {
	f.snapshots = maxSnapshots
	return errors.New("locked")
}

func TestReloader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	r := NewReloader(slog.Default(), plot.Source{Kind: plot.KindTrain, Path: path, Window: 2})

	var notified []plot.Figure
	r.OnReload(func(f plot.Figure) { notified = append(notified, f) })

	_, err := r.Current()
	require.ErrorIs(t, err, plot.ErrNoData)

	require.Error(t, r.Reload())
	require.Empty(t, notified)

	require.NoError(t, os.WriteFile(path, []byte("step,episode_return\n1,10\n2,20\n"), 0644))
	require.NoError(t, r.Reload())
	require.Len(t, notified, 1)

	fig, err := r.Current()
	require.NoError(t, err)
	require.Equal(t, 2, fig.Summary.Rows)
	require.Equal(t, 15.0, fig.Summary.LastSmoothed)

	// A truncated file keeps the previous figure around.
	require.NoError(t, os.WriteFile(path, []byte("step,episode_return\n"), 0644))
	require.ErrorIs(t, r.Reload(), plot.ErrNoData)
	fig, err = r.Current()
	require.ErrorIs(t, err, plot.ErrNoData)
	require.Equal(t, 2, fig.Summary.Rows)
}

func TestReloaderWithWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("step,episode_return\n1,1\n2,2\n3,3\n"), 0644))

	r := NewReloader(slog.Default(), plot.Source{Kind: plot.KindTrain, Path: path, Window: 1})
	require.NoError(t, r.Reload())

	fig, err := r.WithWindow(3)
	require.NoError(t, err)
	require.Equal(t, 3, fig.Summary.Window)
	require.Equal(t, 2.0, fig.Summary.LastSmoothed)

	cur, _ := r.Current()
	require.Equal(t, 1, cur.Summary.Window)

	same, err := r.WithWindow(1)
	require.NoError(t, err)
	require.Equal(t, cur.Summary.LoadedAt, same.Summary.LoadedAt)
}

func TestMaintenanceTask(t *testing.T) {
	store := &fakeStore{}
	NewMaintenanceTask(slog.Default(), store, 123)()
	require.Equal(t, 123, store.logs)
	require.Equal(t, maxSnapshots, store.snapshots)
}

func TestTasksRejectsBadSchedule(t *testing.T) {
	r := NewReloader(slog.Default(), plot.Source{Kind: plot.KindTrain, Path: "nope.csv"})
	tasks := NewTasks(r, nil, "every now and then", 10)
	require.Nil(t, tasks.MaintenanceTask)
	require.Error(t, tasks.Run())

	tasks = NewTasks(r, &fakeStore{}, "@every 1h", 10)
	require.NotNil(t, tasks.MaintenanceTask)
	require.NoError(t, tasks.Run())
	<-tasks.Stop().Done()
}

func TestLogWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eval.csv")

	var calls atomic.Int32
	changed := make(chan struct{}, 10)
	w, err := NewLogWatcher(slog.Default(), path, 20*time.Millisecond, func() {
		calls.Add(1)
		changed <- struct{}{}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("step,avg_return,alpha\n"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification for the watched file")
	}
	require.GreaterOrEqual(t, calls.Load(), int32(1))
}
