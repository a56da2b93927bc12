package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/angas/sacplot/config"
	"github.com/angas/sacplot/database"
	"github.com/angas/sacplot/logging"
	"github.com/angas/sacplot/plot"
	"github.com/angas/sacplot/publish"
	"github.com/angas/sacplot/report"
	"github.com/angas/sacplot/task"
	"github.com/angas/sacplot/www"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Debug("application is shutting down...")
		}
	}()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		exitWithError(slog.Default(), err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sacplot",
		Short:         "Plot reinforcement learning training and evaluation logs",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to config file")
	flags.IntP("smooth", "k", 1, "moving average window in rows, 1 disables smoothing")
	flags.StringP("output", "o", "", "write a standalone HTML page to this file instead of serving")
	flags.String("addr", "127.0.0.1", "address to serve the chart on")
	flags.Int("port", 8090, "port to serve the chart on")
	flags.String("db", "", "sqlite file for log entries and reload snapshots")
	flags.String("log-level", "INFO", "console log level")

	root.AddCommand(
		newPlotCmd(plot.KindTrain, "Plot episode return over global step", &configPath),
		newPlotCmd(plot.KindEval, "Plot average return and alpha over global step", &configPath),
	)
	return root
}

func newPlotCmd(kind plot.Kind, short string, configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cnfg, err := config.Load(*configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			path := file
			if !cmd.Flags().Changed("file") {
				path = cnfg.Plot.GetTrainFile()
				if kind == plot.KindEval {
					path = cnfg.Plot.GetEvalFile()
				}
			}

			src := plot.Source{Kind: kind, Path: path, Window: cnfg.Plot.GetSmooth()}
			return run(cmd.Context(), cnfg, src)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", kind.DefaultPath(), "log file to plot")
	return cmd
}

func run(ctx context.Context, cnfg *config.AppConfig, src plot.Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	logger := slog.New(consoleHandler)
	slog.SetDefault(logger)
	logger.Debug("sacplot is starting...", slog.String("version", Version), slog.String("kind", string(src.Kind)))

	reporter := report.New(os.Stdout)
	fig, err := src.Load()
	if handled, err := reporter.Handle(err, src.Path, src.Kind.Hint()); handled || err != nil {
		return err
	}
	if fig.Summary.Skipped > 0 {
		logger.Debug("skipped malformed rows", slog.String("path", src.Path), slog.Int("skipped", fig.Summary.Skipped))
	}
	reporter.Summary(fig.Summary)

	if out := cnfg.Plot.Output; out != "" {
		return writeStandalone(out, fig)
	}

	// Interfaces stay nil unless a database is configured.
	var logDb www.LogReader
	var store task.MaintenanceStore
	var db *database.Database
	if cnfg.Database.Path != "" {
		db, err = database.New(ctx, cnfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		logger = slog.New(logging.NewMultiHandler(
			consoleHandler,
			logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
		slog.SetDefault(logger)

		// Now we can use the logger to log database operations into the database itself
		db.SetLogger(logger.With("module", "database"))
		logDb = db
		store = db
	}

	reloader := task.NewReloader(logger.With("module", "reloader"), src)

	server, err := www.StartServer(reloader, logDb, cnfg.Api)
	if err != nil {
		return err
	}
	reloader.OnReload(server.Notify)

	if db != nil {
		reloader.OnReload(func(f plot.Figure) {
			s := f.Summary
			if err := db.SaveSnapshot(ctx, database.SnapshotRow{
				LoadedAt:     s.LoadedAt,
				Kind:         string(s.Kind),
				Path:         s.Path,
				Rows:         s.Rows,
				Skipped:      s.Skipped,
				Window:       s.Window,
				LastStep:     s.LastStep,
				LastValue:    s.LastValue,
				LastSmoothed: s.LastSmoothed,
			}); err != nil {
				logger.Warn("failed to save snapshot", slog.Any("error", err))
			}
		})
	}

	if cnfg.Mqtt.Host != "" {
		pub := publish.New(publish.Options{
			Host:        cnfg.Mqtt.Host,
			Port:        cnfg.Mqtt.GetPort(),
			Username:    cnfg.Mqtt.Username,
			Password:    cnfg.Mqtt.Password,
			TopicPrefix: cnfg.Mqtt.GetTopicPrefix(),
		})
		if err := pub.Connect(); err != nil {
			logger.Warn("mqtt publishing disabled", slog.Any("error", err))
		} else {
			defer pub.Disconnect()
			reloader.OnReload(func(f plot.Figure) {
				if err := pub.Publish(f.Summary); err != nil {
					logger.Warn("failed to publish summary", slog.Any("error", err))
				}
			})
		}
	}

	if err := reloader.Reload(); err != nil {
		logger.Warn("initial reload failed", slog.Any("error", err))
	}

	watcher, err := task.NewLogWatcher(
		logger.With("module", "watcher"),
		src.Path,
		time.Duration(cnfg.Refresh.GetDebounceMs())*time.Millisecond,
		func() {
			if err := reloader.Reload(); err != nil {
				logger.Debug("reload after file change failed", slog.Any("error", err))
			}
		})
	if err != nil {
		return err
	}
	go watcher.Run(ctx)

	tasks := task.NewTasks(reloader, store, cnfg.Refresh.GetRunAt(), cnfg.Logging.GetDbMaxEntries())
	if err := tasks.Run(); err != nil {
		return err
	}
	defer tasks.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-ctx.Done():
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	logger.Info("serving chart", slog.String("url", server.URL()))
	return server.Run(ctx)
}

func writeStandalone(path string, fig plot.Figure) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := www.RenderStandalone(f, fig); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	slog.Default().Info("chart written", slog.String("path", path))
	return nil
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	os.Exit(1)
}
