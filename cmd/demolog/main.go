package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/angas/sacplot/csvlog"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
)

// Writes a synthetic training run so the viewer has something to show.
// With --follow, rows keep arriving so live reload can be tried.
func main() {
	dir := pflag.StringP("dir", "d", "logs", "directory for train.csv and eval.csv")
	steps := pflag.IntP("steps", "n", 200_000, "number of environment steps")
	episodeLen := pflag.Int("episode-len", 1000, "steps per episode")
	evalEvery := pflag.Int("eval-every", 5000, "steps between evaluations")
	follow := pflag.Duration("follow", 0, "delay between episodes, 0 writes everything at once")
	seed := pflag.Uint64("seed", 1, "random seed")
	pflag.Parse()

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.RFC3339,
		}),
	))

	if err := run(*dir, *steps, *episodeLen, *evalEvery, *follow, *seed); err != nil {
		slog.Error("failed to write logs", slog.Any("error", err))
		os.Exit(1)
	}
}

// logWriter is the part of csvlog.Writer the generator needs.
type logWriter interface {
	WriteRow(values []float64) error
	Flush() error
	Close() error
}

func run(dir string, steps, episodeLen, evalEvery int, follow time.Duration, seed uint64) error {
	train, err := csvlog.NewWriter(filepath.Join(dir, "train.csv"),
		[]string{csvlog.ColStep, csvlog.ColEpisodeReturn}, false)
	if err != nil {
		return err
	}

	eval, err := csvlog.NewWriter(filepath.Join(dir, "eval.csv"),
		[]string{csvlog.ColStep, csvlog.ColAvgReturn, csvlog.ColAlpha}, false)
	if err != nil {
		train.Close()
		return err
	}

	if err := generate(train, eval, steps, episodeLen, evalEvery, follow, seed); err != nil {
		return err
	}

	slog.Info("logs written", slog.String("dir", dir), slog.Int("steps", steps))
	return nil
}

// generate writes the synthetic run and closes both writers. Rows are
// buffered, so a failing Close means the log is incomplete.
func generate(train, eval logWriter, steps, episodeLen, evalEvery int, follow time.Duration, seed uint64) error {
	err := writeRows(train, eval, steps, episodeLen, evalEvery, follow, seed)
	if closeErr := train.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing train log: %w", closeErr)
	}
	if closeErr := eval.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing eval log: %w", closeErr)
	}
	return err
}

func writeRows(train, eval logWriter, steps, episodeLen, evalEvery int, follow time.Duration, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	episodeLen = max(episodeLen, 1)
	evalEvery = max(evalEvery, 1)

	// Return climbs from about -200 towards 250 while alpha decays.
	progress := func(step int) float64 { return 1 - math.Exp(-3*float64(step)/float64(steps)) }
	expected := func(step int) float64 { return -200 + 450*progress(step) }
	alpha := func(step int) float64 { return 0.2*math.Exp(-4*float64(step)/float64(steps)) + 0.01 }

	nextEval := evalEvery
	for step := episodeLen; step <= steps; step += episodeLen {
		ret := expected(step) + rng.NormFloat64()*40
		if err := train.WriteRow([]float64{float64(step), ret}); err != nil {
			return err
		}

		for ; nextEval <= step; nextEval += evalEvery {
			avg := expected(nextEval) + rng.NormFloat64()*15
			if err := eval.WriteRow([]float64{float64(nextEval), avg, alpha(nextEval)}); err != nil {
				return err
			}
		}

		if follow > 0 {
			if err := train.Flush(); err != nil {
				return err
			}
			if err := eval.Flush(); err != nil {
				return err
			}
			time.Sleep(follow)
		}
	}
	return nil
}
