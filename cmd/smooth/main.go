package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/angas/sacplot/smooth"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
)

// Reads one number per line from stdin and prints the smoothed series.
func main() {
	k, err := parseWindow(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	} else if err != nil {
		os.Exit(2)
	}

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.RFC3339,
		}),
	))

	xs, err := readValues(os.Stdin)
	if err != nil {
		slog.Error("failed to read input", slog.Any("error", err))
		os.Exit(1)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, v := range smooth.Smooth(xs, k) {
		fmt.Fprintln(w, strconv.FormatFloat(v, 'f', -1, 64))
	}
}

func parseWindow(args []string) (int, error) {
	flags := pflag.NewFlagSet("smooth", pflag.ContinueOnError)
	k := flags.IntP("window", "k", 1, "moving average window in values, 1 disables smoothing")
	if err := flags.Parse(args); err != nil {
		return 0, err
	}
	return *k, nil
}

func readValues(r io.Reader) ([]float64, error) {
	var xs []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			slog.Warn("skipping line", slog.Int("line", line), slog.String("value", s))
			continue
		}
		xs = append(xs, v)
	}
	return xs, scanner.Err()
}
