// Package plot turns training and evaluation logs into chart definitions.
package plot

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/angas/sacplot/csvlog"
	"github.com/angas/sacplot/slice"
	"github.com/angas/sacplot/smooth"
	"github.com/angas/sacplot/www/chartjs"
)

type Kind string

const (
	KindTrain Kind = "train"
	KindEval  Kind = "eval"
)

var ErrNoData = errors.New("no data")

// DefaultPath is where the trainer writes this kind of log.
func (k Kind) DefaultPath() string {
	if k == KindEval {
		return "logs/eval.csv"
	}
	return "logs/train.csv"
}

// Hint tells the user how to get a log of this kind.
func (k Kind) Hint() string {
	if k == KindEval {
		return "Run training first so that evaluation results are written to logs/eval.csv."
	}
	return "Run training first so that logs/train.csv is created."
}

type Summary struct {
	Kind         Kind      `json:"kind"`
	Path         string    `json:"path"`
	Rows         int       `json:"rows"`
	Skipped      int       `json:"skipped"`
	Window       int       `json:"window"`
	LastStep     float64   `json:"lastStep"`
	LastValue    float64   `json:"lastValue"`
	LastSmoothed float64   `json:"lastSmoothed"`
	LoadedAt     time.Time `json:"loadedAt"`
}

// MarshalJSON writes NaN and infinite values as null, encoding/json
// refuses them.
func (s Summary) MarshalJSON() ([]byte, error) {
	type summary Summary
	return json.Marshal(struct {
		summary
		LastStep     *float64 `json:"lastStep"`
		LastValue    *float64 `json:"lastValue"`
		LastSmoothed *float64 `json:"lastSmoothed"`
	}{summary(s), finite(s.LastStep), finite(s.LastValue), finite(s.LastSmoothed)})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// withFiniteSteps drops rows that cannot be placed on the x axis.
func withFiniteSteps[T any](rows []T, step func(T) float64) ([]T, int) {
	kept := make([]T, 0, len(rows))
	for _, r := range rows {
		if finite(step(r)) != nil {
			kept = append(kept, r)
		}
	}
	return kept, len(rows) - len(kept)
}

type Figure struct {
	Chart   chartjs.Chart
	Summary Summary
}

// Source names a log file and how it should be drawn.
type Source struct {
	Kind   Kind
	Path   string
	Window int
}

func (s Source) WithWindow(window int) Source {
	s.Window = window
	return s
}

// Load reads the log and builds its figure. A log without any usable
// row returns ErrNoData.
func (s Source) Load() (Figure, error) {
	switch s.Kind {
	case KindTrain:
		rows, tbl, err := csvlog.ReadTrain(s.Path)
		if err != nil {
			return Figure{}, err
		}
		rows, dropped := withFiniteSteps(rows, func(r csvlog.TrainRow) float64 { return r.Step })
		if len(rows) == 0 {
			return Figure{}, fmt.Errorf("%s: %w", s.Path, ErrNoData)
		}
		returns := slice.Map(rows, func(r csvlog.TrainRow) float64 { return r.EpisodeReturn })
		return Figure{
			Chart:   TrainChart(rows, s.Window),
			Summary: s.summarize(len(rows), tbl.Skipped+dropped, rows[len(rows)-1].Step, returns),
		}, nil

	case KindEval:
		rows, tbl, err := csvlog.ReadEval(s.Path)
		if err != nil {
			return Figure{}, err
		}
		rows, dropped := withFiniteSteps(rows, func(r csvlog.EvalRow) float64 { return r.Step })
		if len(rows) == 0 {
			return Figure{}, fmt.Errorf("%s: %w", s.Path, ErrNoData)
		}
		returns := slice.Map(rows, func(r csvlog.EvalRow) float64 { return r.AvgReturn })
		return Figure{
			Chart:   EvalChart(rows, s.Window),
			Summary: s.summarize(len(rows), tbl.Skipped+dropped, rows[len(rows)-1].Step, returns),
		}, nil

	default:
		return Figure{}, fmt.Errorf("unknown log kind %q", s.Kind)
	}
}

func (s Source) summarize(rows, skipped int, lastStep float64, values []float64) Summary {
	sum := Summary{
		Kind:     s.Kind,
		Path:     s.Path,
		Rows:     rows,
		Skipped:  skipped,
		Window:   max(s.Window, 1),
		LastStep: lastStep,
		LoadedAt: time.Now(),
	}
	if v, ok := slice.Last(values); ok {
		sum.LastValue = v
	}
	if v, ok := slice.Last(smooth.Smooth(values, s.Window)); ok {
		sum.LastSmoothed = v
	}
	return sum
}
