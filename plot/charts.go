package plot

import (
	"fmt"

	"github.com/angas/sacplot/csvlog"
	"github.com/angas/sacplot/slice"
	"github.com/angas/sacplot/smooth"
	"github.com/angas/sacplot/www/chartjs"
)

const (
	TrainTitle = "SAC on Pendulum-v1 — Training Episode Reward"
	EvalTitle  = "SAC on Pendulum-v1 (Eval)"
)

// TrainChart draws the raw episode return, faded when a smoothed series
// is drawn on top of it.
func TrainChart(rows []csvlog.TrainRow, window int) chartjs.Chart {
	steps := slice.Map(rows, func(r csvlog.TrainRow) float64 { return r.Step })
	returns := slice.Map(rows, func(r csvlog.TrainRow) float64 { return r.EpisodeReturn })

	chart := chartjs.NewChart(TrainTitle, "Global Step")
	chart.SetLabels(steps)

	rawColor := chartjs.ColorBlue
	if window > 1 {
		rawColor = chartjs.ColorBlueFaded
	}
	chart.AddDataset("Episode Return", chartjs.YAxis1, returns, chartjs.Style{Color: rawColor})
	if window > 1 {
		chart.AddDataset(fmt.Sprintf("Smoothed (k=%d)", window), chartjs.YAxis1,
			smooth.Smooth(returns, window), chartjs.Style{Color: chartjs.ColorOrange})
	}

	chart.Options.Scales[chartjs.YAxis1] = chart.Options.Scales[chartjs.YAxis1].WithTitle("Episode Return")
	return chart
}

// EvalChart draws the average return on the left axis and the entropy
// temperature on a dashed right hand axis.
func EvalChart(rows []csvlog.EvalRow, window int) chartjs.Chart {
	steps := slice.Map(rows, func(r csvlog.EvalRow) float64 { return r.Step })
	returns := slice.Map(rows, func(r csvlog.EvalRow) float64 { return r.AvgReturn })
	alphas := slice.Map(rows, func(r csvlog.EvalRow) float64 { return r.Alpha })

	chart := chartjs.NewChart(EvalTitle, "Steps")
	chart.SetLabels(steps)
	chart.AddDataset("Avg Return", chartjs.YAxis1, returns, chartjs.Style{Color: chartjs.ColorBlue})
	if window > 1 {
		chart.AddDataset(fmt.Sprintf("Avg Return smoothed (k=%d)", window), chartjs.YAxis1,
			smooth.Smooth(returns, window), chartjs.Style{Color: chartjs.ColorGreen})
	}
	chart.AddDataset("Alpha", chartjs.YAxis2, alphas, chartjs.Style{Color: chartjs.ColorOrange, Dashed: true})

	chart.Options.Scales[chartjs.YAxis1] = chart.Options.Scales[chartjs.YAxis1].WithTitle("Avg Return")
	chart.Options.Scales[chartjs.YAxis2] = chart.Options.Scales[chartjs.YAxis2].WithTitle("Alpha")
	return chart
}
