package chartjs

import (
	"math"

	"github.com/angas/sacplot/convert"
)

const (
	XAxis  = "x"
	YAxis1 = "YAxis1"
	YAxis2 = "YAxis2"
)

const ColorBlue = "#1f77b4"
const ColorBlueFaded = "#1f77b459" // alpha 0.35
const ColorOrange = "#ff7f0e"
const ColorGreen = "#2ca02c"

// Style controls how a dataset is drawn.
type Style struct {
	Color  string
	Dashed bool
}

// NewChart returns a line chart with a linear x axis and a left y axis.
// A right y axis is added by the first dataset placed on YAxis2.
func NewChart(title, xLabel string) Chart {
	chart := Chart{
		Type: "line",
		Data: ChartData{
			Labels:   []float64{},
			Datasets: []ChartDataset{},
		},
		Options: ChartOptions{
			Responsive:  true,
			Animation:   false,
			Interaction: ChartInteraction{Mode: "index", Intersect: false},
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: true, Position: "top"},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				XAxis: {
					Type:     "linear",
					Display:  true,
					Position: "bottom",
					Title:    ChartScaleTitle{Display: xLabel != "", Text: xLabel}},
				YAxis1: {
					Type:     "linear",
					Display:  true,
					Position: "left",
					Title:    ChartScaleTitle{Display: true, Text: ""}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

// SetLabels sets the x values shared by all datasets.
func (c *Chart) SetLabels(xs []float64) {
	c.Data.Labels = append([]float64(nil), xs...)
}

// AddDataset appends a series drawn against the given y axis.
func (c *Chart) AddDataset(label, axis string, values []float64, style Style) {
	data := make([]*float64, len(values))
	for i, v := range values {
		data[i] = FixedFloat64(v, 4)
	}

	ds := ChartDataset{
		Label:       label,
		Data:        data,
		BorderWidth: 1,
		BorderColor: style.Color,
		PointRadius: 0,
		Tension:     0,
		Fill:        false,
		YAxisID:     axis,
	}
	if style.Dashed {
		ds.BorderDash = []int{6, 4}
	}
	c.Data.Datasets = append(c.Data.Datasets, ds)

	if _, ok := c.Options.Scales[axis]; !ok && axis == YAxis2 {
		c.Options.Scales[YAxis2] = ChartScale{
			Type:     "linear",
			Display:  true,
			Position: "right",
			Grid:     &ChartGrid{Display: true, DrawOnChartArea: false},
			Title:    ChartScaleTitle{Display: true, Text: "", Color: style.Color},
		}
	}
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

// FixedFloat64 rounds num to precision decimals. NaN and infinities are
// not representable in JSON and become nil, which Chart.js draws as a gap.
func FixedFloat64(num float64, precision int) *float64 {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return nil
	}
	result := convert.RoundFloat64(num, precision)
	return &result
}
