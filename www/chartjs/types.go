package chartjs

type Chart struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []float64      `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label           string     `json:"label"`
	Data            []*float64 `json:"data"`
	BorderWidth     int        `json:"borderWidth"`
	BorderDash      []int      `json:"borderDash,omitempty"`
	BorderColor     string     `json:"borderColor"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	PointRadius     int        `json:"pointRadius"`
	Tension         float64    `json:"tension"`
	Fill            bool       `json:"fill"`
	YAxisID         string     `json:"yAxisID,omitempty"`
}

type ChartOptions struct {
	Responsive  bool                  `json:"responsive"`
	Animation   bool                  `json:"animation"`
	Interaction ChartInteraction      `json:"interaction"`
	Plugins     ChartPlugins          `json:"plugins"`
	Scales      map[string]ChartScale `json:"scales"`
}

type ChartInteraction struct {
	Mode      string `json:"mode"`
	Intersect bool   `json:"intersect"`
}

type ChartPlugins struct {
	Legend ChartLegend `json:"legend"`
	Title  ChartTitle  `json:"title"`
}

type ChartLegend struct {
	Display  bool   `json:"display"`
	Position string `json:"position,omitempty"`
}

type ChartTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type ChartScale struct {
	Type     string          `json:"type"`
	Display  bool            `json:"display"`
	Position string          `json:"position"`
	Grid     *ChartGrid      `json:"grid,omitempty"`
	Title    ChartScaleTitle `json:"title,omitempty"`
}

type ChartGrid struct {
	Display         bool `json:"display"`
	DrawOnChartArea bool `json:"drawOnChartArea"`
}

type ChartScaleTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
	Color   string `json:"color,omitempty"`
}
