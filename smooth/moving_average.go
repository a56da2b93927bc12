package smooth

// MovingAverage is a trailing mean over the last size values added.
// Until size values have been seen the window grows with each Add.
type MovingAverage struct {
	window []float64
	size   int
	sum    float64
	index  int
	full   bool
}

func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		size = 1
	}
	return &MovingAverage{
		window: make([]float64, size),
		size:   size,
	}
}

func (ma *MovingAverage) Add(value float64) {
	if ma.full {
		ma.sum -= ma.window[ma.index]
	}

	ma.window[ma.index] = value
	ma.sum += value
	ma.index = (ma.index + 1) % ma.size

	if ma.index == 0 {
		ma.full = true
	}
}

// Len is the number of values currently inside the window.
func (ma *MovingAverage) Len() int {
	if ma.full {
		return ma.size
	}
	return ma.index
}

func (ma *MovingAverage) Avg() float64 {
	n := ma.Len()
	if n == 0 {
		return 0
	}
	return ma.sum / float64(n)
}

func (ma *MovingAverage) Reset() {
	ma.sum = 0
	ma.index = 0
	ma.full = false
	for i := range ma.window {
		ma.window[i] = 0
	}
}
