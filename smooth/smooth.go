// Package smooth turns a sample series into a trailing moving average
// of the same length.
package smooth

// Smooth returns the trailing moving average of xs over a window of k
// samples. Element i is the mean of xs[max(0, i-k+1)..i], so the window
// grows from one sample up to k at the start of the series.
//
// A window of one or less means no smoothing and xs is returned as is.
func Smooth(xs []float64, k int) []float64 {
	if k <= 1 {
		return xs
	}

	out := make([]float64, len(xs))
	ma := NewMovingAverage(k)
	for i, v := range xs {
		ma.Add(v)
		out[i] = ma.Avg()
	}
	return out
}
