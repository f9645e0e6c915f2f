package calculator

import (
	"math"

	"github.com/guregu/null/v6"
)

// ZScore measures how far the last close sits from the mean of the trailing
// window, in sample standard deviations. A flat window scores 0.
func ZScore(closes []float64, window int) null.Float {
	if window < 2 || len(closes) < window {
		return null.Float{}
	}
	tail := closes[len(closes)-window:]

	mean := 0.0
	for _, c := range tail {
		mean += c
	}
	mean /= float64(window)

	ss := 0.0
	for _, c := range tail {
		d := c - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(window-1))
	if std == 0 {
		return null.FloatFrom(0)
	}
	return null.FloatFrom((tail[window-1] - mean) / std)
}
