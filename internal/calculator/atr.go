package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// TrueRange returns the true range of every bar. The first bar has no prior
// close and uses high-low. Slices must have equal length.
func TrueRange(high, low, closes []float64) []float64 {
	n := minLen(high, low, closes)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		prev := closes[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(high[i]-prev), math.Abs(low[i]-prev)))
	}
	return out
}

// ATR is the simple rolling mean of the true range over period bars.
// Entries before index period-1 are undefined.
func ATR(high, low, closes []float64, period int) []null.Float {
	return SMASeries(TrueRange(high, low, closes), period)
}

// LastATR returns the most recent ATR value of the bars.
func LastATR(bars []model.OHLCV, period int) null.Float {
	if len(bars) == 0 {
		return null.Float{}
	}
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	for i, b := range bars {
		high[i] = b.High
		low[i] = b.Low
	}
	atr := ATR(high, low, extractCloses(bars), period)
	return atr[len(atr)-1]
}

func minLen(s ...[]float64) int {
	n := len(s[0])
	for _, x := range s[1:] {
		if len(x) < n {
			n = len(x)
		}
	}
	return n
}
