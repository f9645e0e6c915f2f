package calculator

import (
	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// SMA returns the simple moving average of the last window closes.
// Undefined when window is not positive or there are fewer closes than window.
func SMA(closes []float64, window int) null.Float {
	if window <= 0 || len(closes) < window {
		return null.Float{}
	}
	sum := 0.0
	for i := len(closes) - window; i < len(closes); i++ {
		sum += closes[i]
	}
	return null.FloatFrom(sum / float64(window))
}

// SMASeries returns the rolling simple moving average aligned with closes.
// Entries before index window-1 are undefined.
func SMASeries(closes []float64, window int) []null.Float {
	out := make([]null.Float, len(closes))
	if window <= 0 || len(closes) < window {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = null.FloatFrom(sum / float64(window))
		}
	}
	return out
}

// AboveMA reports whether last is strictly above ma. Undefined when ma is.
func AboveMA(last float64, ma null.Float) null.Bool {
	if !ma.Valid {
		return null.Bool{}
	}
	return null.BoolFrom(last > ma.Float64)
}

// MA20 and MA50 over daily bars.
func MA20(bars []model.OHLCV) null.Float { return SMA(extractCloses(bars), 20) }

func MA50(bars []model.OHLCV) null.Float { return SMA(extractCloses(bars), 50) }

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
