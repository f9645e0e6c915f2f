package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// RecentRange scans the most recent n bars (all bars when fewer) and returns
// the highest high and lowest low. Both are undefined for an empty input.
func RecentRange(bars []model.OHLCV, n int) (high, low null.Float) {
	if len(bars) == 0 || n <= 0 {
		return null.Float{}, null.Float{}
	}
	start := len(bars) - n
	if start < 0 {
		start = 0
	}
	hi := math.Inf(-1)
	lo := math.Inf(1)
	for i := start; i < len(bars); i++ {
		if bars[i].High > hi {
			hi = bars[i].High
		}
		if bars[i].Low < lo {
			lo = bars[i].Low
		}
	}
	return null.FloatFrom(hi), null.FloatFrom(lo)
}

// DayRange returns the low and high of the most recent bar.
func DayRange(bars []model.OHLCV) (low, high null.Float) {
	if len(bars) == 0 {
		return null.Float{}, null.Float{}
	}
	last := bars[len(bars)-1]
	return null.FloatFrom(last.Low), null.FloatFrom(last.High)
}

// RangePosition returns where current sits within [low, high], clamped to
// 0..1. A flat range reports 0.5.
func RangePosition(current float64, high, low null.Float) null.Float {
	if !high.Valid || !low.Valid || high.Float64 < low.Float64 {
		return null.Float{}
	}
	if high.Float64 == low.Float64 {
		return null.FloatFrom(0.5)
	}
	pos := (current - low.Float64) / (high.Float64 - low.Float64)
	return null.FloatFrom(math.Min(1, math.Max(0, pos)))
}
