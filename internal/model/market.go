package model

import (
	"sort"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the bars of one ticker over a lookback window,
// oldest first, without duplicate timestamps.
type PriceSeries struct {
	Ticker    string
	Period    string
	Interval  string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (p PriceSeries) Len() int { return len(p.Bars) }

// NormalizeBars sorts bars chronologically and drops repeated timestamps,
// keeping the last occurrence. The input slice is not modified.
func NormalizeBars(bars []OHLCV) []OHLCV {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
