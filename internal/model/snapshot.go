package model

import "github.com/guregu/null/v6"

// SnapshotStat is the statistics bundle of one ticker. Fields that need
// more history than was available are left invalid rather than zero.
type SnapshotStat struct {
	Last   float64    `json:"last"`
	D1     null.Float `json:"d1"`
	WTD    null.Float `json:"wtd"`
	MTD    null.Float `json:"mtd"`
	ZScore null.Float `json:"zscore"`

	// Detail-level fields, only filled by the detail builder.
	ATR14     null.Float `json:"atr14"`
	MA20      null.Float `json:"ma20"`
	MA50      null.Float `json:"ma50"`
	AboveMA20 null.Bool  `json:"above_ma20"`
	AboveMA50 null.Bool  `json:"above_ma50"`
}

// MarketSnapshot maps a ticker display name to its statistics.
type MarketSnapshot map[string]SnapshotStat

// Levels are ATR-derived resistance and support levels around the last price.
type Levels struct {
	R1 null.Float `json:"r1"`
	R2 null.Float `json:"r2"`
	S1 null.Float `json:"s1"`
	S2 null.Float `json:"s2"`
}

// Detail is the per-asset view used by the market detail report.
type Detail struct {
	Ticker      string       `json:"ticker"`
	DisplayName string       `json:"display_name"`
	Stat        SnapshotStat `json:"stat"`
	DayLow      null.Float   `json:"day_low"`
	DayHigh     null.Float   `json:"day_high"`
	RangeHigh   null.Float   `json:"range_high"`
	RangeLow    null.Float   `json:"range_low"`
	RangePos    null.Float   `json:"range_position"` // 0 at the low, 1 at the high
	Levels      Levels       `json:"levels"`
}
