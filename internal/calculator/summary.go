package calculator

import (
	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// Window sizes of the snapshot statistics.
const (
	ZScoreWindow = 20
	ATRPeriod    = 14
	RangeBars    = 22
)

// Summarize computes the snapshot columns of a series: last close and the
// day, week and month returns plus the 20-bar z-score. ok is false when the
// series has fewer than two bars.
func Summarize(bars []model.OHLCV) (stat model.SnapshotStat, ok bool) {
	if len(bars) < 2 {
		return model.SnapshotStat{}, false
	}
	closes := extractCloses(bars)
	return model.SnapshotStat{
		Last:   closes[len(closes)-1],
		D1:     PeriodReturn(closes, DayBars),
		WTD:    PeriodReturn(closes, WeekBars),
		MTD:    PeriodReturn(closes, MonthBars),
		ZScore: ZScore(closes, ZScoreWindow),
	}, true
}

// Analyze extends Summarize with ATR, moving averages, ranges and the
// ATR-derived support and resistance levels.
func Analyze(bars []model.OHLCV) (model.Detail, bool) {
	stat, ok := Summarize(bars)
	if !ok {
		return model.Detail{}, false
	}
	stat.ATR14 = LastATR(bars, ATRPeriod)
	stat.MA20 = MA20(bars)
	stat.MA50 = MA50(bars)
	stat.AboveMA20 = AboveMA(stat.Last, stat.MA20)
	stat.AboveMA50 = AboveMA(stat.Last, stat.MA50)

	d := model.Detail{Stat: stat, Levels: Levels(stat.Last, stat.ATR14)}
	d.DayLow, d.DayHigh = DayRange(bars)
	d.RangeHigh, d.RangeLow = RecentRange(bars, RangeBars)
	d.RangePos = RangePosition(stat.Last, d.RangeHigh, d.RangeLow)
	return d, true
}

// Levels places R1/S1 one ATR and R2/S2 two ATRs from last.
func Levels(last float64, atr null.Float) model.Levels {
	if !atr.Valid {
		return model.Levels{}
	}
	a := atr.Float64
	return model.Levels{
		R1: null.FloatFrom(last + a),
		R2: null.FloatFrom(last + 2*a),
		S1: null.FloatFrom(last - a),
		S2: null.FloatFrom(last - 2*a),
	}
}
