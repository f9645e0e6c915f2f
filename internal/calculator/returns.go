package calculator

import "github.com/guregu/null/v6"

// Lookbacks used for the snapshot columns.
const (
	DayBars   = 1
	WeekBars  = 5
	MonthBars = 22
)

// PeriodReturn is the percentage change of the last close against the close
// n bars earlier. With n or fewer closes the first close is the reference.
// Undefined for an empty series or a zero reference price.
func PeriodReturn(closes []float64, n int) null.Float {
	if len(closes) == 0 || n < 0 {
		return null.Float{}
	}
	last := closes[len(closes)-1]
	ref := closes[0]
	if len(closes) > n {
		ref = closes[len(closes)-1-n]
	}
	if ref == 0 {
		return null.Float{}
	}
	return null.FloatFrom((last/ref - 1) * 100)
}
