package collector

import (
	"context"
	"errors"

	"MarketBrief/internal/model"
)

// ErrNoData is returned when an upstream answers without usable bars.
var ErrNoData = errors.New("no price data returned")

// Fetcher defines the interface for fetching price history.
// period and interval use the Yahoo vocabulary ("6mo", "1d").
type Fetcher interface {
	FetchBars(ctx context.Context, ticker, period, interval string) (model.PriceSeries, error)
	Name() string
}
