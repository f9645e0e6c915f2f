package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketBrief/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Tickers in Bars are served as-is; tickers in Errs fail; any other ticker
// gets a generated series around Price.
type MockFetcher struct {
	Price float64
	Count int
	Bars  map[string][]model.OHLCV
	Errs  map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, ticker, period, interval string) (model.PriceSeries, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[ticker]++
	m.mu.Unlock()

	if err, ok := m.Errs[ticker]; ok {
		return model.PriceSeries{}, fmt.Errorf("mock %s: %w", ticker, err)
	}
	bars, ok := m.Bars[ticker]
	if !ok {
		count := m.Count
		if count == 0 {
			count = 130
		}
		bars = generateMockBars(m.Price, count)
	}
	return model.PriceSeries{
		Ticker:    ticker,
		Period:    period,
		Interval:  interval,
		Bars:      model.NormalizeBars(bars),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Calls returns how many times ticker was requested.
func (m *MockFetcher) Calls(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[ticker]
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
