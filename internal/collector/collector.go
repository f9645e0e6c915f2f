package collector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/calculator"
	"MarketBrief/internal/model"
)

// Default lookback of the cached series. Six months of daily bars cover
// the 50-bar moving average.
const (
	DefaultPeriod   = "6mo"
	DefaultInterval = "1d"
)

// ErrInsufficientHistory marks a ticker whose series has fewer than two bars.
var ErrInsufficientHistory = errors.New("fewer than two bars")

// Result is the outcome for one ticker of a snapshot build.
type Result struct {
	Ticker string
	Name   string // display name
	Key    string // session cache key of the series
	Stat   model.SnapshotStat
	Err    error
}

// OK reports whether the ticker made it into the snapshot.
func (r Result) OK() bool { return r.Err == nil }

// Options tunes a Collector.
type Options struct {
	Period       string
	Interval     string
	DisplayNames map[string]string
}

// Collector fetches price series through the shared cache and turns them
// into snapshot statistics.
type Collector struct {
	fetcher  Fetcher
	store    *cache.Store
	period   string
	interval string
	display  map[string]string
	log      *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, store *cache.Store, opts Options, log *zap.Logger) *Collector {
	if opts.Period == "" {
		opts.Period = DefaultPeriod
	}
	if opts.Interval == "" {
		opts.Interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	display := make(map[string]string, len(opts.DisplayNames))
	for k, v := range opts.DisplayNames {
		display[k] = v
	}
	return &Collector{
		fetcher:  fetcher,
		store:    store,
		period:   opts.Period,
		interval: opts.Interval,
		display:  display,
		log:      log.With(zap.String("source", fetcher.Name())),
	}
}

// DisplayName maps a ticker to the name used in reports.
func (c *Collector) DisplayName(ticker string) string {
	if name, ok := c.display[ticker]; ok {
		return name
	}
	return ticker
}

func (c *Collector) seriesName(ticker string) string {
	return fmt.Sprintf("ohlc:%s:%s:%s", ticker, c.period, c.interval)
}

// Series returns the price history of ticker for the current session,
// fetching it at most once per session. Empty series are errors and are not
// cached. The returned Bars are shared with every other caller and must be
// treated as read-only.
func (c *Collector) Series(ctx context.Context, ticker string) (model.PriceSeries, error) {
	return cache.GetOrFetch[model.PriceSeries](ctx, c.store, c.seriesName(ticker),
		cache.FetchFunc[model.PriceSeries](func(ctx context.Context) (model.PriceSeries, error) {
			s, err := c.fetcher.FetchBars(ctx, ticker, c.period, c.interval)
			if err != nil {
				return model.PriceSeries{}, err
			}
			if s.Len() == 0 {
				return model.PriceSeries{}, fmt.Errorf("%s: %w", ticker, ErrNoData)
			}
			return s, nil
		}))
}

// BuildSnapshot computes the summary statistics of every ticker in universe,
// one after another. Tickers that fail to fetch or have fewer than two bars
// are left out of the snapshot and reported in the results.
func (c *Collector) BuildSnapshot(ctx context.Context, universe []string) (model.MarketSnapshot, []Result) {
	snap := make(model.MarketSnapshot, len(universe))
	results := make([]Result, 0, len(universe))

	for _, ticker := range universe {
		r := Result{Ticker: ticker, Name: c.DisplayName(ticker), Key: c.store.Key(c.seriesName(ticker))}
		series, err := c.Series(ctx, ticker)
		if err != nil {
			r.Err = err
			c.log.Warn("fetch failed, ticker omitted", zap.String("ticker", ticker), zap.Error(err))
			results = append(results, r)
			continue
		}
		stat, ok := calculator.Summarize(series.Bars)
		if !ok {
			r.Err = fmt.Errorf("%s: %w", ticker, ErrInsufficientHistory)
			c.log.Warn("insufficient history, ticker omitted",
				zap.String("ticker", ticker), zap.Int("bars", series.Len()))
			results = append(results, r)
			continue
		}
		r.Stat = stat
		snap[r.Name] = stat
		results = append(results, r)
	}
	return snap, results
}

// BuildDetail returns the extended statistics and ATR levels of one ticker.
func (c *Collector) BuildDetail(ctx context.Context, ticker string) (model.Detail, error) {
	series, err := c.Series(ctx, ticker)
	if err != nil {
		return model.Detail{}, err
	}
	d, ok := calculator.Analyze(series.Bars)
	if !ok {
		return model.Detail{}, fmt.Errorf("%s: %w", ticker, ErrInsufficientHistory)
	}
	d.Ticker = ticker
	d.DisplayName = c.DisplayName(ticker)
	return d, nil
}

// Failed filters the results that did not make it into the snapshot.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
