package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/model"
)

type fixedKeys string

func (k fixedKeys) CurrentKey(category string) string { return category + "_" + string(k) }

func dailyBars(closes ...float64) []model.OHLCV {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func newTestCollector(f Fetcher) (*Collector, *cache.Store) {
	store := cache.NewStore(fixedKeys("2025-11-19_Asia"), nil)
	c := NewCollector(f, store, Options{DisplayNames: map[string]string{"DX-Y.NYB": "DXY"}}, nil)
	return c, store
}

func TestBuildSnapshot_ScenarioValues(t *testing.T) {
	f := &MockFetcher{Bars: map[string][]model.OHLCV{
		"^GSPC": dailyBars(100, 102, 101, 105, 98),
	}}
	c, _ := newTestCollector(f)

	snap, results := c.BuildSnapshot(context.Background(), []string{"^GSPC"})
	stat, ok := snap["^GSPC"]
	if !ok {
		t.Fatalf("expected ^GSPC in snapshot, results=%+v", results)
	}
	if stat.Last != 98 {
		t.Errorf("last: got %v", stat.Last)
	}
	if math.Abs(stat.WTD.Float64-(-2.0)) > 1e-9 {
		t.Errorf("wtd: got %v", stat.WTD.Float64)
	}
	if stat.ZScore.Valid {
		t.Error("zscore should be undefined with five bars")
	}
}

func TestBuildSnapshot_OmitsFailuresAndShortSeries(t *testing.T) {
	f := &MockFetcher{
		Bars: map[string][]model.OHLCV{
			"^VIX": dailyBars(18),
			"GC=F": {},
		},
		Errs: map[string]error{"^TNX": errors.New("timeout")},
	}
	c, store := newTestCollector(f)

	snap, results := c.BuildSnapshot(context.Background(), []string{"^GSPC", "^VIX", "^TNX", "GC=F"})
	if len(snap) != 1 {
		t.Fatalf("expected only ^GSPC, got %v", snap)
	}
	failed := Failed(results)
	if len(failed) != 3 {
		t.Fatalf("expected 3 failures, got %+v", failed)
	}
	for _, r := range failed {
		if _, ok := snap[r.Name]; ok {
			t.Errorf("%s should be absent", r.Ticker)
		}
	}
	if !errors.Is(failed[0].Err, ErrInsufficientHistory) {
		t.Errorf("^VIX: expected ErrInsufficientHistory, got %v", failed[0].Err)
	}
	if !errors.Is(failed[2].Err, ErrNoData) {
		t.Errorf("GC=F: expected ErrNoData, got %v", failed[2].Err)
	}

	// Only the two series that came back non-empty are cached.
	if n := len(store.Keys()); n != 2 {
		t.Errorf("expected 2 cached series, got %v", store.Keys())
	}
}

func TestBuildSnapshot_DisplayNameOnlyOnKeys(t *testing.T) {
	f := &MockFetcher{Price: 104}
	c, _ := newTestCollector(f)

	snap, results := c.BuildSnapshot(context.Background(), []string{"DX-Y.NYB"})
	if _, ok := snap["DXY"]; !ok {
		t.Fatalf("expected DXY key, got %v", snap)
	}
	if _, ok := snap["DX-Y.NYB"]; ok {
		t.Error("raw ticker must not appear as a key")
	}
	if results[0].Ticker != "DX-Y.NYB" || results[0].Name != "DXY" {
		t.Errorf("unexpected result %+v", results[0])
	}
	if f.Calls("DX-Y.NYB") != 1 {
		t.Error("fetcher should receive the raw ticker")
	}
}

func TestBuildSnapshot_FetchesOncePerSession(t *testing.T) {
	f := &MockFetcher{Price: 5000}
	c, _ := newTestCollector(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.BuildSnapshot(ctx, []string{"^GSPC", "^NDX"})
	}
	if _, err := c.BuildDetail(ctx, "^GSPC"); err != nil {
		t.Fatal(err)
	}
	if f.Calls("^GSPC") != 1 || f.Calls("^NDX") != 1 {
		t.Errorf("expected one upstream call per ticker, got %d and %d", f.Calls("^GSPC"), f.Calls("^NDX"))
	}
}

func TestBuildSnapshot_FailedTickerRetried(t *testing.T) {
	f := &MockFetcher{Price: 30, Errs: map[string]error{"CL=F": errors.New("boom")}}
	c, _ := newTestCollector(f)
	ctx := context.Background()

	c.BuildSnapshot(ctx, []string{"CL=F"})
	delete(f.Errs, "CL=F")
	snap, _ := c.BuildSnapshot(ctx, []string{"CL=F"})
	if _, ok := snap["CL=F"]; !ok {
		t.Error("expected recovery on the next call")
	}
	if f.Calls("CL=F") != 2 {
		t.Errorf("expected 2 calls, got %d", f.Calls("CL=F"))
	}
}

func TestBuildDetail(t *testing.T) {
	f := &MockFetcher{Price: 2000, Count: 120}
	c, _ := newTestCollector(f)

	d, err := c.BuildDetail(context.Background(), "GC=F")
	if err != nil {
		t.Fatal(err)
	}
	if d.Ticker != "GC=F" || d.DisplayName != "GC=F" {
		t.Errorf("unexpected identity %+v", d)
	}
	s := d.Stat
	if !s.ATR14.Valid || !s.MA20.Valid || !s.MA50.Valid || !s.AboveMA20.Valid {
		t.Errorf("expected detail fields, got %+v", s)
	}
	if !(d.Levels.S2.Float64 < d.Levels.S1.Float64 && d.Levels.S1.Float64 < s.Last &&
		s.Last < d.Levels.R1.Float64 && d.Levels.R1.Float64 < d.Levels.R2.Float64) {
		t.Errorf("levels out of order: %+v around %v", d.Levels, s.Last)
	}

	f.Bars = map[string][]model.OHLCV{"ONE": dailyBars(5)}
	if _, err := c.BuildDetail(context.Background(), "ONE"); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestSeries_SharedBarsLeftIntact(t *testing.T) {
	bars := dailyBars(ramp(60)...)
	f := &MockFetcher{Bars: map[string][]model.OHLCV{"DX-Y.NYB": bars}}
	c, _ := newTestCollector(f)
	ctx := context.Background()

	before, err := c.Series(ctx, "DX-Y.NYB")
	if err != nil {
		t.Fatal(err)
	}
	want := append([]model.OHLCV(nil), before.Bars...)

	_, results := c.BuildSnapshot(ctx, []string{"DX-Y.NYB"})
	if len(results) != 1 || results[0].Key != "ohlc:DX-Y.NYB:6mo:1d_2025-11-19_Asia" {
		t.Errorf("unexpected results %+v", results)
	}
	if _, err := c.BuildDetail(ctx, "DX-Y.NYB"); err != nil {
		t.Fatal(err)
	}

	after, _ := c.Series(ctx, "DX-Y.NYB")
	if len(after.Bars) != len(want) {
		t.Fatalf("bar count changed: %d -> %d", len(want), len(after.Bars))
	}
	for i := range want {
		if after.Bars[i] != want[i] {
			t.Fatalf("bar %d changed: %+v -> %+v", i, want[i], after.Bars[i])
		}
	}
	if f.Calls("DX-Y.NYB") != 1 {
		t.Errorf("expected one upstream call, got %d", f.Calls("DX-Y.NYB"))
	}
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}
