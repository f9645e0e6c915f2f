package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/calendar"
	"MarketBrief/internal/collector"
	"MarketBrief/internal/model"
	"MarketBrief/internal/narrator"
	"MarketBrief/internal/session"
)

func TestHighlights(t *testing.T) {
	snap := model.MarketSnapshot{
		"^GSPC": {Last: 5900.123, D1: null.FloatFrom(-1.5), ZScore: null.FloatFrom(-2.1)},
		"^VIX":  {Last: 23.4, D1: null.FloatFrom(12)},
		"DXY":   {Last: 104.2, D1: null.FloatFrom(0.1)},
		"GC=F":  {Last: 2650, D1: null.FloatFrom(0.4)},
	}
	got := Highlights(snap)
	want := []string{
		"(Fact) S&P 500: 5900.12 (-1.50%, z-score: -2.10)",
		"(Interpretation) SPX sharply lower, sentiment is volatile",
		"(Fact) VIX: 23.40 (+12.00%)",
		"(Interpretation) VIX above 20 signals rising market stress",
		"(Fact) DXY: 104.20 (+0.10%)",
		"(Fact) Gold: $2650.00 (+0.40%)",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}

	calm := Highlights(model.MarketSnapshot{"^GSPC": {Last: 5900, D1: null.FloatFrom(0.3)}})
	if len(calm) != 1 || !strings.Contains(calm[0], "z-score: n/a") {
		t.Errorf("unexpected calm highlights %v", calm)
	}
	if got := Highlights(nil); len(got) != 1 || got[0] != NoHighlights {
		t.Errorf("expected placeholder, got %v", got)
	}
}

func TestRiskSentiment(t *testing.T) {
	rs := RiskSentiment(model.MarketSnapshot{
		"^VIX": {Last: 18}, "^TNX": {Last: 4.3}, "^GSPC": {Last: 5900},
	})
	if len(rs) != 2 || rs["vix"] != 18 || rs["us10y"] != 4.3 {
		t.Errorf("unexpected %v", rs)
	}
	if _, ok := rs["dxy"]; ok {
		t.Error("dxy should be absent")
	}
}

func TestCrossAssetRows_Order(t *testing.T) {
	snap := model.MarketSnapshot{
		"BTC-USD": {Last: 90000},
		"^GSPC":   {Last: 5900, D1: null.FloatFrom(0.5)},
		"DXY":     {Last: 104},
		"EXTRA":   {Last: 1},
	}
	rows := CrossAssetRows(snap, []string{"^GSPC", "DXY", "^VIX", "BTC-USD"})
	var names []string
	for _, r := range rows {
		names = append(names, r.Asset)
	}
	if got := strings.Join(names, ","); got != "^GSPC,DXY,BTC-USD,EXTRA" {
		t.Errorf("unexpected order %s", got)
	}
	if rows[0].D1 != "0.50" || rows[0].WTD != "n/a" {
		t.Errorf("unexpected formatting %+v", rows[0])
	}
}

type stubNews struct {
	items []model.NewsItem
	err   error
}

func (s stubNews) Latest(context.Context) ([]model.NewsItem, error) { return s.items, s.err }

func TestBuilder_Build(t *testing.T) {
	now := time.Date(2025, 11, 19, 15, 0, 0, 0, time.UTC) // 10:00 New York
	clock, err := session.NewClock([]session.Definition{
		{Name: "Asia", Timezone: "Asia/Singapore", Open: "09:00", Close: "16:30"},
		{Name: "US", Timezone: "America/New_York", Open: "09:30", Close: "16:00"},
	}, session.WithNow(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	store := cache.NewStore(clock, nil)
	fetcher := &collector.MockFetcher{Price: 100, Errs: map[string]error{"^VIX": errors.New("down")}}
	col := collector.NewCollector(fetcher, store, collector.Options{DisplayNames: map[string]string{"DX-Y.NYB": "DXY"}}, nil)
	universe := []string{"^GSPC", "DX-Y.NYB", "^VIX"}

	b := NewBuilder(clock, col,
		stubNews{err: errors.New("no keys")},
		calendar.NewService(calendar.Static{}, store, nil),
		narrator.NewService(nil, store, nil),
		universe, nil)

	ov := b.Build(context.Background())
	if ov.Session != "US" || ov.Date != "2025-11-19" {
		t.Errorf("unexpected session/date %s %s", ov.Session, ov.Date)
	}
	if len(ov.Rows) != 2 || ov.Rows[0].Asset != "^GSPC" || ov.Rows[1].Asset != "DXY" {
		t.Errorf("unexpected rows %+v", ov.Rows)
	}
	if len(ov.Failed) != 1 || ov.Failed[0] != "^VIX" {
		t.Errorf("unexpected failed list %v", ov.Failed)
	}
	if len(ov.Calendar) != 3 {
		t.Errorf("expected default calendar, got %d events", len(ov.Calendar))
	}
	if len(ov.News) != 0 {
		t.Errorf("expected no news, got %d", len(ov.News))
	}
	if ov.Commentary == "" {
		t.Error("expected fallback commentary")
	}
	if _, ok := ov.RiskSentiment["dxy"]; !ok {
		t.Errorf("expected dxy in risk sentiment %v", ov.RiskSentiment)
	}
	if len(ov.Badges) != 2 {
		t.Errorf("expected 2 badges, got %d", len(ov.Badges))
	}

	b.Build(context.Background())
	if fetcher.Calls("^GSPC") != 1 {
		t.Errorf("expected cached series on rebuild, got %d calls", fetcher.Calls("^GSPC"))
	}
	if fetcher.Calls("^VIX") != 2 {
		t.Errorf("failed ticker should be retried, got %d calls", fetcher.Calls("^VIX"))
	}
}
