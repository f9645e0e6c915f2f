package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "brief.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLite_SnapshotRoundTrip(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()
	first := time.Date(2025, 11, 19, 1, 0, 0, 0, time.UTC)

	err := r.RecordSnapshot(ctx, &SnapshotRecord{
		Session: "Asia",
		TakenAt: first,
		Snapshot: model.MarketSnapshot{
			"^GSPC": {Last: 5900, D1: null.FloatFrom(0.5), WTD: null.FloatFrom(-1)},
			"DXY":   {Last: 104},
		},
		Keys: map[string]string{
			"^GSPC":   "ohlc:^GSPC:6mo:1d_2025-11-19_Asia",
			"DXY":     "ohlc:DX-Y.NYB:6mo:1d_2025-11-19_Asia",
			"BTC-USD": "ohlc:BTC-USD:6mo:1d_2025-11-19_Asia",
		},
		Failed: []string{"BTC-USD"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = r.RecordSnapshot(ctx, &SnapshotRecord{
		Session:  "US",
		TakenAt:  first.Add(13 * time.Hour),
		Snapshot: model.MarketSnapshot{"^GSPC": {Last: 5950}},
		Keys:     map[string]string{"^GSPC": "ohlc:^GSPC:6mo:1d_2025-11-19_US"},
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := r.History(ctx, "^GSPC", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Session != "US" || rows[0].CacheKey != "ohlc:^GSPC:6mo:1d_2025-11-19_US" ||
		rows[0].Last != 5950 || rows[0].D1.Valid {
		t.Errorf("unexpected newest row %+v", rows[0])
	}
	old := rows[1]
	if !old.TakenAt.Equal(first) || old.D1.Float64 != 0.5 || old.WTD.Float64 != -1 || old.ZScore.Valid {
		t.Errorf("unexpected oldest row %+v", old)
	}

	var failedKey string
	if err := r.db.QueryRow(`SELECT cache_key FROM snapshot_failures WHERE asset = 'BTC-USD'`).Scan(&failedKey); err != nil {
		t.Fatal(err)
	}
	if failedKey != "ohlc:BTC-USD:6mo:1d_2025-11-19_Asia" {
		t.Errorf("unexpected failure key %q", failedKey)
	}

	dxy, _ := r.History(ctx, "DXY", 10)
	if len(dxy) != 1 || dxy[0].MTD.Valid {
		t.Errorf("undefined stats must round-trip as NULL, got %+v", dxy)
	}
}

func TestSQLite_RecordWarmup(t *testing.T) {
	r := openTemp(t)
	err := r.RecordWarmup(context.Background(), &WarmupEvent{
		Session: "Europe", Trigger: "open", TickersOK: 8, TickersFail: 1, NewsOK: true, Took: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	var n, took int
	if err := r.db.QueryRow(`SELECT COUNT(*), MAX(took_ms) FROM warmups`).Scan(&n, &took); err != nil {
		t.Fatal(err)
	}
	if n != 1 || took != 1500 {
		t.Errorf("got count=%d took=%d", n, took)
	}
}

func TestNoop(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordSnapshot(context.Background(), &SnapshotRecord{}); err != nil {
		t.Error(err)
	}
	if rows, err := r.History(context.Background(), "^GSPC", 5); err != nil || rows != nil {
		t.Errorf("got %v %v", rows, err)
	}
}
