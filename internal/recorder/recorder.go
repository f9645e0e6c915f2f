package recorder

import (
	"context"
	"time"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// SnapshotRecord is one built snapshot with the session it belongs to.
// Keys maps each asset, including failed ones, to the cache key of its series.
type SnapshotRecord struct {
	Session  string
	TakenAt  time.Time
	Snapshot model.MarketSnapshot
	Keys     map[string]string
	Failed   []string
}

// WarmupEvent records one scheduled cache warm-up.
type WarmupEvent struct {
	Session     string
	Trigger     string // "open", "midnight", "manual"
	TickersOK   int
	TickersFail int
	NewsOK      bool
	CalendarOK  bool
	Took        time.Duration
}

// SnapshotRow is one archived asset line.
type SnapshotRow struct {
	TakenAt  time.Time
	Session  string
	CacheKey string
	Asset    string
	Last     float64
	D1       null.Float
	WTD      null.Float
	MTD      null.Float
	ZScore   null.Float
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSnapshot(ctx context.Context, rec *SnapshotRecord) error
	RecordWarmup(ctx context.Context, evt *WarmupEvent) error
	History(ctx context.Context, asset string, limit int) ([]SnapshotRow, error)
	Close() error
}
