package report

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"MarketBrief/internal/collector"
	"MarketBrief/internal/model"
	"MarketBrief/internal/narrator"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/session"
)

// Overview is the first page of the briefing.
type Overview struct {
	Date          string               `json:"date"`
	Session       string               `json:"session"`
	SessionStart  time.Time            `json:"session_start"`
	Badges        []session.Badge      `json:"badges"`
	Highlights    []string             `json:"highlights"`
	RiskSentiment map[string]float64   `json:"risk_sentiment"`
	Snapshot      model.MarketSnapshot `json:"market_snapshot"`
	Rows          []Row                `json:"rows"`
	Failed        []string             `json:"failed,omitempty"`
	News          []model.NewsItem     `json:"news"`
	Calendar      []model.CalendarItem `json:"economic_calendar"`
	Commentary    string               `json:"commentary"`
	LastUpdated   time.Time            `json:"last_updated"`
}

// NewsProvider and CalendarProvider are satisfied by the news aggregator and
// calendar service.
type NewsProvider interface {
	Latest(ctx context.Context) ([]model.NewsItem, error)
}

type CalendarProvider interface {
	Events(ctx context.Context) ([]model.CalendarItem, error)
}

// Builder gathers every section of the overview.
type Builder struct {
	clock     *session.Clock
	collector *collector.Collector
	news      NewsProvider
	calendar  CalendarProvider
	narrator  *narrator.Service
	archive   recorder.Recorder
	universe  []string
	log       *zap.Logger
}

func NewBuilder(clock *session.Clock, c *collector.Collector, news NewsProvider, cal CalendarProvider,
	n *narrator.Service, universe []string, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		clock:     clock,
		collector: c,
		news:      news,
		calendar:  cal,
		narrator:  n,
		archive:   recorder.NewNoopRecorder(),
		universe:  append([]string(nil), universe...),
		log:       log,
	}
}

// WithRecorder archives every snapshot the builder produces to rec.
func (b *Builder) WithRecorder(rec recorder.Recorder) *Builder {
	if rec != nil {
		b.archive = rec
	}
	return b
}

// Snapshot builds the market snapshot and archives it.
func (b *Builder) Snapshot(ctx context.Context) (model.MarketSnapshot, []collector.Result) {
	st := b.clock.Current()
	snap, results := b.collector.BuildSnapshot(ctx, b.universe)
	if len(snap) == 0 {
		return snap, results
	}

	rec := &recorder.SnapshotRecord{
		Session:  st.Name,
		TakenAt:  b.clock.Now(),
		Snapshot: snap,
		Keys:     make(map[string]string, len(results)),
	}
	for _, r := range results {
		rec.Keys[r.Name] = r.Key
		if !r.OK() {
			rec.Failed = append(rec.Failed, r.Name)
		}
	}
	if err := b.archive.RecordSnapshot(ctx, rec); err != nil {
		b.log.Error("archive snapshot", zap.Error(err))
	}
	return snap, results
}

// Detail builds the per-asset view of one ticker.
func (b *Builder) Detail(ctx context.Context, ticker string) (model.Detail, error) {
	return b.collector.BuildDetail(ctx, ticker)
}

// News returns the session's headlines, empty when unavailable.
func (b *Builder) News(ctx context.Context) []model.NewsItem {
	items, err := b.news.Latest(ctx)
	if err != nil {
		b.log.Warn("news unavailable", zap.Error(err))
	}
	return items
}

// Calendar returns the session's calendar, empty when unavailable.
func (b *Builder) Calendar(ctx context.Context) []model.CalendarItem {
	events, err := b.calendar.Events(ctx)
	if err != nil {
		b.log.Warn("calendar unavailable", zap.Error(err))
	}
	return events
}

// Build assembles the overview. Missing sections degrade to empty values;
// the overview itself never fails.
func (b *Builder) Build(ctx context.Context) Overview {
	snap, results := b.Snapshot(ctx)
	return b.Compose(ctx, snap, results, b.News(ctx), b.Calendar(ctx))
}

// Compose assembles the overview from sections that were already gathered.
func (b *Builder) Compose(ctx context.Context, snap model.MarketSnapshot, results []collector.Result,
	items []model.NewsItem, events []model.CalendarItem) Overview {
	now := b.clock.Now()
	st := b.clock.At(now)

	var failed []string
	for _, r := range collector.Failed(results) {
		failed = append(failed, r.Name)
	}

	order := make([]string, len(b.universe))
	for i, t := range b.universe {
		order[i] = b.collector.DisplayName(t)
	}

	ov := Overview{
		Date:          now.Format("2006-01-02"),
		Session:       st.Name,
		SessionStart:  st.Start,
		Badges:        b.clock.Badges(now),
		Highlights:    Highlights(snap),
		RiskSentiment: RiskSentiment(snap),
		Snapshot:      snap,
		Rows:          CrossAssetRows(snap, order),
		Failed:        failed,
		News:          items,
		Calendar:      events,
		LastUpdated:   now,
	}
	ov.Commentary = b.narrator.Overview(ctx, narrator.Input{
		Snapshot:  snap,
		News:      items,
		Calendar:  events,
		VIX:       lastOf(snap, KeyVIX),
		SPXChange: d1Of(snap, KeySPX),
		DXY:       lastOf(snap, KeyDXY),
	})
	return ov
}

func lastOf(snap model.MarketSnapshot, key string) null.Float {
	if s, ok := snap[key]; ok {
		return null.FloatFrom(s.Last)
	}
	return null.Float{}
}

func d1Of(snap model.MarketSnapshot, key string) null.Float {
	if s, ok := snap[key]; ok {
		return s.D1
	}
	return null.Float{}
}
