package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/collector"
	"MarketBrief/internal/model"
	"MarketBrief/internal/notifier"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/report"
	"MarketBrief/internal/session"
)

// Sender delivers briefing messages. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Warm-up triggers.
const (
	TriggerOpen     = "open"
	TriggerMidnight = "midnight"
	TriggerManual   = "manual"
)

// Scheduler warms the shared cache at every session boundary and answers
// chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Clock    *session.Clock
	Builder  *report.Builder
	Store    *cache.Store
	Notifier Sender // nil disables briefings
	Recorder recorder.Recorder
	Briefing bool
	Ctx      context.Context

	log *zap.Logger
	mu  sync.Mutex // serializes warm-ups
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, clock *session.Clock, b *report.Builder, store *cache.Store,
	n Sender, rec recorder.Recorder, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Clock:    clock,
		Builder:  b,
		Store:    store,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		log:      log,
	}
}

// OpenSpec is the cron expression that fires a few seconds after a session
// opens, evaluated in the session's own timezone.
func OpenSpec(s session.Session) string {
	return fmt.Sprintf("CRON_TZ=%s 5 %d %d * * MON-FRI", s.Location.String(), s.Open.Minute, s.Open.Hour)
}

// MidnightSpec fires just after the Off-Market key rolls over.
const MidnightSpec = "CRON_TZ=UTC 5 0 0 * * *"

// RegisterAll registers one warm-up per session open plus the UTC midnight job.
func (s *Scheduler) RegisterAll() error {
	for _, sess := range s.Clock.Sessions() {
		name := sess.Name
		if _, err := s.Cron.AddFunc(OpenSpec(sess), func() {
			s.log.Info("session opened", zap.String("session", name))
			s.Warm(s.Ctx, TriggerOpen)
		}); err != nil {
			return fmt.Errorf("register %s open: %w", name, err)
		}
	}
	if _, err := s.Cron.AddFunc(MidnightSpec, func() {
		if s.Clock.Current().Open() {
			return
		}
		s.Warm(s.Ctx, TriggerMidnight)
	}); err != nil {
		return fmt.Errorf("register midnight task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// WarmResult summarizes one warm-up.
type WarmResult struct {
	Session  session.State
	Results  []collector.Result
	News     int
	Calendar int
	Took     time.Duration
}

// Warm fills the market data, news and calendar entries of the current
// session in parallel and optionally sends a briefing. The builder archives
// the snapshot.
func (s *Scheduler) Warm(ctx context.Context, trigger string) WarmResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	res := WarmResult{Session: s.Clock.Current()}
	log := s.log.With(zap.String("session", res.Session.Name), zap.String("trigger", trigger))

	var (
		snap   model.MarketSnapshot
		items  []model.NewsItem
		events []model.CalendarItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, res.Results = s.Builder.Snapshot(gctx)
		return nil
	})
	g.Go(func() error {
		items = s.Builder.News(gctx)
		return nil
	})
	g.Go(func() error {
		events = s.Builder.Calendar(gctx)
		return nil
	})
	_ = g.Wait()
	res.News = len(items)
	res.Calendar = len(events)
	res.Took = time.Since(started)

	failed := len(collector.Failed(res.Results))
	log.Info("cache warmed",
		zap.Int("tickers_ok", len(res.Results)-failed), zap.Int("tickers_failed", failed),
		zap.Int("news", res.News), zap.Int("calendar", res.Calendar), zap.Duration("took", res.Took))

	if err := s.Recorder.RecordWarmup(ctx, &recorder.WarmupEvent{
		Session:     res.Session.Name,
		Trigger:     trigger,
		TickersOK:   len(res.Results) - failed,
		TickersFail: failed,
		NewsOK:      res.News > 0,
		CalendarOK:  res.Calendar > 0,
		Took:        res.Took,
	}); err != nil {
		log.Error("record warmup", zap.Error(err))
	}

	if s.Briefing && trigger == TriggerOpen && s.Notifier != nil {
		s.trySend(ctx, notifier.FormatBriefing(s.Builder.Compose(ctx, snap, res.Results, items, events)))
	}
	return res
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	// Telegram appends the bot name in groups: /snapshot@MarketBriefBot
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch cmd {
	case "/snapshot", "/brief":
		return notifier.FormatBriefing(s.Builder.Build(ctx))
	case "/session":
		now := s.Clock.Now()
		st := s.Store.Stats()
		return notifier.FormatSession(s.Clock.At(now), s.Clock.Badges(now), s.Store.Keys()) +
			fmt.Sprintf("\nHits %d | Misses %d | Fetches %d | Errors %d\n", st.Hits, st.Misses, st.Fetches, st.Errors)
	case "/news":
		return notifier.FormatNews(s.Builder.News(ctx))
	case "/detail":
		if len(fields) < 2 {
			return "Usage: /detail TICKER"
		}
		d, err := s.Builder.Detail(ctx, fields[1])
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", fields[1], err)
		}
		return notifier.FormatDetail(d)
	case "/refresh":
		s.Store.Clear()
		res := s.Warm(ctx, TriggerManual)
		return fmt.Sprintf("🔄 Cache refreshed for %s: %d/%d tickers, %d headlines",
			res.Session.Name, len(res.Results)-len(collector.Failed(res.Results)), len(res.Results), res.News)
	default:
		return "Commands:\n• /snapshot\n• /session\n• /news\n• /detail TICKER\n• /refresh"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.log.Error("send notification", zap.Error(err))
	}
}
