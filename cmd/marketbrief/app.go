package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/calendar"
	"MarketBrief/internal/collector"
	"MarketBrief/internal/config"
	"MarketBrief/internal/logger"
	"MarketBrief/internal/narrator"
	"MarketBrief/internal/news"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/report"
	"MarketBrief/internal/session"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	clock    *session.Clock
	store    *cache.Store
	builder  *report.Builder
	recorder recorder.Recorder
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return nil, err
	}

	clock, err := session.NewClock(cfg.Sessions)
	if err != nil {
		return nil, err
	}
	store := cache.NewStore(clock, log.Named("cache"))

	var fetcher collector.Fetcher
	if cfg.Market.Source == "mock" {
		fetcher = &collector.MockFetcher{Price: 100}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Market.YahooBaseURL, cfg.Proxy, cfg.Market.Timeout)
	}
	col := collector.NewCollector(fetcher, store, collector.Options{
		Period:       cfg.Market.Period,
		Interval:     cfg.Market.Interval,
		DisplayNames: cfg.Market.DisplayNames,
	}, log.Named("collector"))
	log.Info("data source", zap.String("fetcher", fetcher.Name()), zap.Strings("universe", cfg.Market.Universe))

	opts := news.ClientOptions{Proxy: cfg.Proxy}
	var sources []news.Source
	if cfg.News.NewsAPIKey != "" {
		sources = append(sources, news.NewNewsAPI(cfg.News.NewsAPIKey, opts))
	}
	if cfg.News.AlphaVantageKey != "" {
		sources = append(sources, news.NewAlphaVantage(cfg.News.AlphaVantageKey, opts))
	}
	if cfg.News.FinnhubKey != "" {
		sources = append(sources, news.NewFinnhub(cfg.News.FinnhubKey, opts))
	}
	agg := news.NewAggregator(store,
		news.Query{HoursBack: cfg.News.HoursBack, MaxItems: cfg.News.MaxItems},
		log.Named("news"), sources...)
	if len(sources) == 0 {
		log.Warn("no news api keys configured, headlines disabled")
	} else {
		log.Info("news sources", zap.Strings("fallback_order", agg.Sources()))
	}

	cal := calendar.NewService(calendar.Static{}, store, log.Named("calendar"))

	var writer narrator.Writer
	if cfg.LLM.APIKey != "" {
		llm, err := narrator.NewLLM(ctx, narrator.LLMConfig{
			BaseURL:   cfg.LLM.BaseURL,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		})
		if err != nil {
			log.Warn("init llm failed, using rule-based commentary", zap.Error(err))
		} else {
			writer = llm
		}
	}
	narr := narrator.NewService(writer, store, log.Named("narrator"))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Named("recorder"))
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}

	return &app{
		cfg:      cfg,
		log:      log,
		clock:    clock,
		store:    store,
		builder:  report.NewBuilder(clock, col, agg, cal, narr, cfg.Market.Universe, log.Named("report")).WithRecorder(rec),
		recorder: rec,
	}, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		a.log.Warn("close recorder", zap.Error(err))
	}
	_ = a.log.Sync()
}
