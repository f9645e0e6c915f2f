package news

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/model"
	"MarketBrief/internal/session"
)

// ErrNoNews is returned when every source failed or came back empty.
var ErrNoNews = errors.New("all news sources failed")

// DefaultQuery matches the dashboard: 48 hours, ten headlines.
var DefaultQuery = Query{HoursBack: 48, MaxItems: 10}

// Aggregator tries its sources in order and keeps the first non-empty
// answer for the rest of the session.
type Aggregator struct {
	sources []Source
	store   *cache.Store
	query   Query
	log     *zap.Logger
}

func NewAggregator(store *cache.Store, q Query, log *zap.Logger, sources ...Source) *Aggregator {
	if q.MaxItems <= 0 {
		q.MaxItems = DefaultQuery.MaxItems
	}
	if q.HoursBack <= 0 {
		q.HoursBack = DefaultQuery.HoursBack
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{sources: sources, store: store, query: q, log: log}
}

// Sources lists the configured source names in fallback order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// Latest returns the session's headlines. When every source fails the
// result is empty with ErrNoNews and nothing is cached, so the next call
// tries again. The returned slice is shared and must be treated as read-only.
func (a *Aggregator) Latest(ctx context.Context) ([]model.NewsItem, error) {
	return cache.GetOrFetch[[]model.NewsItem](ctx, a.store, session.CategoryNews,
		cache.FetchFunc[[]model.NewsItem](a.fetch))
}

func (a *Aggregator) fetch(ctx context.Context) ([]model.NewsItem, error) {
	var errs []error
	for _, src := range a.sources {
		items, err := src.Fetch(ctx, a.query)
		if err != nil {
			a.log.Warn("news source failed", zap.String("source", src.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if len(items) == 0 {
			a.log.Warn("news source returned no items", zap.String("source", src.Name()))
			continue
		}
		a.log.Info("news fetched", zap.String("source", src.Name()), zap.Int("items", len(items)))
		return items, nil
	}
	if len(a.sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", ErrNoNews)
	}
	return nil, errors.Join(append([]error{ErrNoNews}, errs...)...)
}
