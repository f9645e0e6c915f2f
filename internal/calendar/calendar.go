// Package calendar serves the economic calendar shown in the briefing.
package calendar

import (
	"context"
	"errors"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/model"
	"MarketBrief/internal/session"
)

// ErrEmpty is returned when a source yields no events.
var ErrEmpty = errors.New("calendar source returned no events")

// Source lists upcoming economic events.
type Source interface {
	Events(ctx context.Context) ([]model.CalendarItem, error)
}

// Static serves a fixed list of events, either configured or the defaults.
type Static struct {
	Items []model.CalendarItem
}

// Events returns a copy of the configured items, or DefaultEvents when none
// are configured.
func (s Static) Events(context.Context) ([]model.CalendarItem, error) {
	src := s.Items
	if len(src) == 0 {
		src = DefaultEvents()
	}
	out := make([]model.CalendarItem, len(src))
	copy(out, src)
	return out, nil
}

// DefaultEvents is the placeholder calendar used when no feed is configured.
func DefaultEvents() []model.CalendarItem {
	return []model.CalendarItem{
		{
			TimeLocal: "20:30",
			Region:    "US",
			Event:     "CPI (YoY)",
			Consensus: null.FloatFrom(3.2),
			Prior:     null.FloatFrom(3.4),
			Impact:    "High",
			SourceURL: "https://www.bls.gov/",
		},
		{
			TimeLocal: "14:00",
			Region:    "US",
			Event:     "FOMC Minutes",
			Impact:    "High",
			SourceURL: "https://www.federalreserve.gov/",
		},
		{
			TimeLocal: "15:30",
			Region:    "EU",
			Event:     "ECB Speech",
			Impact:    "Medium",
			SourceURL: "https://www.ecb.europa.eu/",
		},
	}
}

// Service shares a source's events for the rest of the session.
type Service struct {
	src   Source
	store *cache.Store
	log   *zap.Logger
}

func NewService(src Source, store *cache.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{src: src, store: store, log: log}
}

// Events returns the session's calendar.
func (s *Service) Events(ctx context.Context) ([]model.CalendarItem, error) {
	return cache.GetOrFetch[[]model.CalendarItem](ctx, s.store, session.CategoryCalendar,
		cache.FetchFunc[[]model.CalendarItem](func(ctx context.Context) ([]model.CalendarItem, error) {
			items, err := s.src.Events(ctx)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, ErrEmpty
			}
			s.log.Info("calendar loaded", zap.Int("events", len(items)))
			return items, nil
		}))
}

// HighImpact filters events rated High.
func HighImpact(items []model.CalendarItem) []model.CalendarItem {
	var out []model.CalendarItem
	for _, it := range items {
		if it.Impact == "High" {
			out = append(out, it)
		}
	}
	return out
}
