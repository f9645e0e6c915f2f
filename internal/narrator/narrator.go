// Package narrator writes the market commentary paragraph of the briefing.
package narrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/model"
	"MarketBrief/internal/session"
)

// Input is the market context handed to a Writer.
type Input struct {
	Snapshot  model.MarketSnapshot
	News      []model.NewsItem
	Calendar  []model.CalendarItem
	VIX       null.Float
	SPXChange null.Float
	DXY       null.Float
}

// Writer produces an overview commentary.
type Writer interface {
	Overview(ctx context.Context, in Input) (string, error)
}

// Service shares one commentary per session. When the primary writer fails
// the fallback text is returned and nothing is cached, so the next call
// retries the primary.
type Service struct {
	primary  Writer
	fallback Writer
	store    *cache.Store
	log      *zap.Logger
}

// NewService builds a Service. primary may be nil, in which case the
// fallback is always used.
func NewService(primary Writer, store *cache.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{primary: primary, fallback: Fallback{}, store: store, log: log}
}

func (s *Service) Overview(ctx context.Context, in Input) string {
	if s.primary == nil {
		text, _ := s.fallback.Overview(ctx, in)
		return text
	}
	text, err := cache.GetOrFetch[string](ctx, s.store, session.CategoryAnalysis,
		cache.FetchFunc[string](func(ctx context.Context) (string, error) {
			return s.primary.Overview(ctx, in)
		}))
	if err != nil {
		s.log.Warn("narrative writer failed, using fallback", zap.Error(err))
		text, _ = s.fallback.Overview(ctx, in)
	}
	return text
}

// Context renders the market data block of the prompt.
func Context(in Input) string {
	var b strings.Builder
	b.WriteString("=== MARKET DATA ===\n")
	if len(in.Snapshot) > 0 {
		names := make([]string, 0, len(in.Snapshot))
		for name := range in.Snapshot {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			st := in.Snapshot[name]
			fmt.Fprintf(&b, "- %s: %.2f (%s D1)\n", name, st.Last, signedPct(st.D1))
		}
	}
	if len(in.News) > 0 {
		b.WriteString("\nLatest headlines:\n")
		for i, n := range in.News {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n   Sentiment: %s | Impact: %s | Asset: %s\n", i+1, n.Title, n.Sentiment, n.Impact, n.Asset)
		}
	}
	if len(in.Calendar) > 0 {
		b.WriteString("\nEconomic calendar:\n")
		for i, e := range in.Calendar {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s (%s) - Impact: %s\n", e.Event, e.Region, e.Impact)
		}
	}
	return b.String()
}

func signedPct(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v.Float64)
}
