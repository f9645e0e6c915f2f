package news

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"MarketBrief/internal/model"
)

const finnhubBase = "https://finnhub.io/api/v1"

// Finnhub reads the general market news feed.
type Finnhub struct {
	client *resty.Client
	apiKey string
	now    func() time.Time
}

func NewFinnhub(apiKey string, opts ClientOptions) *Finnhub {
	return &Finnhub{client: newClient(opts, finnhubBase, 10*time.Second), apiKey: apiKey, now: time.Now}
}

func (f *Finnhub) Name() string { return "finnhub" }

type finnhubNews struct {
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
}

func (f *Finnhub) Fetch(ctx context.Context, q Query) ([]model.NewsItem, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"category": "general",
			"minId":    "0",
			"token":    f.apiKey,
		}).
		Get("/news")
	if err != nil {
		return nil, fmt.Errorf("finnhub request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("finnhub: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var data []finnhubNews
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("finnhub decode: %w", err)
	}

	cutoff := f.now().Add(-time.Duration(q.HoursBack) * time.Hour).Unix()
	items := make([]model.NewsItem, 0, q.MaxItems)
	for _, n := range data {
		if n.DateTime < cutoff {
			continue
		}
		items = append(items, model.NewsItem{
			Time:      time.Unix(n.DateTime, 0).UTC(),
			Title:     n.Headline,
			Source:    n.Source,
			URL:       n.URL,
			Asset:     ExtractAsset(n.Headline),
			Impact:    ImpactMedium,
			Sentiment: AnalyzeSentiment(n.Headline),
			Provider:  f.Name(),
		})
		if len(items) >= q.MaxItems {
			break
		}
	}
	return items, nil
}
