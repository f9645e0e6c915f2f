package news

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"MarketBrief/internal/model"
)

const alphaVantageBase = "https://www.alphavantage.co"

// AlphaVantage uses the NEWS_SENTIMENT function, whose scores replace the
// keyword sentiment.
type AlphaVantage struct {
	client *resty.Client
	apiKey string
}

func NewAlphaVantage(apiKey string, opts ClientOptions) *AlphaVantage {
	return &AlphaVantage{client: newClient(opts, alphaVantageBase, 10*time.Second), apiKey: apiKey}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

type alphaVantageFeed struct {
	Information string `json:"Information"`
	Feed        []struct {
		Title                 string `json:"title"`
		URL                   string `json:"url"`
		TimePublished         string `json:"time_published"`
		Source                string `json:"source"`
		OverallSentimentScore any    `json:"overall_sentiment_score"`
		TickerSentiment       []struct {
			Ticker         string `json:"ticker"`
			RelevanceScore string `json:"relevance_score"`
		} `json:"ticker_sentiment"`
	} `json:"feed"`
}

func (a *AlphaVantage) Fetch(ctx context.Context, q Query) ([]model.NewsItem, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "NEWS_SENTIMENT",
			"topics":   "technology,finance,economy",
			"limit":    strconv.Itoa(q.MaxItems),
			"apikey":   a.apiKey,
		}).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alphavantage request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var data alphaVantageFeed
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	if len(data.Feed) == 0 && data.Information != "" {
		return nil, fmt.Errorf("alphavantage: %s", data.Information)
	}

	items := make([]model.NewsItem, 0, len(data.Feed))
	for _, f := range data.Feed {
		published, _ := time.Parse("20060102T150405", f.TimePublished)

		asset, best := AssetMarket, -1.0
		for _, ts := range f.TickerSentiment {
			if r, err := strconv.ParseFloat(ts.RelevanceScore, 64); err == nil && r > best {
				asset, best = ts.Ticker, r
			}
		}

		items = append(items, model.NewsItem{
			Time:      published.UTC(),
			Title:     f.Title,
			Source:    f.Source,
			URL:       f.URL,
			Asset:     asset,
			Impact:    ImpactMedium,
			Sentiment: SentimentFromScore(score(f.OverallSentimentScore)),
			Provider:  a.Name(),
		})
		if len(items) >= q.MaxItems {
			break
		}
	}
	return items, nil
}

// score accepts the sentiment score as either a JSON number or a string.
func score(v any) float64 {
	switch s := v.(type) {
	case float64:
		return s
	case string:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	default:
		return 0
	}
}
