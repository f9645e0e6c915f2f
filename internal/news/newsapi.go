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

const (
	newsAPIBase    = "https://newsapi.org"
	newsAPIQuery   = `("S&P 500" OR "Nasdaq" OR "Dow Jones" OR "Federal Reserve" OR "Fed rate" OR FOMC OR Bitcoin OR Ethereum OR "gold price" OR "oil price" OR "USD index")`
	newsAPIDomains = "bloomberg.com,reuters.com,cnbc.com,wsj.com,ft.com,marketwatch.com,investing.com"
)

// NewsAPI queries newsapi.org/v2/everything restricted to major outlets.
type NewsAPI struct {
	client *resty.Client
	apiKey string
	now    func() time.Time
}

func NewNewsAPI(apiKey string, opts ClientOptions) *NewsAPI {
	return &NewsAPI{client: newClient(opts, newsAPIBase, 15*time.Second), apiKey: apiKey, now: time.Now}
}

func (n *NewsAPI) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func (n *NewsAPI) Fetch(ctx context.Context, q Query) ([]model.NewsItem, error) {
	from := n.now().UTC().Add(-time.Duration(q.HoursBack) * time.Hour)
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        newsAPIQuery,
			"from":     from.Format("2006-01-02"),
			"sortBy":   "publishedAt",
			"language": "en",
			"pageSize": strconv.Itoa(q.MaxItems * 2),
			"domains":  newsAPIDomains,
			"apiKey":   n.apiKey,
		}).
		Get("/v2/everything")
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("newsapi: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var data newsAPIResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("newsapi decode: %w", err)
	}
	if data.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", data.Code, data.Message)
	}

	items := make([]model.NewsItem, 0, q.MaxItems)
	for _, a := range data.Articles {
		if a.Title == "[Removed]" {
			continue
		}
		items = append(items, model.NewsItem{
			Time:      a.PublishedAt.UTC(),
			Title:     a.Title,
			Source:    a.Source.Name,
			URL:       a.URL,
			Asset:     ExtractAsset(a.Title + " " + a.Description),
			Impact:    EstimateImpact(a.Title),
			Sentiment: AnalyzeSentiment(a.Title),
			Provider:  n.Name(),
		})
		if len(items) >= q.MaxItems {
			break
		}
	}
	return items, nil
}
