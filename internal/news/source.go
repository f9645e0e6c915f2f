// Package news pulls market headlines from NewsAPI, Alpha Vantage and
// Finnhub, falling back in that order, and shares the result per session.
package news

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"MarketBrief/internal/model"
)

// Query bounds a headline request.
type Query struct {
	HoursBack int
	MaxItems  int
}

// Source is one upstream news API.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]model.NewsItem, error)
}

// ClientOptions configures the HTTP client shared by the sources.
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Proxy   string
}

func newClient(opts ClientOptions, defaultBase string, defaultTimeout time.Duration) *resty.Client {
	base := opts.BaseURL
	if base == "" {
		base = defaultBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := resty.New()
	c.SetBaseURL(base)
	c.SetTimeout(timeout)
	if opts.Proxy != "" {
		c.SetProxy(opts.Proxy)
	}
	return c
}
