package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// NewsItem is a normalized headline from any news source.
type NewsItem struct {
	Time      time.Time `json:"time"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Asset     string    `json:"asset"`
	Impact    string    `json:"impact"`    // High, Medium, Low
	Sentiment string    `json:"sentiment"` // Positive, Negative, Neutral
	Provider  string    `json:"provider"`
}

// CalendarItem is one economic calendar event.
type CalendarItem struct {
	TimeLocal string     `json:"time_local"`
	Region    string     `json:"region"`
	Event     string     `json:"event"`
	Consensus null.Float `json:"consensus"`
	Prior     null.Float `json:"prior"`
	Actual    null.Float `json:"actual"`
	Impact    string     `json:"impact,omitempty"`
	SourceURL string     `json:"source_url,omitempty"`
}
