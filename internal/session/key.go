package session

import "time"

// Well-known cache categories.
const (
	CategoryMarketData = "market_data"
	CategoryNews       = "news"
	CategoryCalendar   = "calendar"
	CategoryAnalysis   = "ai_analysis"
)

// KeyFor formats the cache key of a category within a session state:
// category_YYYY-MM-DD_SessionName, the date being the session start in UTC.
func KeyFor(category string, st State) string {
	return category + "_" + st.Start.UTC().Format("2006-01-02") + "_" + st.Name
}

// Key returns the cache key of category at instant t. It is stable for the
// whole session and changes the moment a different session begins.
func (c *Clock) Key(category string, t time.Time) string {
	return KeyFor(category, c.At(t))
}

// CurrentKey returns the cache key of category for the current instant.
func (c *Clock) CurrentKey(category string) string {
	return c.Key(category, c.now())
}
