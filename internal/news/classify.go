package news

import "strings"

// Labels used on NewsItem.
const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"

	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"

	AssetMarket = "Market"
)

// Alpha Vantage overall_sentiment_score cut-offs.
const sentimentThreshold = 0.15

type assetRule struct {
	asset    string
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var assetRules = []assetRule{
	{"S&P 500", []string{"s&p 500", "s&p500", "spx"}},
	{"NASDAQ", []string{"nasdaq", "qqq"}},
	{"BTC", []string{"bitcoin", "btc"}},
	{"ETH", []string{"ethereum", "eth"}},
	{"Gold", []string{"gold"}},
	{"Oil", []string{"oil", "crude", "wti"}},
	{"USD", []string{"dollar", "dxy", "usd"}},
	{"Fed/Rates", []string{"fed", "federal reserve", "fomc"}},
	{"EUR/USD", []string{"euro", "eur"}},
}

var equityTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META"}

var (
	highImpact = []string{
		"fed", "fomc", "interest rate", "inflation", "cpi", "unemployment",
		"gdp", "earnings", "crash", "surge", "plunge", "soar", "record",
	}
	mediumImpact = []string{
		"gain", "loss", "rise", "fall", "increase", "decrease",
		"analyst", "forecast", "outlook", "report",
	}
	positiveWords = []string{
		"gain", "surge", "rally", "rise", "jump", "soar", "climb",
		"beat", "exceed", "outperform", "bullish", "optimistic",
		"strong", "robust", "growth", "recovery",
	}
	negativeWords = []string{
		"loss", "fall", "drop", "plunge", "crash", "decline", "sink",
		"miss", "disappoint", "underperform", "bearish", "pessimistic",
		"weak", "concern", "risk", "recession", "inflation",
	}
)

// ExtractAsset guesses the main asset a headline is about. Keywords are
// matched as whole words so that "whether" does not read as ETH.
func ExtractAsset(text string) string {
	words := " " + normalizeWords(text) + " "
	for _, rule := range assetRules {
		for _, kw := range rule.keywords {
			if strings.Contains(words, " "+kw+" ") {
				return rule.asset
			}
		}
	}
	for _, t := range equityTickers {
		if strings.Contains(words, " "+strings.ToLower(t)+" ") {
			return t
		}
	}
	return AssetMarket
}

// EstimateImpact rates a headline High, Medium or Low from keywords.
func EstimateImpact(text string) string {
	lower := strings.ToLower(text)
	if containsAny(lower, highImpact) {
		return ImpactHigh
	}
	if containsAny(lower, mediumImpact) {
		return ImpactMedium
	}
	return ImpactLow
}

// AnalyzeSentiment compares positive and negative keyword counts.
func AnalyzeSentiment(text string) string {
	lower := strings.ToLower(text)
	pos, neg := countAny(lower, positiveWords), countAny(lower, negativeWords)
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// SentimentFromScore maps a numeric score in [-1, 1] to a label.
func SentimentFromScore(score float64) string {
	switch {
	case score > sentimentThreshold:
		return SentimentPositive
	case score < -sentimentThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func normalizeWords(text string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '&')
	}), " ")
}

func containsAny(s string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func countAny(s string, kws []string) int {
	n := 0
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			n++
		}
	}
	return n
}
