package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"MarketBrief/internal/calendar"
	"MarketBrief/internal/model"
	"MarketBrief/internal/report"
	"MarketBrief/internal/session"
)

// FormatBriefing formats the overview into a Telegram message.
func FormatBriefing(ov report.Overview) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Market Brief</b> | %s | %s\n\n", ov.Date, html.EscapeString(ov.Session)))

	b.WriteString("🔎 <b>Highlights:</b>\n")
	for _, h := range ov.Highlights {
		b.WriteString("  " + html.EscapeString(h) + "\n")
	}

	if len(ov.Rows) > 0 {
		b.WriteString("\n📈 <b>Cross-asset:</b>\n<pre>")
		b.WriteString(fmt.Sprintf("%-9s %11s %7s %7s %7s %6s\n", "Asset", "Last", "D1%", "WTD%", "MTD%", "Z"))
		for _, r := range ov.Rows {
			b.WriteString(fmt.Sprintf("%-9s %11s %7s %7s %7s %6s\n",
				html.EscapeString(r.Asset), r.Last, r.D1, r.WTD, r.MTD, r.ZScore))
		}
		b.WriteString("</pre>\n")
	}

	if len(ov.RiskSentiment) > 0 {
		b.WriteString("\n⚖️ <b>Risk sentiment:</b> ")
		var parts []string
		for _, k := range []string{"vix", "dxy", "us10y"} {
			if v, ok := ov.RiskSentiment[k]; ok {
				parts = append(parts, fmt.Sprintf("%s %s", strings.ToUpper(k), Price(v)))
			}
		}
		b.WriteString(strings.Join(parts, " | ") + "\n")
	}

	if len(ov.Failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ No data: %s\n", html.EscapeString(strings.Join(ov.Failed, ", "))))
	}

	if high := calendar.HighImpact(ov.Calendar); len(high) > 0 {
		b.WriteString("\n📅 <b>Calendar (high impact):</b>\n")
		for _, e := range high {
			b.WriteString(fmt.Sprintf("  %s %s %s", e.TimeLocal, e.Region, html.EscapeString(e.Event)))
			if e.Consensus.Valid {
				b.WriteString(fmt.Sprintf(" (cons %s, prior %s)", optional(e.Consensus), optional(e.Prior)))
			}
			b.WriteString("\n")
		}
	}

	if ov.Commentary != "" {
		b.WriteString("\n📝 <b>Commentary:</b>\n")
		b.WriteString(html.EscapeString(ov.Commentary) + "\n")
	}
	return b.String()
}

// FormatSession formats the active session, session badges and cache keys.
func FormatSession(st session.State, badges []session.Badge, keys []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕒 <b>Session:</b> %s (since %s UTC)\n\n",
		html.EscapeString(st.Name), st.Start.Format("2006-01-02 15:04")))
	for _, badge := range badges {
		mark := "⚪"
		if badge.Open {
			mark = "🟢"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", mark, html.EscapeString(badge.Name), badge.LocalNow.Format("15:04 MST")))
	}
	if len(keys) > 0 {
		b.WriteString("\n<b>Cached:</b>\n")
		for _, k := range keys {
			b.WriteString("  " + html.EscapeString(k) + "\n")
		}
	}
	return b.String()
}

// FormatNews formats headlines.
func FormatNews(items []model.NewsItem) string {
	if len(items) == 0 {
		return "📰 No news available right now."
	}
	var b strings.Builder
	b.WriteString("📰 <b>Headlines</b>\n\n")
	for _, n := range items {
		b.WriteString(fmt.Sprintf("• [%s|%s|%s] <a href=\"%s\">%s</a> (%s, %s)\n",
			html.EscapeString(n.Asset), n.Impact, n.Sentiment,
			html.EscapeString(n.URL), html.EscapeString(n.Title),
			html.EscapeString(n.Source), n.Time.Format("01-02 15:04")))
	}
	return b.String()
}

// FormatDetail formats the per-asset detail with ATR levels.
func FormatDetail(d model.Detail) string {
	var b strings.Builder
	s := d.Stat
	b.WriteString(fmt.Sprintf("🔬 <b>%s</b> (%s) | %s\n\n", html.EscapeString(d.DisplayName),
		html.EscapeString(d.Ticker), time.Now().UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Last: %s (D1 %s, WTD %s, MTD %s)\n", Price(s.Last), pct(s.D1), pct(s.WTD), pct(s.MTD)))
	b.WriteString(fmt.Sprintf("Day range: %s - %s\n", optional(d.DayLow), optional(d.DayHigh)))
	b.WriteString(fmt.Sprintf("22-bar range: %s - %s (%s)\n", optional(d.RangeLow), optional(d.RangeHigh), rangePos(d.RangePos)))
	b.WriteString(fmt.Sprintf("ATR14: %s | Z-score: %s\n", optional(s.ATR14), optional(s.ZScore)))
	b.WriteString(fmt.Sprintf("MA20: %s %s | MA50: %s %s\n",
		optional(s.MA20), above(s.AboveMA20), optional(s.MA50), above(s.AboveMA50)))
	if d.Levels.R1.Valid {
		b.WriteString(fmt.Sprintf("\nR2 %s | R1 %s\nS1 %s | S2 %s\n",
			optional(d.Levels.R2), optional(d.Levels.R1), optional(d.Levels.S1), optional(d.Levels.S2)))
	}
	return b.String()
}

// Price renders v with two decimals without float formatting artifacts.
func Price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func optional(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return Price(v.Float64)
}

func pct(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	d := decimal.NewFromFloat(v.Float64).Round(2)
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

func above(v null.Bool) string {
	switch {
	case !v.Valid:
		return ""
	case v.Bool:
		return "▲"
	default:
		return "▼"
	}
}

func rangePos(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%% of range", v.Float64*100)
}
