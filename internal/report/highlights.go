// Package report assembles the market overview from the snapshot, news,
// calendar and commentary.
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// Snapshot keys the highlights look for.
const (
	KeySPX  = "^GSPC"
	KeyVIX  = "^VIX"
	KeyDXY  = "DXY"
	KeyGold = "GC=F"
	KeyUS10 = "^TNX"
)

// NoHighlights is shown when none of the headline assets are available.
const NoHighlights = "No highlights available yet"

// Highlights lists fact lines for the headline assets, each followed by an
// interpretation when the move is notable.
func Highlights(snap model.MarketSnapshot) []string {
	var out []string
	if spx, ok := snap[KeySPX]; ok {
		out = append(out, fmt.Sprintf("(Fact) S&P 500: %.2f (%s, z-score: %s)", spx.Last, pct(spx.D1), num(spx.ZScore)))
		if spx.D1.Valid && math.Abs(spx.D1.Float64) > 1 {
			dir := "sharply higher"
			if spx.D1.Float64 < 0 {
				dir = "sharply lower"
			}
			out = append(out, fmt.Sprintf("(Interpretation) SPX %s, sentiment is volatile", dir))
		}
	}
	if vix, ok := snap[KeyVIX]; ok {
		out = append(out, fmt.Sprintf("(Fact) VIX: %.2f (%s)", vix.Last, pct(vix.D1)))
		if vix.Last > 20 {
			out = append(out, "(Interpretation) VIX above 20 signals rising market stress")
		}
	}
	if dxy, ok := snap[KeyDXY]; ok {
		out = append(out, fmt.Sprintf("(Fact) DXY: %.2f (%s)", dxy.Last, pct(dxy.D1)))
	}
	if gold, ok := snap[KeyGold]; ok {
		out = append(out, fmt.Sprintf("(Fact) Gold: $%.2f (%s)", gold.Last, pct(gold.D1)))
	}
	if len(out) == 0 {
		return []string{NoHighlights}
	}
	return out
}

// RiskSentiment picks the last VIX, DXY and US 10-year yield.
func RiskSentiment(snap model.MarketSnapshot) map[string]float64 {
	out := make(map[string]float64, 3)
	for key, label := range map[string]string{KeyVIX: "vix", KeyDXY: "dxy", KeyUS10: "us10y"} {
		if s, ok := snap[key]; ok {
			out[label] = s.Last
		}
	}
	return out
}

// Row is one line of the cross-asset table, already formatted.
type Row struct {
	Asset  string
	Last   string
	D1     string
	WTD    string
	MTD    string
	ZScore string
}

// CrossAssetRows formats the snapshot in the given order; names missing
// from order follow alphabetically.
func CrossAssetRows(snap model.MarketSnapshot, order []string) []Row {
	seen := make(map[string]bool, len(snap))
	names := make([]string, 0, len(snap))
	for _, n := range order {
		if _, ok := snap[n]; ok && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	var rest []string
	for n := range snap {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	rows := make([]Row, 0, len(names))
	for _, n := range names {
		s := snap[n]
		rows = append(rows, Row{
			Asset:  n,
			Last:   fmt.Sprintf("%.2f", s.Last),
			D1:     num(s.D1),
			WTD:    num(s.WTD),
			MTD:    num(s.MTD),
			ZScore: num(s.ZScore),
		})
	}
	return rows
}

func num(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func pct(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v.Float64)
}
