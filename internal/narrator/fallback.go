package narrator

import (
	"context"
	"fmt"
	"strings"
)

// Fallback writes a rule-based commentary from VIX, S&P 500 and DXY.
type Fallback struct{}

func (Fallback) Overview(_ context.Context, in Input) (string, error) {
	var b strings.Builder
	vix, spx, dxy := in.VIX.Float64, in.SPXChange.Float64, in.DXY.Float64
	stressed := in.VIX.Valid && vix > 20

	b.WriteString("Market summary:\n")
	if in.VIX.Valid {
		regime := "risk-on"
		if stressed {
			regime = "risk-off"
		}
		fmt.Fprintf(&b, "Markets are %s with VIX at %.2f.\n", regime, vix)
	}
	if in.SPXChange.Valid {
		dir, tone := "up", "constructive sentiment"
		if spx <= 0 {
			dir, tone = "down", "selling pressure"
		}
		fmt.Fprintf(&b, "S&P 500 is %s %.2f%%, reflecting %s.\n", dir, abs(spx), tone)
	}

	b.WriteString("\nAnalysis:\n")
	if in.VIX.Valid {
		level, advice := "low", "risk can be taken selectively"
		if stressed {
			level, advice = "elevated", "position sizes should stay conservative"
		}
		fmt.Fprintf(&b, "Volatility is %s; %s.\n", level, advice)
	}
	if in.DXY.Valid {
		effect := "is supportive for"
		if dxy > 105 {
			effect = "weighs on"
		}
		fmt.Fprintf(&b, "DXY at %.2f %s gold and commodities.\n", dxy, effect)
	}
	if !in.VIX.Valid && !in.SPXChange.Valid && !in.DXY.Valid {
		b.WriteString("Market data is not available yet.\n")
	}

	b.WriteString("\nFocus:\n")
	if stressed {
		b.WriteString("Favor defensive assets. ")
	} else {
		b.WriteString("Risk assets remain in favor. ")
	}
	b.WriteString("Watch Fed communication and earnings.\n")
	b.WriteString("\n(Automatic commentary: no language model configured or it was unavailable.)")
	return b.String(), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
