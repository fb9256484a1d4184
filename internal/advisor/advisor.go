// Package advisor turns computed metrics into the advisory lines, the fit badge
// and the volatility gauge colour shown next to an analysis.
package advisor

import (
	"fmt"
	"strings"

	"investopal/internal/analysis"
)

// Rules are the Sharpe thresholds of the advisory table.
type Rules struct {
	StrongSharpe float64
	PoorSharpe   float64
	FitSharpe    float64
}

func DefaultRules() Rules {
	return Rules{StrongSharpe: 1.5, PoorSharpe: 0.5, FitSharpe: 1.0}
}

// Advise returns zero or more advisory lines, mismatch first.
func Advise(ticker string, computed, selected analysis.RiskCategory, m analysis.RiskMetrics, r Rules) []string {
	var out []string
	if computed != selected {
		out = append(out, fmt.Sprintf("⚠️ Risk mismatch for %s: it behaves %s, you selected %s.", ticker, computed, selected))
	}
	switch {
	case m.SharpeRatio > r.StrongSharpe:
		out = append(out, "✅ Strong risk-adjusted returns.")
	case m.SharpeRatio < r.PoorSharpe:
		out = append(out, "⚠️ Poor risk-adjusted returns.")
	}
	return out
}

// Badge is the recommendation shown under the gauge.
type Badge struct {
	Good    bool     `json:"good"`
	Reasons []string `json:"reasons,omitempty"`
}

func (b Badge) String() string {
	if b.Good {
		return "✅ Good Fit"
	}
	return "⚠️ Risky — " + strings.Join(b.Reasons, " & ")
}

// Fit is good iff the categories match and the Sharpe ratio exceeds r.FitSharpe.
func Fit(computed, selected analysis.RiskCategory, sharpe float64, r Rules) Badge {
	var reasons []string
	if computed != selected {
		reasons = append(reasons, "risk mismatch")
	}
	if sharpe <= r.FitSharpe {
		reasons = append(reasons, fmt.Sprintf("Sharpe ≤ %g", r.FitSharpe))
	}
	return Badge{Good: len(reasons) == 0, Reasons: reasons}
}

type Color string

const (
	Green  Color = "green"
	Yellow Color = "yellow"
	Red    Color = "red"
)

// GaugeColor follows the classifier bands so the gauge and the category never disagree.
func GaugeColor(volatility float64, t analysis.Thresholds) Color {
	switch analysis.Classify(volatility, t) {
	case analysis.Conservative:
		return Green
	case analysis.Moderate:
		return Yellow
	default:
		return Red
	}
}

// ProfileSource decides which category picks the profile shown with an analysis.
type ProfileSource string

const (
	FromSelected ProfileSource = "selected"
	FromComputed ProfileSource = "computed"
)

// ParseProfileSource defaults to FromSelected for anything unrecognised.
func ParseProfileSource(s string) ProfileSource {
	if ProfileSource(strings.ToLower(strings.TrimSpace(s))) == FromComputed {
		return FromComputed
	}
	return FromSelected
}

// Pick returns the category whose profile should be displayed.
func (p ProfileSource) Pick(computed, selected analysis.RiskCategory) analysis.RiskCategory {
	if p == FromComputed {
		return computed
	}
	return selected
}
