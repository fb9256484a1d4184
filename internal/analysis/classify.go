package analysis

import (
	"fmt"
	"strings"
)

// Default volatility ceilings. A volatility equal to a ceiling falls in the next category up.
const (
	ConservativeCeiling = 0.20
	ModerateCeiling     = 0.40
)

// RiskCategory is the volatility band of a ticker, or a user's risk preference.
type RiskCategory int

const (
	Conservative RiskCategory = iota
	Moderate
	Aggressive
)

// Categories lists every category in ascending risk order.
var Categories = []RiskCategory{Conservative, Moderate, Aggressive}

func (c RiskCategory) String() string {
	switch c {
	case Conservative:
		return "Conservative"
	case Moderate:
		return "Moderate"
	case Aggressive:
		return "Aggressive"
	default:
		return fmt.Sprintf("RiskCategory(%d)", int(c))
	}
}

// ParseRiskCategory accepts category names case-insensitively. "balanced" is an alias of Moderate.
func ParseRiskCategory(s string) (RiskCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conservative", "low":
		return Conservative, nil
	case "moderate", "balanced", "medium":
		return Moderate, nil
	case "aggressive", "high":
		return Aggressive, nil
	}
	return 0, fmt.Errorf("unknown risk category %q (use conservative, moderate or aggressive)", s)
}

// Thresholds are the two volatility ceilings used by Classify.
type Thresholds struct {
	Conservative float64
	Moderate     float64
}

// DefaultThresholds returns the fixed 20% / 40% ceilings.
func DefaultThresholds() Thresholds {
	return Thresholds{Conservative: ConservativeCeiling, Moderate: ModerateCeiling}
}

// Validate requires 0 < Conservative < Moderate.
func (t Thresholds) Validate() error {
	if !(t.Conservative > 0) || !(t.Moderate > t.Conservative) {
		return fmt.Errorf("invalid thresholds: need 0 < conservative (%v) < moderate (%v)", t.Conservative, t.Moderate)
	}
	return nil
}

// Classify is a step function of annualized volatility.
func Classify(volatility float64, t Thresholds) RiskCategory {
	switch {
	case volatility < t.Conservative:
		return Conservative
	case volatility < t.Moderate:
		return Moderate
	default:
		return Aggressive
	}
}
