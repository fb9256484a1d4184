package analysis

import (
	"fmt"
	"math"
)

const (
	DefaultTradingDaysPerYear = 252
	DefaultRollingWindow      = 30

	// stdev below this is treated as zero dispersion when computing Sharpe.
	zeroVarianceTolerance = 1e-12
)

// Params configures the calculator. Pass it explicitly; there is no package state.
type Params struct {
	TradingDaysPerYear int
	RollingWindow      int
	Thresholds         Thresholds
}

// DefaultParams returns 252 trading days, a 30-period window and the 20% / 40% ceilings.
func DefaultParams() Params {
	return Params{
		TradingDaysPerYear: DefaultTradingDaysPerYear,
		RollingWindow:      DefaultRollingWindow,
		Thresholds:         DefaultThresholds(),
	}
}

func (p Params) Validate() error {
	if p.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading days per year must be positive, got %d", p.TradingDaysPerYear)
	}
	if p.RollingWindow < 2 {
		return fmt.Errorf("rolling window must be at least 2, got %d", p.RollingWindow)
	}
	return p.Thresholds.Validate()
}

// Returns computes period-over-period fractional changes.
func Returns(s PriceSeries) ReturnSeries {
	if len(s) < 2 {
		return ReturnSeries{}
	}
	out := make(ReturnSeries, len(s)-1)
	for i := 1; i < len(s); i++ {
		out[i-1] = ReturnPoint{Time: s[i].Time, Return: s[i].Price/s[i-1].Price - 1}
	}
	return out
}

// meanStdev returns the mean and sample standard deviation (n-1). A single value has zero stdev.
func meanStdev(values []float64) (float64, float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}

// MaxDrawdown is the most negative price / running-max - 1. It is 0 for a non-decreasing series.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	peak := prices[0]
	worst := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if dd := p/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// RollingVolatility annualizes the stdev of each trailing window of returns.
// Points before the first full window are left invalid.
func RollingVolatility(r ReturnSeries, window, tradingDays int) []RollingPoint {
	out := make([]RollingPoint, len(r))
	values := r.Values()
	scale := math.Sqrt(float64(tradingDays))
	for i := range r {
		out[i].Time = r[i].Time
		if window <= 0 || i < window-1 {
			continue
		}
		_, sd := meanStdev(values[i-window+1 : i+1])
		out[i].Value = sd * scale
		out[i].Valid = true
	}
	return out
}

// Compute derives the risk metrics of a normalized series.
func Compute(s PriceSeries, p Params) (RiskMetrics, error) {
	if len(s) < 2 {
		return RiskMetrics{}, fmt.Errorf("%w: need at least 2 prices, got %d", ErrInsufficientHistory, len(s))
	}
	if err := p.Validate(); err != nil {
		return RiskMetrics{}, err
	}

	returns := Returns(s)
	mean, sd := meanStdev(returns.Values())
	days := float64(p.TradingDaysPerYear)

	// Identical returns leave only rounding noise in sd; report no risk.
	vol, sharpe := 0.0, 0.0
	if sd > zeroVarianceTolerance {
		vol = sd * math.Sqrt(days)
		sharpe = mean / sd * math.Sqrt(days)
	}

	first, last, prev := s[0], s[len(s)-1], s[len(s)-2]
	return RiskMetrics{
		Volatility:        vol,
		AverageReturn:     mean * days,
		SharpeRatio:       sharpe,
		MaxDrawdown:       MaxDrawdown(s.Prices()),
		TotalReturn:       last.Price/first.Price - 1,
		RollingVolatility: RollingVolatility(returns, p.RollingWindow, p.TradingDaysPerYear),
		Observations:      len(s),
		Start:             first.Time,
		End:               last.Time,
		LastPrice:         last.Price,
		DailyChange:       last.Price - prev.Price,
		DailyChangePct:    last.Price/prev.Price - 1,
	}, nil
}
