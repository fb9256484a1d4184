package analysis

import (
	"fmt"
	"math"
)

// DefaultPeriodsPerYear is monthly compounding.
const DefaultPeriodsPerYear = 12

// MaxPeriods bounds a trajectory to a century of daily compounding.
const MaxPeriods = 100 * 366

// ProjectionInput describes a compounding schedule with a fixed contribution per period.
type ProjectionInput struct {
	Initial        float64
	Contribution   float64
	AnnualRate     float64 // may be negative
	Periods        int
	PeriodsPerYear int
}

// Trajectory holds the value at the start and after every period; len = Periods+1.
type Trajectory []float64

// Final returns the last value, or 0 for an empty trajectory.
func (t Trajectory) Final() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1]
}

// ProjectionSummary totals a projection for display.
type ProjectionSummary struct {
	Final       float64
	Contributed float64
	Gain        float64
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate rejects negative amounts and out-of-range horizons instead of clamping them.
func (in ProjectionInput) Validate() error {
	switch {
	case in.Initial < 0 || !finite(in.Initial):
		return fmt.Errorf("%w: initial amount must be >= 0, got %v", ErrInvalidProjectionInput, in.Initial)
	case in.Contribution < 0 || !finite(in.Contribution):
		return fmt.Errorf("%w: contribution must be >= 0, got %v", ErrInvalidProjectionInput, in.Contribution)
	case in.Periods < 0:
		return fmt.Errorf("%w: horizon must be >= 0 periods, got %d", ErrInvalidProjectionInput, in.Periods)
	case in.Periods > MaxPeriods:
		return fmt.Errorf("%w: horizon must be <= %d periods, got %d", ErrInvalidProjectionInput, MaxPeriods, in.Periods)
	case in.PeriodsPerYear <= 0:
		return fmt.Errorf("%w: periods per year must be positive, got %d", ErrInvalidProjectionInput, in.PeriodsPerYear)
	case !finite(in.AnnualRate):
		return fmt.Errorf("%w: annual rate must be finite", ErrInvalidProjectionInput)
	}
	return nil
}

// Project runs value[k] = value[k-1]*(1+rate/periodsPerYear) + contribution.
func Project(in ProjectionInput) (Trajectory, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rate := in.AnnualRate / float64(in.PeriodsPerYear)
	out := make(Trajectory, in.Periods+1)
	out[0] = in.Initial
	for k := 1; k <= in.Periods; k++ {
		out[k] = out[k-1]*(1+rate) + in.Contribution
	}
	return out, nil
}

// ProjectLumpSum is the closed form principal*(1+rate)^years with no contributions.
func ProjectLumpSum(principal, annualRate float64, years int) (float64, error) {
	if err := (ProjectionInput{Initial: principal, AnnualRate: annualRate, Periods: years, PeriodsPerYear: 1}).Validate(); err != nil {
		return 0, err
	}
	return principal * math.Pow(1+annualRate, float64(years)), nil
}

// Summarize reports the final value, the amount paid in and the gain over it.
func Summarize(in ProjectionInput, t Trajectory) ProjectionSummary {
	contributed := in.Initial + in.Contribution*float64(in.Periods)
	final := t.Final()
	return ProjectionSummary{Final: final, Contributed: contributed, Gain: final - contributed}
}

// YearlyMilestones samples the trajectory at the end of each whole year (year 1..N).
func YearlyMilestones(t Trajectory, periodsPerYear int) []float64 {
	if periodsPerYear <= 0 || len(t) == 0 {
		return nil
	}
	years := (len(t) - 1) / periodsPerYear
	out := make([]float64, 0, years)
	for y := 1; y <= years; y++ {
		out = append(out, t[y*periodsPerYear])
	}
	return out
}
