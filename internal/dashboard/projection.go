package dashboard

import (
	"fmt"

	"investopal/internal/analysis"
	"investopal/internal/config"
)

// ProjectRequest asks for a compounding schedule. A nil AnnualRate means the
// expected return of Profile.
type ProjectRequest struct {
	Initial      float64
	Contribution float64
	Years        int
	AnnualRate   *float64
	Profile      analysis.RiskCategory
}

type Projection struct {
	Input      analysis.ProjectionInput
	Profile    config.Profile
	Trajectory analysis.Trajectory
	Summary    analysis.ProjectionSummary
	Yearly     []float64
}

// checkYears keeps Years*PeriodsPerYear within analysis.MaxPeriods so the
// period count can neither overflow nor allocate an unbounded trajectory.
func (d *Dashboard) checkYears(years int) error {
	if years < 0 || years > d.opts.MaxYears || years > analysis.MaxPeriods/d.opts.PeriodsPerYear {
		return fmt.Errorf("%w: years must be between 0 and %d, got %d", analysis.ErrInvalidProjectionInput, d.opts.MaxYears, years)
	}
	return nil
}

// Project compounds monthly (PeriodsPerYear) over Years.
func (d *Dashboard) Project(req ProjectRequest) (*Projection, error) {
	if err := d.checkYears(req.Years); err != nil {
		return nil, err
	}
	profile := d.Profile(req.Profile)
	rate := profile.ExpectedReturn
	if req.AnnualRate != nil {
		rate = *req.AnnualRate
	}
	in := analysis.ProjectionInput{
		Initial:        req.Initial,
		Contribution:   req.Contribution,
		AnnualRate:     rate,
		Periods:        req.Years * d.opts.PeriodsPerYear,
		PeriodsPerYear: d.opts.PeriodsPerYear,
	}
	traj, err := analysis.Project(in)
	if err != nil {
		return nil, err
	}
	return &Projection{
		Input:      in,
		Profile:    profile,
		Trajectory: traj,
		Summary:    analysis.Summarize(in, traj),
		Yearly:     analysis.YearlyMilestones(traj, d.opts.PeriodsPerYear),
	}, nil
}

// ProfileProjection is the illustrative lump sum at the profile's expected
// return for each year 1..years.
func (d *Dashboard) ProfileProjection(c analysis.RiskCategory, principal float64, years int) ([]float64, error) {
	if err := d.checkYears(years); err != nil {
		return nil, err
	}
	rate := d.Profile(c).ExpectedReturn
	if _, err := analysis.ProjectLumpSum(principal, rate, 0); err != nil {
		return nil, err
	}
	out := make([]float64, 0, years)
	for y := 1; y <= years; y++ {
		v, err := analysis.ProjectLumpSum(principal, rate, y)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
