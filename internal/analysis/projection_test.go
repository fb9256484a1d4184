package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRecurrence(t *testing.T) {
	in := ProjectionInput{Initial: 50000, Contribution: 10000, AnnualRate: 0.12, Periods: 180, PeriodsPerYear: 12}
	traj, err := Project(in)
	require.NoError(t, err)
	require.Len(t, traj, 181)
	assert.Equal(t, 50000.0, traj[0])
	for k := 1; k < len(traj); k++ {
		assert.InDelta(t, traj[k-1]*(1+0.12/12)+10000, traj[k], 1e-6)
	}
}

func TestProjectDegenerateCases(t *testing.T) {
	t.Run("zero rate zero contribution is constant", func(t *testing.T) {
		traj, err := Project(ProjectionInput{Initial: 50000, Periods: 12, PeriodsPerYear: 12})
		require.NoError(t, err)
		require.Len(t, traj, 13)
		for _, v := range traj {
			assert.Equal(t, 50000.0, v)
		}
	})

	t.Run("zero rate is linear accumulation", func(t *testing.T) {
		traj, err := Project(ProjectionInput{Initial: 1000, Contribution: 100, Periods: 24, PeriodsPerYear: 12})
		require.NoError(t, err)
		for k, v := range traj {
			assert.InDelta(t, 1000+100*float64(k), v, tol)
		}
	})

	t.Run("zero horizon is a single point", func(t *testing.T) {
		traj, err := Project(ProjectionInput{Initial: 777, Contribution: 5, AnnualRate: 0.1, PeriodsPerYear: 12})
		require.NoError(t, err)
		assert.Equal(t, Trajectory{777}, traj)
	})

	t.Run("negative rate shrinks", func(t *testing.T) {
		traj, err := Project(ProjectionInput{Initial: 1000, AnnualRate: -0.12, Periods: 12, PeriodsPerYear: 12})
		require.NoError(t, err)
		assert.Less(t, traj.Final(), 1000.0)
		assert.InDelta(t, 1000*math.Pow(0.99, 12), traj.Final(), 1e-6)
	})
}

func TestProjectRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   ProjectionInput
	}{
		{name: "negative initial", in: ProjectionInput{Initial: -1, Periods: 1, PeriodsPerYear: 12}},
		{name: "negative contribution", in: ProjectionInput{Contribution: -5, Periods: 1, PeriodsPerYear: 12}},
		{name: "negative horizon", in: ProjectionInput{Initial: 1, Periods: -1, PeriodsPerYear: 12}},
		{name: "zero periods per year", in: ProjectionInput{Initial: 1, Periods: 1}},
		{name: "horizon too long", in: ProjectionInput{Initial: 1, Periods: MaxPeriods + 1, PeriodsPerYear: 12}},
		{name: "nan rate", in: ProjectionInput{Initial: 1, Periods: 1, PeriodsPerYear: 12, AnnualRate: math.NaN()}},
		{name: "infinite initial", in: ProjectionInput{Initial: math.Inf(1), Periods: 1, PeriodsPerYear: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traj, err := Project(tt.in)
			require.ErrorIs(t, err, ErrInvalidProjectionInput)
			assert.Nil(t, traj)
		})
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	in := ProjectionInput{Initial: 1234, Contribution: 56, AnnualRate: 0.07, Periods: 48, PeriodsPerYear: 12}
	a, err := Project(in)
	require.NoError(t, err)
	b, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLumpSumAgreesWithRecurrence(t *testing.T) {
	tests := []struct {
		principal float64
		rate      float64
		years     int
	}{
		{100000, 0.05, 1},
		{100000, 0.08, 10},
		{100000, 0.12, 20},
		{2500, -0.03, 7},
		{0, 0.1, 5},
	}
	for _, tt := range tests {
		closed, err := ProjectLumpSum(tt.principal, tt.rate, tt.years)
		require.NoError(t, err)
		traj, err := Project(ProjectionInput{Initial: tt.principal, AnnualRate: tt.rate, Periods: tt.years, PeriodsPerYear: 1})
		require.NoError(t, err)
		assert.InDelta(t, closed, traj.Final(), 1e-9*math.Max(1, closed))
	}

	_, err := ProjectLumpSum(-1, 0.05, 3)
	assert.ErrorIs(t, err, ErrInvalidProjectionInput)
}

func TestSummarizeAndMilestones(t *testing.T) {
	in := ProjectionInput{Initial: 1000, Contribution: 100, Periods: 36, PeriodsPerYear: 12}
	traj, err := Project(in)
	require.NoError(t, err)

	sum := Summarize(in, traj)
	assert.InDelta(t, 4600, sum.Contributed, tol)
	assert.InDelta(t, 4600, sum.Final, tol)
	assert.InDelta(t, 0, sum.Gain, tol)

	ms := YearlyMilestones(traj, 12)
	assert.Equal(t, []float64{2200, 3400, 4600}, ms)
	assert.Nil(t, YearlyMilestones(traj, 0))
	assert.Equal(t, 0.0, Trajectory{}.Final())
}
