package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"investopal/internal/analysis"
)

// ProjectionExport is the single row of the projection CSV.
type ProjectionExport struct {
	InvestmentAmount    float64
	MonthlyContribution float64
	ExpectedAnnualRate  float64
	Years               int
	ProjectedValue      float64
}

var projectionHeader = []string{
	"Investment Amount", "Monthly Contribution", "Expected Annual Return",
	"Investment Horizon (Years)", "Projected Value",
}

func money(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) }

// ProjectionCSV writes the header and one row; amounts are rounded to two
// decimals and the rate is written in percent.
func ProjectionCSV(w io.Writer, e ProjectionExport) error {
	cw := csv.NewWriter(w)
	rate := decimal.NewFromFloat(e.ExpectedAnnualRate).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	rows := [][]string{
		projectionHeader,
		{money(e.InvestmentAmount), money(e.MonthlyContribution), rate, strconv.Itoa(e.Years), money(e.ProjectedValue)},
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// TrajectoryCSV writes one Period,Value row per trajectory point.
func TrajectoryCSV(w io.Writer, t analysis.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Period", "Value"}); err != nil {
		return err
	}
	for k, v := range t {
		if err := cw.Write([]string{strconv.Itoa(k), money(v)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
