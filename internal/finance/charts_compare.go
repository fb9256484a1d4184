package finance

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"

	"investopal/internal/analysis"
)

// NamedSeries is one line of a comparison chart.
type NamedSeries struct {
	Name   string
	Series analysis.PriceSeries
}

// ComparisonChart aligns the series on their common days and indexes each
// to base 100 at the first common day.
func ComparisonChart(in []NamedSeries) ([]byte, error) {
	if len(in) == 0 {
		return nil, errors.New("no series provided")
	}

	// intersect timestamps across all series
	count := map[time.Time]int{}
	for _, x := range in {
		for _, p := range x.Series {
			count[p.Time]++
		}
	}
	common := make([]time.Time, 0, len(count))
	for t, c := range count {
		if c == len(in) {
			common = append(common, t)
		}
	}
	if len(common) < 2 {
		return nil, errors.New("not enough overlapping time points")
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	values := make([][]float64, 0, len(in))
	names := make([]string, 0, len(in))
	var all []float64
	for _, x := range in {
		byTime := make(map[time.Time]float64, len(x.Series))
		for _, p := range x.Series {
			byTime[p.Time] = p.Price
		}
		base := byTime[common[0]]
		out := make([]float64, len(common))
		for i, t := range common {
			out[i] = byTime[t] / base * 100
		}
		all = append(all, out...)
		values = append(values, out)
		names = append(names, strings.ToUpper(x.Name))
	}
	yMin, yMax := paddedRange(all, false)

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
		seriesList[i].AxisIndex = 0
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Comparison • indexed", strings.Join(names, ", ")+" • base 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: dayLabels(common), BoundaryGap: charts.FalseFlag(), SplitNumber: splitFor(len(common))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}
