package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investopal/internal/analysis"
)

func series(start time.Time, prices ...float64) analysis.PriceSeries {
	out := make(analysis.PriceSeries, len(prices))
	for i, p := range prices {
		out[i] = analysis.PricePoint{Time: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestAnalysisChartRenders(t *testing.T) {
	img, err := AnalysisChart("aapl", series(jan1, 100, 110, 105, 115, 120))
	require.NoError(t, err)
	assert.NotEmpty(t, img)

	_, err = AnalysisChart("aapl", series(jan1, 100))
	assert.Error(t, err)
}

func TestVolumeChartSkipsMissing(t *testing.T) {
	v := 1e6
	recs := []analysis.PriceRecord{{Time: jan1, Volume: &v}, {Time: jan5}}
	img, err := VolumeChart("AAPL", recs)
	require.NoError(t, err)
	assert.NotEmpty(t, img)

	_, err = VolumeChart("AAPL", []analysis.PriceRecord{{Time: jan1}})
	assert.Error(t, err)
}

func TestRollingVolatilityChartNeedsValidPoints(t *testing.T) {
	pts := []analysis.RollingPoint{{Time: jan1}, {Time: jan5}}
	_, err := RollingVolatilityChart("AAPL", 30, pts)
	assert.Error(t, err)

	pts = append(pts,
		analysis.RollingPoint{Time: jan5.AddDate(0, 0, 1), Value: 0.2, Valid: true},
		analysis.RollingPoint{Time: jan5.AddDate(0, 0, 2), Value: 0.25, Valid: true},
	)
	img, err := RollingVolatilityChart("AAPL", 2, pts)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
}

func TestComparisonChartAlignsOnCommonDays(t *testing.T) {
	img, err := ComparisonChart([]NamedSeries{
		{Name: "aapl", Series: series(jan1, 100, 101, 102, 103)},
		{Name: "msft", Series: series(jan1.AddDate(0, 0, 1), 300, 310, 320)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, img)

	_, err = ComparisonChart([]NamedSeries{
		{Name: "a", Series: series(jan1, 1, 2)},
		{Name: "b", Series: series(jan1.AddDate(1, 0, 0), 1, 2)},
	})
	assert.Error(t, err)
	_, err = ComparisonChart(nil)
	assert.Error(t, err)
}

func TestProjectionAndUsageCharts(t *testing.T) {
	img, err := ProjectionChart("Conservative • 5%", []float64{105000, 110250, 115762.5})
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	_, err = ProjectionChart("empty", nil)
	assert.Error(t, err)

	img, err = UsageChart(map[string]int{"analysis": 3, "projection": 1}, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	_, err = UsageChart(map[string]int{}, 7)
	assert.Error(t, err)
}

func TestPaddedRange(t *testing.T) {
	lo, hi := paddedRange([]float64{100, 200}, true)
	assert.InDelta(t, 95, lo, 1e-9)
	assert.InDelta(t, 205, hi, 1e-9)

	lo, hi = paddedRange([]float64{0, 0}, true)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}
