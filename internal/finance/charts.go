package finance

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vicanso/go-charts/v2"

	"investopal/internal/analysis"
)

// paddedRange returns the y-axis bounds with 5% padding, never below zero
// when floorZero is set.
func paddedRange(values []float64, floorZero bool) (float64, float64) {
	yMin, yMax := values[0], values[0]
	for _, v := range values[1:] {
		if v < yMin {
			yMin = v
		}
		if v > yMax {
			yMax = v
		}
	}
	pad := (yMax - yMin) * 0.05
	if pad < abs(yMax)*0.002 {
		pad = abs(yMax) * 0.002
	}
	if pad == 0 {
		pad = 1
	}
	yMin -= pad
	if floorZero && yMin < 0 {
		yMin = 0
	}
	return yMin, yMax + pad
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func splitFor(n int) int {
	switch {
	case n <= 30:
		return 6
	case n <= 130:
		return 8
	default:
		return 12
	}
}

// AnalysisChart renders the normalized price line; the title carries the ticker.
func AnalysisChart(ticker string, s analysis.PriceSeries) ([]byte, error) {
	if s.Len() < 2 {
		return nil, errors.New("not enough data points")
	}
	prices := s.Prices()
	labels := dayLabels(s.Times())
	yMin, yMax := paddedRange(prices, true)
	painter, err := charts.LineRender([][]float64{prices},
		charts.TitleTextOptionFunc(strings.ToUpper(ticker)+" • Price", labels[0]+" → "+labels[len(labels)-1]),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: splitFor(len(labels))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// VolumeChart renders daily volume bars. Rows without volume are skipped.
func VolumeChart(ticker string, records []analysis.PriceRecord) ([]byte, error) {
	var labels []string
	var vols []float64
	et := easternLocation()
	for _, r := range records {
		if r.Volume == nil || r.Time.IsZero() {
			continue
		}
		labels = append(labels, r.Time.In(et).Format("2006-01-02"))
		vols = append(vols, *r.Volume)
	}
	if len(vols) == 0 {
		return nil, errors.New("no volume data")
	}
	painter, err := charts.BarRender([][]float64{vols},
		charts.TitleTextOptionFunc(strings.ToUpper(ticker)+" • Volume"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, SplitNumber: splitFor(len(labels))}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// RollingVolatilityChart plots annualized rolling volatility in percent.
// Points before the window fills are left out, not drawn as zero.
func RollingVolatilityChart(ticker string, window int, points []analysis.RollingPoint) ([]byte, error) {
	var labels []string
	var vals []float64
	et := easternLocation()
	for _, p := range points {
		if !p.Valid {
			continue
		}
		labels = append(labels, p.Time.In(et).Format("2006-01-02"))
		vals = append(vals, p.Value*100)
	}
	if len(vals) < 2 {
		return nil, errors.New("not enough data points for rolling volatility")
	}
	yMin, yMax := paddedRange(vals, true)
	painter, err := charts.LineRender([][]float64{vals},
		charts.TitleTextOptionFunc(strings.ToUpper(ticker)+" • Rolling volatility %", windowLabel(window)),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: splitFor(len(labels))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

func windowLabel(window int) string {
	if window <= 0 {
		return ""
	}
	return strconv.Itoa(window) + "-day window"
}
