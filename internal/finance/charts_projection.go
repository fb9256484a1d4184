package finance

import (
	"errors"
	"fmt"

	"github.com/vicanso/go-charts/v2"
)

// ProjectionChart renders year-end projected values as bars, year 1 first.
func ProjectionChart(title string, yearly []float64) ([]byte, error) {
	if len(yearly) == 0 {
		return nil, errors.New("no projection points")
	}
	labels := make([]string, len(yearly))
	for i := range yearly {
		labels[i] = fmt.Sprintf("Y%d", i+1)
	}
	painter, err := charts.BarRender([][]float64{yearly},
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(labels),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}
