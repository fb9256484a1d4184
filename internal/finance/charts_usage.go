package finance

import (
	"fmt"
	"sort"

	"github.com/vicanso/go-charts/v2"
)

// UsageChart creates a pie of command counts per category.
func UsageChart(counts map[string]int, days int) ([]byte, error) {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return nil, fmt.Errorf("no usage data available")
	}

	// Sort categories for consistent ordering
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	values := make([]float64, 0, len(categories))
	labels := make([]string, 0, len(categories))
	for _, category := range categories {
		v := float64(counts[category])
		values = append(values, v)
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", category, v/float64(total)*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Command Usage Distribution (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}
