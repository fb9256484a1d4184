// Package report formats pipeline results for chat and file export.
package report

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"investopal/internal/analysis"
	"investopal/internal/config"
	"investopal/internal/dashboard"
	"investopal/internal/finance"
	"investopal/internal/storage"
)

// Row is one label/value line of a stats table.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

// StatsTable lists the headline metrics with two decimals.
func StatsTable(m analysis.RiskMetrics) []Row {
	return []Row{
		{Label: "Total Return", Value: pct(m.TotalReturn)},
		{Label: "Annualized Return", Value: pct(m.AverageReturn)},
		{Label: "Volatility", Value: pct(m.Volatility)},
		{Label: "Sharpe Ratio", Value: fmt.Sprintf("%.2f", m.SharpeRatio)},
		{Label: "Max Drawdown", Value: pct(m.MaxDrawdown)},
	}
}

// Money renders whole currency units with thousands separators.
func Money(symbol string, v float64) string {
	r := math.Round(v)
	if r < 0 {
		return "-" + symbol + humanize.Comma(int64(-r))
	}
	return symbol + humanize.Comma(int64(r))
}

func FormatAnalysis(a *dashboard.Analysis) string {
	var b strings.Builder
	m := a.Metrics
	fmt.Fprintf(&b, "%s • %s → %s (%d prices)\n", a.Ticker, m.Start.Format("2006-01-02"), m.End.Format("2006-01-02"), m.Observations)
	fmt.Fprintf(&b, "Last %.2f (%+.2f, %+.2f%%)\n\n", m.LastPrice, m.DailyChange, m.DailyChangePct*100)
	for _, r := range StatsTable(m) {
		fmt.Fprintf(&b, "%s: %s\n", r.Label, r.Value)
	}
	fmt.Fprintf(&b, "\nRisk category: %s (gauge %s)\n", a.Category, a.Gauge)
	fmt.Fprintf(&b, "Your profile: %s", a.Selected)
	if a.Profile.ExpectedReturn != 0 {
		fmt.Fprintf(&b, " • shown: %s, expected %s/yr", a.Profile.Name, pct(a.Profile.ExpectedReturn))
	}
	b.WriteString("\n")
	for _, line := range a.Advice {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n💡 " + a.Badge.String())
	return b.String()
}

// FormatComparison renders one "TICKER: x.xx% Return" line per row, or the
// reason a row has no metrics.
func FormatComparison(rows []dashboard.Comparison) string {
	var b strings.Builder
	b.WriteString("📊 Comparison\n")
	for _, r := range rows {
		if r.Err != nil {
			fmt.Fprintf(&b, "%s: %s\n", r.Ticker, ErrorMessage(r.Err))
			continue
		}
		m := r.Analysis.Metrics
		fmt.Fprintf(&b, "%s: %s Return • vol %s • Sharpe %.2f • %s\n",
			r.Ticker, pct(m.TotalReturn), pct(m.Volatility), m.SharpeRatio, r.Analysis.Category)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNews renders HTML-mode headlines, one per line. Feed text is escaped;
// links that are not http(s) are shown as plain titles.
func FormatNews(ticker string, items []finance.NewsItem) string {
	if len(items) == 0 {
		return "No recent news found."
	}
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }
	var b strings.Builder
	fmt.Fprintf(&b, "📰 Latest news for %s\n", esc(strings.ToUpper(ticker)))
	for _, n := range items {
		if strings.HasPrefix(n.Link, "http://") || strings.HasPrefix(n.Link, "https://") {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(n.Link), esc(n.Title))
		} else {
			b.WriteString(esc(n.Title))
		}
		fmt.Fprintf(&b, " — <i>%s</i>", esc(n.Publisher))
		if p := n.PublishedLabel(); p != "" {
			b.WriteString(" • " + p)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatProjection(p *dashboard.Projection, currency string) string {
	var b strings.Builder
	years := p.Input.Periods / p.Input.PeriodsPerYear
	fmt.Fprintf(&b, "📈 Projection • %s at %s/yr • %d years\n", p.Profile.Name, pct(p.Input.AnnualRate), years)
	fmt.Fprintf(&b, "Initial %s + %s/month\n\n", Money(currency, p.Input.Initial), Money(currency, p.Input.Contribution))
	fmt.Fprintf(&b, "Projected value: %s\n", Money(currency, p.Summary.Final))
	fmt.Fprintf(&b, "Total invested: %s\n", Money(currency, p.Summary.Contributed))
	fmt.Fprintf(&b, "Growth: %s", Money(currency, p.Summary.Gain))
	return b.String()
}

// FormatProfiles lists the selectable risk profiles.
func FormatProfiles(profiles []config.Profile, current string) string {
	var b strings.Builder
	for _, p := range profiles {
		mark := "  "
		if strings.EqualFold(p.Name, current) {
			mark = "▶ "
		}
		fmt.Fprintf(&b, "%s%s • %s expected • %s\n   %s\n   e.g. %s\n",
			mark, p.Name, pct(p.ExpectedReturn), p.StockType, p.Description, strings.Join(p.Examples, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatUsage summarizes usage per category, top five commands each.
func FormatUsage(stats map[string]*storage.UsageStats, days int) string {
	if len(stats) == 0 {
		return "No usage data available for the specified period."
	}
	categories := sortedKeys(stats)
	total := 0
	for _, c := range categories {
		total += stats[c].Count
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Usage (%d days)\nTotal commands: %d\n\n", days, total)
	for _, c := range categories {
		st := stats[c]
		fmt.Fprintf(&b, "%s (%d commands, %.1f%%)\n", c, st.Count, float64(st.Count)/float64(total)*100)
		for i, cmd := range topCommands(st.Commands) {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %d\n", cmd, st.Commands[cmd])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// BusiestDay sums daily buckets across categories and names the busiest one.
// Ties go to the earlier day.
func BusiestDay(series map[string][]storage.TimeSeriesPoint) string {
	totals := map[int64]int{}
	for _, pts := range series {
		for _, p := range pts {
			totals[p.Timestamp] += p.Count
		}
	}
	var day int64
	best := 0
	for ts, n := range totals {
		if n > best || (n == best && ts < day) {
			day, best = ts, n
		}
	}
	if best == 0 {
		return ""
	}
	return fmt.Sprintf("Busiest day: %s (%d commands)", time.Unix(day, 0).UTC().Format(time.DateOnly), best)
}
