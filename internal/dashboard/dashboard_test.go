package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investopal/internal/advisor"
	"investopal/internal/analysis"
	"investopal/internal/config"
	"investopal/internal/finance"
	"investopal/internal/logging"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func closeTable(prices ...float64) analysis.PriceTable {
	t := analysis.PriceTable{Columns: map[analysis.ColumnKey][]*float64{}}
	var cells []*float64
	for i, p := range prices {
		t.Index = append(t.Index, day0.AddDate(0, 0, i))
		cells = append(cells, f(p))
	}
	t.Columns[analysis.ColumnKey{Field: analysis.FieldClose}] = cells
	return t
}

type fakeMarket struct {
	mu     sync.Mutex
	tables map[string]analysis.PriceTable
	errs   map[string]error
	calls  []string
}

func (m *fakeMarket) PriceTable(_ context.Context, ticker string, _, _ time.Time) (analysis.PriceTable, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ticker)
	m.mu.Unlock()
	if err := m.errs[ticker]; err != nil {
		return analysis.PriceTable{}, err
	}
	t, ok := m.tables[ticker]
	if !ok {
		return analysis.PriceTable{}, fmt.Errorf("%w: no rows for %s", analysis.ErrDataUnavailable, ticker)
	}
	return t, nil
}

type fakeNews struct {
	items []finance.NewsItem
	err   error
}

func (n fakeNews) Headlines(context.Context, string, int) ([]finance.NewsItem, error) {
	return n.items, n.err
}

func newDashboard(t *testing.T, m *fakeMarket, news finance.NewsSource) *Dashboard {
	t.Helper()
	d, err := New(m, news, OptionsFromConfig(config.NewDefaultConfig()), logging.NewSilent())
	require.NoError(t, err)
	return d
}

func TestAnalyzeEndToEnd(t *testing.T) {
	m := &fakeMarket{tables: map[string]analysis.PriceTable{"AAPL": closeTable(100, 110, 105, 115, 120)}}
	d := newDashboard(t, m, nil)

	a, err := d.Analyze(context.Background(), AnalyzeRequest{Ticker: " aapl ", Start: day0, End: day0.AddDate(0, 0, 5), Selected: analysis.Conservative})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", a.Ticker)
	assert.NotEmpty(t, a.RunID)
	assert.InDelta(t, 0.20, a.Metrics.TotalReturn, 1e-9)
	assert.InDelta(t, -0.0454545, a.Metrics.MaxDrawdown, 1e-6)
	assert.Equal(t, analysis.Aggressive, a.Category)
	assert.Equal(t, advisor.Red, a.Gauge)
	assert.False(t, a.Badge.Good)
	assert.Contains(t, a.Badge.Reasons, "risk mismatch")
	require.NotEmpty(t, a.Advice)
	assert.Contains(t, a.Advice[0], "Risk mismatch for AAPL")
	assert.Equal(t, "Conservative", a.Profile.Name)
	assert.Len(t, a.Records, 5)
	assert.Equal(t, 5, a.Series.Len())
}

func TestAnalyzeProfileFromComputed(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Advice.ProfileSource = "computed"
	m := &fakeMarket{tables: map[string]analysis.PriceTable{"TSLA": closeTable(100, 110, 105, 115, 120)}}
	d, err := New(m, nil, OptionsFromConfig(cfg), logging.NewSilent())
	require.NoError(t, err)

	a, err := d.Analyze(context.Background(), AnalyzeRequest{Ticker: "TSLA", Selected: analysis.Conservative})
	require.NoError(t, err)
	assert.Equal(t, "Aggressive", a.Profile.Name)
}

func TestAnalyzeErrors(t *testing.T) {
	m := &fakeMarket{
		tables: map[string]analysis.PriceTable{"ONE": closeTable(42)},
		errs:   map[string]error{"DOWN": errors.New("connection reset")},
	}
	d := newDashboard(t, m, nil)
	ctx := context.Background()

	_, err := d.Analyze(ctx, AnalyzeRequest{Ticker: "NOPE"})
	assert.ErrorIs(t, err, analysis.ErrDataUnavailable)

	_, err = d.Analyze(ctx, AnalyzeRequest{Ticker: "ONE"})
	assert.ErrorIs(t, err, analysis.ErrInsufficientHistory)

	_, err = d.Analyze(ctx, AnalyzeRequest{Ticker: "DOWN"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to fetch DOWN")
	assert.NotErrorIs(t, err, analysis.ErrDataUnavailable)

	_, err = d.Analyze(ctx, AnalyzeRequest{Ticker: "  "})
	assert.Error(t, err)
}

func TestAnalyzeIsRepeatable(t *testing.T) {
	m := &fakeMarket{tables: map[string]analysis.PriceTable{"AAPL": closeTable(100, 101, 99, 102, 104, 103)}}
	d := newDashboard(t, m, nil)

	a, err := d.Analyze(context.Background(), AnalyzeRequest{Ticker: "AAPL", Selected: analysis.Moderate})
	require.NoError(t, err)
	b, err := d.Analyze(context.Background(), AnalyzeRequest{Ticker: "AAPL", Selected: analysis.Moderate})
	require.NoError(t, err)

	a.RunID, b.RunID = "", ""
	assert.Equal(t, a, b)
}

func TestCompareIsIndependentPerTicker(t *testing.T) {
	m := &fakeMarket{tables: map[string]analysis.PriceTable{
		"AAPL": closeTable(100, 101, 102, 103),
		"MSFT": closeTable(300, 290, 310, 330),
		"JNJ":  closeTable(150, 150.5, 151, 151.2),
	}}
	d := newDashboard(t, m, nil)

	rows := d.Compare(context.Background(), []string{"aapl", "NOPE", "MSFT", "JNJ"}, day0, day0.AddDate(0, 0, 4), analysis.Conservative)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"AAPL", "NOPE", "MSFT", "JNJ"}, []string{rows[0].Ticker, rows[1].Ticker, rows[2].Ticker, rows[3].Ticker})

	assert.NoError(t, rows[0].Err)
	assert.InDelta(t, 0.03, rows[0].Analysis.Metrics.TotalReturn, 1e-9)
	assert.ErrorIs(t, rows[1].Err, analysis.ErrDataUnavailable)
	assert.Nil(t, rows[1].Analysis)
	assert.InDelta(t, 0.1, rows[2].Analysis.Metrics.TotalReturn, 1e-9)

	// same result as a standalone run
	solo, err := d.Analyze(context.Background(), AnalyzeRequest{Ticker: "MSFT", Start: day0, End: day0.AddDate(0, 0, 4), Selected: analysis.Conservative})
	require.NoError(t, err)
	assert.Equal(t, solo.Metrics, rows[2].Analysis.Metrics)
}

func TestCompareCancelled(t *testing.T) {
	m := &fakeMarket{tables: map[string]analysis.PriceTable{
		"AAPL": closeTable(100, 101, 102, 103),
		"MSFT": closeTable(300, 290, 310, 330),
	}}
	d := newDashboard(t, m, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := d.Compare(ctx, []string{"aapl", "msft"}, day0, day0.AddDate(0, 0, 4), analysis.Conservative)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.Nil(t, r.Analysis)
	}
	assert.Equal(t, []string{"AAPL", "MSFT"}, []string{rows[0].Ticker, rows[1].Ticker})
	assert.Empty(t, m.calls)
}

func TestNewsDegrades(t *testing.T) {
	m := &fakeMarket{}
	d := newDashboard(t, m, fakeNews{items: []finance.NewsItem{{Title: "x"}}})
	assert.Len(t, d.News(context.Background(), "AAPL", 3), 1)

	d = newDashboard(t, m, fakeNews{err: errors.New("down")})
	assert.Empty(t, d.News(context.Background(), "AAPL", 3))

	d = newDashboard(t, m, nil)
	assert.Empty(t, d.News(context.Background(), "AAPL", 3))
}

func TestNewRejectsBadOptions(t *testing.T) {
	opts := OptionsFromConfig(config.NewDefaultConfig())
	opts.Params.RollingWindow = 1
	_, err := New(&fakeMarket{}, nil, opts, logging.NewSilent())
	assert.Error(t, err)

	opts = OptionsFromConfig(config.NewDefaultConfig())
	opts.Profiles = append(opts.Profiles, config.Profile{Name: "Reckless"})
	_, err = New(&fakeMarket{}, nil, opts, logging.NewSilent())
	assert.Error(t, err)
}

func TestProfiles(t *testing.T) {
	d := newDashboard(t, &fakeMarket{}, nil)
	ps := d.Profiles()
	require.Len(t, ps, 3)
	assert.Equal(t, "Conservative", ps[0].Name)
	assert.Equal(t, "Aggressive", ps[2].Name)
	assert.Equal(t, 0.08, d.Profile(analysis.Moderate).ExpectedReturn)
}
