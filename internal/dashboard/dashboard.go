// Package dashboard runs the analysis pipeline for the presentation layers:
// fetch, normalize, compute, classify and advise for one ticker, the same run
// independently per ticker for comparisons, and compounding projections.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"investopal/internal/advisor"
	"investopal/internal/analysis"
	"investopal/internal/config"
	"investopal/internal/finance"
	"investopal/internal/logging"
)

// DefaultMaxYears caps projection horizons when Options leaves MaxYears unset.
const DefaultMaxYears = 50

// Options are the explicit parameters of every run.
type Options struct {
	Params         analysis.Params
	Rules          advisor.Rules
	ProfileSource  advisor.ProfileSource
	Profiles       []config.Profile
	PeriodsPerYear int
	MaxYears       int
	CompareLimit   int
}

// OptionsFromConfig maps the loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Params: cfg.Params(),
		Rules: advisor.Rules{
			StrongSharpe: cfg.Advice.StrongSharpe,
			PoorSharpe:   cfg.Advice.PoorSharpe,
			FitSharpe:    cfg.Advice.FitSharpe,
		},
		ProfileSource:  advisor.ParseProfileSource(cfg.Advice.ProfileSource),
		Profiles:       cfg.Profiles,
		PeriodsPerYear: cfg.Analysis.PeriodsPerYear,
		MaxYears:       cfg.Analysis.MaxYears,
		CompareLimit:   4,
	}
}

type Dashboard struct {
	market   finance.PriceSource
	news     finance.NewsSource
	opts     Options
	profiles map[analysis.RiskCategory]config.Profile
	logger   *logging.Logger
}

// New validates opts. news may be nil, in which case News returns no items.
func New(market finance.PriceSource, news finance.NewsSource, opts Options, logger *logging.Logger) (*Dashboard, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if opts.PeriodsPerYear <= 0 {
		opts.PeriodsPerYear = analysis.DefaultPeriodsPerYear
	}
	if opts.MaxYears <= 0 {
		opts.MaxYears = DefaultMaxYears
	}
	if opts.CompareLimit <= 0 {
		opts.CompareLimit = 4
	}
	profiles := map[analysis.RiskCategory]config.Profile{}
	for _, p := range opts.Profiles {
		cat, err := analysis.ParseRiskCategory(p.Name)
		if err != nil {
			return nil, err
		}
		profiles[cat] = p
	}
	return &Dashboard{market: market, news: news, opts: opts, profiles: profiles, logger: logger.Component("dashboard")}, nil
}

// Profile returns the configured profile of a category. A category without a
// configured profile gets a bare one named after it.
func (d *Dashboard) Profile(c analysis.RiskCategory) config.Profile {
	if p, ok := d.profiles[c]; ok {
		return p
	}
	return config.Profile{Name: c.String()}
}

// Profiles lists the configured profiles in ascending risk order.
func (d *Dashboard) Profiles() []config.Profile {
	out := make([]config.Profile, 0, len(d.profiles))
	for _, c := range analysis.Categories {
		if p, ok := d.profiles[c]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (d *Dashboard) Params() analysis.Params { return d.opts.Params }

type AnalyzeRequest struct {
	Ticker   string
	Start    time.Time
	End      time.Time
	Selected analysis.RiskCategory
}

// Analysis is the full result of one ticker run.
type Analysis struct {
	RunID    string
	Ticker   string
	Start    time.Time
	End      time.Time
	Metrics  analysis.RiskMetrics
	Category analysis.RiskCategory
	Selected analysis.RiskCategory
	Profile  config.Profile
	Advice   []string
	Badge    advisor.Badge
	Gauge    advisor.Color
	Series   analysis.PriceSeries
	Records  []analysis.PriceRecord
}

// Analyze runs fetch -> normalize -> compute -> classify -> advise.
func (d *Dashboard) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return nil, errors.New("ticker is required")
	}
	runID := uuid.NewString()
	log := d.logger.With().Str("run_id", runID).Str("ticker", ticker).
		Time("start", req.Start).Time("end", req.End).Logger()

	table, err := d.market.PriceTable(ctx, ticker, req.Start, req.End)
	if err != nil {
		log.Warn().Err(err).Msg("price fetch failed")
		if errors.Is(err, analysis.ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", ticker, err)
	}
	series, err := analysis.Normalize(table, ticker)
	if err != nil {
		log.Info().Err(err).Msg("no usable prices")
		return nil, err
	}
	metrics, err := analysis.Compute(series, d.opts.Params)
	if err != nil {
		log.Info().Err(err).Int("observations", series.Len()).Msg("cannot compute metrics")
		return nil, err
	}
	category := analysis.Classify(metrics.Volatility, d.opts.Params.Thresholds)

	a := &Analysis{
		RunID:    runID,
		Ticker:   ticker,
		Start:    req.Start,
		End:      req.End,
		Metrics:  metrics,
		Category: category,
		Selected: req.Selected,
		Profile:  d.Profile(d.opts.ProfileSource.Pick(category, req.Selected)),
		Advice:   advisor.Advise(ticker, category, req.Selected, metrics, d.opts.Rules),
		Badge:    advisor.Fit(category, req.Selected, metrics.SharpeRatio, d.opts.Rules),
		Gauge:    advisor.GaugeColor(metrics.Volatility, d.opts.Params.Thresholds),
		Series:   series,
		Records:  table.Records(ticker),
	}
	log.Info().Str("category", category.String()).Float64("volatility", metrics.Volatility).
		Float64("sharpe", metrics.SharpeRatio).Int("observations", metrics.Observations).Msg("analysis complete")
	return a, nil
}

// Comparison is one row of a comparison; exactly one of Analysis and Err is set.
type Comparison struct {
	Ticker   string
	Analysis *Analysis
	Err      error
}

// Compare runs Analyze independently per ticker, at most CompareLimit at a time.
// A failing ticker does not affect the others; rows keep the input order.
// Once ctx is done, rows not yet started carry ctx's error.
func (d *Dashboard) Compare(ctx context.Context, tickers []string, start, end time.Time, selected analysis.RiskCategory) []Comparison {
	out := make([]Comparison, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.CompareLimit)
	for i, t := range tickers {
		g.Go(func() error {
			sym := strings.ToUpper(strings.TrimSpace(t))
			if err := gctx.Err(); err != nil {
				out[i] = Comparison{Ticker: sym, Err: err}
				return err
			}
			a, err := d.Analyze(gctx, AnalyzeRequest{Ticker: t, Start: start, End: end, Selected: selected})
			out[i] = Comparison{Ticker: sym, Analysis: a, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.logger.Warn().Err(err).Strs("tickers", tickers).Msg("comparison cancelled")
	}
	return out
}

// News returns headlines, degrading to none when the source fails.
func (d *Dashboard) News(ctx context.Context, ticker string, limit int) []finance.NewsItem {
	if d.news == nil {
		return nil
	}
	items, err := d.news.Headlines(ctx, strings.ToUpper(strings.TrimSpace(ticker)), limit)
	if err != nil {
		d.logger.Warn().Err(err).Str("ticker", ticker).Msg("news unavailable")
		return nil
	}
	return items
}
