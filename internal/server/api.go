package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"investopal/internal/analysis"
	"investopal/internal/config"
	"investopal/internal/dashboard"
	"investopal/internal/finance"
	"investopal/internal/logging"
	"investopal/internal/report"
)

// API serves the dashboard over JSON.
type API struct {
	dash     *dashboard.Dashboard
	defaults config.DefaultsConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewAPI(dash *dashboard.Dashboard, defaults config.DefaultsConfig, logger *logging.Logger) *API {
	return &API{dash: dash, defaults: defaults, logger: logger.Component("http"), now: time.Now}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type rollingPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type analysisResponse struct {
	RunID         string         `json:"run_id"`
	Ticker        string         `json:"ticker"`
	Start         string         `json:"start"`
	End           string         `json:"end"`
	Observations  int            `json:"observations"`
	Volatility    float64        `json:"volatility"`
	AverageReturn float64        `json:"average_return"`
	SharpeRatio   float64        `json:"sharpe_ratio"`
	MaxDrawdown   float64        `json:"max_drawdown"`
	TotalReturn   float64        `json:"total_return"`
	LastPrice     float64        `json:"last_price"`
	Stats         []report.Row   `json:"stats"`
	Category      string         `json:"category"`
	Selected      string         `json:"selected"`
	Profile       config.Profile `json:"profile"`
	Advice        []string       `json:"advice"`
	Badge         string         `json:"badge"`
	Gauge         string         `json:"gauge"`
	Rolling       []rollingPoint `json:"rolling_volatility"`
}

type compareRow struct {
	Ticker   string            `json:"ticker"`
	Analysis *analysisResponse `json:"analysis,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type projectionResponse struct {
	Profile      string    `json:"profile"`
	Initial      float64   `json:"initial"`
	Contribution float64   `json:"contribution"`
	AnnualRate   float64   `json:"annual_rate"`
	Years        int       `json:"years"`
	Final        float64   `json:"final"`
	Contributed  float64   `json:"contributed"`
	Gain         float64   `json:"gain"`
	Yearly       []float64 `json:"yearly"`
	Trajectory   []float64 `json:"trajectory"`
}

func toResponse(a *dashboard.Analysis) *analysisResponse {
	m := a.Metrics
	out := &analysisResponse{
		RunID:         a.RunID,
		Ticker:        a.Ticker,
		Start:         m.Start.Format(time.DateOnly),
		End:           m.End.Format(time.DateOnly),
		Observations:  m.Observations,
		Volatility:    m.Volatility,
		AverageReturn: m.AverageReturn,
		SharpeRatio:   m.SharpeRatio,
		MaxDrawdown:   m.MaxDrawdown,
		TotalReturn:   m.TotalReturn,
		LastPrice:     m.LastPrice,
		Stats:         report.StatsTable(m),
		Category:      a.Category.String(),
		Selected:      a.Selected.String(),
		Profile:       a.Profile,
		Advice:        a.Advice,
		Badge:         a.Badge.String(),
		Gauge:         string(a.Gauge),
		Rolling:       []rollingPoint{},
	}
	for _, p := range m.RollingVolatility {
		if p.Valid {
			out.Rolling = append(out.Rolling, rollingPoint{Date: p.Time.Format(time.DateOnly), Value: p.Value})
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorResponse{Error: code, Message: report.ErrorMessage(err)})
}

// writePipelineError maps pipeline errors onto HTTP statuses.
func (a *API) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrDataUnavailable), errors.Is(err, analysis.ErrInsufficientHistory):
		writeError(w, http.StatusUnprocessableEntity, "unavailable", err)
	case errors.Is(err, analysis.ErrInvalidProjectionInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	default:
		a.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusBadGateway, "upstream", err)
	}
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed", Message: "use GET"})
		return false
	}
	return true
}

func (a *API) selected(r *http.Request) (analysis.RiskCategory, error) {
	name := r.URL.Query().Get("profile")
	if name == "" {
		name = a.defaults.Risk
	}
	return analysis.ParseRiskCategory(name)
}

func (a *API) window(r *http.Request) (finance.Window, error) {
	expr := r.URL.Query().Get("window")
	if expr == "" {
		expr = a.defaults.Window
	}
	return finance.ResolveWindow(expr, a.now())
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "ticker is required"})
		return
	}
	sel, err := a.selected(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	win, err := a.window(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	res, err := a.dash.Analyze(r.Context(), dashboard.AnalyzeRequest{Ticker: ticker, Start: win.Start, End: win.End, Selected: sel})
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (a *API) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	var tickers []string
	seen := map[string]bool{}
	for _, t := range strings.Split(r.URL.Query().Get("tickers"), ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "tickers is required"})
		return
	}
	sel, err := a.selected(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	win, err := a.window(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	rows := a.dash.Compare(r.Context(), tickers, win.Start, win.End, sel)
	out := make([]compareRow, len(rows))
	for i, row := range rows {
		out[i] = compareRow{Ticker: row.Ticker}
		if row.Err != nil {
			out[i].Error = report.ErrorMessage(row.Err)
			continue
		}
		out[i].Analysis = toResponse(row.Analysis)
	}
	writeJSON(w, http.StatusOK, out)
}

func floatParam(r *http.Request, name string, fallback float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Join(analysis.ErrInvalidProjectionInput, err)
	}
	return f, nil
}

func (a *API) handleProject(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	req := dashboard.ProjectRequest{Years: a.defaults.Years}
	var err error
	if req.Initial, err = floatParam(r, "initial", a.defaults.InvestmentAmount); err != nil {
		a.writePipelineError(w, err)
		return
	}
	if req.Contribution, err = floatParam(r, "contribution", a.defaults.MonthlyContribution); err != nil {
		a.writePipelineError(w, err)
		return
	}
	if v := r.URL.Query().Get("years"); v != "" {
		if req.Years, err = strconv.Atoi(v); err != nil {
			a.writePipelineError(w, errors.Join(analysis.ErrInvalidProjectionInput, err))
			return
		}
	}
	if v := r.URL.Query().Get("rate"); v != "" {
		rate, err := floatParam(r, "rate", 0)
		if err != nil {
			a.writePipelineError(w, err)
			return
		}
		req.AnnualRate = &rate
	}
	if req.Profile, err = a.selected(r); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	p, err := a.dash.Project(req)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="projection_trajectory.csv"`)
		if err := report.TrajectoryCSV(w, p.Trajectory); err != nil {
			a.logger.Warn().Err(err).Msg("csv write failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, projectionResponse{
		Profile:      p.Profile.Name,
		Initial:      p.Input.Initial,
		Contribution: p.Input.Contribution,
		AnnualRate:   p.Input.AnnualRate,
		Years:        req.Years,
		Final:        p.Summary.Final,
		Contributed:  p.Summary.Contributed,
		Gain:         p.Summary.Gain,
		Yearly:       p.Yearly,
		Trajectory:   p.Trajectory,
	})
}

func (a *API) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, a.dash.Profiles())
}
