package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investopal/internal/analysis"
	"investopal/internal/config"
	"investopal/internal/dashboard"
	"investopal/internal/logging"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

type fakeMarket map[string]analysis.PriceTable

func (m fakeMarket) PriceTable(_ context.Context, ticker string, _, _ time.Time) (analysis.PriceTable, error) {
	if ticker == "DOWN" {
		return analysis.PriceTable{}, errors.New("connection reset")
	}
	t, ok := m[ticker]
	if !ok {
		return analysis.PriceTable{}, analysis.ErrDataUnavailable
	}
	return t, nil
}

func closeTable(prices ...float64) analysis.PriceTable {
	t := analysis.PriceTable{Columns: map[analysis.ColumnKey][]*float64{}}
	var cells []*float64
	for i, p := range prices {
		t.Index = append(t.Index, day0.AddDate(0, 0, i))
		cells = append(cells, &p)
	}
	t.Columns[analysis.ColumnKey{Field: analysis.FieldClose}] = cells
	return t
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.NewDefaultConfig()
	market := fakeMarket{
		"AAPL": closeTable(100, 110, 105, 115, 120),
		"MSFT": closeTable(300, 303, 306, 309, 312),
		"ONE":  closeTable(42),
	}
	dash, err := dashboard.New(market, nil, dashboard.OptionsFromConfig(cfg), logging.NewSilent())
	require.NoError(t, err)
	srv := httptest.NewServer(NewHTTPMux(nil, NewAPI(dash, cfg.Defaults, logging.NewSilent())))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthzAndNoWebhook(t *testing.T) {
	srv := newServer(t)
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/telegram/webhook", nil))
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newServer(t)
	var got analysisResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/analyze?ticker=aapl&profile=aggressive", &got))

	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, "2024-01-02", got.Start)
	assert.Equal(t, "2024-01-06", got.End)
	assert.InDelta(t, 0.2, got.TotalReturn, 1e-9)
	assert.Equal(t, "Aggressive", got.Category)
	assert.Equal(t, "Aggressive", got.Selected)
	assert.Equal(t, "red", got.Gauge)
	assert.Equal(t, "Aggressive", got.Profile.Name)
	assert.Len(t, got.Stats, 5)
	assert.Empty(t, got.Rolling)
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name, query string
		status      int
		code        string
	}{
		{"unavailable", "ticker=NOPE", http.StatusUnprocessableEntity, "unavailable"},
		{"short history", "ticker=ONE", http.StatusUnprocessableEntity, "unavailable"},
		{"upstream", "ticker=DOWN", http.StatusBadGateway, "upstream"},
		{"missing ticker", "", http.StatusBadRequest, "bad_request"},
		{"bad profile", "ticker=AAPL&profile=yolo", http.StatusBadRequest, "bad_request"},
		{"bad window", "ticker=AAPL&window=soon", http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e errorResponse
			assert.Equal(t, tt.status, getJSON(t, srv.URL+"/api/analyze?"+tt.query, &e))
			assert.Equal(t, tt.code, e.Error)
		})
	}
}

func TestAnalyzeRejectsPost(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Post(srv.URL+"/api/analyze?ticker=AAPL", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCompareEndpoint(t *testing.T) {
	srv := newServer(t)
	var rows []compareRow
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/compare?tickers=msft,%20AAPL,NOPE,msft&window=6m", &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "MSFT", rows[0].Ticker)
	assert.InDelta(t, 0.04, rows[0].Analysis.TotalReturn, 1e-9)
	assert.Equal(t, "AAPL", rows[1].Ticker)
	assert.Nil(t, rows[2].Analysis)
	assert.Contains(t, rows[2].Error, "No data available")

	var e errorResponse
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/compare?tickers=", &e))
}

func TestProjectEndpoint(t *testing.T) {
	srv := newServer(t)
	var p projectionResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/project?initial=1000&contribution=100&years=2&rate=0", &p))
	assert.InDelta(t, 3400, p.Final, 1e-9)
	assert.InDelta(t, 3400, p.Contributed, 1e-9)
	assert.Len(t, p.Trajectory, 25)
	assert.Len(t, p.Yearly, 2)
	assert.Equal(t, "Conservative", p.Profile)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/project?profile=moderate", &p))
	assert.Equal(t, 0.08, p.AnnualRate)
	assert.Equal(t, 15, p.Years)
	assert.Equal(t, 50000.0, p.Initial)
}

func TestProjectEndpointCSV(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/project?initial=1000&contribution=0&years=1&rate=0&format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 14)
	assert.Equal(t, "Period,Value", lines[0])
	assert.Equal(t, "12,1000.00", lines[13])
}

func TestProjectEndpointRejects(t *testing.T) {
	srv := newServer(t)
	for _, q := range []string{"initial=-5", "years=-1", "contribution=abc", "years=x", "rate=%25",
		"years=51", "years=20000000000", "years=1537228672809129302"} {
		var e errorResponse
		assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/project?"+q, &e), q)
		assert.Equal(t, "invalid_input", e.Error, q)
	}
}

func TestProfilesEndpoint(t *testing.T) {
	srv := newServer(t)
	var ps []config.Profile
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/profiles", &ps))
	require.Len(t, ps, 3)
	assert.Equal(t, "Moderate", ps[1].Name)
	assert.Equal(t, []string{"GOOGL", "AMZN", "NVDA"}, ps[1].Examples)
}
