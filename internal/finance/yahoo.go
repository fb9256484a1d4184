package finance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"investopal/internal/analysis"
	"investopal/internal/logging"
)

var defaultYahooHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// YahooClient fetches daily bars from the Yahoo chart API, rotating hosts and
// falling back to the spark endpoint when the chart endpoint keeps failing.
type YahooClient struct {
	httpClient *http.Client
	hosts      []string
	backoffs   []time.Duration
	limiter    *rate.Limiter
	logger     *logging.Logger
}

type YahooOption func(*YahooClient)

func WithHTTPClient(c *http.Client) YahooOption {
	return func(y *YahooClient) { y.httpClient = c }
}

// WithHosts replaces the base URLs tried in order on every attempt.
func WithHosts(hosts ...string) YahooOption {
	return func(y *YahooClient) { y.hosts = hosts }
}

func WithBackoffs(b ...time.Duration) YahooOption {
	return func(y *YahooClient) { y.backoffs = b }
}

func WithLimiter(l *rate.Limiter) YahooOption {
	return func(y *YahooClient) { y.limiter = l }
}

func NewYahooClient(logger *logging.Logger, opts ...YahooOption) *YahooClient {
	y := &YahooClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		hosts:      defaultYahooHosts,
		backoffs:   []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(120*time.Millisecond), 2),
		logger:     logger.Component("yahoo"),
	}
	for _, o := range opts {
		o(y)
	}
	return y
}

// PriceTable returns daily Close, Adj Close and Volume columns for ticker.
func (y *YahooClient) PriceTable(ctx context.Context, ticker string, start, end time.Time) (analysis.PriceTable, error) {
	sym := strings.ToUpper(strings.TrimSpace(ticker))
	path := fmt.Sprintf("/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div,splits",
		url.PathEscape(sym), start.Unix(), end.Unix())

	var yc yahooChartResp
	err := y.getJSON(ctx, sym, path, &yc)
	if err == nil {
		return chartTable(sym, &yc)
	}
	if errors.Is(err, analysis.ErrDataUnavailable) || ctx.Err() != nil {
		return analysis.PriceTable{}, err
	}

	y.logger.Warn().Err(err).Str("ticker", sym).Msg("chart endpoint failed, trying spark")
	sparkPath := fmt.Sprintf("/v7/finance/spark?symbols=%s&range=%s&interval=1d",
		url.QueryEscape(sym), rangeFor(start, time.Now()))
	var sp yahooSparkResp
	if serr := y.getJSON(ctx, sym, sparkPath, &sp); serr != nil {
		return analysis.PriceTable{}, fmt.Errorf("failed to fetch %s: %w", sym, err)
	}
	return sparkTable(sym, &sp, start, end)
}

// getJSON tries every host per attempt and backs off between attempts.
// A 404 maps to ErrDataUnavailable and is not retried.
func (y *YahooClient) getJSON(ctx context.Context, symbol, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt < len(y.backoffs)+1; attempt++ {
		for _, host := range y.hosts {
			if err := y.limiter.Wait(ctx); err != nil {
				return err
			}
			body, err := y.get(ctx, host+path, symbol)
			if err == nil {
				if err = json.Unmarshal(body, out); err == nil {
					return nil
				}
				err = fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
			}
			if errors.Is(err, analysis.ErrDataUnavailable) {
				return err
			}
			lastErr = err
			y.logger.Debug().Err(err).Str("host", host).Int("attempt", attempt).Msg("yahoo request failed")
		}
		if attempt < len(y.backoffs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(y.backoffs[attempt]):
			}
		}
	}
	return lastErr
}

func (y *YahooClient) get(ctx context.Context, rawURL, symbol string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", symbol))
	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", readErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", req.URL.Host)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: yahoo has no symbol %s", analysis.ErrDataUnavailable, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s returned %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	return body, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

func chartTable(sym string, yc *yahooChartResp) (analysis.PriceTable, error) {
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Timestamp) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return analysis.PriceTable{}, fmt.Errorf("%w: no rows for %s", analysis.ErrDataUnavailable, sym)
	}
	r := yc.Chart.Result[0]
	table := analysis.PriceTable{
		Index:   unixIndex(r.Timestamp),
		Columns: map[analysis.ColumnKey][]*float64{},
	}
	q := r.Indicators.Quote[0]
	table.Columns[analysis.ColumnKey{Field: analysis.FieldClose}] = q.Close
	if len(q.Volume) > 0 {
		table.Columns[analysis.ColumnKey{Field: analysis.FieldVolume}] = q.Volume
	}
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0 {
		table.Columns[analysis.ColumnKey{Field: analysis.FieldAdjClose}] = r.Indicators.AdjClose[0].AdjClose
	}
	return table, nil
}

// sparkTable keeps only rows inside [start, end]; spark returns close only,
// keyed by the symbol it was asked for.
func sparkTable(sym string, sp *yahooSparkResp, start, end time.Time) (analysis.PriceTable, error) {
	for _, res := range sp.Spark.Result {
		if !strings.EqualFold(res.Symbol, sym) || len(res.Response) == 0 {
			continue
		}
		r := res.Response[0]
		if len(r.Indicators.Quote) == 0 {
			break
		}
		cl := r.Indicators.Quote[0].Close
		var idx []time.Time
		var cells []*float64
		for i, ts := range r.Timestamp {
			t := time.Unix(ts, 0).UTC()
			if t.Before(start) || t.After(end) || i >= len(cl) {
				continue
			}
			idx = append(idx, t)
			cells = append(cells, cl[i])
		}
		if len(idx) == 0 {
			break
		}
		return analysis.PriceTable{
			Index:   idx,
			Columns: map[analysis.ColumnKey][]*float64{{Field: analysis.FieldClose, Ticker: sym}: cells},
		}, nil
	}
	return analysis.PriceTable{}, fmt.Errorf("%w: no spark rows for %s", analysis.ErrDataUnavailable, sym)
}

func unixIndex(ts []int64) []time.Time {
	out := make([]time.Time, len(ts))
	for i, t := range ts {
		out[i] = time.Unix(t, 0).UTC()
	}
	return out
}

// rangeFor picks the smallest Yahoo range covering start..now.
func rangeFor(start, now time.Time) string {
	days := int(now.Sub(start).Hours() / 24)
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 182:
		return "6mo"
	case days <= 366:
		return "1y"
	case days <= 731:
		return "2y"
	case days <= 1827:
		return "5y"
	case days <= 3653:
		return "10y"
	default:
		return "max"
	}
}
