package finance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"investopal/internal/logging"
)

// NewsSource returns up to limit headlines for ticker.
type NewsSource interface {
	Headlines(ctx context.Context, ticker string, limit int) ([]NewsItem, error)
}

// NormalizeNews maps loosely-shaped provider items to NewsItem, filling defaults
// for missing fields. At most limit items are kept (limit <= 0 keeps all).
func NormalizeNews(raw []map[string]any, limit int) []NewsItem {
	out := make([]NewsItem, 0, len(raw))
	for _, item := range raw {
		if limit > 0 && len(out) >= limit {
			break
		}
		if item == nil {
			continue
		}
		out = append(out, NewsItem{
			Title:     firstString(item, "No title", "title", "headline", "summary"),
			Link:      firstString(item, "#", "link", "url"),
			Publisher: firstString(item, "Unknown", "publisher", "source"),
			Published: publishTime(item),
		})
	}
	return out
}

func firstString(item map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			// NewsAPI nests the publisher as source.name
			if s, ok := v["name"].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return fallback
}

func publishTime(item map[string]any) time.Time {
	for _, k := range []string{"providerPublishTime", "pubDate", "publishedAt"} {
		switch v := item[k].(type) {
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// YahooNews reads headlines from the Yahoo search endpoint.
type YahooNews struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logging.Logger
}

func NewYahooNews(baseURL string, logger *logging.Logger) *YahooNews {
	if baseURL == "" {
		baseURL = defaultYahooHosts[1]
	}
	return &YahooNews{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		logger:     logger.Component("yahoo_news"),
	}
}

func (n *YahooNews) Headlines(ctx context.Context, ticker string, limit int) ([]NewsItem, error) {
	q := url.Values{}
	q.Set("q", strings.ToUpper(ticker))
	q.Set("quotesCount", "0")
	q.Set("newsCount", fmt.Sprint(limit))
	var resp yahooSearchResp
	if err := fetchNewsJSON(ctx, n.httpClient, n.limiter, n.baseURL+"/v1/finance/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", ticker, err)
	}
	return NormalizeNews(resp.News, limit), nil
}

// NewsAPI reads headlines from newsapi.org.
type NewsAPI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

func NewNewsAPI(baseURL, apiKey string) *NewsAPI {
	if baseURL == "" {
		baseURL = "https://newsapi.org"
	}
	return &NewsAPI{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (n *NewsAPI) Headlines(ctx context.Context, ticker string, limit int) ([]NewsItem, error) {
	q := url.Values{}
	q.Set("q", strings.ToUpper(ticker))
	q.Set("sortBy", "relevancy")
	q.Set("pageSize", fmt.Sprint(limit))
	var resp newsAPIResp
	hdr := http.Header{"X-Api-Key": []string{n.apiKey}}
	if err := fetchNewsJSON(ctx, n.httpClient, n.limiter, n.baseURL+"/v2/everything?"+q.Encode(), hdr, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", ticker, err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", resp.Code, resp.Message)
	}
	return NormalizeNews(resp.Articles, limit), nil
}

func fetchNewsJSON(ctx context.Context, c *http.Client, l *rate.Limiter, rawURL string, hdr http.Header, out any) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "application/json")
	for k, v := range hdr {
		req.Header[k] = v
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// newsapi reports errors with a JSON body and a non-200 status
	if resp.StatusCode != http.StatusOK && !strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		return fmt.Errorf("%s returned %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse news json: %v; body: %s", err, preview(body))
	}
	return nil
}

// FallbackNews asks each source in turn and degrades to an empty list.
type FallbackNews struct {
	sources []NewsSource
	logger  *logging.Logger
}

func NewFallbackNews(logger *logging.Logger, sources ...NewsSource) *FallbackNews {
	return &FallbackNews{sources: sources, logger: logger.Component("news")}
}

func (f *FallbackNews) Headlines(ctx context.Context, ticker string, limit int) ([]NewsItem, error) {
	for _, s := range f.sources {
		items, err := s.Headlines(ctx, ticker, limit)
		if err != nil {
			f.logger.Warn().Err(err).Str("ticker", ticker).Msg("news source failed")
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	return []NewsItem{}, nil
}
