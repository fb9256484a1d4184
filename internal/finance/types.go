package finance

import (
	"context"
	"time"

	"investopal/internal/analysis"
)

// PriceSource produces a raw daily price table for one ticker over [start, end].
type PriceSource interface {
	PriceTable(ctx context.Context, ticker string, start, end time.Time) (analysis.PriceTable, error)
}

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields).
// Cells are pointers because Yahoo reports halted or missing bars as null.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GmtOffset int    `json:"gmtoffset"`
				Timezone  string `json:"timezone"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooSparkResp mirrors Yahoo v7 spark fallback (trimmed)
type yahooSparkResp struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"response"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"spark"`
}

// yahooSearchResp is the news part of the v1 search endpoint.
type yahooSearchResp struct {
	News []map[string]any `json:"news"`
}

type newsAPIResp struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []map[string]any `json:"articles"`
}

// NewsItem is one normalized headline.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Publisher string    `json:"publisher"`
	Published time.Time `json:"published,omitempty"`
}

// PublishedLabel renders the publish time in Eastern time, or "" when unknown.
func (n NewsItem) PublishedLabel() string {
	if n.Published.IsZero() {
		return ""
	}
	return n.Published.In(easternLocation()).Format("2006-01-02 15:04")
}
