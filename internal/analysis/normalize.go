package analysis

import (
	"fmt"
	"math"
	"sort"
)

// column returns the column for field, preferring the ticker-decorated key.
func (t PriceTable) column(field, ticker string) ([]*float64, bool) {
	if ticker != "" {
		if col, ok := t.Columns[ColumnKey{Field: field, Ticker: ticker}]; ok {
			return col, true
		}
	}
	col, ok := t.Columns[ColumnKey{Field: field}]
	return col, ok
}

func cell(col []*float64, i int) *float64 {
	if i >= len(col) {
		return nil
	}
	return col[i]
}

// Records resolves the raw columns for ticker into fixed-schema rows, one per index entry.
func (t PriceTable) Records(ticker string) []PriceRecord {
	adj, _ := t.column(FieldAdjClose, ticker)
	cl, _ := t.column(FieldClose, ticker)
	vol, _ := t.column(FieldVolume, ticker)
	out := make([]PriceRecord, len(t.Index))
	for i, ts := range t.Index {
		out[i] = PriceRecord{
			Time:     ts,
			AdjClose: cell(adj, i),
			Close:    cell(cl, i),
			Volume:   cell(vol, i),
		}
	}
	return out
}

// priceField picks the field used for the whole series: adjusted close, then close.
func (t PriceTable) priceField(ticker string) (string, bool) {
	if _, ok := t.column(FieldAdjClose, ticker); ok {
		return FieldAdjClose, true
	}
	if _, ok := t.column(FieldClose, ticker); ok {
		return FieldClose, true
	}
	return "", false
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Normalize extracts one clean price series for ticker. Missing or invalid cells are
// dropped, never interpolated. Any table that yields no usable point is ErrDataUnavailable.
func Normalize(t PriceTable, ticker string) (PriceSeries, error) {
	if len(t.Index) == 0 || len(t.Columns) == 0 {
		return nil, fmt.Errorf("%w: empty price table for %q", ErrDataUnavailable, ticker)
	}
	field, ok := t.priceField(ticker)
	if !ok {
		return nil, fmt.Errorf("%w: no %q or %q column for %q", ErrDataUnavailable, FieldAdjClose, FieldClose, ticker)
	}

	records := t.Records(ticker)
	series := make(PriceSeries, 0, len(records))
	for _, r := range records {
		v := r.AdjClose
		if field == FieldClose {
			v = r.Close
		}
		if v == nil || !validPrice(*v) || r.Time.IsZero() {
			continue
		}
		series = append(series, PricePoint{Time: r.Time, Price: *v})
	}

	sort.SliceStable(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	out := series[:0]
	for i, p := range series {
		if i > 0 && p.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid %s prices for %q", ErrDataUnavailable, field, ticker)
	}
	return out, nil
}
