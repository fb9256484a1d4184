package analysis

import "time"

// Provider field names. Tables fetched for several symbols at once decorate
// each column with the ticker as well.
const (
	FieldAdjClose = "Adj Close"
	FieldClose    = "Close"
	FieldVolume   = "Volume"
)

// ColumnKey identifies a raw column. Ticker is empty for single-symbol tables.
type ColumnKey struct {
	Field  string
	Ticker string
}

// PriceTable is the raw provider table: a time index plus optional columns.
// A nil cell is a missing value; columns may be shorter than the index.
type PriceTable struct {
	Index   []time.Time
	Columns map[ColumnKey][]*float64
}

// PriceRecord is one resolved row with named optional fields.
type PriceRecord struct {
	Time     time.Time
	AdjClose *float64
	Close    *float64
	Volume   *float64
}

// PricePoint is a single (timestamp, price) observation.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// PriceSeries is ordered by strictly increasing time with positive finite prices.
type PriceSeries []PricePoint

// ReturnPoint is the fractional change from the previous price, stamped with the later time.
type ReturnPoint struct {
	Time   time.Time
	Return float64
}

// ReturnSeries has one entry fewer than the series it was derived from.
type ReturnSeries []ReturnPoint

// RollingPoint is one window of the rolling volatility. Valid is false until a
// full window of returns is available.
type RollingPoint struct {
	Time  time.Time
	Value float64
	Valid bool
}

// RiskMetrics is the statistics bundle for one analysis run.
type RiskMetrics struct {
	Volatility        float64 // annualized std-dev of returns
	AverageReturn     float64 // annualized mean return
	SharpeRatio       float64 // 0 when volatility is zero
	MaxDrawdown       float64 // in [-1, 0]
	TotalReturn       float64 // end over start, fraction, not annualized
	RollingVolatility []RollingPoint

	Observations   int
	Start          time.Time
	End            time.Time
	LastPrice      float64
	DailyChange    float64
	DailyChangePct float64
}

// Len returns the number of points.
func (s PriceSeries) Len() int { return len(s) }

// Prices returns the price column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Times returns the timestamp column.
func (s PriceSeries) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Values returns the raw fractional returns.
func (r ReturnSeries) Values() []float64 {
	out := make([]float64, len(r))
	for i, p := range r {
		out[i] = p.Return
	}
	return out
}
