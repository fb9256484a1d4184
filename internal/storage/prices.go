package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"investopal/internal/analysis"
)

// wireTable is the JSON form of a price table; map keys are structs so
// columns travel as a list.
type wireTable struct {
	Index   []int64      `json:"index"`
	Columns []wireColumn `json:"columns"`
}

type wireColumn struct {
	Field  string     `json:"field"`
	Ticker string     `json:"ticker,omitempty"`
	Values []*float64 `json:"values"`
}

func encodeTable(t analysis.PriceTable) ([]byte, error) {
	w := wireTable{Index: make([]int64, len(t.Index))}
	for i, ts := range t.Index {
		w.Index[i] = ts.Unix()
	}
	for k, v := range t.Columns {
		w.Columns = append(w.Columns, wireColumn{Field: k.Field, Ticker: k.Ticker, Values: v})
	}
	sort.Slice(w.Columns, func(i, j int) bool {
		if w.Columns[i].Field != w.Columns[j].Field {
			return w.Columns[i].Field < w.Columns[j].Field
		}
		return w.Columns[i].Ticker < w.Columns[j].Ticker
	})
	return json.Marshal(w)
}

func decodeTable(b []byte) (analysis.PriceTable, error) {
	var w wireTable
	if err := json.Unmarshal(b, &w); err != nil {
		return analysis.PriceTable{}, err
	}
	t := analysis.PriceTable{
		Index:   make([]time.Time, len(w.Index)),
		Columns: make(map[analysis.ColumnKey][]*float64, len(w.Columns)),
	}
	for i, ts := range w.Index {
		t.Index[i] = time.Unix(ts, 0).UTC()
	}
	for _, c := range w.Columns {
		t.Columns[analysis.ColumnKey{Field: c.Field, Ticker: c.Ticker}] = c.Values
	}
	return t, nil
}

// SavePriceTable stores the raw provider table under its fetch fingerprint.
func (s *Store) SavePriceTable(fingerprint string, t analysis.PriceTable) error {
	payload, err := encodeTable(t)
	if err != nil {
		return fmt.Errorf("failed to encode price table: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO price_cache(fingerprint,payload,fetched_at) VALUES(?,?,?)
		ON CONFLICT(fingerprint) DO UPDATE SET payload=excluded.payload, fetched_at=excluded.fetched_at`,
		fingerprint, payload, s.now().Unix())
	return err
}

// LoadPriceTable returns the cached table when it is younger than maxAge.
func (s *Store) LoadPriceTable(fingerprint string, maxAge time.Duration) (analysis.PriceTable, bool, error) {
	var payload []byte
	var fetchedAt int64
	err := s.db.QueryRow(`SELECT payload, fetched_at FROM price_cache WHERE fingerprint=?`, fingerprint).
		Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.PriceTable{}, false, nil
	}
	if err != nil {
		return analysis.PriceTable{}, false, err
	}
	if s.now().Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return analysis.PriceTable{}, false, nil
	}
	t, err := decodeTable(payload)
	if err != nil {
		return analysis.PriceTable{}, false, fmt.Errorf("failed to decode cached price table %s: %w", fingerprint, err)
	}
	return t, true, nil
}

// PurgePriceCache drops entries older than maxAge and reports how many went.
func (s *Store) PurgePriceCache(maxAge time.Duration) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM price_cache WHERE fetched_at < ?`, s.now().Add(-maxAge).Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
