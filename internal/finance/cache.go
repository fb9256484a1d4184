package finance

import (
	"context"
	"strings"
	"sync"
	"time"

	"investopal/internal/analysis"
	"investopal/internal/logging"
)

type memoEntry[V any] struct {
	createdAt time.Time
	value     V
}

// memo is a TTL map guarded by a mutex.
type memo[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoEntry[V]
}

func newMemo[V any](ttl time.Duration) *memo[V] {
	return &memo[V]{ttl: ttl, now: time.Now, entries: map[string]memoEntry[V]{}}
}

func (m *memo[V]) get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[key]; ok {
		if m.now().Before(entry.createdAt.Add(m.ttl)) {
			return entry.value, true
		}
		delete(m.entries, key)
	}
	var zero V
	return zero, false
}

func (m *memo[V]) set(key string, v V) {
	m.mu.Lock()
	m.entries[key] = memoEntry[V]{createdAt: m.now(), value: v}
	m.mu.Unlock()
}

// Fingerprint identifies one fetch: upper-cased ticker plus the calendar days of the range.
func Fingerprint(ticker string, start, end time.Time) string {
	return strings.ToUpper(strings.TrimSpace(ticker)) + "|" + start.UTC().Format("2006-01-02") + "|" + end.UTC().Format("2006-01-02")
}

// PriceStore persists raw price tables between restarts.
type PriceStore interface {
	LoadPriceTable(fingerprint string, maxAge time.Duration) (analysis.PriceTable, bool, error)
	SavePriceTable(fingerprint string, t analysis.PriceTable) error
}

// CachedMarket memoizes a PriceSource by fingerprint, first in memory and then in store.
// Returned tables are shared; callers must not mutate them.
type CachedMarket struct {
	src    PriceSource
	store  PriceStore
	ttl    time.Duration
	mem    *memo[analysis.PriceTable]
	logger *logging.Logger
}

// NewCachedMarket wraps src. store may be nil.
func NewCachedMarket(src PriceSource, store PriceStore, ttl time.Duration, logger *logging.Logger) *CachedMarket {
	return &CachedMarket{
		src:    src,
		store:  store,
		ttl:    ttl,
		mem:    newMemo[analysis.PriceTable](ttl),
		logger: logger.Component("market_cache"),
	}
}

func (c *CachedMarket) PriceTable(ctx context.Context, ticker string, start, end time.Time) (analysis.PriceTable, error) {
	key := Fingerprint(ticker, start, end)
	if t, ok := c.mem.get(key); ok {
		c.logger.Debug().Str("key", key).Msg("memory hit")
		return t, nil
	}
	if c.store != nil {
		t, ok, err := c.store.LoadPriceTable(key, c.ttl)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("price cache read failed")
		} else if ok {
			c.logger.Debug().Str("key", key).Msg("store hit")
			c.mem.set(key, t)
			return t, nil
		}
	}

	t, err := c.src.PriceTable(ctx, ticker, start, end)
	if err != nil {
		return analysis.PriceTable{}, err
	}
	c.mem.set(key, t)
	if c.store != nil {
		if err := c.store.SavePriceTable(key, t); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("price cache write failed")
		}
	}
	return t, nil
}
