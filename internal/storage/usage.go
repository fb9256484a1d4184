package storage

import (
	"time"

	"github.com/google/uuid"
)

// UsageStats aggregates one category.
type UsageStats struct {
	Count    int
	Commands map[string]int
}

// TimeSeriesPoint is the event count of one bucket, keyed by bucket start.
type TimeSeriesPoint struct {
	Timestamp int64
	Count     int
}

// RecordUsage stores one handled command.
func (s *Store) RecordUsage(chatID int64, command, category string, ts time.Time) error {
	_, err := s.db.Exec(`INSERT INTO usage_events(id,chat_id,command,category,ts) VALUES(?,?,?,?,?)`,
		uuid.NewString(), chatID, command, category, ts.Unix())
	return err
}

func (s *Store) UsageStats(since time.Time) (map[string]*UsageStats, error) {
	rows, err := s.db.Query(`SELECT category, command, COUNT(*) FROM usage_events WHERE ts>=? GROUP BY category, command`,
		since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]*UsageStats{}
	for rows.Next() {
		var category, command string
		var n int
		if err := rows.Scan(&category, &command, &n); err != nil {
			return nil, err
		}
		st, ok := out[category]
		if !ok {
			st = &UsageStats{Commands: map[string]int{}}
			out[category] = st
		}
		st.Count += n
		st.Commands[command] += n
	}
	return out, rows.Err()
}

// UsageSeries buckets events per category into bucketSeconds-wide slots.
func (s *Store) UsageSeries(since time.Time, bucketSeconds int64) (map[string][]TimeSeriesPoint, error) {
	if bucketSeconds <= 0 {
		bucketSeconds = 86400
	}
	rows, err := s.db.Query(`SELECT category, (ts / ?) * ? AS bucket, COUNT(*) FROM usage_events
		WHERE ts>=? GROUP BY category, bucket ORDER BY bucket ASC`,
		bucketSeconds, bucketSeconds, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]TimeSeriesPoint{}
	for rows.Next() {
		var category string
		var p TimeSeriesPoint
		if err := rows.Scan(&category, &p.Timestamp, &p.Count); err != nil {
			return nil, err
		}
		out[category] = append(out[category], p)
	}
	return out, rows.Err()
}
