package storage

import (
	"database/sql"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Close() error
}

type Store struct {
	db  DB
	now func() time.Time
}

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS price_cache(
		fingerprint TEXT PRIMARY KEY, payload BLOB NOT NULL, fetched_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_prefs(
		chat_id INTEGER PRIMARY KEY, risk TEXT NOT NULL, amount REAL NOT NULL,
		contribution REAL NOT NULL, years INTEGER NOT NULL, updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usage_events(
		id TEXT PRIMARY KEY, chat_id INTEGER, command TEXT, category TEXT, ts INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS usage_events_ts ON usage_events(ts)`,
}

func InitSchema(db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db, now: time.Now} }
