package storage

import (
	"database/sql"
	"errors"
	"time"
)

// ChatPrefs are the per-chat inputs of the projection and analysis commands.
type ChatPrefs struct {
	ChatID       int64
	Risk         string
	Amount       float64
	Contribution float64
	Years        int
	UpdatedAt    time.Time
}

func (s *Store) SavePrefs(p ChatPrefs) error {
	_, err := s.db.Exec(`INSERT INTO chat_prefs(chat_id,risk,amount,contribution,years,updated_at) VALUES(?,?,?,?,?,?)
		ON CONFLICT(chat_id) DO UPDATE SET risk=excluded.risk, amount=excluded.amount,
		contribution=excluded.contribution, years=excluded.years, updated_at=excluded.updated_at`,
		p.ChatID, p.Risk, p.Amount, p.Contribution, p.Years, s.now().Unix())
	return err
}

// LoadPrefs reports ok=false when the chat never saved preferences.
func (s *Store) LoadPrefs(chatID int64) (ChatPrefs, bool, error) {
	p := ChatPrefs{ChatID: chatID}
	var updated int64
	err := s.db.QueryRow(`SELECT risk, amount, contribution, years, updated_at FROM chat_prefs WHERE chat_id=?`, chatID).
		Scan(&p.Risk, &p.Amount, &p.Contribution, &p.Years, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return ChatPrefs{ChatID: chatID}, false, nil
	}
	if err != nil {
		return ChatPrefs{}, false, err
	}
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, true, nil
}
