package state

import (
	"database/sql"
	"errors"
	"time"
)

// PlayRecord is one lesson's listening history.
type PlayRecord struct {
	LessonID   string
	LessonName string
	Position   time.Duration
	PlayCount  int
	Session    string
	PlayedAt   time.Time
}

// RecordPosition stores the last position reached in a lesson. PlayCount
// increases once per distinct Session.
func (m *Manager) RecordPosition(rec PlayRecord) error {
	return recordPosition(m.db, rec)
}

// History returns the most recently played lessons first. limit <= 0 means all.
func (m *Manager) History(limit int) ([]PlayRecord, error) {
	return getHistory(m.db, limit)
}

// LastPosition returns where the listener left lessonID, if known.
func (m *Manager) LastPosition(lessonID string) (time.Duration, bool, error) {
	var seconds float64
	row := m.db.QueryRow(`SELECT last_position FROM play_history WHERE lesson_id = ?`, lessonID)
	err := row.Scan(&seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return secondsToDuration(seconds), true, nil
}

func recordPosition(db *sql.DB, rec PlayRecord) error {
	if rec.LessonID == "" {
		return errors.New("record position: empty lesson id")
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}
	if rec.Position < 0 {
		rec.Position = 0
	}

	_, err := db.Exec(`
		INSERT INTO play_history (lesson_id, lesson_name, last_position, play_count, last_session, last_played_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(lesson_id) DO UPDATE SET
			lesson_name = CASE WHEN excluded.lesson_name <> '' THEN excluded.lesson_name ELSE play_history.lesson_name END,
			last_position = excluded.last_position,
			play_count = play_history.play_count +
				CASE WHEN play_history.last_session = excluded.last_session THEN 0 ELSE 1 END,
			last_session = excluded.last_session,
			last_played_at = excluded.last_played_at
	`, rec.LessonID, rec.LessonName, rec.Position.Seconds(), rec.Session, rec.PlayedAt.Unix())
	return err
}

func getHistory(db *sql.DB, limit int) ([]PlayRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT lesson_id, lesson_name, last_position, play_count, last_session, last_played_at
		FROM play_history
		ORDER BY last_played_at DESC, lesson_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PlayRecord
	for rows.Next() {
		var rec PlayRecord
		var seconds float64
		var playedAt int64
		if err := rows.Scan(&rec.LessonID, &rec.LessonName, &seconds, &rec.PlayCount, &rec.Session, &playedAt); err != nil {
			return nil, err
		}
		rec.Position = secondsToDuration(seconds)
		rec.PlayedAt = time.Unix(playedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Millisecond)
}
