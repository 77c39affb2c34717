package store

import (
	"database/sql"
	"time"
)

// Missed is the finger stored for a note no fingertip was over.
const Missed = -1

// Attribution is a stored note-on event.
type Attribution struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	Note           int       `json:"note"`
	NoteName       string    `json:"note_name"`
	Finger         int       `json:"finger"`
	FingerName     string    `json:"finger_name"`
	ExpectedFinger *int      `json:"expected_finger,omitempty"`
	PlayedAt       time.Time `json:"played_at"`
}

// Summary aggregates the attributions of a session.
type Summary struct {
	Total     int         `json:"total"`
	Missed    int         `json:"missed"`
	Correct   int         `json:"correct"`
	Checked   int         `json:"checked"`
	PerFinger map[int]int `json:"per_finger"`
}

// AttributionRepository stores note attributions.
type AttributionRepository struct {
	db *sql.DB
}

// Attributions returns the attribution repository for this store.
func (s *Store) Attributions() *AttributionRepository {
	return &AttributionRepository{db: s.db}
}

// Add inserts an attribution and sets its ID.
func (r *AttributionRepository) Add(a *Attribution) error {
	if a.PlayedAt.IsZero() {
		a.PlayedAt = time.Now()
	}

	var expected sql.NullInt64
	if a.ExpectedFinger != nil {
		expected = sql.NullInt64{Int64: int64(*a.ExpectedFinger), Valid: true}
	}

	result, err := r.db.Exec(
		`INSERT INTO attributions (session_id, note, note_name, finger, finger_name, expected_finger, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.Note, a.NoteName, a.Finger, a.FingerName, expected, a.PlayedAt,
	)
	if err != nil {
		return err
	}

	a.ID, err = result.LastInsertId()
	return err
}

// ListBySession retrieves the attributions of a session in play order.
func (r *AttributionRepository) ListBySession(sessionID string) ([]*Attribution, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, note, note_name, finger, finger_name, expected_finger, played_at
		 FROM attributions WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Attribution
	for rows.Next() {
		a := &Attribution{}
		var expected sql.NullInt64
		err := rows.Scan(&a.ID, &a.SessionID, &a.Note, &a.NoteName, &a.Finger, &a.FingerName, &expected, &a.PlayedAt)
		if err != nil {
			return nil, err
		}
		if expected.Valid {
			e := int(expected.Int64)
			a.ExpectedFinger = &e
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summarize counts the attributions of a session.
func (r *AttributionRepository) Summarize(sessionID string) (*Summary, error) {
	list, err := r.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}

	s := &Summary{PerFinger: make(map[int]int)}
	for _, a := range list {
		s.Total++
		if a.Finger == Missed {
			s.Missed++
		} else {
			s.PerFinger[a.Finger]++
		}
		if a.ExpectedFinger != nil {
			s.Checked++
			if *a.ExpectedFinger == a.Finger {
				s.Correct++
			}
		}
	}
	return s, nil
}
