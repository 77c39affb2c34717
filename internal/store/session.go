package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one live practice run.
type Session struct {
	ID            string     `json:"id"`
	CalibrationID string     `json:"calibration_id,omitempty"`
	Exercise      string     `json:"exercise,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts a new session beginning now.
func (r *SessionRepository) Start(calibrationID, exercise string) (*Session, error) {
	sess := &Session{
		ID:            uuid.New().String(),
		CalibrationID: calibrationID,
		Exercise:      exercise,
		StartedAt:     time.Now(),
	}

	var calID sql.NullString
	if calibrationID != "" {
		calID = sql.NullString{String: calibrationID, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, calibration_id, exercise, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, calID, sess.Exercise, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// End records the end time of a session.
func (r *SessionRepository) End(id string) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const sessionColumns = `id, calibration_id, exercise, started_at, ended_at`

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var calID sql.NullString
	var ended sql.NullTime

	if err := row.Scan(&sess.ID, &calID, &sess.Exercise, &sess.StartedAt, &ended); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess.CalibrationID = calID.String
	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	return scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session and its attributions.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
