package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/keysight/internal/calibrate"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// CalibrationRecord is a stored calibration.
type CalibrationRecord struct {
	ID          string                `json:"id"`
	ImagePath   string                `json:"image_path"`
	Calibration calibrate.Calibration `json:"calibration"`
	CreatedAt   time.Time             `json:"created_at"`
}

// CalibrationRepository stores calibration results.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Create inserts a calibration, assigning an ID if none is set.
func (r *CalibrationRepository) Create(c *CalibrationRecord) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()

	edges, err := json.Marshal(c.Calibration.Edges)
	if err != nil {
		return fmt.Errorf("encode edges: %w", err)
	}
	h, err := json.Marshal(c.Calibration.Homography)
	if err != nil {
		return fmt.Errorf("encode homography: %w", err)
	}

	cal := c.Calibration
	_, err = r.db.Exec(
		`INSERT INTO calibrations (id, image_path, band_top, band_bottom, width, height, edges, homography, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ImagePath, cal.Band.Top, cal.Band.Bottom, cal.Width, cal.Height, string(edges), string(h), c.CreatedAt,
	)
	return err
}

const calibrationColumns = `id, image_path, band_top, band_bottom, width, height, edges, homography, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCalibration(row scanner) (*CalibrationRecord, error) {
	c := &CalibrationRecord{}
	var edges, h string
	cal := &c.Calibration

	err := row.Scan(&c.ID, &c.ImagePath, &cal.Band.Top, &cal.Band.Bottom, &cal.Width, &cal.Height, &edges, &h, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(edges), &cal.Edges); err != nil {
		return nil, fmt.Errorf("decode edges of calibration %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(h), &cal.Homography); err != nil {
		return nil, fmt.Errorf("decode homography of calibration %s: %w", c.ID, err)
	}
	return c, nil
}

// GetByID retrieves a calibration by its ID.
func (r *CalibrationRepository) GetByID(id string) (*CalibrationRecord, error) {
	return scanCalibration(r.db.QueryRow(
		`SELECT `+calibrationColumns+` FROM calibrations WHERE id = ?`, id,
	))
}

// Latest retrieves the most recent calibration.
func (r *CalibrationRepository) Latest() (*CalibrationRecord, error) {
	return scanCalibration(r.db.QueryRow(
		`SELECT ` + calibrationColumns + ` FROM calibrations ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	))
}

// List retrieves all calibrations, newest first.
func (r *CalibrationRepository) List() ([]*CalibrationRecord, error) {
	rows, err := r.db.Query(`SELECT ` + calibrationColumns + ` FROM calibrations ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CalibrationRecord
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a calibration by its ID.
func (r *CalibrationRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM calibrations WHERE id = ?`, id)
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
