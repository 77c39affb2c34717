package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Calibrations - one row per reference photograph processed
		`CREATE TABLE IF NOT EXISTS calibrations (
			id TEXT PRIMARY KEY,
			image_path TEXT NOT NULL DEFAULT '',
			band_top INTEGER NOT NULL,
			band_bottom INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			edges TEXT NOT NULL,
			homography TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sessions - one row per live run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			calibration_id TEXT REFERENCES calibrations(id) ON DELETE SET NULL,
			exercise TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Attributions - one row per note-on event; finger -1 is a miss
		`CREATE TABLE IF NOT EXISTS attributions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			note INTEGER NOT NULL CHECK(note BETWEEN 0 AND 127),
			note_name TEXT NOT NULL,
			finger INTEGER NOT NULL CHECK(finger BETWEEN -1 AND 9),
			finger_name TEXT NOT NULL,
			expected_finger INTEGER,
			played_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_calibration_id ON sessions(calibration_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attributions_session_id ON attributions(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
