package app

import (
	"github.com/ayusman/keysight/internal/session"
	"github.com/ayusman/keysight/internal/store"
)

// storeSink persists every result as an attribution row of one session.
type storeSink struct {
	store     *store.Store
	sessionID string
}

func (s *storeSink) Record(r session.Result) error {
	row := &store.Attribution{
		SessionID:  s.sessionID,
		Note:       int(r.Attribution.Note),
		NoteName:   r.NoteName,
		Finger:     r.Attribution.Finger,
		FingerName: r.FingerName,
		PlayedAt:   r.At,
	}
	if r.Checked {
		expected := r.Expected
		row.ExpectedFinger = &expected
	}
	return s.store.Attributions().Add(row)
}
