// Package session runs the live attribution step: it drains pending MIDI
// events once per frame and attributes every note-on to a fingertip.
package session

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/keysight/internal/attribution"
	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/detector"
	"github.com/ayusman/keysight/internal/midi"
)

// Result is one attributed note-on event.
type Result struct {
	Attribution attribution.Attribution `json:"attribution"`
	NoteName    string                  `json:"note_name"`
	FingerName  string                  `json:"finger_name"`
	Text        string                  `json:"text"`
	Expected    int                     `json:"expected"`
	Checked     bool                    `json:"checked"`
	Correct     bool                    `json:"correct"`
	At          time.Time               `json:"at"`
}

// Sink receives every result as it is produced.
type Sink interface {
	Record(r Result) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(r Result) error

// Record calls f(r).
func (f SinkFunc) Record(r Result) error {
	return f(r)
}

// Config holds the collaborators and options of a session.
type Config struct {
	Source      midi.Source
	Detector    detector.Detector
	Calibration *calibrate.Calibration
	Attributor  *attribution.Attributor
	Formatter   attribution.Formatter

	// Fingering, when set, is checked against every attribution.
	Fingering attribution.Fingering

	// Mirrored swaps the handedness reported by the detector.
	Mirrored bool
}

// Session is the cooperative per-frame attribution step. Step is called
// from a single loop; the accessors are safe for concurrent use.
type Session struct {
	cfg Config

	mu      sync.Mutex
	log     *ResultsLog
	tips    []attribution.Fingertip
	last    *Result
	notes   int
	frames  int
	detects int
}

// New creates a session. Source, Detector, Calibration and Attributor are
// required.
func New(cfg Config) (*Session, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.New("session: no note source")
	case cfg.Detector == nil:
		return nil, errors.New("session: no hand detector")
	case cfg.Calibration == nil:
		return nil, errors.New("session: no calibration")
	case cfg.Attributor == nil:
		return nil, errors.New("session: no attributor")
	}
	return &Session{cfg: cfg, log: NewResultsLog()}, nil
}

// Step processes one frame. It drains every pending MIDI event without
// blocking and, if any of them is a note-on, detects hands in frame once
// and attributes each note-on in arrival order. Per-event failures are
// joined into the returned error; the remaining events are still processed.
func (s *Session) Step(frame *gocv.Mat, sinks ...Sink) ([]Result, error) {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()

	var pending []midi.Event
	for {
		e, ok := s.cfg.Source.Poll()
		if !ok {
			break
		}
		if e.IsNoteOn() {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	var errs []error

	// A failed detection leaves no fingertips, so the notes are missed.
	tips, err := s.fingertips(frame)
	if err != nil {
		errs = append(errs, fmt.Errorf("detect hands: %w", err))
	}

	var results []Result
	for _, e := range pending {
		r, err := s.attribute(e.Note, tips)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, r)

		for _, sink := range sinks {
			if err := sink.Record(r); err != nil {
				errs = append(errs, fmt.Errorf("record %s: %w", r.NoteName, err))
			}
		}
	}

	return results, errors.Join(errs...)
}

// Drain discards every pending MIDI event and returns how many there were.
// It keeps notes played while tracking is paused from being attributed
// later.
func (s *Session) Drain() int {
	n := 0
	for {
		if _, ok := s.cfg.Source.Poll(); !ok {
			return n
		}
		n++
	}
}

// fingertips detects hands in frame and maps the fingertips into rectified
// keyboard coordinates, truncated to whole pixels.
func (s *Session) fingertips(frame *gocv.Mat) ([]attribution.Fingertip, error) {
	s.mu.Lock()
	s.detects++
	s.mu.Unlock()

	hands, err := s.cfg.Detector.Detect(frame)
	if err != nil {
		return nil, err
	}

	tips := detector.Fingertips(hands, frame.Cols(), frame.Rows(), s.cfg.Mirrored)
	for i := range tips {
		p := s.cfg.Calibration.Rectify(tips[i].Point)
		tips[i].Point.X = math.Trunc(p.X)
		tips[i].Point.Y = math.Trunc(p.Y)
	}

	s.mu.Lock()
	s.tips = tips
	s.mu.Unlock()
	return tips, nil
}

func (s *Session) attribute(note uint8, tips []attribution.Fingertip) (Result, error) {
	a, err := s.cfg.Attributor.Attribute(note, tips)
	if err != nil {
		return Result{}, err
	}
	line, err := s.cfg.Formatter.LogLine(a)
	if err != nil {
		return Result{}, err
	}
	name, _ := s.cfg.Formatter.Notes.Name(note)

	r := Result{
		Attribution: a,
		NoteName:    name,
		FingerName:  s.cfg.Formatter.FingerName(a),
		Text:        s.cfg.Formatter.Describe(a),
		Expected:    attribution.Missed,
		At:          time.Now(),
	}
	if s.cfg.Fingering != nil {
		r.Expected, r.Correct, r.Checked = s.cfg.Fingering.Check(a)
	}

	s.mu.Lock()
	s.log.Append(line)
	s.last = &r
	s.notes++
	s.mu.Unlock()
	return r, nil
}

// Fingertips returns the rectified fingertips of the last detection.
func (s *Session) Fingertips() []attribution.Fingertip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]attribution.Fingertip(nil), s.tips...)
}

// Last returns the most recent result, if any.
func (s *Session) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Stats is a snapshot of session counters.
type Stats struct {
	Frames     int `json:"frames"`
	Detections int `json:"detections"`
	Notes      int `json:"notes"`
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Frames: s.frames, Detections: s.detects, Notes: s.notes}
}

// Log returns the results log.
func (s *Session) Log() *ResultsLog {
	return s.log
}
