// Package app orchestrates keysight: the one-shot calibration phase and the
// live loop that attributes every played note to a finger.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/keysight/internal/attribution"
	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/capture"
	"github.com/ayusman/keysight/internal/config"
	"github.com/ayusman/keysight/internal/detector"
	"github.com/ayusman/keysight/internal/keyboard"
	"github.com/ayusman/keysight/internal/midi"
	"github.com/ayusman/keysight/internal/session"
	"github.com/ayusman/keysight/internal/store"
	"github.com/ayusman/keysight/internal/vision"
)

// ErrNotCalibrated is returned when the live loop is started before a
// calibration is available.
var ErrNotCalibrated = errors.New("keyboard is not calibrated")

// Config holds configuration options for the application.
type Config struct {
	Store  *store.Store
	Tuning *config.Tuning
	Camera capture.Config

	// CameraMatrixPath and DistortionPath, when both set, enable lens
	// undistortion of every frame.
	CameraMatrixPath string
	DistortionPath   string

	// OutputDir receives the diagnostic images of a calibration run.
	OutputDir string
	// LogPath receives the results log when the live loop stops.
	LogPath string
	// MIDIInput selects the MIDI input port by name. Empty picks the first.
	MIDIInput string
	// Display opens a preview window during the live loop.
	Display bool
	// MockDetector replaces MediaPipe with a detector that reports no
	// hands, so every note is recorded as missed.
	MockDetector bool
}

// App is the main application that runs calibration and the live loop.
type App struct {
	config      Config
	tuning      *config.Tuning
	camera      capture.Camera
	detector    detector.Detector
	source      midi.Source
	undistorter *capture.Undistorter
	frames      *capture.FrameBuffer
	display     *vision.Display
	sinks       []session.Sink

	calibration   *calibrate.Calibration
	calibrationID string
	layout        *keyboard.Layout
	session       *session.Session
	record        *store.Session
	recordSink    session.Sink

	enabled  bool
	mu       sync.RWMutex
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new App instance with the given configuration.
func New(cfg Config) *App {
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.DefaultTuning()
	}
	if cfg.LogPath == "" {
		cfg.LogPath = session.DefaultLogPath
	}

	return &App{
		config:  cfg,
		tuning:  tuning,
		camera:  capture.NewCamera(cfg.Camera),
		frames:  capture.NewFrameBuffer(),
		enabled: true,
	}
}

// SetEnabled pauses or resumes attribution. Notes played while paused are
// discarded.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether attribution is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetSource sets the MIDI note source to use.
func (a *App) SetSource(s midi.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = s
}

// SetCamera replaces the camera.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// AddSink registers a receiver for every attribution of the live loop.
func (a *App) AddSink(s session.Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, s)
}

// Frames returns the buffer holding the latest annotated preview frame.
func (a *App) Frames() *capture.FrameBuffer {
	return a.frames
}

// Layout returns the key layout of the current calibration, or nil.
func (a *App) Layout() *keyboard.Layout {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.layout
}

// Calibration returns the current calibration, or nil.
func (a *App) Calibration() *calibrate.Calibration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.calibration
}

// Session returns the running session, or nil.
func (a *App) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// setCalibration installs cal and derives the key layout for its width.
func (a *App) setCalibration(cal *calibrate.Calibration, id string) error {
	layout, err := keyboard.NewLayout(a.tuning.Layout, float64(cal.Width))
	if err != nil {
		return fmt.Errorf("build key layout: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.calibration = cal
	a.calibrationID = id
	a.layout = layout
	return nil
}

// openDevices fills in the collaborators that were not injected: the hand
// detector, the MIDI input and the undistorter. The caller holds a.mu.
func (a *App) openDevices() error {
	if a.detector == nil {
		if a.config.MockDetector {
			log.Println("Using mock hand detection, every note will be missed")
			a.detector = detector.NewMockDetector()
		} else {
			mp, err := detector.NewMediaPipeDetector(a.tuning.Detector)
			if err != nil {
				return fmt.Errorf("hand detector: %w", err)
			}
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		}
	}

	if a.source == nil {
		src, err := midi.OpenInput(a.config.MIDIInput, midi.DefaultQueueSize)
		if err != nil {
			return fmt.Errorf("open MIDI input: %w", err)
		}
		log.Printf("Listening on MIDI input %q", src.Name())
		a.source = src
	}

	if a.undistorter == nil && a.config.CameraMatrixPath != "" && a.config.DistortionPath != "" {
		u, err := capture.LoadUndistorter(a.config.CameraMatrixPath, a.config.DistortionPath)
		if err != nil {
			return fmt.Errorf("load camera calibration: %w", err)
		}
		a.undistorter = u
	}
	return nil
}

// closeDevices closes and forgets the hand detector, the MIDI input and the
// undistorter. The caller holds a.mu.
func (a *App) closeDevices() {
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing MIDI input: %v", err)
		}
		a.source = nil
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
		a.detector = nil
	}
	if a.undistorter != nil {
		a.undistorter.Close()
		a.undistorter = nil
	}
}

// Start begins the live loop using the current calibration.
func (a *App) Start() error {
	a.mu.RLock()
	running := a.stopCh != nil
	cal := a.calibration
	a.mu.RUnlock()

	// Don't start if already running
	if running {
		return nil
	}
	if cal == nil {
		return ErrNotCalibrated
	}

	fingering, err := attribution.LookupFingering(a.tuning.Session.Exercise)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.openDevices(); err != nil {
		a.closeDevices()
		return err
	}

	notes := keyboard.DefaultNoteTable()
	sess, err := session.New(session.Config{
		Source:      a.source,
		Detector:    a.detector,
		Calibration: a.calibration,
		Attributor:  attribution.New(a.layout, notes),
		Formatter:   attribution.Formatter{Notes: notes, Fingers: keyboard.DefaultFingerNames()},
		Fingering:   fingering,
		Mirrored:    a.tuning.Session.Mirrored,
	})
	if err != nil {
		a.closeDevices()
		return err
	}

	if err := a.camera.Open(); err != nil {
		a.closeDevices()
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.tuning.Session.FPS)

	if a.config.Store != nil {
		rec, err := a.config.Store.Sessions().Start(a.calibrationID, a.tuning.Session.Exercise)
		if err != nil {
			a.camera.Close()
			a.closeDevices()
			return fmt.Errorf("record session: %w", err)
		}
		a.record = rec
		a.recordSink = &storeSink{store: a.config.Store, sessionID: rec.ID}
	}

	if a.config.Display {
		a.display = vision.NewDisplay("keysight", a.tuning.Session.PreviewWidth, a.tuning.Session.PreviewHeight)
	}

	a.session = sess
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	a.stopOnce = sync.Once{}
	go a.runPipeline(a.stopCh, a.done)

	log.Println("Live session started")
	return nil
}

// Done returns a channel closed when the live loop exits, either through
// Stop or a key press in the preview window.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the live loop, writes the results log and releases devices.
func (a *App) Stop() error {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.mu.Unlock()

	if stopCh == nil {
		return nil
	}

	// Signal the pipeline to stop and wait for the current frame
	a.stopOnce.Do(func() { close(stopCh) })
	<-done

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh == nil {
		return nil
	}

	var errs []error
	if err := a.session.Log().Flush(a.config.LogPath); err != nil {
		errs = append(errs, err)
	} else {
		log.Printf("Wrote %d results to %s", a.session.Log().Len(), a.config.LogPath)
	}

	if a.record != nil {
		if err := a.config.Store.Sessions().End(a.record.ID); err != nil {
			errs = append(errs, fmt.Errorf("end session: %w", err))
		}
		a.record = nil
		a.recordSink = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.closeDevices()
	if a.display != nil {
		a.display.Close()
		a.display = nil
	}

	a.stopCh = nil
	log.Println("Live session stopped")
	return errors.Join(errs...)
}

// Close releases resources held outside the live loop.
func (a *App) Close() error {
	return a.frames.Close()
}

// Status is a snapshot of the application state.
type Status struct {
	Running       bool            `json:"running"`
	Enabled       bool            `json:"enabled"`
	CalibrationID string          `json:"calibration_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	Stats         session.Stats   `json:"stats"`
	Last          *session.Result `json:"last,omitempty"`
}

// Status returns the current application state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Status{
		Running:       a.stopCh != nil,
		Enabled:       a.enabled,
		CalibrationID: a.calibrationID,
	}
	if a.record != nil {
		st.SessionID = a.record.ID
	}
	if a.session != nil {
		st.Stats = a.session.Stats()
		if last, ok := a.session.Last(); ok {
			st.Last = &last
		}
	}
	return st
}
