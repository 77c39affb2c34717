package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand landmark detection.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks in
	// normalized image coordinates. Returns an empty slice if no hands are
	// detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `json:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `json:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `json:"min_tracking_confidence"`

	// ScriptPath overrides the location of the hand landmark service.
	ScriptPath string `json:"script_path,omitempty"`

	// PythonPath overrides the interpreter used to run the service.
	PythonPath string `json:"python_path,omitempty"`

	// IdleTimeout stops the service after this long without a request.
	IdleTimeout time.Duration `json:"idle_timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
