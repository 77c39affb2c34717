// Package config loads the tuning parameters of the calibration pipeline and
// the live session from a JSON file layered over the defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/keysight/internal/attribution"
	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/detector"
	"github.com/ayusman/keysight/internal/keyboard"
	"github.com/ayusman/keysight/internal/lines"
	"github.com/ayusman/keysight/internal/vision"
)

// maxFileSize bounds the size of a tuning file.
const maxFileSize = 1 * 1024 * 1024

// FilterTuning configures the near-horizontal segment filter.
type FilterTuning struct {
	HorizontalAngle float64 `json:"horizontal_angle"`
}

// ClusterTuning configures segment clustering.
type ClusterTuning struct {
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// MergeTuning configures line merging.
type MergeTuning struct {
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// EdgesTuning configures keyboard edge selection.
type EdgesTuning struct {
	MinWidth  float64 `json:"min_width"`
	TopMargin float64 `json:"top_margin"`
}

// FiducialTuning configures the fiducial crop.
type FiducialTuning struct {
	// CropMargin is the number of rows above the band kept visible to
	// line extraction.
	CropMargin int `json:"crop_margin"`
}

// SessionTuning configures the live loop.
type SessionTuning struct {
	FPS           int    `json:"fps"`
	Mirrored      bool   `json:"mirrored"`
	Exercise      string `json:"exercise"`
	PreviewWidth  int    `json:"preview_width"`
	PreviewHeight int    `json:"preview_height"`
}

// Tuning is the root of the tuning file.
type Tuning struct {
	Filter   FilterTuning          `json:"filter"`
	Cluster  ClusterTuning         `json:"cluster"`
	Merge    MergeTuning           `json:"merge"`
	Edges    EdgesTuning           `json:"edges"`
	Layout   keyboard.LayoutConfig `json:"layout"`
	Extract  vision.ExtractParams  `json:"extract"`
	Fiducial FiducialTuning        `json:"fiducial"`
	Session  SessionTuning         `json:"session"`
	Detector detector.Config       `json:"detector"`
}

// DefaultTuning returns the values tuned for a 1920x1080 keyboard scene.
func DefaultTuning() *Tuning {
	lp := lines.DefaultParams()
	cp := calibrate.DefaultParams()

	return &Tuning{
		Filter:   FilterTuning{HorizontalAngle: lp.HorizontalAngle},
		Cluster:  ClusterTuning{Distance: lp.ClusterDistance, Angle: lp.ClusterAngle},
		Merge:    MergeTuning{Distance: lp.MergeDistance, Angle: lp.MergeAngle},
		Edges:    EdgesTuning{MinWidth: cp.MinWidth, TopMargin: cp.TopMargin},
		Layout:   keyboard.DefaultLayoutConfig(),
		Extract:  vision.DefaultExtractParams(),
		Fiducial: FiducialTuning{CropMargin: 20},
		Session: SessionTuning{
			FPS:           30,
			Mirrored:      true,
			PreviewWidth:  960,
			PreviewHeight: 540,
		},
		Detector: detector.DefaultConfig(),
	}
}

// LoadTuning reads a tuning file. The file must have a .json extension and
// be under 1MB. Fields omitted from the file keep their default values.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	t := DefaultTuning()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return t, nil
}

// Validate checks that the values are usable.
func (t *Tuning) Validate() error {
	var errs []error

	if t.Filter.HorizontalAngle < 0 || t.Filter.HorizontalAngle > 90 {
		errs = append(errs, fmt.Errorf("filter.horizontal_angle must be between 0 and 90, got %v", t.Filter.HorizontalAngle))
	}
	if t.Cluster.Distance <= 0 {
		errs = append(errs, fmt.Errorf("cluster.distance must be positive, got %v", t.Cluster.Distance))
	}
	if t.Merge.Distance <= 0 {
		errs = append(errs, fmt.Errorf("merge.distance must be positive, got %v", t.Merge.Distance))
	}
	if t.Edges.MinWidth < 0 {
		errs = append(errs, fmt.Errorf("edges.min_width must be non-negative, got %v", t.Edges.MinWidth))
	}
	if len(t.Layout.Spacings)%2 != 0 {
		errs = append(errs, fmt.Errorf("layout.spacings: %w", keyboard.ErrOddSpacings))
	}
	if t.Layout.WhiteBorderCount < 2 {
		errs = append(errs, fmt.Errorf("layout.white_border_count must be at least 2, got %d", t.Layout.WhiteBorderCount))
	}
	if t.Extract.CannyLow > t.Extract.CannyHigh {
		errs = append(errs, fmt.Errorf("extract.canny_low %v exceeds canny_high %v", t.Extract.CannyLow, t.Extract.CannyHigh))
	}
	if t.Extract.Votes <= 0 {
		errs = append(errs, fmt.Errorf("extract.votes must be positive, got %d", t.Extract.Votes))
	}
	if t.Fiducial.CropMargin < 0 {
		errs = append(errs, fmt.Errorf("fiducial.crop_margin must be non-negative, got %d", t.Fiducial.CropMargin))
	}
	if t.Session.FPS <= 0 {
		errs = append(errs, fmt.Errorf("session.fps must be positive, got %d", t.Session.FPS))
	}
	if _, err := attribution.LookupFingering(t.Session.Exercise); err != nil {
		errs = append(errs, fmt.Errorf("session.exercise: %w", err))
	}

	return errors.Join(errs...)
}

// LinesParams returns the merge pipeline parameters.
func (t *Tuning) LinesParams() lines.Params {
	return lines.Params{
		HorizontalAngle: t.Filter.HorizontalAngle,
		ClusterDistance: t.Cluster.Distance,
		ClusterAngle:    t.Cluster.Angle,
		MergeDistance:   t.Merge.Distance,
		MergeAngle:      t.Merge.Angle,
	}
}

// CalibrateParams returns the calibration parameters.
func (t *Tuning) CalibrateParams() calibrate.Params {
	return calibrate.Params{
		Lines:     t.LinesParams(),
		MinWidth:  t.Edges.MinWidth,
		TopMargin: t.Edges.TopMargin,
	}
}
