// Package calibrate derives the rectifying homography of a keyboard from the
// line segments detected in a single reference photograph.
package calibrate

import (
	"fmt"

	"github.com/ayusman/keysight/internal/geometry"
	"github.com/ayusman/keysight/internal/lines"
)

// Params configures a calibration run.
type Params struct {
	Lines     lines.Params
	MinWidth  float64
	TopMargin float64
}

// DefaultParams returns the defaults for a 1920x1080 reference photograph.
func DefaultParams() Params {
	return Params{
		Lines:    lines.DefaultParams(),
		MinWidth: 200,
	}
}

// Calibration is the outcome of the calibration phase. It is computed once
// and shared read-only by the live loop.
type Calibration struct {
	Band       Band         `json:"band"`
	Edges      Edges        `json:"edges"`
	Homography Homography   `json:"homography"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Lines      lines.Result `json:"-"`
}

// Rectify maps a photograph pixel into rectified keyboard coordinates.
func (c *Calibration) Rectify(p geometry.Point) geometry.Point {
	return c.Homography.Apply(p)
}

// Target returns the rectangle corners the keyboard is mapped onto, in the
// same order as Edges.Corners.
func Target(width, height int) [4]geometry.Point {
	w, h := float64(width), float64(height)
	return [4]geometry.Point{
		geometry.Pt(0, 0),
		geometry.Pt(w, 0),
		geometry.Pt(w, h),
		geometry.Pt(0, h),
	}
}

// Calibrate merges the raw segments, selects the keyboard edges inside band
// and solves the homography onto a width x height rectangle.
func Calibrate(raw []geometry.Segment, band Band, width, height int, p Params) (*Calibration, error) {
	if width <= 0 || height <= 0 {
		return nil, NewError("setup", fmt.Errorf("invalid image size %dx%d", width, height))
	}
	if band.Bottom <= band.Top {
		return nil, NewError("fiducial", fmt.Errorf("%w: empty band [%d, %d)", ErrFiducial, band.Top, band.Bottom))
	}

	merged := lines.Merge(raw, p.Lines)

	selector := EdgeSelector{MinWidth: p.MinWidth, TopMargin: p.TopMargin}
	edges, err := selector.Select(merged.Merged, band)
	if err != nil {
		return nil, err
	}

	h, err := SolveHomography(edges.Corners(), Target(width, height))
	if err != nil {
		return nil, NewError("perspective", err)
	}

	return &Calibration{
		Band:       band,
		Edges:      edges,
		Homography: h,
		Width:      width,
		Height:     height,
		Lines:      merged,
	}, nil
}
