package calibrate

import (
	"fmt"
	"sort"

	"github.com/ayusman/keysight/internal/geometry"
)

// Band is the vertical region of interest reported by the fiducial locator,
// in pixel rows. It covers Top <= y < Bottom.
type Band struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// Contains reports whether y falls inside the band.
func (b Band) Contains(y float64) bool {
	return y >= float64(b.Top) && y < float64(b.Bottom)
}

// EdgeSelector picks the top and bottom edges of the keyboard body.
type EdgeSelector struct {
	// MinWidth is the minimum horizontal extent of an edge in pixels.
	MinWidth float64
	// TopMargin widens the top edge by this many pixels on each end, along
	// the edge, to cover a slightly bowed front edge. Zero disables it.
	TopMargin float64
}

// Edges are the two keyboard edges, each with its left endpoint first.
type Edges struct {
	Top    geometry.Line `json:"top"`
	Bottom geometry.Line `json:"bottom"`
}

// Corners returns the quadrilateral ordered top-left, top-right,
// bottom-right, bottom-left.
func (e Edges) Corners() [4]geometry.Point {
	return [4]geometry.Point{e.Top.A, e.Top.B, e.Bottom.B, e.Bottom.A}
}

// Candidates returns the lines lying inside the band that are wide enough,
// ranked by descending squared length. Ties keep input order.
func (s EdgeSelector) Candidates(lines []geometry.Line, band Band) []geometry.Line {
	var out []geometry.Line
	for _, l := range lines {
		if !band.Contains(l.A.Y) || !band.Contains(l.B.Y) {
			continue
		}
		if l.Width() <= s.MinWidth {
			continue
		}
		out = append(out, l.LeftFirst())
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LengthSq() > out[j].LengthSq()
	})
	return out
}

// Select returns the two longest candidates ordered top then bottom.
func (s EdgeSelector) Select(lines []geometry.Line, band Band) (Edges, error) {
	candidates := s.Candidates(lines, band)
	if len(candidates) < 2 {
		return Edges{}, NewError("edge selection", fmt.Errorf("%w: %d candidates in rows [%d, %d)",
			ErrTooFewEdges, len(candidates), band.Top, band.Bottom))
	}

	top, bottom := candidates[0], candidates[1]
	if bottom.MidY() < top.MidY() {
		top, bottom = bottom, top
	}

	if s.TopMargin > 0 {
		top = widen(top, s.TopMargin)
	}

	return Edges{Top: top, Bottom: bottom}, nil
}

// widen extends a left-first line by margin pixels of x on each end while
// keeping its slope.
func widen(l geometry.Line, margin float64) geometry.Line {
	dx := l.B.X - l.A.X
	if dx == 0 {
		return l
	}
	slope := (l.B.Y - l.A.Y) / dx
	return geometry.Line{
		A: geometry.Pt(l.A.X-margin, l.A.Y-margin*slope),
		B: geometry.Pt(l.B.X+margin, l.B.Y+margin*slope),
	}
}
