package lines

import (
	"math"

	"github.com/ayusman/keysight/internal/geometry"
)

// Merger fuses already-clustered lines that continue each other.
type Merger struct {
	// Distance is the maximum gap between the nearest endpoints of two lines.
	Distance float64
	// Angle is the maximum orientation difference, in degrees, between the
	// fused line and each of its inputs.
	Angle float64
}

// Combine tries to fuse a and b. The candidate spans the two endpoints, one
// from each line, that are farthest apart. It is accepted when its
// orientation stays within m.Angle of both inputs, the nearest endpoints are
// closer than m.Distance, and it is strictly longer than both inputs.
func (m Merger) Combine(a, b geometry.Line) (geometry.Line, bool) {
	if a.Degenerate() || b.Degenerate() {
		return geometry.Line{}, false
	}

	minDist := math.Inf(1)
	maxDist := 0.0
	var fused geometry.Line
	found := false
	for _, p := range [2]geometry.Point{a.A, a.B} {
		for _, q := range [2]geometry.Point{b.A, b.B} {
			d := p.Distance(q)
			if d < minDist {
				minDist = d
			}
			if d > maxDist {
				maxDist = d
				fused = geometry.Line{A: p, B: q}
				found = true
			}
		}
	}
	if !found {
		return geometry.Line{}, false
	}

	angle := fused.Angle()
	if geometry.AngleDiff(angle, a.Angle()) >= m.Angle || geometry.AngleDiff(angle, b.Angle()) >= m.Angle {
		return geometry.Line{}, false
	}
	if minDist >= m.Distance {
		return geometry.Line{}, false
	}

	lenSq := fused.LengthSq()
	if lenSq <= a.LengthSq() || lenSq <= b.LengthSq() {
		return geometry.Line{}, false
	}

	return fused, true
}

// Merge repeatedly fuses pairs until no pair combines. When lines i and j
// fuse, both are removed, the fused line is appended, and the scan for i
// restarts against every line after it. The input slice is not modified.
func (m Merger) Merge(in []geometry.Line) []geometry.Line {
	lines := make([]geometry.Line, len(in))
	copy(lines, in)

	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); {
			fused, ok := m.Combine(lines[i], lines[j])
			if !ok {
				j++
				continue
			}

			lines = append(lines[:j], lines[j+1:]...)
			lines = append(lines[:i], lines[i+1:]...)
			lines = append(lines, fused)
			j = i + 1
		}
	}

	return lines
}
