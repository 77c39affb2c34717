// Package geometry provides the 2D primitives shared by the calibration
// pipeline: points, segments, orientations and distances.
package geometry

import "math"

// degenerateLength is the length below which a segment has no usable direction.
const degenerateLength = 1e-8

// Point is a 2D point in pixel or rectified coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Segment is an ordered pair of endpoints. Raw detections have no direction
// invariant; callers that need one normalize the order first.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Line is a merged, longer edge produced by clustering. It has the same shape
// as a Segment.
type Line = Segment

// Seg builds a segment from raw endpoint coordinates.
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{A: Pt(x1, y1), B: Pt(x2, y2)}
}

// Length returns the distance between the endpoints.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// LengthSq returns the squared distance between the endpoints.
func (s Segment) LengthSq() float64 {
	dx := s.B.X - s.A.X
	dy := s.B.Y - s.A.Y
	return dx*dx + dy*dy
}

// Degenerate reports whether the endpoints are (nearly) identical.
func (s Segment) Degenerate() bool {
	return s.Length() < degenerateLength
}

// Angle returns the orientation of the segment in degrees, measured from B
// towards A, in the range (-180, 180].
func (s Segment) Angle() float64 {
	return math.Atan2(s.A.Y-s.B.Y, s.A.X-s.B.X) * 180 / math.Pi
}

// Width returns the horizontal extent of the segment.
func (s Segment) Width() float64 {
	return math.Abs(s.A.X - s.B.X)
}

// MidY returns the mean vertical position of the endpoints.
func (s Segment) MidY() float64 {
	return (s.A.Y + s.B.Y) / 2
}

// LeftFirst returns the segment with the endpoint of smaller x first.
// Ties fall back to y so the order is total.
func (s Segment) LeftFirst() Segment {
	if s.B.X < s.A.X || (s.B.X == s.A.X && s.B.Y < s.A.Y) {
		return Segment{A: s.B, B: s.A}
	}
	return s
}

// AngleDiff returns the undirected difference between two orientations in
// degrees, in [0, 90]. Segments pointing in opposite directions along the same
// line have a difference of 0.
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 180)
	if d > 90 {
		d = 180 - d
	}
	return d
}

// PointSegmentDistance returns the distance from p to the segment s. The
// projection of p onto the line through s is clamped to the segment, falling
// back to the nearer endpoint. A degenerate s yields +Inf.
func PointSegmentDistance(p Point, s Segment) float64 {
	lenSq := s.LengthSq()
	if math.Sqrt(lenSq) < degenerateLength {
		return math.Inf(1)
	}

	u := ((p.X-s.A.X)*(s.B.X-s.A.X) + (p.Y-s.A.Y)*(s.B.Y-s.A.Y)) / lenSq
	if u < 0.00001 || u > 1 {
		return math.Min(p.Distance(s.A), p.Distance(s.B))
	}

	proj := Point{
		X: s.A.X + u*(s.B.X-s.A.X),
		Y: s.A.Y + u*(s.B.Y-s.A.Y),
	}
	return p.Distance(proj)
}

// SegmentDistance returns the minimum of the four endpoint-to-segment
// distances between s and t. If either segment is degenerate the result is
// +Inf, so a degenerate segment is never close to anything.
func SegmentDistance(s, t Segment) float64 {
	if s.Degenerate() || t.Degenerate() {
		return math.Inf(1)
	}
	return min(
		PointSegmentDistance(s.A, t),
		PointSegmentDistance(s.B, t),
		PointSegmentDistance(t.A, s),
		PointSegmentDistance(t.B, s),
	)
}
