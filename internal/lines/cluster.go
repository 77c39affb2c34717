package lines

import (
	"math"
	"sort"

	"github.com/ayusman/keysight/internal/geometry"
)

// unowned marks a segment that has not been assigned to a group yet.
const unowned = -1

// Clusterer groups segments that are both close together and co-oriented,
// then collapses every group into a single representative line.
type Clusterer struct {
	// Distance is the maximum segment-to-segment distance for two segments
	// to belong together.
	Distance float64
	// Angle is the maximum undirected orientation difference in degrees.
	Angle float64
}

// Group is one cluster, held as indices into the clustered segment slice.
// The first member is the seed that opened the group.
type Group struct {
	Members []int
}

// Seed returns the index of the segment that opened the group.
func (g Group) Seed() int {
	return g.Members[0]
}

// Accepts reports whether segments a and b are close and co-oriented.
func (c Clusterer) Accepts(a, b geometry.Segment) bool {
	if geometry.SegmentDistance(a, b) >= c.Distance {
		return false
	}
	return geometry.AngleDiff(a.Angle(), b.Angle()) < c.Angle
}

// Group partitions segments into groups. Every segment is owned by exactly
// one group.
//
// Segments are visited in order. A visited segment that is still unowned
// joins the first existing group with any accepting member. If no group
// accepts it, it seeds a new group which immediately claims every other
// unowned segment in the whole input that the seed accepts, including
// segments not visited yet. The result depends on input order.
func (c Clusterer) Group(segments []geometry.Segment) []Group {
	owner := make([]int, len(segments))
	for i := range owner {
		owner[i] = unowned
	}

	var groups []Group
	for i, s := range segments {
		if owner[i] != unowned {
			continue
		}

		if g := c.firstAccepting(groups, segments, s); g != unowned {
			groups[g].Members = append(groups[g].Members, i)
			owner[i] = g
			continue
		}

		g := len(groups)
		owner[i] = g
		group := Group{Members: []int{i}}
		for j, other := range segments {
			if owner[j] != unowned {
				continue
			}
			if c.Accepts(other, s) {
				owner[j] = g
				group.Members = append(group.Members, j)
			}
		}
		groups = append(groups, group)
	}

	return groups
}

// firstAccepting returns the index of the first group holding a member that
// accepts s, or unowned if there is none.
func (c Clusterer) firstAccepting(groups []Group, segments []geometry.Segment, s geometry.Segment) int {
	for g, group := range groups {
		for _, m := range group.Members {
			if c.Accepts(segments[m], s) {
				return g
			}
		}
	}
	return unowned
}

// Cluster groups the segments and collapses each group into one line, in
// group creation order.
func (c Clusterer) Cluster(segments []geometry.Segment) []geometry.Line {
	groups := c.Group(segments)
	out := make([]geometry.Line, 0, len(groups))
	for _, g := range groups {
		members := make([]geometry.Segment, len(g.Members))
		for k, idx := range g.Members {
			members[k] = segments[idx]
		}
		out = append(out, Collapse(members))
	}
	return out
}

// Collapse returns the line spanning the extreme endpoints of the group along
// its dominant axis. The seed (first member) decides the axis: seeds between
// 45 and 135 degrees are sorted by y, everything else by x.
func Collapse(members []geometry.Segment) geometry.Line {
	if len(members) == 1 {
		return members[0]
	}

	points := make([]geometry.Point, 0, 2*len(members))
	for _, m := range members {
		points = append(points, m.A, m.B)
	}

	angle := math.Abs(members[0].Angle())
	if angle > 45 && angle < 135 {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Y < points[j].Y })
	} else {
		sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })
	}

	return geometry.Line{A: points[0], B: points[len(points)-1]}
}
