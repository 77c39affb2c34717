// Package lines turns raw line-segment detections into a small set of long,
// stable edge lines: near-horizontal filtering, proximity clustering and a
// second merge pass over the clustered lines.
package lines

import (
	"math"
	"sort"

	"github.com/ayusman/keysight/internal/geometry"
)

// FilterHorizontal keeps the segments whose orientation is within
// thresholdDeg of horizontal, in either direction. The result is stably
// sorted by the x coordinate of each segment's first endpoint.
func FilterHorizontal(segments []geometry.Segment, thresholdDeg float64) []geometry.Segment {
	kept := make([]geometry.Segment, 0, len(segments))
	for _, s := range segments {
		angle := math.Abs(s.Angle())
		if angle < thresholdDeg || angle > 180-thresholdDeg {
			kept = append(kept, s)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].A.X < kept[j].A.X
	})

	return kept
}
