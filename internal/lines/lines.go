package lines

import "github.com/ayusman/keysight/internal/geometry"

// Params configures the three merge stages.
type Params struct {
	HorizontalAngle float64 // degrees from horizontal kept by the filter
	ClusterDistance float64
	ClusterAngle    float64
	MergeDistance   float64
	MergeAngle      float64
}

// DefaultParams returns the thresholds tuned for a keyboard photographed
// from above at 1920x1080.
func DefaultParams() Params {
	return Params{
		HorizontalAngle: 4,
		ClusterDistance: 12,
		ClusterAngle:    10,
		MergeDistance:   50,
		MergeAngle:      1,
	}
}

// Result keeps the intermediate output of every stage for diagnostics.
type Result struct {
	Horizontal []geometry.Segment
	Clustered  []geometry.Line
	Merged     []geometry.Line
}

// Merge runs raw segments through the filter, the clusterer and the merger.
func Merge(raw []geometry.Segment, p Params) Result {
	horizontal := FilterHorizontal(raw, p.HorizontalAngle)
	clustered := Clusterer{Distance: p.ClusterDistance, Angle: p.ClusterAngle}.Cluster(horizontal)
	merged := Merger{Distance: p.MergeDistance, Angle: p.MergeAngle}.Merge(clustered)

	return Result{
		Horizontal: horizontal,
		Clustered:  clustered,
		Merged:     merged,
	}
}
