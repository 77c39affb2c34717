// Package vision adapts OpenCV (via GoCV) to the keyboard geometry pipeline:
// fiducial detection, line extraction, rectification and overlays.
package vision

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/keysight/internal/calibrate"
)

// FiducialLocator finds the two ArUco markers framing the keyboard and
// reports the rows they span.
type FiducialLocator struct {
	Dictionary gocv.ArucoDictionaryCode
}

// NewFiducialLocator returns a locator for 6x6 markers from the 50-marker
// dictionary.
func NewFiducialLocator() *FiducialLocator {
	return &FiducialLocator{Dictionary: gocv.ArucoDict6x6_50}
}

// Locate detects the markers in img and returns the band between the
// highest and lowest marker corner.
func (f *FiducialLocator) Locate(img gocv.Mat) (calibrate.Band, error) {
	dict := gocv.GetPredefinedDictionary(f.Dictionary)
	params := gocv.NewArucoDetectorParameters()
	detector := gocv.NewArucoDetectorWithParams(dict, params)
	defer detector.Close()

	corners, _, _ := detector.DetectMarkers(img)
	return BandFromMarkers(corners)
}

// BandFromMarkers computes the band spanned by exactly two detected markers.
// Corner coordinates are truncated to whole rows.
func BandFromMarkers(markers [][]gocv.Point2f) (calibrate.Band, error) {
	if len(markers) != 2 {
		return calibrate.Band{}, calibrate.NewError("fiducial",
			fmt.Errorf("%w: found %d", calibrate.ErrFiducial, len(markers)))
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, marker := range markers {
		for _, c := range marker {
			y := float64(c.Y)
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}
	if math.IsInf(minY, 0) {
		return calibrate.Band{}, calibrate.NewError("fiducial",
			fmt.Errorf("%w: markers have no corners", calibrate.ErrFiducial))
	}

	return calibrate.Band{Top: int(minY), Bottom: int(maxY)}, nil
}
