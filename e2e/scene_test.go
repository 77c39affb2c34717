package e2e

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/geometry"
)

// Size of the reference photograph.
const (
	sceneWidth  = 1920
	sceneHeight = 1080
)

// sceneCorners are the keyboard body corners in the reference photograph,
// ordered top-left, top-right, bottom-right, bottom-left.
var sceneCorners = [4]geometry.Point{
	geometry.Pt(100, 300),
	geometry.Pt(900, 310),
	geometry.Pt(880, 590),
	geometry.Pt(120, 600),
}

// sceneBand returns the fiducial band framing the keyboard.
func sceneBand() calibrate.Band {
	return calibrate.Band{Top: 280, Bottom: 620}
}

// topEdge and bottomEdge are the keyboard edges, left endpoint first.
func topEdge() geometry.Line {
	return geometry.Line{A: sceneCorners[0], B: sceneCorners[1]}
}

func bottomEdge() geometry.Line {
	return geometry.Line{A: sceneCorners[3], B: sceneCorners[2]}
}

// fragments splits l into n touching pieces, as a Hough transform reports a
// long edge.
func fragments(l geometry.Line, n int) []geometry.Segment {
	out := make([]geometry.Segment, 0, n)
	at := func(t float64) geometry.Point {
		return geometry.Pt(l.A.X+(l.B.X-l.A.X)*t, l.A.Y+(l.B.Y-l.A.Y)*t)
	}
	for k := 0; k < n; k++ {
		out = append(out, geometry.Segment{A: at(float64(k) / float64(n)), B: at(float64(k+1) / float64(n))})
	}
	return out
}

// rawSegments returns the segments a line extractor would report for the
// scene: both keyboard edges in fragments, a parallel duplicate of part of
// the top edge, the vertical key borders, a long line outside the band and
// a short one inside it.
func rawSegments() []geometry.Segment {
	var raw []geometry.Segment

	raw = append(raw, fragments(topEdge(), 8)...)
	raw = append(raw, fragments(bottomEdge(), 6)...)

	// Second contour of the top edge, interior in x.
	raw = append(raw, geometry.Seg(300, 304.5, 500, 307))

	for x := 200.0; x <= 800; x += 100 {
		raw = append(raw, geometry.Seg(x, 320, x, 580))
	}

	raw = append(raw, geometry.Seg(0, 100, 1900, 105))
	raw = append(raw, geometry.Seg(400, 450, 550, 451))
	return raw
}

// drawScene draws the keyboard edges and key borders in white on a black
// photograph. The caller closes the result.
func drawScene() gocv.Mat {
	img := gocv.NewMatWithSize(sceneHeight, sceneWidth, gocv.MatTypeCV8UC3)
	white := color.RGBA{R: 255, G: 255, B: 255}

	pt := func(p geometry.Point) image.Point {
		return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	for _, l := range []geometry.Line{topEdge(), bottomEdge()} {
		gocv.Line(&img, pt(l.A), pt(l.B), white, 2)
	}
	for x := 200; x <= 800; x += 100 {
		gocv.Line(&img, image.Pt(x, 330), image.Pt(x, 570), white, 2)
	}
	return img
}
