package vision

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/keysight/internal/attribution"
	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/geometry"
	"github.com/ayusman/keysight/internal/keyboard"
)

// Overlay colours.
var (
	Red   = color.RGBA{R: 255}
	Blue  = color.RGBA{B: 255}
	Green = color.RGBA{G: 255}
)

// HomographyMat converts h into a 3x3 CV_64F matrix. The caller closes it.
func HomographyMat(h calibrate.Homography) gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i, v := range h {
		m.SetDoubleAt(i/3, i%3, v)
	}
	return m
}

// Warp applies the homography to src, producing a width x height image.
func Warp(src gocv.Mat, h calibrate.Homography, width, height int) gocv.Mat {
	m := HomographyMat(h)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.WarpPerspectiveWithParams(src, &dst, m, image.Pt(width, height),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})
	return dst
}

func pt(p geometry.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// DrawLines draws each line onto img.
func DrawLines(img *gocv.Mat, lines []geometry.Line, c color.RGBA, thickness int) {
	for _, l := range lines {
		gocv.Line(img, pt(l.A), pt(l.B), c, thickness)
	}
}

// DrawLayout draws the white-key borders in red and the black-key edges in
// blue onto a rectified image.
func DrawLayout(img *gocv.Mat, layout *keyboard.Layout) {
	for _, g := range layout.Guides(float64(img.Rows())) {
		c := Red
		if g.Black {
			c = Blue
		}
		gocv.Line(img, pt(g.Segment.A), pt(g.Segment.B), c, 2)
	}
}

// DrawFingertips marks each fingertip, highlighting the attributed finger.
func DrawFingertips(img *gocv.Mat, tips []attribution.Fingertip, highlight int) {
	for _, t := range tips {
		c, r := Red, 3
		if t.Finger == highlight {
			c, r = Green, 8
		}
		gocv.Circle(img, pt(t.Point), r, c, 6)
	}
}

// DrawLabel writes text in the top-left corner of img.
func DrawLabel(img *gocv.Mat, text string) {
	gocv.PutText(img, text, image.Pt(10, 70), gocv.FontHersheyPlain, 2, Blue, 2)
}
