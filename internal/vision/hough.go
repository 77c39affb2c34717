package vision

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/keysight/internal/geometry"
)

// ExtractParams configures edge detection and the probabilistic Hough
// transform.
type ExtractParams struct {
	CannyLow  float32 `json:"canny_low"`
	CannyHigh float32 `json:"canny_high"`
	Votes     int     `json:"votes"`
	MinLength float32 `json:"min_length"`
	MaxGap    float32 `json:"max_gap"`
}

// DefaultExtractParams returns the thresholds tuned for the reference
// photograph.
func DefaultExtractParams() ExtractParams {
	return ExtractParams{
		CannyLow:  105,
		CannyHigh: 150,
		Votes:     9,
		MinLength: 9,
		MaxGap:    7,
	}
}

// HoughExtractor detects raw line segments in a photograph.
type HoughExtractor struct {
	Params ExtractParams
}

// NewHoughExtractor creates an extractor with the given parameters.
func NewHoughExtractor(p ExtractParams) *HoughExtractor {
	return &HoughExtractor{Params: p}
}

// Edges returns the Canny edge map of img. The caller closes the result.
func (e *HoughExtractor) Edges(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, e.Params.CannyLow, e.Params.CannyHigh)
	return edges
}

// Extract returns the line segments found in img.
func (e *HoughExtractor) Extract(img gocv.Mat) []geometry.Segment {
	edges := e.Edges(img)
	defer edges.Close()

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, e.Params.Votes, e.Params.MinLength, e.Params.MaxGap)

	out := make([]geometry.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		out = append(out, geometry.Seg(float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])))
	}
	return out
}

// BlankAbove paints every row of img above row black, hiding the scene
// behind the keyboard from line extraction.
func BlankAbove(img *gocv.Mat, row int) {
	if row <= 0 {
		return
	}
	if row > img.Rows() {
		row = img.Rows()
	}
	region := img.Region(image.Rect(0, 0, img.Cols(), row))
	defer region.Close()
	region.SetTo(gocv.NewScalar(0, 0, 0, 0))
}
