package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// Display shows frames in a desktop window, scaled down for preview.
type Display struct {
	window *gocv.Window
	size   image.Point
	scaled gocv.Mat
}

// NewDisplay opens a window that shows frames resized to width x height.
func NewDisplay(title string, width, height int) *Display {
	return &Display{
		window: gocv.NewWindow(title),
		size:   image.Pt(width, height),
		scaled: gocv.NewMat(),
	}
}

// Show displays img and returns the key pressed during the 1ms wait, or -1.
func (d *Display) Show(img gocv.Mat) int {
	gocv.Resize(img, &d.scaled, d.size, 0, 0, gocv.InterpolationArea)
	d.window.IMShow(d.scaled)
	return d.window.WaitKey(1)
}

// Close destroys the window.
func (d *Display) Close() error {
	d.scaled.Close()
	return d.window.Close()
}
