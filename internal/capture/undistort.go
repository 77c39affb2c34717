package capture

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// Undistorter removes lens distortion from frames using a camera matrix and
// distortion coefficients from a prior camera calibration.
type Undistorter struct {
	camera     gocv.Mat
	dist       gocv.Mat
	optimal    gocv.Mat
	size       image.Point
	hasOptimal bool
}

// LoadUndistorter reads the 3x3 camera matrix and the distortion
// coefficients from whitespace separated text files.
func LoadUndistorter(matrixPath, distPath string) (*Undistorter, error) {
	m, err := readFloats(matrixPath)
	if err != nil {
		return nil, err
	}
	if len(m) != 9 {
		return nil, fmt.Errorf("camera matrix %s: expected 9 values, got %d", matrixPath, len(m))
	}
	d, err := readFloats(distPath)
	if err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return nil, fmt.Errorf("distortion coefficients %s: no values", distPath)
	}

	return NewUndistorter(m, d)
}

// NewUndistorter builds an Undistorter from a row-major 3x3 camera matrix and
// distortion coefficients.
func NewUndistorter(matrix []float64, coeffs []float64) (*Undistorter, error) {
	if len(matrix) != 9 {
		return nil, fmt.Errorf("camera matrix: expected 9 values, got %d", len(matrix))
	}

	u := &Undistorter{
		camera: gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F),
		dist:   gocv.NewMatWithSize(1, len(coeffs), gocv.MatTypeCV64F),
	}
	for i, v := range matrix {
		u.camera.SetDoubleAt(i/3, i%3, v)
	}
	for i, v := range coeffs {
		u.dist.SetDoubleAt(0, i, v)
	}
	return u, nil
}

// Apply writes the undistorted src into dst. The optimal camera matrix is
// computed on the first frame and whenever the frame size changes.
func (u *Undistorter) Apply(src gocv.Mat, dst *gocv.Mat) {
	size := image.Pt(src.Cols(), src.Rows())
	if !u.hasOptimal || size != u.size {
		if u.hasOptimal {
			u.optimal.Close()
		}
		u.optimal, _ = gocv.GetOptimalNewCameraMatrixWithParams(u.camera, u.dist, size, 1, size, false)
		u.size = size
		u.hasOptimal = true
	}
	gocv.Undistort(src, dst, u.camera, u.dist, u.optimal)
}

// Close releases the matrices.
func (u *Undistorter) Close() error {
	u.camera.Close()
	u.dist.Close()
	if u.hasOptimal {
		u.optimal.Close()
		u.hasOptimal = false
	}
	return nil
}

func readFloats(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			out = append(out, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
