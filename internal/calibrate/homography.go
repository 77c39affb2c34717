package calibrate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ayusman/keysight/internal/geometry"
)

// minDeterminant is the smallest |det(H)| accepted as invertible.
const minDeterminant = 1e-12

// Homography is a 3x3 projective transform stored row-major. It is a value
// type and is never modified after it is solved.
type Homography [9]float64

// Identity returns the identity transform.
func Identity() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// SolveHomography computes the transform mapping src[i] onto dst[i] for the
// four correspondences, with h22 fixed to 1.
func SolveHomography(src, dst [4]geometry.Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		X, Y := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y
		r := 2 * i

		// x = (h00 X + h01 Y + h02) / (h20 X + h21 Y + 1)
		a.SetRow(r, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		b.SetVec(r, x)

		// y = (h10 X + h11 Y + h12) / (h20 X + h21 Y + 1)
		a.SetRow(r+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		b.SetVec(r+1, y)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}

	H := Homography{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}
	for _, v := range H {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, ErrDegenerateQuad
		}
	}
	if math.Abs(mat.Det(H.dense())) < minDeterminant {
		return Homography{}, fmt.Errorf("%w: transform is not invertible", ErrDegenerateQuad)
	}

	return H, nil
}

func (h Homography) dense() *mat.Dense {
	return mat.NewDense(3, 3, h[:])
}

// Apply maps p through the transform. Points on the vanishing line map to
// infinite coordinates.
func (h Homography) Apply(p geometry.Point) geometry.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return geometry.Pt(math.Inf(1), math.Inf(1))
	}
	return geometry.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// Inverse returns the transform mapping rectified coordinates back to the
// photograph.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.dense()); err != nil {
		return Homography{}, fmt.Errorf("invert homography: %w", err)
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	if out[8] != 0 {
		s := out[8]
		for i := range out {
			out[i] /= s
		}
	}
	return out, nil
}
