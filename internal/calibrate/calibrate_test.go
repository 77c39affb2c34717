package calibrate

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ayusman/keysight/internal/geometry"
)

const tolerance = 1e-4

func TestEdgeSelector_Select(t *testing.T) {
	band := Band{Top: 200, Bottom: 700}
	sel := EdgeSelector{MinWidth: 200}

	t.Run("two longest lines inside the band, top first", func(t *testing.T) {
		in := []geometry.Line{
			geometry.Seg(880, 590, 120, 600), // bottom edge, drawn right to left
			geometry.Seg(0, 50, 1000, 50),    // long but above the band
			geometry.Seg(400, 450, 500, 450), // inside but too narrow
			geometry.Seg(150, 400, 450, 400), // inside, shorter than both edges
			geometry.Seg(100, 300, 900, 310), // top edge
			geometry.Seg(50, 650, 950, 700),  // touches the exclusive bottom row
		}

		got, err := sel.Select(in, band)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}

		want := Edges{
			Top:    geometry.Seg(100, 300, 900, 310),
			Bottom: geometry.Seg(120, 600, 880, 590),
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Select() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("longer bottom edge still ordered after top", func(t *testing.T) {
		in := []geometry.Line{
			geometry.Seg(0, 650, 1000, 650),
			geometry.Seg(300, 250, 700, 250),
		}

		got, err := sel.Select(in, band)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if got.Top.A.Y != 250 || got.Bottom.A.Y != 650 {
			t.Errorf("expected top at y=250 and bottom at y=650, got %v", got)
		}
	})

	t.Run("too few edges", func(t *testing.T) {
		in := []geometry.Line{
			geometry.Seg(100, 300, 900, 310),
			geometry.Seg(0, 50, 1000, 50),
		}

		_, err := sel.Select(in, band)
		if !errors.Is(err, ErrTooFewEdges) {
			t.Fatalf("expected ErrTooFewEdges, got %v", err)
		}

		var calErr *Error
		if !errors.As(err, &calErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if calErr.Stage != "edge selection" {
			t.Errorf("Stage = %q, want %q", calErr.Stage, "edge selection")
		}
	})

	t.Run("top margin widens along the edge", func(t *testing.T) {
		widened := EdgeSelector{MinWidth: 200, TopMargin: 10}
		in := []geometry.Line{
			geometry.Seg(100, 300, 900, 310),
			geometry.Seg(120, 600, 880, 600),
		}

		got, err := widened.Select(in, band)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}

		want := geometry.Seg(90, 299.875, 910, 310.125)
		if diff := cmp.Diff(want, got.Top, cmpopts.EquateApprox(0, tolerance)); diff != "" {
			t.Errorf("widened top mismatch (-want +got):\n%s", diff)
		}
		if got.Bottom != geometry.Seg(120, 600, 880, 600) {
			t.Errorf("bottom edge should not be widened, got %v", got.Bottom)
		}
	})
}

func TestSolveHomography_RoundTrip(t *testing.T) {
	src := [4]geometry.Point{
		geometry.Pt(100, 300),
		geometry.Pt(900, 310),
		geometry.Pt(880, 590),
		geometry.Pt(120, 600),
	}
	dst := Target(1920, 1080)

	h, err := SolveHomography(src, dst)
	if err != nil {
		t.Fatalf("SolveHomography() error = %v", err)
	}

	inv, err := h.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}

	for i := range src {
		got := h.Apply(src[i])
		if got.Distance(dst[i]) > tolerance {
			t.Errorf("corner %d mapped to %v, want %v", i, got, dst[i])
		}

		back := inv.Apply(got)
		if back.Distance(src[i]) > tolerance {
			t.Errorf("corner %d round trip = %v, want %v", i, back, src[i])
		}
	}

	t.Run("interior points round trip", func(t *testing.T) {
		for _, p := range []geometry.Point{geometry.Pt(500, 450), geometry.Pt(130, 590), geometry.Pt(850, 320)} {
			back := inv.Apply(h.Apply(p))
			if back.Distance(p) > tolerance {
				t.Errorf("round trip of %v = %v", p, back)
			}
		}
	})
}

func TestSolveHomography_Identity(t *testing.T) {
	rect := Target(640, 480)

	h, err := SolveHomography(rect, rect)
	if err != nil {
		t.Fatalf("SolveHomography() error = %v", err)
	}

	want := Identity()
	for i := range want {
		if math.Abs(h[i]-want[i]) > tolerance {
			t.Errorf("h[%d] = %f, want %f", i, h[i], want[i])
		}
	}
}

func TestSolveHomography_Degenerate(t *testing.T) {
	collinear := [4]geometry.Point{
		geometry.Pt(0, 0),
		geometry.Pt(100, 0),
		geometry.Pt(200, 0),
		geometry.Pt(300, 0),
	}

	_, err := SolveHomography(collinear, Target(640, 480))
	if !errors.Is(err, ErrDegenerateQuad) {
		t.Errorf("expected ErrDegenerateQuad, got %v", err)
	}
}

func TestCalibrate(t *testing.T) {
	raw := []geometry.Segment{
		geometry.Seg(505, 300, 900, 300),
		geometry.Seg(100, 300, 500, 300),
		geometry.Seg(400, 320, 401, 580), // key edge, vertical
		geometry.Seg(120, 600, 880, 600),
		geometry.Seg(0, 100, 1000, 100), // table edge above the band
	}
	band := Band{Top: 200, Bottom: 700}

	cal, err := Calibrate(raw, band, 1920, 1080, DefaultParams())
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	wantEdges := Edges{
		Top:    geometry.Seg(100, 300, 900, 300),
		Bottom: geometry.Seg(120, 600, 880, 600),
	}
	if diff := cmp.Diff(wantEdges, cal.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}

	targets := Target(1920, 1080)
	for i, corner := range cal.Edges.Corners() {
		if got := cal.Rectify(corner); got.Distance(targets[i]) > tolerance {
			t.Errorf("corner %d rectified to %v, want %v", i, got, targets[i])
		}
	}

	if len(cal.Lines.Merged) != 3 {
		t.Errorf("expected 3 merged lines, got %d: %v", len(cal.Lines.Merged), cal.Lines.Merged)
	}
}

func TestCalibrate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		raw       []geometry.Segment
		band      Band
		wantErr   error
		wantStage string
	}{
		{
			name:      "empty band",
			raw:       []geometry.Segment{geometry.Seg(0, 300, 900, 300)},
			band:      Band{Top: 500, Bottom: 500},
			wantErr:   ErrFiducial,
			wantStage: "fiducial",
		},
		{
			name:      "single edge",
			raw:       []geometry.Segment{geometry.Seg(0, 300, 900, 300)},
			band:      Band{Top: 200, Bottom: 700},
			wantErr:   ErrTooFewEdges,
			wantStage: "edge selection",
		},
		{
			name:      "no segments",
			band:      Band{Top: 200, Bottom: 700},
			wantErr:   ErrTooFewEdges,
			wantStage: "edge selection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calibrate(tt.raw, tt.band, 1920, 1080, DefaultParams())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var calErr *Error
			if !errors.As(err, &calErr) || calErr.Stage != tt.wantStage {
				t.Errorf("expected stage %q, got %v", tt.wantStage, err)
			}
		})
	}
}
