package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/keysight/internal/geometry"
)

func TestHandLandmarks_Pixel(t *testing.T) {
	hand := HandLandmarks{}
	hand.Points[IndexTip] = Point3D{X: 0.5, Y: 0.25}
	hand.Points[ThumbTip] = Point3D{X: 0.1003, Y: 0.99999}

	if got := hand.Pixel(IndexTip, 1920, 1080); got != geometry.Pt(960, 270) {
		t.Errorf("Pixel(IndexTip) = %v", got)
	}
	if got := hand.Pixel(ThumbTip, 1920, 1080); got != geometry.Pt(193, 1080) {
		t.Errorf("Pixel(ThumbTip) = %v, want rounded (193, 1080)", got)
	}
}

func TestFingertips(t *testing.T) {
	// A "Right" label is the player's left hand in a mirrored image.
	left := PlayingHandLandmarks("Right", 0.4, 0.5, -0.05)
	right := PlayingHandLandmarks("Left", 0.6, 0.5, 0.05)

	t.Run("both hands mirrored", func(t *testing.T) {
		tips := Fingertips([]HandLandmarks{right, left}, 1000, 1000, true)
		if len(tips) != NumFingers {
			t.Fatalf("expected %d fingertips, got %d", NumFingers, len(tips))
		}

		for i, tip := range tips {
			if tip.Finger != i {
				t.Errorf("fingertip %d has finger %d", i, tip.Finger)
			}
		}

		// Left thumb at 400, pinky four spreads to its left.
		if tips[LeftThumb].Point != geometry.Pt(400, 500) {
			t.Errorf("left thumb = %v", tips[LeftThumb].Point)
		}
		if tips[LeftPinky].Point != geometry.Pt(200, 500) {
			t.Errorf("left pinky = %v", tips[LeftPinky].Point)
		}
		if tips[RightThumb].Point != geometry.Pt(600, 500) {
			t.Errorf("right thumb = %v", tips[RightThumb].Point)
		}
		if tips[RightPinky].Point != geometry.Pt(800, 500) {
			t.Errorf("right pinky = %v", tips[RightPinky].Point)
		}
	})

	t.Run("not mirrored swaps hands", func(t *testing.T) {
		tips := Fingertips([]HandLandmarks{left}, 1000, 1000, false)
		if len(tips) != 5 {
			t.Fatalf("expected 5 fingertips, got %d", len(tips))
		}
		if tips[0].Finger != RightThumb {
			t.Errorf("expected a right hand, first finger is %d", tips[0].Finger)
		}
	})

	t.Run("missing hand is absent", func(t *testing.T) {
		tips := Fingertips([]HandLandmarks{right}, 1000, 1000, true)
		want := []int{RightThumb, RightIndex, RightMiddle, RightRing, RightPinky}
		var got []int
		for _, tip := range tips {
			got = append(got, tip.Finger)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("fingers mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("first hand per side wins", func(t *testing.T) {
		other := PlayingHandLandmarks("Left", 0.1, 0.1, 0.01)
		tips := Fingertips([]HandLandmarks{right, other}, 1000, 1000, true)
		if len(tips) != 5 || tips[0].Point != geometry.Pt(600, 500) {
			t.Errorf("expected the first right hand, got %v", tips)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		if tips := Fingertips(nil, 1000, 1000, true); len(tips) != 0 {
			t.Errorf("expected no fingertips, got %v", tips)
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		d := NewMockDetector()
		hands, err := d.Detect(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("returns configured hands and counts calls", func(t *testing.T) {
		d := NewMockDetector()
		d.SetHands([]HandLandmarks{PlayingHandLandmarks("Left", 0.5, 0.5, 0.05)})

		for i := 0; i < 3; i++ {
			if _, err := d.Detect(nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if d.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", d.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		d := NewMockDetector()
		want := errors.New("camera unplugged")
		d.SetError(want)

		if _, err := d.Detect(nil); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = NewMockDetector()
	})
}

func TestPlayingHandLandmarks(t *testing.T) {
	hand := PlayingHandLandmarks("Left", 0.3, 0.6, 0.02)

	if hand.Handedness != "Left" || hand.Score != 0.95 {
		t.Errorf("unexpected handedness %q score %v", hand.Handedness, hand.Score)
	}

	for _, pair := range [][2]int{{IndexMCP, IndexTip}, {PinkyMCP, PinkyTip}} {
		if hand.Points[pair[0]].Y >= hand.Points[pair[1]].Y {
			t.Errorf("knuckle %d should be above tip %d", pair[0], pair[1])
		}
	}
	if hand.Points[PinkyTip].X <= hand.Points[ThumbTip].X {
		t.Error("positive spread should place the pinky right of the thumb")
	}
}

func TestServiceProtocol(t *testing.T) {
	t.Run("frame is length prefixed", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeFrame(&buf, []byte("jpeg")); err != nil {
			t.Fatalf("writeFrame() error = %v", err)
		}
		out := buf.Bytes()
		if binary.BigEndian.Uint32(out[:4]) != 4 || string(out[4:]) != "jpeg" {
			t.Errorf("unexpected frame bytes %v", out)
		}
	})

	t.Run("reads hands", func(t *testing.T) {
		line := `{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Right","score":0.9}]}` + "\n"
		hands, err := readHands(bufio.NewReader(strings.NewReader(line)))
		if err != nil {
			t.Fatalf("readHands() error = %v", err)
		}
		if len(hands) != 1 || hands[0].Handedness != "Right" || hands[0].Points[Wrist].Y != 0.2 {
			t.Errorf("unexpected hands %+v", hands)
		}
	})

	t.Run("service error", func(t *testing.T) {
		line := `{"hands":[],"error":"bad image"}` + "\n"
		if _, err := readHands(bufio.NewReader(strings.NewReader(line))); err == nil {
			t.Error("expected service error")
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		if _, err := readHands(bufio.NewReader(strings.NewReader("not json\n"))); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestNewMediaPipeDetector(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing service script", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = filepath.Join(dir, "missing", serviceScript)
		if _, err := NewMediaPipeDetector(cfg); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("existing service script", func(t *testing.T) {
		script := filepath.Join(dir, serviceScript)
		if err := os.WriteFile(script, []byte("print()\n"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		cfg := DefaultConfig()
		cfg.ScriptPath = script
		cfg.PythonPath = "python3"

		d, err := NewMediaPipeDetector(cfg)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		defer d.Close()
		if d.script != script || d.python != "python3" {
			t.Errorf("unexpected detector paths %q %q", d.script, d.python)
		}
	})
}
