package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands  []HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	return m.closed
}

// PlayingHandLandmarks returns a preset hand resting on the keys, with the
// thumb tip at (x, y) and the other fingertips spaced by spread to its
// right (negative spread places them to the left). Knuckles sit above the
// fingertips, as seen from a camera facing the player.
func PlayingHandLandmarks(handedness string, x, y, spread float64) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: x + 2*spread, Y: y - 0.25}

	fingers := [5][4]int{
		{ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
		{IndexMCP, IndexPIP, IndexDIP, IndexTip},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{RingMCP, RingPIP, RingDIP, RingTip},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	for f, joints := range fingers {
		fx := x + float64(f)*spread
		for j, lm := range joints {
			// Joints step down towards the tip, which lands on y.
			landmarks.Points[lm] = Point3D{X: fx, Y: y - float64(3-j)*0.04, Z: -0.01 * float64(j)}
		}
	}

	return landmarks
}
