package detector

import (
	"github.com/ayusman/keysight/internal/attribution"
)

// Canonical finger indices, left pinky to right pinky.
const (
	LeftPinky = iota
	LeftRing
	LeftMiddle
	LeftIndex
	LeftThumb
	RightThumb
	RightIndex
	RightMiddle
	RightRing
	RightPinky
	NumFingers
)

var (
	// leftTips lists landmarks for fingers LeftPinky..LeftThumb.
	leftTips = [5]int{PinkyTip, RingTip, MiddleTip, IndexTip, ThumbTip}
	// rightTips lists landmarks for fingers RightThumb..RightPinky.
	rightTips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}
)

// Fingertips extracts the ten canonical fingertips in pixel coordinates of a
// width x height frame. Fingers of a hand that was not detected are absent.
// When mirrored is set the handedness label is swapped, as MediaPipe reports
// handedness for a mirrored (selfie) image.
func Fingertips(hands []HandLandmarks, width, height int, mirrored bool) []attribution.Fingertip {
	var left, right *HandLandmarks
	for i := range hands {
		h := &hands[i]
		isLeft := h.Handedness == "Left"
		if mirrored {
			isLeft = !isLeft
		}
		// The first hand reported for a side wins.
		if isLeft && left == nil {
			left = h
		} else if !isLeft && right == nil {
			right = h
		}
	}

	out := make([]attribution.Fingertip, 0, NumFingers)
	if left != nil {
		for i, lm := range leftTips {
			out = append(out, attribution.Fingertip{Finger: LeftPinky + i, Point: left.Pixel(lm, width, height)})
		}
	}
	if right != nil {
		for i, lm := range rightTips {
			out = append(out, attribution.Fingertip{Finger: RightThumb + i, Point: right.Pixel(lm, width, height)})
		}
	}
	return out
}
