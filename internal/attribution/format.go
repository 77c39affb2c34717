package attribution

import (
	"fmt"

	"github.com/ayusman/keysight/internal/keyboard"
)

// MissedLabel is written in place of a finger name for a missed note.
const MissedLabel = "missed"

// Formatter renders attributions with the note and finger tables.
type Formatter struct {
	Notes   keyboard.NoteTable
	Fingers keyboard.FingerNames
}

// FingerName returns the finger label of a, or MissedLabel.
func (f Formatter) FingerName(a Attribution) string {
	if a.IsMissed() {
		return MissedLabel
	}
	return f.Fingers.Name(a.Finger)
}

// LogLine returns the results-log line "<note>;<finger>\n".
func (f Formatter) LogLine(a Attribution) (string, error) {
	name, err := f.Notes.Name(a.Note)
	if err != nil {
		return "", err
	}
	return name + ";" + f.FingerName(a) + "\n", nil
}

// Describe returns a human readable summary such as "C4 played with Right
// Thumb".
func (f Formatter) Describe(a Attribution) string {
	name, err := f.Notes.Name(a.Note)
	if err != nil {
		name = fmt.Sprintf("note %d", a.Note)
	}
	if a.IsMissed() {
		return name + " missed"
	}
	return name + " played with " + f.FingerName(a)
}

// Fingering is an expected finger per note for a practice exercise.
type Fingering map[uint8]int

// CMajorFingering is the right-hand fingering of the C major scale from C4.
func CMajorFingering() Fingering {
	return Fingering{60: 5, 62: 6, 64: 7, 65: 5, 67: 6, 69: 7, 71: 8, 72: 9}
}

// Check reports the expected finger for a's note and whether a matches it.
// known is false when the exercise does not cover the note.
func (f Fingering) Check(a Attribution) (expected int, ok, known bool) {
	expected, known = f[a.Note]
	if !known {
		return Missed, false, false
	}
	return expected, a.Finger == expected, true
}

// Exercises maps exercise names to their fingering.
var Exercises = map[string]func() Fingering{
	"c-major": CMajorFingering,
}

// LookupFingering returns the fingering of a named exercise. An empty name
// returns a nil fingering, which checks nothing.
func LookupFingering(name string) (Fingering, error) {
	if name == "" {
		return nil, nil
	}
	f, ok := Exercises[name]
	if !ok {
		return nil, fmt.Errorf("unknown exercise %q", name)
	}
	return f(), nil
}
