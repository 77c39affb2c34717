package keyboard

import (
	"errors"
	"fmt"
)

// ErrUnknownNote is returned for a MIDI note that is not on the keyboard.
var ErrUnknownNote = errors.New("note is not on the keyboard")

// Default note range of the 49-key keyboard.
const (
	LowestNote  uint8 = 36
	HighestNote uint8 = 84
)

var noteNames = [12]string{"C", "C#/Db", "D", "D#/Eb", "E", "F", "F#/Gb", "G", "G#/Ab", "A", "A#/Bb", "B"}

// NoteName returns the scientific pitch name of a MIDI note, with middle C
// (60) as C4. Accidentals carry both spellings.
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}

// IsBlack reports whether the pitch class of note is an accidental.
func IsBlack(note uint8) bool {
	switch note % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// Key identifies a key by colour and by its index into the layout.
type Key struct {
	Note  uint8 `json:"note"`
	Black bool  `json:"black"`
	Index int   `json:"index"`
}

// NoteTable maps MIDI notes to keys and names. Key index i of each colour is
// the i-th interval of that colour in the layout, left to right in the image.
type NoteTable struct {
	BlackKeys []uint8         `json:"black_keys"`
	WhiteKeys []uint8         `json:"white_keys"`
	Names     map[uint8]string `json:"names"`
}

// DefaultNoteTable returns the tables for a 49-key keyboard photographed from
// the player's side, so the highest note appears leftmost.
func DefaultNoteTable() NoteTable {
	t := NoteTable{Names: make(map[uint8]string, int(HighestNote-LowestNote)+1)}
	for n := int(HighestNote); n >= int(LowestNote); n-- {
		note := uint8(n)
		if IsBlack(note) {
			t.BlackKeys = append(t.BlackKeys, note)
		} else {
			t.WhiteKeys = append(t.WhiteKeys, note)
		}
		t.Names[note] = NoteName(note)
	}
	return t
}

// Lookup returns the key a note sounds on.
func (t NoteTable) Lookup(note uint8) (Key, error) {
	for i, n := range t.BlackKeys {
		if n == note {
			return Key{Note: note, Black: true, Index: i}, nil
		}
	}
	for i, n := range t.WhiteKeys {
		if n == note {
			return Key{Note: note, Black: false, Index: i}, nil
		}
	}
	return Key{}, fmt.Errorf("%w: %d", ErrUnknownNote, note)
}

// Name returns the display name of a note.
func (t NoteTable) Name(note uint8) (string, error) {
	name, ok := t.Names[note]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownNote, note)
	}
	return name, nil
}

// FingerNames are the ten canonical fingers, left pinky to right pinky.
type FingerNames [10]string

// DefaultFingerNames returns the finger table indexed 0..9.
func DefaultFingerNames() FingerNames {
	return FingerNames{
		"Left Pinky", "Left Ring", "Left Middle", "Left Index", "Left Thumb",
		"Right Thumb", "Right Index", "Right Middle", "Right Ring", "Right Pinky",
	}
}

// Name returns the name of finger i, or "finger <i>" if it is out of range.
func (f FingerNames) Name(i int) string {
	if i < 0 || i >= len(f) {
		return fmt.Sprintf("finger %d", i)
	}
	return f[i]
}
