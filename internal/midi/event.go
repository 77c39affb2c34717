// Package midi receives note events from a MIDI input port.
package midi

import "fmt"

// Status nibbles of the channel voice messages the pipeline cares about.
const (
	NoteOff uint8 = 0x80
	NoteOn  uint8 = 0x90
)

// Event is one channel voice message.
type Event struct {
	Status   uint8 `json:"status"`
	Note     uint8 `json:"note"`
	Velocity uint8 `json:"velocity"`
}

// Kind returns the message type with the channel stripped.
func (e Event) Kind() uint8 {
	return e.Status & 0xF0
}

// Channel returns the zero-based MIDI channel.
func (e Event) Channel() uint8 {
	return e.Status & 0x0F
}

// IsNoteOn reports whether e starts a note. A note-on with zero velocity
// is a note-off.
func (e Event) IsNoteOn() bool {
	return e.Kind() == NoteOn && e.Velocity > 0
}

func (e Event) String() string {
	return fmt.Sprintf("status=%#02x note=%d velocity=%d", e.Status, e.Note, e.Velocity)
}

// Decode parses a raw three-byte channel message. It returns false for
// system messages and short reads.
func Decode(data []byte) (Event, bool) {
	if len(data) < 3 || data[0] < 0x80 || data[0] >= 0xF0 {
		return Event{}, false
	}
	return Event{Status: data[0], Note: data[1] & 0x7F, Velocity: data[2] & 0x7F}, true
}
