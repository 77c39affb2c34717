// Package attribution decides which fingertip played a sounding key.
package attribution

import (
	"fmt"

	"github.com/ayusman/keysight/internal/geometry"
	"github.com/ayusman/keysight/internal/keyboard"
)

// Missed is the finger index reported when no fingertip is over the key.
const Missed = -1

// Fingertip is a fingertip position in rectified coordinates.
type Fingertip struct {
	Finger int            `json:"finger"`
	Point  geometry.Point `json:"point"`
}

// Attribution is the outcome of one note-on event.
type Attribution struct {
	Note       uint8        `json:"note"`
	Key        keyboard.Key `json:"key"`
	Finger     int          `json:"finger"`
	Candidates []Fingertip  `json:"candidates,omitempty"`
}

// IsMissed reports whether no fingertip was over the key.
func (a Attribution) IsMissed() bool {
	return a.Finger == Missed
}

// Attributor maps a sounding note to the finger playing it.
type Attributor struct {
	Layout *keyboard.Layout
	Notes  keyboard.NoteTable
}

// New creates an attributor over a layout and note table.
func New(layout *keyboard.Layout, notes keyboard.NoteTable) *Attributor {
	return &Attributor{Layout: layout, Notes: notes}
}

// Attribute returns the fingertip over the key of note. Among the qualifying
// fingertips the one with the smallest y wins; ties keep input order.
func (a *Attributor) Attribute(note uint8, tips []Fingertip) (Attribution, error) {
	key, err := a.Notes.Lookup(note)
	if err != nil {
		return Attribution{}, err
	}

	candidates, err := a.Qualifying(key, tips)
	if err != nil {
		return Attribution{}, err
	}

	out := Attribution{Note: note, Key: key, Finger: Missed, Candidates: candidates}
	best := -1
	for i, c := range candidates {
		if best < 0 || c.Point.Y < candidates[best].Point.Y {
			best = i
		}
	}
	if best >= 0 {
		out.Finger = candidates[best].Finger
	}
	return out, nil
}

// Qualifying returns the fingertips physically over key, in input order.
func (a *Attributor) Qualifying(key keyboard.Key, tips []Fingertip) ([]Fingertip, error) {
	l := a.Layout

	if key.Black {
		iv, ok := l.BlackKey(key.Index)
		if !ok {
			return nil, fmt.Errorf("black key index %d outside layout: %w", key.Index, keyboard.ErrUnknownNote)
		}
		var out []Fingertip
		for _, t := range tips {
			if t.Point.Y > l.BlackKeyBase && iv.Contains(t.Point.X) {
				out = append(out, t)
			}
		}
		return out, nil
	}

	iv, ok := l.WhiteKey(key.Index)
	if !ok {
		return nil, fmt.Errorf("white key index %d outside layout: %w", key.Index, keyboard.ErrUnknownNote)
	}
	var out []Fingertip
	for _, t := range tips {
		clear := t.Point.Y < l.BlackKeyBase || !l.InAnyBlack(t.Point.X, l.BlackMargin)
		if clear && iv.Contains(t.Point.X) {
			out = append(out, t)
		}
	}
	return out, nil
}
