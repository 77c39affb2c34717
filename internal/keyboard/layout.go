// Package keyboard models the key boundaries of the rectified keyboard and the
// tables mapping MIDI notes onto them.
package keyboard

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/keysight/internal/geometry"
)

// Default geometry of the rectified 1920x1080 keyboard image, in pixels.
const (
	DefaultBlackKeyBase     = 380
	DefaultWhiteBorderCount = 30
	DefaultBlackMargin      = -5

	defaultLeadIn     = 90
	defaultKeyWidth   = 50
	defaultGap        = 27
	defaultExtraGap   = 14
	defaultBlackCount = 20
)

// ErrOddSpacings is returned when the spacing sequence cannot be split into
// (gap, width) pairs.
var ErrOddSpacings = errors.New("spacing sequence must have an even length")

// Interval is a horizontal span Low <= x < High in rectified coordinates.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether x lies inside the interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Low && x < iv.High
}

// Grow returns the interval extended by margin on both sides. A negative
// margin shrinks it.
func (iv Interval) Grow(margin float64) Interval {
	return Interval{Low: iv.Low - margin, High: iv.High + margin}
}

// LayoutConfig holds the constants the layout is built from.
type LayoutConfig struct {
	// BlackKeyBase is the y coordinate of the bottom of the black keys.
	// Fingertips below it (larger y) reach into the black-key zone.
	BlackKeyBase float64 `json:"black_key_base"`
	// Spacings alternates the gap before a black key and its width.
	Spacings []float64 `json:"spacings"`
	// WhiteBorderCount is the number of evenly spaced white-key borders.
	WhiteBorderCount int `json:"white_border_count"`
	// TallBorders are the border indices between two white keys with no
	// black key in between.
	TallBorders []int `json:"tall_borders"`
	// BlackMargin widens each black interval when testing whether a
	// fingertip on a white key is clear of the black keys.
	BlackMargin float64 `json:"black_margin"`
}

// DefaultLayoutConfig returns the layout of a 49-key keyboard photographed
// at 1920x1080.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		BlackKeyBase:     DefaultBlackKeyBase,
		Spacings:         DefaultSpacings(defaultLeadIn, defaultKeyWidth, defaultGap, defaultExtraGap),
		WhiteBorderCount: DefaultWhiteBorderCount,
		TallBorders:      []int{1, 5, 8, 12, 15, 19, 22, 26, 29},
		BlackMargin:      DefaultBlackMargin,
	}
}

// DefaultSpacings builds the spacing sequence for four octaves of black keys.
// Within a group the gap between black keys is gap; between groups (across
// E-F and B-C) it is 2*gap+extra.
func DefaultSpacings(leadIn, width, gap, extra float64) []float64 {
	wide := 2*gap + extra
	// The image runs from the highest note, so each octave starts with the
	// group of three.
	groups := []int{3, 2, 3, 2, 3, 2, 3, 2}
	gaps := make([]float64, 0, defaultBlackCount)

	first := true
	for g, n := range groups {
		for k := 0; k < n; k++ {
			switch {
			case first:
				gaps = append(gaps, leadIn)
				first = false
			case k == 0 && g > 0:
				gaps = append(gaps, wide)
			default:
				gaps = append(gaps, gap)
			}
		}
	}

	out := make([]float64, 0, 2*len(gaps))
	for _, g := range gaps {
		out = append(out, g, width)
	}
	return out
}

// Layout is the key-boundary model in rectified coordinates. It is built
// once and shared read-only.
type Layout struct {
	BlackKeyBase float64    `json:"black_key_base"`
	BlackMargin  float64    `json:"black_margin"`
	Black        []Interval `json:"black"`
	WhiteBorders []float64  `json:"white_borders"`
	Tall         []bool     `json:"tall"`
	Width        float64    `json:"width"`
}

// NewLayout builds the layout for a rectified image of the given width. The
// black-key offsets are fixed pixel values; only the white borders scale with
// width.
func NewLayout(cfg LayoutConfig, width float64) (*Layout, error) {
	if len(cfg.Spacings)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d values", ErrOddSpacings, len(cfg.Spacings))
	}
	if cfg.WhiteBorderCount < 2 {
		return nil, fmt.Errorf("need at least 2 white borders, got %d", cfg.WhiteBorderCount)
	}
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("invalid layout width %v", width)
	}

	l := &Layout{
		BlackKeyBase: cfg.BlackKeyBase,
		BlackMargin:  cfg.BlackMargin,
		Black:        make([]Interval, 0, len(cfg.Spacings)/2),
		WhiteBorders: make([]float64, cfg.WhiteBorderCount),
		Tall:         make([]bool, cfg.WhiteBorderCount),
		Width:        width,
	}

	total := 0.0
	for i := 0; i < len(cfg.Spacings); i += 2 {
		low := total + cfg.Spacings[i]
		high := low + cfg.Spacings[i+1]
		l.Black = append(l.Black, Interval{Low: low, High: high})
		total = high
	}

	last := cfg.WhiteBorderCount - 1
	for i := range l.WhiteBorders {
		l.WhiteBorders[i] = width * float64(i) / float64(last)
	}
	l.WhiteBorders[last] = width

	for _, idx := range cfg.TallBorders {
		if idx < 0 || idx >= cfg.WhiteBorderCount {
			return nil, fmt.Errorf("tall border %d out of range [0, %d)", idx, cfg.WhiteBorderCount)
		}
		l.Tall[idx] = true
	}

	return l, nil
}

// WhiteKeys returns the number of white keys, one fewer than the borders.
func (l *Layout) WhiteKeys() int {
	return len(l.WhiteBorders) - 1
}

// WhiteKey returns the interval of white key i.
func (l *Layout) WhiteKey(i int) (Interval, bool) {
	if i < 0 || i >= l.WhiteKeys() {
		return Interval{}, false
	}
	return Interval{Low: l.WhiteBorders[i], High: l.WhiteBorders[i+1]}, true
}

// BlackKey returns the interval of black key i.
func (l *Layout) BlackKey(i int) (Interval, bool) {
	if i < 0 || i >= len(l.Black) {
		return Interval{}, false
	}
	return l.Black[i], true
}

// InAnyBlack reports whether x falls inside any black-key interval grown by
// margin.
func (l *Layout) InAnyBlack(x, margin float64) bool {
	for _, iv := range l.Black {
		if iv.Grow(margin).Contains(x) {
			return true
		}
	}
	return false
}

// Guide is a vertical key boundary to draw on the rectified image.
type Guide struct {
	Segment geometry.Segment
	Black   bool
	Tall    bool
}

// Guides returns the boundary lines of the layout for an image of the given
// height. Short white borders run from the top to the black-key base and tall
// ones span the full height. Black-key edges run from the base to the bottom.
func (l *Layout) Guides(height float64) []Guide {
	out := make([]Guide, 0, len(l.WhiteBorders)+2*len(l.Black))
	for i, x := range l.WhiteBorders {
		x = math.Round(x)
		bottom := l.BlackKeyBase
		if l.Tall[i] {
			bottom = height
		}
		out = append(out, Guide{Segment: geometry.Seg(x, 0, x, bottom), Tall: l.Tall[i]})
	}
	for _, iv := range l.Black {
		for _, x := range []float64{iv.Low, iv.High} {
			out = append(out, Guide{Segment: geometry.Seg(x, l.BlackKeyBase, x, height), Black: true})
		}
	}
	return out
}
