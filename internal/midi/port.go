package midi

import (
	"errors"
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// ErrNoInput is returned when no matching MIDI input port exists.
var ErrNoInput = errors.New("no MIDI input port")

// PortSource is a Source reading from a hardware or virtual MIDI input
// through RtMidi.
type PortSource struct {
	drv gomidi.Driver
	in  gomidi.In
	q   *queue
}

// ListInputs returns the names of the available input ports.
func ListInputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open midi driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}

	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// OpenInput opens the input port whose name contains name, or the first
// port when name is empty.
func OpenInput(name string, queueSize int) (*PortSource, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open midi driver: %w", err)
	}

	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}

	in, err := selectInput(ins, name)
	if err != nil {
		drv.Close()
		return nil, err
	}

	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open midi input %q: %w", in.String(), err)
	}

	s := &PortSource{drv: drv, in: in, q: newQueue(queueSize)}
	err = in.SetListener(func(data []byte, _ int64) {
		if e, ok := Decode(data); ok {
			s.q.push(e)
		}
	})
	if err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("listen on midi input %q: %w", in.String(), err)
	}

	return s, nil
}

func selectInput(ins []gomidi.In, name string) (gomidi.In, error) {
	if len(ins) == 0 {
		return nil, ErrNoInput
	}
	if name == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w matching %q", ErrNoInput, name)
}

// Name returns the port name.
func (s *PortSource) Name() string {
	return s.in.String()
}

// Poll returns the next pending event without blocking.
func (s *PortSource) Poll() (Event, bool) {
	return s.q.poll()
}

// Close stops listening and releases the port and driver.
func (s *PortSource) Close() error {
	return errors.Join(s.in.StopListening(), s.in.Close(), s.drv.Close())
}
