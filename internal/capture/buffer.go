package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent frame for readers on other goroutines,
// such as the preview stream.
type FrameBuffer struct {
	mu    sync.Mutex
	frame gocv.Mat
	set   bool
}

// NewFrameBuffer creates an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Set stores a copy of img, replacing the previous frame.
func (b *FrameBuffer) Set(img gocv.Mat) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.set {
		b.frame.Close()
	}
	b.frame = img.Clone()
	b.set = true
}

// Latest returns a copy of the stored frame. The caller closes it.
func (b *FrameBuffer) Latest() (gocv.Mat, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.set {
		return gocv.Mat{}, false
	}
	return b.frame.Clone(), true
}

// Close releases the stored frame.
func (b *FrameBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.set {
		return nil
	}
	b.set = false
	return b.frame.Close()
}
