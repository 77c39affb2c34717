package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/keysight/internal/session"
	"github.com/ayusman/keysight/internal/vision"
)

// runPipeline is the live loop. Each tick it reads a frame, lets the session
// attribute the notes played since the previous tick, and refreshes the
// rectified preview. It exits when stopCh is closed or a key is pressed in
// the preview window.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.tuning.Session.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			quit := a.processFrame(frame)
			frame.Close()
			if quit {
				log.Println("Key pressed in preview window")
				return
			}
		}
	}
}

// processFrame runs one step of the live loop on frame and reports whether
// the user asked to quit.
func (a *App) processFrame(frame *gocv.Mat) bool {
	a.mu.RLock()
	sess := a.session
	cal := a.calibration
	layout := a.layout
	undistorter := a.undistorter
	display := a.display
	enabled := a.enabled
	sinks := append([]session.Sink(nil), a.sinks...)
	if a.recordSink != nil {
		sinks = append(sinks, a.recordSink)
	}
	a.mu.RUnlock()

	if undistorter != nil {
		undistorted := gocv.NewMat()
		defer undistorted.Close()
		undistorter.Apply(*frame, &undistorted)
		frame = &undistorted
	}

	if !enabled {
		if n := sess.Drain(); n > 0 {
			log.Printf("Tracking paused, discarded %d MIDI events", n)
		}
	} else {
		results, err := sess.Step(frame, sinks...)
		if err != nil {
			log.Printf("Error attributing notes: %v", err)
		}
		for _, r := range results {
			log.Println(r.Text)
		}
	}

	rectified := vision.Warp(*frame, cal.Homography, cal.Width, cal.Height)
	defer rectified.Close()

	highlight := -1
	if last, ok := sess.Last(); ok {
		highlight = last.Attribution.Finger
		vision.DrawLabel(&rectified, last.Text)
	}
	vision.DrawLayout(&rectified, layout)
	vision.DrawFingertips(&rectified, sess.Fingertips(), highlight)
	a.frames.Set(rectified)

	if display != nil {
		return display.Show(rectified) >= 0
	}
	return false
}
