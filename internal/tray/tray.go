// Package tray provides the system tray menu of a live keysight session.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/keysight/internal/session"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(tracking bool)
	onPreview func()
	onQuit    func()
	tracking  bool
	last      string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray instance with tracking enabled.
func New() *Tray {
	return &Tray{
		tracking: true,
	}
}

// OnToggle sets the callback function to be called when tracking is paused
// or resumed.
func (t *Tray) OnToggle(fn func(tracking bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreview sets the callback function to be called when the preview menu
// item is clicked.
func (t *Tray) OnPreview(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreview = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("keysight")
	systray.SetTooltip("keysight finger tracking")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.tracking), "Pause or resume finger tracking")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last attributed note")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuPreview := systray.AddMenuItem("Open Preview...", "Open the rectified preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Stop the session and quit")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuPreview.ClickedCh:
				t.handlePreview()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(tracking bool) string {
	if tracking {
		return "● Tracking"
	}
	return "○ Paused"
}

func lastTitle(text string) string {
	if text == "" {
		return "Last: none"
	}
	return "Last: " + text
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.tracking = !t.tracking
	tracking := t.tracking
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(tracking))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(tracking)
	}
}

// handlePreview handles the preview menu item click.
func (t *Tray) handlePreview() {
	t.mu.RLock()
	callback := t.onPreview
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLast updates the last attribution shown in the menu.
func (t *Tray) SetLast(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = text
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(text))
	}
}

// Last returns the text of the last attribution.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Record shows r as the last attribution. It implements session.Sink.
func (t *Tray) Record(r session.Result) error {
	t.SetLast(r.Text)
	return nil
}

// IsTracking returns whether tracking is enabled.
func (t *Tray) IsTracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}
