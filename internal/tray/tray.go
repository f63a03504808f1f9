// Package tray provides a system tray interface for SignBridge.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/signbridge/internal/gesture"
)

// maxTextLen is how much of the accumulated text the menu shows.
const maxTextLen = 24

// Tray represents the system tray application. It also receives letter
// events so it can be used as an emitter.
type Tray struct {
	onToggle       func(enabled bool)
	onCommit       func()
	onClearText    func()
	onClearSamples func()
	onQuit         func()
	enabled        bool
	last           string
	text           string
	mu             sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	menuText   *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when the camera is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnCommit sets the callback for the commit text menu item.
func (t *Tray) OnCommit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCommit = fn
}

// OnClearText sets the callback for the clear text menu item.
func (t *Tray) OnClearText(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClearText = fn
}

// OnClearSamples sets the callback for the clear samples menu item.
func (t *Tray) OnClearSamples(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClearSamples = fn
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

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("SignBridge")
	systray.SetTooltip("SignBridge ASL fingerspelling")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle camera recognition")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last emitted letter")
	t.menuLast.Disable()
	t.menuText = systray.AddMenuItem(textTitle(t.text), "Accumulated text")
	t.menuText.Disable()
	t.mu.Unlock()

	menuCommit := systray.AddMenuItem("Commit Text", "Save the text as a transcript")
	menuClearText := systray.AddMenuItem("Clear Text", "Discard the accumulated text")
	systray.AddSeparator()

	menuClearSamples := systray.AddMenuItem("Clear Training Samples", "Delete every recorded sample")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit SignBridge")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuCommit.ClickedCh:
				t.call(func() func() { return t.onCommit })
			case <-menuClearText.ClickedCh:
				t.call(func() func() { return t.onClearText })
			case <-menuClearSamples.ClickedCh:
				t.call(func() func() { return t.onClearSamples })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback returned by get outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.call(func() func() { return t.onQuit })
	systray.Quit()
}

// Publish shows an emitted letter and the text so far.
func (t *Tray) Publish(event gesture.LetterEvent) error {
	t.SetText(event.Letter, event.Text)
	return nil
}

// Close is a no-op; the tray is stopped with Quit.
func (t *Tray) Close() error {
	return nil
}

// SetText updates the last letter and text display in the menu.
func (t *Tray) SetText(last, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = last
	t.text = text
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(last))
	}
	if t.menuText != nil {
		t.menuText.SetTitle(textTitle(text))
	}
}

// Last returns the last letter shown.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// SetEnabled sets the toggle state without calling OnToggle.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Camera On"
	}
	return "○ Camera Off"
}

func lastTitle(letter string) string {
	if letter == "" {
		return "Last: none"
	}
	return "Last: " + letter
}

func textTitle(text string) string {
	if text == "" {
		return "Text: (empty)"
	}
	if len(text) > maxTextLen {
		text = "…" + text[len(text)-maxTextLen:]
	}
	return "Text: " + text
}
