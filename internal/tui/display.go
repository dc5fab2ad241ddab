package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/simonrt/internal/clock"
	"github.com/verte-zerg/simonrt/internal/screen"
)

// Display is a double-buffered surface over a running Bubble Tea program.
// Draw fills the back buffer; Flip presents it, clears it and waits for the
// next frame boundary.
type Display struct {
	mu        sync.Mutex
	back      screen.Frame
	presented screen.Frame
	sent      bool
	send      func(tea.Msg)
	ticker    *clock.FrameTicker
}

// NewDisplay paces flips at frameRate and presents frames through send,
// usually (*tea.Program).Send.
func NewDisplay(frameRate float64, send func(tea.Msg)) *Display {
	d := &Display{send: send, back: screen.Frame{Kind: screen.FrameBlank}}
	d.ticker = clock.NewFrameTicker(frameRate, d.present)
	return d
}

// Draw implements screen.Surface.
func (d *Display) Draw(f screen.Frame) {
	d.mu.Lock()
	d.back = f
	d.mu.Unlock()
}

// Flip implements clock.Flipper.
func (d *Display) Flip() time.Time {
	return d.ticker.Flip()
}

// Stop releases the frame ticker.
func (d *Display) Stop() {
	d.ticker.Stop()
}

func (d *Display) present() {
	d.mu.Lock()
	f := d.back
	d.back = screen.Frame{Kind: screen.FrameBlank}
	changed := !d.sent || f != d.presented
	d.presented = f
	d.sent = true
	d.mu.Unlock()
	if changed && d.send != nil {
		d.send(frameMsg{frame: f})
	}
}
