package clock

import (
	"sync"
	"time"
)

// FrameTicker paces flips at a fixed frame rate on the wall clock.
type FrameTicker struct {
	ticker *time.Ticker
	onFlip func()
}

// NewFrameTicker starts a ticker at frameRate. onFlip runs before each wait and
// is where a display pushes the pending frame to the screen.
func NewFrameTicker(frameRate float64, onFlip func()) *FrameTicker {
	if frameRate <= 0 {
		frameRate = 60
	}
	interval := time.Duration(float64(time.Second) / frameRate)
	return &FrameTicker{ticker: time.NewTicker(interval), onFlip: onFlip}
}

// Flip implements Flipper.
func (t *FrameTicker) Flip() time.Time {
	if t.onFlip != nil {
		t.onFlip()
	}
	return <-t.ticker.C
}

// Stop releases the underlying ticker.
func (t *FrameTicker) Stop() {
	t.ticker.Stop()
}

// ManualTicker is a synchronous tick source: every Flip returns immediately
// and advances a virtual clock by one frame interval.
type ManualTicker struct {
	mu     sync.Mutex
	now    time.Time
	step   time.Duration
	flips  int
	onFlip func(flip int)
}

// NewManualTicker returns a ticker whose virtual clock starts at start.
func NewManualTicker(start time.Time, frameRate float64) *ManualTicker {
	if frameRate <= 0 {
		frameRate = 60
	}
	return &ManualTicker{now: start, step: time.Duration(float64(time.Second) / frameRate)}
}

// OnFlip registers a hook called after each flip with the 1-based flip count.
func (m *ManualTicker) OnFlip(fn func(flip int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFlip = fn
}

// Flip implements Flipper.
func (m *ManualTicker) Flip() time.Time {
	m.mu.Lock()
	m.now = m.now.Add(m.step)
	m.flips++
	now, flips, hook := m.now, m.flips, m.onFlip
	m.mu.Unlock()
	if hook != nil {
		hook(flips)
	}
	return now
}

// Now returns the virtual time.
func (m *ManualTicker) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the virtual clock without counting a flip.
func (m *ManualTicker) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Flips returns the number of flips so far.
func (m *ManualTicker) Flips() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flips
}

// Step returns one frame interval.
func (m *ManualTicker) Step() time.Duration {
	return m.step
}
