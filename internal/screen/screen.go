// Package screen defines the contracts between the experiment core and
// whatever draws frames and reads the keyboard.
package screen

import (
	"time"

	"github.com/verte-zerg/simonrt/internal/stimulus"
)

// FrameKind selects what a frame shows.
type FrameKind int

const (
	FrameBlank FrameKind = iota
	FrameFixation
	FrameStimulus
	FrameFeedback
	FrameText
)

// Frame is the content of the back buffer.
type Frame struct {
	Kind    FrameKind
	Variant stimulus.Variant
	Text    string
	Correct bool
}

// Surface draws into a back buffer. The buffer is presented by the next flip
// and cleared afterwards, so content has to be drawn again every tick.
type Surface interface {
	Draw(f Frame)
}

// KeyPress is a key observed by the input source with its arrival time.
type KeyPress struct {
	Key stimulus.Key
	At  time.Time
}

// Input is a timestamped keyboard buffer.
type Input interface {
	// Clear drops every buffered key press.
	Clear()
	// Poll drains the buffer and returns presses of the given keys in arrival order.
	Poll(keys []stimulus.Key) []KeyPress
	// Wait blocks until one of keys is pressed, max elapses, or an abort is requested.
	Wait(keys []stimulus.Key, max time.Duration) (KeyPress, bool)
	// Aborted reports whether the abort key has been seen.
	Aborted() bool
	// Abort marks the run as aborted and wakes a pending Wait.
	Abort()
}
