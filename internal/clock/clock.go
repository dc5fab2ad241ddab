// Package clock converts durations into display ticks and drives the
// per-refresh loop every trial state runs on.
package clock

import (
	"errors"
	"math"
	"time"
)

// ErrAborted signals that the abort key (or an interrupt) stopped the run.
// It is a control outcome, not a failure.
var ErrAborted = errors.New("aborted by user")

// Ticks converts seconds into whole display refreshes.
func Ticks(seconds, frameRate float64) int {
	if seconds <= 0 || frameRate <= 0 {
		return 0
	}
	return int(math.Round(seconds * frameRate))
}

// TicksFromMillis converts milliseconds into whole display refreshes.
func TicksFromMillis(ms int, frameRate float64) int {
	return Ticks(float64(ms)/1000.0, frameRate)
}

// Flipper presents the pending frame and returns once the refresh happened.
type Flipper interface {
	Flip() time.Time
}

// AbortFunc reports whether the run has to stop. It is called before every tick.
type AbortFunc func() bool

// Driver runs callbacks once per display refresh.
type Driver struct {
	flipper Flipper
	abort   AbortFunc
	flips   int64
}

// NewDriver returns a Driver flipping on f. A nil abort never aborts.
func NewDriver(f Flipper, abort AbortFunc) *Driver {
	if abort == nil {
		abort = func() bool { return false }
	}
	return &Driver{flipper: f, abort: abort}
}

// CheckAbort returns ErrAborted once the abort condition holds.
func (d *Driver) CheckAbort() error {
	if d.abort() {
		return ErrAborted
	}
	return nil
}

// AwaitTicks calls onTick exactly n times, one refresh each, in order.
func (d *Driver) AwaitTicks(n int, onTick func(tick int)) error {
	_, err := d.AwaitUntil(n, func(tick int) bool {
		if onTick != nil {
			onTick(tick)
		}
		return false
	})
	return err
}

// AwaitUntil behaves like AwaitTicks but stops as soon as onTick returns
// true; that tick is not flipped. It returns the number of completed ticks.
func (d *Driver) AwaitUntil(n int, onTick func(tick int) bool) (int, error) {
	for i := 0; i < n; i++ {
		if err := d.CheckAbort(); err != nil {
			return i, err
		}
		if onTick != nil && onTick(i) {
			return i, nil
		}
		d.Flip()
	}
	return n, nil
}

// Flip advances a single refresh without an abort check.
func (d *Driver) Flip() time.Time {
	d.flips++
	return d.flipper.Flip()
}

// Flips returns the total number of refreshes driven so far.
func (d *Driver) Flips() int64 {
	return d.flips
}

// ReactionClock measures response latency from stimulus onset.
type ReactionClock struct {
	now  func() time.Time
	zero time.Time
}

// NewReactionClock returns a clock reading now; nil uses time.Now.
func NewReactionClock(now func() time.Time) *ReactionClock {
	if now == nil {
		now = time.Now
	}
	return &ReactionClock{now: now, zero: now()}
}

// Reset moves the zero point to the current time and returns it.
func (c *ReactionClock) Reset() time.Time {
	c.zero = c.now()
	return c.zero
}

// Zero returns the current zero point.
func (c *ReactionClock) Zero() time.Time {
	return c.zero
}

// Seconds returns the latency of at relative to the zero point, never negative.
func (c *ReactionClock) Seconds(at time.Time) float64 {
	d := at.Sub(c.zero)
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
