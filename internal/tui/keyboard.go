package tui

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/simonrt/internal/screen"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

// Keyboard is the timestamped key buffer fed by the Bubble Tea update loop
// and read by the experiment goroutine.
type Keyboard struct {
	mu       sync.Mutex
	buf      []screen.KeyPress
	notify   chan struct{}
	abortKey stimulus.Key
	aborted  chan struct{}
	once     sync.Once
	now      func() time.Time
}

// NewKeyboard returns a Keyboard that treats abortKey as a sticky abort.
func NewKeyboard(abortKey stimulus.Key) *Keyboard {
	return &Keyboard{
		notify:   make(chan struct{}, 1),
		abortKey: abortKey,
		aborted:  make(chan struct{}),
		now:      time.Now,
	}
}

// KeyName maps a Bubble Tea key event onto the names used in configuration.
func KeyName(msg tea.KeyMsg) stimulus.Key {
	switch msg.Type {
	case tea.KeySpace:
		return "space"
	case tea.KeyEsc:
		return "escape"
	case tea.KeyEnter:
		return "enter"
	}
	name := msg.String()
	if len(msg.Runes) == 1 {
		name = strings.ToLower(name)
	}
	return stimulus.Key(name)
}

// PushNow records key with the current time.
func (k *Keyboard) PushNow(key stimulus.Key) {
	k.Push(key, k.now())
}

// Push records key pressed at at. The abort key never enters the buffer.
func (k *Keyboard) Push(key stimulus.Key, at time.Time) {
	if key == k.abortKey {
		k.Abort()
		return
	}
	k.mu.Lock()
	k.buf = append(k.buf, screen.KeyPress{Key: key, At: at})
	k.mu.Unlock()
	select {
	case k.notify <- struct{}{}:
	default:
	}
}

// Abort marks the run as aborted and wakes any waiter.
func (k *Keyboard) Abort() {
	k.once.Do(func() { close(k.aborted) })
}

// Aborted implements screen.Input.
func (k *Keyboard) Aborted() bool {
	select {
	case <-k.aborted:
		return true
	default:
		return false
	}
}

// Clear implements screen.Input.
func (k *Keyboard) Clear() {
	k.mu.Lock()
	k.buf = nil
	k.mu.Unlock()
}

// Poll implements screen.Input.
func (k *Keyboard) Poll(keys []stimulus.Key) []screen.KeyPress {
	k.mu.Lock()
	pending := k.buf
	k.buf = nil
	k.mu.Unlock()

	var out []screen.KeyPress
	for _, p := range pending {
		if containsKey(keys, p.Key) {
			out = append(out, p)
		}
	}
	return out
}

// Wait implements screen.Input. Presses of other keys are discarded.
func (k *Keyboard) Wait(keys []stimulus.Key, max time.Duration) (screen.KeyPress, bool) {
	timer := time.NewTimer(max)
	defer timer.Stop()
	for {
		if p, ok := k.take(keys); ok {
			return p, true
		}
		select {
		case <-k.notify:
		case <-k.aborted:
			return screen.KeyPress{}, false
		case <-timer.C:
			return k.take(keys)
		}
	}
}

func (k *Keyboard) take(keys []stimulus.Key) (screen.KeyPress, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, p := range k.buf {
		if containsKey(keys, p.Key) {
			k.buf = k.buf[i+1:]
			return p, true
		}
	}
	k.buf = nil
	return screen.KeyPress{}, false
}

func containsKey(keys []stimulus.Key, key stimulus.Key) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
