package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/simonrt/internal/stimulus"
)

var responseKeys = []stimulus.Key{"z", "m"}

func TestKeyName(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want stimulus.Key
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}}, "z"},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'M'}}, "m"},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, "space"},
		{tea.KeyMsg{Type: tea.KeyEsc}, "escape"},
		{tea.KeyMsg{Type: tea.KeyEnter}, "enter"},
		{tea.KeyMsg{Type: tea.KeyLeft}, "left"},
		{tea.KeyMsg{Type: tea.KeyF7}, "f7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyName(tt.msg))
	}
}

func TestPollDrainsAndFilters(t *testing.T) {
	kb := NewKeyboard("escape")
	at := time.Unix(10, 0)
	kb.Push("x", at)
	kb.Push("m", at.Add(time.Millisecond))
	kb.Push("z", at.Add(2*time.Millisecond))

	got := kb.Poll(responseKeys)
	require.Len(t, got, 2)
	assert.Equal(t, stimulus.Key("m"), got[0].Key)
	assert.Equal(t, at.Add(time.Millisecond), got[0].At)
	assert.Empty(t, kb.Poll(responseKeys))
}

func TestClearDropsBufferedPresses(t *testing.T) {
	kb := NewKeyboard("escape")
	kb.Push("z", time.Now())
	kb.Clear()
	assert.Empty(t, kb.Poll(responseKeys))
}

func TestAbortKeyIsStickyAndNotBuffered(t *testing.T) {
	kb := NewKeyboard("escape")
	assert.False(t, kb.Aborted())
	kb.Push("escape", time.Now())
	kb.Push("escape", time.Now())
	assert.True(t, kb.Aborted())
	assert.Empty(t, kb.Poll([]stimulus.Key{"escape"}))
}

func TestWaitReturnsBufferedKey(t *testing.T) {
	kb := NewKeyboard("escape")
	at := time.Unix(20, 0)
	kb.Push("q", at)
	kb.Push("z", at)
	p, ok := kb.Wait(responseKeys, time.Second)
	require.True(t, ok)
	assert.Equal(t, stimulus.Key("z"), p.Key)
}

func TestWaitWakesOnLateKey(t *testing.T) {
	kb := NewKeyboard("escape")
	go func() {
		time.Sleep(10 * time.Millisecond)
		kb.Push("m", time.Now())
	}()
	p, ok := kb.Wait(responseKeys, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, stimulus.Key("m"), p.Key)
}

func TestWaitTimesOut(t *testing.T) {
	kb := NewKeyboard("escape")
	start := time.Now()
	_, ok := kb.Wait(responseKeys, 20*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWaitReturnsEarlyOnAbort(t *testing.T) {
	kb := NewKeyboard("escape")
	go func() {
		time.Sleep(10 * time.Millisecond)
		kb.Abort()
	}()
	start := time.Now()
	_, ok := kb.Wait(responseKeys, 5*time.Second)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, kb.Aborted())
}
