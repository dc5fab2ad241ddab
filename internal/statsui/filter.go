package statsui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/simonrt/internal/model"
)

const (
	fieldParticipant = iota
	fieldLast
	fieldWindow
)

// filterForm edits the history query in place of the tab body.
type filterForm struct {
	open   bool
	fields []textinput.Model
	focus  int
	err    string
}

func newFilterForm() filterForm {
	return filterForm{fields: []textinput.Model{
		filterField("Participant: "),
		filterField("Last: "),
		filterField("Curve window: "),
	}}
}

func filterField(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Cursor.SetMode(cursor.CursorBlink)
	return in
}

// show opens the form prefilled with the current query.
func (f *filterForm) show(cfg model.HistoryConfig, window int) tea.Cmd {
	f.open = true
	f.err = ""
	f.fields[fieldParticipant].SetValue(cfg.Participant)
	last := ""
	if cfg.Last > 0 {
		last = strconv.Itoa(cfg.Last)
	}
	f.fields[fieldLast].SetValue(last)
	f.fields[fieldWindow].SetValue(strconv.Itoa(window))
	return f.focusField(fieldParticipant)
}

func (f *filterForm) hide() {
	f.open = false
	f.err = ""
}

func (f *filterForm) focusField(i int) tea.Cmd {
	f.focus = (i + len(f.fields)) % len(f.fields)
	var cmd tea.Cmd
	for j := range f.fields {
		if j == f.focus {
			cmd = f.fields[j].Focus()
			continue
		}
		f.fields[j].Blur()
	}
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.fields {
		f.fields[i].Width = max(10, width-lipgloss.Width(f.fields[i].Prompt)-2)
	}
}

// update feeds a key to the focused field. submitted is true when enter was
// pressed; the caller then calls query.
func (f *filterForm) update(msg tea.KeyMsg) (submitted bool, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.hide()
		return false, nil
	case tea.KeyEnter:
		return true, nil
	case tea.KeyTab, tea.KeyDown:
		return false, f.focusField(f.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return false, f.focusField(f.focus - 1)
	}
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return false, cmd
}

// query parses the fields. An empty window keeps fallback.
func (f *filterForm) query(fallback int) (model.HistoryConfig, int, error) {
	cfg := model.HistoryConfig{
		Participant: strings.TrimSpace(f.fields[fieldParticipant].Value()),
	}
	if raw := strings.TrimSpace(f.fields[fieldLast].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return cfg, fallback, errors.New("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = n
	}
	window := fallback
	if raw := strings.TrimSpace(f.fields[fieldWindow].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return cfg, fallback, errors.New("invalid curve window (use integer >= 1)")
		}
		window = n
	}
	return cfg, window, nil
}

func (f *filterForm) view() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, in := range f.fields {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
