package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/simonrt/internal/model"
)

// ErrFormCancelled is returned when the participant form is closed without submitting.
var ErrFormCancelled = errors.New("info dialog terminated")

var (
	formTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	formErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	formBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

// Form collects the participant fields before the run starts.
type Form struct {
	inputs    []textinput.Model
	focus     int
	submitted bool
	cancelled bool
	errMsg    string

	width  int
	height int
}

// NewForm returns a form prefilled with p.
func NewForm(p model.Participant) *Form {
	f := &Form{inputs: []textinput.Model{
		newFormInput("ID:  ", p.ID),
		newFormInput("Sex: ", p.Sex),
		newFormInput("Age: ", p.Age),
	}}
	f.inputs[0].Focus()
	return f
}

func newFormInput(prompt, value string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 32
	input.Width = 20
	input.Cursor.SetMode(cursor.CursorBlink)
	input.SetValue(value)
	return input
}

// Participant returns the values currently in the form.
func (f *Form) Participant() model.Participant {
	return model.Participant{
		ID:  strings.TrimSpace(f.inputs[0].Value()),
		Sex: strings.TrimSpace(f.inputs[1].Value()),
		Age: strings.TrimSpace(f.inputs[2].Value()),
	}
}

// Result returns the submitted participant or ErrFormCancelled.
func (f *Form) Result() (model.Participant, error) {
	if !f.submitted || f.cancelled {
		return model.Participant{}, ErrFormCancelled
	}
	return f.Participant(), nil
}

// Init implements tea.Model.
func (f *Form) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		f.height = msg.Height
		return f, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			f.cancelled = true
			return f, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			return f, f.moveFocus(1)
		case tea.KeyShiftTab, tea.KeyUp:
			return f, f.moveFocus(-1)
		case tea.KeyEnter:
			if f.focus < len(f.inputs)-1 {
				return f, f.moveFocus(1)
			}
			if f.Participant().ID == "" {
				f.errMsg = "ID is required"
				return f, f.setFocus(0)
			}
			f.submitted = true
			return f, tea.Quit
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f *Form) moveFocus(delta int) tea.Cmd {
	next := (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.setFocus(next)
}

func (f *Form) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[f.focus].Focus()
}

// View implements tea.Model.
func (f *Form) View() string {
	lines := []string{formTitleStyle.Render("Participant"), ""}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "", footerStyle.Render("enter: next/start  tab: move  esc: cancel"))
	if f.errMsg != "" {
		lines = append(lines, formErrStyle.Render(f.errMsg))
	}
	box := formBoxStyle.Render(strings.Join(lines, "\n"))
	if f.width == 0 || f.height == 0 {
		return box
	}
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, box)
}

// RunForm shows the form and blocks until it is submitted or cancelled.
func RunForm(p model.Participant, opts ...tea.ProgramOption) (model.Participant, error) {
	form := NewForm(p)
	if _, err := tea.NewProgram(form, opts...).Run(); err != nil {
		logErrf("participant form failed: %v\n", err)
		return model.Participant{}, err
	}
	return form.Result()
}

func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
