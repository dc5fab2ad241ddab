// Package tui provides the Bubble Tea surface the experiment draws on and
// reads keys from.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/simonrt/internal/screen"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

type frameMsg struct {
	frame screen.Frame
}

type doneMsg struct{}

// Done returns the message that makes the program quit.
func Done() tea.Msg {
	return doneMsg{}
}

// Model implements the Bubble Tea experiment screen.
type Model struct {
	keyboard *Keyboard
	frame    screen.Frame
	footer   string

	width  int
	height int
}

var (
	fixationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	stimulusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	textStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9D9D9"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the experiment screen. Keys are forwarded to kb.
func NewModel(kb *Keyboard, footer string) *Model {
	return &Model{keyboard: kb, footer: footer, frame: screen.Frame{Kind: screen.FrameBlank}}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		m.frame = msg.frame
		return m, nil
	case doneMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.keyboard.Abort()
			return m, nil
		}
		m.keyboard.PushNow(KeyName(msg))
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return renderFrame(m.frame, 0)
	}
	content := renderFrame(m.frame, m.width)
	if m.footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footerStyle.Render(m.footer))
	return body + "\n" + footerLine
}

// renderFrame draws one frame into a block of the given width. The stimulus
// word sits a quarter of the width left or right of the center.
func renderFrame(f screen.Frame, width int) string {
	switch f.Kind {
	case screen.FrameFixation:
		return fixationStyle.Render("+")
	case screen.FrameStimulus:
		return placeStimulus(f.Variant, width)
	case screen.FrameFeedback:
		if f.Correct {
			return correctStyle.Render(f.Text)
		}
		return incorrectStyle.Render(f.Text)
	case screen.FrameText:
		wrapWidth := int(float64(width) * 0.70)
		return textStyle.Render(wrapText(f.Text, wrapWidth))
	default:
		return ""
	}
}

func placeStimulus(v stimulus.Variant, width int) string {
	word := v.Label.String()
	if width <= 0 {
		if v.Side == stimulus.SideLeft {
			return stimulusStyle.Render(word) + "      "
		}
		return "      " + stimulusStyle.Render(word)
	}
	wordWidth := runewidth.StringWidth(word)
	center := width / 2
	if v.Side == stimulus.SideLeft {
		center -= width / 4
	} else {
		center += width / 4
	}
	left := max(0, center-wordWidth/2)
	right := max(0, width-left-wordWidth)
	return strings.Repeat(" ", left) + stimulusStyle.Render(word) + strings.Repeat(" ", right)
}
