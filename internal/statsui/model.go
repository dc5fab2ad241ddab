// Package statsui provides the Bubble Tea session history browser.
package statsui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stats"
	"github.com/verte-zerg/simonrt/internal/store"
)

const (
	tabOverview = iota
	tabSessions
	tabEffect
	tabCount
)

var tabNames = []string{"Overview", "Sessions", "Simon Effect"}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = activeNavStyle.
				Foreground(lipgloss.Color("#B0B0B0")).
				Bold(false).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store  *store.Store
	cfg    model.HistoryConfig
	window int

	sessions []model.SessionAggregate
	errMsg   string

	tab   int
	pages [tabCount]viewport.Model
	table table.Model
	form  filterForm

	width  int
	height int
}

// NewModel loads the sessions selected by cfg. window is the moving average
// width used by the curves.
func NewModel(st *store.Store, cfg model.HistoryConfig, window int) *Model {
	m := &Model{
		store:  st,
		cfg:    cfg,
		window: max(window, 1),
		table:  newSessionTable(),
		form:   newFilterForm(),
	}
	for i := range m.pages {
		m.pages[i] = viewport.New(0, 0)
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.renderPages()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.form.open {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "left", "h":
		m.switchTab(-1)
		return tea.ClearScreen
	case "right", "l":
		m.switchTab(1)
		return tea.ClearScreen
	case "=":
		m.window = nextCurveWindow(m.window)
		m.renderPages()
		return nil
	case "-":
		m.window = prevCurveWindow(m.window)
		m.renderPages()
		return nil
	case "/":
		return m.form.show(m.cfg, m.window)
	}
	var cmd tea.Cmd
	if m.tab == tabSessions {
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	m.pages[m.tab], cmd = m.pages[m.tab].Update(msg)
	return cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	submitted, cmd := m.form.update(msg)
	if !submitted {
		return cmd
	}
	cfg, window, err := m.form.query(m.window)
	if err != nil {
		m.form.err = err.Error()
		return nil
	}
	m.form.hide()
	m.cfg, m.window = cfg, window
	m.reload()
	return nil
}

func (m *Model) switchTab(delta int) {
	m.tab = (m.tab + delta + len(tabNames)) % len(tabNames)
	if m.tab == tabSessions {
		m.table.Focus()
		return
	}
	m.table.Blur()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header, body, footer := m.heights()
	return lipgloss.JoinVertical(lipgloss.Left,
		fit(m.headerView(), m.width, header),
		fit(m.bodyView(), m.width, body),
		fit(m.footerView(), m.width, footer),
	)
}

func (m *Model) heights() (header, body, footer int) {
	header = lipgloss.Height(activeNavStyle.Render("X")) + 1
	footer = 1
	if !m.form.open && m.errMsg != "" {
		footer = 2
	}
	body = max(m.height-header-footer, 1)
	return header, body, footer
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.heights()
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = body
	}
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(1, body-1))
	m.form.setWidth(m.width)
}

func (m *Model) headerView() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := inactiveNavStyle
		if i == m.tab {
			style = activeNavStyle
		}
		tabs[i] = style.Render(name)
	}
	participant := m.cfg.Participant
	if participant == "" {
		participant = "any"
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	settings := fmt.Sprintf("Settings: participant=%s  last=%s  window=%d", participant, last, m.window)
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" +
		headerStyle.Render(runewidth.Truncate(settings, m.width, "..."))
}

func (m *Model) bodyView() string {
	switch {
	case m.form.open:
		return m.form.view()
	case m.tab != tabSessions:
		return m.pages[m.tab].View()
	case len(m.sessions) == 0:
		return "No sessions found."
	default:
		return tableMutedStyle.Render(m.table.View())
	}
}

func (m *Model) footerView() string {
	if m.form.open {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

// reload queries the store with the current filter and rebuilds every tab.
func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.pages {
			m.pages[i].SetContent("Failed to load history.")
		}
		return
	}
	m.errMsg = ""
	m.sessions = report.Sessions
	m.table.SetRows(sessionRows(m.sessions))
	m.table.GotoTop()
	m.resize()
	m.renderPages()
}

func (m *Model) renderPages() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.pages[tabOverview].SetContent(overviewView(m.sessions, m.window, width))
	m.pages[tabEffect].SetContent(effectView(m.sessions, m.window, width))
}

// nextCurveWindow and prevCurveWindow step the window through 1, 5, 10, 15...
func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	switch {
	case n <= 5:
		return 1
	case n%5 == 0:
		return n - 5
	default:
		return n / 5 * 5
	}
}
