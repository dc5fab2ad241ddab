package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stats"
)

const plotHeight = 10

var (
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// totals folds the sessions into the numbers shown on the overview cards.
type totals struct {
	sessions int
	aborted  int
	trials   int
	correct  int
	timeouts int
	effectMs float64
}

func sumSessions(sessions []model.SessionAggregate) totals {
	t := totals{sessions: len(sessions)}
	for _, s := range sessions {
		t.trials += s.Trials
		t.correct += s.Correct
		t.timeouts += s.Timeouts
		if s.Aborted {
			t.aborted++
		}
	}
	if len(sessions) > 0 {
		var sum float64
		for _, e := range stats.Effects(sessions) {
			sum += e
		}
		t.effectMs = sum / float64(len(sessions))
	}
	return t
}

func (t totals) accuracy() float64 {
	if t.trials == 0 {
		return 0
	}
	return float64(t.correct) / float64(t.trials) * 100
}

func overviewView(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	t := sumSessions(sessions)
	cards := []string{
		card("Sessions", fmt.Sprintf("%d (%d aborted)", t.sessions, t.aborted)),
		card("Accuracy", fmt.Sprintf("%.1f%%", t.accuracy())),
		card("Missed", strconv.Itoa(t.timeouts)),
		card("Avg Simon effect", fmt.Sprintf("%.0f ms", t.effectMs)),
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) > width {
		row = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	if len(sessions) < 2 {
		return row
	}
	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, sessions, window, width, plotHeight); err != nil {
		return row + "\n\n" + fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(row+"\n\n"+buf.String(), "\n")
}

func card(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func effectView(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) < 2 {
		return "Need at least two sessions to plot the Simon effect."
	}
	effects := stats.Effects(sessions)
	var buf bytes.Buffer
	err := stats.PlotSeries(&buf, "Simon effect (ms)", []stats.Series{
		{Name: "Incongruent - congruent", Values: stats.MovingAverage(effects, window)},
	}, width, plotHeight)
	if err != nil {
		return fmt.Sprintf("Failed to render effect: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\nPer session: " + stats.Sparkline(effects)
}

var sessionColumns = []table.Column{
	{Title: "Ended", Width: 16},
	{Title: "Participant", Width: 12},
	{Title: "Trials", Width: 6},
	{Title: "Accuracy", Width: 9},
	{Title: "Con (ms)", Width: 8},
	{Title: "Inc (ms)", Width: 8},
	{Title: "Effect", Width: 7},
	{Title: "Status", Width: 8},
}

// sessionRows lists the newest session first.
func sessionRows(sessions []model.SessionAggregate) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		acc := 0.0
		if s.Trials > 0 {
			acc = float64(s.Correct) / float64(s.Trials) * 100
		}
		status := "done"
		if s.Aborted {
			status = "aborted"
		}
		con, inc := stats.Millis(s.MeanRTCongruent), stats.Millis(s.MeanRTIncongruent)
		rows = append(rows, table.Row{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.ParticipantID,
			strconv.Itoa(s.Trials),
			fmt.Sprintf("%.1f%%", acc),
			strconv.Itoa(con),
			strconv.Itoa(inc),
			strconv.Itoa(inc - con),
			status,
		})
	}
	return rows
}

func newSessionTable() table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return table.New(table.WithColumns(sessionColumns), table.WithStyles(styles))
}

// fit clips s to width x height and pads it to exactly that block.
func fit(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	clipped := lipgloss.NewStyle().MaxWidth(width).MaxHeight(height).Render(s)
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, clipped)
}
