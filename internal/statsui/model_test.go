package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stimulus"
	"github.com/verte-zerg/simonrt/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "simonrt.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		started := base.Add(time.Duration(i) * time.Hour)
		sess := model.Session{
			ID:          id,
			Participant: model.Participant{ID: "P1", Sex: "M", Age: "20"},
			StartedAt:   started,
			EndedAt:     started.Add(10 * time.Minute),
			FrameRate:   60,
		}
		outcomes := []model.TrialOutcome{
			{Phase: model.PhaseBlock, Variant: stimulus.LL, CorrectKey: "z", KeyPressed: "z", ReactionTime: 0.4, Correct: true},
			{Phase: model.PhaseBlock, Variant: stimulus.LR, CorrectKey: "z", KeyPressed: "z", ReactionTime: 0.45, Correct: true},
		}
		if err := st.InsertSession(context.Background(), sess, outcomes); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	return st
}

func TestModelLoadsSessions(t *testing.T) {
	m := NewModel(seededStore(t), model.HistoryConfig{}, 2)
	if len(m.sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(m.sessions))
	}
	if got := len(m.table.Rows()); got != 3 {
		t.Fatalf("expected 3 table rows, got %d", got)
	}
	if m.table.Rows()[0][6] != "50" {
		t.Fatalf("expected effect column 50, got %q", m.table.Rows()[0][6])
	}
}

func TestModelTabsAndView(t *testing.T) {
	m := NewModel(seededStore(t), model.HistoryConfig{}, 2)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "Avg Simon effect") {
		t.Fatalf("overview missing from view:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.tab != tabSessions {
		t.Fatalf("expected sessions tab, got %d", m.tab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.tab != tabEffect {
		t.Fatalf("expected wrap to effect tab, got %d", m.tab)
	}
	if lines := strings.Count(m.View(), "\n") + 1; lines != 30 {
		t.Fatalf("expected view to fill 30 lines, got %d", lines)
	}
}

func TestModelFilterAppliesLast(t *testing.T) {
	m := NewModel(seededStore(t), model.HistoryConfig{}, 2)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.form.open {
		t.Fatal("expected filter mode")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.form.open {
		t.Fatalf("filter should close, error: %q", m.form.err)
	}
	if m.cfg.Last != 2 || len(m.sessions) != 2 {
		t.Fatalf("expected last=2 with 2 sessions, got last=%d sessions=%d", m.cfg.Last, len(m.sessions))
	}
}

func TestModelFilterRejectsBadWindow(t *testing.T) {
	m := NewModel(seededStore(t), model.HistoryConfig{}, 2)
	m.form.show(m.cfg, m.window)
	m.form.fields[fieldWindow].SetValue("0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.form.open || m.form.err == "" {
		t.Fatal("expected filter to stay open with an error")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if got := nextCurveWindow(2); got != 5 {
		t.Fatalf("next(2) = %d", got)
	}
	if got := nextCurveWindow(10); got != 15 {
		t.Fatalf("next(10) = %d", got)
	}
	if got := prevCurveWindow(5); got != 1 {
		t.Fatalf("prev(5) = %d", got)
	}
	if got := prevCurveWindow(12); got != 10 {
		t.Fatalf("prev(12) = %d", got)
	}
}
