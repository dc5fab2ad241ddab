package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/simonrt/internal/model"
)

func typeInto(f *Form, s string) {
	for _, r := range s {
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestFormSubmit(t *testing.T) {
	f := NewForm(model.Participant{})
	typeInto(f, "P3")
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeInto(f, "K")
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeInto(f, "27")
	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected quit command on submit")
	}
	p, err := f.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if p.PartID() != "P3K27" {
		t.Fatalf("unexpected participant: %+v", p)
	}
}

func TestFormRequiresID(t *testing.T) {
	f := NewForm(model.Participant{Sex: "M", Age: "20"})
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, err := f.Result(); !errors.Is(err, ErrFormCancelled) {
		t.Fatalf("expected form to stay open without an ID, got %v", err)
	}
	if f.focus != 0 || f.errMsg == "" {
		t.Fatalf("expected focus back on ID with an error, got focus=%d err=%q", f.focus, f.errMsg)
	}
}

func TestFormCancel(t *testing.T) {
	f := NewForm(model.Participant{ID: "P1"})
	f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, err := f.Result(); !errors.Is(err, ErrFormCancelled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}
