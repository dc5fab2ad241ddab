package tui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWrapTextBreaksAtSpaces(t *testing.T) {
	got := wrapText("press the left key for LEFT", 10)
	want := "press the\nleft key\nfor LEFT"
	if got != want {
		t.Fatalf("unexpected wrap:\n%q\nwant\n%q", got, want)
	}
}

func TestWrapTextKeepsParagraphs(t *testing.T) {
	got := wrapText("one\n\ntwo", 10)
	if got != "one\n\ntwo" {
		t.Fatalf("expected blank line preserved, got %q", got)
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	got := wrapText("abcdefghij", 4)
	if got != "abcd\nefgh\nij" {
		t.Fatalf("unexpected split: %q", got)
	}
}

func TestWrapTextRespectsWideRunes(t *testing.T) {
	got := wrapText("日本語 テキスト", 6)
	for _, line := range strings.Split(got, "\n") {
		if w := runewidth.StringWidth(line); w > 6 {
			t.Fatalf("line %q is %d cells wide", line, w)
		}
	}
}

func TestWrapTextNoWidth(t *testing.T) {
	if got := wrapText("a b", 0); got != "a b" {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}
