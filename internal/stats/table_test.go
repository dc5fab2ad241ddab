package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Participant", "Trials", "Effect"}
	rows := [][]string{
		{"P1M20", "40", "35"},
		{"Zoë", "8", "-12"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Participant Trials Effect" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "P1M20           40     35" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Zoë              8    -12" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableTrimsTrailingBlankColumn(t *testing.T) {
	lines := formatTable([]string{"A", ""}, [][]string{{"x", ""}, {"y", "aborted"}}, nil)
	if lines[1] != "x" {
		t.Fatalf("expected trailing padding trimmed, got %q", lines[1])
	}
	if lines[2] != "y aborted" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}
