package main

import (
	"strings"
	"testing"
)

func TestRenderTableHeadersAndPadding(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Count"},
		[][]string{{"Pending", "2"}, {"Failed"}},
		[]columnAlignment{alignLeft, alignRight},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "STATUS") || !strings.Contains(lines[1], "COUNT") {
		t.Fatalf("expected upper-case header, got %q", lines[1])
	}
	if !strings.Contains(lines[3], "Pending") || !strings.Contains(lines[3], "│     2 │") {
		t.Fatalf("expected right-aligned count, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "Failed") || len([]rune(lines[4])) != len([]rune(lines[3])) {
		t.Fatalf("expected padded short row, got %q", lines[4])
	}
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
