package main

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Status", "Updated"},
		[][]string{{"1", "idle"}},
		nil,
	)
	lines := strings.Split(out, "\n")
	if len(lines) < 4 {
		t.Fatalf("expected bordered table, got %q", out)
	}
	width := utf8.RuneCountInString(lines[0])
	for _, line := range lines {
		if utf8.RuneCountInString(line) != width {
			t.Fatalf("ragged table row %q in:\n%s", line, out)
		}
	}
	if !strings.Contains(out, "idle") {
		t.Fatalf("expected row content, got %q", out)
	}
}

func TestRenderTableRightAlignsMarkedColumns(t *testing.T) {
	out := renderTable(
		[]string{"Epoch", "Box Loss"},
		[][]string{{"5", "0.0123"}},
		[]columnAlignment{alignRight, alignRight},
	)
	// Right alignment pads the value toward the column's left edge.
	if !strings.Contains(out, "    5 ") {
		t.Fatalf("expected right-aligned epoch cell, got:\n%s", out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestWriteJSONIndentsAndTerminates(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := writeJSON(cmd, map[string]int{"kept": 2}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "\n  \"kept\": 2\n") {
		t.Fatalf("expected indented field, got %q", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Fatalf("expected trailing newline, got %q", got)
	}
}
