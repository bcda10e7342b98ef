package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLinePadsLabelAndAppendsMessage(t *testing.T) {
	line := renderStatusLine("Memory", statusInfo, "3.1 GiB available of 8.0 GiB", false)
	if !strings.HasPrefix(line, statusIndent+"Memory:") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, "[INFO] 3.1 GiB available of 8.0 GiB") {
		t.Fatalf("expected bracketed kind and message, got %q", line)
	}
	if strings.Contains(line, ansiReset) {
		t.Fatalf("expected no ANSI codes without colorize, got %q", line)
	}

	bare := renderStatusLine("CPUs", statusOK, "", false)
	if !strings.HasSuffix(bare, "[OK]") {
		t.Fatalf("expected bare status without trailing space, got %q", bare)
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("Trainer", statusError, "yolo not found", true)
	if !strings.HasPrefix(line, kindMeta[statusError].color) {
		t.Fatalf("expected error color prefix, got %q", line)
	}
	if !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", line)
	}
}

func TestRenderSectionHeaderRuleMatchesHeading(t *testing.T) {
	lines := renderSectionHeader("  Preflight ", false)
	if len(lines) != 2 {
		t.Fatalf("expected heading and rule, got %v", lines)
	}
	if lines[0] != "== Preflight ==" {
		t.Fatalf("unexpected heading %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) || strings.Trim(lines[1], "-") != "" {
		t.Fatalf("expected a rule of dashes matching the heading, got %q", lines[1])
	}
}

func TestShouldColorizeRejectsNonTerminalWriters(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("expected buffer writer to disable color")
	}
}
