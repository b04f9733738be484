package diff

import (
	"strings"
	"testing"
)

func TestToggleMode(t *testing.T) {
	if ToggleMode(ModeUnified) != ModeSideBySide {
		t.Error("unified did not toggle to side-by-side")
	}
	if ToggleMode(ModeSideBySide) != ModeUnified {
		t.Error("side-by-side did not toggle to unified")
	}
	// Unknown modes normalize toward side-by-side, the non-default.
	if ToggleMode("") != ModeSideBySide {
		t.Error("empty mode did not toggle")
	}
}

func TestUnified(t *testing.T) {
	before := "a\nb\nc\n"
	after := "a\nB\nc\n"

	got := Unified("f.txt", before, after)
	if !strings.Contains(got, "-b") || !strings.Contains(got, "+B") {
		t.Errorf("diff missing edits:\n%s", got)
	}
	if !strings.Contains(got, "f.txt") {
		t.Errorf("diff missing file header:\n%s", got)
	}
}

func TestUnifiedIdentical(t *testing.T) {
	if got := Unified("f.txt", "same\n", "same\n"); strings.Contains(got, "@@") {
		t.Errorf("identical inputs produced hunks:\n%s", got)
	}
}

func TestSideBySide(t *testing.T) {
	got := SideBySide("f.txt", "a\nb\n", "a\nc\n", 40)
	for _, line := range strings.Split(got, "\n") {
		if line == "" || strings.HasPrefix(line, "---") ||
			strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "@@") {
			continue
		}
		if !strings.Contains(line, "|") {
			t.Errorf("content line missing column divider: %q", line)
		}
	}
}

func TestHighlightFallsBackToSource(t *testing.T) {
	src := "package main\n"
	got := Highlight(src, "main.go")
	if got == "" {
		t.Error("highlight produced nothing")
	}
	// Unknown file types still return the text.
	if got := Highlight("plain", "noext"); !strings.Contains(got, "plain") {
		t.Errorf("fallback lost the source: %q", got)
	}
}
