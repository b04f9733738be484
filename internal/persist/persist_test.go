package persist

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	if err := s.Load(); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := NewStore(path)
	if err := s.SetExpanded("p1", false); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastTask("/src/alpha", "build"); err != nil {
		t.Fatal(err)
	}

	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if reloaded.IsExpanded("p1") {
		t.Error("collapsed group lost across reload")
	}
	if got := reloaded.LastTask("/src/alpha"); got != "build" {
		t.Errorf("last task = %q, want build", got)
	}
}

func TestExpandedDefaultsTrue(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	if !s.IsExpanded("never-seen") {
		t.Error("unknown group should default to expanded")
	}
}

func TestCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path)
	s.SetLastTask("/live", "build")
	s.SetLastTask("/dead", "test")
	s.SetExpanded("g-live", false)
	s.SetExpanded("g-dead", false)

	if err := s.Cleanup([]string{"/live"}, []string{"g-live"}); err != nil {
		t.Fatal(err)
	}

	if s.LastTask("/dead") != "" {
		t.Error("dead path survived cleanup")
	}
	if s.LastTask("/live") != "build" {
		t.Error("live path lost in cleanup")
	}
	if !s.IsExpanded("g-dead") {
		t.Error("dead group should revert to the expanded default")
	}
	if s.IsExpanded("g-live") {
		t.Error("live group state lost in cleanup")
	}
}
