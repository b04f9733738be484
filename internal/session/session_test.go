package session

import (
	"testing"

	"github.com/deskmux/deskmux/internal/workspace"
)

func testProjects() []workspace.Project {
	return []workspace.Project{
		{
			ID: "p1", Name: "alpha", Path: "/src/alpha", Active: true,
			Worktrees: []workspace.Worktree{
				{ID: "w1", Name: "feat", Path: "/src/alpha-feat", Branch: "feat"},
				{ID: "w2", Name: "fix", Path: "/src/alpha-fix", Branch: "fix"},
			},
		},
		{ID: "p2", Name: "hidden", Path: "/src/hidden", Active: false},
		{ID: "p3", Name: "beta", Path: "/src/beta", Active: true},
	}
}

func TestDeriveOrder(t *testing.T) {
	scratch := []Scratch{
		{ID: "sc1", Name: "Scratch", Order: 0},
		{ID: "sc2", Name: "Scratch 2", Order: 1},
	}

	got := Derive(scratch, testProjects())

	wantIDs := []string{"sc1", "sc2", "p1", "w1", "w2", "p3"}
	if len(got) != len(wantIDs) {
		t.Fatalf("derived %d sessions, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d = %q, want %q", i, got[i].ID, id)
		}
		if got[i].Order != i {
			t.Errorf("order of %q = %d, want %d", got[i].ID, got[i].Order, i)
		}
	}

	// Worktrees link back to their project; inactive projects vanish.
	if got[3].Kind != KindWorktree || got[3].ProjectID != "p1" {
		t.Errorf("worktree session = %+v", got[3])
	}
	for _, s := range got {
		if s.ID == "p2" {
			t.Error("inactive project derived a session")
		}
	}
}

func TestRegistryUpdatePrunesOpenSet(t *testing.T) {
	r := NewRegistry()
	r.Update(Derive(nil, testProjects()))
	r.SetActive("w1")
	r.SetActive("p3")

	// w1 disappears (worktree removed externally).
	projects := testProjects()
	projects[0].Worktrees = projects[0].Worktrees[1:]
	removed := r.Update(Derive(nil, projects))

	if len(removed) != 1 || removed[0] != "w1" {
		t.Errorf("removed = %v, want [w1]", removed)
	}
	if r.IsOpen("w1") {
		t.Error("removed session still open")
	}
	if r.ActiveID() != "p3" {
		t.Errorf("active = %q, want p3", r.ActiveID())
	}
}

func TestRegistryActiveClearedWhenRemoved(t *testing.T) {
	r := NewRegistry()
	r.Update(Derive(nil, testProjects()))
	r.SetActive("w1")

	projects := testProjects()
	projects[0].Worktrees = nil
	r.Update(Derive(nil, projects))

	if r.ActiveID() != "" {
		t.Errorf("active = %q, want cleared", r.ActiveID())
	}
}

func TestRegistryOpenOnFirstSelectOnly(t *testing.T) {
	r := NewRegistry()
	r.Update(Derive(nil, testProjects()))

	if r.IsOpen("p1") {
		t.Error("session open before any selection")
	}
	r.SetActive("p1")
	if !r.IsOpen("p1") {
		t.Error("selection did not open the session")
	}

	// Switching away does not close it.
	r.SetActive("p3")
	if !r.IsOpen("p1") {
		t.Error("switching away closed the session")
	}
}

func TestRegistrySetActiveUnknown(t *testing.T) {
	r := NewRegistry()
	r.Update(Derive(nil, testProjects()))

	if r.SetActive("ghost") {
		t.Error("activated an unknown session")
	}
	if r.IsOpen("ghost") {
		t.Error("unknown session joined the open set")
	}
}

func TestCloseReplacementPriority(t *testing.T) {
	scratch := []Scratch{{ID: "sc1", Name: "Scratch"}}
	sessions := Derive(scratch, testProjects())

	tests := []struct {
		name string
		open []string
		want string
	}{
		{"worktree wins", []string{"sc1", "p3", "w2", "w1"}, "w2"},
		{"project next", []string{"sc1", "p3", "w1"}, "p3"},
		{"scratch last", []string{"sc1", "w1"}, "sc1"},
		{"none", []string{"w1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			r.Update(sessions)
			for _, id := range tt.open {
				r.SetActive(id)
			}
			r.SetActive("w1")

			if got := r.Close("w1"); got != tt.want {
				t.Errorf("replacement = %q, want %q", got, tt.want)
			}
			if r.IsOpen("w1") {
				t.Error("closed session still open")
			}
		})
	}
}

func TestCloseInactiveKeepsActive(t *testing.T) {
	r := NewRegistry()
	r.Update(Derive(nil, testProjects()))
	r.SetActive("p1")
	r.SetActive("p3")

	if got := r.Close("p1"); got != "p3" {
		t.Errorf("active after closing background session = %q, want p3", got)
	}
}

func TestNextPrevWrap(t *testing.T) {
	r := NewRegistry()
	r.Update(Derive(nil, testProjects()))
	// Order: p1, w1, w2, p3.

	r.SetActive("p3")
	if got := r.Next(); got != "p1" {
		t.Errorf("Next from last = %q, want p1 (wrap)", got)
	}

	r.SetActive("p1")
	if got := r.Prev(); got != "p3" {
		t.Errorf("Prev from first = %q, want p3 (wrap)", got)
	}
}

func TestNextEmptyRegistry(t *testing.T) {
	r := NewRegistry()
	if got := r.Next(); got != "" {
		t.Errorf("Next on empty registry = %q", got)
	}
}

func TestNewScratchUniqueIDs(t *testing.T) {
	a := NewScratch("one", "", 0)
	b := NewScratch("two", "", 1)
	if a.ID == b.ID || a.ID == "" {
		t.Errorf("ids %q, %q", a.ID, b.ID)
	}
}
