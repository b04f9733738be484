package tabs

import "testing"

func TestCounterMonotonic(t *testing.T) {
	s := NewStore(PaneMain)

	n1 := s.NextCounter("s1")
	id1 := s.TabID("s1", n1)
	s.AddTab("s1", Tab{ID: id1})

	n2 := s.NextCounter("s1")
	id2 := s.TabID("s1", n2)
	s.AddTab("s1", Tab{ID: id2})

	s.RemoveTab("s1", id2)

	// Counters never rewind, even after a tab closes.
	n3 := s.NextCounter("s1")
	if n3 != 3 {
		t.Errorf("counter after remove = %d, want 3", n3)
	}
	if id := s.TabID("s1", n3); id == id2 {
		t.Errorf("reused tab id %q", id)
	}
}

func TestTabIDEncodesPane(t *testing.T) {
	main := NewStore(PaneMain)
	drawer := NewStore(PaneDrawer)

	if main.TabID("s1", 1) == drawer.TabID("s1", 1) {
		t.Error("main and drawer minted the same tab id")
	}
}

func TestFirstTabBecomesActive(t *testing.T) {
	s := NewStore(PaneMain)

	s.AddTab("s1", Tab{ID: "a"})
	if got := s.ActiveID("s1"); got != "a" {
		t.Errorf("active = %q, want a", got)
	}

	// Later tabs do not steal the pointer.
	s.AddTab("s1", Tab{ID: "b"})
	if got := s.ActiveID("s1"); got != "a" {
		t.Errorf("active after second add = %q, want a", got)
	}
}

func TestRemoveActiveFallsBackToLast(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a"})
	s.AddTab("s1", Tab{ID: "b"})
	s.AddTab("s1", Tab{ID: "c"})

	res := s.RemoveTab("s1", "a")
	if !res.Removed || !res.WasActive {
		t.Fatalf("remove = %+v, want removed active", res)
	}
	if res.NewActiveID != "c" {
		t.Errorf("new active = %q, want c (last remaining)", res.NewActiveID)
	}
	if res.Empty {
		t.Error("Empty = true with tabs remaining")
	}
}

func TestRemoveInactiveKeepsActive(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a"})
	s.AddTab("s1", Tab{ID: "b"})

	res := s.RemoveTab("s1", "b")
	if res.WasActive {
		t.Error("WasActive = true for inactive tab")
	}
	if got := s.ActiveID("s1"); got != "a" {
		t.Errorf("active = %q, want a", got)
	}
}

func TestRemoveLastTab(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a", ChannelID: "ch-a"})

	res := s.RemoveTab("s1", "a")
	if !res.Empty {
		t.Error("Empty = false after removing the only tab")
	}
	if res.Tab.ChannelID != "ch-a" {
		t.Errorf("removed tab channel = %q, want ch-a", res.Tab.ChannelID)
	}
	if s.ActiveID("s1") != "" {
		t.Error("active pointer survives empty session")
	}
}

func TestRemoveUnknownTabIsNoop(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a"})

	if res := s.RemoveTab("s1", "nope"); res.Removed {
		t.Error("removed an unknown tab")
	}
	if res := s.RemoveTab("s2", "a"); res.Removed {
		t.Error("removed across sessions")
	}
}

func TestSetActiveRejectsForeignTab(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a"})

	if s.SetActive("s1", "ghost") {
		t.Error("activated a tab not in the session")
	}
	if got := s.ActiveID("s1"); got != "a" {
		t.Errorf("active = %q, want a", got)
	}
}

func TestUpdateKeepsIDImmutable(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a", Label: "old"})

	s.Update("s1", "a", func(tab *Tab) {
		tab.ID = "hijacked"
		tab.Label = "new"
	})

	tab, ok := s.Get("s1", "a")
	if !ok {
		t.Fatal("tab lost after update")
	}
	if tab.Label != "new" {
		t.Errorf("label = %q, want new", tab.Label)
	}
}

func TestUpdateIsCopyOnWrite(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a", Label: "old"})

	snapshot := s.Tabs("s1")
	s.Update("s1", "a", func(tab *Tab) { tab.Label = "new" })

	if snapshot[0].Label != "old" {
		t.Error("prior snapshot observed the mutation")
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name     string
		oldIndex int
		newIndex int
		want     []string
		ok       bool
	}{
		{"forward", 0, 2, []string{"b", "c", "a"}, true},
		{"backward", 2, 0, []string{"c", "a", "b"}, true},
		{"same", 1, 1, []string{"a", "b", "c"}, true},
		{"out of range", 0, 5, []string{"a", "b", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(PaneMain)
			for _, id := range []string{"a", "b", "c"} {
				s.AddTab("s1", Tab{ID: id})
			}

			if got := s.Reorder("s1", tt.oldIndex, tt.newIndex); got != tt.ok {
				t.Fatalf("Reorder = %v, want %v", got, tt.ok)
			}
			list := s.Tabs("s1")
			for i, id := range tt.want {
				if list[i].ID != id {
					t.Errorf("position %d = %q, want %q", i, list[i].ID, id)
				}
			}
		})
	}
}

func TestPruneClearsEverything(t *testing.T) {
	s := NewStore(PaneMain)
	s.NextCounter("s1")
	s.AddTab("s1", Tab{ID: "a", ChannelID: "ch-a"})
	s.AddTab("s1", Tab{ID: "b", ChannelID: "ch-b"})
	s.AddTab("s2", Tab{ID: "x"})

	removed := s.Prune("s1")
	if len(removed) != 2 {
		t.Fatalf("pruned %d tabs, want 2", len(removed))
	}
	if s.Has("s1") {
		t.Error("session record survives prune")
	}
	if !s.Has("s2") {
		t.Error("prune crossed sessions")
	}
}

func TestFindByTask(t *testing.T) {
	s := NewStore(PaneMain)
	s.AddTab("s1", Tab{ID: "a"})
	s.AddTab("s1", Tab{ID: "b", TaskName: "build"})

	tab, ok := s.FindByTask("s1", "build")
	if !ok || tab.ID != "b" {
		t.Errorf("FindByTask = %+v %v, want tab b", tab, ok)
	}
	if _, ok := s.FindByTask("s1", "test"); ok {
		t.Error("found a task no tab is bound to")
	}
}
