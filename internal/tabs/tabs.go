// Package tabs provides the per-session tab stores. Two instances exist at
// runtime, one for the main pane and one for the drawer; they share shape
// but nothing else.
package tabs

import (
	"fmt"
	"sync"
)

// Pane names the owning pane; it is baked into tab ids so the two stores
// can never mint colliding ids for the same session.
type Pane string

const (
	PaneMain   Pane = "main"
	PaneDrawer Pane = "drawer"
)

// Tab is one terminal/task/action/diff view within a session's pane.
type Tab struct {
	ID    string
	Label string
	// IsPrimary marks the session's first main tab, which runs the
	// session's configured primary command instead of a plain shell.
	IsPrimary bool
	// Command and Directory override the default shell and session path.
	Command   string
	Directory string
	// TaskName binds the tab to a named task.
	TaskName string
	// ActionType and Prompt bind the tab to an action invocation.
	ActionType string
	Prompt     string
	// DiffPath and DiffMode bind the tab to a diff view.
	DiffPath string
	DiffMode string
	// ChannelID is set once the tab's spawn resolves.
	ChannelID string
	// CustomLabel is set when the user renamed the tab; relabeling on
	// title change skips these.
	CustomLabel bool
}

// RemoveResult reports what a RemoveTab call did, so the coordinator can
// fire the pane-level side effects (drawer collapse, session close).
type RemoveResult struct {
	Removed   bool
	WasActive bool
	// Empty is true when the session now has zero tabs in this pane.
	Empty bool
	// NewActiveID is the tab that became active, or "" if none remain.
	NewActiveID string
	// Tab is the removed tab (for channel teardown).
	Tab Tab
}

// Store holds one pane's tab lists for every session.
type Store struct {
	pane Pane

	mu       sync.RWMutex
	tabs     map[string][]Tab
	active   map[string]string
	counters map[string]int
}

// NewStore creates an empty tab store for the given pane.
func NewStore(pane Pane) *Store {
	return &Store{
		pane:     pane,
		tabs:     make(map[string][]Tab),
		active:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Pane returns the pane this store belongs to.
func (s *Store) Pane() Pane {
	return s.pane
}

// NextCounter increments and returns the session's tab ordinal. Counters
// are monotonic for the session's whole lifetime and never reused, even
// after tabs close; that keeps tab ids collision-free for PTY correlation.
func (s *Store) NextCounter(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[sessionID]++
	return s.counters[sessionID]
}

// TabID derives the stable tab id for a counter value.
func (s *Store) TabID(sessionID string, counter int) string {
	return fmt.Sprintf("%s-%s-%d", sessionID, s.pane, counter)
}

// AddTab appends a tab; the session's first tab becomes active.
func (s *Store) AddTab(sessionID string, tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tabs[sessionID] = append(copyTabs(s.tabs[sessionID]), tab)
	if len(s.tabs[sessionID]) == 1 {
		s.active[sessionID] = tab.ID
	}
}

// RemoveTab removes a tab. If it was active, the most-recently-added
// remaining tab becomes active, or the pointer clears if none remain.
// Removing an unknown tab is a no-op (legitimately reachable via
// double-invoked shortcuts).
func (s *Store) RemoveTab(sessionID, tabID string) RemoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.tabs[sessionID]
	idx := -1
	for i, t := range list {
		if t.ID == tabID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RemoveResult{}
	}

	res := RemoveResult{
		Removed:   true,
		WasActive: s.active[sessionID] == tabID,
		Tab:       list[idx],
	}

	next := make([]Tab, 0, len(list)-1)
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)

	if len(next) == 0 {
		delete(s.tabs, sessionID)
		delete(s.active, sessionID)
		res.Empty = true
		return res
	}

	s.tabs[sessionID] = next
	if res.WasActive {
		s.active[sessionID] = next[len(next)-1].ID
	}
	res.NewActiveID = s.active[sessionID]
	return res
}

// SetActive points the session's active tab at tabID. Fails if the tab is
// not in the session's list.
func (s *Store) SetActive(sessionID, tabID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tabs[sessionID] {
		if t.ID == tabID {
			s.active[sessionID] = tabID
			return true
		}
	}
	return false
}

// ActiveID returns the session's active tab id, or "".
func (s *Store) ActiveID(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[sessionID]
}

// Active returns the session's active tab.
func (s *Store) Active(sessionID string) (Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := s.active[sessionID]
	for _, t := range s.tabs[sessionID] {
		if t.ID == id {
			return t, true
		}
	}
	return Tab{}, false
}

// Tabs returns a copy of the session's ordered tab list.
func (s *Store) Tabs(sessionID string) []Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTabs(s.tabs[sessionID])
}

// Count returns the number of tabs the session has in this pane.
func (s *Store) Count(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tabs[sessionID])
}

// Get returns one tab by id.
func (s *Store) Get(sessionID, tabID string) (Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tabs[sessionID] {
		if t.ID == tabID {
			return t, true
		}
	}
	return Tab{}, false
}

// Update applies fn to one tab. Copy-on-write: observers holding a prior
// snapshot never see the mutation.
func (s *Store) Update(sessionID, tabID string, fn func(*Tab)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.tabs[sessionID]
	for i, t := range list {
		if t.ID == tabID {
			next := copyTabs(list)
			fn(&next[i])
			next[i].ID = t.ID // ids are immutable
			s.tabs[sessionID] = next
			return true
		}
	}
	return false
}

// Reorder moves the tab at oldIndex to newIndex within one session's list.
// Out-of-range indices are a no-op.
func (s *Store) Reorder(sessionID string, oldIndex, newIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.tabs[sessionID]
	if oldIndex < 0 || oldIndex >= len(list) || newIndex < 0 || newIndex >= len(list) {
		return false
	}
	if oldIndex == newIndex {
		return true
	}

	next := copyTabs(list)
	tab := next[oldIndex]
	next = append(next[:oldIndex], next[oldIndex+1:]...)
	rest := make([]Tab, 0, len(list))
	rest = append(rest, next[:newIndex]...)
	rest = append(rest, tab)
	rest = append(rest, next[newIndex:]...)
	s.tabs[sessionID] = rest
	return true
}

// FindByTask returns the tab bound to the given task, if any.
func (s *Store) FindByTask(sessionID, taskName string) (Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tabs[sessionID] {
		if t.TaskName == taskName {
			return t, true
		}
	}
	return Tab{}, false
}

// Prune drops every record for the session and returns its tabs so the
// caller can tear down their channels. Counters go too: a closed session's
// identity is gone, and a reopened one starts fresh.
func (s *Store) Prune(sessionID string) []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.tabs[sessionID]
	delete(s.tabs, sessionID)
	delete(s.active, sessionID)
	delete(s.counters, sessionID)
	return removed
}

// Has reports whether the session has any record in this store.
func (s *Store) Has(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tabs[sessionID]; ok {
		return true
	}
	if _, ok := s.active[sessionID]; ok {
		return true
	}
	_, ok := s.counters[sessionID]
	return ok
}

func copyTabs(in []Tab) []Tab {
	out := make([]Tab, len(in))
	copy(out, in)
	return out
}
