// Package panels coordinates keyboard focus per session and the shared
// open/size state of the drawer and side panel. Panels are global UI
// chrome; which session's tabs show inside them is not their concern.
package panels

import "sync"

// FocusPane says which pane holds keyboard focus for a session.
type FocusPane int

const (
	FocusMain FocusPane = iota
	FocusDrawer
)

func (f FocusPane) String() string {
	if f == FocusDrawer {
		return "drawer"
	}
	return "main"
}

const (
	defaultDrawerSize = 12
	defaultSideSize   = 32
)

// State holds focus and panel geometry.
type State struct {
	mu sync.RWMutex

	// focus is per-session; absent entries mean main.
	focus map[string]FocusPane

	drawerOpen     bool
	drawerSize     int
	lastDrawerSize int

	sideOpen     bool
	sideSize     int
	lastSideSize int
}

// New creates panel state with both panels collapsed.
func New() *State {
	return &State{
		focus:          make(map[string]FocusPane),
		lastDrawerSize: defaultDrawerSize,
		lastSideSize:   defaultSideSize,
	}
}

// Focus returns the session's focused pane, defaulting to main.
func (s *State) Focus(sessionID string) FocusPane {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focus[sessionID]
}

// SetFocus records the session's focused pane.
func (s *State) SetFocus(sessionID string, pane FocusPane) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pane == FocusMain {
		// Absent means main; keep the map minimal.
		delete(s.focus, sessionID)
		return
	}
	s.focus[sessionID] = pane
}

// ToggleDrawer opens the drawer at its last non-collapsed size, or
// collapses it. Returns the new open state.
func (s *State) ToggleDrawer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drawerOpen {
		s.lastDrawerSize = s.drawerSize
		s.drawerOpen = false
		s.drawerSize = 0
		return false
	}
	s.drawerOpen = true
	s.drawerSize = s.lastDrawerSize
	return true
}

// CollapseDrawer closes the drawer, remembering its size.
func (s *State) CollapseDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawerOpen {
		return
	}
	s.lastDrawerSize = s.drawerSize
	s.drawerOpen = false
	s.drawerSize = 0
}

// DrawerOpen reports whether the drawer is open.
func (s *State) DrawerOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawerOpen
}

// DrawerSize returns the drawer's current size in rows.
func (s *State) DrawerSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawerSize
}

// SetDrawerSize resizes an open drawer.
func (s *State) SetDrawerSize(rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawerOpen || rows < 1 {
		return
	}
	s.drawerSize = rows
}

// ToggleSidePanel opens or collapses the side panel. Returns the new
// open state.
func (s *State) ToggleSidePanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sideOpen {
		s.lastSideSize = s.sideSize
		s.sideOpen = false
		s.sideSize = 0
		return false
	}
	s.sideOpen = true
	s.sideSize = s.lastSideSize
	return true
}

// SidePanelOpen reports whether the side panel is open.
func (s *State) SidePanelOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sideOpen
}

// SidePanelSize returns the side panel's current size in columns.
func (s *State) SidePanelSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sideSize
}

// SetSidePanelSize resizes an open side panel.
func (s *State) SetSidePanelSize(cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sideOpen || cols < 1 {
		return
	}
	s.sideSize = cols
}

// Prune drops the session's focus record.
func (s *State) Prune(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.focus, sessionID)
}

// Has reports whether the session has a focus record. Absent records read
// as main focus, so this is only interesting to the pruning invariant.
func (s *State) Has(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.focus[sessionID]
	return ok
}
