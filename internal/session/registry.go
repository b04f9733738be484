package session

import "sync"

// Registry is the sole source of truth for which sessions exist, which are
// open (terminal state kept mounted), and which one is active.
type Registry struct {
	mu sync.RWMutex

	ordered []Session
	byID    map[string]Session

	// openIDs is the set of sessions whose terminal state is mounted.
	// A session joins on first selection and leaves only on explicit
	// close; existence and openness are deliberately separate.
	openIDs  map[string]bool
	activeID string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]Session),
		openIDs: make(map[string]bool),
	}
}

// Update replaces the derived session list. Open and active state referring
// to sessions that no longer exist is pruned; the caller is expected to
// prune its own per-session stores for the returned removed ids.
func (r *Registry) Update(sessions []Session) (removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]Session, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
	}

	for id := range r.openIDs {
		if _, ok := byID[id]; !ok {
			removed = append(removed, id)
			delete(r.openIDs, id)
		}
	}

	r.ordered = sessions
	r.byID = byID

	if _, ok := byID[r.activeID]; !ok {
		r.activeID = ""
	}
	return removed
}

// Sessions returns a copy of the derived session list.
func (r *Registry) Sessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	return s, ok
}

// At returns the session at the given derived-order index (0-based),
// backing the 1-9 shortcuts.
func (r *Registry) At(index int) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.ordered) {
		return Session{}, false
	}
	return r.ordered[index], true
}

// ActiveID returns the active session id, or "" if none.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Active returns the active session.
func (r *Registry) Active() (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[r.activeID]
	return s, ok
}

// SetActive makes the given session active and marks it open. Unknown ids
// are a no-op (reachable via stale shortcuts).
func (r *Registry) SetActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		r.activeID = ""
		return true
	}
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.activeID = id
	r.openIDs[id] = true
	return true
}

// IsOpen reports whether the session's terminal state is mounted.
func (r *Registry) IsOpen(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.openIDs[id]
}

// OpenIDs returns a copy of the open set.
func (r *Registry) OpenIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.openIDs))
	for id := range r.openIDs {
		out = append(out, id)
	}
	return out
}

// Close removes the session from the open set and, if it was active, picks
// a replacement by priority: other open worktrees, then other open
// projects, then open scratch terminals, then none. Returns the new active
// id ("" when none remains).
func (r *Registry) Close(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.openIDs, id)

	if r.activeID != id {
		return r.activeID
	}

	r.activeID = r.firstOpenByKindLocked(KindWorktree, id)
	if r.activeID == "" {
		r.activeID = r.firstOpenByKindLocked(KindProject, id)
	}
	if r.activeID == "" {
		r.activeID = r.firstOpenByKindLocked(KindScratch, id)
	}
	return r.activeID
}

// firstOpenByKindLocked walks the derived order for an open session of the
// given kind, skipping the one being closed.
func (r *Registry) firstOpenByKindLocked(kind Kind, skip string) string {
	for _, s := range r.ordered {
		if s.ID == skip || s.Kind != kind {
			continue
		}
		if r.openIDs[s.ID] {
			return s.ID
		}
	}
	return ""
}

// Next returns the id of the session after the active one in derived
// order, wrapping around. Empty when there are no sessions.
func (r *Registry) Next() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stepLocked(1)
}

// Prev returns the id of the session before the active one in derived
// order, wrapping around.
func (r *Registry) Prev() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stepLocked(-1)
}

func (r *Registry) stepLocked(delta int) string {
	if len(r.ordered) == 0 {
		return ""
	}
	idx := 0
	for i, s := range r.ordered {
		if s.ID == r.activeID {
			idx = (i + delta + len(r.ordered)) % len(r.ordered)
			break
		}
	}
	return r.ordered[idx].ID
}
