// Package nav provides back/forward history over active-session
// transitions.
package nav

import "sync"

// Entry identifies one view. Exactly one field is normally set.
type Entry struct {
	WorktreeID string
	ProjectID  string
	ScratchID  string
}

// SessionID returns whichever id the entry carries.
func (e Entry) SessionID() string {
	switch {
	case e.WorktreeID != "":
		return e.WorktreeID
	case e.ProjectID != "":
		return e.ProjectID
	default:
		return e.ScratchID
	}
}

// History is an append-only sequence of view entries with a current index.
// Back and forward move the index without truncating; pushing a new view
// while not at the head truncates everything after the current index.
type History struct {
	mu      sync.Mutex
	entries []Entry
	index   int
}

// New creates an empty history.
func New() *History {
	return &History{index: -1}
}

// Push appends a view transition. No-ops when the view equals the current
// entry, which is how replays of back/forward navigation are kept out of
// the history (the caller applies those without pushing).
func (h *History) Push(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index >= 0 && h.entries[h.index] == e {
		return
	}

	if h.index < len(h.entries)-1 {
		h.entries = h.entries[:h.index+1]
	}
	h.entries = append(h.entries, e)
	h.index = len(h.entries) - 1
}

// Back moves to the previous entry. isLive validates the target is still
// applicable (its session exists and is open); stale targets are skipped
// silently, continuing backward until a live entry or the start.
func (h *History) Back(isLive func(Entry) bool) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for h.index > 0 {
		h.index--
		e := h.entries[h.index]
		if isLive == nil || isLive(e) {
			return e, true
		}
	}
	return Entry{}, false
}

// Forward moves to the next entry, skipping stale targets.
func (h *History) Forward(isLive func(Entry) bool) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for h.index < len(h.entries)-1 {
		h.index++
		e := h.entries[h.index]
		if isLive == nil || isLive(e) {
			return e, true
		}
	}
	return Entry{}, false
}

// CanBack reports whether an earlier entry exists.
func (h *History) CanBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanForward reports whether a later entry exists.
func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// Entries returns a copy of the sequence and the current index.
func (h *History) Entries() ([]Entry, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out, h.index
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
