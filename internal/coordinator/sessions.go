package coordinator

import (
	"context"

	"github.com/go-errors/errors"

	"github.com/deskmux/deskmux/internal/host"
	"github.com/deskmux/deskmux/internal/nav"
	"github.com/deskmux/deskmux/internal/session"
)

// Refresh re-derives the session list from scratch terminals and the
// backend's projects, pruning per-session stores for anything that
// disappeared (e.g. a worktree removed externally).
func (c *Coordinator) Refresh(ctx context.Context) error {
	projects, err := c.backend.Projects(ctx)
	if err != nil {
		return errors.Errorf("listing projects: %w", err)
	}

	c.mu.Lock()
	derived := session.Derive(c.scratch, projects)
	removed := c.registry.Update(derived)
	for _, id := range removed {
		c.cleanupSessionLocked(id)
	}
	c.mu.Unlock()

	c.notifyAll()
	return nil
}

// SelectSession makes a session active, marks it open, records the
// transition in history, and lazily synthesizes tabs for visible panes.
func (c *Coordinator) SelectSession(ctx context.Context, id string) {
	c.mu.Lock()
	sess, ok := c.registry.Get(id)
	if !ok || !c.registry.SetActive(id) {
		c.mu.Unlock()
		return
	}

	if !c.navigating {
		c.history.Push(navEntry(sess))
	}

	// A visible pane with zero tabs always gets one; nothing ever
	// renders an empty pane.
	if c.mainTabs.Count(id) == 0 {
		c.openTerminalTabLocked(ctx, c.mainTabs, sess, true)
	}
	if c.panels.DrawerOpen() && c.drawerTabs.Count(id) == 0 {
		c.openTerminalTabLocked(ctx, c.drawerTabs, sess, false)
	}
	c.mu.Unlock()

	c.notifyAll()
}

// SelectByIndex jumps to the Nth session in derived order (1-based).
func (c *Coordinator) SelectByIndex(ctx context.Context, n int) {
	if s, ok := c.registry.At(n - 1); ok {
		c.SelectSession(ctx, s.ID)
	}
}

// CloseSession removes a session from the open set, kills every channel
// it owns in both panes, clears its tab/focus/task records, and activates
// a replacement (open worktrees, then projects, then scratch, then none).
func (c *Coordinator) CloseSession(ctx context.Context, id string) {
	c.mu.Lock()
	sess, known := c.registry.Get(id)
	wasActive := c.registry.ActiveID() == id

	c.cleanupSessionLocked(id)
	newActive := c.registry.Close(id)

	if wasActive {
		c.panels.CollapseDrawer()
	}

	// Closing a scratch terminal destroys its identity entirely.
	if known && sess.Kind == session.KindScratch {
		c.removeScratchLocked(id)
	}
	c.mu.Unlock()

	if newActive != "" {
		c.SelectSession(ctx, newActive)
		return
	}
	c.notifyAll()
}

// cleanupSessionLocked enforces the pruning invariant: after it runs, the
// session id is absent from both tab stores, the task tracker, and the
// focus map, and none of its processes are alive.
func (c *Coordinator) cleanupSessionLocked(id string) {
	for _, t := range c.mainTabs.Prune(id) {
		if t.ChannelID != "" {
			c.adapter.Kill(host.ChannelID(t.ChannelID))
		}
		if t.DiffPath != "" {
			delete(c.diffBase, t.ID)
		}
	}
	for _, t := range c.drawerTabs.Prune(id) {
		if t.ChannelID != "" {
			c.adapter.Kill(host.ChannelID(t.ChannelID))
		}
	}
	for _, ch := range c.tracker.Prune(id) {
		c.adapter.Kill(host.ChannelID(ch))
	}
	c.panels.Prune(id)
}

// navEntry identifies a session's view for history purposes.
func navEntry(s session.Session) nav.Entry {
	switch s.Kind {
	case session.KindWorktree:
		return nav.Entry{WorktreeID: s.ID, ProjectID: s.ProjectID}
	case session.KindProject:
		return nav.Entry{ProjectID: s.ID}
	default:
		return nav.Entry{ScratchID: s.ID}
	}
}

// NewScratch creates a scratch terminal session and selects it.
func (c *Coordinator) NewScratch(ctx context.Context, name, path string) {
	// Backend calls never run under c.mu; fetch first, like Refresh.
	projects, err := c.backend.Projects(ctx)
	if err != nil {
		c.notice("listing projects: " + err.Error())
		return
	}

	c.mu.Lock()
	if name == "" {
		name = "Scratch"
	}
	s := session.NewScratch(name, path, len(c.scratch))
	c.scratch = append(c.scratch, s)
	c.registry.Update(session.Derive(c.scratch, projects))
	c.mu.Unlock()

	c.SelectSession(ctx, s.ID)
}

func (c *Coordinator) removeScratchLocked(id string) {
	next := make([]session.Scratch, 0, len(c.scratch))
	for _, s := range c.scratch {
		if s.ID != id {
			next = append(next, s)
		}
	}
	c.scratch = next
}

// NavigateBack applies the previous live history entry without recording
// a new transition.
func (c *Coordinator) NavigateBack(ctx context.Context) {
	e, ok := c.history.Back(c.entryLive)
	if !ok {
		return
	}
	c.applyNav(ctx, e)
}

// NavigateForward applies the next live history entry.
func (c *Coordinator) NavigateForward(ctx context.Context) {
	e, ok := c.history.Forward(c.entryLive)
	if !ok {
		return
	}
	c.applyNav(ctx, e)
}

func (c *Coordinator) applyNav(ctx context.Context, e nav.Entry) {
	c.mu.Lock()
	c.navigating = true
	c.mu.Unlock()

	c.SelectSession(ctx, e.SessionID())

	c.mu.Lock()
	c.navigating = false
	c.mu.Unlock()
}

// entryLive reports whether a history target's session still exists and
// is open.
func (c *Coordinator) entryLive(e nav.Entry) bool {
	id := e.SessionID()
	if _, ok := c.registry.Get(id); !ok {
		return false
	}
	return c.registry.IsOpen(id)
}

// AddProject imports a repository through the backend.
func (c *Coordinator) AddProject(ctx context.Context, path string) {
	if _, err := c.backend.AddProject(ctx, path); err != nil {
		c.notice("adding project: " + err.Error())
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.notice(err.Error())
	}
}

// CreateWorktree creates a worktree and opens its session. A failed
// creation must not leave a phantom open session, so the session is only
// selected after the backend call succeeds and the refresh re-derives it.
func (c *Coordinator) CreateWorktree(ctx context.Context, projectID, branch string) {
	wt, err := c.backend.CreateWorktree(ctx, projectID, branch)
	if err != nil {
		c.notice("creating worktree: " + err.Error())
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.notice(err.Error())
		return
	}
	c.SelectSession(ctx, wt.ID)
}

// RemoveWorktree deletes a worktree; its session is pruned by the refresh.
func (c *Coordinator) RemoveWorktree(ctx context.Context, projectID, worktreeID string) {
	if err := c.backend.RemoveWorktree(ctx, projectID, worktreeID); err != nil {
		c.notice("removing worktree: " + err.Error())
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.notice(err.Error())
	}
}
