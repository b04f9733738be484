package coordinator

import (
	"context"
	"fmt"
	"os"

	"github.com/deskmux/deskmux/internal/channel"
	"github.com/deskmux/deskmux/internal/diff"
	"github.com/deskmux/deskmux/internal/host"
	"github.com/deskmux/deskmux/internal/panels"
	"github.com/deskmux/deskmux/internal/session"
	"github.com/deskmux/deskmux/internal/tabs"
)

// openTerminalTabLocked synthesizes and spawns a plain terminal tab. The
// session's first main tab is primary: it runs the session's configured
// primary command when one exists.
func (c *Coordinator) openTerminalTabLocked(ctx context.Context, store *tabs.Store, sess session.Session, primary bool) {
	n := store.NextCounter(sess.ID)
	t := tabs.Tab{
		ID:    store.TabID(sess.ID, n),
		Label: fmt.Sprintf("Terminal %d", n),
	}

	req := channel.SpawnRequest{
		Kind:      channel.SpawnShell,
		SessionID: sess.ID,
		Dir:       sess.Path,
	}
	if primary && n == 1 && sess.PrimaryCommand != "" {
		t.IsPrimary = true
		t.Command = sess.PrimaryCommand
		req.Kind = channel.SpawnCommand
		req.Command = sess.PrimaryCommand
	}

	c.spawnTabLocked(ctx, store, sess.ID, t, req)
}

// OpenTab adds a terminal tab to the focused pane of the active session,
// honoring optional command/directory overrides.
func (c *Coordinator) OpenTab(ctx context.Context, command, directory string) {
	c.mu.Lock()
	sess, ok := c.registry.Active()
	if !ok {
		c.mu.Unlock()
		return
	}

	store := c.focusedStoreLocked(sess.ID)
	n := store.NextCounter(sess.ID)
	t := tabs.Tab{
		ID:        store.TabID(sess.ID, n),
		Label:     fmt.Sprintf("Terminal %d", n),
		Command:   command,
		Directory: directory,
	}

	dir := sess.Path
	if directory != "" {
		dir = directory
	}
	req := channel.SpawnRequest{
		Kind:      channel.SpawnShell,
		SessionID: sess.ID,
		Dir:       dir,
	}
	if command != "" {
		req.Kind = channel.SpawnCommand
		req.Command = command
	}

	c.spawnTabLocked(ctx, store, sess.ID, t, req)
	c.mu.Unlock()

	c.notifyAll()
}

// spawnTabLocked adds the tab, spawns its channel, and records the channel
// id. A failed spawn removes the tab again: no phantom tabs.
func (c *Coordinator) spawnTabLocked(ctx context.Context, store *tabs.Store, sessionID string, t tabs.Tab, req channel.SpawnRequest) {
	store.AddTab(sessionID, t)
	pane := store.Pane()

	req.OnExit = func(id host.ChannelID, exitCode int) {
		// The process ended on its own; retire its tab. Runs off the
		// event goroutine, never under the coordinator lock.
		go c.closeExitedTab(pane, sessionID, t.ID)
	}

	ch, err := c.adapter.Spawn(ctx, req)
	if err != nil {
		store.RemoveTab(sessionID, t.ID)
		c.notice("spawning terminal: " + err.Error())
		return
	}

	store.Update(sessionID, t.ID, func(tab *tabs.Tab) {
		tab.ChannelID = string(ch.ID)
	})
}

// closeExitedTab is the reactive teardown path for a process that exited
// on its own. Closing an already-removed tab is a no-op.
func (c *Coordinator) closeExitedTab(pane tabs.Pane, sessionID, tabID string) {
	c.CloseTab(context.Background(), pane, sessionID, tabID)
}

// CloseTab removes a tab, kills its channel, and fires the pane-level
// side effect when the last tab goes: the drawer collapses, the main pane
// closes the whole session.
func (c *Coordinator) CloseTab(ctx context.Context, pane tabs.Pane, sessionID, tabID string) {
	c.mu.Lock()
	store := c.storeFor(pane)
	res := store.RemoveTab(sessionID, tabID)
	if !res.Removed {
		c.mu.Unlock()
		return
	}

	if res.Tab.ChannelID != "" {
		c.adapter.Kill(host.ChannelID(res.Tab.ChannelID))
	}
	if res.Tab.TaskName != "" {
		c.tracker.Discard(sessionID, res.Tab.TaskName)
	}
	if res.Tab.DiffPath != "" {
		delete(c.diffBase, tabID)
	}

	if res.Empty && pane == tabs.PaneDrawer {
		c.panels.CollapseDrawer()
		c.panels.SetFocus(sessionID, panels.FocusMain)
	}
	closeSession := res.Empty && pane == tabs.PaneMain
	c.mu.Unlock()

	if closeSession {
		c.CloseSession(ctx, sessionID)
		return
	}
	c.notifyAll()
}

// CloseActiveTab closes the focused pane's active tab.
func (c *Coordinator) CloseActiveTab(ctx context.Context) {
	sess, ok := c.registry.Active()
	if !ok {
		return
	}
	store := c.focusedStore(sess.ID)
	if id := store.ActiveID(sess.ID); id != "" {
		c.CloseTab(ctx, store.Pane(), sess.ID, id)
	}
}

// NextTab cycles the focused pane's active tab. Reports whether it moved;
// with fewer than two tabs there is nothing to cycle and the keypress
// belongs to the terminal.
func (c *Coordinator) NextTab() bool {
	sess, ok := c.registry.Active()
	if !ok {
		return false
	}
	store := c.focusedStore(sess.ID)
	list := store.Tabs(sess.ID)
	if len(list) < 2 {
		return false
	}
	active := store.ActiveID(sess.ID)
	for i, t := range list {
		if t.ID == active {
			store.SetActive(sess.ID, list[(i+1)%len(list)].ID)
			break
		}
	}
	c.notifyAll()
	return true
}

// ToggleDrawer opens or collapses the drawer. Opening for a session with
// zero drawer tabs synthesizes the first one before focus moves.
func (c *Coordinator) ToggleDrawer(ctx context.Context) {
	c.mu.Lock()
	open := c.panels.ToggleDrawer()
	sess, ok := c.registry.Active()
	if ok {
		if open {
			if c.drawerTabs.Count(sess.ID) == 0 {
				c.openTerminalTabLocked(ctx, c.drawerTabs, sess, false)
			}
			c.panels.SetFocus(sess.ID, panels.FocusDrawer)
		} else {
			c.panels.SetFocus(sess.ID, panels.FocusMain)
		}
	}
	c.mu.Unlock()

	c.notifyAll()
}

// ToggleSidePanel opens or collapses the side panel. Panel geometry is
// global chrome; the active session does not change.
func (c *Coordinator) ToggleSidePanel() {
	c.panels.ToggleSidePanel()
	c.notifyAll()
}

// CycleFocus moves keyboard focus between main pane and drawer for the
// active session. A closed drawer keeps focus in main.
func (c *Coordinator) CycleFocus() {
	sess, ok := c.registry.Active()
	if !ok {
		return
	}
	if c.panels.Focus(sess.ID) == panels.FocusMain && c.panels.DrawerOpen() {
		c.panels.SetFocus(sess.ID, panels.FocusDrawer)
	} else {
		c.panels.SetFocus(sess.ID, panels.FocusMain)
	}
	c.notifyAll()
}

// OpenDiffTab adds a diff-bound tab for a file to the main pane. The
// file's current content becomes the baseline later edits diff against.
func (c *Coordinator) OpenDiffTab(sessionID, filePath string) {
	base, err := os.ReadFile(filePath)
	if err != nil {
		c.notice("opening diff: " + err.Error())
		return
	}

	c.mu.Lock()
	n := c.mainTabs.NextCounter(sessionID)
	id := c.mainTabs.TabID(sessionID, n)
	c.mainTabs.AddTab(sessionID, tabs.Tab{
		ID:       id,
		Label:    tabs.FitLabel(filePath),
		DiffPath: filePath,
		DiffMode: diff.ModeUnified,
	})
	c.mainTabs.SetActive(sessionID, id)
	c.diffBase[id] = string(base)
	c.mu.Unlock()

	c.notifyAll()
}

// ActiveDiffContent renders the focused diff tab: the file's on-disk
// content diffed against the baseline from open time, in the tab's view
// mode, syntax highlighted. Reports false when the focused tab is not a
// diff tab.
func (c *Coordinator) ActiveDiffContent(width int) (string, bool) {
	sess, ok := c.registry.Active()
	if !ok {
		return "", false
	}
	t, ok := c.focusedStore(sess.ID).Active(sess.ID)
	if !ok || t.DiffPath == "" {
		return "", false
	}

	c.mu.Lock()
	base := c.diffBase[t.ID]
	c.mu.Unlock()

	current, err := os.ReadFile(t.DiffPath)
	if err != nil {
		return "reading " + t.DiffPath + ": " + err.Error(), true
	}

	var body string
	if t.DiffMode == diff.ModeSideBySide {
		body = diff.SideBySide(t.DiffPath, base, string(current), width)
	} else {
		body = diff.Unified(t.DiffPath, base, string(current))
	}
	return diff.Highlight(body, t.DiffPath), true
}

// ToggleDiffMode flips the focused diff tab between unified and
// side-by-side.
func (c *Coordinator) ToggleDiffMode() bool {
	sess, ok := c.registry.Active()
	if !ok {
		return false
	}
	store := c.focusedStore(sess.ID)
	t, ok := store.Active(sess.ID)
	if !ok || t.DiffPath == "" {
		return false
	}
	store.Update(sess.ID, t.ID, func(tab *tabs.Tab) {
		tab.DiffMode = diff.ToggleMode(tab.DiffMode)
	})
	c.notifyAll()
	return true
}

// RefreshActiveLabel inspects the focused tab's shell process and relabels
// the tab after the command it is running. Requires a host that exposes
// process ids; other hosts make this a no-op. Task tabs keep their task
// name.
func (c *Coordinator) RefreshActiveLabel() {
	pidHost, ok := c.host.(interface {
		PID(host.ChannelID) (int, bool)
	})
	if !ok {
		return
	}

	sess, found := c.registry.Active()
	if !found {
		return
	}
	store := c.focusedStore(sess.ID)
	t, found := store.Active(sess.ID)
	if !found || t.ChannelID == "" || t.TaskName != "" || t.CustomLabel {
		return
	}

	pid, ok := pidHost.PID(host.ChannelID(t.ChannelID))
	if !ok {
		return
	}
	name, _, err := host.ActiveCommand(pid)
	if err != nil {
		c.log.Debug("inspecting shell process", "err", err)
		return
	}
	c.RelabelFromProcess(store.Pane(), sess.ID, t.ID, name)
}

// RelabelFromProcess updates a tab's label to the command its shell is
// running, skipping user-renamed tabs.
func (c *Coordinator) RelabelFromProcess(pane tabs.Pane, sessionID, tabID, command string) {
	store := c.storeFor(pane)
	t, ok := store.Get(sessionID, tabID)
	if !ok || t.CustomLabel || command == "" {
		return
	}
	store.Update(sessionID, tabID, func(tab *tabs.Tab) {
		tab.Label = tabs.FitLabel(command)
	})
	c.notifyAll()
}

// WriteActive forwards keystrokes from the terminal widget to the focused
// tab's process.
func (c *Coordinator) WriteActive(data []byte) {
	if ch, ok := c.activeChannel(); ok {
		if err := ch.Write(data); err != nil {
			c.log.Debug("write to channel", "err", err)
		}
	}
}

// ResizeActive forwards a resize intent to the focused tab's channel.
func (c *Coordinator) ResizeActive(cols, rows int) {
	if ch, ok := c.activeChannel(); ok {
		if err := ch.Resize(cols, rows); err != nil {
			c.log.Debug("resize channel", "err", err)
		}
	}
}

// ActiveChannel returns the channel behind the focused pane's active tab.
func (c *Coordinator) ActiveChannel() (*channel.Channel, bool) {
	return c.activeChannel()
}

func (c *Coordinator) activeChannel() (*channel.Channel, bool) {
	sess, ok := c.registry.Active()
	if !ok {
		return nil, false
	}
	t, ok := c.focusedStore(sess.ID).Active(sess.ID)
	if !ok || t.ChannelID == "" {
		return nil, false
	}
	return c.adapter.Get(host.ChannelID(t.ChannelID))
}

func (c *Coordinator) storeFor(pane tabs.Pane) *tabs.Store {
	if pane == tabs.PaneDrawer {
		return c.drawerTabs
	}
	return c.mainTabs
}

func (c *Coordinator) focusedStore(sessionID string) *tabs.Store {
	if c.panels.Focus(sessionID) == panels.FocusDrawer && c.panels.DrawerOpen() {
		return c.drawerTabs
	}
	return c.mainTabs
}

func (c *Coordinator) focusedStoreLocked(sessionID string) *tabs.Store {
	return c.focusedStore(sessionID)
}
