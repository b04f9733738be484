package coordinator

import (
	"context"

	"github.com/deskmux/deskmux/internal/channel"
	"github.com/deskmux/deskmux/internal/host"
	"github.com/deskmux/deskmux/internal/tabs"
)

// StartTask starts a named task in the active session. Starting a task
// that is already running is a no-op that re-focuses its existing tab;
// silent tasks never get a tab and never steal focus.
func (c *Coordinator) StartTask(ctx context.Context, taskName string) {
	sess, ok := c.registry.Active()
	if !ok {
		return
	}

	c.mu.Lock()
	def, ok := c.cfg.Task(taskName)
	if !ok {
		c.mu.Unlock()
		c.notice("unknown task: " + taskName)
		return
	}
	if !c.tracker.Start(sess.ID, taskName) {
		// Single-flight: refocus the running instance's tab.
		if !def.Silent {
			if t, found := c.mainTabs.FindByTask(sess.ID, taskName); found {
				c.mainTabs.SetActive(sess.ID, t.ID)
			}
		}
		c.mu.Unlock()
		c.notifyAll()
		return
	}

	var tabID string
	if !def.Silent {
		n := c.mainTabs.NextCounter(sess.ID)
		tabID = c.mainTabs.TabID(sess.ID, n)
		c.mainTabs.AddTab(sess.ID, tabs.Tab{
			ID:       tabID,
			Label:    taskName,
			TaskName: taskName,
			Command:  def.Command,
		})
		c.mainTabs.SetActive(sess.ID, tabID)
	}

	req := channel.SpawnRequest{
		Kind:      channel.SpawnTask,
		SessionID: sess.ID,
		Dir:       sess.Path,
		Command:   def.Command,
		TaskName:  taskName,
		OnReady: func(id host.ChannelID) {
			// The channel id binds on readiness; until then the task
			// record carries no pty identity.
			c.tracker.BindChannel(sess.ID, taskName, string(id))
		},
	}

	ch, err := c.adapter.Spawn(ctx, req)
	if err != nil {
		c.tracker.Discard(sess.ID, taskName)
		if tabID != "" {
			c.mainTabs.RemoveTab(sess.ID, tabID)
		}
		c.mu.Unlock()
		c.notice("starting task " + taskName + ": " + err.Error())
		return
	}

	if tabID != "" {
		c.mainTabs.Update(sess.ID, tabID, func(tab *tabs.Tab) {
			tab.ChannelID = string(ch.ID)
		})
	}
	c.mu.Unlock()

	if err := c.store.SetLastTask(sess.Path, taskName); err != nil {
		c.log.Warn("persisting last task", "err", err)
	}
	c.notifyAll()
}

// StopTask requests a task stop. The status moves to stopping; only the
// exit event (or a force-kill) marks it stopped.
func (c *Coordinator) StopTask(taskName string) {
	sess, ok := c.registry.Active()
	if !ok {
		return
	}

	chID := c.tracker.RequestStop(sess.ID, taskName)
	if chID == "" {
		return
	}
	if err := c.adapter.RequestStop(host.ChannelID(chID)); err != nil {
		c.log.Debug("stop request", "task", taskName, "err", err)
	}
	c.notifyAll()
}

// ForceKillTask resolves a stuck stopping task: the record goes to
// stopped with the fixed kill exit code immediately, and a later exit
// event for the same channel is a no-op.
func (c *Coordinator) ForceKillTask(taskName string) {
	sess, ok := c.registry.Active()
	if !ok {
		return
	}

	chID := c.tracker.ForceKill(sess.ID, taskName)
	if chID == "" {
		return
	}
	c.adapter.Kill(host.ChannelID(chID))
	c.notifyAll()
}

// StartLastTask starts whichever task the user last ran for the active
// session's path.
func (c *Coordinator) StartLastTask(ctx context.Context) {
	sess, ok := c.registry.Active()
	if !ok {
		return
	}
	if name := c.store.LastTask(sess.Path); name != "" {
		c.StartTask(ctx, name)
	}
}

// StopFocusedTask stops the task bound to the focused tab, if any.
func (c *Coordinator) StopFocusedTask() bool {
	sess, ok := c.registry.Active()
	if !ok {
		return false
	}
	t, ok := c.focusedStore(sess.ID).Active(sess.ID)
	if !ok || t.TaskName == "" {
		return false
	}
	c.StopTask(t.TaskName)
	return true
}
