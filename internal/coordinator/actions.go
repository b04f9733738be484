package coordinator

import (
	"context"
	"strconv"

	"github.com/deskmux/deskmux/internal/dispatch"
	"github.com/deskmux/deskmux/internal/panels"
)

// DispatchState snapshots coordinator state for context computation and
// menu availability.
func (c *Coordinator) DispatchState() dispatch.State {
	activeID := c.registry.ActiveID()

	st := dispatch.State{
		ActiveSessionID: activeID,
		DrawerOpen:      c.panels.DrawerOpen(),
		SidePanelOpen:   c.panels.SidePanelOpen(),
		PickerOpen:      c.pickerOpen.Load(),
		CanBack:         c.history.CanBack(),
		CanForward:      c.history.CanForward(),
		SessionCount:    len(c.registry.Sessions()),
	}

	if activeID != "" {
		st.DrawerFocused = c.panels.Focus(activeID) == panels.FocusDrawer && st.DrawerOpen
		if t, ok := c.focusedStore(activeID).Active(activeID); ok {
			st.DiffTabFocused = t.DiffPath != ""
		}
	}
	return st
}

// HandleKey routes one raw key event through the context-priority tables.
// Returns whether anything fired; the host suppresses default handling
// only when it did.
func (c *Coordinator) HandleKey(ev dispatch.KeyEvent) bool {
	return c.dispatcher.HandleKey(ev, c.DispatchState())
}

// InvokeAction runs a menu or palette action by id.
func (c *Coordinator) InvokeAction(actionID string, args map[string]string) bool {
	return c.dispatcher.Invoke(actionID, args)
}

// Dispatcher exposes the dispatcher, e.g. to attach the menu sink.
func (c *Coordinator) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// OpenPicker marks a picker/palette modal open; its context then shadows
// lower-priority bindings.
func (c *Coordinator) OpenPicker() {
	c.pickerOpen.Store(true)
	c.notifyAll()
}

// ClosePicker marks the picker closed.
func (c *Coordinator) ClosePicker() {
	c.pickerOpen.Store(false)
	c.notifyAll()
}

// registerActions fills the flat action table. Handlers return whether
// they actually did something, enabling fallthrough.
func (c *Coordinator) registerActions() {
	ctx := context.Background()

	hasSession := func(st dispatch.State) bool { return st.ActiveSessionID != "" }

	c.dispatcher.Register("session.next", func(map[string]string) bool {
		id := c.registry.Next()
		if id == "" {
			return false
		}
		c.SelectSession(ctx, id)
		return true
	}, func(st dispatch.State) bool { return st.SessionCount > 1 })

	c.dispatcher.Register("session.prev", func(map[string]string) bool {
		id := c.registry.Prev()
		if id == "" {
			return false
		}
		c.SelectSession(ctx, id)
		return true
	}, func(st dispatch.State) bool { return st.SessionCount > 1 })

	c.dispatcher.Register("session.close", func(map[string]string) bool {
		id := c.registry.ActiveID()
		if id == "" {
			return false
		}
		c.CloseSession(ctx, id)
		return true
	}, hasSession)

	for i := 1; i <= 9; i++ {
		c.dispatcher.Register("session.jump."+strconv.Itoa(i), func(args map[string]string) bool {
			n, err := strconv.Atoi(args["index"])
			if err != nil {
				return false
			}
			if _, ok := c.registry.At(n - 1); !ok {
				return false
			}
			c.SelectByIndex(ctx, n)
			return true
		}, nil)
	}

	c.dispatcher.Register("tab.new", func(map[string]string) bool {
		if c.registry.ActiveID() == "" {
			return false
		}
		c.OpenTab(ctx, "", "")
		return true
	}, hasSession)

	c.dispatcher.Register("tab.close", func(map[string]string) bool {
		if c.registry.ActiveID() == "" {
			return false
		}
		c.CloseActiveTab(ctx)
		return true
	}, hasSession)

	c.dispatcher.Register("tab.next", func(map[string]string) bool {
		return c.NextTab()
	}, hasSession)

	c.dispatcher.Register("drawer.toggle", func(map[string]string) bool {
		c.ToggleDrawer(ctx)
		return true
	}, nil)

	c.dispatcher.Register("panel.toggle", func(map[string]string) bool {
		c.ToggleSidePanel()
		return true
	}, nil)

	c.dispatcher.Register("focus.cycle", func(map[string]string) bool {
		if c.registry.ActiveID() == "" {
			return false
		}
		c.CycleFocus()
		return true
	}, hasSession)

	c.dispatcher.Register("nav.back", func(map[string]string) bool {
		if !c.history.CanBack() {
			return false
		}
		c.NavigateBack(ctx)
		return true
	}, func(st dispatch.State) bool { return st.CanBack })

	c.dispatcher.Register("nav.forward", func(map[string]string) bool {
		if !c.history.CanForward() {
			return false
		}
		c.NavigateForward(ctx)
		return true
	}, func(st dispatch.State) bool { return st.CanForward })

	c.dispatcher.Register("picker.open", func(map[string]string) bool {
		c.OpenPicker()
		return true
	}, nil)

	c.dispatcher.Register("picker.close", func(map[string]string) bool {
		if !c.pickerOpen.Load() {
			return false
		}
		c.ClosePicker()
		return true
	}, func(st dispatch.State) bool { return st.PickerOpen })

	c.dispatcher.Register("task.stop", func(map[string]string) bool {
		// Falls through to the terminal (ctrl+c) when the focused tab
		// is not task-bound.
		return c.StopFocusedTask()
	}, hasSession)

	c.dispatcher.Register("task.start", func(args map[string]string) bool {
		name := args["task"]
		if name == "" {
			return false
		}
		c.StartTask(ctx, name)
		return true
	}, hasSession)

	c.dispatcher.Register("scratch.new", func(map[string]string) bool {
		c.NewScratch(ctx, "", "")
		return true
	}, nil)

	c.dispatcher.Register("diff.mode", func(map[string]string) bool {
		return c.ToggleDiffMode()
	}, func(st dispatch.State) bool { return st.DiffTabFocused })

	c.dispatcher.Register("app.open", func(args map[string]string) bool {
		app := args["app"]
		if app == "" {
			app = "editor"
		}
		if err := c.OpenInApp(app); err != nil {
			c.notice(err.Error())
			return false
		}
		return true
	}, hasSession)

	c.dispatcher.Register("app.quit", func(map[string]string) bool {
		c.Close()
		return true
	}, nil)
}
