// Package dispatch resolves keyboard and menu input into actions. Bindings
// live in per-context tables tried most-specific-first, so a picker can
// shadow a global binding without either knowing about the other.
package dispatch

// Context is a named condition scoping a set of keybindings.
type Context string

const (
	// ContextPicker applies while a picker/palette modal is open.
	ContextPicker Context = "picker-open"
	// ContextDiff applies while the focused tab is a diff view.
	ContextDiff Context = "diff-focused"
	// ContextDrawer applies while the drawer holds keyboard focus.
	ContextDrawer Context = "drawer-focused"
	// ContextSession applies whenever a session is active.
	ContextSession Context = "session-active"
	// ContextGlobal always applies.
	ContextGlobal Context = "global"
)

// State is the coordinator snapshot contexts are computed from.
type State struct {
	ActiveSessionID string
	DrawerFocused   bool
	DrawerOpen      bool
	SidePanelOpen   bool
	PickerOpen      bool
	DiffTabFocused  bool
	CanBack         bool
	CanForward      bool
	SessionCount    int
}

// ActiveContexts maps the coordinator state to the ordered context set,
// most specific first. Global is always last.
func ActiveContexts(st State) []Context {
	var out []Context

	if st.PickerOpen {
		out = append(out, ContextPicker)
	}
	if st.DiffTabFocused && !st.PickerOpen {
		out = append(out, ContextDiff)
	}
	if st.DrawerFocused && !st.PickerOpen {
		out = append(out, ContextDrawer)
	}
	if st.ActiveSessionID != "" {
		out = append(out, ContextSession)
	}
	return append(out, ContextGlobal)
}

// actionContexts assigns each action id to the context owning its binding.
// Unlisted actions are global.
var actionContexts = map[string]Context{
	"picker.close": ContextPicker,

	"diff.mode": ContextDiff,

	"tab.new":     ContextSession,
	"tab.close":   ContextSession,
	"tab.next":    ContextSession,
	"task.stop":   ContextSession,
	"focus.cycle": ContextSession,
}

func contextFor(actionID string) Context {
	if ctx, ok := actionContexts[actionID]; ok {
		return ctx
	}
	return ContextGlobal
}
