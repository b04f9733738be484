package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jesseduffield/gocui"

	"github.com/deskmux/deskmux/internal/config"
)

// KeyEvent is one raw key press from the host keyboard layer.
type KeyEvent struct {
	Key gocui.Key
	Ch  rune
	Mod gocui.Modifier
}

// keyFromConfig converts a parsed config key into the comparable form used
// as a table index.
type tableKey struct {
	key gocui.Key
	ch  rune
	mod gocui.Modifier
}

func toTableKey(k config.Key) tableKey {
	if k.IsRune() {
		return tableKey{ch: k.Rune(), mod: k.Mod}
	}
	return tableKey{key: k.GocuiKey(), mod: k.Mod}
}

func (e KeyEvent) tableKey() tableKey {
	if e.Ch != 0 {
		return tableKey{ch: e.Ch, mod: e.Mod}
	}
	return tableKey{key: e.Key, mod: e.Mod}
}

// Binding is one key-to-action entry in a context's table.
type Binding struct {
	ActionID string
	Args     map[string]string
}

// Resolution is the outcome of resolving a key event.
type Resolution struct {
	ActionID string
	Args     map[string]string
	Context  Context
}

// Handler executes an action. It returns whether it actually handled the
// invocation; false lets the event fall through to lower-priority contexts
// and tells the host not to suppress default behavior.
type Handler func(args map[string]string) bool

// MenuItem is one action's availability, pushed to the host window menu.
type MenuItem struct {
	ActionID string
	Enabled  bool
}

// MenuSink receives availability updates for menu-exposed actions.
type MenuSink interface {
	SetActionAvailability(items []MenuItem)
}

// Dispatcher owns the context binding tables and the flat action table.
type Dispatcher struct {
	mu        sync.RWMutex
	tables    map[Context]map[tableKey]Binding
	handlers  map[string]Handler
	available map[string]func(State) bool
	menu      MenuSink
}

// New creates a dispatcher with empty tables.
func New() *Dispatcher {
	return &Dispatcher{
		tables:    make(map[Context]map[tableKey]Binding),
		handlers:  make(map[string]Handler),
		available: make(map[string]func(State) bool),
	}
}

// SetKeymap rebuilds the binding tables from the config key table. Called
// at startup and again on config reload.
func (d *Dispatcher) SetKeymap(keys map[string]string) error {
	tables := make(map[Context]map[tableKey]Binding)

	for actionID, keyStr := range keys {
		if keyStr == "" {
			continue
		}
		parsed, err := config.ParseKey(keyStr)
		if err != nil {
			return fmt.Errorf("binding %s: %w", actionID, err)
		}

		ctx := contextFor(actionID)
		if tables[ctx] == nil {
			tables[ctx] = make(map[tableKey]Binding)
		}
		tk := toTableKey(parsed)
		// Comparing parsed keys catches spellings of the same key
		// ("esc" vs "escape"). Shadowing across contexts is fine; two
		// actions in one context cannot share a key.
		if prev, ok := tables[ctx][tk]; ok {
			a, b := prev.ActionID, actionID
			if a > b {
				a, b = b, a
			}
			return fmt.Errorf("key %q bound to both %s and %s in the %s context", keyStr, a, b, ctx)
		}
		tables[ctx][tk] = Binding{
			ActionID: actionID,
			Args:     actionArgs(actionID),
		}
	}

	d.mu.Lock()
	d.tables = tables
	d.mu.Unlock()
	return nil
}

// actionArgs extracts implicit arguments encoded in an action id, like the
// target index of "session.jump.3".
func actionArgs(actionID string) map[string]string {
	if idx, ok := strings.CutPrefix(actionID, "session.jump."); ok {
		if _, err := strconv.Atoi(idx); err == nil {
			return map[string]string{"index": idx}
		}
	}
	return nil
}

// Register adds an action handler, with an optional availability predicate
// for menu exposure (nil means always available).
func (d *Dispatcher) Register(actionID string, h Handler, available func(State) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[actionID] = h
	if available != nil {
		d.available[actionID] = available
	}
}

// Resolve looks a key event up context by context, most specific first.
func (d *Dispatcher) Resolve(ev KeyEvent, contexts []Context) (Resolution, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tk := ev.tableKey()
	for _, ctx := range contexts {
		if b, ok := d.tables[ctx][tk]; ok {
			return Resolution{ActionID: b.ActionID, Args: b.Args, Context: ctx}, true
		}
	}
	return Resolution{}, false
}

// Execute dispatches a resolution to its handler. Returns whether the
// action reported handling the invocation.
func (d *Dispatcher) Execute(res Resolution) bool {
	d.mu.RLock()
	h := d.handlers[res.ActionID]
	d.mu.RUnlock()

	if h == nil {
		return false
	}
	return h(res.Args)
}

// HandleKey resolves and executes a key event against the given state.
// When a higher-priority context's handler declines, resolution continues
// into lower-priority contexts. Returns whether anything fired, which is
// what decides whether the host suppresses default key behavior.
func (d *Dispatcher) HandleKey(ev KeyEvent, st State) bool {
	contexts := ActiveContexts(st)

	for len(contexts) > 0 {
		res, ok := d.Resolve(ev, contexts)
		if !ok {
			return false
		}
		if d.Execute(res) {
			return true
		}
		// Skip past the declining context and keep trying.
		for i, ctx := range contexts {
			if ctx == res.Context {
				contexts = contexts[i+1:]
				break
			}
		}
	}
	return false
}

// Invoke runs a menu/palette action by id, bypassing key resolution.
func (d *Dispatcher) Invoke(actionID string, args map[string]string) bool {
	return d.Execute(Resolution{ActionID: actionID, Args: args, Context: ContextGlobal})
}

// SetMenuSink attaches the host window's menu.
func (d *Dispatcher) SetMenuSink(sink MenuSink) {
	d.mu.Lock()
	d.menu = sink
	d.mu.Unlock()
}

// PushAvailability recomputes per-action availability from state and
// pushes it to the menu sink.
func (d *Dispatcher) PushAvailability(st State) {
	d.mu.RLock()
	sink := d.menu
	items := make([]MenuItem, 0, len(d.handlers))
	for id := range d.handlers {
		enabled := true
		if pred, ok := d.available[id]; ok {
			enabled = pred(st)
		}
		items = append(items, MenuItem{ActionID: id, Enabled: enabled})
	}
	d.mu.RUnlock()

	if sink != nil {
		sink.SetActionAvailability(items)
	}
}
