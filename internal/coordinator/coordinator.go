// Package coordinator owns every core store and is the only place that
// mutates them. All state changes run behind one mutex in response to user
// input or backend events, so no mutation is ever concurrent with another;
// observers are notified after each change settles.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deskmux/deskmux/internal/channel"
	"github.com/deskmux/deskmux/internal/config"
	"github.com/deskmux/deskmux/internal/dispatch"
	"github.com/deskmux/deskmux/internal/host"
	"github.com/deskmux/deskmux/internal/nav"
	"github.com/deskmux/deskmux/internal/panels"
	"github.com/deskmux/deskmux/internal/persist"
	"github.com/deskmux/deskmux/internal/session"
	"github.com/deskmux/deskmux/internal/tabs"
	"github.com/deskmux/deskmux/internal/task"
	"github.com/deskmux/deskmux/internal/workspace"
)

// Coordinator wires the registry, tab stores, task tracker, panel state,
// history, and dispatcher together.
type Coordinator struct {
	cfg *config.Config
	log *slog.Logger

	backend  workspace.Backend
	host     host.Host
	adapter  *channel.Adapter
	registry *session.Registry

	mainTabs   *tabs.Store
	drawerTabs *tabs.Store
	tracker    *task.Tracker
	panels     *panels.State
	history    *nav.History
	dispatcher *dispatch.Dispatcher
	store      *persist.Store

	// mu serializes all mutating operations; the individual stores have
	// their own locks but cross-store invariants (pruning, side effects)
	// need one owner.
	mu sync.Mutex

	scratch []session.Scratch
	// diffBase holds, per diff tab id, the file content captured when the
	// tab was opened; diffs render against it.
	diffBase map[string]string
	// navigating suppresses history pushes while a back/forward target
	// is being applied.
	navigating bool
	// pickerOpen is read lock-free by DispatchState, which runs inside
	// notification fan-out.
	pickerOpen atomic.Bool
	quit       chan struct{}
	closeOnce  sync.Once

	unsubscribeHost func()

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSubID   int

	noticeFn func(string)
}

// New builds a coordinator over the given collaborators.
func New(cfg *config.Config, h host.Host, backend workspace.Backend, log *slog.Logger) (*Coordinator, error) {
	c := &Coordinator{
		cfg:         cfg,
		log:         log,
		backend:     backend,
		host:        h,
		adapter:     channel.NewAdapter(h, log),
		registry:    session.NewRegistry(),
		mainTabs:    tabs.NewStore(tabs.PaneMain),
		drawerTabs:  tabs.NewStore(tabs.PaneDrawer),
		tracker:     task.NewTracker(log),
		panels:      panels.New(),
		history:     nav.New(),
		dispatcher:  dispatch.New(),
		store:       persist.NewStore(cfg.StateFile()),
		diffBase:    make(map[string]string),
		quit:        make(chan struct{}),
		subscribers: make(map[int]func()),
	}

	if err := c.store.Load(); err != nil {
		log.Warn("loading durable state", "err", err)
	}
	if err := c.dispatcher.SetKeymap(cfg.Keys); err != nil {
		return nil, err
	}
	c.registerActions()

	// One global exit listener resolves task lifecycles for every
	// session, including silent tasks nothing in the UI observes.
	c.unsubscribeHost = h.Subscribe(c.onHostEvent)

	return c, nil
}

// Run refreshes once, then follows backend change events until Close.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	// Shell tab labels track the command running inside them.
	labelTick := time.NewTicker(2 * time.Second)
	defer labelTick.Stop()

	events := c.backend.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.quit:
			return nil
		case <-labelTick.C:
			c.RefreshActiveLabel()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.log.Debug("backend event", "type", ev.Type, "project", ev.ProjectID, "worktree", ev.WorktreeID)
			if err := c.Refresh(ctx); err != nil {
				c.notice("refreshing workspace: " + err.Error())
			}
		}
	}
}

// Close tears down the host subscription and every live channel. Safe to
// call more than once (quit action plus deferred shutdown).
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		if c.unsubscribeHost != nil {
			c.unsubscribeHost()
		}
		c.adapter.Close()
	})
}

// onHostEvent handles process-exit events by channel identity. Exits for
// channels no task claims (plain terminals, already-pruned tasks) are a
// harmless no-op.
func (c *Coordinator) onHostEvent(ev host.Event) {
	if ev.Type != host.EventExited {
		return
	}
	if r, ok := c.tracker.OnExit(string(ev.Channel), ev.ExitCode); ok {
		c.log.Info("task stopped", "session", r.SessionID, "task", r.TaskName, "code", ev.ExitCode)
		c.notifyAll()
	}
}

// Subscribe registers a state-changed observer. Observers are invoked
// after each settled mutation; they should snapshot, not mutate.
func (c *Coordinator) Subscribe(fn func()) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subscribers, id)
	}
}

func (c *Coordinator) notifyAll() {
	c.subMu.Lock()
	fns := make([]func(), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
	c.dispatcher.PushAvailability(c.DispatchState())
}

// SetNoticeFunc installs the user-visible notification sink.
func (c *Coordinator) SetNoticeFunc(fn func(string)) {
	c.noticeFn = fn
}

func (c *Coordinator) notice(msg string) {
	c.log.Warn(msg)
	if c.noticeFn != nil {
		c.noticeFn(msg)
	}
}

// ReloadConfig re-reads task definitions and the keymap after a config
// change signal.
func (c *Coordinator) ReloadConfig() {
	cfg, err := config.Load()
	if err != nil {
		c.notice("reloading config: " + err.Error())
		return
	}
	c.mu.Lock()
	c.cfg.Tasks = cfg.Tasks
	c.cfg.Keys = cfg.Keys
	c.cfg.AppOpen = cfg.AppOpen
	c.mu.Unlock()

	if err := c.dispatcher.SetKeymap(cfg.Keys); err != nil {
		c.notice("reloading keymap: " + err.Error())
		return
	}
	c.notifyAll()
}

// Registry exposes the session registry for read-side consumers.
func (c *Coordinator) Registry() *session.Registry {
	return c.registry
}

// MainTabs exposes the main-pane tab store.
func (c *Coordinator) MainTabs() *tabs.Store {
	return c.mainTabs
}

// DrawerTabs exposes the drawer tab store.
func (c *Coordinator) DrawerTabs() *tabs.Store {
	return c.drawerTabs
}

// Tasks exposes the task tracker.
func (c *Coordinator) Tasks() *task.Tracker {
	return c.tracker
}

// Panels exposes focus/panel state.
func (c *Coordinator) Panels() *panels.State {
	return c.panels
}

// History exposes navigation history.
func (c *Coordinator) History() *nav.History {
	return c.history
}

// Durable exposes the persisted-state store.
func (c *Coordinator) Durable() *persist.Store {
	return c.store
}
