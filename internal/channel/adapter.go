// Package channel correlates asynchronous process-host events with UI
// state. Spawning is inherently racy: the host returns a channel id from
// the spawn call, but output and readiness events keyed by that id can
// arrive before the call resolves. The adapter registers its listener
// before any spawn, buffers events for identifiers no channel has claimed
// yet, and replays them in arrival order once the spawn resolves.
package channel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/deskmux/deskmux/internal/host"
)

// maxBufferedEvents bounds the per-identifier buffer for unclaimed ids so
// a spawn that never resolves cannot grow memory without bound.
const maxBufferedEvents = 1024

// maxPendingIDs bounds how many unclaimed identifiers hold buffers at
// once. Spawn responses resolve within a handful of events, so an id still
// unclaimed after this many newer ids is superseded and its buffer is
// dropped.
const maxPendingIDs = 64

// SpawnKind selects the spawn path.
type SpawnKind int

const (
	SpawnShell SpawnKind = iota
	SpawnCommand
	SpawnTask
)

// SpawnRequest describes one channel to open.
type SpawnRequest struct {
	Kind      SpawnKind
	SessionID string
	Dir       string
	// Command is required for SpawnCommand and SpawnTask.
	Command string
	// TaskName is set for SpawnTask.
	TaskName string
	Rows     int
	Cols     int

	// OnReady fires when the process reports readiness (possibly during
	// replay, if readiness raced the spawn response).
	OnReady func(id host.ChannelID)
	// OnExit fires when the process exits. Fires at most once.
	OnExit func(id host.ChannelID, exitCode int)
}

// Adapter owns every live channel and the unclaimed-event buffers.
type Adapter struct {
	host host.Host
	log  *slog.Logger

	mu sync.Mutex
	// channels maps claimed ids to their channel (the "direct" state).
	channels map[host.ChannelID]*Channel
	// pending buffers events for ids no spawn has claimed yet;
	// pendingOrder tracks their arrival order for eviction.
	pending      map[host.ChannelID][]host.Event
	pendingOrder []host.ChannelID
	// removed marks killed channels whose final exit event is still in
	// flight; events for these ids are dropped, and the mark is cleared
	// by the exit event itself.
	removed map[host.ChannelID]bool

	unsubscribe func()
}

// NewAdapter creates an adapter and subscribes it to the host's event
// stream. The subscription exists before any spawn is issued; that is what
// makes the buffering protocol race-free.
func NewAdapter(h host.Host, log *slog.Logger) *Adapter {
	a := &Adapter{
		host:     h,
		log:      log,
		channels: make(map[host.ChannelID]*Channel),
		pending:  make(map[host.ChannelID][]host.Event),
		removed:  make(map[host.ChannelID]bool),
	}
	a.unsubscribe = h.Subscribe(a.onEvent)
	return a
}

// Spawn opens a channel: issue the spawn, claim any events that arrived
// for the returned id while the call was in flight, replay them in order,
// then switch the id to direct delivery.
func (a *Adapter) Spawn(ctx context.Context, req SpawnRequest) (*Channel, error) {
	var (
		id  host.ChannelID
		err error
	)
	switch req.Kind {
	case SpawnCommand:
		id, err = a.host.SpawnCommand(ctx, req.SessionID, req.Dir, req.Command)
	case SpawnTask:
		id, err = a.host.SpawnTask(ctx, req.SessionID, req.TaskName, req.Dir, req.Command)
	default:
		id, err = a.host.SpawnShell(ctx, req.SessionID, req.Dir)
	}
	if err != nil {
		return nil, err
	}

	rows, cols := req.Rows, req.Cols
	if rows < 1 {
		rows = 24
	}
	if cols < 1 {
		cols = 80
	}

	ch := &Channel{
		ID:        id,
		SessionID: req.SessionID,
		TaskName:  req.TaskName,
		adapter:   a,
		term:      NewTerminal(rows, cols),
		onReady:   req.OnReady,
		onExit:    req.OnExit,
	}

	a.mu.Lock()
	buffered := a.pending[id]
	a.dropPendingLocked(id)
	a.channels[id] = ch
	a.mu.Unlock()

	a.log.Debug("channel spawned", "channel", string(id), "session", req.SessionID, "buffered", len(buffered))

	for _, ev := range buffered {
		ch.apply(ev)
	}

	return ch, nil
}

// onEvent routes one host event: direct to a claimed channel, buffered for
// an unclaimed id, or dropped for a removed one.
func (a *Adapter) onEvent(ev host.Event) {
	a.mu.Lock()
	if ch, ok := a.channels[ev.Channel]; ok {
		if ev.Type == host.EventExited {
			delete(a.channels, ev.Channel)
		}
		a.mu.Unlock()
		ch.apply(ev)
		return
	}

	if a.removed[ev.Channel] {
		// Late event for a killed channel; the exit event retires the
		// tombstone.
		if ev.Type == host.EventExited {
			delete(a.removed, ev.Channel)
		}
		a.mu.Unlock()
		return
	}

	// Unclaimed id: a spawn response may still be in flight.
	if _, ok := a.pending[ev.Channel]; !ok {
		a.pendingOrder = append(a.pendingOrder, ev.Channel)
		if len(a.pendingOrder) > maxPendingIDs {
			oldest := a.pendingOrder[0]
			a.dropPendingLocked(oldest)
			a.log.Debug("evicting stale pending buffer", "channel", string(oldest))
		}
	}
	if len(a.pending[ev.Channel]) < maxBufferedEvents {
		a.pending[ev.Channel] = append(a.pending[ev.Channel], ev)
	}
	a.mu.Unlock()
}

// dropPendingLocked removes an id's buffer and its eviction-order entry.
func (a *Adapter) dropPendingLocked(id host.ChannelID) {
	delete(a.pending, id)
	for i, pid := range a.pendingOrder {
		if pid == id {
			a.pendingOrder = append(a.pendingOrder[:i], a.pendingOrder[i+1:]...)
			break
		}
	}
}

// Kill tears down a channel. This is the only path that disposes its
// callbacks; unmounting a view must never reach here. Idempotent.
func (a *Adapter) Kill(id host.ChannelID) {
	a.mu.Lock()
	ch, ok := a.channels[id]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.channels, id)
	a.removed[id] = true
	a.mu.Unlock()

	ch.dispose()
	a.host.ForceKill(id)
}

// Get returns the channel for a claimed id.
func (a *Adapter) Get(id host.ChannelID) (*Channel, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[id]
	return ch, ok
}

// RequestStop forwards an advisory stop to the host.
func (a *Adapter) RequestStop(id host.ChannelID) error {
	return a.host.RequestStop(id)
}

// Close unsubscribes from the host and kills every remaining channel.
func (a *Adapter) Close() {
	a.unsubscribe()

	a.mu.Lock()
	ids := make([]host.ChannelID, 0, len(a.channels))
	for id := range a.channels {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	for _, id := range ids {
		a.Kill(id)
	}
}
