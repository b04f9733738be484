// Package task tracks named background processes per session.
package task

import (
	"log/slog"
	"sync"
)

// Status is the run state of a task instance.
type Status int

const (
	// StatusRunning means the process is (or is being) spawned and alive.
	StatusRunning Status = iota
	// StatusStopping means a stop was requested and the exit event has
	// not arrived yet. Stop is advisory; this state is externally
	// observable for as long as the process takes to die.
	StatusStopping
	// StatusStopped means the process has exited.
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// ForceKillExitCode is recorded when a stuck task is force-killed:
// 128+SIGKILL by convention.
const ForceKillExitCode = 137

// Running is one task instance bound to a session.
type Running struct {
	SessionID string
	TaskName  string
	// ChannelID is empty until the host reports readiness.
	ChannelID string
	Status    Status
	// ExitCode is set once stopped. Nil while running/stopping.
	ExitCode *int
}

type key struct {
	sessionID string
	taskName  string
}

// Tracker holds every session's task instances plus a direct index from
// channel id to instance, so exit events resolve in one lookup instead of
// scanning all sessions' task lists.
type Tracker struct {
	log *slog.Logger

	mu        sync.RWMutex
	tasks     map[key]*Running
	byChannel map[string]key
}

// NewTracker creates an empty tracker.
func NewTracker(log *slog.Logger) *Tracker {
	return &Tracker{
		log:       log,
		tasks:     make(map[key]*Running),
		byChannel: make(map[string]key),
	}
}

// Start records a new running instance. Returns false without touching
// anything when an instance is already running or stopping for this
// (session, task) pair: at most one non-stopped instance may exist, and
// the caller re-focuses the existing tab instead.
func (t *Tracker) Start(sessionID, taskName string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{sessionID, taskName}
	if existing, ok := t.tasks[k]; ok && existing.Status != StatusStopped {
		return false
	}

	// A stopped record is discarded wholesale; channel id and exit code
	// start over.
	t.tasks[k] = &Running{
		SessionID: sessionID,
		TaskName:  taskName,
		Status:    StatusRunning,
	}
	return true
}

// BindChannel attaches the host's channel id once readiness is reported.
func (t *Tracker) BindChannel(sessionID, taskName, channelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{sessionID, taskName}
	r, ok := t.tasks[k]
	if !ok || r.Status == StatusStopped {
		return
	}
	r.ChannelID = channelID
	t.byChannel[channelID] = k
}

// RequestStop transitions running to stopping. It does not mark the task
// stopped; only the exit event or a force-kill does that. Returns the
// channel id to signal, or "" when there is nothing to stop.
func (t *Tracker) RequestStop(sessionID, taskName string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.tasks[key{sessionID, taskName}]
	if !ok || r.Status != StatusRunning {
		return ""
	}
	r.Status = StatusStopping
	return r.ChannelID
}

// ForceKill synchronously marks a stopping task stopped with the fixed
// kill exit code. The kill is guaranteed effective, so there is no reason
// to wait for an exit event that may be delayed or lost. Only valid from
// stopping. Returns the channel id to kill, or "".
func (t *Tracker) ForceKill(sessionID, taskName string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.tasks[key{sessionID, taskName}]
	if !ok || r.Status != StatusStopping {
		return ""
	}

	code := ForceKillExitCode
	r.Status = StatusStopped
	r.ExitCode = &code

	ch := r.ChannelID
	delete(t.byChannel, ch)
	return ch
}

// OnExit resolves a process-exit event by channel id. Events for unknown
// channels (plain terminal tabs, already force-killed or pruned tasks)
// are a harmless no-op. Returns the resolved instance when one matched.
func (t *Tracker) OnExit(channelID string, exitCode int) (Running, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k, ok := t.byChannel[channelID]
	if !ok {
		return Running{}, false
	}
	delete(t.byChannel, channelID)

	r := t.tasks[k]
	if r == nil || r.Status == StatusStopped {
		return Running{}, false
	}
	r.Status = StatusStopped
	code := exitCode
	r.ExitCode = &code

	t.log.Debug("task exited", "session", k.sessionID, "task", k.taskName, "code", exitCode)
	return *r, true
}

// Discard drops one task's record entirely, regardless of state. Used
// when the bound tab is closed: kill is issued separately and a late exit
// event for the discarded channel becomes a no-op.
func (t *Tracker) Discard(sessionID, taskName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{sessionID, taskName}
	if r, ok := t.tasks[k]; ok {
		delete(t.byChannel, r.ChannelID)
		delete(t.tasks, k)
	}
}

// Get returns a copy of the instance for (session, task).
func (t *Tracker) Get(sessionID, taskName string) (Running, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.tasks[key{sessionID, taskName}]
	if !ok {
		return Running{}, false
	}
	return *r, true
}

// Tasks returns copies of all instances for a session.
func (t *Tracker) Tasks(sessionID string) []Running {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Running
	for k, r := range t.tasks {
		if k.sessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out
}

// Prune drops every record for a session and returns the channel ids of
// instances that were still alive, so the caller can kill them.
func (t *Tracker) Prune(sessionID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var alive []string
	for k, r := range t.tasks {
		if k.sessionID != sessionID {
			continue
		}
		if r.Status != StatusStopped && r.ChannelID != "" {
			alive = append(alive, r.ChannelID)
		}
		delete(t.byChannel, r.ChannelID)
		delete(t.tasks, k)
	}
	return alive
}

// Has reports whether the session has any task record.
func (t *Tracker) Has(sessionID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for k := range t.tasks {
		if k.sessionID == sessionID {
			return true
		}
	}
	return false
}
