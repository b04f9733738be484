// Package host provides the process-host contract and its PTY-backed
// implementation: spawning shells, commands and tasks, writing keystrokes,
// resizing, and the output/ready/exited event stream.
package host

import "context"

// ChannelID identifies one live PTY-backed process instance.
type ChannelID string

// EventType classifies channel lifecycle events.
type EventType int

const (
	// EventOutput carries process output bytes.
	EventOutput EventType = iota
	// EventReady signals the process started and the PTY is allocated.
	EventReady
	// EventExited signals the process ended, carrying its exit code.
	EventExited
)

func (t EventType) String() string {
	switch t {
	case EventOutput:
		return "output"
	case EventReady:
		return "ready"
	case EventExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Event is one channel lifecycle event. Events for a given channel are
// delivered in emission order; no ordering holds across channels.
type Event struct {
	Type     EventType
	Channel  ChannelID
	Data     []byte
	ExitCode int
}

// Listener receives every host event. Listeners must not block.
type Listener func(Event)

// Host is the process host consumed by the channel adapter.
type Host interface {
	// SpawnShell starts an interactive shell in dir (session path when
	// dir is empty is the caller's concern).
	SpawnShell(ctx context.Context, sessionID, dir string) (ChannelID, error)
	// SpawnCommand starts an explicit command via the shell in dir.
	SpawnCommand(ctx context.Context, sessionID, dir, command string) (ChannelID, error)
	// SpawnTask starts a named task's command. The task name is carried
	// for logging only; lifecycle tracking is the task tracker's job.
	SpawnTask(ctx context.Context, sessionID, taskName, dir, command string) (ChannelID, error)

	Write(id ChannelID, data []byte) error
	Resize(id ChannelID, cols, rows int) error

	// RequestStop delivers a termination signal. Advisory: the process
	// may ignore or delay it.
	RequestStop(id ChannelID) error
	// ForceKill delivers an unignorable kill. Killing an unknown channel
	// is a no-op.
	ForceKill(id ChannelID) error

	// Subscribe registers a listener for all channel events. The
	// returned function unsubscribes it.
	Subscribe(l Listener) (unsubscribe func())
}
