package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/google/uuid"
)

// PTYHost forks real processes on pseudo-terminals.
type PTYHost struct {
	defaultShell string
	log          *slog.Logger
	fan          *fanout

	mu       sync.Mutex
	channels map[ChannelID]*ptyChannel
}

// ptyChannel is one live process and its PTY.
type ptyChannel struct {
	id        ChannelID
	sessionID string
	cmd       *exec.Cmd
	pty       *os.File
	killOnce  sync.Once
}

// NewPTYHost creates a PTY process host.
func NewPTYHost(defaultShell string, log *slog.Logger) *PTYHost {
	return &PTYHost{
		defaultShell: defaultShell,
		log:          log,
		fan:          newFanout(),
		channels:     make(map[ChannelID]*ptyChannel),
	}
}

// Subscribe registers a listener for all channel events.
func (h *PTYHost) Subscribe(l Listener) func() {
	return h.fan.subscribe(l)
}

// SpawnShell starts an interactive shell in dir.
func (h *PTYHost) SpawnShell(ctx context.Context, sessionID, dir string) (ChannelID, error) {
	cmd := exec.Command(h.defaultShell)
	cmd.Dir = dir
	return h.start(sessionID, cmd)
}

// SpawnCommand starts an explicit command via the shell in dir.
func (h *PTYHost) SpawnCommand(ctx context.Context, sessionID, dir, command string) (ChannelID, error) {
	cmd := exec.Command(h.defaultShell, "-c", command)
	cmd.Dir = dir
	return h.start(sessionID, cmd)
}

// SpawnTask starts a named task's command in dir.
func (h *PTYHost) SpawnTask(ctx context.Context, sessionID, taskName, dir, command string) (ChannelID, error) {
	cmd := exec.Command(h.defaultShell, "-c", command)
	cmd.Dir = dir
	id, err := h.start(sessionID, cmd)
	if err != nil {
		return "", err
	}
	h.log.Debug("task spawned", "task", taskName, "channel", string(id))
	return id, nil
}

// start launches cmd on a fresh PTY and begins event emission.
func (h *PTYHost) start(sessionID string, cmd *exec.Cmd) (ChannelID, error) {
	// Own process group so stop/kill signals reach the whole pipeline,
	// not just the shell.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return "", fmt.Errorf("start pty: %w", err)
	}

	ch := &ptyChannel{
		id:        ChannelID(uuid.NewString()),
		sessionID: sessionID,
		cmd:       cmd,
		pty:       ptmx,
	}

	h.mu.Lock()
	h.channels[ch.id] = ch
	h.mu.Unlock()

	go h.run(ch)

	return ch.id, nil
}

// run emits ready, streams output, then emits the exit event. All events
// for the channel come from this one goroutine, which is what gives the
// per-channel FIFO guarantee.
func (h *PTYHost) run(ch *ptyChannel) {
	h.fan.emit(Event{Type: EventReady, Channel: ch.id})

	buf := make([]byte, 32*1024)
	for {
		n, err := ch.pty.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			h.fan.emit(Event{Type: EventOutput, Channel: ch.id, Data: data})
		}
		if err != nil {
			// EIO is the normal read error when the child exits.
			break
		}
	}

	ch.cmd.Wait()

	h.mu.Lock()
	delete(h.channels, ch.id)
	h.mu.Unlock()

	h.fan.emit(Event{Type: EventExited, Channel: ch.id, ExitCode: exitCode(ch.cmd)})
}

// exitCode extracts the conventional exit code, mapping signal deaths to
// 128+signal.
func exitCode(cmd *exec.Cmd) int {
	state := cmd.ProcessState
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// Write writes keystrokes to the channel's PTY.
func (h *PTYHost) Write(id ChannelID, data []byte) error {
	ch, ok := h.get(id)
	if !ok {
		return nil
	}
	_, err := ch.pty.Write(data)
	return err
}

// Resize resizes the channel's PTY.
func (h *PTYHost) Resize(id ChannelID, cols, rows int) error {
	ch, ok := h.get(id)
	if !ok {
		return nil
	}
	return pty.Setsize(ch.pty, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// RequestStop sends SIGTERM to the channel's process group. Advisory.
func (h *PTYHost) RequestStop(id ChannelID) error {
	ch, ok := h.get(id)
	if !ok {
		return nil
	}
	return syscall.Kill(-ch.cmd.Process.Pid, syscall.SIGTERM)
}

// ForceKill sends SIGKILL and closes the PTY. Idempotent; killing an
// unknown or already-dead channel is a no-op.
func (h *PTYHost) ForceKill(id ChannelID) error {
	ch, ok := h.get(id)
	if !ok {
		return nil
	}
	ch.killOnce.Do(func() {
		syscall.Kill(-ch.cmd.Process.Pid, syscall.SIGKILL)
		ch.pty.Close()
	})
	return nil
}

// PID returns the channel's process id, for inspection.
func (h *PTYHost) PID(id ChannelID) (int, bool) {
	ch, ok := h.get(id)
	if !ok || ch.cmd.Process == nil {
		return 0, false
	}
	return ch.cmd.Process.Pid, true
}

func (h *PTYHost) get(id ChannelID) (*ptyChannel, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[id]
	return ch, ok
}
