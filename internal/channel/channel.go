package channel

import (
	"strings"
	"sync"

	"github.com/deskmux/deskmux/internal/host"
)

// Channel is one live PTY-backed process with its terminal buffer. The
// process's liveness is owned by session/tab lifecycle: views come and go,
// but the channel survives until Kill.
type Channel struct {
	ID        host.ChannelID
	SessionID string
	// TaskName is set when the channel backs a named task.
	TaskName string

	adapter *Adapter
	term    *Terminal

	mu       sync.Mutex
	ready    bool
	exited   bool
	exitCode int
	disposed bool
	onReady  func(id host.ChannelID)
	onExit   func(id host.ChannelID, exitCode int)
}

// apply feeds one host event into the channel. Called in per-channel
// emission order (replayed events first, then direct ones).
func (c *Channel) apply(ev host.Event) {
	switch ev.Type {
	case host.EventOutput:
		c.term.Write(ev.Data)
	case host.EventReady:
		c.mu.Lock()
		already := c.ready
		c.ready = true
		cb := c.onReady
		disposed := c.disposed
		c.mu.Unlock()
		if !already && !disposed && cb != nil {
			cb(c.ID)
		}
	case host.EventExited:
		c.mu.Lock()
		already := c.exited
		c.exited = true
		c.exitCode = ev.ExitCode
		cb := c.onExit
		disposed := c.disposed
		c.mu.Unlock()
		if !already && !disposed && cb != nil {
			cb(c.ID, ev.ExitCode)
		}
	}
}

// dispose detaches callbacks. Only Kill calls this.
func (c *Channel) dispose() {
	c.mu.Lock()
	c.disposed = true
	c.onReady = nil
	c.onExit = nil
	c.mu.Unlock()
}

// Write sends keystrokes to the process.
func (c *Channel) Write(data []byte) error {
	return c.adapter.host.Write(c.ID, data)
}

// Resize resizes both the terminal buffer and the PTY.
func (c *Channel) Resize(cols, rows int) error {
	c.term.Resize(rows, cols)
	return c.adapter.host.Resize(c.ID, cols, rows)
}

// Render writes the terminal content to w.
func (c *Channel) Render(w *strings.Builder) error {
	return c.term.Render(w)
}

// Terminal exposes the underlying terminal buffer.
func (c *Channel) Terminal() *Terminal {
	return c.term
}

// Ready reports whether the process has signaled readiness.
func (c *Channel) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Exited reports whether the process has ended, and its exit code.
func (c *Channel) Exited() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited, c.exitCode
}
