package channel

import (
	"strings"
	"sync"

	"github.com/vito/midterm"
)

// Terminal wraps midterm.Terminal with a mutex for thread-safe access.
// All reads and writes to the emulator must go through this wrapper. The
// buffer lives as long as the channel, so scrollback survives the session
// being hidden or reordered out of view.
type Terminal struct {
	*midterm.Terminal
	mu sync.Mutex
}

// NewTerminal creates a thread-safe terminal with the given dimensions.
func NewTerminal(rows, cols int) *Terminal {
	return &Terminal{
		Terminal: midterm.NewTerminal(rows, cols),
	}
}

// Write writes output data to the terminal buffer. Thread-safe.
func (t *Terminal) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Terminal.Write(data)
}

// Resize changes the terminal dimensions. Thread-safe.
func (t *Terminal) Resize(rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Terminal.Resize(rows, cols)
}

// Render writes the terminal content to a strings.Builder. Thread-safe.
func (t *Terminal) Render(w *strings.Builder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Height <= 0 || t.Width <= 0 {
		return nil
	}
	return t.Terminal.Render(w)
}

// Cursor returns the current cursor position. Thread-safe.
func (t *Terminal) Cursor() (x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Terminal.Cursor.X, t.Terminal.Cursor.Y
}

// Dimensions returns the terminal size. Thread-safe.
func (t *Terminal) Dimensions() (rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Height, t.Width
}

// CursorVisible returns whether the cursor should be visible. Thread-safe.
func (t *Terminal) CursorVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Terminal.CursorVisible
}
