package terminal

import (
	"io"
	"sync"
	"sync/atomic"
)

// Console serializes writes from every terminal onto one display.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	return &Console{w: w}
}

func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

// Modifiers is modifier key state shared by all terminals of a pool.
type Modifiers struct {
	shift atomic.Bool
}

func (m *Modifiers) Shift() bool {
	return m.shift.Load()
}

func (m *Modifiers) SetShift(down bool) {
	m.shift.Store(down)
}
