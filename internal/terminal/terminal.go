// Package terminal implements virtual terminals with a canonical line
// discipline fed by keyboard scancodes and drained by blocking readers.
package terminal

import (
	"context"
	"sync"

	"github.com/AnishMulay/devcore/internal/keyboard"
	"github.com/AnishMulay/devcore/internal/log_service"
)

type Terminal struct {
	id int

	// mu stands in for the interrupt-disable section around buffer updates.
	// SendInput and ReadInput both hold it while touching the buffers.
	mu           sync.Mutex
	active       bool
	canonical    bool
	input        *Ring[byte]
	canonicalBuf *Ring[byte]
	backlog      *Ring[byte]
	queue        WaitQueue
	out          [1]byte

	console *Console
	layout  keyboard.Layout
	mods    *Modifiers
	ls      log_service.LogService
}

func newTerminal(id int, bufferSize int, console *Console, layout keyboard.Layout, mods *Modifiers, ls log_service.LogService) *Terminal {
	return &Terminal{
		id:           id,
		canonical:    true,
		input:        NewRing[byte](bufferSize),
		canonicalBuf: NewRing[byte](bufferSize),
		backlog:      NewRing[byte](bufferSize * 16),
		console:      console,
		layout:       layout,
		mods:         mods,
		ls:           ls,
	}
}

func (t *Terminal) ID() int {
	return t.id
}

func (t *Terminal) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Terminal) IsCanonical() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canonical
}

// SetCanonical switches between line-buffered and raw input.
func (t *Terminal) SetCanonical(canonical bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.canonical = canonical
	if t.queue.HasWaiters() {
		t.queue.WakeUp()
	}
}

// Buffered reports the number of characters in the raw and canonical buffers.
func (t *Terminal) Buffered() (raw int, canonical int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input.Len(), t.canonicalBuf.Len()
}

func (t *Terminal) setActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = active
	if !active || t.backlog.Empty() {
		return
	}

	pending := make([]byte, 0, t.backlog.Len())
	for {
		c, ok := t.backlog.PopFront()
		if !ok {
			break
		}
		pending = append(pending, c)
	}
	_, _ = t.console.Write(pending)
}

// printLocked echoes one character. Output of a background terminal is held
// until it becomes active.
func (t *Terminal) printLocked(c byte) {
	if !t.active {
		t.backlog.PushBack(c)
		return
	}
	t.out[0] = c
	_, _ = t.console.Write(t.out[:])
}

func (t *Terminal) Print(c byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printLocked(c)
}

// Write sends output to the terminal's display.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		return t.console.Write(p)
	}
	for _, c := range p {
		t.backlog.PushBack(c)
	}
	return len(p), nil
}

// SendInput feeds one scancode to the terminal. It is called from the
// keyboard path and never blocks on a reader.
func (t *Terminal) SendInput(code byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if keyboard.IsRelease(code) {
		if keyboard.IsShift(code &^ keyboard.ReleaseBit) {
			t.mods.SetShift(false)
		}
		return
	}

	if keyboard.IsShift(code) {
		t.mods.SetShift(true)
		return
	}

	if code == keyboard.KeyBackspace && t.canonical {
		t.eraseLocked()
		return
	}

	var c byte
	var ok bool
	if t.mods.Shift() {
		c, ok = t.layout.ShiftKeyToASCII(code)
	} else {
		c, ok = t.layout.KeyToASCII(code)
	}
	if !ok {
		return
	}

	if !t.input.PushBack(c) {
		t.ls.Warn(log_service.LogEvent{
			Message:  "terminal: Input buffer full, dropping key",
			Metadata: map[string]any{"terminal": t.id, "scancode": code},
		})
		return
	}

	t.printLocked(c)

	if t.queue.HasWaiters() {
		t.queue.WakeUp()
	}
}

// eraseLocked retracts the most recently typed character, wherever it
// currently sits. A completed line is never erased.
func (t *Terminal) eraseLocked() {
	buf := t.input
	if buf.Empty() {
		buf = t.canonicalBuf
	}

	last, ok := buf.Back()
	if !ok || last == '\n' {
		return
	}

	buf.PopBack()
	t.printLocked('\b')
}

// ReadInput blocks until input is available and copies it into buf. In
// canonical mode it returns a whole line, or len(buf) characters when the
// line is longer than buf. In raw mode it returns as soon as any character
// is available. If ctx is cancelled the characters collected so far stay
// buffered for the next read.
func (t *Terminal) ReadInput(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		var n int
		var done bool
		if t.canonical {
			n, done = t.drainCanonicalLocked(buf)
		} else {
			n, done = t.drainRawLocked(buf)
		}
		if done {
			return n, nil
		}

		w := t.queue.Prepare()
		t.mu.Unlock()
		err := t.queue.Wait(ctx, w)
		t.mu.Lock()

		if err != nil {
			return 0, err
		}
	}
}

// Read implements io.Reader.
func (t *Terminal) Read(p []byte) (int, error) {
	return t.ReadInput(context.Background(), p)
}

func (t *Terminal) drainCanonicalLocked(buf []byte) (int, bool) {
	limit := min(len(buf), t.canonicalBuf.Cap())

	newline := false
	for t.canonicalBuf.Len() < limit {
		c, ok := t.input.PopFront()
		if !ok {
			break
		}
		t.canonicalBuf.PushBack(c)
		if c == '\n' {
			newline = true
			break
		}
	}

	if t.canonicalBuf.Empty() || !(newline || t.canonicalBuf.Len() >= limit) {
		return 0, false
	}

	n := 0
	for n < len(buf) {
		c, ok := t.canonicalBuf.PopFront()
		if !ok {
			break
		}
		buf[n] = c
		n++
	}
	return n, true
}

func (t *Terminal) drainRawLocked(buf []byte) (int, bool) {
	n := 0
	for n < len(buf) {
		c, ok := t.canonicalBuf.PopFront()
		if !ok {
			c, ok = t.input.PopFront()
		}
		if !ok {
			break
		}
		buf[n] = c
		n++
	}
	return n, n > 0
}
