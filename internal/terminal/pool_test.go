package terminal

import (
	"strings"
	"testing"

	"github.com/AnishMulay/devcore/internal/keyboard"
)

func TestPool_Init(t *testing.T) {
	pool, _, _ := newTestPool(t, DefaultBufferSize)

	if pool.Len() != MaxTerminals {
		t.Fatalf("Len() = %d, want %d", pool.Len(), MaxTerminals)
	}
	for i, term := range pool.Terminals() {
		if term.ID() != i {
			t.Errorf("terminal %d has id %d", i, term.ID())
		}
		if !term.IsCanonical() {
			t.Errorf("terminal %d is not canonical", i)
		}
		if term.IsActive() != (i == 0) {
			t.Errorf("terminal %d active = %v", i, term.IsActive())
		}
	}
	if pool.Active().ID() != 0 {
		t.Errorf("Active() = %d, want 0", pool.Active().ID())
	}
}

func TestPool_GetOutOfBoundsPanics(t *testing.T) {
	pool, _, _ := newTestPool(t, DefaultBufferSize)

	tests := []struct {
		name      string
		id        int
		wantPanic bool
	}{
		{name: "first terminal", id: 0},
		{name: "last terminal", id: MaxTerminals - 1},
		{name: "pool size", id: MaxTerminals, wantPanic: true},
		{name: "far out of range", id: 1000, wantPanic: true},
		{name: "negative", id: -1, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Fatalf("Get(%d) panic = %v, wantPanic %v", tt.id, r, tt.wantPanic)
				}
				if r != nil && !strings.Contains(r.(string), "out of bound tty") {
					t.Errorf("panic message = %v", r)
				}
			}()

			term := pool.Get(tt.id)
			if term == nil || term.ID() != tt.id {
				t.Errorf("Get(%d) returned %v", tt.id, term)
			}
		})
	}
}

func TestPool_SendInputTargetsActiveTerminal(t *testing.T) {
	pool, out, _ := newTestPool(t, DefaultBufferSize)

	codes, _ := keyboard.Encode("a")
	for _, c := range codes {
		pool.SendInput(c)
	}

	pool.SetActive(1)
	codes, _ = keyboard.Encode("b\n")
	for _, c := range codes {
		pool.SendInput(c)
	}

	if raw, _ := pool.Get(0).Buffered(); raw != 1 {
		t.Errorf("terminal 0 raw buffered = %d, want 1", raw)
	}
	if got := readWithTimeout(t, pool.Get(1), 8); got != "b\n" {
		t.Errorf("terminal 1 ReadInput() = %q, want \"b\\n\"", got)
	}
	if out.String() != "ab\n" {
		t.Errorf("console = %q, want \"ab\\n\"", out.String())
	}
}

func TestPool_ShiftIsSharedAcrossTerminals(t *testing.T) {
	pool, _, _ := newTestPool(t, DefaultBufferSize)

	pool.SendInput(keyboard.KeyLeftShift)
	pool.SetActive(1)
	pool.SendInput(0x1E) // 'a' key while shift is still down
	pool.SendInput(keyboard.KeyLeftShift | keyboard.ReleaseBit)
	pool.SendInput(0x1E)
	pool.SendInput(keyboard.KeyEnter)

	if got := readWithTimeout(t, pool.Get(1), 8); got != "Aa\n" {
		t.Errorf("ReadInput() = %q, want \"Aa\\n\"", got)
	}
	if pool.Modifiers().Shift() {
		t.Errorf("shift still down after release")
	}
}

func TestPool_BackgroundOutputIsFlushedOnSwitch(t *testing.T) {
	pool, out, _ := newTestPool(t, DefaultBufferSize)

	if _, err := pool.Get(1).Write([]byte("background\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if out.String() != "" {
		t.Fatalf("inactive terminal wrote to the console: %q", out.String())
	}

	pool.SetActive(1)
	if out.String() != "background\n" {
		t.Errorf("console after switch = %q", out.String())
	}

	pool.Get(0).Print('x')
	pool.SetActive(0)
	if out.String() != "background\nx" {
		t.Errorf("console after switching back = %q", out.String())
	}
}
