package terminal

import (
	"fmt"
	"io"
	"sync"

	"github.com/AnishMulay/devcore/internal/keyboard"
	"github.com/AnishMulay/devcore/internal/log_service"
)

const (
	MaxTerminals      = 2
	DefaultBufferSize = 256
)

type Options struct {
	Count      int
	BufferSize int
	Console    io.Writer
	Layout     keyboard.Layout
}

// Pool is the fixed set of virtual terminals. Exactly one is active and
// receives keyboard input.
type Pool struct {
	mu        sync.Mutex
	terminals []*Terminal
	active    int
	mods      Modifiers
	ls        log_service.LogService
}

func NewPool(opts Options, ls log_service.LogService) *Pool {
	if opts.Count <= 0 {
		opts.Count = MaxTerminals
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Layout == nil {
		opts.Layout = keyboard.US
	}
	console := NewConsole(opts.Console)

	p := &Pool{
		terminals: make([]*Terminal, opts.Count),
		ls:        ls,
	}
	for i := range p.terminals {
		p.terminals[i] = newTerminal(i, opts.BufferSize, console, opts.Layout, &p.mods, ls)
	}
	p.terminals[0].setActive(true)

	ls.Info(log_service.LogEvent{
		Message:  "terminal: Initialized terminals",
		Metadata: map[string]any{"count": opts.Count, "bufferSize": opts.BufferSize},
	})

	return p
}

func (p *Pool) Len() int {
	return len(p.terminals)
}

func (p *Pool) Terminals() []*Terminal {
	out := make([]*Terminal, len(p.terminals))
	copy(out, p.terminals)
	return out
}

func (p *Pool) Modifiers() *Modifiers {
	return &p.mods
}

func (p *Pool) Active() *Terminal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminals[p.active]
}

// Get returns terminal id. Terminal ids are internal handles, so an id out of
// range is a programming error and panics.
func (p *Pool) Get(id int) *Terminal {
	if id < 0 || id >= len(p.terminals) {
		panic(fmt.Sprintf("terminal: out of bound tty %d (have %d)", id, len(p.terminals)))
	}
	return p.terminals[id]
}

// SetActive moves the foreground to terminal id and flushes the output it
// produced while in the background.
func (p *Pool) SetActive(id int) {
	next := p.Get(id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == id {
		return
	}
	p.terminals[p.active].setActive(false)
	next.setActive(true)

	p.ls.Info(log_service.LogEvent{
		Message:  "terminal: Switched active terminal",
		Metadata: map[string]any{"from": p.active, "to": id},
	})
	p.active = id
}

// SendInput delivers a scancode to the active terminal.
func (p *Pool) SendInput(code byte) {
	p.Active().SendInput(code)
}
