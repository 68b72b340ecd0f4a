package chip8

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/valerio/go-chip8/chip8/cpu"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/events"
	"github.com/valerio/go-chip8/chip8/memory"
	"github.com/valerio/go-chip8/chip8/timing"
	"github.com/valerio/go-chip8/chip8/video"
)

var (
	ErrNoProgram       = errors.New("no program loaded")
	ErrNotPaused       = errors.New("scheduler is not paused")
	ErrAlreadyStarted  = errors.New("scheduler already started")
	ErrRunning         = errors.New("scheduler is running")
	ErrProgramTooLarge = errors.New("program too large")
)

// debugWindow is how many bytes around PC DebugData includes.
const debugWindow = 64

// VM is a CHIP-8 virtual machine with its scheduler. All methods are safe
// for concurrent use. Observers are notified after the internal lock is
// released, so they may call back into the VM.
type VM struct {
	mu sync.Mutex

	mem         *memory.Memory
	surface     *video.Surface
	keypad      *memory.Keypad
	cpu         *cpu.CPU
	breakpoints *debug.Breakpoints

	ticker      timing.Ticker
	bus         *events.Bus
	startPaused bool

	state                debug.State
	started              bool
	lastTick             time.Time
	instructionsPerFrame int
	instructionsLeft     int
	beep                 bool
	program              []byte

	// collected while locked, delivered by unlock
	pending []events.Event
	hits    []*debug.Breakpoint
}

// New creates a VM paced by a time.Ticker at cfg.TickInterval.
func New(cfg Config) (*VM, error) {
	return NewWithTicker(cfg, timing.NewFrameTicker(cfg.TickInterval))
}

// NewWithTicker creates a VM paced by ticker. The ticker must be stopped.
func NewWithTicker(cfg Config, ticker timing.Ticker) (*VM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var random cpu.Random
	if cfg.Seed != 0 {
		random = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}

	v := &VM{
		mem:                  memory.New(),
		surface:              video.NewSurface(),
		keypad:               memory.NewKeypad(),
		breakpoints:          debug.NewBreakpoints(),
		ticker:               ticker,
		bus:                  events.NewBus(),
		startPaused:          cfg.StartPaused,
		state:                debug.Stopped,
		instructionsPerFrame: cfg.InstructionsPerFrame,
		instructionsLeft:     cfg.InstructionsPerFrame,
	}
	v.cpu = cpu.New(v.mem, v.surface, v.keypad, random)

	return v, nil
}

// Subscribe registers o for VM notifications.
func (v *VM) Subscribe(o events.Observer) (unsubscribe func()) {
	return v.bus.Subscribe(o)
}

// unlock releases the lock and then delivers everything collected while it
// was held.
func (v *VM) unlock() {
	evs, hits := v.pending, v.hits
	v.pending, v.hits = nil, nil
	v.mu.Unlock()

	v.bus.Publish(evs...)
	for _, bp := range hits {
		bp.NotifyHit()
	}
}

func (v *VM) emit(e events.Event) {
	v.pending = append(v.pending, e)
}

// message reports a diagnostic to observers and the log.
func (v *VM) message(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	slog.Warn("VM message", "text", text)
	v.emit(events.Event{Type: events.Message, Text: text})
}

func (v *VM) setState(s debug.State) {
	if v.state == s {
		return
	}
	slog.Debug("Scheduler state changed", "from", v.state, "to", s)
	v.state = s
	v.emit(events.Event{Type: events.StateChanged, State: s})
}

// UpdateKeyState records a key press or release.
func (v *VM) UpdateKeyState(key uint8, pressed bool) error {
	v.mu.Lock()
	defer v.unlock()

	if pressed {
		return v.keypad.Press(key)
	}
	return v.keypad.Release(key)
}

// AddBreakpoint registers a breakpoint at an even address inside the loaded
// program.
func (v *VM) AddBreakpoint(address uint16) (*debug.Breakpoint, bool) {
	v.mu.Lock()
	defer v.unlock()

	bp, ok := v.breakpoints.Add(address, memory.ProgramStart, len(v.program))
	if ok {
		slog.Debug("Breakpoint added", "address", fmt.Sprintf("0x%04X", address))
	}
	return bp, ok
}

func (v *VM) RemoveBreakpoint(address uint16) (*debug.Breakpoint, bool) {
	v.mu.Lock()
	defer v.unlock()

	return v.breakpoints.Remove(address)
}

// Breakpoints returns the registered breakpoint addresses in ascending order.
func (v *VM) Breakpoints() []uint16 {
	v.mu.Lock()
	defer v.unlock()

	return v.breakpoints.Addresses()
}

// GetOpcode returns the instruction word stored at address.
func (v *VM) GetOpcode(address uint16) (uint16, error) {
	v.mu.Lock()
	defer v.unlock()

	return v.mem.ReadWord(address)
}

// GetMnemonic disassembles an instruction word.
func (v *VM) GetMnemonic(opcode uint16) string {
	return cpu.Disassemble(opcode)
}

func (v *VM) State() debug.State {
	v.mu.Lock()
	defer v.unlock()
	return v.state
}

// Surface returns a copy of the display.
func (v *VM) Surface() *video.Surface {
	v.mu.Lock()
	defer v.unlock()
	return v.surface.Clone()
}

func (v *VM) Registers() [16]uint8 {
	v.mu.Lock()
	defer v.unlock()
	return v.cpu.Registers()
}

func (v *VM) IRegister() uint16 {
	v.mu.Lock()
	defer v.unlock()
	return v.cpu.I()
}

func (v *VM) ProgramCounter() uint16 {
	v.mu.Lock()
	defer v.unlock()
	return v.cpu.PC()
}

// Stack returns the call stack, bottom first.
func (v *VM) Stack() []uint16 {
	v.mu.Lock()
	defer v.unlock()
	return v.cpu.Stack()
}

func (v *VM) DelayTimer() uint8 {
	v.mu.Lock()
	defer v.unlock()
	return v.cpu.DelayTimer()
}

func (v *VM) SoundTimer() uint8 {
	v.mu.Lock()
	defer v.unlock()
	return v.cpu.SoundTimer()
}

// Memory returns a copy of the address space.
func (v *VM) Memory() []byte {
	v.mu.Lock()
	defer v.unlock()
	return v.mem.Snapshot()
}

// Beep reports whether the sound timer is active.
func (v *VM) Beep() bool {
	v.mu.Lock()
	defer v.unlock()
	return v.beep
}

// ProgramSize returns the byte count of the loaded program, 0 when none.
func (v *VM) ProgramSize() int {
	v.mu.Lock()
	defer v.unlock()
	return len(v.program)
}

func (v *VM) InstructionsPerFrame() int {
	v.mu.Lock()
	defer v.unlock()
	return v.instructionsPerFrame
}

// SetInstructionsPerFrame changes the execution speed. It takes effect from
// the next frame.
func (v *VM) SetInstructionsPerFrame(n int) error {
	if n <= 0 {
		return fmt.Errorf("instructions per frame must be positive, got %d", n)
	}

	v.mu.Lock()
	defer v.unlock()
	v.instructionsPerFrame = n
	if v.instructionsLeft > n {
		v.instructionsLeft = n
	}
	return nil
}

// DebugData captures the registers and a window of memory around PC.
func (v *VM) DebugData() *debug.Data {
	v.mu.Lock()
	defer v.unlock()

	pc := v.cpu.PC()
	start := int(pc) - debugWindow/2
	if start < 0 {
		start = 0
	}
	length := debugWindow
	if start+length > memory.Size {
		length = memory.Size - start
	}
	window, _ := v.mem.ReadRange(uint16(start), length)

	return &debug.Data{
		CPU: &debug.CPUState{
			V:          v.cpu.Registers(),
			I:          v.cpu.I(),
			PC:         pc,
			Stack:      v.cpu.Stack(),
			DelayTimer: v.cpu.DelayTimer(),
			SoundTimer: v.cpu.SoundTimer(),
			Keys:       v.keypad.Mask(),
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: uint16(start),
			Bytes:     window,
		},
		State:            v.state,
		Breakpoints:      v.breakpoints.Addresses(),
		InstructionsLeft: v.instructionsLeft,
		ProgramSize:      len(v.program),
		Beep:             v.beep,
	}
}
