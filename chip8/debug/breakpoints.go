package debug

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Breakpoint is the handle of a registered breakpoint. It can be read from
// any goroutine.
type Breakpoint struct {
	address  uint16
	hitCount atomic.Int64
	active   atomic.Bool

	mu        sync.Mutex
	listeners []func(*Breakpoint)
}

func (b *Breakpoint) Address() uint16 {
	return b.address
}

// HitCount returns how many times the breakpoint paused execution.
func (b *Breakpoint) HitCount() int {
	return int(b.hitCount.Load())
}

// IsActive reports whether execution is currently held at the breakpoint.
func (b *Breakpoint) IsActive() bool {
	return b.active.Load()
}

// OnHit registers fn to be called every time the breakpoint pauses execution.
func (b *Breakpoint) OnHit(fn func(*Breakpoint)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// NotifyHit calls the registered listeners. The VM calls it outside its own
// lock so listeners may call back into the VM.
func (b *Breakpoint) NotifyHit() {
	b.mu.Lock()
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(b)
	}
}

// Breakpoints is the table of breakpoints keyed by address. It is not safe
// for concurrent use.
type Breakpoints struct {
	entries map[uint16]*Breakpoint
}

func NewBreakpoints() *Breakpoints {
	return &Breakpoints{entries: make(map[uint16]*Breakpoint)}
}

// Add registers a breakpoint at address. The address must be even and inside
// [start, start+size), duplicates are rejected.
func (b *Breakpoints) Add(address, start uint16, size int) (*Breakpoint, bool) {
	if address%2 != 0 || address < start || int(address) >= int(start)+size {
		return nil, false
	}
	if _, exists := b.entries[address]; exists {
		return nil, false
	}

	bp := &Breakpoint{address: address}
	b.entries[address] = bp
	return bp, true
}

// Remove unregisters the breakpoint at address and returns its handle.
func (b *Breakpoints) Remove(address uint16) (*Breakpoint, bool) {
	bp, ok := b.entries[address]
	if !ok {
		return nil, false
	}
	delete(b.entries, address)
	return bp, true
}

func (b *Breakpoints) Get(address uint16) (*Breakpoint, bool) {
	bp, ok := b.entries[address]
	return bp, ok
}

// Addresses returns the registered addresses in ascending order.
func (b *Breakpoints) Addresses() []uint16 {
	out := make([]uint16, 0, len(b.entries))
	for addr := range b.entries {
		out = append(out, addr)
	}
	slices.Sort(out)
	return out
}

func (b *Breakpoints) Len() int {
	return len(b.entries)
}

// Check runs the visit toggle for an instruction fetch at pc. The first visit
// arms the breakpoint and returns it with halt set, the instruction must not
// execute. The following visit disarms it and lets execution continue, so a
// breakpoint pauses on alternating visits.
func (b *Breakpoints) Check(pc uint16) (bp *Breakpoint, halt bool) {
	bp, ok := b.entries[pc]
	if !ok {
		return nil, false
	}

	if bp.active.Load() {
		bp.active.Store(false)
		return nil, false
	}

	bp.active.Store(true)
	bp.hitCount.Add(1)
	return bp, true
}

// Disarm clears the active flag of every breakpoint, keeping hit counts.
func (b *Breakpoints) Disarm() {
	for _, bp := range b.entries {
		bp.active.Store(false)
	}
}
