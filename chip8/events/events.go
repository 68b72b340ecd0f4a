package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/valerio/go-chip8/chip8/debug"
)

// Type represents the different kinds of VM notifications
type Type int

const (
	// Tick is emitted once per scheduler frame.
	Tick Type = iota
	// BeepStatus is emitted when the sound timer crosses zero.
	BeepStatus
	// ProgramLoaded is emitted after a successful load.
	ProgramLoaded
	// Message carries a diagnostic.
	Message
	// BreakpointHit is emitted when a breakpoint pauses execution.
	BreakpointHit
	// StateChanged is emitted on every scheduler state transition.
	StateChanged
)

func (t Type) String() string {
	switch t {
	case Tick:
		return "Tick"
	case BeepStatus:
		return "BeepStatus"
	case ProgramLoaded:
		return "ProgramLoaded"
	case Message:
		return "Message"
	case BreakpointHit:
		return "BreakpointHit"
	case StateChanged:
		return "StateChanged"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Event is a VM notification. Only the fields relevant to Type are set.
type Event struct {
	Type Type

	Beep     bool        // BeepStatus
	Bytes    int         // ProgramLoaded
	Text     string      // Message
	Address  uint16      // BreakpointHit
	HitCount int         // BreakpointHit
	State    debug.State // StateChanged
}

// Observer receives VM notifications. OnEvent is called from the goroutine
// that caused the event, never while the VM lock is held.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Bus fans events out to subscribed observers.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	observers map[int]Observer
}

func NewBus() *Bus {
	return &Bus{observers: make(map[int]Observer)}
}

// Subscribe registers o and returns a function that removes it.
func (b *Bus) Subscribe(o Observer) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.observers[id] = o
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// Publish delivers events in order to every observer.
func (b *Bus) Publish(evs ...Event) {
	if len(evs) == 0 {
		return
	}

	b.mu.RLock()
	observers := make([]Observer, 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.RUnlock()

	for _, e := range evs {
		for _, o := range observers {
			o.OnEvent(e)
		}
	}
}

// Queue is an Observer backed by a bounded channel, for front ends that poll.
// Publishing never blocks: when the buffer is full the event is dropped.
type Queue struct {
	events  chan Event
	dropped atomic.Int64
}

func NewQueue(bufferSize int) *Queue {
	return &Queue{events: make(chan Event, bufferSize)}
}

func (q *Queue) OnEvent(e Event) {
	select {
	case q.events <- e:
	default:
		q.dropped.Add(1)
	}
}

// Events returns the channel to receive from.
func (q *Queue) Events() <-chan Event {
	return q.events
}

// Poll returns the next event without blocking.
func (q *Queue) Poll() (Event, bool) {
	select {
	case e := <-q.events:
		return e, true
	default:
		return Event{}, false
	}
}

// Drain returns every queued event without blocking.
func (q *Queue) Drain() []Event {
	var out []Event
	for {
		e, ok := q.Poll()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() int {
	return int(q.dropped.Load())
}
