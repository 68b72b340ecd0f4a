package input

import (
	"log/slog"
	"sync"
	"time"

	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
)

const (
	// debounceDuration is the minimum time between two presses of the same
	// emulator action
	debounceDuration = 300 * time.Millisecond
)

// Keypad receives CHIP-8 key state changes. *chip8.VM satisfies it.
type Keypad interface {
	UpdateKeyState(key uint8, pressed bool) error
}

// Manager routes input actions. Keypad actions go straight to the keypad,
// every other action runs its registered callbacks.
type Manager struct {
	mu            sync.Mutex
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]time.Time
	keypad        Keypad
	now           func() time.Time
}

func NewManager(k Keypad) *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]time.Time),
		keypad:        k,
		now:           time.Now,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type. Presses of emulator
// actions are debounced, keypad actions never are.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if act.IsKeypad() {
		m.updateKeypad(act, evt)
		return
	}

	m.mu.Lock()
	if evt == event.Press {
		now := m.now()
		if last, ok := m.lastTriggered[act]; ok && now.Sub(last) < debounceDuration {
			m.mu.Unlock()
			return
		}
		m.lastTriggered[act] = now
	}
	callbacks := append([]func(){}, m.handlers[act][evt]...)
	m.mu.Unlock()

	for _, callback := range callbacks {
		callback()
	}
}

func (m *Manager) updateKeypad(act action.Action, evt event.Type) {
	if m.keypad == nil {
		return
	}

	var err error
	switch evt {
	case event.Press:
		err = m.keypad.UpdateKeyState(act.Key(), true)
	case event.Release:
		err = m.keypad.UpdateKeyState(act.Key(), false)
	}
	if err != nil {
		slog.Debug("Key update rejected", "key", act, "error", err)
	}
}
