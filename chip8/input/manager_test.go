package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
)

type keyChange struct {
	key     uint8
	pressed bool
}

type fakeKeypad struct {
	changes []keyChange
}

func (f *fakeKeypad) UpdateKeyState(key uint8, pressed bool) error {
	f.changes = append(f.changes, keyChange{key, pressed})
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *fakeKeypad, *fakeClock) {
	keypad := &fakeKeypad{}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m := NewManager(keypad)
	m.now = clock.now
	return m, keypad, clock
}

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name        string
		action      action.Action
		eventType   event.Type
		timeBetween time.Duration
		wantCalls   int
	}{
		{
			name:        "UI action rapid press - should debounce",
			action:      action.EmulatorDebugToggle,
			eventType:   event.Press,
			timeBetween: 100 * time.Millisecond,
			wantCalls:   1,
		},
		{
			name:        "UI action slow press - should not debounce",
			action:      action.EmulatorDebugToggle,
			eventType:   event.Press,
			timeBetween: 400 * time.Millisecond,
			wantCalls:   2,
		},
		{
			name:        "UI action release event - should not debounce",
			action:      action.EmulatorPauseToggle,
			eventType:   event.Release,
			timeBetween: 10 * time.Millisecond,
			wantCalls:   2,
		},
		{
			name:        "Hold event type - should not debounce",
			action:      action.EmulatorStepInstruction,
			eventType:   event.Hold,
			timeBetween: 10 * time.Millisecond,
			wantCalls:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, clock := newTestManager()
			calls := 0
			m.On(tt.action, tt.eventType, func() { calls++ })

			m.Trigger(tt.action, tt.eventType)
			clock.advance(tt.timeBetween)
			m.Trigger(tt.action, tt.eventType)

			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestManager_KeypadActions(t *testing.T) {
	m, keypad, _ := newTestManager()
	called := false
	m.On(action.Key5, event.Press, func() { called = true })

	// rapid presses of a keypad key all reach the keypad
	m.Trigger(action.Key5, event.Press)
	m.Trigger(action.Key5, event.Hold)
	m.Trigger(action.Key5, event.Release)
	m.Trigger(action.Key5, event.Press)
	m.Trigger(action.KeyF, event.Press)

	require.Len(t, keypad.changes, 4)
	assert.Equal(t, keyChange{0x5, true}, keypad.changes[0])
	assert.Equal(t, keyChange{0x5, false}, keypad.changes[1])
	assert.Equal(t, keyChange{0x5, true}, keypad.changes[2])
	assert.Equal(t, keyChange{0xF, true}, keypad.changes[3])
	assert.False(t, called, "keypad actions do not run callbacks")
}

func TestManager_MultipleActions(t *testing.T) {
	m, _, _ := newTestManager()
	var order []action.Action
	m.On(action.EmulatorSaveState, event.Press, func() { order = append(order, action.EmulatorSaveState) })
	m.On(action.EmulatorLoadState, event.Press, func() { order = append(order, action.EmulatorLoadState) })

	m.Trigger(action.EmulatorSaveState, event.Press)
	m.Trigger(action.EmulatorLoadState, event.Press)
	m.Trigger(action.EmulatorSaveState, event.Press)

	assert.Equal(t, []action.Action{action.EmulatorSaveState, action.EmulatorLoadState}, order)
}

func TestManager_CallbackMayRegister(t *testing.T) {
	m, _, _ := newTestManager()
	m.On(action.EmulatorQuit, event.Press, func() {
		m.On(action.EmulatorQuit, event.Release, func() {})
	})

	m.Trigger(action.EmulatorQuit, event.Press)
}

func TestManager_NilKeypad(t *testing.T) {
	m := NewManager(nil)
	m.Trigger(action.Key1, event.Press)
}

func TestDefaultKeyMap(t *testing.T) {
	keypad := map[string]uint8{
		"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xC,
		"q": 0x4, "w": 0x5, "e": 0x6, "r": 0xD,
		"a": 0x7, "s": 0x8, "d": 0x9, "f": 0xE,
		"z": 0xA, "x": 0x0, "c": 0xB, "v": 0xF,
	}

	for key, want := range keypad {
		act, ok := GetDefaultMapping(key)
		require.True(t, ok, key)
		require.True(t, act.IsKeypad(), key)
		assert.Equal(t, want, act.Key(), key)
	}

	act, ok := GetDefaultMapping("Escape")
	require.True(t, ok)
	assert.Equal(t, action.EmulatorQuit, act)

	_, ok = GetDefaultMapping("unmapped")
	assert.False(t, ok)
}
