package action

import "fmt"

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// CHIP-8 keypad, the value of each action is the key index
	Key0 Action = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF

	// Emulator features
	EmulatorPauseToggle
	EmulatorStepInstruction
	EmulatorStepFrame
	EmulatorRestart
	EmulatorSaveState
	EmulatorLoadState
	EmulatorSnapshot
	EmulatorDebugToggle
	EmulatorSpeedUp
	EmulatorSpeedDown
	EmulatorQuit

	// Debug controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

// Category groups actions by who consumes them.
type Category int

const (
	CategoryKeypad Category = iota
	CategoryEmulator
	CategoryDebug
)

// Info describes an action for logs and help text.
type Info struct {
	Category    Category
	Description string
}

var infos = map[Action]Info{
	EmulatorPauseToggle:     {CategoryEmulator, "Pause/Resume"},
	EmulatorStepInstruction: {CategoryEmulator, "Step instruction"},
	EmulatorStepFrame:       {CategoryEmulator, "Step frame"},
	EmulatorRestart:         {CategoryEmulator, "Restart"},
	EmulatorSaveState:       {CategoryEmulator, "Save state"},
	EmulatorLoadState:       {CategoryEmulator, "Load state"},
	EmulatorSnapshot:        {CategoryEmulator, "Screen snapshot"},
	EmulatorDebugToggle:     {CategoryEmulator, "Toggle debug view"},
	EmulatorSpeedUp:         {CategoryEmulator, "Speed up"},
	EmulatorSpeedDown:       {CategoryEmulator, "Slow down"},
	EmulatorQuit:            {CategoryEmulator, "Quit"},
	DebugLogLevelIncrease:   {CategoryDebug, "More logs"},
	DebugLogLevelDecrease:   {CategoryDebug, "Fewer logs"},
}

// IsKeypad reports whether act presses a CHIP-8 key.
func (a Action) IsKeypad() bool {
	return a >= Key0 && a <= KeyF
}

// Key returns the keypad index of a keypad action.
func (a Action) Key() uint8 {
	return uint8(a - Key0)
}

func GetInfo(a Action) Info {
	if a.IsKeypad() {
		return Info{CategoryKeypad, fmt.Sprintf("Key %X", a.Key())}
	}
	if info, ok := infos[a]; ok {
		return info
	}
	return Info{CategoryEmulator, fmt.Sprintf("Action %d", int(a))}
}

func (a Action) String() string {
	return GetInfo(a).Description
}
