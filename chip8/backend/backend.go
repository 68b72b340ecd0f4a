package backend

import (
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

// Backend represents a complete emulator front end (rendering + input).
// Backends are responsible for:
// - Rendering the display surface to their specific output
// - Translating platform-specific input events to Actions
// - Handling backend-specific features (snapshots, debug panels)
type Backend interface {
	// Init configures the backend. It must be called before Update.
	Init(config BackendConfig) error

	// Update renders the surface and returns the input events collected
	// since the previous call.
	Update(surface *video.Surface) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// InputEvent is an action reported by a backend.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// DebugDataProvider gives backends read access to the machine state.
type DebugDataProvider interface {
	DebugData() *debug.Data
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title         string
	ShowDebug     bool              // Backends may ignore unsupported features
	DebugProvider DebugDataProvider // Optional, enables the debug panels
	Callbacks     BackendCallbacks
}

// BackendCallbacks allows backends to communicate with the emulator
type BackendCallbacks struct {
	// Backend requests shutdown (e.g. terminal closed)
	OnQuit func()
}

// Interactive is a backend driven by a person: it reacts to UI actions the
// input manager routes back to it and signals the sound timer.
type Interactive interface {
	Backend

	// HandleAction performs backend-local actions such as snapshots or
	// toggling the debug view.
	HandleAction(act action.Action)

	// SetBeep reports whether the sound timer is active.
	SetBeep(on bool)
}
