package debug

// State is the scheduler state of the VM.
type State int

const (
	Stopped State = iota
	Running
	Paused
	// SteppingFrame is paused part way through a frame that is being
	// advanced one instruction at a time.
	SteppingFrame
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case SteppingFrame:
		return "STEPPING"
	default:
		return "UNKNOWN"
	}
}

// IsPaused reports whether Step is allowed in this state.
func (s State) IsPaused() bool {
	return s == Paused || s == SteppingFrame
}

// CPUState contains all register information for debugging
type CPUState struct {
	V          [16]uint8
	I          uint16
	PC         uint16
	Stack      []uint16 // bottom first
	DelayTimer uint8
	SoundTimer uint8
	Keys       uint16
}

// MemorySnapshot contains a snapshot of memory for disassembly
type MemorySnapshot struct {
	StartAddr uint16
	Bytes     []uint8
}

// Data contains all debug information needed by debug displays
type Data struct {
	CPU              *CPUState
	Memory           *MemorySnapshot
	State            State
	Breakpoints      []uint16
	InstructionsLeft int
	ProgramSize      int
	Beep             bool
}
