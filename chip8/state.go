package chip8

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/savestate"
)

// Store writes a snapshot of the VM to path. A running VM is paused while
// the snapshot is taken and resumed afterwards. Files ending in .xml are
// written as XML, anything else as YAML.
func (v *VM) Store(path string) error {
	v.mu.Lock()
	wasRunning := v.state == debug.Running
	if wasRunning {
		v.pause()
	}
	snap := v.capture()
	v.unlock()

	err := savestate.Save(path, snap)

	v.mu.Lock()
	if err != nil {
		v.message("Failed to store state to %s: %v", path, err)
	} else {
		slog.Info("State stored", "path", path)
	}
	if wasRunning && v.state == debug.Paused {
		v.resume()
	}
	v.unlock()

	return err
}

// Restore loads a snapshot from path. The snapshot must have been taken with
// the currently loaded program, otherwise the VM is left untouched.
func (v *VM) Restore(path string) error {
	v.mu.Lock()
	wasRunning := v.state == debug.Running
	if wasRunning {
		v.pause()
	}
	v.unlock()

	snap, err := savestate.Load(path)

	v.mu.Lock()
	defer v.unlock()

	switch {
	case err != nil:
		v.message("Failed to restore state from %s: %v", path, err)
	case v.program == nil:
		err = ErrNoProgram
		v.message("Cannot restore state: %v", err)
	case !snap.Matches(v.program):
		err = fmt.Errorf("%w: %s", savestate.ErrProgramMismatch, path)
		v.message("Cannot restore state: %v", err)
	default:
		err = v.apply(snap)
		if err != nil {
			v.message("Failed to restore state from %s: %v", path, err)
		} else {
			slog.Info("State restored", "path", path)
		}
	}

	if wasRunning && v.state == debug.Paused {
		v.resume()
	}
	return err
}

func (v *VM) capture() *savestate.State {
	return &savestate.State{
		InstructionsPerFrame: v.instructionsPerFrame,
		InstructionsLeft:     v.instructionsLeft,
		ProgramBytesCount:    len(v.program),
		LoadedProgram:        append([]byte{}, v.program...),
		I:                    v.cpu.I(),
		PC:                   v.cpu.PC(),
		Registers:            v.cpu.Registers(),
		Stack:                v.cpu.Stack(),
		DelayTimer:           v.cpu.DelayTimer(),
		SoundTimer:           v.cpu.SoundTimer(),
		Beep:                 v.beep,
		Memory:               v.mem.Snapshot(),
		Surface:              v.surface.Clone(),
	}
}

// apply replaces the machine state with snap. Memory is validated first so a
// bad snapshot changes nothing.
func (v *VM) apply(snap *savestate.State) error {
	if err := v.mem.LoadSnapshot(snap.Memory); err != nil {
		return err
	}

	if snap.InstructionsPerFrame > 0 {
		v.instructionsPerFrame = snap.InstructionsPerFrame
	}
	v.instructionsLeft = snap.InstructionsLeft
	if v.instructionsLeft <= 0 || v.instructionsLeft > v.instructionsPerFrame {
		v.instructionsLeft = v.instructionsPerFrame
	}

	v.cpu.SetRegisters(snap.Registers)
	v.cpu.SetI(snap.I)
	v.cpu.SetPC(snap.PC)
	v.cpu.SetStack(snap.Stack)
	v.cpu.SetDelayTimer(snap.DelayTimer)
	v.cpu.SetSoundTimer(snap.SoundTimer)

	if snap.Surface != nil {
		*v.surface = *snap.Surface
	} else {
		v.surface.Clear()
	}
	v.setBeep(snap.Beep)
	v.lastTick = time.Time{}

	return nil
}
