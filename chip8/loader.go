package chip8

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/events"
	"github.com/valerio/go-chip8/chip8/memory"
)

// Load reads a ROM file and loads it at the program start. See LoadFrom.
func (v *VM) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return v.loadFailed(fmt.Errorf("failed to open ROM: %w", err))
	}
	defer f.Close()

	if err := v.LoadFrom(f); err != nil {
		return fmt.Errorf("failed to load ROM %s: %w", path, err)
	}
	return nil
}

// LoadFrom copies a program into memory at the program start. The VM must
// not be running; call StopAndReset before loading a different program.
func (v *VM) LoadFrom(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, int64(memory.MaxProgramSize)+1))
	if err != nil {
		return v.loadFailed(fmt.Errorf("failed to read program: %w", err))
	}

	v.mu.Lock()
	defer v.unlock()

	if v.state == debug.Running {
		v.message("Cannot load program: %v", ErrRunning)
		return ErrRunning
	}
	return v.load(data)
}

// loadFailed reports a load error that happened before the lock was taken.
func (v *VM) loadFailed(err error) error {
	v.mu.Lock()
	v.message("Failed to load program: %v", err)
	v.unlock()
	return err
}

func (v *VM) load(data []byte) error {
	if len(data) > memory.MaxProgramSize {
		v.message("Program rejected: %d bytes exceeds the %d byte limit", len(data), memory.MaxProgramSize)
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrProgramTooLarge, len(data), memory.MaxProgramSize)
	}

	if err := v.mem.WriteRange(memory.ProgramStart, data); err != nil {
		v.message("Failed to load program: %v", err)
		return err
	}
	v.program = append([]byte{}, data...)
	v.cpu.SetPC(memory.ProgramStart)

	slog.Info("Program loaded", "bytes", len(data))
	v.emit(events.Event{Type: events.ProgramLoaded, Bytes: len(data)})
	return nil
}
