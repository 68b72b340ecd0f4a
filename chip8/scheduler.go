package chip8

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-chip8/chip8/cpu"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/events"
)

// Start runs the scheduler loop until ctx is cancelled. Each tick executes a
// burst of instructions proportional to the time elapsed since the previous
// tick, then counts the timers down once. On cancellation the VM is stopped
// and reset and Start returns nil.
func (v *VM) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.started {
		v.unlock()
		return ErrAlreadyStarted
	}
	if v.program == nil {
		v.message("Cannot start: %v", ErrNoProgram)
		v.unlock()
		return ErrNoProgram
	}
	v.started = true
	if v.startPaused {
		v.pause()
	} else {
		v.resume()
	}
	v.unlock()

	slog.Info("Scheduler started", "ipf", v.InstructionsPerFrame(), "interval", v.ticker.Interval())

	ticks := v.ticker.C()
	for {
		select {
		case <-ctx.Done():
			v.mu.Lock()
			v.stopAndReset()
			v.started = false
			v.unlock()
			slog.Info("Scheduler stopped")
			return nil
		case at := <-ticks:
			v.mu.Lock()
			v.onTick(at)
			v.unlock()
		}
	}
}

// RunFrame executes one frame as if elapsed time had passed since the
// previous one. It reports false, doing nothing, unless the VM is running.
// It lets a caller drive the VM without the Start loop.
func (v *VM) RunFrame(elapsed time.Duration) bool {
	v.mu.Lock()
	defer v.unlock()

	if v.state != debug.Running {
		return false
	}
	v.runFrame(elapsed)
	return true
}

// Pause stops executing at the next tick boundary. It has no effect unless
// the VM is running.
func (v *VM) Pause() {
	v.mu.Lock()
	defer v.unlock()

	if v.state == debug.Running {
		v.pause()
	}
}

// Go resumes execution from a paused or stopped VM.
func (v *VM) Go() error {
	v.mu.Lock()
	defer v.unlock()

	if v.program == nil {
		return ErrNoProgram
	}
	if v.state != debug.Running {
		v.resume()
	}
	return nil
}

// Step executes a single instruction while paused. Once a frame worth of
// instructions has been stepped the timers count down and a Tick is
// delivered, as if the frame had run normally.
func (v *VM) Step() error {
	v.mu.Lock()
	defer v.unlock()

	if !v.state.IsPaused() {
		return ErrNotPaused
	}

	if !v.execute() {
		return nil
	}

	v.instructionsLeft--
	if v.instructionsLeft > 0 {
		v.setState(debug.SteppingFrame)
		return nil
	}

	v.endFrame()
	v.instructionsLeft = v.instructionsPerFrame
	v.setState(debug.Paused)
	return nil
}

// StepFrame executes the rest of the current frame while paused, stopping
// early on a breakpoint or a halt.
func (v *VM) StepFrame() error {
	v.mu.Lock()
	defer v.unlock()

	if !v.state.IsPaused() {
		return ErrNotPaused
	}

	for v.instructionsLeft > 0 {
		if !v.execute() {
			return nil
		}
		v.instructionsLeft--
	}

	v.endFrame()
	v.instructionsLeft = v.instructionsPerFrame
	v.setState(debug.Paused)
	return nil
}

// StopAndReset halts execution and returns the machine to power-on state.
// The loaded program is forgotten. Breakpoints are kept but disarmed.
func (v *VM) StopAndReset() {
	v.mu.Lock()
	defer v.unlock()

	v.stopAndReset()
}

// Restart resets the machine, reloads the current program and runs it.
func (v *VM) Restart() error {
	v.mu.Lock()
	defer v.unlock()

	program := v.program
	if program == nil {
		return ErrNoProgram
	}

	v.stopAndReset()
	if err := v.load(program); err != nil {
		return err
	}
	v.resume()
	return nil
}

func (v *VM) pause() {
	v.ticker.Stop()
	v.setState(debug.Paused)
}

func (v *VM) resume() {
	v.lastTick = time.Time{}
	v.ticker.Start()
	v.setState(debug.Running)
}

func (v *VM) halt() {
	v.ticker.Stop()
	v.setState(debug.Stopped)
}

func (v *VM) stopAndReset() {
	v.halt()
	v.mem.Reset()
	v.cpu.Reset()
	v.surface.Clear()
	v.keypad.Reset()
	v.breakpoints.Disarm()
	v.program = nil
	v.lastTick = time.Time{}
	v.instructionsLeft = v.instructionsPerFrame
	v.setBeep(false)
}

// onTick handles a tick from the Start loop. Ticks that were already queued
// when the VM left the running state are ignored.
func (v *VM) onTick(at time.Time) {
	if v.state != debug.Running {
		return
	}

	elapsed := v.ticker.Interval()
	if !v.lastTick.IsZero() {
		elapsed = at.Sub(v.lastTick)
	}
	v.lastTick = at

	v.runFrame(elapsed)
}

// runFrame executes floor(ipf * elapsed / interval) instructions, stopping
// early on a breakpoint or a halt, then finishes the frame. A breakpoint
// that interrupts the frame leaves the rest of it to Step and StepFrame, so
// the timers count down once the remaining instructions have run.
func (v *VM) runFrame(elapsed time.Duration) {
	interval := v.ticker.Interval()
	burst := 0
	if interval > 0 && elapsed > 0 {
		burst = int(float64(v.instructionsPerFrame) * float64(elapsed) / float64(interval))
	}

	executed := 0
	for executed < burst {
		if !v.execute() {
			break
		}
		executed++
	}

	if v.state.IsPaused() && executed < v.instructionsPerFrame {
		v.instructionsLeft = v.instructionsPerFrame - executed
		return
	}

	v.endFrame()
	v.instructionsLeft = v.instructionsPerFrame
}

// execute runs the instruction at PC unless a breakpoint halts it first. It
// reports whether execution may continue.
func (v *VM) execute() bool {
	pc := v.cpu.PC()
	if bp, halt := v.breakpoints.Check(pc); halt {
		slog.Info("Breakpoint hit", "address", fmt.Sprintf("0x%04X", pc), "hits", bp.HitCount())
		v.hits = append(v.hits, bp)
		v.emit(events.Event{Type: events.BreakpointHit, Address: pc, HitCount: bp.HitCount()})
		v.pause()
		return false
	}

	_, err := v.cpu.Step()
	if err == nil {
		return true
	}

	if errors.Is(err, cpu.ErrUnknownOpcode) || errors.Is(err, cpu.ErrPCOutOfRange) {
		slog.Info("Program ended", "pc", fmt.Sprintf("0x%04X", pc), "reason", err)
	} else {
		v.message("Execution halted: %v", err)
	}
	v.halt()
	return false
}

// endFrame counts the timers down and reports the frame.
func (v *VM) endFrame() {
	v.cpu.DecrementTimers()
	v.setBeep(v.cpu.SoundTimer() > 0)
	v.emit(events.Event{Type: events.Tick})
}

func (v *VM) setBeep(on bool) {
	if v.beep == on {
		return
	}
	v.beep = on
	v.emit(events.Event{Type: events.BeepStatus, Beep: on})
}
