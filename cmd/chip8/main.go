package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/go-chip8/chip8"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/backend/headless"
	"github.com/valerio/go-chip8/chip8/backend/sdl2"
	"github.com/valerio/go-chip8/chip8/backend/terminal"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/events"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "chip8"
	app.Description = "A CHIP-8 virtual machine with a terminal debugger"
	app.Usage = "chip8 [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML config file",
		},
		cli.IntFlag{
			Name:  "ipf",
			Usage: "Instructions executed per frame (overrides config)",
		},
		cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for RND, 0 for a random seed (overrides config)",
		},
		cli.BoolFlag{
			Name:  "paused",
			Usage: "Start paused, waiting for step or resume",
		},
		cli.StringSliceFlag{
			Name:  "breakpoint, b",
			Usage: "Pause when PC reaches this hex address, can be repeated",
		},
		cli.StringFlag{
			Name:  "state",
			Usage: "Savestate file used by save/load (default: <ROM>.state.yaml, use .xml for XML)",
		},
		cli.BoolFlag{
			Name:  "restore",
			Usage: "Restore the savestate file before running",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Show the debug panels in the terminal",
		},
		cli.BoolFlag{
			Name:  "sdl2",
			Usage: "Open an SDL2 window instead of the terminal UI (build with -tags sdl2)",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the machine without an interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "realtime",
			Usage: "Run headless frames at 60Hz instead of as fast as possible",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "snapshot-format",
			Usage: "Snapshot format, txt or png",
			Value: string(debug.SnapshotText),
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	vm, err := chip8.New(cfg)
	if err != nil {
		return err
	}
	if err := vm.Load(romPath); err != nil {
		return err
	}

	for _, arg := range c.StringSlice("breakpoint") {
		addr, err := parseAddress(arg)
		if err != nil {
			return err
		}
		if _, ok := vm.AddBreakpoint(addr); !ok {
			return fmt.Errorf("invalid breakpoint 0x%04X: must be an even address inside the program", addr)
		}
	}

	statePath := c.String("state")
	if statePath == "" {
		statePath = strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".state.yaml"
	}
	if c.Bool("restore") {
		if err := vm.Restore(statePath); err != nil {
			return err
		}
	}

	if c.Bool("headless") {
		return runHeadless(c, vm, romPath)
	}
	if c.Bool("sdl2") {
		return runInteractive(c, sdl2.New(), vm, romPath, statePath)
	}
	return runInteractive(c, terminal.New(), vm, romPath, statePath)
}

func loadConfig(c *cli.Context) (chip8.Config, error) {
	cfg := chip8.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = chip8.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("ipf") {
		cfg.InstructionsPerFrame = c.Int("ipf")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Uint64("seed")
	}
	if c.Bool("paused") {
		cfg.StartPaused = true
	}

	return cfg, cfg.Validate()
}

func parseAddress(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	addr, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint16(addr), nil
}

// runHeadless drives the VM frame by frame without the ticker, as fast as
// possible unless realtime is set.
func runHeadless(c *cli.Context, vm *chip8.VM, romPath string) error {
	// Set up debug logging for headless mode
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	snapshotConfig, err := headless.CreateSnapshotConfig(
		c.Int("snapshot-interval"),
		c.String("snapshot-dir"),
		romPath,
		debug.SnapshotFormat(c.String("snapshot-format")),
	)
	if err != nil {
		return err
	}

	h := headless.New(c.Int("frames"), snapshotConfig)
	if err := h.Init(backend.BackendConfig{Title: romPath, DebugProvider: vm}); err != nil {
		return err
	}
	defer h.Cleanup()

	if !c.Bool("paused") {
		if err := vm.Go(); err != nil {
			return err
		}
	}

	limiter := timing.NewNoOpLimiter()
	if c.Bool("realtime") {
		ticker := timing.NewTickerLimiter()
		defer ticker.Stop()
		limiter = ticker
	}

	for {
		limiter.WaitForNextFrame()
		vm.RunFrame(timing.FrameDuration())

		evs, err := h.Update(vm.Surface())
		if err != nil {
			return err
		}
		for _, evt := range evs {
			if evt.Action == action.EmulatorQuit {
				slog.Info("Final state", "pc", fmt.Sprintf("0x%04X", vm.ProgramCounter()), "state", vm.State())
				return nil
			}
		}
	}
}

// runInteractive runs the scheduler loop and the UI side by side until either
// of them stops.
func runInteractive(c *cli.Context, ui backend.Interactive, vm *chip8.VM, romPath, statePath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the terminal captures logs while it owns the screen
	defer slog.SetDefault(slog.Default())

	err := ui.Init(backend.BackendConfig{
		Title:         filepath.Base(romPath),
		ShowDebug:     c.Bool("debug"),
		DebugProvider: vm,
		Callbacks:     backend.BackendCallbacks{OnQuit: cancel},
	})
	if err != nil {
		return err
	}
	defer ui.Cleanup()

	queue := events.NewQueue(256)
	unsubscribe := vm.Subscribe(queue)
	defer unsubscribe()

	mgr := input.NewManager(vm)
	bindControls(mgr, vm, ui, statePath, cancel)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return vm.Start(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return uiLoop(ctx, vm, ui, mgr, queue)
	})

	return g.Wait()
}

func uiLoop(ctx context.Context, vm *chip8.VM, ui backend.Interactive, mgr *input.Manager, queue *events.Queue) error {
	limiter := timing.NewTickerLimiter()
	defer limiter.Stop()

	for {
		limiter.WaitForNextFrame()
		if ctx.Err() != nil {
			return nil
		}

		for _, e := range queue.Drain() {
			if e.Type == events.BeepStatus {
				ui.SetBeep(e.Beep)
			}
		}
		if n := queue.Dropped(); n > 0 {
			slog.Debug("UI fell behind", "dropped_events", n)
		}

		evs, err := ui.Update(vm.Surface())
		if err != nil {
			return err
		}
		for _, evt := range evs {
			if evt.Action == action.EmulatorQuit {
				return nil
			}
			mgr.Trigger(evt.Action, evt.Type)
		}
	}
}

// bindControls connects the emulator actions to the VM and the UI.
func bindControls(mgr *input.Manager, vm *chip8.VM, ui backend.Interactive, statePath string, quit func()) {
	on := func(act action.Action, fn func() error) {
		mgr.On(act, event.Press, func() {
			if err := fn(); err != nil {
				slog.Warn("Action failed", "action", act, "error", err)
			}
		})
	}

	on(action.EmulatorPauseToggle, func() error {
		if vm.State() == debug.Running {
			vm.Pause()
			return nil
		}
		return vm.Go()
	})
	on(action.EmulatorStepInstruction, vm.Step)
	on(action.EmulatorStepFrame, vm.StepFrame)
	on(action.EmulatorRestart, vm.Restart)
	on(action.EmulatorSaveState, func() error { return vm.Store(statePath) })
	on(action.EmulatorLoadState, func() error { return vm.Restore(statePath) })
	on(action.EmulatorSpeedUp, func() error {
		return vm.SetInstructionsPerFrame(vm.InstructionsPerFrame() + 1)
	})
	on(action.EmulatorSpeedDown, func() error {
		if ipf := vm.InstructionsPerFrame(); ipf > 1 {
			return vm.SetInstructionsPerFrame(ipf - 1)
		}
		return nil
	})
	on(action.EmulatorQuit, func() error {
		quit()
		return nil
	})

	for _, act := range []action.Action{
		action.EmulatorSnapshot,
		action.EmulatorDebugToggle,
		action.DebugLogLevelIncrease,
		action.DebugLogLevelDecrease,
	} {
		mgr.On(act, event.Press, func() { ui.HandleAction(act) })
	}
}
