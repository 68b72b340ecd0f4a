package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

type staticProvider struct {
	data *debug.Data
}

func (p staticProvider) DebugData() *debug.Data { return p.data }

func newSimulated(t *testing.T, config backend.BackendConfig) (*Backend, tcell.SimulationScreen) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init(config))
	screen.SetSize(110, 30)
	t.Cleanup(func() { b.Cleanup() })

	return b, screen
}

func cellAt(screen tcell.SimulationScreen, x, y int) rune {
	cells, w, _ := screen.GetContents()
	runes := cells[y*w+x].Runes
	if len(runes) == 0 {
		return ' '
	}
	return runes[0]
}

func TestBackendImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*Backend)(nil)
}

func TestRenderSurface(t *testing.T) {
	b, screen := newSimulated(t, backend.BackendConfig{Title: "pong"})

	surface := video.NewSurface()
	surface.Set(0, 0, true)
	surface.Set(0, 1, true)
	surface.Set(1, 0, true)
	surface.Set(2, 1, true)

	_, err := b.Update(surface)
	require.NoError(t, err)

	assert.Equal(t, '█', cellAt(screen, 0, 1))
	assert.Equal(t, '▀', cellAt(screen, 1, 1))
	assert.Equal(t, '▄', cellAt(screen, 2, 1))
	assert.Equal(t, ' ', cellAt(screen, 3, 1))
	assert.Equal(t, '│', cellAt(screen, width+1, 1))
}

func TestRenderDebugPanel(t *testing.T) {
	data := &debug.Data{
		CPU: &debug.CPUState{PC: 0x200, I: 0x300},
		Memory: &debug.MemorySnapshot{
			StartAddr: 0x200,
			Bytes:     []byte{0x00, 0xE0, 0x12, 0x00},
		},
		State: debug.Paused,
	}
	b, screen := newSimulated(t, backend.BackendConfig{ShowDebug: true, DebugProvider: staticProvider{data}})

	_, err := b.Update(video.NewSurface())
	require.NoError(t, err)

	cells, w, h := screen.GetContents()
	var text []rune
	for i := 0; i < w*h; i++ {
		if len(cells[i].Runes) > 0 {
			text = append(text, cells[i].Runes[0])
		}
	}
	assert.Contains(t, string(text), "Status: PAUSED")
	assert.Contains(t, string(text), "0x0200: 00E0  CLS")
	assert.Contains(t, string(text), "I: 0x0300")
}

func TestKeypadEvents(t *testing.T) {
	b, screen := newSimulated(t, backend.BackendConfig{})
	surface := video.NewSurface()

	screen.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
	events, err := b.Update(surface)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, backend.InputEvent{Action: action.Key5, Type: event.Press}, events[0])

	events, _ = b.Update(surface)
	require.Len(t, events, 1)
	assert.Equal(t, event.Hold, events[0].Type)

	time.Sleep(keyTimeout + 20*time.Millisecond)
	events, _ = b.Update(surface)
	require.Len(t, events, 1)
	assert.Equal(t, backend.InputEvent{Action: action.Key5, Type: event.Release}, events[0])
}

func TestEmulatorEvents(t *testing.T) {
	quit := false
	b, screen := newSimulated(t, backend.BackendConfig{
		Callbacks: backend.BackendCallbacks{OnQuit: func() { quit = true }},
	})

	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	screen.InjectKey(tcell.KeyF5, 0, tcell.ModNone)
	events, err := b.Update(video.NewSurface())
	require.NoError(t, err)
	assert.Equal(t, []backend.InputEvent{
		{Action: action.EmulatorPauseToggle, Type: event.Press},
		{Action: action.EmulatorSaveState, Type: event.Press},
	}, events)

	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	events, _ = b.Update(video.NewSurface())
	assert.Equal(t, []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}, events)
	assert.True(t, quit)
}

func TestHandleAction(t *testing.T) {
	b, _ := newSimulated(t, backend.BackendConfig{})

	b.HandleAction(action.EmulatorDebugToggle)
	assert.True(t, b.config.ShowDebug)

	b.HandleAction(action.DebugLogLevelIncrease)
	assert.Equal(t, "DEBUG", b.logLevel.String())
	b.HandleAction(action.DebugLogLevelDecrease)
	b.HandleAction(action.DebugLogLevelDecrease)
	assert.Equal(t, "WARN", b.logLevel.String())
}

func TestFormatKeys(t *testing.T) {
	assert.Equal(t, "-", formatKeys(0))
	assert.Equal(t, "0 5 F", formatKeys(1|1<<5|1<<15))
}
