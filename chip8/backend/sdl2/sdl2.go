//go:build sdl2

package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

// Backend implements the Backend interface using SDL2 bindings
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stub, see build tags (sdl2)
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	pixels   []byte
	running  bool
	beep     bool
	config   backend.BackendConfig

	eventQueue     []backend.InputEvent
	currentSurface *video.Surface
}

func New() *Backend {
	return &Backend{
		pixels: make([]byte, video.Width*video.Height*bytesPerPixel),
	}
}

func (s *Backend) Init(config backend.BackendConfig) error {
	s.config = config

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		WindowWidth,
		WindowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %v", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %v", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.Width,
		video.Height,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create texture: %v", err)
	}
	s.texture = texture

	s.running = true
	slog.Info("SDL2 backend initialized", "scale", PixelScale)

	return nil
}

// Update drains the SDL event queue and presents the surface.
func (s *Backend) Update(surface *video.Surface) ([]backend.InputEvent, error) {
	if !s.running {
		return nil, nil
	}

	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		s.handleEvent(e)
	}

	events := s.eventQueue
	s.eventQueue = nil

	if !s.running {
		return events, nil
	}

	s.currentSurface = surface
	if err := s.renderFrame(surface); err != nil {
		return events, err
	}
	if s.config.ShowDebug {
		s.updateTitle()
	}

	return events, nil
}

func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 backend")

	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()

	return nil
}

// HandleAction processes backend-specific actions
func (s *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorSnapshot:
		debug.TakeSnapshot(s.currentSurface)
	case action.EmulatorDebugToggle:
		s.config.ShowDebug = !s.config.ShowDebug
		if !s.config.ShowDebug && s.window != nil {
			s.window.SetTitle(s.config.Title)
		}
		slog.Debug("Debug title toggled", "enabled", s.config.ShowDebug)
	}
}

// SetBeep tints lit pixels while the sound timer runs.
func (s *Backend) SetBeep(on bool) {
	s.beep = on
}

func (s *Backend) handleEvent(e sdl.Event) {
	switch e := e.(type) {
	case *sdl.QuitEvent:
		s.quit()

	case *sdl.KeyboardEvent:
		act, exists := keyMapping[e.Keysym.Sym]
		if !exists {
			return
		}
		if act == action.EmulatorQuit {
			s.quit()
			return
		}

		switch {
		case e.Type == sdl.KEYDOWN && e.Repeat == 0:
			s.eventQueue = append(s.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
		case e.Type == sdl.KEYDOWN && act.IsKeypad():
			s.eventQueue = append(s.eventQueue, backend.InputEvent{Action: act, Type: event.Hold})
		case e.Type == sdl.KEYUP && act.IsKeypad():
			s.eventQueue = append(s.eventQueue, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
}

func (s *Backend) quit() {
	if !s.running {
		return
	}
	s.running = false
	s.eventQueue = append(s.eventQueue, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	if s.config.Callbacks.OnQuit != nil {
		s.config.Callbacks.OnQuit()
	}
}

func (s *Backend) renderFrame(surface *video.Surface) error {
	on := onColor
	if s.beep {
		on = beepColor
	}
	fillPixels(s.pixels, surface, on)

	if err := s.texture.Update(nil, unsafe.Pointer(&s.pixels[0]), video.Width*bytesPerPixel); err != nil {
		return fmt.Errorf("failed to update texture: %v", err)
	}

	s.renderer.SetDrawColor(offColor.R, offColor.G, offColor.B, offColor.A)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
	return nil
}

func (s *Backend) updateTitle() {
	if s.config.DebugProvider == nil {
		return
	}
	data := s.config.DebugProvider.DebugData()
	if data == nil || data.CPU == nil {
		return
	}
	s.window.SetTitle(fmt.Sprintf("%s [%s] PC: 0x%04X I: 0x%04X", s.config.Title, data.State, data.CPU.PC, data.CPU.I))
}

// sdlKeyNameMap converts SDL keys to key names used in default mappings
var sdlKeyNameMap = map[sdl.Keycode]string{
	sdl.K_SPACE:  "Space",
	sdl.K_ESCAPE: "Escape",
	sdl.K_F2:     "F2",
	sdl.K_F5:     "F5",
	sdl.K_F9:     "F9",
	sdl.K_F10:    "F10",
	sdl.K_F12:    "F12",
}

// buildKeyMapping creates the key mapping from default mappings. SDL
// keycodes of printable keys are their unshifted characters.
func buildKeyMapping() map[sdl.Keycode]action.Action {
	mapping := make(map[sdl.Keycode]action.Action)
	for keyName, act := range input.DefaultKeyMap {
		if r := []rune(keyName); len(r) == 1 {
			mapping[sdl.Keycode(r[0])] = act
		}
	}
	for key, keyName := range sdlKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}
	return mapping
}

var keyMapping = buildKeyMapping()
