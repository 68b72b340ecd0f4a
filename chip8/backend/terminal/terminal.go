package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/backend/terminal/render"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

const (
	width  = video.Width
	height = video.Height

	registerHeight = 10
	disasmHeight   = 9
	minTermWidth   = 80
	minTermHeight  = 24
)

// Key expiry timeout. Terminals only report presses, so a key counts as
// held while its auto repeat keeps arriving.
const keyTimeout = 100 * time.Millisecond

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen     tcell.Screen
	running    bool
	logBuffer  *render.LogBuffer
	logLevel   slog.Level
	config     backend.BackendConfig
	eventQueue []backend.InputEvent
	signals    chan os.Signal

	keyStates  map[action.Action]time.Time // Last time each key was pressed
	activeKeys map[action.Action]bool      // Keys active in previous frame

	debugProvider  backend.DebugDataProvider
	currentSurface *video.Surface
	beep           bool
}

// New creates a terminal backend drawing on the controlling terminal.
func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

// NewWithScreen creates a backend drawing on screen, which Init initializes.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{logLevel: slog.LevelInfo, screen: screen}
}

func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.debugProvider = config.DebugProvider
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %v", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	t.running = true

	// Logs go to the side panel, writing to stderr would corrupt the screen
	t.logBuffer = render.NewLogBuffer(100)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))

	slog.Info("Terminal backend initialized")
	if config.ShowDebug {
		slog.Debug("Debug mode enabled")
	}

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	return nil
}

// Update renders the surface and processes events
func (t *Backend) Update(surface *video.Surface) ([]backend.InputEvent, error) {
	var events []backend.InputEvent
	now := time.Now()

	select {
	case <-t.signals:
		t.quit()
	default:
	}

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	currentlyActive := make(map[action.Action]bool)

	for act, lastPressed := range t.keyStates {
		if now.Sub(lastPressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}

		currentlyActive[act] = true
		if !t.activeKeys[act] {
			slog.Debug("Key press", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		}
	}

	for act := range t.activeKeys {
		if !currentlyActive[act] {
			slog.Debug("Key release", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	t.activeKeys = currentlyActive

	for _, evt := range t.eventQueue {
		slog.Debug("UI event", "action", evt.Action, "type", evt.Type)
	}
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	if !t.running {
		return events, nil
	}

	t.currentSurface = surface
	t.render(surface)
	t.screen.Show()

	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

// HandleAction processes backend-specific actions
func (t *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorSnapshot:
		debug.TakeSnapshot(t.currentSurface)
	case action.EmulatorDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
		if t.config.ShowDebug {
			slog.Info("Debug display enabled")
		} else {
			slog.Info("Debug display disabled")
		}
	case action.DebugLogLevelIncrease:
		t.changeLogLevel(1)
	case action.DebugLogLevelDecrease:
		t.changeLogLevel(-1)
	}
}

// SetBeep rings the terminal bell when the sound timer starts.
func (t *Backend) SetBeep(on bool) {
	if on && !t.beep && t.screen != nil {
		t.screen.Beep()
	}
	t.beep = on
}

func (t *Backend) quit() {
	if !t.running {
		return
	}
	t.running = false
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	if t.config.Callbacks.OnQuit != nil {
		t.config.Callbacks.OnQuit()
	}
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	if ev.Key() == tcell.KeyCtrlC {
		t.quit()
		return
	}

	if act, exists := keyMapping[ev.Key()]; exists {
		t.processAction(act, now)
		return
	}

	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if act, exists := runeMapping[r]; exists {
			slog.Debug("Key event (rune)", "rune", string(r), "action", act)
			t.processAction(act, now)
		}
	}
}

func (t *Backend) processAction(act action.Action, now time.Time) {
	if act == action.EmulatorQuit {
		t.quit()
		return
	}
	if act.IsKeypad() {
		t.keyStates[act] = now
		return
	}
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEscape: "Escape",
	tcell.KeyF2:     "F2",
	tcell.KeyF5:     "F5",
	tcell.KeyF9:     "F9",
	tcell.KeyF10:    "F10",
	tcell.KeyF12:    "F12",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, keyName := range tcellKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}
	return mapping
}

// buildRuneMapping maps every single character key of the default mappings,
// plus the space bar
func buildRuneMapping() map[rune]action.Action {
	mapping := make(map[rune]action.Action)
	for keyName, act := range input.DefaultKeyMap {
		if r := []rune(keyName); len(r) == 1 {
			mapping[r[0]] = act
		}
	}
	if act, ok := input.GetDefaultMapping("Space"); ok {
		mapping[' '] = act
	}
	return mapping
}

var (
	keyMapping  = buildKeyMapping()
	runeMapping = buildRuneMapping()
)

func (t *Backend) changeLogLevel(direction int) {
	oldLevel := t.logLevel
	switch direction {
	case -1:
		switch t.logLevel {
		case slog.LevelDebug:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelError
		}
	case 1:
		switch t.logLevel {
		case slog.LevelError:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelDebug
		}
	}
	if oldLevel != t.logLevel {
		slog.Info("Log filter changed", "from", oldLevel, "to", t.logLevel)
	}
}

func (t *Backend) render(surface *video.Surface) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	dividerX := width + 1
	rightPanelX := dividerX + 2
	rightPanelWidth := termWidth - rightPanelX

	t.drawBorders(termWidth, termHeight, dividerX)
	t.drawSurface(surface)

	logsY := 1
	if t.config.ShowDebug && t.debugProvider != nil {
		data := t.debugProvider.DebugData()
		t.drawRegisters(data, rightPanelX, 1, rightPanelWidth)
		t.drawDisassembly(data, rightPanelX, registerHeight+2, rightPanelWidth)
		logsY = registerHeight + disasmHeight + 3
	}
	t.drawLogs(rightPanelX, logsY, rightPanelWidth, termHeight)
}

func (t *Backend) drawBorders(termWidth, termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 0; y < termHeight-1; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}

	title := " CHIP-8 "
	if t.config.Title != "" {
		title = fmt.Sprintf(" CHIP-8: %s ", t.config.Title)
	}
	t.drawText(1, 0, dividerX-1, title, titleStyle)

	if t.config.ShowDebug && t.debugProvider != nil {
		registerEndY := registerHeight + 1
		disasmEndY := registerEndY + disasmHeight + 1
		for _, y := range []int{registerEndY, disasmEndY} {
			for x := dividerX + 1; x < termWidth; x++ {
				t.screen.SetContent(x, y, '─', nil, borderStyle)
			}
			t.screen.SetContent(dividerX, y, '├', nil, borderStyle)
		}

		t.drawText(dividerX+2, 0, termWidth, " Registers ", titleStyle)
		t.drawText(dividerX+2, registerEndY, termWidth, " Disassembly ", titleStyle)
		t.drawText(dividerX+2, disasmEndY, termWidth, fmt.Sprintf(" Logs [%s] (-/+ filter) ", t.logLevel), titleStyle)
	}

	help := " SPACE=pause N=step M=frame F2=restart F5/F9=save/load F10=debug F12=snapshot [/]=speed ESC=quit "
	t.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

// drawSurface renders two display rows per terminal row.
func (t *Backend) drawSurface(surface *video.Surface) {
	if surface == nil {
		return
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			char := render.GetHalfBlockChar(surface.Get(x, y), surface.Get(x, y+1))
			t.screen.SetContent(x, y/2+1, char, nil, style)
		}
	}
}

func (t *Backend) drawRegisters(data *debug.Data, startX, startY, width int) {
	if data == nil || data.CPU == nil || width <= 0 {
		return
	}
	cpu := data.CPU

	beep := "OFF"
	if data.Beep {
		beep = "ON"
	}

	lines := []string{
		fmt.Sprintf("Status: %s  Beep: %s", data.State, beep),
	}
	for row := 0; row < 4; row++ {
		var sb strings.Builder
		for col := 0; col < 4; col++ {
			n := row*4 + col
			fmt.Fprintf(&sb, "V%X:%02X ", n, cpu.V[n])
		}
		lines = append(lines, strings.TrimSpace(sb.String()))
	}
	lines = append(lines,
		fmt.Sprintf("I: 0x%04X  PC: 0x%04X", cpu.I, cpu.PC),
		fmt.Sprintf("DT: %02X  ST: %02X  SP: %d", cpu.DelayTimer, cpu.SoundTimer, len(cpu.Stack)),
		fmt.Sprintf("Keys: %s", formatKeys(cpu.Keys)),
		fmt.Sprintf("Frame: %d left  Breakpoints: %d", data.InstructionsLeft, len(data.Breakpoints)),
	)

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range lines {
		if i >= registerHeight {
			break
		}
		t.drawText(startX, startY+i, startX+width, line, style)
	}
}

func formatKeys(mask uint16) string {
	var keys []string
	for k := 0; k < 16; k++ {
		if mask&(1<<k) != 0 {
			keys = append(keys, fmt.Sprintf("%X", k))
		}
	}
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, " ")
}

func (t *Backend) drawDisassembly(data *debug.Data, startX, startY, width int) {
	if data == nil || data.CPU == nil || data.Memory == nil || width <= 0 {
		return
	}

	breakpoints := make(map[uint16]bool, len(data.Breakpoints))
	for _, addr := range data.Breakpoints {
		breakpoints[addr] = true
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, line := range debug.CreateDisassembly(data.Memory, data.CPU.PC, disasmHeight) {
		marker := ' '
		if breakpoints[line.Address] {
			marker = '●'
		}
		if line.IsCurrent {
			marker = '→'
		}

		text := fmt.Sprintf("%c 0x%04X: %04X  %s", marker, line.Address, line.Word, line.Instruction)
		useStyle := style
		if line.IsCurrent {
			useStyle = currentStyle
		}
		t.drawText(startX, startY+i, startX+width, text, useStyle)
	}
}

func (t *Backend) drawLogs(startX, startY, width, termHeight int) {
	availableHeight := termHeight - startY - 1
	if width <= 0 || availableHeight <= 0 {
		return
	}

	var logs []render.LogEntry
	for _, entry := range t.logBuffer.GetRecent(0) {
		if entry.Level >= t.logLevel {
			logs = append(logs, entry)
			if len(logs) >= availableHeight {
				break
			}
		}
	}

	for i, entry := range logs {
		style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
		switch entry.Level {
		case slog.LevelDebug:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		case slog.LevelWarn:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		case slog.LevelError:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		}

		text := render.Truncate(render.FormatLogEntry(entry), width)
		t.drawText(startX, startY+i, startX+width, text, style)
	}
}

// drawText writes s from (x, y), stopping before column maxX.
func (t *Backend) drawText(x, y, maxX int, s string, style tcell.Style) {
	for _, ch := range s {
		if x >= maxX {
			return
		}
		t.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
