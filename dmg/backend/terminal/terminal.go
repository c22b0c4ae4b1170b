package terminal

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-dmg/dmg/backend"
	"github.com/valerio/go-dmg/dmg/debug"
	"github.com/valerio/go-dmg/dmg/input"
	"github.com/valerio/go-dmg/dmg/input/action"
	"github.com/valerio/go-dmg/dmg/input/event"
	"github.com/valerio/go-dmg/dmg/render"
	"github.com/valerio/go-dmg/dmg/video"
)

const (
	width          = video.FramebufferWidth
	registerHeight = 4
	disasmHeight   = 9
	minTermWidth   = 40
	minTermHeight  = 12

	// keyTimeout is how long a key counts as held after its last event,
	// slightly longer than the usual key repeat interval. Terminals only
	// report presses.
	keyTimeout = 100 * time.Millisecond
)

// shadeColors maps frame shades (0 lightest) to terminal colors.
var shadeColors = [4]tcell.Color{
	tcell.ColorWhite,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlack,
}

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen      tcell.Screen
	logBuffer   *LogBuffer
	logLevel    slog.Level
	config      backend.Config
	snapshotDir string

	eventQueue []backend.InputEvent
	keyStates  map[action.Action]time.Time // Last time each key was seen
	activeKeys map[action.Action]bool      // Keys active in previous frame
	signals    chan os.Signal

	currentFrame *video.Frame
	now          func() time.Time
}

type Option func(*Backend)

// WithScreen uses s instead of the real terminal.
func WithScreen(s tcell.Screen) Option {
	return func(t *Backend) { t.screen = s }
}

// WithLogLevel sets the minimum level shown in the log panel.
func WithLogLevel(level slog.Level) Option {
	return func(t *Backend) { t.logLevel = level }
}

// WithSnapshotDir sets where F12 snapshots are written.
func WithSnapshotDir(dir string) Option {
	return func(t *Backend) { t.snapshotDir = dir }
}

// New creates a new terminal backend
func New(opts ...Option) *Backend {
	t := &Backend{
		logLevel:    slog.LevelInfo,
		snapshotDir: ".",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init takes over the terminal. Logging is redirected to the log panel
// until Cleanup.
func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	t.logBuffer = NewLogBuffer(100)
	slog.SetDefault(slog.New(NewLogHandler(t.logBuffer, t.logLevel)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	slog.Info("Terminal backend initialized", "title", config.Title)
	return nil
}

// Update renders a frame and returns the input gathered since the last call.
func (t *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	select {
	case sig := <-t.signals:
		slog.Info("Received signal", "signal", sig)
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	default:
	}

	events := t.gameInputEvents(now)
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	t.currentFrame = frame
	t.render(frame)
	t.screen.Show()

	return events, nil
}

// gameInputEvents turns the last time each button was seen into
// Press/Hold/Release transitions.
func (t *Backend) gameInputEvents(now time.Time) []backend.InputEvent {
	var events []backend.InputEvent
	active := make(map[action.Action]bool)

	for act, last := range t.keyStates {
		if now.Sub(last) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		active[act] = true
		if t.activeKeys[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		} else {
			slog.Debug("Key press", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		}
	}

	for act := range t.activeKeys {
		if !active[act] {
			slog.Debug("Key release", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}

	t.activeKeys = active
	return events
}

// Cleanup restores the terminal and the default logger.
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: t.logLevel})))

	// warnings would otherwise vanish with the log panel
	if t.logBuffer != nil {
		recent := t.logBuffer.Recent(10)
		for i := len(recent) - 1; i >= 0; i-- {
			if recent[i].Level >= slog.LevelWarn {
				fmt.Fprintln(os.Stderr, recent[i])
			}
		}
	}
	return nil
}

// HandleAction processes backend-specific actions
func (t *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorSnapshot:
		name := fmt.Sprintf("snapshot_%s", t.now().Format("20060102_150405"))
		if _, err := debug.SaveSnapshot(t.currentFrame, name, t.snapshotDir, debug.SnapshotPNG); err != nil {
			slog.Error("Failed to save snapshot", "error", err)
		}
	case action.EmulatorDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
		slog.Info("Debug panel toggled", "visible", t.config.ShowDebug)
	}
}

// keyNames converts tcell keys to key names used in default mappings
var keyNames = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyTab:    "Tab",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF10:    "F10",
	tcell.KeyF12:    "F12",
}

func lookupKey(ev *tcell.EventKey) (action.Action, bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return action.EmulatorQuit, true
	case tcell.KeyRune:
		name := string(ev.Rune())
		if ev.Rune() == ' ' {
			name = "Space"
		}
		return input.GetDefaultMapping(name)
	}
	if name, ok := keyNames[ev.Key()]; ok {
		return input.GetDefaultMapping(name)
	}
	return 0, false
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	act, ok := lookupKey(ev)
	if !ok {
		return
	}

	if action.GetInfo(act).Category != action.CategoryGameInput {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
		return
	}

	if isDirection(act) {
		// a terminal can't report two held arrows, the newest one wins
		for _, dir := range []action.Action{action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight} {
			delete(t.keyStates, dir)
		}
	}
	t.keyStates[act] = now
}

func isDirection(act action.Action) bool {
	switch act {
	case action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight:
		return true
	}
	return false
}

func (t *Backend) render(frame *video.Frame) {
	t.screen.Clear()

	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	dividerX := width + 1
	panelX := dividerX + 2
	panelWidth := termWidth - panelX

	title := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	border := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	t.drawText(1, 0, width, " Game Boy ", title)
	t.drawGameBoy(frame)
	for y := range termHeight - 1 {
		t.screen.SetContent(dividerX, y, '│', nil, border)
	}

	logsY := 0
	if t.config.ShowDebug && t.config.DebugProvider != nil && panelWidth > 0 {
		t.drawText(panelX, 0, panelWidth, " CPU ", title)
		t.drawRegisters(panelX, 1, panelWidth)

		disasmY := registerHeight + 2
		t.drawText(panelX, disasmY, panelWidth, " Disassembly ", title)
		t.drawDisassembly(panelX, disasmY+1, panelWidth)

		logsY = disasmY + disasmHeight + 2
	}

	if panelWidth > 0 && logsY < termHeight-1 {
		t.drawText(panelX, logsY, panelWidth, " Logs ", title)
		t.drawLogs(panelX, logsY+1, panelWidth, termHeight-2-logsY)
	}

	help := " Z/X=A/B Enter=Start Tab=Select  F10=debug SPACE=pause N=step F=frame F12=snapshot Q=quit "
	t.drawText(0, termHeight-1, termWidth, help, border)
}

func (t *Backend) drawGameBoy(frame *video.Frame) {
	if frame == nil {
		return
	}
	for row, cells := range render.Cells(frame) {
		for x, c := range cells {
			fg, bg := shadeColors[c.Top&3], shadeColors[c.Bottom&3]
			if c.Rune == '▄' {
				fg, bg = bg, fg
			}
			t.screen.SetContent(x, row+1, c.Rune, nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
	}
}

func (t *Backend) drawRegisters(x, y, maxWidth int) {
	provider := t.config.DebugProvider

	var buf bytes.Buffer
	if err := debug.FormatState(&buf, provider.CPUState()); err != nil {
		return
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	status := "RUNNING"
	if provider.Paused() {
		status = "PAUSED"
	}
	lines = append([]string{"Status: " + status}, lines...)

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range lines[:min(len(lines), registerHeight)] {
		t.drawText(x, y+i, maxWidth, line, style)
	}
}

func (t *Backend) drawDisassembly(x, y, maxWidth int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	current := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, line := range t.config.DebugProvider.Disassembly(disasmHeight) {
		text := fmt.Sprintf("  %04X: %s", line.Address, line.Instruction)
		s := style
		if line.IsCurrent {
			text = "→" + text[1:]
			s = current
		}
		t.drawText(x, y+i, maxWidth, text, s)
	}
}

func (t *Backend) drawLogs(x, y, maxWidth, maxLines int) {
	if maxLines <= 0 {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}

	for i, entry := range t.logBuffer.Recent(maxLines) {
		text := entry.String()
		if len([]rune(text)) > maxWidth && maxWidth > 3 {
			text = string([]rune(text)[:maxWidth-3]) + "..."
		}
		t.drawText(x, y+i, maxWidth, text, styles[entry.Level])
	}
}

// drawText writes s starting at (x, y), clipped to maxWidth cells.
func (t *Backend) drawText(x, y, maxWidth int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		if i >= maxWidth {
			return
		}
		t.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}
