package backend

import (
	"github.com/valerio/go-dmg/dmg/debug"
	"github.com/valerio/go-dmg/dmg/input/action"
	"github.com/valerio/go-dmg/dmg/input/event"
	"github.com/valerio/go-dmg/dmg/video"
)

// Backend represents a frontend platform (rendering + input).
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, files, nothing)
// - Translating platform-specific input events to Actions
// - Handling backend-specific features (snapshots, debug panels)
type Backend interface {
	// Init configures the backend. It must be called before Update.
	Init(config Config) error

	// Update presents the frame and returns the input collected since the
	// previous call.
	Update(frame *video.Frame) ([]InputEvent, error)

	// Cleanup releases resources when shutting down.
	Cleanup() error
}

// ActionHandler is implemented by backends that react to emulator actions
// themselves, e.g. toggling a debug panel.
type ActionHandler interface {
	HandleAction(act action.Action)
}

// Config holds configuration for backends
type Config struct {
	Title     string
	ShowDebug bool // Backends may ignore unsupported features

	// DebugProvider gives access to emulator state for debug panels.
	DebugProvider DebugProvider
}

// DebugProvider is the read-only view of the emulator a debug panel needs.
type DebugProvider interface {
	CPUState() debug.CPUState
	Disassembly(count int) []debug.DisasmLine
	Paused() bool
}

// InputEvent is an action together with what happened to it.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}
