package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorDebugToggle
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorStepInstruction
	EmulatorQuit
)

// Category groups actions by who consumes them.
type Category int

const (
	// CategoryGameInput actions end up on the joypad.
	CategoryGameInput Category = iota
	// CategoryEmulator actions drive the emulator or the frontend.
	CategoryEmulator
)

// Info describes an action for logs and help screens.
type Info struct {
	Description string
	Category    Category
}

var infos = map[Action]Info{
	GBButtonA:               {"A", CategoryGameInput},
	GBButtonB:               {"B", CategoryGameInput},
	GBButtonStart:           {"Start", CategoryGameInput},
	GBButtonSelect:          {"Select", CategoryGameInput},
	GBDPadUp:                {"Up", CategoryGameInput},
	GBDPadDown:              {"Down", CategoryGameInput},
	GBDPadLeft:              {"Left", CategoryGameInput},
	GBDPadRight:             {"Right", CategoryGameInput},
	EmulatorDebugToggle:     {"Toggle debug panel", CategoryEmulator},
	EmulatorSnapshot:        {"Save frame snapshot", CategoryEmulator},
	EmulatorPauseToggle:     {"Pause/resume", CategoryEmulator},
	EmulatorStepFrame:       {"Step one frame", CategoryEmulator},
	EmulatorStepInstruction: {"Step one instruction", CategoryEmulator},
	EmulatorQuit:            {"Quit", CategoryEmulator},
}

// GetInfo returns the description and category of act.
func GetInfo(act Action) Info {
	if info, ok := infos[act]; ok {
		return info
	}
	return Info{Description: "Unknown", Category: CategoryEmulator}
}

func (a Action) String() string {
	return GetInfo(a).Description
}
