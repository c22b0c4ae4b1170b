package input

import (
	"time"

	"github.com/valerio/go-dmg/dmg/input/action"
	"github.com/valerio/go-dmg/dmg/input/event"
	"github.com/valerio/go-dmg/dmg/memory"
)

const (
	// debounceDuration is the minimum time between two presses of the same
	// emulator action.
	debounceDuration = 300 * time.Millisecond
)

// Joypad receives the Game Boy button actions.
type Joypad interface {
	Press(b memory.Button)
	Release(b memory.Button)
}

// Manager routes actions: Game Boy buttons go straight to the joypad,
// everything else to the callbacks registered with On.
type Manager struct {
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]time.Time
	joypad        Joypad
	now           func() time.Time
}

func NewManager(j Joypad) *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]time.Time),
		joypad:        j,
		now:           time.Now,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type. It returns false when
// the event was dropped by the debouncer.
func (m *Manager) Trigger(act action.Action, evt event.Type) bool {
	if button, ok := joypadButton(act); ok {
		if m.joypad != nil {
			switch evt {
			case event.Press:
				m.joypad.Press(button)
			case event.Release:
				m.joypad.Release(button)
			}
		}
		return true
	}

	// emulator actions toggle state, a held key must not flip it repeatedly
	if evt == event.Press {
		now := m.now()
		if last, ok := m.lastTriggered[act]; ok && now.Sub(last) < debounceDuration {
			return false
		}
		m.lastTriggered[act] = now
	}

	for _, callback := range m.handlers[act][evt] {
		callback()
	}
	return true
}

// joypadButton maps Game Boy actions to joypad buttons
func joypadButton(act action.Action) (memory.Button, bool) {
	switch act {
	case action.GBButtonA:
		return memory.ButtonA, true
	case action.GBButtonB:
		return memory.ButtonB, true
	case action.GBButtonStart:
		return memory.ButtonStart, true
	case action.GBButtonSelect:
		return memory.ButtonSelect, true
	case action.GBDPadUp:
		return memory.ButtonUp, true
	case action.GBDPadDown:
		return memory.ButtonDown, true
	case action.GBDPadLeft:
		return memory.ButtonLeft, true
	case action.GBDPadRight:
		return memory.ButtonRight, true
	default:
		return 0, false
	}
}
