package memory

import "github.com/valerio/go-dmg/dmg/bit"

// Button is one of the eight joypad inputs.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

func (b Button) String() string {
	switch b {
	case ButtonRight:
		return "Right"
	case ButtonLeft:
		return "Left"
	case ButtonUp:
		return "Up"
	case ButtonDown:
		return "Down"
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonSelect:
		return "Select"
	case ButtonStart:
		return "Start"
	default:
		return "Unknown"
	}
}

// Joypad tracks the button matrix behind P1. 1 means released, 0 pressed.
type Joypad struct {
	buttons uint8 // A, B, Select, Start in bits 0-3
	dpad    uint8 // Right, Left, Up, Down in bits 0-3
	selectp uint8 // bits 4-5 as last written by the CPU
}

// NewJoypad creates a joypad with nothing pressed and no group selected.
func NewJoypad() *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		selectp: 0x30,
	}
}

// Read computes the P1 register.
//
// Bits 4-5 are selectors, a group is selected when its bit is 0:
//   - bit 4 low maps the d-pad directions to bits 0-3
//   - bit 5 low maps A, B, Select, Start to bits 0-3
//   - both low ANDs the two groups together
//   - neither returns 0x0F
//
// Bits 6-7 are unused and read as 1.
func (j *Joypad) Read() uint8 {
	result := uint8(0b11000000) | j.selectp

	selectDpad := !bit.IsSet(4, j.selectp)
	selectButtons := !bit.IsSet(5, j.selectp)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Write stores the selection bits, the only writable part of P1.
func (j *Joypad) Write(value uint8) {
	j.selectp = value & 0b00110000
}

// Press marks the button as held. It returns true on a released -> pressed
// transition, which is when the Joypad interrupt fires.
func (j *Joypad) Press(b Button) bool {
	group, index := j.line(b)
	was := *group
	*group = bit.Clear(index, *group)
	return was != *group
}

// Release marks the button as no longer held.
func (j *Joypad) Release(b Button) {
	group, index := j.line(b)
	*group = bit.Set(index, *group)
}

func (j *Joypad) line(b Button) (*uint8, uint8) {
	if b <= ButtonDown {
		return &j.dpad, uint8(b)
	}
	return &j.buttons, uint8(b - ButtonA)
}
