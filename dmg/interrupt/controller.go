// Package interrupt models the DMG interrupt controller: the IE/IF masks and
// the CPU's master enable flag (IME), including the one-instruction EI delay.
package interrupt

import "github.com/valerio/go-dmg/dmg/bit"

// Source is one of the five interrupt lines. Its value is the bit index
// used in both IE and IF, which is also its priority (lower wins).
type Source uint8

const (
	// VBlank is fired when the PPU has completed a frame.
	VBlank Source = iota
	// LCDStat is fired based on one of the conditions in the STAT register.
	LCDStat
	// Timer is fired when TIMA overflows and has been reloaded from TMA.
	Timer
	// Serial is fired when a serial transfer has completed.
	Serial
	// Joypad is fired when any of the keypad inputs goes from high to low.
	Joypad
)

const (
	// sourceCount is the number of defined interrupt lines.
	sourceCount = 5
	// Mask covers the bits of IE/IF that map to a Source.
	Mask uint8 = 0x1F

	baseVector uint16 = 0x40
)

// Vector returns the address of the handler for the interrupt.
// Handlers are 8 bytes apart: 0x40, 0x48, 0x50, 0x58, 0x60.
func (s Source) Vector() uint16 {
	return baseVector + uint16(s)*8
}

func (s Source) String() string {
	switch s {
	case VBlank:
		return "VBlank"
	case LCDStat:
		return "STAT"
	case Timer:
		return "Timer"
	case Serial:
		return "Serial"
	case Joypad:
		return "Joypad"
	default:
		return "Unknown"
	}
}

// Controller holds the interrupt enable and request masks plus IME.
type Controller struct {
	enabled   uint8
	requested uint8

	ime bool
	// imeDelay counts the instructions left before a pending EI sets IME.
	imeDelay int
}

// NewController returns a controller with everything cleared.
func NewController() *Controller {
	return &Controller{}
}

// Request sets the pending bit of the source.
func (c *Controller) Request(s Source) {
	c.requested = bit.Set(uint8(s), c.requested)
}

// Acknowledge clears the pending bit of the source, called once the CPU
// dispatched to its handler.
func (c *Controller) Acknowledge(s Source) {
	c.requested = bit.Clear(uint8(s), c.requested)
}

// SetEnabledMask is a write to the IE register.
func (c *Controller) SetEnabledMask(mask uint8) {
	c.enabled = mask
}

// EnabledMask is a read of the IE register.
func (c *Controller) EnabledMask() uint8 {
	return c.enabled
}

// SetRequestedMask is a write to the IF register.
func (c *Controller) SetRequestedMask(mask uint8) {
	c.requested = mask & Mask
}

// RequestedMask is a read of the IF register. The upper 3 bits are unused
// and always read as 1.
func (c *Controller) RequestedMask() uint8 {
	return c.requested | 0xE0
}

// HasPending reports whether any interrupt is both requested and enabled,
// regardless of IME. This is the condition that wakes the CPU from HALT.
func (c *Controller) HasPending() bool {
	return c.enabled&c.requested&Mask != 0
}

// Pending returns the highest priority interrupt that is both requested
// and enabled.
func (c *Controller) Pending() (Source, bool) {
	active := c.enabled & c.requested & Mask
	if active == 0 {
		return 0, false
	}

	for i := uint8(0); i < sourceCount; i++ {
		if bit.IsSet(i, active) {
			return Source(i), true
		}
	}

	return 0, false
}

// MasterEnabled reports the IME flag.
func (c *Controller) MasterEnabled() bool {
	return c.ime
}

// EnableMaster sets IME right away, as RETI does.
func (c *Controller) EnableMaster() {
	c.ime = true
	c.imeDelay = 0
}

// EnableMasterDelayed schedules IME to be set after the instruction
// following EI has executed.
func (c *Controller) EnableMasterDelayed() {
	if c.ime || c.imeDelay > 0 {
		return
	}
	// the EI instruction itself retires first, then the next one.
	c.imeDelay = 2
}

// DisableMaster clears IME and cancels a pending EI.
func (c *Controller) DisableMaster() {
	c.ime = false
	c.imeDelay = 0
}

// EnablePending reports whether an EI is waiting to take effect.
func (c *Controller) EnablePending() bool {
	return c.imeDelay > 0
}

// InstructionRetired must be called once after every executed instruction.
func (c *Controller) InstructionRetired() {
	if c.imeDelay == 0 {
		return
	}

	c.imeDelay--
	if c.imeDelay == 0 {
		c.ime = true
	}
}
