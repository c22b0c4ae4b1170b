package memory

import (
	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// STAT mode values, as stored in bits 0-1.
const (
	modeHBlank    uint8 = 0
	modeVBlank    uint8 = 1
	modeOAMSearch uint8 = 2
	modeTransfer  uint8 = 3
)

// LCDRegisters is the register file at 0xFF40-0xFF4B (minus DMA).
type LCDRegisters struct {
	LCDC uint8
	STAT uint8
	SCY  uint8
	SCX  uint8
	LY   uint8
	LYC  uint8
	BGP  uint8
	OBP0 uint8
	OBP1 uint8
	WY   uint8
	WX   uint8
}

// LCDEnabled reports LCDC bit 7.
func (r LCDRegisters) LCDEnabled() bool {
	return bit.IsSet(7, r.LCDC)
}

func (r *LCDRegisters) mode() uint8 {
	return r.STAT & 0x03
}

func (r *LCDRegisters) read(address uint16) uint8 {
	switch address {
	case addr.LCDC:
		return r.LCDC
	case addr.STAT:
		// bit 7 is unused
		return r.STAT | 0x80
	case addr.SCY:
		return r.SCY
	case addr.SCX:
		return r.SCX
	case addr.LY:
		return r.LY
	case addr.LYC:
		return r.LYC
	case addr.BGP:
		return r.BGP
	case addr.OBP0:
		return r.OBP0
	case addr.OBP1:
		return r.OBP1
	case addr.WY:
		return r.WY
	case addr.WX:
		return r.WX
	default:
		return 0xFF
	}
}

func (r *LCDRegisters) write(address uint16, value uint8) {
	switch address {
	case addr.LCDC:
		r.LCDC = value
	case addr.STAT:
		// mode and coincidence bits are owned by the PPU
		r.STAT = (r.STAT & 0x07) | (value & 0x78)
	case addr.SCY:
		r.SCY = value
	case addr.SCX:
		r.SCX = value
	case addr.LY:
		// read-only
	case addr.LYC:
		r.LYC = value
	case addr.BGP:
		r.BGP = value
	case addr.OBP0:
		r.OBP0 = value
	case addr.OBP1:
		r.OBP1 = value
	case addr.WY:
		r.WY = value
	case addr.WX:
		r.WX = value
	}
}

// The accessors below are for the PPU, which owns the VRAM/OAM locks and
// so must bypass them.

// VRAM reads video memory at the given CPU address (0x8000-0x9FFF).
func (m *MMU) VRAM(address uint16) uint8 {
	return m.vram[(address-addr.VRAMStart)&0x1FFF]
}

// OAM reads byte index (0-159) of object attribute memory.
func (m *MMU) OAM(index int) uint8 {
	return m.oam[index%addr.OAMSize]
}

// LCDRegisters returns a copy of the LCD register file.
func (m *MMU) LCDRegisters() LCDRegisters {
	return m.lcd
}

// SetLY updates the current scanline.
func (m *MMU) SetLY(ly uint8) {
	m.lcd.LY = ly
}

// SetSTATMode updates STAT bits 0-1, which also drives the VRAM/OAM locks.
func (m *MMU) SetSTATMode(mode uint8) {
	m.lcd.STAT = (m.lcd.STAT &^ 0x03) | (mode & 0x03)
}

// SetCoincidence updates the LY=LYC flag, STAT bit 2.
func (m *MMU) SetCoincidence(equal bool) {
	m.lcd.STAT = bit.SetTo(2, m.lcd.STAT, equal)
}
