// Package video implements the DMG picture processing unit: the per-line
// mode state machine, STAT/V-Blank interrupts and the scanline renderer.
package video

import (
	"github.com/valerio/go-dmg/dmg/bit"
	"github.com/valerio/go-dmg/dmg/interrupt"
	"github.com/valerio/go-dmg/dmg/memory"
)

// Mode is the PPU mode, as reported in STAT bits 0-1.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMSearch
	PixelTransfer
)

func (m Mode) String() string {
	switch m {
	case HBlank:
		return "H-Blank"
	case VBlank:
		return "V-Blank"
	case OAMSearch:
		return "OAM search"
	case PixelTransfer:
		return "pixel transfer"
	default:
		return "unknown"
	}
}

const (
	dotsPerLine     = 456
	oamSearchDots   = 80
	minTransferDots = 172
	maxTransferDots = 289
	visibleLines    = FramebufferHeight
	linesPerFrame   = 154

	// CyclesPerFrame is the length of a frame in clock cycles (dots).
	CyclesPerFrame = dotsPerLine * linesPerFrame
)

// LCDC bits
const (
	lcdcBGEnable       = 0
	lcdcSpriteEnable   = 1
	lcdcSpriteSize     = 2
	lcdcBGTileMap      = 3
	lcdcTileDataSelect = 4
	lcdcWindowEnable   = 5
	lcdcWindowTileMap  = 6
)

// STAT interrupt source bits
const (
	statCoincidence  = 2
	statHBlankSource = 3
	statVBlankSource = 4
	statOAMSource    = 5
	statLYCSource    = 6
)

// Bus is what the PPU needs from the memory bus. The PPU owns the
// VRAM/OAM locks, so it reads video memory through unlocked accessors.
type Bus interface {
	VRAM(address uint16) uint8
	OAM(index int) uint8
	LCDRegisters() memory.LCDRegisters
	SetLY(ly uint8)
	SetSTATMode(mode uint8)
	SetCoincidence(equal bool)
	Interrupts() *interrupt.Controller
}

// PPU walks 154 lines of 456 dots each, composing a scanline at the end of
// pixel transfer and publishing the frame on V-Blank entry.
type PPU struct {
	line         int
	dot          int
	mode         Mode
	transferDots int
	lcdOn        bool

	// statLine is the OR of all enabled STAT sources, the interrupt fires
	// on its rising edge.
	statLine bool

	windowTriggered bool // WY matched LY at some point this frame
	windowOnLine    bool
	windowLine      int // internal line counter, only advances when the window is drawn

	spriteBuf [maxSpritesPerLine]Sprite
	sprites   []Sprite
	bgIndex   [FramebufferWidth]uint8

	back       Frame
	front      Frame
	frameReady bool
	frames     uint64
}

// NewPPU creates a PPU. It stays idle until it sees the LCD enabled.
func NewPPU() *PPU {
	p := &PPU{mode: HBlank}
	p.sprites = p.spriteBuf[:0]
	return p
}

// Line returns the current scanline (LY).
func (p *PPU) Line() int { return p.line }

// Dot returns the position within the current line, 0-455.
func (p *PPU) Dot() int { return p.dot }

// Mode returns the current mode.
func (p *PPU) Mode() Mode { return p.mode }

// FrameCount returns how many frames have been published.
func (p *PPU) FrameCount() uint64 { return p.frames }

// FrameReady reports whether a frame was published since the last call
// to Frame.
func (p *PPU) FrameReady() bool { return p.frameReady }

// Frame returns the last completed frame and clears FrameReady. The frame
// is overwritten at the next V-Blank.
func (p *PPU) Frame() *Frame {
	p.frameReady = false
	return &p.front
}

// Tick advances the PPU by the given number of clock cycles (one dot each).
func (p *PPU) Tick(bus Bus, cycles int) {
	if !bus.LCDRegisters().LCDEnabled() {
		if p.lcdOn {
			p.disable(bus)
		}
		return
	}
	if !p.lcdOn {
		p.enable(bus)
	}

	// the CPU may have changed LYC or the STAT enables since the last tick
	p.updateCoincidence(bus)
	p.updateSTATLine(bus)

	for range cycles {
		p.step(bus)
	}
}

func (p *PPU) step(bus Bus) {
	p.dot++

	switch p.mode {
	case OAMSearch:
		if p.dot == oamSearchDots {
			p.startTransfer(bus)
		}
	case PixelTransfer:
		if p.dot == oamSearchDots+p.transferDots {
			p.renderScanline(bus)
			p.setMode(bus, HBlank)
		}
	default:
		if p.dot == dotsPerLine {
			p.dot = 0
			p.nextLine(bus)
		}
	}
}

func (p *PPU) nextLine(bus Bus) {
	p.line++

	switch {
	case p.line == visibleLines:
		p.enterLine(bus, VBlank)
		bus.Interrupts().Request(interrupt.VBlank)
		p.publish(bus)
	case p.line == linesPerFrame:
		p.line = 0
		p.windowTriggered = false
		p.windowLine = 0
		p.enterLine(bus, OAMSearch)
	case p.line < visibleLines:
		p.enterLine(bus, OAMSearch)
	default:
		p.enterLine(bus, VBlank)
	}
}

func (p *PPU) enterLine(bus Bus, mode Mode) {
	bus.SetLY(uint8(p.line))
	p.updateCoincidence(bus)
	p.setMode(bus, mode)
}

func (p *PPU) setMode(bus Bus, mode Mode) {
	p.mode = mode
	bus.SetSTATMode(uint8(mode))
	p.updateSTATLine(bus)
}

func (p *PPU) updateCoincidence(bus Bus) {
	bus.SetCoincidence(uint8(p.line) == bus.LCDRegisters().LYC)
}

// updateSTATLine requests the STAT interrupt when the combined line goes
// from low to high. While any source holds it high, other sources becoming
// true don't fire again.
func (p *PPU) updateSTATLine(bus Bus) {
	stat := bus.LCDRegisters().STAT

	line := (bit.IsSet(statLYCSource, stat) && bit.IsSet(statCoincidence, stat)) ||
		(bit.IsSet(statHBlankSource, stat) && p.mode == HBlank) ||
		(bit.IsSet(statVBlankSource, stat) && p.mode == VBlank) ||
		(bit.IsSet(statOAMSource, stat) && p.mode == OAMSearch)

	if line && !p.statLine {
		bus.Interrupts().Request(interrupt.LCDStat)
	}
	p.statLine = line
}

func (p *PPU) enable(bus Bus) {
	p.lcdOn = true
	p.line = 0
	p.dot = 0
	p.statLine = false
	p.enterLine(bus, OAMSearch)
}

// disable handles LCDC bit 7 going low: LY is held at 0 in mode 0 and the
// screen goes blank.
func (p *PPU) disable(bus Bus) {
	p.lcdOn = false
	p.line = 0
	p.dot = 0
	p.mode = HBlank
	p.statLine = false
	p.windowTriggered = false
	p.windowLine = 0

	bus.SetLY(0)
	bus.SetSTATMode(uint8(HBlank))
	p.updateCoincidence(bus)

	p.back.Clear()
	p.front.Clear()
}

func (p *PPU) startTransfer(bus Bus) {
	regs := bus.LCDRegisters()

	height := 8
	if bit.IsSet(lcdcSpriteSize, regs.LCDC) {
		height = 16
	}
	p.sprites = scanOAM(bus, p.line, height, p.spriteBuf[:0])

	if p.line == int(regs.WY) {
		p.windowTriggered = true
	}
	p.windowOnLine = bit.IsSet(lcdcWindowEnable, regs.LCDC) &&
		bit.IsSet(lcdcBGEnable, regs.LCDC) &&
		p.windowTriggered &&
		regs.WX <= 166

	objects := p.sprites
	if !bit.IsSet(lcdcSpriteEnable, regs.LCDC) {
		objects = nil
	}
	p.transferDots = transferLength(regs.SCX, objects, p.windowOnLine)
	p.setMode(bus, PixelTransfer)
}

// transferLength estimates the duration of mode 3 in dots: 172 plus the
// pixels discarded for SCX, the fetcher restart when the window starts and
// the sprite fetches. Each sprite costs 6 dots, and the first sprite in a
// background tile also waits for that tile's fetch to finish.
//
// Reference: https://gbdev.io/pandocs/Rendering.html#mode-3-length
func transferLength(scx uint8, sprites []Sprite, window bool) int {
	n := minTransferDots + int(scx%8)
	if window {
		n += 6
	}

	var seenTile [40]bool
	for _, s := range sprites {
		n += 6
		pos := s.X + spriteXOffset + int(scx%8)
		tile := pos / 8
		if tile < len(seenTile) && !seenTile[tile] {
			seenTile[tile] = true
			n += 5 - min(5, pos%8)
		}
	}

	return min(n, maxTransferDots)
}

func (p *PPU) publish(bus Bus) {
	regs := bus.LCDRegisters()
	p.back.Palette = Palette{BGP: regs.BGP, OBP0: regs.OBP0, OBP1: regs.OBP1}
	p.front = p.back
	p.frameReady = true
	p.frames++
}
