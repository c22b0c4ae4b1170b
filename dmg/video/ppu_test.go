package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/interrupt"
)

func TestFrameTiming(t *testing.T) {
	m := newTestBus()
	m.Write(addr.LCDC, 0x91)
	p := NewPPU()

	p.Tick(m, 144*dotsPerLine-1)
	assert.False(t, p.FrameReady())
	assert.Equal(t, byte(143), m.Read(addr.LY))

	p.Tick(m, 1)
	require.True(t, p.FrameReady())
	assert.Equal(t, byte(144), m.Read(addr.LY))
	assert.Equal(t, VBlank, p.Mode())
	assert.Equal(t, byte(0xE1), m.Read(addr.IF), "V-Blank requested")
	p.Frame()

	// exactly one frame until the next V-Blank
	p.Tick(m, CyclesPerFrame-1)
	assert.False(t, p.FrameReady())
	p.Tick(m, 1)
	assert.True(t, p.FrameReady())
	assert.Equal(t, uint64(2), p.FrameCount())
	assert.Equal(t, 70224, CyclesPerFrame)
}

func TestLineWrap(t *testing.T) {
	m := newTestBus()
	m.Write(addr.LCDC, 0x91)
	p := NewPPU()

	p.Tick(m, 153*dotsPerLine)
	assert.Equal(t, byte(153), m.Read(addr.LY))
	assert.Equal(t, VBlank, p.Mode())

	p.Tick(m, dotsPerLine)
	assert.Equal(t, byte(0), m.Read(addr.LY))
	assert.Equal(t, OAMSearch, p.Mode())
}

func TestModeSequence(t *testing.T) {
	m := newTestBus()
	m.Write(addr.LCDC, 0x91)
	p := NewPPU()

	p.Tick(m, 79)
	assert.Equal(t, OAMSearch, p.Mode())
	assert.Equal(t, byte(0x82), m.Read(addr.STAT)&0x83)
	assert.Equal(t, byte(0xFF), m.Read(addr.OAMStart), "OAM locked")

	p.Tick(m, 1)
	assert.Equal(t, PixelTransfer, p.Mode())
	assert.Equal(t, byte(0xFF), m.Read(addr.VRAMStart), "VRAM locked")

	p.Tick(m, minTransferDots-1)
	assert.Equal(t, PixelTransfer, p.Mode())
	p.Tick(m, 1)
	assert.Equal(t, HBlank, p.Mode())
	assert.Equal(t, byte(0x00), m.Read(addr.VRAMStart), "VRAM unlocked")

	p.Tick(m, dotsPerLine-oamSearchDots-minTransferDots-1)
	assert.Equal(t, HBlank, p.Mode())
	p.Tick(m, 1)
	assert.Equal(t, OAMSearch, p.Mode())
	assert.Equal(t, 1, p.Line())
	assert.Equal(t, 0, p.Dot())
}

func TestTransferLength(t *testing.T) {
	assert.Equal(t, 172, transferLength(0, nil, false))
	assert.Equal(t, 175, transferLength(3, nil, false))
	assert.Equal(t, 178, transferLength(0, nil, true))

	// tile aligned sprite: 6 dots, plus the 5 dot wait for its tile
	assert.Equal(t, 172+6+5, transferLength(0, []Sprite{{X: 0}}, false))
	// second sprite in the same tile only pays the 6 dots
	assert.Equal(t, 172+6+5+6, transferLength(0, []Sprite{{X: 0}, {X: 0, OAMIndex: 1}}, false))
	// sprite 5 pixels into a tile
	assert.Equal(t, 172+6, transferLength(0, []Sprite{{X: 5}}, false))

	many := make([]Sprite, 10)
	assert.LessOrEqual(t, transferLength(7, many, true), maxTransferDots)
}

func TestSTATInterrupts(t *testing.T) {
	statBit := byte(1 << interrupt.LCDStat)

	t.Run("H-Blank source", func(t *testing.T) {
		m := newTestBus()
		m.Write(addr.STAT, 0x08)
		m.Write(addr.LCDC, 0x91)
		p := NewPPU()

		p.Tick(m, oamSearchDots+minTransferDots-1)
		assert.Zero(t, m.Read(addr.IF)&statBit)
		p.Tick(m, 1)
		assert.NotZero(t, m.Read(addr.IF)&statBit)
	})

	t.Run("LY=LYC source", func(t *testing.T) {
		m := newTestBus()
		m.Write(addr.LYC, 5)
		m.Write(addr.STAT, 0x40)
		m.Write(addr.LCDC, 0x91)
		p := NewPPU()

		p.Tick(m, 5*dotsPerLine-1)
		assert.Zero(t, m.Read(addr.IF)&statBit)
		assert.Zero(t, m.Read(addr.STAT)&0x04)

		p.Tick(m, 1)
		assert.NotZero(t, m.Read(addr.IF)&statBit)
		assert.NotZero(t, m.Read(addr.STAT)&0x04, "coincidence flag")
	})

	t.Run("STAT blocking", func(t *testing.T) {
		m := newTestBus()
		m.Write(addr.STAT, 0x28) // H-Blank and OAM sources
		m.Write(addr.LCDC, 0x91)
		p := NewPPU()

		// H-Blank of line 0 raises the line
		p.Tick(m, oamSearchDots+minTransferDots)
		assert.NotZero(t, m.Read(addr.IF)&statBit)
		m.Write(addr.IF, 0)

		// H-Blank -> OAM search keeps it high, no new request
		p.Tick(m, dotsPerLine-oamSearchDots-minTransferDots)
		assert.Equal(t, OAMSearch, p.Mode())
		assert.Zero(t, m.Read(addr.IF)&statBit)

		// pixel transfer drops it, the next H-Blank fires again
		p.Tick(m, oamSearchDots+minTransferDots)
		assert.NotZero(t, m.Read(addr.IF)&statBit)
	})

	t.Run("V-Blank source", func(t *testing.T) {
		m := newTestBus()
		m.Write(addr.STAT, 0x10)
		m.Write(addr.LCDC, 0x91)
		p := NewPPU()

		p.Tick(m, 144*dotsPerLine)
		assert.Equal(t, byte(0xE3), m.Read(addr.IF))
	})
}

func TestLCDOff(t *testing.T) {
	m := newTestBus()
	m.Write(addr.LCDC, 0x91)
	p := NewPPU()

	p.Tick(m, 10*dotsPerLine+100)
	assert.Equal(t, byte(10), m.Read(addr.LY))

	m.Write(addr.LCDC, 0x11)
	p.Tick(m, 4)
	assert.Equal(t, byte(0), m.Read(addr.LY))
	assert.Equal(t, HBlank, p.Mode())
	assert.Equal(t, byte(0x00), m.Read(addr.STAT)&0x03)

	p.Tick(m, 2*CyclesPerFrame)
	assert.False(t, p.FrameReady())
	assert.Zero(t, p.FrameCount())

	// turning it back on restarts at line 0 in OAM search
	m.Write(addr.LCDC, 0x91)
	p.Tick(m, 4)
	assert.Equal(t, OAMSearch, p.Mode())
	assert.Equal(t, 0, p.Line())
	assert.Equal(t, 4, p.Dot())
}
