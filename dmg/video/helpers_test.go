package video

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/memory"
)

const defaultPalette = 0xE4

var (
	solidColor1 = [16]byte{0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	solidColor2 = [16]byte{0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF}
	solidColor3 = [16]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// newTestBus returns a bus with the LCD off and identity palettes, so
// VRAM and OAM can be written freely.
func newTestBus() *memory.MMU {
	m := memory.NewWithoutCartridge()
	m.Write(addr.BGP, defaultPalette)
	m.Write(addr.OBP0, defaultPalette)
	m.Write(addr.OBP1, defaultPalette)
	return m
}

func writeTile(m *memory.MMU, address uint16, data [16]byte) {
	for i, b := range data {
		m.Write(address+uint16(i), b)
	}
}

// writeSprite places OAM entry index at screen position (x, y).
func writeSprite(m *memory.MMU, index int, x, y int, tile, flags byte) {
	base := addr.OAMStart + uint16(index*4)
	m.Write(base, byte(y+16))
	m.Write(base+1, byte(x+8))
	m.Write(base+2, tile)
	m.Write(base+3, flags)
}

// renderFrame turns the LCD on with lcdc and runs a whole frame.
func renderFrame(t *testing.T, m *memory.MMU, lcdc byte) *Frame {
	t.Helper()
	m.Write(addr.LCDC, lcdc)
	p := NewPPU()
	p.Tick(m, CyclesPerFrame)
	require.True(t, p.FrameReady())
	return p.Frame()
}

func row(f *Frame, y, from, to int) []uint8 {
	out := make([]uint8, 0, to-from)
	for x := from; x < to; x++ {
		out = append(out, f.Shade(x, y))
	}
	return out
}
