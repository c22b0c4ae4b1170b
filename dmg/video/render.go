package video

import (
	"github.com/valerio/go-dmg/dmg/bit"
	"github.com/valerio/go-dmg/dmg/memory"
)

// renderScanline composes the current line into the back buffer: background,
// then window, then sprites.
func (p *PPU) renderScanline(bus Bus) {
	regs := bus.LCDRegisters()
	row := &p.back.Pixels[p.line]

	if bit.IsSet(lcdcBGEnable, regs.LCDC) {
		p.renderBackground(bus, regs, row)
		if p.windowOnLine {
			p.renderWindow(bus, regs, row)
			p.windowLine++
		}
	} else {
		// on DMG the BG enable bit blanks both background and window
		for x := range row {
			row[x] = 0
			p.bgIndex[x] = 0
		}
	}

	if bit.IsSet(lcdcSpriteEnable, regs.LCDC) {
		p.renderSprites(bus, regs, row)
	}
}

func (p *PPU) renderBackground(bus Bus, regs memory.LCDRegisters, row *[FramebufferWidth]uint8) {
	mapBase := tileMapLow
	if bit.IsSet(lcdcBGTileMap, regs.LCDC) {
		mapBase = tileMapHigh
	}
	unsigned := bit.IsSet(lcdcTileDataSelect, regs.LCDC)

	y := (p.line + int(regs.SCY)) & 0xFF
	mapRow := uint16(y/8) * 32

	var tile TileRow
	cachedCol := -1
	for x := range FramebufferWidth {
		bx := (x + int(regs.SCX)) & 0xFF
		col := bx / 8
		if col != cachedCol {
			tileNumber := bus.VRAM(mapBase + mapRow + uint16(col))
			tile = fetchTileRow(bus, bgTileAddress(tileNumber, unsigned), y%8)
			cachedCol = col
		}

		index := tile.Pixel(bx%8, false)
		p.bgIndex[x] = index
		row[x] = applyPalette(regs.BGP, index)
	}
}

func (p *PPU) renderWindow(bus Bus, regs memory.LCDRegisters, row *[FramebufferWidth]uint8) {
	mapBase := tileMapLow
	if bit.IsSet(lcdcWindowTileMap, regs.LCDC) {
		mapBase = tileMapHigh
	}
	unsigned := bit.IsSet(lcdcTileDataSelect, regs.LCDC)

	left := int(regs.WX) - 7
	y := p.windowLine
	mapRow := uint16(y/8) * 32

	var tile TileRow
	cachedCol := -1
	for x := max(left, 0); x < FramebufferWidth; x++ {
		wx := x - left
		col := wx / 8
		if col != cachedCol {
			tileNumber := bus.VRAM(mapBase + mapRow + uint16(col))
			tile = fetchTileRow(bus, bgTileAddress(tileNumber, unsigned), y%8)
			cachedCol = col
		}

		index := tile.Pixel(wx%8, false)
		p.bgIndex[x] = index
		row[x] = applyPalette(regs.BGP, index)
	}
}

// renderSprites draws the sprites selected during OAM search. For each pixel
// the highest priority sprite with an opaque pixel there wins; if it sits
// behind the background and the background isn't color 0, the background
// stays.
func (p *PPU) renderSprites(bus Bus, regs memory.LCDRegisters, row *[FramebufferWidth]uint8) {
	if len(p.sprites) == 0 {
		return
	}

	var sorted [maxSpritesPerLine]Sprite
	n := copy(sorted[:], p.sprites)
	sortByPriority(sorted[:n])

	var rows [maxSpritesPerLine]TileRow
	for i := range n {
		s := &sorted[i]
		tileRow := p.line - s.Y
		if s.FlipY {
			tileRow = s.Height - 1 - tileRow
		}
		tile := s.TileIndex
		if s.Height == 16 {
			tile &= 0xFE
		}
		rows[i] = fetchTileRow(bus, tileDataUnsigned+uint16(tile)*tileBytes, tileRow)
	}

	for x := range FramebufferWidth {
		for i := range n {
			s := &sorted[i]
			px := x - s.X
			if px < 0 || px >= 8 {
				continue
			}

			index := rows[i].Pixel(px, s.FlipX)
			if index == 0 {
				// transparent, a lower priority sprite may show through
				continue
			}

			if s.BehindBG && p.bgIndex[x] != 0 {
				break
			}

			palette := regs.OBP0
			if s.PaletteOBP1 {
				palette = regs.OBP1
			}
			row[x] = applyPalette(palette, index)
			break
		}
	}
}
