package video

import (
	"github.com/valerio/go-dmg/dmg/bit"
)

const (
	oamEntries        = 40
	maxSpritesPerLine = 10
	spriteYOffset     = 16
	spriteXOffset     = 8
	spriteBytes       = 4
)

// Sprite represents a single object in OAM (0xFE00-0xFE9F).
type Sprite struct {
	Y         int   // screen Y of the top row, without the +16 offset
	X         int   // screen X of the leftmost column, without the +8 offset
	TileIndex uint8 // tile number, bit 0 ignored for 8x16 sprites
	Flags     uint8 // attribute byte
	OAMIndex  int   // 0-39
	Height    int   // 8 or 16, from LCDC bit 2

	// parsed attribute flags
	PaletteOBP1 bool // false = OBP0, true = OBP1
	FlipX       bool
	FlipY       bool
	BehindBG    bool // BG colors 1-3 are drawn over the sprite
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// oamReader is the slice of the bus needed to scan OAM.
type oamReader interface {
	OAM(index int) uint8
}

// readSprite decodes OAM entry index (0-39).
func readSprite(bus oamReader, index int, height int) Sprite {
	base := index * spriteBytes
	s := Sprite{
		Y:         int(bus.OAM(base)) - spriteYOffset,
		X:         int(bus.OAM(base+1)) - spriteXOffset,
		TileIndex: bus.OAM(base + 2),
		Flags:     bus.OAM(base + 3),
		OAMIndex:  index,
		Height:    height,
	}
	s.parseFlags()
	return s
}

// scanOAM collects the sprites overlapping the line, in OAM order, up to the
// hardware limit of 10. Sprites off screen horizontally still count towards
// the limit.
func scanOAM(bus oamReader, line int, height int, out []Sprite) []Sprite {
	out = out[:0]
	for i := range oamEntries {
		y := int(bus.OAM(i*spriteBytes)) - spriteYOffset
		if line < y || line >= y+height {
			continue
		}
		out = append(out, readSprite(bus, i, height))
		if len(out) == maxSpritesPerLine {
			break
		}
	}
	return out
}

// sortByPriority orders sprites the way DMG resolves overlaps: lower X
// wins, then lower OAM index. Insertion sort, there are at most 10.
//
// Reference: https://gbdev.io/pandocs/OAM.html#drawing-priority
func sortByPriority(sprites []Sprite) {
	for i := 1; i < len(sprites); i++ {
		for j := i; j > 0 && higherPriority(sprites[j], sprites[j-1]); j-- {
			sprites[j], sprites[j-1] = sprites[j-1], sprites[j]
		}
	}
}

func higherPriority(a, b Sprite) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.OAMIndex < b.OAMIndex
}

// AllSprites decodes the 40 OAM entries, useful for debug tools.
func AllSprites(bus oamReader, tall bool) []Sprite {
	height := 8
	if tall {
		height = 16
	}
	result := make([]Sprite, oamEntries)
	for i := range oamEntries {
		result[i] = readSprite(bus, i, height)
	}
	return result
}
