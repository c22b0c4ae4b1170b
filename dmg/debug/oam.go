package debug

import (
	"fmt"

	"github.com/valerio/go-dmg/dmg/video"
)

const MaxSpritesPerLine = 10

type SpriteInfo struct {
	video.Sprite
	IsVisible bool
}

type OAMData struct {
	Sprites       []SpriteInfo
	CurrentLine   int
	ActiveSprites int
	SpriteHeight  int
}

// ExtractOAMData decodes the 40 OAM entries and marks those overlapping
// currentLine. Like the PPU, only the first 10 in OAM order are active.
func ExtractOAMData(sprites []video.Sprite, currentLine int) *OAMData {
	data := &OAMData{
		Sprites:     make([]SpriteInfo, len(sprites)),
		CurrentLine: currentLine,
	}

	for i, s := range sprites {
		data.SpriteHeight = s.Height
		visible := s.Y <= currentLine && currentLine < s.Y+s.Height &&
			data.ActiveSprites < MaxSpritesPerLine
		if visible {
			data.ActiveSprites++
		}
		data.Sprites[i] = SpriteInfo{Sprite: s, IsVisible: visible}
	}

	return data
}

func (s *SpriteInfo) String() string {
	status := "OFF"
	if s.IsVisible {
		status = "ACTIVE"
	}
	return fmt.Sprintf("Sprite %2d: Y=%3d X=%3d  Tile=0x%02X Flags=0x%02X [%s]",
		s.OAMIndex, s.Y, s.X, s.TileIndex, s.Flags, status)
}

func (data *OAMData) GetVisibleSprites() []SpriteInfo {
	visible := make([]SpriteInfo, 0, data.ActiveSprites)
	for _, sprite := range data.Sprites {
		if sprite.IsVisible {
			visible = append(visible, sprite)
		}
	}
	return visible
}

func (data *OAMData) FormatSummary() string {
	return fmt.Sprintf("Current Line: %d | Active Sprites: %d/%d | Height: %dpx",
		data.CurrentLine, data.ActiveSprites, MaxSpritesPerLine, data.SpriteHeight)
}
