package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadSprite(t *testing.T) {
	m := newTestBus()
	writeSprite(m, 0, 80, 50, 0x42, 0xE0)
	writeSprite(m, 1, 20, 100, 0x10, 0x10)

	sprites := AllSprites(m, false)
	assert.Len(t, sprites, 40)

	s0 := sprites[0]
	assert.Equal(t, 50, s0.Y, "Y position should be adjusted")
	assert.Equal(t, 80, s0.X, "X position should be adjusted")
	assert.Equal(t, uint8(0x42), s0.TileIndex)
	assert.True(t, s0.FlipX)
	assert.True(t, s0.FlipY)
	assert.True(t, s0.BehindBG)
	assert.False(t, s0.PaletteOBP1)

	s1 := sprites[1]
	assert.Equal(t, 100, s1.Y)
	assert.Equal(t, 20, s1.X)
	assert.True(t, s1.PaletteOBP1)
	assert.False(t, s1.FlipX)
}

func TestScanOAM(t *testing.T) {
	m := newTestBus()
	writeSprite(m, 0, 20, 10, 0, 0)
	writeSprite(m, 1, 30, 20, 0, 0)
	writeSprite(m, 2, 40, 20, 0, 0)
	writeSprite(m, 3, 50, 50, 0, 0)

	var buf [maxSpritesPerLine]Sprite

	t.Run("8x8", func(t *testing.T) {
		assert.Len(t, scanOAM(m, 10, 8, buf[:0]), 1)
		assert.Len(t, scanOAM(m, 17, 8, buf[:0]), 1)
		assert.Len(t, scanOAM(m, 18, 8, buf[:0]), 0)

		got := scanOAM(m, 20, 8, buf[:0])
		assert.Len(t, got, 2)
		assert.Equal(t, 1, got[0].OAMIndex)
		assert.Equal(t, 2, got[1].OAMIndex)
	})

	t.Run("8x16", func(t *testing.T) {
		assert.Len(t, scanOAM(m, 25, 16, buf[:0]), 3)
		assert.Len(t, scanOAM(m, 35, 16, buf[:0]), 2)
	})

	t.Run("off-screen X still counts", func(t *testing.T) {
		m := newTestBus()
		for i := range 12 {
			writeSprite(m, i, -8, 0, 0, 0)
		}
		assert.Len(t, scanOAM(m, 0, 8, buf[:0]), maxSpritesPerLine)
	})
}

func TestSortByPriority(t *testing.T) {
	sprites := []Sprite{
		{X: 20, OAMIndex: 0},
		{X: 12, OAMIndex: 3},
		{X: 12, OAMIndex: 1},
		{X: 10, OAMIndex: 5},
	}
	sortByPriority(sprites)

	var order []int
	for _, s := range sprites {
		order = append(order, s.OAMIndex)
	}
	assert.Equal(t, []int{5, 1, 3, 0}, order)
}
