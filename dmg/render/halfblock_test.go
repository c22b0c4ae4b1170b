package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmg/dmg/video"
)

func TestHalfBlock(t *testing.T) {
	tests := []struct {
		name        string
		top, bottom uint8
		want        rune
	}{
		{"both white", 0, 0, ' '},
		{"both black", 3, 3, '█'},
		{"both light", 1, 1, '█'},
		{"white over black", 0, 3, '▄'},
		{"black over white", 3, 0, '▀'},
		{"dark over light", 2, 1, '▀'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HalfBlock(tt.top, tt.bottom))
		})
	}
}

func TestCells(t *testing.T) {
	frame := &video.Frame{}
	frame.Pixels[0][0] = 3
	frame.Pixels[1][1] = 2
	frame.Pixels[143][5] = 1

	cells := Cells(frame)
	require.Len(t, cells, 72)
	require.Len(t, cells[0], 160)

	assert.Equal(t, Cell{Rune: '▀', Top: 3, Bottom: 0}, cells[0][0])
	assert.Equal(t, Cell{Rune: '▄', Top: 0, Bottom: 2}, cells[0][1])
	assert.Equal(t, Cell{Rune: '▄', Top: 0, Bottom: 1}, cells[71][5])
	assert.Equal(t, ' ', cells[10][10].Rune)
}

func TestLines(t *testing.T) {
	frame := &video.Frame{}
	for x := range video.FramebufferWidth {
		frame.Pixels[0][x] = 3
		frame.Pixels[1][x] = 3
	}

	lines := Lines(frame)
	require.Len(t, lines, TextRows)
	assert.Equal(t, 160, len([]rune(lines[0])))
	assert.Equal(t, '█', []rune(lines[0])[0])
	assert.Equal(t, ' ', []rune(lines[1])[0])
}
