// Package render turns frames into terminal cells. Every text cell covers
// two pixel rows: the upper half block takes the top pixel's color as its
// foreground and the bottom pixel's as its background.
package render

import (
	"strings"

	"github.com/valerio/go-dmg/dmg/video"
)

// TextRows is the number of terminal rows a frame occupies.
const TextRows = (video.FramebufferHeight + 1) / 2

// shadeWhite is shade 0, the lightest.
const shadeWhite = 0

// Cell is one terminal cell covering two vertically stacked pixels.
type Cell struct {
	Rune   rune
	Top    uint8 // shade of the upper pixel
	Bottom uint8 // shade of the lower pixel
}

// HalfBlock picks the character for a pair of shades.
//   - equal shades draw a full block (or a blank for white)
//   - a white top over a colored bottom draws the lower half block
//   - everything else draws the upper half block
func HalfBlock(top, bottom uint8) rune {
	switch {
	case top == bottom && top == shadeWhite:
		return ' '
	case top == bottom:
		return '█'
	case top == shadeWhite:
		return '▄'
	default:
		return '▀'
	}
}

// Cells converts a frame into TextRows rows of FramebufferWidth cells.
func Cells(frame *video.Frame) [][]Cell {
	rows := make([][]Cell, TextRows)
	for row := range rows {
		rows[row] = make([]Cell, video.FramebufferWidth)
		for x := range video.FramebufferWidth {
			// Shade returns white below the last line
			top := frame.Shade(x, row*2)
			bottom := frame.Shade(x, row*2+1)
			rows[row][x] = Cell{Rune: HalfBlock(top, bottom), Top: top, Bottom: bottom}
		}
	}
	return rows
}

// Lines renders a frame as plain text using half blocks, for logs and
// terminals without color.
func Lines(frame *video.Frame) []string {
	cells := Cells(frame)
	lines := make([]string, len(cells))
	for i, row := range cells {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		lines[i] = b.String()
	}
	return lines
}
