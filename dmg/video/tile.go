package video

import "github.com/valerio/go-dmg/dmg/bit"

const (
	tileDataUnsigned uint16 = 0x8000
	tileDataSigned   uint16 = 0x9000
	tileMapLow       uint16 = 0x9800
	tileMapHigh      uint16 = 0x9C00

	tileBytes = 16
)

// TileRow represents one row of a tile pattern (8 pixels).
//
// Tiles are 8x8 pixels, with 2 bits per pixel. Each row uses 2 bytes in a
// bit-plane format:
//
//	Byte 1 (Low):  Bit plane 0 - provides bit 0 of each pixel's color
//	Byte 2 (High): Bit plane 1 - provides bit 1 of each pixel's color
//
// Bit 7 is the leftmost pixel, bit 0 the rightmost:
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
//
// Reference: https://gbdev.io/pandocs/Tile_Data.html
type TileRow struct {
	Low  byte
	High byte
}

// Pixel extracts the color index (0-3) at pixelX (0-7, 0 is leftmost).
// With flipX the row is read right to left, as for mirrored sprites.
func (t TileRow) Pixel(pixelX int, flipX bool) uint8 {
	bitIndex := uint8(7 - pixelX)
	if flipX {
		bitIndex = uint8(pixelX)
	}
	return bit.Value(bitIndex, t.High)<<1 | bit.Value(bitIndex, t.Low)
}

// vramReader is the slice of the bus needed to fetch tile data.
type vramReader interface {
	VRAM(address uint16) uint8
}

// fetchTileRow reads row (0-7, or 0-15 for tall sprites) of the tile
// starting at tileAddr.
func fetchTileRow(bus vramReader, tileAddr uint16, row int) TileRow {
	a := tileAddr + uint16(row*2)
	return TileRow{Low: bus.VRAM(a), High: bus.VRAM(a + 1)}
}

// bgTileAddress resolves a tile number from the BG/window map to its data
// address. With unsigned addressing tiles 0-255 live at 0x8000, otherwise
// the number is signed and relative to 0x9000.
func bgTileAddress(tileNumber uint8, unsigned bool) uint16 {
	if unsigned {
		return tileDataUnsigned + uint16(tileNumber)*tileBytes
	}
	return uint16(int32(tileDataSigned) + int32(int8(tileNumber))*tileBytes)
}
