package video

const (
	// FramebufferWidth is the width of the LCD in pixels.
	FramebufferWidth = 160
	// FramebufferHeight is the height of the LCD in pixels.
	FramebufferHeight = 144
)

// GBColor is an ARGB color used to present a shade.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0xFF989898
	DarkGreyColor  GBColor = 0xFF4C4C4C
	BlackColor     GBColor = 0xFF000000
)

// ShadeColors maps a shade (0 lightest, 3 darkest) to its color.
var ShadeColors = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// Palette holds the palette registers in effect when a frame was completed.
type Palette struct {
	BGP  uint8
	OBP0 uint8
	OBP1 uint8
}

// Frame is a complete LCD image. Pixels hold shades 0-3, already mapped
// through BGP/OBP0/OBP1.
type Frame struct {
	Pixels  [FramebufferHeight][FramebufferWidth]uint8
	Palette Palette
}

// Shade returns the shade at (x, y), 0 outside the screen.
func (f *Frame) Shade(x, y int) uint8 {
	if x < 0 || x >= FramebufferWidth || y < 0 || y >= FramebufferHeight {
		return 0
	}
	return f.Pixels[y][x]
}

// ToRGBA converts the frame into a row-major slice of ARGB pixels.
func (f *Frame) ToRGBA() []uint32 {
	out := make([]uint32, FramebufferWidth*FramebufferHeight)
	for y := range FramebufferHeight {
		for x := range FramebufferWidth {
			out[y*FramebufferWidth+x] = uint32(ShadeColors[f.Pixels[y][x]&0x03])
		}
	}
	return out
}

// Clear sets every pixel to shade 0.
func (f *Frame) Clear() {
	f.Pixels = [FramebufferHeight][FramebufferWidth]uint8{}
}

// applyPalette maps a 2-bit color index through a palette register.
func applyPalette(palette, index uint8) uint8 {
	return (palette >> (index * 2)) & 0x03
}
