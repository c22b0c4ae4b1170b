package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-dmg/dmg/video"
)

// shadeGray is the gray level of each shade in PNG snapshots.
var shadeGray = [4]uint8{0xFF, 0x98, 0x4C, 0x00}

// shadeRunes draws a shade with a single character, lightest first.
var shadeRunes = [4]rune{' ', '░', '▒', '█'}

// FrameImage converts a frame to a grayscale image.
func FrameImage(frame *video.Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := range video.FramebufferHeight {
		for x := range video.FramebufferWidth {
			img.SetGray(x, y, color.Gray{Y: shadeGray[frame.Shade(x, y)]})
		}
	}
	return img
}

// FrameText renders a frame as text, one character per pixel.
func FrameText(frame *video.Frame) string {
	var b strings.Builder
	b.Grow((video.FramebufferWidth + 1) * video.FramebufferHeight * 3)
	for y := range video.FramebufferHeight {
		for x := range video.FramebufferWidth {
			b.WriteRune(shadeRunes[frame.Shade(x, y)])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// SnapshotFormat selects how SaveSnapshot encodes a frame.
type SnapshotFormat string

const (
	SnapshotPNG  SnapshotFormat = "png"
	SnapshotText SnapshotFormat = "txt"
)

// WriteSnapshot encodes the frame to w.
func WriteSnapshot(w io.Writer, frame *video.Frame, format SnapshotFormat) error {
	switch format {
	case SnapshotPNG:
		return png.Encode(w, FrameImage(frame))
	case SnapshotText:
		_, err := io.WriteString(w, FrameText(frame))
		return err
	default:
		return fmt.Errorf("unknown snapshot format %q", format)
	}
}

// SaveSnapshot writes the frame to directory as <baseName>.<format> and
// returns the path.
func SaveSnapshot(frame *video.Frame, baseName, directory string, format SnapshotFormat) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("no frame data available for snapshot")
	}

	filePath := filepath.Join(directory, fmt.Sprintf("%s.%s", baseName, format))
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	if err := WriteSnapshot(file, frame, format); err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	slog.Info("Snapshot saved", "path", filePath, "format", string(format))
	return filePath, nil
}
