// Package timing paces emulation to the speed of the real hardware. The core
// itself never sleeps, frontends wait on a Limiter between frames.
package timing

import (
	"time"

	"github.com/valerio/go-dmg/dmg/video"
)

// ClockHz is the DMG master clock.
const ClockHz = 4194304

// FrameRate is how many frames the LCD shows per second, about 59.73.
const FrameRate = float64(ClockHz) / video.CyclesPerFrame

// FrameDuration is the wall time of one frame on hardware.
const FrameDuration = time.Second * video.CyclesPerFrame / ClockHz

// Limiter throttles a frame loop.
type Limiter interface {
	// WaitForNextFrame blocks until the next frame is due. It returns
	// immediately when the caller is behind.
	WaitForNextFrame()

	// Reset forgets the schedule, used after the loop was paused.
	Reset()
}

// NewNoOpLimiter returns a limiter that never waits, for headless runs.
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}
