package timing

import (
	"log/slog"
	"time"
)

// spinThreshold is how close to the deadline sleeping stops and spinning
// starts. Sleep granularity on most systems is around a millisecond.
const spinThreshold = 2 * time.Millisecond

// AdaptiveLimiter sleeps until shortly before each frame deadline and then
// spins. Deadlines advance by a fixed step, so short overruns are caught
// up instead of accumulating.
type AdaptiveLimiter struct {
	frameTime time.Duration
	next      time.Time
	frames    int64
	started   time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	a := &AdaptiveLimiter{
		frameTime: FrameDuration,
		now:       time.Now,
		sleep:     time.Sleep,
	}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.now()
	wait := a.next.Sub(now)

	switch {
	case wait > spinThreshold:
		a.sleep(wait - time.Millisecond)
		fallthrough
	case wait > 0:
		for a.now().Before(a.next) {
		}
	case wait < -5*a.frameTime:
		// too far behind (a pause, a breakpoint), don't try to catch up
		slog.Debug("frame limiter resynchronized", "behind_ms", (-wait).Milliseconds())
		a.next = now
	}

	a.next = a.next.Add(a.frameTime)
	a.frames++

	if a.frames%600 == 0 {
		elapsed := a.now().Sub(a.started)
		slog.Debug("frame rate", "fps", float64(a.frames)/elapsed.Seconds())
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.started = a.now()
	a.next = a.started
	a.frames = 0
}
