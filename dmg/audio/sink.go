// Package audio is the boundary between the bus and whatever turns sound
// register writes into samples. The core only forwards writes, timestamped
// with the clock cycle at which they happened.
package audio

import "sync"

// Write is a single CPU write to the sound registers (0xFF10-0xFF3F).
type Write struct {
	Address uint16
	Value   uint8
	// Cycle is the number of clock cycles elapsed since power on.
	Cycle uint64
}

// Sink receives sound register writes in program order.
type Sink interface {
	RegisterWrite(w Write)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(w Write)

func (f SinkFunc) RegisterWrite(w Write) { f(w) }

type discard struct{}

func (discard) RegisterWrite(Write) {}

// Discard drops every write.
var Discard Sink = discard{}

// Recorder keeps the most recent writes in memory, up to a fixed limit.
// It's safe to read from another goroutine while the emulator runs.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	writes  []Write
	dropped uint64
}

// NewRecorder creates a recorder that holds at most limit writes, older
// ones are dropped first.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 1
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) RegisterWrite(w Write) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.writes) == r.limit {
		copy(r.writes, r.writes[1:])
		r.writes = r.writes[:len(r.writes)-1]
		r.dropped++
	}
	r.writes = append(r.writes, w)
}

// Writes returns a copy of the recorded writes, oldest first.
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Write, len(r.writes))
	copy(out, r.writes)
	return out
}

// Dropped returns how many writes were evicted to respect the limit.
func (r *Recorder) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = r.writes[:0]
	r.dropped = 0
}
