package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderKeepsMostRecent(t *testing.T) {
	r := NewRecorder(2)
	r.RegisterWrite(Write{Address: 0xFF10, Value: 1, Cycle: 4})
	r.RegisterWrite(Write{Address: 0xFF11, Value: 2, Cycle: 8})
	r.RegisterWrite(Write{Address: 0xFF12, Value: 3, Cycle: 12})

	got := r.Writes()
	assert.Equal(t, []Write{
		{Address: 0xFF11, Value: 2, Cycle: 8},
		{Address: 0xFF12, Value: 3, Cycle: 12},
	}, got)
	assert.Equal(t, uint64(1), r.Dropped())

	r.Reset()
	assert.Empty(t, r.Writes())
	assert.Zero(t, r.Dropped())
}

func TestSinkFunc(t *testing.T) {
	var seen []uint16
	var s Sink = SinkFunc(func(w Write) { seen = append(seen, w.Address) })
	s.RegisterWrite(Write{Address: 0xFF26})
	Discard.RegisterWrite(Write{Address: 0xFF24})
	assert.Equal(t, []uint16{0xFF26}, seen)
}
