package memory

import (
	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// tacLookup maps TAC input clock select (bits 1-0) to the bit position
// of the 16-bit internal counter used as the timer's clock source.
// TIMA increments on falling edges of this bit while the timer is enabled
// (TAC bit 2 = 1).
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint16{9, 3, 5, 7}

// overflowDelay is how long TIMA reads 0x00 after overflowing, in clock
// cycles (one M-cycle), before it's reloaded from TMA.
const overflowDelay = 4

// Timer encapsulates the DIV/TIMA/TMA/TAC behavior.
type Timer struct {
	counter   uint16 // internal 16-bit counter, DIV is the upper 8 bits
	overflow  int    // cycles left before TIMA <- TMA
	reloading bool   // true for the cycle in which TIMA was reloaded

	tima byte
	tma  byte
	tac  byte

	// requestIRQ is called when TIMA is reloaded after an overflow.
	requestIRQ func()
}

// NewTimer returns a timer that calls requestIRQ on every reload.
func NewTimer(requestIRQ func()) *Timer {
	return &Timer{requestIRQ: requestIRQ}
}

// SetSeed sets the internal counter, used to reproduce the post-boot DIV value.
func (t *Timer) SetSeed(seed uint16) {
	t.counter = seed
	t.overflow = 0
	t.reloading = false
}

// Counter returns the full internal counter.
func (t *Timer) Counter() uint16 {
	return t.counter
}

// Tick advances the timer by the given number of clock cycles.
func (t *Timer) Tick(cycles int) {
	for range cycles {
		t.tick()
	}
}

func (t *Timer) tick() {
	t.reloading = false

	if t.overflow > 0 {
		t.overflow--
		if t.overflow == 0 {
			t.tima = t.tma
			t.reloading = true
			if t.requestIRQ != nil {
				t.requestIRQ()
			}
		}
	}

	before := t.timerBit()
	t.counter++
	t.detectFallingEdge(before)
}

// timerBit is the AND of the enable bit and the selected counter bit. TIMA
// is clocked by the falling edge of this signal, which is why writes to DIV
// and TAC can also bump it.
func (t *Timer) timerBit() bool {
	return bit.IsSet(2, t.tac) && bit.IsSet16(tacLookup[t.tac&0x03], t.counter)
}

func (t *Timer) detectFallingEdge(before bool) {
	if before && !t.timerBit() {
		t.incrementTIMA()
	}
}

func (t *Timer) incrementTIMA() {
	if t.tima == 0xFF {
		t.overflow = overflowDelay
	}
	t.tima++
}

// Read returns the value of one of the timer registers.
func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return byte(t.counter >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

// Write updates one of the timer registers.
func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		before := t.timerBit()
		t.counter = 0
		t.detectFallingEdge(before)
	case addr.TIMA:
		if t.reloading {
			// the reload wins
			return
		}
		// writing during the overflow window cancels the reload and the interrupt
		t.overflow = 0
		t.tima = value
	case addr.TMA:
		t.tma = value
		if t.reloading {
			t.tima = value
		}
	case addr.TAC:
		before := t.timerBit()
		t.tac = value & 0x07
		t.detectFallingEdge(before)
	}
}
