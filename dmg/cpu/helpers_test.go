package cpu

import "github.com/valerio/go-dmg/dmg/interrupt"

// testBus is a flat 64KB address space with an interrupt controller. The
// IE/IF registers live in the controller, as on the real bus.
type testBus struct {
	mem [0x10000]uint8
	irq *interrupt.Controller
}

// newTestBus returns a bus with program loaded at the post-boot entry point.
func newTestBus(program ...uint8) *testBus {
	b := &testBus{irq: interrupt.NewController()}
	copy(b.mem[0x0100:], program)
	return b
}

func (b *testBus) Read(address uint16) uint8 {
	switch address {
	case 0xFF0F:
		return b.irq.RequestedMask()
	case 0xFFFF:
		return b.irq.EnabledMask()
	}
	return b.mem[address]
}

func (b *testBus) Write(address uint16, value uint8) {
	switch address {
	case 0xFF0F:
		b.irq.SetRequestedMask(value)
	case 0xFFFF:
		b.irq.SetEnabledMask(value)
	default:
		b.mem[address] = value
	}
}

func (b *testBus) Interrupts() *interrupt.Controller {
	return b.irq
}
