package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmg/dmg/interrupt"
)

// step runs n instructions, failing the test on error, and returns the
// cycles of the last one.
func step(t *testing.T, c *CPU, bus Bus, n int) int {
	t.Helper()
	var cycles int
	for range n {
		var err error
		cycles, err = c.Step(bus)
		require.NoError(t, err)
	}
	return cycles
}

func TestNew(t *testing.T) {
	regs := New().Registers()
	assert.Equal(t, uint16(0x01B0), regs.AF())
	assert.Equal(t, uint16(0x0013), regs.BC())
	assert.Equal(t, uint16(0x00D8), regs.DE())
	assert.Equal(t, uint16(0x014D), regs.HL())
	assert.Equal(t, uint16(0xFFFE), regs.SP)
	assert.Equal(t, uint16(0x0100), regs.PC)
	assert.Equal(t, "Z-HC", regs.FlagString())

	assert.Equal(t, Registers{}, NewWithBootROM().Registers())
}

func TestSetRegistersMasksF(t *testing.T) {
	c := New()
	c.SetRegisters(Registers{A: 0x12, F: 0xFF, PC: 0xC000})
	regs := c.Registers()
	assert.Equal(t, uint8(0xF0), regs.F)
	assert.Equal(t, uint16(0xC000), regs.PC)
}

func TestStep(t *testing.T) {
	bus := newTestBus(
		0x3E, 0x42, // LD A,0x42
		0xEA, 0x00, 0xC0, // LD (0xC000),A
		0x76, // HALT
	)
	c := New()

	assert.Equal(t, 8, step(t, c, bus, 1))
	assert.Equal(t, 16, step(t, c, bus, 1))
	assert.Equal(t, 4, step(t, c, bus, 1))

	assert.Equal(t, uint8(0x42), bus.mem[0xC000])
	assert.True(t, c.Halted())
	assert.Equal(t, uint16(0x0106), c.Registers().PC)

	// halted steps cost one M-cycle and don't move
	assert.Equal(t, 4, step(t, c, bus, 1))
	assert.Equal(t, uint16(0x0106), c.Registers().PC)
	assert.Equal(t, uint64(32), c.Cycles())
}

func TestBranchCycles(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		flags   uint8
		cycles  int
		pc      uint16
	}{
		{"JR NZ taken", []uint8{0x20, 0x05}, 0x00, 12, 0x0107},
		{"JR NZ not taken", []uint8{0x20, 0x05}, 0x80, 8, 0x0102},
		{"JR C backwards", []uint8{0x38, 0xFE}, 0x10, 12, 0x0100},
		{"JP Z taken", []uint8{0xCA, 0x00, 0xC0}, 0x80, 16, 0xC000},
		{"JP Z not taken", []uint8{0xCA, 0x00, 0xC0}, 0x00, 12, 0x0103},
		{"CALL NC taken", []uint8{0xD4, 0x00, 0xC0}, 0x00, 24, 0xC000},
		{"CALL NC not taken", []uint8{0xD4, 0x00, 0xC0}, 0x10, 12, 0x0103},
		{"RET NZ not taken", []uint8{0xC0}, 0x80, 8, 0x0101},
		{"JP a16", []uint8{0xC3, 0x50, 0x01}, 0x00, 16, 0x0150},
		{"RST 0x38", []uint8{0xFF}, 0x00, 16, 0x0038},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newTestBus(tt.program...)
			c := New()
			c.f = tt.flags

			assert.Equal(t, tt.cycles, step(t, c, bus, 1))
			assert.Equal(t, tt.pc, c.Registers().PC)
		})
	}

	t.Run("RET Z taken", func(t *testing.T) {
		bus := newTestBus(0xC8)
		c := New()
		c.pushStack(bus, 0x1234)
		c.f = 0x80

		assert.Equal(t, 20, step(t, c, bus, 1))
		assert.Equal(t, uint16(0x1234), c.Registers().PC)
		assert.Equal(t, uint16(0xFFFE), c.Registers().SP)
	})
}

func TestCallRet(t *testing.T) {
	bus := newTestBus(0xCD, 0x00, 0xC0) // CALL 0xC000
	bus.mem[0xC000] = 0xC9              // RET
	c := New()

	assert.Equal(t, 24, step(t, c, bus, 1))
	assert.Equal(t, uint16(0xC000), c.Registers().PC)
	assert.Equal(t, uint16(0xFFFC), c.Registers().SP)
	assert.Equal(t, uint8(0x01), bus.mem[0xFFFD])
	assert.Equal(t, uint8(0x03), bus.mem[0xFFFC])

	assert.Equal(t, 16, step(t, c, bus, 1))
	assert.Equal(t, uint16(0x0103), c.Registers().PC)
	assert.Equal(t, uint16(0xFFFE), c.Registers().SP)
}

func TestFlagsPreserved(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		before  uint8
		after   uint8
	}{
		{"LD B,C keeps all", []uint8{0x41}, 0xF0, 0xF0},
		{"INC B keeps carry", []uint8{0x04}, 0x10, 0x00 | 0x10},
		{"DEC B keeps carry", []uint8{0x05}, 0x10, 0x40 | 0x20 | 0x10},
		{"INC BC keeps all", []uint8{0x03}, 0xA0, 0xA0},
		{"ADD HL,BC keeps zero", []uint8{0x09}, 0x80, 0x80},
		{"BIT 0,A keeps carry", []uint8{0xCB, 0x47}, 0x10, 0x20 | 0x10 | 0x80},
		{"SET 0,A keeps all", []uint8{0xCB, 0xC7}, 0x50, 0x50},
		{"RLCA clears zero", []uint8{0x07}, 0x80, 0x00},
		{"SCF", []uint8{0x37}, 0xE0, 0x90},
		{"CCF", []uint8{0x3F}, 0x70, 0x00},
		{"CPL keeps zero and carry", []uint8{0x2F}, 0x90, 0xF0},
		{"JP keeps all", []uint8{0xC3, 0x00, 0xC0}, 0xB0, 0xB0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newTestBus(tt.program...)
			c := New()
			c.setBC(0x0000)
			c.a = 0x00
			c.f = tt.before

			step(t, c, bus, 1)
			assert.Equal(t, tt.after, c.Registers().F)
		})
	}
}

func TestPopAFMasksFlags(t *testing.T) {
	bus := newTestBus(0xF1) // POP AF
	c := New()
	c.pushStack(bus, 0x12FF)

	step(t, c, bus, 1)
	assert.Equal(t, uint16(0x12F0), c.Registers().AF())
}

func TestMemoryOperandCycles(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		cycles  int
	}{
		{"LD (HL),n8", []uint8{0x36, 0x01}, 12},
		{"INC (HL)", []uint8{0x34}, 12},
		{"ADD A,(HL)", []uint8{0x86}, 8},
		{"RLC (HL)", []uint8{0xCB, 0x06}, 16},
		{"BIT 0,(HL)", []uint8{0xCB, 0x46}, 12},
		{"SET 0,(HL)", []uint8{0xCB, 0xC6}, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newTestBus(tt.program...)
			c := New()
			c.setHL(0xC000)
			assert.Equal(t, tt.cycles, step(t, c, bus, 1))
		})
	}

	t.Run("(HL) operand goes through the bus", func(t *testing.T) {
		bus := newTestBus(0xCB, 0xC6, 0x34) // SET 0,(HL); INC (HL)
		c := New()
		c.setHL(0xC000)
		bus.mem[0xC000] = 0x40

		step(t, c, bus, 2)
		assert.Equal(t, uint8(0x42), bus.mem[0xC000])
	})
}

func TestInterruptDispatch(t *testing.T) {
	t.Run("interrupts disabled by default", func(t *testing.T) {
		bus := newTestBus(0x00)
		c := New()
		bus.irq.SetEnabledMask(0x01)
		bus.irq.Request(interrupt.VBlank)

		assert.Equal(t, 4, step(t, c, bus, 1))
		assert.Equal(t, uint16(0x0101), c.Registers().PC)
	})

	t.Run("priority order", func(t *testing.T) {
		bus := newTestBus()
		c := New()
		bus.irq.EnableMaster()
		bus.irq.SetEnabledMask(0x1F)
		bus.irq.SetRequestedMask(0x1F)

		assert.Equal(t, 20, step(t, c, bus, 1))
		assert.Equal(t, uint16(0x0040), c.Registers().PC)
		assert.Equal(t, uint8(0xFE), bus.irq.RequestedMask())
		assert.False(t, bus.irq.MasterEnabled())

		// return address on the stack
		assert.Equal(t, uint16(0xFFFC), c.Registers().SP)
		assert.Equal(t, uint8(0x01), bus.mem[0xFFFD])
		assert.Equal(t, uint8(0x00), bus.mem[0xFFFC])
	})

	t.Run("only enabled sources", func(t *testing.T) {
		bus := newTestBus()
		c := New()
		bus.irq.EnableMaster()
		bus.irq.SetEnabledMask(0x14)
		bus.irq.SetRequestedMask(0x07)

		step(t, c, bus, 1)
		assert.Equal(t, uint16(0x0050), c.Registers().PC)
		assert.Equal(t, uint8(0xE3), bus.irq.RequestedMask())
	})

	t.Run("vectors", func(t *testing.T) {
		for source, vector := range map[interrupt.Source]uint16{
			interrupt.VBlank:  0x40,
			interrupt.LCDStat: 0x48,
			interrupt.Timer:   0x50,
			interrupt.Serial:  0x58,
			interrupt.Joypad:  0x60,
		} {
			bus := newTestBus()
			c := New()
			bus.irq.EnableMaster()
			bus.irq.SetEnabledMask(0x1F)
			bus.irq.Request(source)

			step(t, c, bus, 1)
			assert.Equal(t, vector, c.Registers().PC, source.String())
		}
	})
}

func TestEIDelay(t *testing.T) {
	bus := newTestBus(0xFB, 0x00, 0x00) // EI; NOP; NOP
	c := New()
	bus.irq.SetEnabledMask(0x01)
	bus.irq.Request(interrupt.VBlank)

	step(t, c, bus, 1)
	assert.False(t, bus.irq.MasterEnabled())

	// the instruction after EI still runs
	assert.Equal(t, 4, step(t, c, bus, 1))
	assert.Equal(t, uint16(0x0102), c.Registers().PC)
	assert.True(t, bus.irq.MasterEnabled())

	assert.Equal(t, 20, step(t, c, bus, 1))
	assert.Equal(t, uint16(0x0040), c.Registers().PC)
	assert.Equal(t, uint8(0x02), bus.mem[0xFFFC])

	t.Run("DI cancels a pending EI", func(t *testing.T) {
		bus := newTestBus(0xFB, 0xF3, 0x00, 0x00) // EI; DI; NOP; NOP
		c := New()
		bus.irq.SetEnabledMask(0x01)
		bus.irq.Request(interrupt.VBlank)

		step(t, c, bus, 4)
		assert.False(t, bus.irq.MasterEnabled())
		assert.Equal(t, uint16(0x0104), c.Registers().PC)
	})

	t.Run("RETI enables immediately", func(t *testing.T) {
		bus := newTestBus(0xD9) // RETI
		c := New()
		c.pushStack(bus, 0xC000)
		bus.irq.SetEnabledMask(0x01)
		bus.irq.Request(interrupt.VBlank)

		assert.Equal(t, 16, step(t, c, bus, 1))
		assert.True(t, bus.irq.MasterEnabled())
		assert.Equal(t, 20, step(t, c, bus, 1))
		assert.Equal(t, uint16(0x0040), c.Registers().PC)
	})
}

func TestHalt(t *testing.T) {
	t.Run("wakes without IME and resumes", func(t *testing.T) {
		bus := newTestBus(0x76, 0x3C) // HALT; INC A
		c := New()
		bus.irq.SetEnabledMask(0x04)

		step(t, c, bus, 3)
		assert.True(t, c.Halted())
		assert.Equal(t, uint16(0x0101), c.Registers().PC)

		// requested but not enabled doesn't wake
		bus.irq.Request(interrupt.VBlank)
		step(t, c, bus, 1)
		assert.True(t, c.Halted())

		bus.irq.Request(interrupt.Timer)
		step(t, c, bus, 1)
		assert.False(t, c.Halted())
		assert.Equal(t, uint8(0x02), c.Registers().A)
		assert.Equal(t, uint16(0x0102), c.Registers().PC)
		// not serviced
		assert.Equal(t, uint8(0xE5), bus.irq.RequestedMask())
	})

	t.Run("wakes with IME and services", func(t *testing.T) {
		bus := newTestBus(0x76, 0x00) // HALT; NOP
		c := New()
		bus.irq.EnableMaster()
		bus.irq.SetEnabledMask(0x04)

		step(t, c, bus, 2)
		assert.True(t, c.Halted())

		bus.irq.Request(interrupt.Timer)
		assert.Equal(t, 20, step(t, c, bus, 1))
		assert.Equal(t, uint16(0x0050), c.Registers().PC)
		// returns after HALT
		assert.Equal(t, uint8(0x01), bus.mem[0xFFFC])
	})

	t.Run("halt bug", func(t *testing.T) {
		// XOR A; HALT; INC A; LD (HL+),A
		bus := newTestBus(0xAF, 0x76, 0x3C, 0x22)
		c := New()
		c.setHL(0xC000)
		bus.irq.SetEnabledMask(0x01)
		bus.irq.Request(interrupt.VBlank)

		step(t, c, bus, 2)
		assert.False(t, c.Halted())
		assert.Equal(t, uint16(0x0102), c.Registers().PC)

		// INC A runs twice
		step(t, c, bus, 1)
		assert.Equal(t, uint16(0x0102), c.Registers().PC)
		step(t, c, bus, 2)

		assert.Equal(t, uint8(0x02), bus.mem[0xC000])
		assert.Equal(t, uint16(0xC001), c.Registers().HL())
		assert.Equal(t, uint16(0x0104), c.Registers().PC)
	})

	t.Run("halt bug rereads the opcode as operand", func(t *testing.T) {
		// HALT; LD A,n8 with the operand being the LD opcode itself
		bus := newTestBus(0x76, 0x3E, 0x14)
		c := New()
		bus.irq.SetEnabledMask(0x01)
		bus.irq.Request(interrupt.VBlank)

		step(t, c, bus, 2)
		assert.Equal(t, uint8(0x3E), c.Registers().A)
		assert.Equal(t, uint16(0x0102), c.Registers().PC)
	})
}

func TestStop(t *testing.T) {
	bus := newTestBus(0x10, 0x00, 0x3C) // STOP; INC A
	bus.mem[0xFF04] = 0x55
	c := New()

	assert.Equal(t, 4, step(t, c, bus, 1))
	assert.True(t, c.Stopped())
	assert.Equal(t, uint8(0), bus.mem[0xFF04], "DIV is reset")
	assert.Equal(t, uint16(0x0102), c.Registers().PC)

	step(t, c, bus, 10)
	assert.True(t, c.Stopped())

	bus.irq.Request(interrupt.Joypad)
	step(t, c, bus, 1)
	assert.False(t, c.Stopped())
	assert.Equal(t, uint8(0x02), c.Registers().A)
}

func TestUnimplementedOpcode(t *testing.T) {
	for _, code := range undefinedOpcodes {
		t.Run(opcodes[code].mnemonic, func(t *testing.T) {
			bus := newTestBus(code)
			c := New()

			cycles, err := c.Step(bus)
			assert.Equal(t, 0, cycles)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnimplementedOpcode)

			var opErr *UnimplementedOpcodeError
			require.True(t, errors.As(err, &opErr))
			assert.Equal(t, uint16(0x0100), opErr.PC)
			assert.Equal(t, code, opErr.Opcode)

			// stays faulted
			_, again := c.Step(bus)
			assert.Equal(t, err, again)
			assert.Equal(t, err, c.Fault())
			assert.Equal(t, uint16(0x0100), c.Registers().PC)
		})
	}
}
