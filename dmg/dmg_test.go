package dmg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmg/dmg/audio"
	"github.com/valerio/go-dmg/dmg/cart"
	"github.com/valerio/go-dmg/dmg/cart/carttest"
	"github.com/valerio/go-dmg/dmg/cpu"
	"github.com/valerio/go-dmg/dmg/memory"
	"github.com/valerio/go-dmg/dmg/video"
)

func newDMG(t testing.TB, cfg Config, code ...byte) *DMG {
	t.Helper()
	d, err := New(carttest.New(carttest.WithEntry(code...)), cfg)
	require.NoError(t, err)
	return d
}

func TestRunProgram(t *testing.T) {
	// LD A,0x42; LD (0xC000),A; HALT
	d := newDMG(t, Config{}, 0x3E, 0x42, 0xEA, 0x00, 0xC0, 0x76)

	for range 3 {
		_, err := d.Step()
		require.NoError(t, err)
	}

	state := d.CPUState()
	assert.Equal(t, uint8(0x42), d.Peek(0xC000))
	assert.Equal(t, uint8(0x42), state.A)
	assert.True(t, state.Halted)
	assert.Equal(t, uint16(0x0106), state.PC)
	assert.Equal(t, uint64(3), d.InstructionCount())
	assert.Equal(t, uint64(8+16+4), d.Cycles())

	// halted with nothing enabled, the CPU idles one M-cycle at a time
	cycles, err := d.Step()
	require.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0x0106), d.CPUState().PC)
}

func TestPostBootState(t *testing.T) {
	d := newDMG(t, Config{})
	state := d.CPUState()

	assert.Equal(t, uint16(0x01B0), state.AF())
	assert.Equal(t, uint16(0x0013), state.BC())
	assert.Equal(t, uint16(0x00D8), state.DE())
	assert.Equal(t, uint16(0x014D), state.HL())
	assert.Equal(t, uint16(0xFFFE), state.SP)
	assert.Equal(t, uint16(0x0100), state.PC)
	assert.Equal(t, uint8(0xE1), state.IF)
	assert.Equal(t, uint8(0x00), state.IE)
	assert.False(t, state.IME)
	assert.Equal(t, "NOP", state.Instruction)
	assert.Equal(t, uint8(0x91), d.Peek(0xFF40))
}

func TestNewErrors(t *testing.T) {
	t.Run("bad header checksum", func(t *testing.T) {
		rom := carttest.New()
		rom[0x14D]++

		d, err := New(rom, Config{})
		assert.Nil(t, d)
		assert.ErrorIs(t, err, cart.ErrMalformedCartridge)
	})

	t.Run("boot ROM of the wrong size", func(t *testing.T) {
		d, err := New(carttest.New(), Config{BootROM: make([]byte, 100)})
		assert.Nil(t, d)
		assert.ErrorIs(t, err, memory.ErrInvalidBootROM)
	})
}

func TestBootROM(t *testing.T) {
	boot := make([]byte, memory.BootROMSize)
	// LD A,0x01; LDH (0x50),A
	copy(boot, []byte{0x3E, 0x01, 0xE0, 0x50})

	d, err := New(carttest.New(), Config{BootROM: boot})
	require.NoError(t, err)

	assert.Equal(t, uint16(0x0000), d.CPUState().PC)
	assert.Equal(t, uint8(0x3E), d.Peek(0x0000))

	for range 2 {
		_, err := d.Step()
		require.NoError(t, err)
	}

	assert.Equal(t, uint8(0x00), d.Peek(0x0000), "boot ROM unmapped")
	assert.Equal(t, uint16(0x0004), d.CPUState().PC)
}

func TestSerialOutput(t *testing.T) {
	var out bytes.Buffer
	d := newDMG(t, Config{Serial: &out},
		0x3E, 'O', 0xE0, 0x01, // LD A,'O'; LDH (SB),A
		0x3E, 0x81, 0xE0, 0x02, // LD A,0x81; LDH (SC),A
		0x3E, 'K', 0xE0, 0x01,
		0x3E, 0x81, 0xE0, 0x02,
		0x76,
	)

	require.NoError(t, d.RunUntilFrame())
	require.NoError(t, d.Close())

	assert.Equal(t, "OK", out.String())
	assert.Equal(t, uint8(0x08), d.CPUState().IF&0x08, "serial interrupt requested")
}

func TestAudioWrites(t *testing.T) {
	rec := audio.NewRecorder(64)
	// LD A,0x77; LDH (NR50),A; HALT
	d := newDMG(t, Config{Audio: rec}, 0x3E, 0x77, 0xE0, 0x24, 0x76)

	for range 2 {
		_, err := d.Step()
		require.NoError(t, err)
	}

	writes := rec.Writes()
	require.NotEmpty(t, writes)
	last := writes[len(writes)-1]
	assert.Equal(t, uint16(0xFF24), last.Address)
	assert.Equal(t, uint8(0x77), last.Value)
}

func TestUnimplementedOpcode(t *testing.T) {
	d := newDMG(t, Config{}, 0x00, 0xD3)

	_, err := d.Step()
	require.NoError(t, err)

	_, err = d.Step()
	require.ErrorIs(t, err, cpu.ErrUnimplementedOpcode)

	var opErr *cpu.UnimplementedOpcodeError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, uint16(0x0101), opErr.PC)
	assert.Equal(t, uint8(0xD3), opErr.Opcode)

	assert.ErrorIs(t, d.RunUntilFrame(), cpu.ErrUnimplementedOpcode)
}

func TestFrameCadence(t *testing.T) {
	// JR -2, spinning in place
	d := newDMG(t, Config{}, 0x18, 0xFE)

	require.NoError(t, d.RunUntilFrame())
	assert.Equal(t, uint64(1), d.FrameCount())
	assert.Equal(t, uint64(144*456), d.Cycles())

	var marks []uint64
	for range 2 {
		require.NoError(t, d.RunUntilFrame())
		marks = append(marks, d.Cycles())
	}

	assert.Equal(t, uint64(3), d.FrameCount())
	assert.Equal(t, uint64(video.CyclesPerFrame), marks[1]-marks[0])
	assert.NotNil(t, d.Frame())
}

func TestRunUntilFrameWithLCDOff(t *testing.T) {
	// LD A,0x00; LDH (LCDC),A; JR -2
	d := newDMG(t, Config{}, 0x3E, 0x00, 0xE0, 0x40, 0x18, 0xFE)

	require.NoError(t, d.RunUntilFrame())
	assert.Zero(t, d.FrameCount())
	assert.GreaterOrEqual(t, d.Cycles(), uint64(video.CyclesPerFrame))
	assert.Less(t, d.Cycles(), uint64(video.CyclesPerFrame+12))
}

func TestBreakpoints(t *testing.T) {
	// NOP; NOP; NOP; JR -3 (loops over 0x0102-0x0103)
	d := newDMG(t, Config{}, 0x00, 0x00, 0x00, 0x18, 0xFD)

	d.AddBreakpoint(0x0200)
	d.AddBreakpoint(0x0102)
	d.AddBreakpoint(0x0150)
	assert.Equal(t, []uint16{0x0102, 0x0150, 0x0200}, d.Breakpoints())

	d.RemoveBreakpoint(0x0200)
	d.RemoveBreakpoint(0x0300)
	assert.Equal(t, []uint16{0x0102, 0x0150}, d.Breakpoints())

	require.NoError(t, d.RunUntilFrame())
	assert.True(t, d.Paused())
	assert.Equal(t, uint16(0x0102), d.CPUState().PC)
	assert.Equal(t, uint64(2), d.InstructionCount())

	// paused, nothing runs
	require.NoError(t, d.RunUntilFrame())
	assert.Equal(t, uint64(2), d.InstructionCount())

	// single stepping still works while paused
	_, err := d.Step()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0103), d.CPUState().PC)

	d.Resume()
	require.NoError(t, d.RunUntilFrame())
	assert.True(t, d.Paused())
	assert.Equal(t, uint16(0x0102), d.CPUState().PC)
	assert.Equal(t, uint64(4), d.InstructionCount())
}

func TestJoypad(t *testing.T) {
	d := newDMG(t, Config{})

	d.Press(memory.ButtonStart)
	assert.Equal(t, uint8(0xF1), d.CPUState().IF)

	d.Release(memory.ButtonStart)
	d.Press(memory.ButtonStart)
	assert.Equal(t, uint8(0xF1), d.CPUState().IF)
}

func TestMemorySnapshot(t *testing.T) {
	d := newDMG(t, Config{}, 0x3E, 0x42)

	snap := d.MemorySnapshot(0x0100, 4)
	assert.Equal(t, uint16(0x0100), snap.StartAddr)
	assert.Equal(t, []byte{0x3E, 0x42, 0x00, 0x00}, snap.Bytes)

	assert.Len(t, d.MemorySnapshot(0xFFF0, 200).Bytes, 16)
	assert.Len(t, d.MemorySnapshot(0xFF80, 200).Bytes, 128)
}

func TestDisassembly(t *testing.T) {
	d := newDMG(t, Config{}, 0x3E, 0x42, 0xEA, 0x00, 0xC0, 0x76)

	lines := d.Disassembly(3)
	require.Len(t, lines, 3)
	assert.Equal(t, "LD A,$42", lines[0].Instruction)
	assert.True(t, lines[0].IsCurrent)
	assert.Equal(t, "LD ($C000),A", lines[1].Instruction)
	assert.Equal(t, uint16(0x0105), lines[2].Address)
	assert.Equal(t, "HALT", lines[2].Instruction)
}

func TestOAM(t *testing.T) {
	d := newDMG(t, Config{})
	data := d.OAM()
	assert.Len(t, data.Sprites, 40)
	assert.Equal(t, 8, data.SpriteHeight)
}

func BenchmarkRunUntilFrame(b *testing.B) {
	d := newDMG(b, Config{}, 0x18, 0xFE)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		if err := d.RunUntilFrame(); err != nil {
			b.Fatal(err)
		}
	}
}
