// Package debug formats emulator state for humans: register dumps,
// disassembly listings, OAM tables and frame snapshots.
package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/valerio/go-dmg/dmg/cpu"
)

// CPUState contains all CPU register information for debugging
type CPUState struct {
	cpu.Registers

	IME     bool
	IE      uint8 // IE register at 0xFFFF
	IF      uint8 // IF register at 0xFF0F
	Halted  bool
	Stopped bool
	Cycles  uint64

	// Instruction is the disassembly of the instruction at PC.
	Instruction string
}

// FormatState writes a register dump in the style of
//
//	PC=0100 SP=FFFE AF=01B0 BC=0013 DE=00D8 HL=014D [Z-HC]
//	IME=0 IE=00 IF=E1 cycles=0
//	>0100  NOP
func FormatState(w io.Writer, s CPUState) error {
	var b strings.Builder

	fmt.Fprintf(&b, "PC=%04X SP=%04X AF=%04X BC=%04X DE=%04X HL=%04X [%s]\n",
		s.PC, s.SP, s.AF(), s.BC(), s.DE(), s.HL(), s.FlagString())

	fmt.Fprintf(&b, "IME=%d IE=%02X IF=%02X cycles=%d", boolToInt(s.IME), s.IE, s.IF, s.Cycles)
	switch {
	case s.Halted:
		b.WriteString(" HALT")
	case s.Stopped:
		b.WriteString(" STOP")
	}
	b.WriteByte('\n')

	if s.Instruction != "" {
		fmt.Fprintf(&b, ">%04X  %s\n", s.PC, s.Instruction)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// MemorySnapshot is a contiguous range of the address space.
type MemorySnapshot struct {
	StartAddr uint16
	Bytes     []byte
}

// FormatMemory writes a hex dump, 16 bytes per line.
func FormatMemory(w io.Writer, snap MemorySnapshot) error {
	var b strings.Builder
	for i := 0; i < len(snap.Bytes); i += 16 {
		row := snap.Bytes[i:min(i+16, len(snap.Bytes))]
		fmt.Fprintf(&b, "%04X ", int(snap.StartAddr)+i)
		for _, v := range row {
			fmt.Fprintf(&b, " %02X", v)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
