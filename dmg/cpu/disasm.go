package cpu

import (
	"fmt"
	"strings"
)

// Reader is the read side of the bus, enough to disassemble.
type Reader interface {
	Read(address uint16) byte
}

// Disassemble decodes the instruction at pc and returns its text along
// with its length in bytes. Reading is side-effect free only as far as the
// reader is.
func Disassemble(bus Reader, pc uint16) (string, int) {
	code := bus.Read(pc)
	in := &opcodes[code]
	if code == 0xCB {
		in = &cbOpcodes[bus.Read(pc+1)]
		return in.mnemonic, in.length
	}

	text := in.mnemonic
	switch in.length {
	case 2:
		n := bus.Read(pc + 1)
		text = fillOperand(text, n, pc)
	case 3:
		nn := uint16(bus.Read(pc+2))<<8 | uint16(bus.Read(pc+1))
		text = strings.Replace(text, "a16", fmt.Sprintf("$%04X", nn), 1)
		text = strings.Replace(text, "n16", fmt.Sprintf("$%04X", nn), 1)
	}

	return text, in.length
}

func fillOperand(text string, n uint8, pc uint16) string {
	switch {
	case strings.Contains(text, "JR"):
		// show the target rather than the raw offset
		target := uint16(int32(pc) + 2 + int32(int8(n)))
		return strings.Replace(text, "e8", fmt.Sprintf("$%04X", target), 1)
	case strings.Contains(text, "+e8"):
		return strings.Replace(text, "+e8", fmt.Sprintf("%+d", int8(n)), 1)
	case strings.Contains(text, "e8"):
		return strings.Replace(text, "e8", fmt.Sprintf("%d", int8(n)), 1)
	case strings.Contains(text, "a8"):
		return strings.Replace(text, "a8", fmt.Sprintf("$FF%02X", n), 1)
	case strings.Contains(text, "n8"):
		return strings.Replace(text, "n8", fmt.Sprintf("$%02X", n), 1)
	default:
		// STOP's padding byte
		return text
	}
}
