package debug

import (
	"fmt"
	"io"

	"github.com/valerio/go-dmg/dmg/cpu"
)

type DisasmLine struct {
	Address     uint16
	Instruction string
	Bytes       []uint8
	IsCurrent   bool
}

// Disassemble decodes count instructions starting at pc. Decoding only
// goes forward, instructions can't be reliably decoded backwards.
func Disassemble(reader cpu.Reader, pc uint16, count int) []DisasmLine {
	lines := make([]DisasmLine, 0, count)

	address := pc
	for range count {
		text, length := cpu.Disassemble(reader, address)

		raw := make([]uint8, length)
		for i := range raw {
			raw[i] = reader.Read(address + uint16(i))
		}

		lines = append(lines, DisasmLine{
			Address:     address,
			Instruction: text,
			Bytes:       raw,
			IsCurrent:   address == pc,
		})
		address += uint16(length)
	}

	return lines
}

// FormatDisassembly writes one line per instruction, marking the current one.
//
//	>0100  00        NOP
//	 0101  C3 50 01  JP $0150
func FormatDisassembly(w io.Writer, lines []DisasmLine) error {
	for _, line := range lines {
		marker := " "
		if line.IsCurrent {
			marker = ">"
		}

		hex := ""
		for i, b := range line.Bytes {
			if i > 0 {
				hex += " "
			}
			hex += fmt.Sprintf("%02X", b)
		}

		if _, err := fmt.Fprintf(w, "%s%04X  %-8s  %s\n", marker, line.Address, hex, line.Instruction); err != nil {
			return err
		}
	}
	return nil
}
