package cpu

import "fmt"

// instruction describes one opcode. Operand placeholders in the mnemonic
// (n8, n16, e8, a8, a16) are filled in by Disassemble.
type instruction struct {
	mnemonic string
	// length in bytes, including the opcode (and the CB prefix)
	length int
	// cycles when a conditional branch is not taken, or always
	cycles int
	// branchCycles when a conditional branch is taken
	branchCycles int
	// exec runs the instruction with its immediate operand, if any, and
	// reports whether a conditional branch was taken.
	exec func(c *CPU, bus Bus, operand uint16) bool
}

var (
	r8Names    = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	r16Names   = [4]string{"BC", "DE", "HL", "SP"}
	stackNames = [4]string{"BC", "DE", "HL", "AF"}
	condNames  = [4]string{"NZ", "Z", "NC", "C"}

	undefinedOpcodes = []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}
)

// hlIndex is the operand encoding of (HL) in r8 positions.
const hlIndex = 6

var opcodes = buildOpcodes()

func op(mnemonic string, length, cycles int, fn func(c *CPU, bus Bus, operand uint16)) instruction {
	return instruction{
		mnemonic: mnemonic,
		length:   length,
		cycles:   cycles,
		exec: func(c *CPU, bus Bus, operand uint16) bool {
			fn(c, bus, operand)
			return false
		},
	}
}

func branch(mnemonic string, length, cycles, branchCycles int, fn func(c *CPU, bus Bus, operand uint16) bool) instruction {
	return instruction{
		mnemonic:     mnemonic,
		length:       length,
		cycles:       cycles,
		branchCycles: branchCycles,
		exec:         fn,
	}
}

// memCycles returns cycles, plus extra when the operand is (HL).
func memCycles(index uint8, cycles, extra int) int {
	if index == hlIndex {
		return cycles + extra
	}
	return cycles
}

func buildOpcodes() [256]instruction {
	var t [256]instruction

	for _, code := range undefinedOpcodes {
		t[code] = instruction{mnemonic: fmt.Sprintf("ILLEGAL_%02X", code), length: 1}
	}

	buildLoads(&t)
	buildArithmetic(&t)
	buildControl(&t)
	buildMisc(&t)

	return t
}

func buildLoads(t *[256]instruction) {
	// LD r, r' (0x40-0x7F), 0x76 is HALT
	for dst := range uint8(8) {
		for src := range uint8(8) {
			code := 0x40 | dst<<3 | src
			if code == 0x76 {
				continue
			}
			cycles := 4
			if dst == hlIndex || src == hlIndex {
				cycles = 8
			}
			t[code] = op(fmt.Sprintf("LD %s,%s", r8Names[dst], r8Names[src]), 1, cycles, func(c *CPU, bus Bus, _ uint16) {
				c.setReg8(bus, dst, c.reg8(bus, src))
			})
		}
	}

	// LD r, n8
	for r := range uint8(8) {
		t[0x06|r<<3] = op(fmt.Sprintf("LD %s,n8", r8Names[r]), 2, memCycles(r, 8, 4), func(c *CPU, bus Bus, n uint16) {
			c.setReg8(bus, r, uint8(n))
		})
	}

	// LD rr, n16
	for p := range uint8(4) {
		t[0x01|p<<4] = op(fmt.Sprintf("LD %s,n16", r16Names[p]), 3, 12, func(c *CPU, _ Bus, nn uint16) {
			c.setReg16(p, nn)
		})
	}

	t[0x02] = op("LD (BC),A", 1, 8, func(c *CPU, bus Bus, _ uint16) { bus.Write(c.getBC(), c.a) })
	t[0x12] = op("LD (DE),A", 1, 8, func(c *CPU, bus Bus, _ uint16) { bus.Write(c.getDE(), c.a) })
	t[0x22] = op("LD (HL+),A", 1, 8, func(c *CPU, bus Bus, _ uint16) {
		hl := c.getHL()
		bus.Write(hl, c.a)
		c.setHL(hl + 1)
	})
	t[0x32] = op("LD (HL-),A", 1, 8, func(c *CPU, bus Bus, _ uint16) {
		hl := c.getHL()
		bus.Write(hl, c.a)
		c.setHL(hl - 1)
	})
	t[0x0A] = op("LD A,(BC)", 1, 8, func(c *CPU, bus Bus, _ uint16) { c.a = bus.Read(c.getBC()) })
	t[0x1A] = op("LD A,(DE)", 1, 8, func(c *CPU, bus Bus, _ uint16) { c.a = bus.Read(c.getDE()) })
	t[0x2A] = op("LD A,(HL+)", 1, 8, func(c *CPU, bus Bus, _ uint16) {
		hl := c.getHL()
		c.a = bus.Read(hl)
		c.setHL(hl + 1)
	})
	t[0x3A] = op("LD A,(HL-)", 1, 8, func(c *CPU, bus Bus, _ uint16) {
		hl := c.getHL()
		c.a = bus.Read(hl)
		c.setHL(hl - 1)
	})

	t[0x08] = op("LD (a16),SP", 3, 20, func(c *CPU, bus Bus, nn uint16) {
		bus.Write(nn, uint8(c.sp))
		bus.Write(nn+1, uint8(c.sp>>8))
	})

	t[0xE0] = op("LDH (a8),A", 2, 12, func(c *CPU, bus Bus, n uint16) { bus.Write(0xFF00|n, c.a) })
	t[0xF0] = op("LDH A,(a8)", 2, 12, func(c *CPU, bus Bus, n uint16) { c.a = bus.Read(0xFF00 | n) })
	t[0xE2] = op("LD (C),A", 1, 8, func(c *CPU, bus Bus, _ uint16) { bus.Write(0xFF00|uint16(c.c), c.a) })
	t[0xF2] = op("LD A,(C)", 1, 8, func(c *CPU, bus Bus, _ uint16) { c.a = bus.Read(0xFF00 | uint16(c.c)) })
	t[0xEA] = op("LD (a16),A", 3, 16, func(c *CPU, bus Bus, nn uint16) { bus.Write(nn, c.a) })
	t[0xFA] = op("LD A,(a16)", 3, 16, func(c *CPU, bus Bus, nn uint16) { c.a = bus.Read(nn) })

	t[0xF8] = op("LD HL,SP+e8", 2, 12, func(c *CPU, _ Bus, e uint16) { c.setHL(c.offsetSP(uint8(e))) })
	t[0xF9] = op("LD SP,HL", 1, 8, func(c *CPU, _ Bus, _ uint16) { c.sp = c.getHL() })

	// PUSH/POP
	for p := range uint8(4) {
		t[0xC1|p<<4] = op("POP "+stackNames[p], 1, 12, func(c *CPU, bus Bus, _ uint16) {
			c.setStackReg16(p, c.popStack(bus))
		})
		t[0xC5|p<<4] = op("PUSH "+stackNames[p], 1, 16, func(c *CPU, bus Bus, _ uint16) {
			c.pushStack(bus, c.stackReg16(p))
		})
	}
}

func buildArithmetic(t *[256]instruction) {
	type aluOp struct {
		name string
		fn   func(c *CPU, value uint8)
	}
	alu := [8]aluOp{
		{"ADD A,", func(c *CPU, v uint8) { c.addToA(v, false) }},
		{"ADC A,", func(c *CPU, v uint8) { c.addToA(v, true) }},
		{"SUB ", func(c *CPU, v uint8) { c.a = c.sub(v, false) }},
		{"SBC A,", func(c *CPU, v uint8) { c.a = c.sub(v, true) }},
		{"AND ", (*CPU).and},
		{"XOR ", (*CPU).xor},
		{"OR ", (*CPU).or},
		{"CP ", func(c *CPU, v uint8) { c.sub(v, false) }},
	}

	// ALU A, r (0x80-0xBF) and ALU A, n8
	for i, a := range alu {
		for src := range uint8(8) {
			t[0x80|uint8(i)<<3|src] = op(a.name+r8Names[src], 1, memCycles(src, 4, 4), func(c *CPU, bus Bus, _ uint16) {
				a.fn(c, c.reg8(bus, src))
			})
		}
		t[0xC6|uint8(i)<<3] = op(a.name+"n8", 2, 8, func(c *CPU, _ Bus, n uint16) {
			a.fn(c, uint8(n))
		})
	}

	// INC r / DEC r
	for r := range uint8(8) {
		t[0x04|r<<3] = op("INC "+r8Names[r], 1, memCycles(r, 4, 8), func(c *CPU, bus Bus, _ uint16) {
			c.setReg8(bus, r, c.inc(c.reg8(bus, r)))
		})
		t[0x05|r<<3] = op("DEC "+r8Names[r], 1, memCycles(r, 4, 8), func(c *CPU, bus Bus, _ uint16) {
			c.setReg8(bus, r, c.dec(c.reg8(bus, r)))
		})
	}

	// 16 bit INC/DEC/ADD HL
	for p := range uint8(4) {
		t[0x03|p<<4] = op("INC "+r16Names[p], 1, 8, func(c *CPU, _ Bus, _ uint16) {
			c.setReg16(p, c.reg16(p)+1)
		})
		t[0x0B|p<<4] = op("DEC "+r16Names[p], 1, 8, func(c *CPU, _ Bus, _ uint16) {
			c.setReg16(p, c.reg16(p)-1)
		})
		t[0x09|p<<4] = op("ADD HL,"+r16Names[p], 1, 8, func(c *CPU, _ Bus, _ uint16) {
			c.addToHL(c.reg16(p))
		})
	}

	t[0xE8] = op("ADD SP,e8", 2, 16, func(c *CPU, _ Bus, e uint16) { c.sp = c.offsetSP(uint8(e)) })

	t[0x27] = op("DAA", 1, 4, func(c *CPU, _ Bus, _ uint16) { c.daa() })
	t[0x2F] = op("CPL", 1, 4, func(c *CPU, _ Bus, _ uint16) {
		c.a = ^c.a
		c.setFlag(subFlag)
		c.setFlag(halfCarryFlag)
	})
	t[0x37] = op("SCF", 1, 4, func(c *CPU, _ Bus, _ uint16) {
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		c.setFlag(carryFlag)
	})
	t[0x3F] = op("CCF", 1, 4, func(c *CPU, _ Bus, _ uint16) {
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
	})

	// the accumulator rotates always clear Z, unlike their CB versions
	rotateA := func(name string, fn func(c *CPU, v uint8) uint8) instruction {
		return op(name, 1, 4, func(c *CPU, _ Bus, _ uint16) {
			c.a = fn(c, c.a)
			c.resetFlag(zeroFlag)
		})
	}
	t[0x07] = rotateA("RLCA", (*CPU).rlc)
	t[0x0F] = rotateA("RRCA", (*CPU).rrc)
	t[0x17] = rotateA("RLA", (*CPU).rl)
	t[0x1F] = rotateA("RRA", (*CPU).rr)
}

func buildControl(t *[256]instruction) {
	t[0x18] = op("JR e8", 2, 12, func(c *CPU, _ Bus, e uint16) { c.jr(uint8(e)) })
	t[0xC3] = op("JP a16", 3, 16, func(c *CPU, _ Bus, nn uint16) { c.pc = nn })
	t[0xE9] = op("JP HL", 1, 4, func(c *CPU, _ Bus, _ uint16) { c.pc = c.getHL() })
	t[0xCD] = op("CALL a16", 3, 24, func(c *CPU, bus Bus, nn uint16) { c.call(bus, nn) })
	t[0xC9] = op("RET", 1, 16, func(c *CPU, bus Bus, _ uint16) { c.pc = c.popStack(bus) })
	t[0xD9] = op("RETI", 1, 16, func(c *CPU, bus Bus, _ uint16) {
		c.pc = c.popStack(bus)
		bus.Interrupts().EnableMaster()
	})

	for cc := range uint8(4) {
		name := condNames[cc]
		t[0x20|cc<<3] = branch("JR "+name+",e8", 2, 8, 12, func(c *CPU, _ Bus, e uint16) bool {
			if !c.condition(cc) {
				return false
			}
			c.jr(uint8(e))
			return true
		})
		t[0xC2|cc<<3] = branch("JP "+name+",a16", 3, 12, 16, func(c *CPU, _ Bus, nn uint16) bool {
			if !c.condition(cc) {
				return false
			}
			c.pc = nn
			return true
		})
		t[0xC4|cc<<3] = branch("CALL "+name+",a16", 3, 12, 24, func(c *CPU, bus Bus, nn uint16) bool {
			if !c.condition(cc) {
				return false
			}
			c.call(bus, nn)
			return true
		})
		t[0xC0|cc<<3] = branch("RET "+name, 1, 8, 20, func(c *CPU, bus Bus, _ uint16) bool {
			if !c.condition(cc) {
				return false
			}
			c.pc = c.popStack(bus)
			return true
		})
	}

	// RST vectors 0x00, 0x08 ... 0x38
	for n := range uint8(8) {
		vector := uint16(n) * 8
		t[0xC7|n<<3] = op(fmt.Sprintf("RST $%02X", vector), 1, 16, func(c *CPU, bus Bus, _ uint16) {
			c.call(bus, vector)
		})
	}
}

func buildMisc(t *[256]instruction) {
	t[0x00] = op("NOP", 1, 4, func(*CPU, Bus, uint16) {})
	t[0x10] = op("STOP", 2, 4, func(c *CPU, bus Bus, _ uint16) { c.stop(bus) })
	t[0x76] = op("HALT", 1, 4, func(c *CPU, bus Bus, _ uint16) { c.halt(bus) })
	t[0xF3] = op("DI", 1, 4, func(_ *CPU, bus Bus, _ uint16) { bus.Interrupts().DisableMaster() })
	t[0xFB] = op("EI", 1, 4, func(_ *CPU, bus Bus, _ uint16) { bus.Interrupts().EnableMasterDelayed() })

	// decoded from the next byte, see cbOpcodes
	t[0xCB] = instruction{mnemonic: "PREFIX CB", length: 1, cycles: 4}
}
