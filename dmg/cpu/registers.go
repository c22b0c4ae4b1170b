package cpu

import "github.com/valerio/go-dmg/dmg/bit"

// Registers is a copy of the register file, used by debuggers and tests.
type Registers struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8
	SP   uint16
	PC   uint16
}

func (r Registers) AF() uint16 { return bit.Combine(r.A, r.F) }
func (r Registers) BC() uint16 { return bit.Combine(r.B, r.C) }
func (r Registers) DE() uint16 { return bit.Combine(r.D, r.E) }
func (r Registers) HL() uint16 { return bit.Combine(r.H, r.L) }

// FlagString returns a human-readable representation of the flag register,
// e.g. "Z-H-".
func (r Registers) FlagString() string {
	flags := []byte("----")
	for i, f := range []struct {
		flag Flag
		name byte
	}{{zeroFlag, 'Z'}, {subFlag, 'N'}, {halfCarryFlag, 'H'}, {carryFlag, 'C'}} {
		if r.F&uint8(f.flag) != 0 {
			flags[i] = f.name
		}
	}
	return string(flags)
}

// Registers returns a snapshot of the register file.
func (c *CPU) Registers() Registers {
	return Registers{
		A: c.a, F: c.f,
		B: c.b, C: c.c,
		D: c.d, E: c.e,
		H: c.h, L: c.l,
		SP: c.sp,
		PC: c.pc,
	}
}

// SetRegisters overwrites the register file. The low nibble of F is
// always dropped.
func (c *CPU) SetRegisters(r Registers) {
	c.a, c.f = r.A, r.F&0xF0
	c.b, c.c = r.B, r.C
	c.d, c.e = r.D, r.E
	c.h, c.l = r.H, r.L
	c.sp = r.SP
	c.pc = r.PC
}

// reg8 reads one of the 8 bit operands by its encoding in the opcode:
// B, C, D, E, H, L, (HL), A.
func (c *CPU) reg8(bus Bus, index uint8) uint8 {
	switch index {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case 6:
		return bus.Read(c.getHL())
	default:
		return c.a
	}
}

func (c *CPU) setReg8(bus Bus, index uint8, value uint8) {
	switch index {
	case 0:
		c.b = value
	case 1:
		c.c = value
	case 2:
		c.d = value
	case 3:
		c.e = value
	case 4:
		c.h = value
	case 5:
		c.l = value
	case 6:
		bus.Write(c.getHL(), value)
	default:
		c.a = value
	}
}

// reg16 reads a register pair by its encoding: BC, DE, HL, SP.
func (c *CPU) reg16(index uint8) uint16 {
	switch index {
	case 0:
		return c.getBC()
	case 1:
		return c.getDE()
	case 2:
		return c.getHL()
	default:
		return c.sp
	}
}

func (c *CPU) setReg16(index uint8, value uint16) {
	switch index {
	case 0:
		c.setBC(value)
	case 1:
		c.setDE(value)
	case 2:
		c.setHL(value)
	default:
		c.sp = value
	}
}

// stackReg16 is like reg16 but the last pair is AF, as in PUSH/POP.
func (c *CPU) stackReg16(index uint8) uint16 {
	if index == 3 {
		return c.getAF()
	}
	return c.reg16(index)
}

func (c *CPU) setStackReg16(index uint8, value uint16) {
	if index == 3 {
		c.setAF(value)
		return
	}
	c.setReg16(index, value)
}

// condition evaluates a branch condition by its encoding: NZ, Z, NC, C.
func (c *CPU) condition(index uint8) bool {
	switch index {
	case 0:
		return !c.isSetFlag(zeroFlag)
	case 1:
		return c.isSetFlag(zeroFlag)
	case 2:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}
