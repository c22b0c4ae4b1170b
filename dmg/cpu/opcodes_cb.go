package cpu

import "fmt"

var cbOpcodes = buildCBOpcodes()

// buildCBOpcodes fills the 0xCB prefixed table. The opcode encodes the
// operation in bits 7-3 and the operand in bits 2-0:
//
//	00 ooo rrr  rotate/shift o on r
//	01 bbb rrr  BIT b, r
//	10 bbb rrr  RES b, r
//	11 bbb rrr  SET b, r
func buildCBOpcodes() [256]instruction {
	var t [256]instruction

	shifts := [8]struct {
		name string
		fn   func(c *CPU, v uint8) uint8
	}{
		{"RLC", (*CPU).rlc},
		{"RRC", (*CPU).rrc},
		{"RL", (*CPU).rl},
		{"RR", (*CPU).rr},
		{"SLA", (*CPU).sla},
		{"SRA", (*CPU).sra},
		{"SWAP", (*CPU).swap},
		{"SRL", (*CPU).srl},
	}

	for r := range uint8(8) {
		for i, s := range shifts {
			t[uint8(i)<<3|r] = op(s.name+" "+r8Names[r], 2, memCycles(r, 8, 8), func(c *CPU, bus Bus, _ uint16) {
				c.setReg8(bus, r, s.fn(c, c.reg8(bus, r)))
			})
		}

		for b := range uint8(8) {
			t[0x40|b<<3|r] = op(fmt.Sprintf("BIT %d,%s", b, r8Names[r]), 2, memCycles(r, 8, 4), func(c *CPU, bus Bus, _ uint16) {
				c.testBit(b, c.reg8(bus, r))
			})
			t[0x80|b<<3|r] = op(fmt.Sprintf("RES %d,%s", b, r8Names[r]), 2, memCycles(r, 8, 8), func(c *CPU, bus Bus, _ uint16) {
				c.setReg8(bus, r, c.reg8(bus, r)&^(1<<b))
			})
			t[0xC0|b<<3|r] = op(fmt.Sprintf("SET %d,%s", b, r8Names[r]), 2, memCycles(r, 8, 8), func(c *CPU, bus Bus, _ uint16) {
				c.setReg8(bus, r, c.reg8(bus, r)|1<<b)
			})
		}
	}

	return t
}
