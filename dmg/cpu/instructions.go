package cpu

import "github.com/valerio/go-dmg/dmg/bit"

func (c *CPU) pushStack(bus Bus, value uint16) {
	c.sp--
	bus.Write(c.sp, bit.High(value))
	c.sp--
	bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack(bus Bus) uint16 {
	low := bus.Read(c.sp)
	c.sp++
	high := bus.Read(c.sp)
	c.sp++

	return bit.Combine(high, low)
}

// inc returns value+1, carry is not affected.
func (c *CPU) inc(value uint8) uint8 {
	result := value + 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, result&0xF == 0)

	return result
}

// dec returns value-1, carry is not affected.
func (c *CPU) dec(value uint8) uint8 {
	result := value - 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, result&0xF == 0xF)

	return result
}

// addToA adds value (and the carry flag for ADC) to A, setting all flags.
func (c *CPU) addToA(value uint8, withCarry bool) {
	var carryIn uint8
	if withCarry {
		carryIn = c.flagToBit(carryFlag)
	}

	a := c.a
	sum := uint16(a) + uint16(value) + uint16(carryIn)
	result := uint8(sum)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carryIn > 0xF)
	c.setFlagToCondition(carryFlag, sum > 0xFF)

	c.a = result
}

// sub subtracts value (and the carry flag for SBC) from A, setting all
// flags, and returns the result without storing it. CP uses it as is.
func (c *CPU) sub(value uint8, withCarry bool) uint8 {
	var carryIn uint8
	if withCarry {
		carryIn = c.flagToBit(carryFlag)
	}

	a := c.a
	result := a - value - carryIn

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, int(a&0xF)-int(value&0xF)-int(carryIn) < 0)
	c.setFlagToCondition(carryFlag, int(a)-int(value)-int(carryIn) < 0)

	return result
}

func (c *CPU) and(value uint8) {
	c.a &= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

// addToHL adds a 16 bit value to HL, zero is not affected.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	sum := uint32(hl) + uint32(value)

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0xFFF)+(value&0xFFF) > 0xFFF)
	c.setFlagToCondition(carryFlag, sum > 0xFFFF)

	c.setHL(uint16(sum))
}

// offsetSP returns SP plus a signed offset, as ADD SP,e8 and LD HL,SP+e8
// compute it. Carries come from the low byte as an unsigned addition.
func (c *CPU) offsetSP(offset uint8) uint16 {
	sp := c.sp

	c.resetFlag(zeroFlag)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (sp&0xF)+uint16(offset&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, (sp&0xFF)+uint16(offset) > 0xFF)

	return uint16(int32(sp) + int32(int8(offset)))
}

// daa adjusts A to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	carry := c.isSetFlag(carryFlag)

	if !c.isSetFlag(subFlag) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			a -= 0x06
		}
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) jr(offset uint8) {
	c.pc = uint16(int32(c.pc) + int32(int8(offset)))
}

func (c *CPU) call(bus Bus, address uint16) {
	c.pushStack(bus, c.pc)
	c.pc = address
}

// shiftFlags sets the flags shared by every rotate and shift: Z from the
// result, N and H cleared, C from the bit shifted out.
func (c *CPU) shiftFlags(result uint8, carry bool) {
	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) rlc(value uint8) uint8 {
	result := value<<1 | value>>7
	c.shiftFlags(result, value > 0x7F)
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.flagToBit(carryFlag)
	c.shiftFlags(result, value > 0x7F)
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	result := value>>1 | value<<7
	c.shiftFlags(result, value&1 == 1)
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.shiftFlags(result, value&1 == 1)
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.shiftFlags(result, value > 0x7F)
	return result
}

// sra shifts right keeping bit 7.
func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.shiftFlags(result, value&1 == 1)
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.shiftFlags(result, value&1 == 1)
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.shiftFlags(result, false)
	return result
}

// testBit is BIT: Z is set when bit index of value is clear, carry is not affected.
func (c *CPU) testBit(index, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}
