// Package cpu implements the SM83 core of the DMG: table-driven decode,
// execution, interrupt dispatch and the HALT/STOP low power states.
package cpu

import (
	"errors"
	"fmt"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
	"github.com/valerio/go-dmg/dmg/interrupt"
)

// Bus is what the CPU needs to run: byte access to the address space and
// the interrupt controller. The CPU never keeps a reference to it.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	Interrupts() *interrupt.Controller
}

// ErrUnimplementedOpcode is matched by every UnimplementedOpcodeError.
var ErrUnimplementedOpcode = errors.New("unimplemented opcode")

// UnimplementedOpcodeError reports a fetch of one of the 11 opcodes the
// SM83 does not define. Real hardware locks up, so the CPU stays faulted.
type UnimplementedOpcodeError struct {
	PC     uint16
	Opcode uint8
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("unimplemented opcode 0x%02X at 0x%04X", e.Opcode, e.PC)
}

func (e *UnimplementedOpcodeError) Is(target error) bool {
	return target == ErrUnimplementedOpcode
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// interruptCycles is the cost of dispatching to an interrupt handler.
const interruptCycles = 20

// CPU holds the SM83 register file and execution state.
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// metadata
	halted  bool
	stopped bool
	cycles  uint64

	// haltBug is set by a HALT that didn't halt: the next fetch doesn't
	// increment PC, so the byte after HALT is read twice.
	haltBug bool

	fault error
}

// New returns a CPU in the state the boot ROM leaves it in.
func New() *CPU {
	cpu := &CPU{}

	cpu.setAF(0x01B0)
	cpu.setBC(0x0013)
	cpu.setDE(0x00D8)
	cpu.setHL(0x014D)
	cpu.sp = 0xFFFE
	cpu.pc = 0x0100

	return cpu
}

// NewWithBootROM returns a CPU at power on, ready to run the boot ROM
// from address 0.
func NewWithBootROM() *CPU {
	return &CPU{}
}

// Step runs one instruction, one interrupt dispatch or one M-cycle of
// HALT/STOP, and returns the clock cycles it took.
func (c *CPU) Step(bus Bus) (int, error) {
	if c.fault != nil {
		return 0, c.fault
	}

	irq := bus.Interrupts()

	if c.stopped {
		if !bit.IsSet(uint8(interrupt.Joypad), irq.RequestedMask()) {
			c.cycles += 4
			return 4, nil
		}
		c.stopped = false
	}

	if c.halted {
		if !irq.HasPending() {
			c.cycles += 4
			return 4, nil
		}
		// waking up doesn't need IME, the interrupt is only serviced with it
		c.halted = false
	}

	if irq.MasterEnabled() {
		if source, ok := irq.Pending(); ok {
			return c.serviceInterrupt(bus, irq, source), nil
		}
	}

	return c.execute(bus, irq)
}

func (c *CPU) serviceInterrupt(bus Bus, irq *interrupt.Controller, source interrupt.Source) int {
	irq.Acknowledge(source)
	irq.DisableMaster()

	c.pushStack(bus, c.pc)
	c.pc = source.Vector()
	c.cycles += interruptCycles

	return interruptCycles
}

func (c *CPU) execute(bus Bus, irq *interrupt.Controller) (int, error) {
	start := c.pc
	opcode := bus.Read(c.pc)

	// Previous HALT triggered the halt bug, we have to skip the first PC increment.
	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
	}

	in := &opcodes[opcode]
	operands := in.length - 1
	if opcode == 0xCB {
		in = &cbOpcodes[bus.Read(c.pc)]
		c.pc++
		operands = 0
	}

	if in.exec == nil {
		c.pc = start
		c.fault = &UnimplementedOpcodeError{PC: start, Opcode: opcode}
		return 0, c.fault
	}

	var operand uint16
	switch operands {
	case 1:
		operand = uint16(c.readImmediate(bus))
	case 2:
		operand = c.readImmediateWord(bus)
	}

	cycles := in.cycles
	if in.exec(c, bus, operand) {
		cycles = in.branchCycles
	}

	irq.InstructionRetired()
	c.cycles += uint64(cycles)

	return cycles, nil
}

// readImmediate returns the byte pointed by PC and moves past it.
func (c *CPU) readImmediate(bus Bus) uint8 {
	n := bus.Read(c.pc)
	c.pc++
	return n
}

// readImmediateWord reads a little endian word at PC and moves past it.
func (c *CPU) readImmediateWord(bus Bus) uint16 {
	low := bus.Read(c.pc)
	high := bus.Read(c.pc + 1)
	c.pc += 2
	return bit.Combine(high, low)
}

// halt is the HALT instruction. With IME clear and an interrupt already
// pending the CPU doesn't halt and triggers the halt bug instead.
func (c *CPU) halt(bus Bus) {
	irq := bus.Interrupts()
	if !irq.MasterEnabled() && !irq.EnablePending() && irq.HasPending() {
		c.haltBug = true
		return
	}
	c.halted = true
}

// stop is the STOP instruction: the CPU sleeps until a button is pressed,
// and the divider is reset.
func (c *CPU) stop(bus Bus) {
	c.stopped = true
	bus.Write(addr.DIV, 0)
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &= uint8(flag ^ 0xFF)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}

	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if !condition {
		c.resetFlag(flag)
		return
	}

	c.setFlag(flag)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c *CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// F register lower 4 bits must be 0
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Halted reports whether the CPU is waiting in HALT.
func (c *CPU) Halted() bool { return c.halted }

// Stopped reports whether the CPU is waiting in STOP.
func (c *CPU) Stopped() bool { return c.stopped }

// Cycles returns the clock cycles executed since creation.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Fault returns the error that stopped the CPU, if any.
func (c *CPU) Fault() error { return c.fault }
