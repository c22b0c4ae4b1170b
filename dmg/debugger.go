package dmg

import (
	"fmt"
	"slices"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
	"github.com/valerio/go-dmg/dmg/cpu"
	"github.com/valerio/go-dmg/dmg/debug"
	"github.com/valerio/go-dmg/dmg/video"
)

// AddBreakpoint pauses execution whenever PC reaches address.
func (d *DMG) AddBreakpoint(address uint16) {
	d.breakpoints[address] = struct{}{}
}

// RemoveBreakpoint deletes a breakpoint, it is a no-op if none was set.
func (d *DMG) RemoveBreakpoint(address uint16) {
	delete(d.breakpoints, address)
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (d *DMG) Breakpoints() []uint16 {
	out := make([]uint16, 0, len(d.breakpoints))
	for address := range d.breakpoints {
		out = append(out, address)
	}
	slices.Sort(out)
	return out
}

func (d *DMG) hasBreakpoint(pc uint16) bool {
	_, ok := d.breakpoints[pc]
	return ok
}

// Paused reports whether a breakpoint (or Pause) stopped RunUntilFrame.
func (d *DMG) Paused() bool {
	return d.paused
}

// Pause stops RunUntilFrame until Resume is called.
func (d *DMG) Pause() {
	d.paused = true
}

// Resume clears the paused state.
func (d *DMG) Resume() {
	d.paused = false
}

// CPUState captures the registers, interrupt state and the instruction at PC.
func (d *DMG) CPUState() debug.CPUState {
	regs := d.cpu.Registers()
	irq := d.mmu.Interrupts()
	text, _ := cpu.Disassemble(d.mmu, regs.PC)

	return debug.CPUState{
		Registers:   regs,
		IME:         irq.MasterEnabled(),
		IE:          d.mmu.Read(addr.IE),
		IF:          d.mmu.Read(addr.IF),
		Halted:      d.cpu.Halted(),
		Stopped:     d.cpu.Stopped(),
		Cycles:      d.cpu.Cycles(),
		Instruction: text,
	}
}

// Peek reads a byte the same way the CPU would.
func (d *DMG) Peek(address uint16) uint8 {
	return d.mmu.Read(address)
}

// Disassembly decodes count instructions starting at PC.
func (d *DMG) Disassembly(count int) []debug.DisasmLine {
	return debug.Disassemble(d.mmu, d.cpu.Registers().PC, count)
}

// MemorySnapshot reads up to size bytes starting at start. It stops at
// 0xFFFF instead of wrapping around.
func (d *DMG) MemorySnapshot(start uint16, size int) debug.MemorySnapshot {
	size = min(size, 0x10000-int(start))
	snap := debug.MemorySnapshot{StartAddr: start, Bytes: make([]byte, size)}
	for i := range size {
		snap.Bytes[i] = d.mmu.Read(start + uint16(i))
	}
	return snap
}

// OAM decodes the sprite table relative to the current scanline.
func (d *DMG) OAM() *debug.OAMData {
	tall := bit.IsSet(2, d.mmu.LCDRegisters().LCDC)
	return debug.ExtractOAMData(video.AllSprites(d.mmu, tall), d.ppu.Line())
}

func hex8(v uint8) string   { return fmt.Sprintf("0x%02X", v) }
func hex16(v uint16) string { return fmt.Sprintf("0x%04X", v) }
