// Package memory implements the DMG address space: work/video RAM, OAM,
// HRAM, the I/O registers and the routing of every CPU access to the
// cartridge, timer, joypad, serial port, interrupt controller and LCD.
package memory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/audio"
	"github.com/valerio/go-dmg/dmg/cart"
	"github.com/valerio/go-dmg/dmg/interrupt"
	"github.com/valerio/go-dmg/dmg/serial"
)

// BootROMSize is the size of the DMG boot ROM.
const BootROMSize = 0x100

// ErrInvalidBootROM is returned when the boot ROM image is not 256 bytes.
var ErrInvalidBootROM = errors.New("invalid boot ROM")

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM // also covers the unusable 0xFEA0-0xFEFF area
	regionIO  // also covers HRAM and IE
)

// SerialPort is the device connected to SB/SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// MMU allows access to all memory mapped I/O and data/registers
type MMU struct {
	cart      *cart.Cartridge
	regionMap [256]memRegion

	vram [0x2000]byte
	wram [0x2000]byte
	oam  [addr.OAMSize]byte
	hram [0x7F]byte

	// audio register file, 0xFF10-0xFF3F
	audioRegs [0x30]byte

	lcd     LCDRegisters
	dmaLast byte

	bootROM       []byte
	bootROMActive bool

	interrupts *interrupt.Controller
	timer      *Timer
	joypad     *Joypad
	serial     SerialPort
	audio      audio.Sink

	// cycles counts clock cycles since power on, used to timestamp audio writes.
	cycles uint64

	logger *slog.Logger
}

// Option configures an MMU at construction.
type Option func(*MMU) error

// WithBootROM overlays the 256 byte boot ROM on 0x0000-0x00FF until the
// program writes to 0xFF50.
func WithBootROM(rom []byte) Option {
	return func(m *MMU) error {
		if len(rom) != BootROMSize {
			return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidBootROM, len(rom), BootROMSize)
		}
		m.bootROM = make([]byte, BootROMSize)
		copy(m.bootROM, rom)
		m.bootROMActive = true
		return nil
	}
}

// WithSerialPort replaces the default serial port, which discards output.
func WithSerialPort(p SerialPort) Option {
	return func(m *MMU) error {
		if p != nil {
			m.serial = p
		}
		return nil
	}
}

// WithAudioSink forwards sound register writes to s.
func WithAudioSink(s audio.Sink) Option {
	return func(m *MMU) error {
		if s != nil {
			m.audio = s
		}
		return nil
	}
}

// WithLogger sets the logger, slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(m *MMU) error {
		if l != nil {
			m.logger = l
		}
		return nil
	}
}

// New creates a memory unit with the cartridge inserted. Equivalent to
// turning on a Game Boy with a cartridge in.
func New(c *cart.Cartridge, opts ...Option) (*MMU, error) {
	m := &MMU{
		cart:       c,
		interrupts: interrupt.NewController(),
		joypad:     NewJoypad(),
		audio:      audio.Discard,
		logger:     slog.Default(),
	}
	m.timer = NewTimer(func() { m.interrupts.Request(interrupt.Timer) })

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.serial == nil {
		m.serial = serial.New(m.RequestSerialInterrupt, serial.WithLogger(m.logger))
	}

	initRegionMap(m)
	return m, nil
}

// NewWithoutCartridge creates a memory unit with nothing in the cartridge
// slot: ROM and external RAM read 0xFF and writes are dropped.
func NewWithoutCartridge() *MMU {
	m, _ := New(nil)
	return m
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// RequestSerialInterrupt is the completion callback of the serial port.
func (m *MMU) RequestSerialInterrupt() {
	m.interrupts.Request(interrupt.Serial)
}

// Interrupts returns the interrupt controller behind IF/IE.
func (m *MMU) Interrupts() *interrupt.Controller {
	return m.interrupts
}

// Timer returns the timer behind DIV/TIMA/TMA/TAC.
func (m *MMU) Timer() *Timer {
	return m.timer
}

// Cartridge returns the inserted cartridge, nil if there's none.
func (m *MMU) Cartridge() *cart.Cartridge {
	return m.cart
}

// BootROMActive reports whether the boot ROM is still mapped at 0x0000.
func (m *MMU) BootROMActive() bool {
	return m.bootROMActive
}

// Cycles returns the number of clock cycles the bus has been ticked for.
func (m *MMU) Cycles() uint64 {
	return m.cycles
}

// Tick advances any i/o that needs it: the timer, the serial port and the
// clock used to timestamp audio writes.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	m.serial.Tick(cycles)
	m.cycles += uint64(cycles)
}

// Press updates the joypad and requests the Joypad interrupt on a
// released -> pressed transition.
func (m *MMU) Press(b Button) {
	if m.joypad.Press(b) {
		m.interrupts.Request(interrupt.Joypad)
	}
}

// Release updates the joypad.
func (m *MMU) Release(b Button) {
	m.joypad.Release(b)
}

func (m *MMU) vramLocked() bool {
	return m.lcd.mode() == modeTransfer
}

func (m *MMU) oamLocked() bool {
	mode := m.lcd.mode()
	return mode == modeOAMSearch || mode == modeTransfer
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.bootROMActive && address <= addr.BootROMEnd {
			return m.bootROM[address]
		}
		return m.readCartridge(address)
	case regionExtRAM:
		return m.readCartridge(address)
	case regionVRAM:
		if m.vramLocked() {
			return 0xFF
		}
		return m.vram[address-addr.VRAMStart]
	case regionWRAM:
		return m.wram[address-addr.WRAMStart]
	case regionEcho:
		return m.wram[address-addr.EchoStart]
	case regionOAM:
		if address >= addr.UnusableStart {
			return 0x00
		}
		if m.oamLocked() {
			return 0xFF
		}
		return m.oam[address-addr.OAMStart]
	default:
		return m.readIO(address)
	}
}

func (m *MMU) readCartridge(address uint16) byte {
	if m.cart == nil {
		return 0xFF
	}
	return m.cart.Read(address)
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.IE:
		return m.interrupts.EnabledMask()
	case address >= addr.HRAMStart:
		return m.hram[address-addr.HRAMStart]
	case address == addr.P1:
		return m.joypad.Read()
	case address == addr.SB || address == addr.SC:
		return m.serial.Read(address)
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address)
	case address == addr.IF:
		return m.interrupts.RequestedMask()
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		i := address - addr.AudioStart
		return m.audioRegs[i] | audioReadMask[i]
	case address == addr.DMA:
		return m.dmaLast
	case address >= addr.LCDC && address <= addr.WX:
		return m.lcd.read(address)
	default:
		// unmapped I/O, including FF50 once read back
		return 0xFF
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.cart == nil {
			return
		}
		m.cart.Write(address, value)
	case regionVRAM:
		if m.vramLocked() {
			m.logger.Debug("VRAM write dropped, PPU in pixel transfer", "addr", address, "value", value)
			return
		}
		m.vram[address-addr.VRAMStart] = value
	case regionWRAM:
		m.wram[address-addr.WRAMStart] = value
	case regionEcho:
		m.wram[address-addr.EchoStart] = value
	case regionOAM:
		if address >= addr.UnusableStart {
			return
		}
		if m.oamLocked() {
			m.logger.Debug("OAM write dropped, PPU busy", "addr", address, "value", value)
			return
		}
		m.oam[address-addr.OAMStart] = value
	default:
		m.writeIO(address, value)
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.IE:
		m.interrupts.SetEnabledMask(value)
	case address >= addr.HRAMStart:
		m.hram[address-addr.HRAMStart] = value
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.SB || address == addr.SC:
		m.serial.Write(address, value)
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
	case address == addr.IF:
		m.interrupts.SetRequestedMask(value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.audioRegs[address-addr.AudioStart] = value
		m.audio.RegisterWrite(audio.Write{Address: address, Value: value, Cycle: m.cycles})
	case address == addr.DMA:
		m.dmaTransfer(value)
	case address >= addr.LCDC && address <= addr.WX:
		m.lcd.write(address, value)
	case address == addr.BootROMDisable:
		if value != 0 && m.bootROMActive {
			m.bootROMActive = false
			m.logger.Debug("boot ROM unmapped")
		}
	default:
		m.logger.Debug("write to unmapped I/O ignored", "addr", address, "value", value)
	}
}

// dmaTransfer copies 160 bytes from value<<8 into OAM. The copy is instant,
// the real transfer takes 160 M-cycles during which only HRAM is usable.
func (m *MMU) dmaTransfer(value byte) {
	m.dmaLast = value
	source := uint16(value) << 8
	if source >= addr.EchoStart {
		// 0xE0-0xFF sources hit the WRAM mirror
		source -= 0x2000
	}
	for i := range uint16(addr.OAMSize) {
		m.oam[i] = m.dmaRead(source + i)
	}
}

// dmaRead reads like the CPU does but ignores the PPU locks.
func (m *MMU) dmaRead(address uint16) byte {
	if m.regionMap[address>>8] == regionVRAM {
		return m.vram[address-addr.VRAMStart]
	}
	return m.Read(address)
}

// audioReadMask holds the bits of each sound register that always read as 1.
var audioReadMask = [0x30]byte{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50-NR52
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // unused
	// wave RAM reads back as written
}

// SeedPostBoot sets the I/O registers to the values the boot ROM leaves
// behind, for when execution starts at 0x0100 without running it.
func (m *MMU) SeedPostBoot() {
	m.timer.SetSeed(0xABCC)

	m.Write(addr.P1, 0xCF)
	m.Write(addr.SC, 0x00)
	m.Write(addr.TIMA, 0x00)
	m.Write(addr.TMA, 0x00)
	m.Write(addr.TAC, 0x00)
	m.Write(addr.IF, 0xE1)

	m.Write(addr.NR10, 0x80)
	m.Write(addr.NR11, 0xBF)
	m.Write(addr.NR12, 0xF3)
	m.Write(addr.NR14, 0xBF)
	m.Write(addr.NR21, 0x3F)
	m.Write(addr.NR22, 0x00)
	m.Write(addr.NR24, 0xBF)
	m.Write(addr.NR30, 0x7F)
	m.Write(addr.NR31, 0xFF)
	m.Write(addr.NR32, 0x9F)
	m.Write(addr.NR34, 0xBF)
	m.Write(addr.NR41, 0xFF)
	m.Write(addr.NR42, 0x00)
	m.Write(addr.NR43, 0x00)
	m.Write(addr.NR44, 0xBF)
	m.Write(addr.NR50, 0x77)
	m.Write(addr.NR51, 0xF3)
	m.Write(addr.NR52, 0xF1)

	m.Write(addr.LCDC, 0x91)
	m.Write(addr.STAT, 0x85)
	m.Write(addr.SCY, 0x00)
	m.Write(addr.SCX, 0x00)
	m.Write(addr.LYC, 0x00)
	m.dmaLast = 0xFF
	m.Write(addr.BGP, 0xFC)
	m.Write(addr.OBP0, 0xFF)
	m.Write(addr.OBP1, 0xFF)
	m.Write(addr.WY, 0x00)
	m.Write(addr.WX, 0x00)
	m.Write(addr.IE, 0x00)
}
