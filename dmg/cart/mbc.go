package cart

// MBC represents a Memory Bank Controller. Addresses are CPU addresses in
// 0x0000-0x7FFF (ROM and control registers) and 0xA000-0xBFFF (external RAM).
type MBC interface {
	// Read reads a byte from the specified address
	Read(addr uint16) uint8
	// Write either updates a banking register or stores into external RAM.
	Write(addr uint16, value uint8)
	// RAM exposes the external RAM backing store, nil when there is none.
	RAM() []uint8
}

// Kind identifies the bank switching policy of a cartridge.
type Kind uint8

const (
	NoMBCKind Kind = iota
	MBC1Kind
	MBC2Kind
	MBC3Kind
	MBC5Kind
)

func (k Kind) String() string {
	switch k {
	case NoMBCKind:
		return "ROM"
	case MBC1Kind:
		return "MBC1"
	case MBC2Kind:
		return "MBC2"
	case MBC3Kind:
		return "MBC3"
	case MBC5Kind:
		return "MBC5"
	default:
		return "unknown"
	}
}

// cartridgeType describes one header type code.
type cartridgeType struct {
	name    string
	kind    Kind
	ram     bool
	battery bool
	rumble  bool
}

// cartridgeTypes is the decode table from header type code to MBC policy.
// Codes missing from this table are rejected at load time.
var cartridgeTypes = map[byte]cartridgeType{
	0x00: {name: "ROM ONLY", kind: NoMBCKind},
	0x01: {name: "MBC1", kind: MBC1Kind},
	0x02: {name: "MBC1+RAM", kind: MBC1Kind, ram: true},
	0x03: {name: "MBC1+RAM+BATTERY", kind: MBC1Kind, ram: true, battery: true},
	0x05: {name: "MBC2", kind: MBC2Kind},
	0x06: {name: "MBC2+BATTERY", kind: MBC2Kind, battery: true},
	0x08: {name: "ROM+RAM", kind: NoMBCKind, ram: true},
	0x09: {name: "ROM+RAM+BATTERY", kind: NoMBCKind, ram: true, battery: true},
	0x0F: {name: "MBC3+TIMER+BATTERY", kind: MBC3Kind, battery: true},
	0x10: {name: "MBC3+TIMER+RAM+BATTERY", kind: MBC3Kind, ram: true, battery: true},
	0x11: {name: "MBC3", kind: MBC3Kind},
	0x12: {name: "MBC3+RAM", kind: MBC3Kind, ram: true},
	0x13: {name: "MBC3+RAM+BATTERY", kind: MBC3Kind, ram: true, battery: true},
	0x19: {name: "MBC5", kind: MBC5Kind},
	0x1A: {name: "MBC5+RAM", kind: MBC5Kind, ram: true},
	0x1B: {name: "MBC5+RAM+BATTERY", kind: MBC5Kind, ram: true, battery: true},
	0x1C: {name: "MBC5+RUMBLE", kind: MBC5Kind, rumble: true},
	0x1D: {name: "MBC5+RUMBLE+RAM", kind: MBC5Kind, ram: true, rumble: true},
	0x1E: {name: "MBC5+RUMBLE+RAM+BATTERY", kind: MBC5Kind, ram: true, battery: true, rumble: true},
}

// mbcConstructors builds the controller for each kind. Adding a new MBC
// means adding a Kind, its type codes and a constructor here.
var mbcConstructors = map[Kind]func(b banks, t cartridgeType) MBC{
	NoMBCKind: func(b banks, _ cartridgeType) MBC { return &NoMBC{banks: b} },
	MBC1Kind:  func(b banks, _ cartridgeType) MBC { return NewMBC1(b) },
	MBC2Kind:  func(b banks, _ cartridgeType) MBC { return NewMBC2(b) },
	MBC3Kind:  func(b banks, _ cartridgeType) MBC { return NewMBC3(b) },
	MBC5Kind:  func(b banks, t cartridgeType) MBC { return NewMBC5(b, t.rumble) },
}

// banks is the ROM/RAM backing store shared by every MBC. Bank numbers are
// always wrapped to the number of banks actually present.
type banks struct {
	rom      []uint8
	romBanks int
	ram      []uint8
	ramBanks int
}

func newBanks(rom []uint8, romBanks int, ramSize int) banks {
	b := banks{rom: rom, romBanks: romBanks}
	if ramSize > 0 {
		b.ram = make([]uint8, ramSize)
		b.ramBanks = (ramSize + ramBankSize - 1) / ramBankSize
	}
	return b
}

// readROM reads the byte at offset (0-0x3FFF) of the given bank.
func (b *banks) readROM(bank int, offset uint16) uint8 {
	bank %= b.romBanks
	idx := bank*romBankSize + int(offset&0x3FFF)
	if idx >= len(b.rom) {
		return 0xFF
	}
	return b.rom[idx]
}

// ramIndex returns the index into RAM for offset (0-0x1FFF) of the given
// bank, or -1 when there's no RAM behind it.
func (b *banks) ramIndex(bank int, offset uint16) int {
	if b.ramBanks == 0 {
		return -1
	}
	bank %= b.ramBanks
	// 2KB carts mirror their RAM across the whole window
	idx := bank*ramBankSize + int(offset&0x1FFF)%min(len(b.ram), ramBankSize)
	if idx >= len(b.ram) {
		return -1
	}
	return idx
}

func (b *banks) readRAM(bank int, offset uint16) uint8 {
	idx := b.ramIndex(bank, offset)
	if idx < 0 {
		return 0xFF
	}
	return b.ram[idx]
}

func (b *banks) writeRAM(bank int, offset uint16, value uint8) {
	idx := b.ramIndex(bank, offset)
	if idx < 0 {
		return
	}
	b.ram[idx] = value
}

func (b *banks) RAM() []uint8 {
	return b.ram
}

func ramEnableValue(value uint8) bool {
	return value&0x0F == 0x0A
}

// NoMBC represents cartridges with no memory banking capabilities.
// The cartridge ROM is directly mapped to 0x0000-0x7FFF and cannot be
// banked/switched. ROM+RAM variants expose up to 8KB of RAM without an
// enable register.
type NoMBC struct {
	banks
}

func (m *NoMBC) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.readROM(0, addr)
	case addr <= 0x7FFF:
		return m.readROM(1, addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return m.readRAM(0, addr)
	default:
		return 0xFF
	}
}

func (m *NoMBC) Write(addr uint16, value uint8) {
	if addr >= 0xA000 && addr <= 0xBFFF {
		m.writeRAM(0, addr, value)
	}
}

// MBC1 is the first and most common MBC chip. Features include:
// - Supports up to 2MB ROM (125 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - 5-bit ROM bank register, where 0 selects bank 1
// - 2-bit secondary register used as upper ROM bits or RAM bank
// - Two banking modes:
//   - Mode 0: secondary register only affects 0x4000-0x7FFF
//   - Mode 1: secondary register also banks 0x0000-0x3FFF and RAM
type MBC1 struct {
	banks
	romBankLow  uint8
	secondary   uint8
	ramEnabled  bool
	bankingMode uint8
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(b banks) *MBC1 {
	return &MBC1{
		banks:      b,
		romBankLow: 1,
	}
}

func (m *MBC1) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		bank := 0
		if m.bankingMode == 1 {
			bank = int(m.secondary) << 5
		}
		return m.readROM(bank, addr)
	case addr <= 0x7FFF:
		return m.readROM(m.romBank(), addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.readRAM(m.ramBank(), addr)
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value uint8) {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case addr <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBankLow = bank
	case addr <= 0x5FFF:
		m.secondary = value & 0x03
	case addr <= 0x7FFF:
		m.bankingMode = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.writeRAM(m.ramBank(), addr, value)
	}
}

// romBank returns the bank currently mapped at 0x4000-0x7FFF, before wrapping.
func (m *MBC1) romBank() int {
	return int(m.secondary)<<5 | int(m.romBankLow)
}

func (m *MBC1) ramBank() int {
	if m.bankingMode == 0 {
		return 0
	}
	return int(m.secondary)
}

// MBC2 is a simpler MBC chip with built-in RAM. Features include:
// - Supports up to 256KB ROM (16 16KB banks)
// - Built-in 512x4 bits RAM, mirrored through 0xA000-0xBFFF
// - Bit 8 of the address selects between RAM enable and ROM bank registers
// - RAM is limited to 4-bit values, the upper nibble reads as 1s
type MBC2 struct {
	banks
	ram        [512]uint8
	romBank    uint8
	ramEnabled bool
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(b banks) *MBC2 {
	return &MBC2{
		banks:   b,
		romBank: 1,
	}
}

func (m *MBC2) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.readROM(0, addr)
	case addr <= 0x7FFF:
		return m.readROM(int(m.romBank), addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[addr&0x1FF] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value uint8) {
	switch {
	case addr <= 0x3FFF:
		if addr&0x0100 == 0 {
			m.ramEnabled = ramEnableValue(value)
			return
		}
		m.romBank = value & 0x0F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[addr&0x1FF] = value & 0x0F
	}
}

func (m *MBC2) RAM() []uint8 {
	return m.ram[:]
}

// MBC3 supports up to 2MB ROM (128 banks) and 32KB RAM (4 banks).
// Its real-time clock registers (selected with 0x08-0x0C) are mapped but
// not clocked: they read 0 and ignore writes and latches.
type MBC3 struct {
	banks
	romBank    uint8
	ramSelect  uint8
	ramEnabled bool
}

// NewMBC3 creates a new MBC3 controller
func NewMBC3(b banks) *MBC3 {
	return &MBC3{
		banks:   b,
		romBank: 1,
	}
}

func (m *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.readROM(0, addr)
	case addr <= 0x7FFF:
		return m.readROM(int(m.romBank), addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		switch {
		case m.ramSelect <= 0x03:
			return m.readRAM(int(m.ramSelect), addr)
		case m.ramSelect >= 0x08 && m.ramSelect <= 0x0C:
			return 0x00
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value uint8) {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case addr <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr <= 0x5FFF:
		m.ramSelect = value
	case addr <= 0x7FFF:
		// RTC latch, ignored
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || m.ramSelect > 0x03 {
			return
		}
		m.writeRAM(int(m.ramSelect), addr, value)
	}
}

// MBC5 supports up to 8MB ROM (512 banks) and 128KB RAM (16 banks) with a
// 9-bit ROM bank number. Unlike the other controllers, bank 0 can be mapped
// at 0x4000-0x7FFF. On rumble carts bit 3 of the RAM bank drives the motor.
type MBC5 struct {
	banks
	romBank    uint16
	ramBank    uint8
	ramEnabled bool
	hasRumble  bool
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(b banks, hasRumble bool) *MBC5 {
	return &MBC5{
		banks:     b,
		romBank:   1,
		hasRumble: hasRumble,
	}
}

func (m *MBC5) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.readROM(0, addr)
	case addr <= 0x7FFF:
		return m.readROM(int(m.romBank), addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.readRAM(int(m.ramBank), addr)
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(addr uint16, value uint8) {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case addr <= 0x2FFF:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case addr <= 0x3FFF:
		m.romBank = (m.romBank & 0xFF) | (uint16(value&0x01) << 8)
	case addr <= 0x5FFF:
		if m.hasRumble {
			m.ramBank = value & 0x07
		} else {
			m.ramBank = value & 0x0F
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.writeRAM(int(m.ramBank), addr, value)
	}
}
