// Package addr names the DMG memory map: region bounds and the memory
// mapped I/O registers.
package addr

// Regions. Every address belongs to exactly one of them.
const (
	ROMBank0Start uint16 = 0x0000
	ROMBankNStart uint16 = 0x4000
	ROMEnd        uint16 = 0x7FFF
	VRAMStart     uint16 = 0x8000
	VRAMEnd       uint16 = 0x9FFF
	ExtRAMStart   uint16 = 0xA000
	ExtRAMEnd     uint16 = 0xBFFF
	WRAMStart     uint16 = 0xC000
	WRAMEnd       uint16 = 0xDFFF
	EchoStart     uint16 = 0xE000 // mirrors C000-DDFF
	EchoEnd       uint16 = 0xFDFF
	OAMStart      uint16 = 0xFE00
	OAMEnd        uint16 = 0xFE9F
	UnusableStart uint16 = 0xFEA0
	UnusableEnd   uint16 = 0xFEFF
	IOStart       uint16 = 0xFF00
	IOEnd         uint16 = 0xFF7F
	HRAMStart     uint16 = 0xFF80
	HRAMEnd       uint16 = 0xFFFE

	// BootROMEnd is the last byte hidden by the boot ROM until it's unmapped.
	BootROMEnd uint16 = 0x00FF

	// OAMSize is 40 sprites of 4 bytes.
	OAMSize = 0xA0
)

// Background and window tile maps, selected by LCDC bits 3 and 6.
const (
	TileMap0 uint16 = 0x9800
	TileMap1 uint16 = 0x9C00
)

const (
	P1 uint16 = 0xFF00 // joypad

	SB uint16 = 0xFF01 // serial data, 0xFF after a transfer with no peer
	SC uint16 = 0xFF02 // serial control: bit 7 start, bit 0 internal clock

	DIV  uint16 = 0xFF04 // upper byte of the divider, any write clears it
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06 // reloaded into TIMA on overflow
	TAC  uint16 = 0xFF07 // bit 2 enable, bits 0-1 clock select

	IF uint16 = 0xFF0F
	IE uint16 = 0xFFFF
)

// LCD registers.
const (
	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44 // read only
	LYC  uint16 = 0xFF45
	DMA  uint16 = 0xFF46 // writing starts an OAM DMA from value<<8
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B // window left edge plus 7
)

// BootROMDisable unmaps the boot ROM when written with a non-zero value.
const BootROMDisable uint16 = 0xFF50

// Sound registers. The core only forwards writes to them, see package audio.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F // includes wave RAM at FF30-FF3F

	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR14 uint16 = 0xFF14
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR24 uint16 = 0xFF19
	NR30 uint16 = 0xFF1A
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C
	NR34 uint16 = 0xFF1E
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23
	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26
)
