// Package cart decodes cartridge images and implements the memory bank
// controllers that map them into the 0x0000-0x7FFF and 0xA000-0xBFFF windows.
package cart

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrMalformedCartridge is returned when a ROM image can't be loaded:
// truncated data, bad header checksum or an unknown type or size code.
var ErrMalformedCartridge = errors.New("malformed cartridge")

// Cartridge is a loaded ROM image plus the MBC that maps it.
type Cartridge struct {
	Header Header

	kind    Kind
	typ     cartridgeType
	mbc     MBC
	romSize int
}

// New validates the header of rom and builds the cartridge around the MBC
// named by its type code. The ROM slice is copied.
func New(rom []byte) (*Cartridge, error) {
	if len(rom) < MinROMSize {
		return nil, fmt.Errorf("%w: ROM is %d bytes, need at least %d", ErrMalformedCartridge, len(rom), MinROMSize)
	}

	header, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	typ, ok := cartridgeTypes[header.TypeCode]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported cartridge type 0x%02X", ErrMalformedCartridge, header.TypeCode)
	}

	declared := header.ROMBanks * romBankSize
	if len(rom) < declared {
		return nil, fmt.Errorf("%w: header declares %d bytes of ROM but image has %d",
			ErrMalformedCartridge, declared, len(rom))
	}
	if len(rom) > declared {
		slog.Warn("ROM image larger than declared size, extra data is unreachable",
			"declared", declared, "actual", len(rom))
	}

	if sum := GlobalChecksum(rom); sum != header.GlobalChecksum {
		slog.Warn("global checksum mismatch",
			"expected", fmt.Sprintf("0x%04X", header.GlobalChecksum),
			"computed", fmt.Sprintf("0x%04X", sum))
	}

	ramSize := header.RAMSize
	if !typ.ram {
		ramSize = 0
	}

	data := make([]byte, declared)
	copy(data, rom)

	c := &Cartridge{
		Header:  header,
		kind:    typ.kind,
		typ:     typ,
		mbc:     mbcConstructors[typ.kind](newBanks(data, header.ROMBanks, ramSize), typ),
		romSize: declared,
	}

	slog.Info("cartridge loaded",
		"title", header.Title,
		"type", typ.name,
		"rom_banks", header.ROMBanks,
		"ram_bytes", len(c.mbc.RAM()),
	)

	return c, nil
}

// Read reads a byte from ROM or external RAM through the MBC.
func (c *Cartridge) Read(addr uint16) uint8 {
	return c.mbc.Read(addr)
}

// Write forwards a write to the MBC: ROM addresses drive its registers,
// 0xA000-0xBFFF goes to external RAM.
func (c *Cartridge) Write(addr uint16, value uint8) {
	c.mbc.Write(addr, value)
}

// Kind returns the bank switching policy of the cartridge.
func (c *Cartridge) Kind() Kind {
	return c.kind
}

// TypeName returns the human readable name of the header type code.
func (c *Cartridge) TypeName() string {
	return c.typ.name
}

// HasBattery reports whether external RAM survives power off, i.e. whether
// it is worth persisting.
func (c *Cartridge) HasBattery() bool {
	return c.typ.battery
}

// ROMSize returns the size of the mapped ROM in bytes.
func (c *Cartridge) ROMSize() int {
	return c.romSize
}

// RAM returns a copy of the external RAM contents, nil if the cartridge has none.
func (c *Cartridge) RAM() []byte {
	ram := c.mbc.RAM()
	if len(ram) == 0 {
		return nil
	}
	out := make([]byte, len(ram))
	copy(out, ram)
	return out
}

// LoadRAM restores external RAM, typically from a save file.
func (c *Cartridge) LoadRAM(data []byte) error {
	ram := c.mbc.RAM()
	if len(ram) == 0 {
		return fmt.Errorf("cartridge %q has no external RAM", c.Header.Title)
	}
	if len(data) != len(ram) {
		return fmt.Errorf("save data is %d bytes, cartridge RAM is %d", len(data), len(ram))
	}
	copy(ram, data)
	return nil
}
