package cart

import (
	"encoding/binary"
	"fmt"
)

const (
	titleAddress          = 0x134
	titleEnd              = 0x144
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E
	headerEnd             = 0x150

	// MinROMSize is the smallest valid ROM: two 16KB banks.
	MinROMSize = 0x8000

	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// Header holds the decoded cartridge header fields.
// Reference: https://gbdev.io/pandocs/The_Cartridge_Header.html
type Header struct {
	Title          string
	TypeCode       byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	Version        byte
	HeaderChecksum byte
	GlobalChecksum uint16

	ROMBanks int
	RAMSize  int
}

// ParseHeader decodes and validates the header of a raw ROM image.
// Every failure wraps ErrMalformedCartridge.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < headerEnd {
		return Header{}, fmt.Errorf("%w: %d bytes is too small to contain a header", ErrMalformedCartridge, len(rom))
	}

	h := Header{
		Title:          cleanTitle(rom[titleAddress:titleEnd]),
		TypeCode:       rom[cartridgeTypeAddress],
		ROMSizeCode:    rom[romSizeAddress],
		RAMSizeCode:    rom[ramSizeAddress],
		Version:        rom[versionNumberAddress],
		HeaderChecksum: rom[headerChecksumAddress],
		GlobalChecksum: binary.BigEndian.Uint16(rom[globalChecksumAddress:headerEnd]),
	}

	if sum := HeaderChecksum(rom); sum != h.HeaderChecksum {
		return h, fmt.Errorf("%w: header checksum 0x%02X does not match computed 0x%02X",
			ErrMalformedCartridge, h.HeaderChecksum, sum)
	}

	banks, ok := romBanksForCode(h.ROMSizeCode)
	if !ok {
		return h, fmt.Errorf("%w: unknown ROM size code 0x%02X", ErrMalformedCartridge, h.ROMSizeCode)
	}
	h.ROMBanks = banks

	ramSize, ok := ramSizeForCode(h.RAMSizeCode)
	if !ok {
		return h, fmt.Errorf("%w: unknown RAM size code 0x%02X", ErrMalformedCartridge, h.RAMSizeCode)
	}
	h.RAMSize = ramSize

	return h, nil
}

// HeaderChecksum computes the checksum of bytes 0x134-0x14C the way the
// boot ROM does: x = x - byte - 1.
func HeaderChecksum(rom []byte) byte {
	var sum byte
	for _, b := range rom[titleAddress:headerChecksumAddress] {
		sum = sum - b - 1
	}
	return sum
}

// GlobalChecksum sums every byte of the ROM except the two checksum bytes.
// Hardware never verifies it.
func GlobalChecksum(rom []byte) uint16 {
	var sum uint16
	for i, b := range rom {
		if i == globalChecksumAddress || i == globalChecksumAddress+1 {
			continue
		}
		sum += uint16(b)
	}
	return sum
}

func romBanksForCode(code byte) (int, bool) {
	switch {
	case code <= 0x08:
		return 2 << code, true
	case code == 0x52:
		return 72, true
	case code == 0x53:
		return 80, true
	case code == 0x54:
		return 96, true
	default:
		return 0, false
	}
}

func ramSizeForCode(code byte) (int, bool) {
	switch code {
	case 0x00:
		return 0, true
	case 0x01:
		// unofficial 2KB, some homebrew uses it
		return 0x800, true
	case 0x02:
		return 8 * 1024, true
	case 0x03:
		return 32 * 1024, true
	case 0x04:
		return 128 * 1024, true
	case 0x05:
		return 64 * 1024, true
	default:
		return 0, false
	}
}
