// Package carttest builds synthetic ROM images with a valid header, for
// tests that need a cartridge without shipping real game data.
package carttest

import "encoding/binary"

const (
	bankSize = 0x4000

	titleAddress          = 0x134
	typeAddress           = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E

	// EntryPoint is where execution starts once the boot ROM is done.
	EntryPoint = 0x0100
)

type config struct {
	title    string
	typ      byte
	romCode  byte
	ramCode  byte
	fill     bool
	programs []program
}

type program struct {
	addr int
	code []byte
}

// Option customizes the generated image.
type Option func(*config)

// WithTitle sets the header title, truncated to 16 bytes.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithType sets the cartridge type code at 0x147.
func WithType(code byte) Option {
	return func(c *config) { c.typ = code }
}

// WithROMSize sets the ROM size code at 0x148. The image gets 2<<code banks.
func WithROMSize(code byte) Option {
	return func(c *config) { c.romCode = code }
}

// WithRAMSize sets the RAM size code at 0x149.
func WithRAMSize(code byte) Option {
	return func(c *config) { c.ramCode = code }
}

// WithBankMarkers fills every byte of each ROM bank with the bank number
// (modulo 256), so tests can tell which bank is mapped. Bank 0 stays zero.
func WithBankMarkers() Option {
	return func(c *config) { c.fill = true }
}

// WithProgram copies code into the image at addr.
func WithProgram(addr uint16, code ...byte) Option {
	return func(c *config) {
		c.programs = append(c.programs, program{addr: int(addr), code: code})
	}
}

// WithEntry places code at the 0x0100 entry point.
func WithEntry(code ...byte) Option {
	return WithProgram(EntryPoint, code...)
}

// New returns a ROM image with a header that passes validation. Unless
// overridden it is a 32KB ROM-only cartridge with no RAM.
func New(opts ...Option) []byte {
	cfg := config{title: "TEST"}
	for _, opt := range opts {
		opt(&cfg)
	}

	rom := make([]byte, (2<<cfg.romCode)*bankSize)
	if cfg.fill {
		for i := bankSize; i < len(rom); i++ {
			rom[i] = byte(i / bankSize)
		}
	}

	for _, p := range cfg.programs {
		copy(rom[p.addr:], p.code)
	}

	title := []byte(cfg.title)
	if len(title) > 16 {
		title = title[:16]
	}
	copy(rom[titleAddress:titleAddress+16], make([]byte, 16))
	copy(rom[titleAddress:], title)
	rom[typeAddress] = cfg.typ
	rom[romSizeAddress] = cfg.romCode
	rom[ramSizeAddress] = cfg.ramCode

	Fix(rom)
	return rom
}

// Fix recomputes both checksums after rom has been edited.
func Fix(rom []byte) {
	var sum byte
	for _, b := range rom[titleAddress:headerChecksumAddress] {
		sum = sum - b - 1
	}
	rom[headerChecksumAddress] = sum

	var global uint16
	for i, b := range rom {
		if i == globalChecksumAddress || i == globalChecksumAddress+1 {
			continue
		}
		global += uint16(b)
	}
	binary.BigEndian.PutUint16(rom[globalChecksumAddress:], global)
}
