// Package serial implements the link port (SB/SC) as a one-way sink: bytes
// shifted out with the internal clock are written to an io.Writer and logged
// line by line. Nothing is ever connected on the other end, so the received
// byte is always 0xFF.
package serial

import (
	"io"
	"log/slog"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// cyclesPerByte is the transfer time of one byte at 8192 Hz.
const cyclesPerByte = 4096

// Port is a serial device with nothing plugged in. Handy for test roms that
// report their results over serial.
type Port struct {
	irqHandler     func()
	sb, sc         byte
	transferActive bool
	countdown      int

	out    io.Writer
	logger *slog.Logger

	// settings
	immediate bool
	defaultRX byte

	// line buffer for readable log output
	line []byte
}

type Option func(*Port)

// WithWriter sends every transferred byte to w.
func WithWriter(w io.Writer) Option {
	return func(p *Port) {
		if w != nil {
			p.out = w
		}
	}
}

// WithLogger sets the logger used for completed lines.
func WithLogger(l *slog.Logger) Option {
	return func(p *Port) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFixedTiming completes transfers after the real ~4096 cycles per byte
// instead of immediately.
func WithFixedTiming() Option {
	return func(p *Port) { p.immediate = false }
}

// New creates a serial port. irq is called when a transfer completes and
// should request the Serial interrupt.
func New(irq func(), opts ...Option) *Port {
	p := &Port{
		irqHandler: irq,
		immediate:  true,
		defaultRX:  0xFF,
		out:        io.Discard,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Write handles writes to SB and SC, other addresses are ignored.
func (p *Port) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		p.sb = value
	case addr.SC:
		p.sc = value
		p.maybeStartTransfer()
	}
}

// Read handles reads of SB and SC. Unused SC bits read as 1.
func (p *Port) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return p.sb
	case addr.SC:
		return p.sc | 0x7E
	default:
		return 0xFF
	}
}

// Tick advances a pending transfer when fixed timing is on.
func (p *Port) Tick(cycles int) {
	if p.immediate || !p.transferActive {
		return
	}
	p.countdown -= cycles
	if p.countdown <= 0 {
		p.completeTransfer()
		p.countdown = 0
	}
}

// Reset clears the registers and drops any partial line.
func (p *Port) Reset() {
	p.sb = 0x00
	p.sc = 0x00
	p.transferActive = false
	p.countdown = 0
	p.line = p.line[:0]
}

// Flush logs whatever is left in the line buffer.
func (p *Port) Flush() {
	if len(p.line) > 0 {
		p.logger.Info("serial", "line", string(p.line))
		p.line = p.line[:0]
	}
}

func (p *Port) maybeStartTransfer() {
	if p.transferActive {
		return
	}
	// a transfer starts when bit 7 (start) and bit 0 (internal clock) of SC are set.
	// With the external clock nothing would ever drive it.
	if !bit.IsSet(7, p.sc) || !bit.IsSet(0, p.sc) {
		return
	}

	b := p.sb
	if _, err := p.out.Write([]byte{b}); err != nil {
		p.logger.Warn("serial output failed", "error", err)
	}

	if b == 0 || b == '\n' || b == '\r' {
		p.Flush()
	} else {
		p.line = append(p.line, b)
	}

	if p.immediate {
		p.completeTransfer()
		return
	}

	p.transferActive = true
	p.countdown = cyclesPerByte
}

func (p *Port) completeTransfer() {
	p.sb = p.defaultRX
	// start bit cleared signals completion
	p.sc = bit.Clear(7, p.sc)
	p.transferActive = false
	if p.irqHandler != nil {
		p.irqHandler()
	}
}
