// Package dmg wires the cartridge, memory bus, CPU and PPU together and
// advances them in lockstep, one instruction at a time.
package dmg

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/valerio/go-dmg/dmg/audio"
	"github.com/valerio/go-dmg/dmg/cart"
	"github.com/valerio/go-dmg/dmg/cpu"
	"github.com/valerio/go-dmg/dmg/memory"
	"github.com/valerio/go-dmg/dmg/serial"
	"github.com/valerio/go-dmg/dmg/video"
)

// Config holds the optional pieces of a DMG. The zero value runs without a
// boot ROM, discards serial and audio output and logs to whatever
// slog.Default() is at the time of each record.
type Config struct {
	// BootROM is the 256 byte boot program. When nil, execution starts at
	// 0x0100 with the registers set to their post-boot values.
	BootROM []byte

	// Serial receives every byte sent over the link port.
	Serial io.Writer

	// Audio receives sound register writes.
	Audio audio.Sink

	Logger *slog.Logger
}

// DMG is a complete Game Boy. It is not safe for concurrent use, a single
// goroutine should drive it through Step or RunUntilFrame.
type DMG struct {
	cpu    *cpu.CPU
	mmu    *memory.MMU
	ppu    *video.PPU
	serial *serial.Port
	logger *slog.Logger

	instructions uint64

	breakpoints map[uint16]struct{}
	paused      bool
}

// New builds a DMG around the given ROM image. It fails with
// cart.ErrMalformedCartridge if the header does not validate, and with
// memory.ErrInvalidBootROM if a boot ROM of the wrong size is given.
func New(rom []byte, cfg Config) (*DMG, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(defaultHandler{})
	}

	c, err := cart.New(rom)
	if err != nil {
		return nil, err
	}

	d := &DMG{
		ppu:         video.NewPPU(),
		logger:      logger,
		breakpoints: make(map[uint16]struct{}),
	}

	d.serial = serial.New(func() { d.mmu.RequestSerialInterrupt() },
		serial.WithWriter(cfg.Serial),
		serial.WithLogger(logger),
	)

	opts := []memory.Option{
		memory.WithSerialPort(d.serial),
		memory.WithAudioSink(cfg.Audio),
		memory.WithLogger(logger),
	}
	if cfg.BootROM != nil {
		opts = append(opts, memory.WithBootROM(cfg.BootROM))
	}

	d.mmu, err = memory.New(c, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.BootROM != nil {
		d.cpu = cpu.NewWithBootROM()
	} else {
		d.cpu = cpu.New()
		d.mmu.SeedPostBoot()
	}

	return d, nil
}

// Step executes one instruction (or one interrupt dispatch, or one idle
// M-cycle while halted) and advances every other component by the same
// number of cycles. It returns the cycles taken.
//
// Hitting a breakpoint pauses the emulator but does not stop Step: a
// debugger single steps through Step, RunUntilFrame honors the pause.
func (d *DMG) Step() (int, error) {
	cycles, err := d.cpu.Step(d.mmu)
	if err != nil {
		var opErr *cpu.UnimplementedOpcodeError
		if errors.As(err, &opErr) {
			d.logger.Error("unimplemented opcode",
				"pc", hex16(opErr.PC),
				"opcode", hex8(opErr.Opcode),
			)
		}
		return 0, err
	}

	d.mmu.Tick(cycles)
	d.ppu.Tick(d.mmu, cycles)
	d.instructions++

	if pc := d.cpu.Registers().PC; d.hasBreakpoint(pc) {
		if !d.paused {
			d.logger.Info("breakpoint hit", "pc", hex16(pc))
		}
		d.paused = true
	}

	return cycles, nil
}

// RunUntilFrame steps until the PPU publishes a new frame. With the LCD
// off no frame is ever published, so it also returns once a frame's worth
// of cycles has elapsed. It returns early, without error, when paused.
func (d *DMG) RunUntilFrame() error {
	start := d.ppu.FrameCount()
	elapsed := 0

	for elapsed < video.CyclesPerFrame && !d.paused {
		cycles, err := d.Step()
		if err != nil {
			return err
		}
		elapsed += cycles

		if d.ppu.FrameCount() != start {
			break
		}
	}

	return nil
}

// Frame returns the last frame published by the PPU.
func (d *DMG) Frame() *video.Frame {
	return d.ppu.Frame()
}

// Press holds down a joypad button.
func (d *DMG) Press(b memory.Button) {
	d.mmu.Press(b)
}

// Release lets go of a joypad button.
func (d *DMG) Release(b memory.Button) {
	d.mmu.Release(b)
}

// InstructionCount returns the number of calls to Step that made progress.
func (d *DMG) InstructionCount() uint64 {
	return d.instructions
}

// FrameCount returns the number of frames published since power on.
func (d *DMG) FrameCount() uint64 {
	return d.ppu.FrameCount()
}

// Cycles returns the clock cycles elapsed since power on.
func (d *DMG) Cycles() uint64 {
	return d.mmu.Cycles()
}

// Cartridge returns the inserted cartridge, for save RAM access.
func (d *DMG) Cartridge() *cart.Cartridge {
	return d.mmu.Cartridge()
}

// Close flushes any partial serial line to the log.
func (d *DMG) Close() error {
	d.serial.Flush()
	return nil
}

// defaultHandler forwards records to the current default logger, so a
// frontend that swaps slog.Default() after New still gets the core's logs.
type defaultHandler struct{}

func (defaultHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slog.Default().Handler().Enabled(ctx, level)
}

func (defaultHandler) Handle(ctx context.Context, r slog.Record) error {
	return slog.Default().Handler().Handle(ctx, r)
}

func (defaultHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return slog.Default().Handler().WithAttrs(attrs)
}

func (defaultHandler) WithGroup(name string) slog.Handler {
	return slog.Default().Handler().WithGroup(name)
}
