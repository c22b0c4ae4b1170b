package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/valerio/go-dmg/dmg"
	"github.com/valerio/go-dmg/dmg/backend"
	"github.com/valerio/go-dmg/dmg/backend/headless"
	"github.com/valerio/go-dmg/dmg/backend/terminal"
	"github.com/valerio/go-dmg/dmg/debug"
	"github.com/valerio/go-dmg/dmg/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmg"
	app.Description = "A Game Boy (DMG) emulator"
	app.Usage = "dmg [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a 256 byte boot ROM (skipped when not set)",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a user interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "snapshot-format",
			Usage: "Snapshot format, png or txt",
			Value: string(debug.SnapshotPNG),
		},
		cli.StringFlag{
			Name:  "serial-out",
			Usage: "Write link port output to a file, - for stdout",
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "Battery RAM save file (default: ROM path with .sav extension)",
		},
		cli.StringSliceFlag{
			Name:  "break",
			Usage: "Pause at this hex address, can be repeated",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Minimum log level: debug, info, warn or error",
			Value: "info",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Show the debug panel on start",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	level, err := parseLogLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	breakpoints, err := parseBreakpoints(c.StringSlice("break"))
	if err != nil {
		return err
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	cfg := dmg.Config{}
	if path := c.String("boot-rom"); path != "" {
		if cfg.BootROM, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("failed to read boot ROM: %w", err)
		}
	}

	serialOut, closeSerial, err := openSerialOutput(c.String("serial-out"))
	if err != nil {
		return err
	}
	defer closeSerial()
	cfg.Serial = serialOut

	emu, err := dmg.New(rom, cfg)
	if err != nil {
		return err
	}
	defer emu.Close()

	cartridge := emu.Cartridge()
	slog.Info("Loaded cartridge",
		"title", cartridge.Header.Title,
		"type", cartridge.TypeName(),
		"rom_size", cartridge.ROMSize(),
		"battery", cartridge.HasBattery())

	savePath := ""
	if cartridge.HasBattery() {
		savePath = c.String("save")
		if savePath == "" {
			savePath = strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
		}
		if err := loadSave(emu, savePath); err != nil {
			return err
		}
	}

	for _, addr := range breakpoints {
		emu.AddBreakpoint(addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("headless") {
		err = runHeadless(ctx, c, emu, romPath)
	} else {
		err = runTerminal(ctx, c, emu, level)
	}

	if savePath != "" {
		if saveErr := writeSave(emu, savePath); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}
	return err
}

func runHeadless(ctx context.Context, c *cli.Context, emu *dmg.DMG, romPath string) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	snapshots, err := headless.CreateSnapshotConfig(
		c.Int("snapshot-interval"),
		c.String("snapshot-dir"),
		romPath,
		debug.SnapshotFormat(c.String("snapshot-format")),
	)
	if err != nil {
		return err
	}

	b := headless.New(frames, snapshots)
	if err := b.Init(backend.Config{Title: "dmg"}); err != nil {
		return err
	}
	defer b.Cleanup()

	loop := backend.NewLoop(emu, b, nil)
	loop.ExitOnPause = true
	if err := loop.Run(ctx); err != nil {
		return err
	}

	if emu.Paused() {
		slog.Info("Stopped at breakpoint", "frames", b.FrameCount(), "instructions", emu.InstructionCount())
		if err := debug.FormatState(os.Stdout, emu.CPUState()); err != nil {
			return err
		}
		return debug.FormatDisassembly(os.Stdout, emu.Disassembly(8))
	}
	return nil
}

func runTerminal(ctx context.Context, c *cli.Context, emu *dmg.DMG, level slog.Level) error {
	snapshotDir := c.String("snapshot-dir")
	if snapshotDir == "" {
		snapshotDir = "."
	}

	b := terminal.New(terminal.WithLogLevel(level), terminal.WithSnapshotDir(snapshotDir))
	if err := b.Init(backend.Config{
		Title:         "dmg",
		ShowDebug:     c.Bool("debug"),
		DebugProvider: emu,
	}); err != nil {
		return err
	}
	defer b.Cleanup()

	return backend.NewLoop(emu, b, timing.NewAdaptiveLimiter()).Run(ctx)
}

// parseBreakpoints accepts addresses like 0150, 0x0150 or $0150.
func parseBreakpoints(values []string) ([]uint16, error) {
	addrs := make([]uint16, 0, len(values))
	for _, v := range values {
		s := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), "0x"), "$")
		addr, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid breakpoint %q: %w", v, err)
		}
		addrs = append(addrs, uint16(addr))
	}
	return addrs, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// openSerialOutput returns the writer for link port output. An empty path
// discards it.
func openSerialOutput(path string) (io.Writer, func(), error) {
	switch path {
	case "":
		return nil, func() {}, nil
	case "-":
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func loadSave(emu *dmg.DMG, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read save file: %w", err)
	}
	if err := emu.Cartridge().LoadRAM(data); err != nil {
		return fmt.Errorf("failed to load save file %s: %w", path, err)
	}
	slog.Info("Loaded save file", "path", path)
	return nil
}

func writeSave(emu *dmg.DMG, path string) error {
	ram := emu.Cartridge().RAM()
	if ram == nil {
		return nil
	}
	if err := os.WriteFile(path, ram, 0o644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	slog.Info("Wrote save file", "path", path)
	return nil
}
