package backend

import (
	"context"
	"log/slog"

	"github.com/valerio/go-dmg/dmg/input"
	"github.com/valerio/go-dmg/dmg/input/action"
	"github.com/valerio/go-dmg/dmg/input/event"
	"github.com/valerio/go-dmg/dmg/timing"
	"github.com/valerio/go-dmg/dmg/video"
)

// Emulator is what the loop drives, a *dmg.DMG in practice.
type Emulator interface {
	input.Joypad

	RunUntilFrame() error
	Step() (int, error)
	Frame() *video.Frame
	Paused() bool
	Pause()
	Resume()
}

// Loop runs the emulator one frame at a time, handing each frame to the
// backend and feeding the input it returns back to the emulator.
type Loop struct {
	emu     Emulator
	backend Backend
	input   *input.Manager
	limiter timing.Limiter

	// ExitOnPause ends Run when the emulator pauses on a breakpoint,
	// for frontends that have no way to resume.
	ExitOnPause bool

	quit      bool
	stepFrame bool
	stepErr   error
}

// NewLoop wires the input actions to the emulator. limiter may be nil to
// run unthrottled.
func NewLoop(emu Emulator, b Backend, limiter timing.Limiter) *Loop {
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}

	l := &Loop{
		emu:     emu,
		backend: b,
		input:   input.NewManager(emu),
		limiter: limiter,
	}

	l.input.On(action.EmulatorQuit, event.Press, func() { l.quit = true })
	l.input.On(action.EmulatorPauseToggle, event.Press, l.togglePause)
	l.input.On(action.EmulatorStepFrame, event.Press, func() { l.stepFrame = true })
	l.input.On(action.EmulatorStepInstruction, event.Press, l.stepInstruction)

	if handler, ok := b.(ActionHandler); ok {
		for _, act := range []action.Action{action.EmulatorSnapshot, action.EmulatorDebugToggle} {
			l.input.On(act, event.Press, func() { handler.HandleAction(act) })
		}
	}

	return l
}

// Run loops until the backend asks to quit, ctx is cancelled or the
// emulator fails.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			slog.Info("Emulation cancelled")
			return nil
		}

		l.limiter.WaitForNextFrame()

		if err := l.advance(); err != nil {
			return err
		}

		events, err := l.backend.Update(l.emu.Frame())
		if err != nil {
			return err
		}

		for _, evt := range events {
			l.input.Trigger(evt.Action, evt.Type)
		}

		if l.stepErr != nil {
			return l.stepErr
		}
		if l.quit {
			return nil
		}
		if l.ExitOnPause && l.emu.Paused() {
			return nil
		}
	}
}

func (l *Loop) advance() error {
	if !l.emu.Paused() {
		return l.emu.RunUntilFrame()
	}
	if !l.stepFrame {
		return nil
	}

	l.stepFrame = false
	l.emu.Resume()
	err := l.emu.RunUntilFrame()
	l.emu.Pause()
	return err
}

func (l *Loop) togglePause() {
	if l.emu.Paused() {
		slog.Info("Resumed")
		l.emu.Resume()
		l.limiter.Reset()
		return
	}
	slog.Info("Paused")
	l.emu.Pause()
}

func (l *Loop) stepInstruction() {
	if !l.emu.Paused() {
		l.emu.Pause()
	}
	if _, err := l.emu.Step(); err != nil {
		l.stepErr = err
	}
}
