// Package emu drives chip8 machines: the Coordinator advances the CPU and
// the hardware timers at independent, caller-controlled rates, and the
// Runner wraps a Coordinator in a real-time loop with pause, step, and
// breakpoint controls.
package emu

import (
	"errors"
	"fmt"

	"github.com/jtmpu/chiprs/chip8"
)

// Coordinator is the single stepping authority for one machine. It owns
// the interleaving of CPU steps and timer ticks; callers choose the rates
// by choosing how often to invoke each. All methods must be called from
// one goroutine.
type Coordinator struct {
	m          *chip8.Machine
	cpuPerTick int
	paused     bool
	err        error
}

// NewCoordinator loads program into a fresh machine. cpuPerTick is the
// number of CPU steps Tick runs before each timer tick; it must be
// positive.
func NewCoordinator(program []byte, cpuPerTick int) (*Coordinator, error) {
	if cpuPerTick < 1 {
		return nil, fmt.Errorf("cpu steps per tick is %d, must be positive", cpuPerTick)
	}
	m, err := chip8.NewMachine(program)
	if err != nil {
		return nil, err
	}
	return &Coordinator{m: m, cpuPerTick: cpuPerTick}, nil
}

// Machine exposes the driven machine for diagnostic reads. Callers must
// not step it directly.
func (c *Coordinator) Machine() *chip8.Machine { return c.m }

// Err returns the halt condition of the last failed step, or nil while
// the machine can still make progress.
func (c *Coordinator) Err() error { return c.err }

// Step runs one CPU step. Once a step has reported a halt, Step keeps
// returning that outcome without advancing state.
func (c *Coordinator) Step() error {
	if err := c.m.Step(); err != nil {
		c.err = err
		return err
	}
	return nil
}

// AdvanceCPU runs up to n CPU steps, stopping early at a halt. A blocked
// machine consumes steps without progress, as real time would pass. While
// paused the steps are consumed with no effect at all.
func (c *Coordinator) AdvanceCPU(n int) error {
	if c.paused {
		return c.err
	}
	for i := 0; i < n; i++ {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Pause suspends CPU advancement at the current step boundary. Timers are
// unaffected.
func (c *Coordinator) Pause() { c.paused = true }

// Resume lifts a Pause.
func (c *Coordinator) Resume() { c.paused = false }

// Paused reports whether CPU advancement is suspended.
func (c *Coordinator) Paused() bool { return c.paused }

// StepOne runs exactly one CPU step regardless of the pause state.
func (c *Coordinator) StepOne() error { return c.Step() }

// AdvanceTimers applies n timer ticks. Timers run regardless of the
// machine's execution state.
func (c *Coordinator) AdvanceTimers(n int) {
	for i := 0; i < n; i++ {
		c.m.TickTimers()
	}
}

// Tick runs one timer period: the configured number of CPU steps followed
// by one timer tick.
func (c *Coordinator) Tick() error {
	err := c.AdvanceCPU(c.cpuPerTick)
	c.m.TickTimers()
	return err
}

// PressKey delivers a keypad press, resuming the machine if it is blocked
// on input.
func (c *Coordinator) PressKey(k byte) { c.m.PressKey(k) }

// ReleaseKey delivers a keypad release.
func (c *Coordinator) ReleaseKey(k byte) { c.m.ReleaseKey(k) }

// Snapshot returns a consistent diagnostic view of the machine.
func (c *Coordinator) Snapshot() chip8.Snapshot { return c.m.Snapshot() }

// Done reports whether the machine has stopped for good, cleanly or not.
func (c *Coordinator) Done() bool {
	return c.m.State() == chip8.Halted
}

// Exited reports whether the machine stopped via the exit instruction
// rather than a fault.
func (c *Coordinator) Exited() bool {
	return c.Done() && errors.Is(c.err, chip8.ErrExit)
}
