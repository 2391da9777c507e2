package emu

import (
	"errors"
	"log"
	"time"

	"github.com/jtmpu/chiprs/chip8"
)

// Config sets the real-time pacing of a Runner.
type Config struct {
	CPUHz   int // instruction steps per second
	TimerHz int // delay/sound timer ticks per second
}

// DefaultConfig matches the usual hardware pacing: 700 instructions per
// second against the fixed 60 Hz timers.
var DefaultConfig = Config{CPUHz: 700, TimerHz: 60}

// StateKind tells a StateFunc why it is being called.
type StateKind int

const (
	ClearState StateKind = iota // debug command cleared; blank any status display
	QuietState                  // periodic refresh; no new status to report
	DebugState                  // execution passed the debug address
	BreakState                  // stopped at the break address
	PauseState                  // stopped by a pause or step command
	HaltState                   // machine halted, cleanly or by fault
)

// StateFunc observes machine state from the run loop. The machine is only
// valid for the duration of the call; implementations must copy what they
// keep.
type StateFunc func(*chip8.Machine, StateKind)

// KeyEvent is one keypad transition for a Runner to deliver.
type KeyEvent struct {
	Key  byte
	Down bool
}

type ctl struct {
	cmd  string
	addr uint16
}

// Runner drives a machine in real time: CPU steps and timer ticks at the
// configured rates, keypad events from an input collaborator, and
// pause/step/break/debug controls from a debugger.
type Runner struct {
	cfg   Config
	dev   bool
	state StateFunc

	// Frame, if set before Run, is called after every timer tick with a
	// consistent machine, for display rendering.
	Frame func(*chip8.Machine)

	keys chan KeyEvent
	swap chan []byte
	ctl  chan ctl
	halt chan struct{}
}

// NewRunner returns a Runner with the given pacing. In dev mode a halted
// or faulted machine keeps the loop alive waiting for a Swap; otherwise
// Run returns. state may be nil.
func NewRunner(cfg Config, devMode bool, state StateFunc) *Runner {
	if cfg.CPUHz <= 0 {
		cfg.CPUHz = DefaultConfig.CPUHz
	}
	if cfg.TimerHz <= 0 {
		cfg.TimerHz = DefaultConfig.TimerHz
	}
	return &Runner{
		cfg:   cfg,
		dev:   devMode,
		state: state,
		keys:  make(chan KeyEvent, 64),
		swap:  make(chan []byte),
		ctl:   make(chan ctl),
		halt:  make(chan struct{}),
	}
}

// Key delivers a keypad transition. It never blocks; events are dropped
// if the machine is hopelessly behind.
func (r *Runner) Key(e KeyEvent) {
	select {
	case r.keys <- e:
	default:
	}
}

// Swap replaces the running program with a freshly assembled one,
// resetting the machine.
func (r *Runner) Swap(rom []byte) {
	r.swap <- rom
}

// Debug applies a debugger command: "b"/"break" and "d"/"debug" set the
// break and debug addresses ("" clears via the bare command), "p"/"pause"
// stops the CPU, "c"/"cont" resumes it, "s"/"step" runs one instruction
// while paused, and "exit" stops the Runner.
func (r *Runner) Debug(cmd string, addr uint16) {
	if cmd == "exit" {
		r.Halt()
		return
	}
	r.ctl <- ctl{cmd, addr}
}

// Halt stops Run between instruction steps. It may be called once.
func (r *Runner) Halt() { close(r.halt) }

// Run executes rom until the machine stops or Halt is called. In dev
// mode it instead reports the stop and waits for the next Swap.
func (r *Runner) Run(rom []byte) error {
	cpu := time.NewTicker(time.Second / time.Duration(r.cfg.CPUHz))
	defer cpu.Stop()
	timers := time.NewTicker(time.Second / time.Duration(r.cfg.TimerHz))
	defer timers.Stop()

	m, err := chip8.NewMachine(rom)
	if err != nil {
		return err
	}
	var (
		paused  bool
		stopped bool // dev mode only: waiting for a swap
		brk     = uint16(0xffff)
		dbg     = uint16(0xffff)
	)
	for {
		select {
		case <-r.halt:
			return nil

		case rom := <-r.swap:
			next, err := chip8.NewMachine(rom)
			if err != nil {
				log.Printf("swap: %v", err)
				break
			}
			m = next
			stopped = false
			r.report(m, ClearState)

		case e := <-r.keys:
			if e.Down {
				m.PressKey(e.Key)
			} else {
				m.ReleaseKey(e.Key)
			}

		case c := <-r.ctl:
			switch c.cmd {
			case "b", "break":
				brk = c.addr
				if c.addr == 0 {
					brk = 0xffff
				}
				r.report(m, ClearState)
			case "d", "debug":
				dbg = c.addr
				if c.addr == 0 {
					dbg = 0xffff
				}
				r.report(m, ClearState)
			case "p", "pause":
				paused = true
				r.report(m, PauseState)
			case "c", "cont":
				paused = false
				r.report(m, ClearState)
			case "s", "step":
				if !paused {
					break
				}
				if err := r.step(m); err != nil && !r.dev {
					return runErr(err)
				}
				r.report(m, PauseState)
			default:
				log.Printf("unknown command %q", c.cmd)
			}

		case <-timers.C:
			m.TickTimers()
			if f := r.Frame; f != nil {
				f(m)
			}
			if !paused && !stopped {
				r.report(m, QuietState)
			}

		case <-cpu.C:
			if paused || stopped {
				break
			}
			if m.PC == brk && m.State() == chip8.Running {
				paused = true
				r.report(m, BreakState)
				break
			}
			if m.PC == dbg && m.State() == chip8.Running {
				r.report(m, DebugState)
			}
			if err := r.step(m); err != nil {
				if !r.dev {
					return runErr(err)
				}
				log.Printf("chip8: %v", err)
				stopped = true
			}
		}
	}
}

func (r *Runner) step(m *chip8.Machine) error {
	err := m.Step()
	if err != nil {
		r.report(m, HaltState)
	}
	return err
}

func (r *Runner) report(m *chip8.Machine, k StateKind) {
	if r.state != nil {
		r.state(m, k)
	}
}

// runErr maps a clean exit to a nil Run result.
func runErr(err error) error {
	if errors.Is(err, chip8.ErrExit) {
		return nil
	}
	return err
}
