package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/jtmpu/chiprs/chip8"
	"github.com/jtmpu/chiprs/emu"
)

// consoleRun drives a program without the terminal display. Keypad input
// comes from standard input, one key per line as a hex digit. On halt the
// final machine state is dumped to standard output.
func consoleRun(cfg config, rom []byte) error {
	var (
		mu   sync.Mutex
		last chip8.Snapshot
	)
	r := emu.NewRunner(cfg.runner(), false,
		func(m *chip8.Machine, k emu.StateKind) {
			if k != emu.HaltState {
				return
			}
			mu.Lock()
			last = m.Snapshot()
			mu.Unlock()
		})

	go consoleInput(os.Stdin, r)

	err := r.Run(rom)
	mu.Lock()
	dumpState(os.Stdout, last)
	mu.Unlock()
	return err
}

func consoleInput(in io.Reader, r *emu.Runner) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if len(line) != 1 {
			log.Printf("key must be a single hex digit, got %q", line)
			continue
		}
		k, ok := hexDigit(line[0])
		if !ok {
			log.Printf("not a hex digit: %q", line)
			continue
		}
		r.Key(emu.KeyEvent{Key: k, Down: true})
		r.Key(emu.KeyEvent{Key: k, Down: false})
	}
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// dumpState writes a readable rendering of a diagnostic snapshot: the
// registers, timers, stack, and the instruction at the program counter.
func dumpState(w io.Writer, s chip8.Snapshot) {
	for i, v := range s.V {
		fmt.Fprintf(w, "r%-2d %.2x  ", i, v)
		if i%8 == 7 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "i %.4x  pc %.4x  delay %.2x  sound %.2x  %s\n",
		s.I, s.PC, s.Delay, s.Sound, s.State)
	fmt.Fprintf(w, "stack (")
	for _, a := range s.Stack {
		fmt.Fprintf(w, " %.3x", a)
	}
	fmt.Fprintln(w, " )")
	switch {
	case s.Fault != nil:
		fmt.Fprintf(w, "fault: %v\n", s.Fault)
	case s.NextOK:
		fmt.Fprintf(w, "next: %s\n", s.Next)
	}
}
