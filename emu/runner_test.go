package emu

import (
	"sync"
	"testing"
	"time"

	"github.com/jtmpu/chiprs/chip8"
)

func TestRunnerRunsToExit(t *testing.T) {
	rom := mustAssemble(t, "mov r1 5\nmov r2 10\nexit\n")

	var (
		mu   sync.Mutex
		last chip8.Snapshot
		kind StateKind
	)
	r := NewRunner(Config{CPUHz: 10000, TimerHz: 1000}, false,
		func(m *chip8.Machine, k StateKind) {
			mu.Lock()
			defer mu.Unlock()
			if k == HaltState {
				last, kind = m.Snapshot(), k
			}
		})

	done := make(chan error, 1)
	go func() { done <- r.Run(rom) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if kind != HaltState {
		t.Fatal("no halt state reported")
	}
	if last.V[1] != 5 || last.V[2] != 10 {
		t.Errorf("registers are %d/%d, want 5/10", last.V[1], last.V[2])
	}
	if last.State != chip8.Halted {
		t.Errorf("state is %v, want %v", last.State, chip8.Halted)
	}
}

func TestRunnerKeyResumesBlockedMachine(t *testing.T) {
	rom := mustAssemble(t, "input r4\nexit\n")

	r := NewRunner(Config{CPUHz: 10000, TimerHz: 1000}, false, nil)
	done := make(chan error, 1)
	go func() { done <- r.Run(rom) }()

	// Let the machine reach the input instruction, then press a key.
	time.Sleep(50 * time.Millisecond)
	r.Key(KeyEvent{Key: 0xa, Down: true})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("key press did not resume the machine")
	}
}

func TestRunnerHalt(t *testing.T) {
	rom := mustAssemble(t, "loop: jmp loop\n")

	r := NewRunner(Config{}, false, nil)
	done := make(chan error, 1)
	go func() { done <- r.Run(rom) }()

	time.Sleep(10 * time.Millisecond)
	r.Halt()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Halt did not stop the runner")
	}
}
