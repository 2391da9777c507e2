package emu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jtmpu/chiprs/asm"
	"github.com/jtmpu/chiprs/chip8"
)

func mustAssemble(t *testing.T, src string) []byte {
	t.Helper()
	code, err := asm.Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return code
}

func TestCoordinatorAdvance(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCoordinator(mustAssemble(t,
		"mov r1 5\nmov r2 10\nmov r1 r1\nexit\n"), 10)
	assert.NoError(err)

	assert.NoError(c.AdvanceCPU(3))
	m := c.Machine()
	assert.Equal(byte(5), m.V[1])
	assert.Equal(byte(10), m.V[2])
	assert.Equal(uint16(chip8.ProgramStart+6), m.PC)

	assert.ErrorIs(c.AdvanceCPU(1), chip8.ErrExit)
	assert.True(c.Done())
	assert.True(c.Exited())
}

func TestCoordinatorTickRatio(t *testing.T) {
	assert := assert.New(t)

	// Two CPU steps per timer tick: set the delay timer, then spin.
	c, err := NewCoordinator(mustAssemble(t,
		"mov r0 3\ndelay r0\nloop: jmp loop\n"), 2)
	assert.NoError(err)

	assert.NoError(c.Tick())
	assert.Equal(byte(2), c.Machine().Delay)
	assert.NoError(c.Tick())
	assert.Equal(byte(1), c.Machine().Delay)

	c.AdvanceTimers(5)
	assert.Equal(byte(0), c.Machine().Delay)
	c.AdvanceTimers(1)
	assert.Equal(byte(0), c.Machine().Delay)
}

func TestCoordinatorFaultSticks(t *testing.T) {
	assert := assert.New(t)

	prog := make([]byte, 0)
	for i := 0; i < chip8.StackDepth+1; i++ {
		prog = append(prog, 0x22, 0x00) // call 0x200
	}
	c, err := NewCoordinator(prog, 1)
	assert.NoError(err)

	err = c.AdvanceCPU(chip8.StackDepth + 1)
	var halt chip8.HaltError
	if assert.ErrorAs(err, &halt) {
		assert.Equal(chip8.StackOverflow, halt.Code)
	}
	assert.True(c.Done())
	assert.False(c.Exited())
	assert.Equal(err, c.Err())

	// Further driving reports the same outcome and changes nothing.
	snap := c.Snapshot()
	assert.Equal(err, c.AdvanceCPU(100))
	assert.Equal(err, c.Tick())
	c.AdvanceTimers(3)
	after := c.Snapshot()
	assert.Equal(snap.PC, after.PC)
	assert.Equal(snap.Stack, after.Stack)
	assert.Equal(snap.Fault, after.Fault)
}

func TestCoordinatorBlockedInput(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCoordinator(mustAssemble(t, "input r4\nexit\n"), 1)
	assert.NoError(err)

	assert.NoError(c.Step())
	assert.Equal(chip8.Blocked, c.Machine().State())

	// Timer ticks and further steps never resume a blocked machine.
	for i := 0; i < 100; i++ {
		assert.NoError(c.Tick())
	}
	assert.Equal(chip8.Blocked, c.Machine().State())

	c.PressKey(0xa)
	assert.Equal(chip8.Running, c.Machine().State())
	assert.Equal(byte(0xa), c.Machine().V[4])
	assert.ErrorIs(c.Step(), chip8.ErrExit)
}

func TestCoordinatorCallRet(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCoordinator(mustAssemble(t,
		"call sub\njmp end\nsub: ret\nend:\n"), 1)
	assert.NoError(err)

	assert.NoError(c.AdvanceCPU(3))
	snap := c.Snapshot()
	assert.Equal(chip8.Running, snap.State)
	assert.Empty(snap.Stack)
	assert.Equal(uint16(chip8.ProgramStart+6), snap.PC)
}

func TestCoordinatorSnapshot(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCoordinator(mustAssemble(t, "call sub\nsub: mov r1 7\nexit\n"), 1)
	assert.NoError(err)
	assert.NoError(c.Step())

	snap := c.Snapshot()
	assert.Equal([]uint16{chip8.ProgramStart + 2}, snap.Stack)
	assert.True(snap.NextOK)
	assert.Equal(chip8.MovImm, snap.Next.Op)
	assert.Equal("mov r1 7", snap.Next.String())

	// Snapshots never mutate the machine.
	before := c.Machine().PC
	_ = c.Snapshot()
	assert.Equal(before, c.Machine().PC)
}

func TestCoordinatorPauseStep(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCoordinator(mustAssemble(t, "mov r1 1\nmov r2 2\nmov r3 3\n"), 1)
	assert.NoError(err)

	c.Pause()
	assert.True(c.Paused())
	assert.NoError(c.AdvanceCPU(100))
	assert.Equal(uint16(chip8.ProgramStart), c.Machine().PC)

	// Stepping works while paused; timers too.
	assert.NoError(c.StepOne())
	assert.Equal(byte(1), c.Machine().V[1])
	c.Machine().Delay = 2
	assert.NoError(c.Tick())
	assert.Equal(byte(1), c.Machine().Delay)
	assert.Equal(uint16(chip8.ProgramStart+2), c.Machine().PC)

	c.Resume()
	assert.NoError(c.AdvanceCPU(2))
	assert.Equal(byte(2), c.Machine().V[2])
	assert.Equal(byte(3), c.Machine().V[3])
}

func TestCoordinatorConfig(t *testing.T) {
	_, err := NewCoordinator(nil, 0)
	assert.EqualError(t, err, "cpu steps per tick is 0, must be positive")

	_, err = NewCoordinator(make([]byte, chip8.MemSize), 1)
	assert.Error(t, err)
}
