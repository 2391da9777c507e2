package chip8

import (
	"fmt"
	"strings"
)

const (
	// MemSize is the size of the machine's byte-addressed memory.
	MemSize = 4096
	// ProgramStart is the address at which programs are loaded and begin
	// execution. Memory below it holds the font and is reserved.
	ProgramStart = 0x200
	// FontStart is the address of the built-in hexadecimal font sprites.
	FontStart = 0x000

	// NumRegisters is the number of general registers. Register 15 (VF)
	// doubles as the carry/borrow/collision flag.
	NumRegisters = 16
	// StackDepth is the fixed capacity of the call stack.
	StackDepth = 16

	// DisplayWidth and DisplayHeight are the framebuffer dimensions in
	// pixels. FrameSize is its packed size in bytes, one bit per pixel.
	DisplayWidth  = 64
	DisplayHeight = 32
	FrameSize     = DisplayWidth * DisplayHeight / 8
)

// State is the execution state of a Machine.
type State int

const (
	// Running means Step will fetch and execute the instruction at PC.
	Running State = iota
	// Blocked means the machine is waiting inside an input instruction
	// and only a key press event can resume it.
	Blocked
	// Halted means execution has ended, either cleanly via the exit
	// instruction or because of a fault.
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("unknown (%d)", int(s))
}

// Machine is an implementation of a CHIP-8 CPU.
type Machine struct {
	Mem   [MemSize]byte
	V     [NumRegisters]byte
	I     uint16
	PC    uint16
	Stack Stack
	Delay byte
	Sound byte
	Frame [FrameSize]byte
	Keys  uint16 // pressed-key bitmask, bit k set while key k is held

	state   State
	fault   *HaltError
	waitReg byte // destination register of a pending input instruction
}

// NewMachine returns a machine with the font installed, the given program
// loaded at ProgramStart, and the program counter at ProgramStart. It fails
// if the program does not fit in user memory.
func NewMachine(program []byte) (*Machine, error) {
	if len(program) > MemSize-ProgramStart {
		return nil, fmt.Errorf("program is %d bytes, exceeds %d bytes of user memory",
			len(program), MemSize-ProgramStart)
	}
	m := &Machine{PC: ProgramStart}
	copy(m.Mem[FontStart:], font[:])
	copy(m.Mem[ProgramStart:], program)
	return m, nil
}

// State returns the current execution state.
func (m *Machine) State() State { return m.state }

// Fault returns the halt condition, or nil if the machine has not faulted.
func (m *Machine) Fault() *HaltError { return m.fault }

// TickTimers decrements the delay and sound timers by one tick, clamping
// at zero. Timers run even while the machine is blocked on input.
func (m *Machine) TickTimers() {
	if m.Delay > 0 {
		m.Delay--
	}
	if m.Sound > 0 {
		m.Sound--
	}
}

// PressKey records key k (0-15) as held. If the machine is blocked on an
// input instruction the key code is written to the destination register
// and execution resumes past the instruction.
func (m *Machine) PressKey(k byte) {
	k &= 0x0F
	m.Keys |= 1 << k
	if m.state == Blocked {
		m.V[m.waitReg] = k
		m.PC = (m.PC + 2) & (MemSize - 1)
		m.state = Running
	}
}

// ReleaseKey records key k (0-15) as released.
func (m *Machine) ReleaseKey(k byte) {
	m.Keys &^= 1 << (k & 0x0F)
}

func (m *Machine) keyHeld(k byte) bool {
	return m.Keys&(1<<(k&0x0F)) != 0
}

// Pixel reports whether the framebuffer pixel at (x, y) is set.
func (m *Machine) Pixel(x, y int) bool {
	x, y = x%DisplayWidth, y%DisplayHeight
	return m.Frame[y*DisplayWidth/8+x/8]&(0x80>>(x%8)) != 0
}

// Pixels returns a copy of the packed framebuffer.
func (m *Machine) Pixels() [FrameSize]byte { return m.Frame }

// Stack implements the CHIP-8 call stack: a fixed arena of return
// addresses plus a top-of-stack index.
type Stack struct {
	Addrs [StackDepth]uint16
	Ptr   byte
}

// push appends a return address, reporting false on overflow.
func (s *Stack) push(addr uint16) bool {
	if s.Ptr == StackDepth {
		return false
	}
	s.Addrs[s.Ptr] = addr
	s.Ptr++
	return true
}

// pop removes and returns the top return address, reporting false on
// underflow.
func (s *Stack) pop() (uint16, bool) {
	if s.Ptr == 0 {
		return 0, false
	}
	s.Ptr--
	return s.Addrs[s.Ptr], true
}

func (s Stack) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, a := range s.Addrs[:s.Ptr] {
		fmt.Fprintf(&b, " %.3x", a)
	}
	b.WriteString(" )")
	return b.String()
}

// Snapshot is a read-only projection of machine state for diagnostics.
// Taking one never mutates the machine.
type Snapshot struct {
	V     [NumRegisters]byte
	I     uint16
	PC    uint16
	Stack []uint16
	Delay byte
	Sound byte
	State State
	Fault *HaltError

	Word   uint16      // the instruction word at PC
	Next   Instruction // its decoded form, if NextOK
	NextOK bool
}

// Snapshot returns the current diagnostic projection, including the decode
// of the next instruction word at PC.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		V:     m.V,
		I:     m.I,
		PC:    m.PC,
		Stack: append([]uint16(nil), m.Stack.Addrs[:m.Stack.Ptr]...),
		Delay: m.Delay,
		Sound: m.Sound,
		State: m.state,
		Word:  m.word(m.PC),
	}
	if m.fault != nil {
		f := *m.fault
		s.Fault = &f
	}
	s.Next, s.NextOK = Decode(s.Word)
	return s
}

func (m *Machine) word(addr uint16) uint16 {
	hi := m.Mem[addr&(MemSize-1)]
	lo := m.Mem[(addr+1)&(MemSize-1)]
	return uint16(hi)<<8 | uint16(lo)
}
