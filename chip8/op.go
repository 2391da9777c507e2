// Package chip8 provides an implementation of a CHIP-8 CPU, called Machine,
// that can be used to execute CHIP-8 programs, together with the instruction
// set definition shared by the interpreter, assembler, and disassembler.
package chip8

import "fmt"

// Op identifies a CHIP-8 operation. Several operations share a mnemonic and
// are distinguished by their operand form (for example MovImm and MovReg are
// both written "mov").
type Op int

const (
	Nop Op = iota // no matching encoding; decodes of invalid words yield Nop
	Clear
	Ret
	Exit
	Jmp
	Call
	SeImm
	SneImm
	SeReg
	MovImm
	AddImm
	MovReg
	Or
	And
	Xor
	AddReg
	Sub
	Shr
	Subn
	Shl
	SneReg
	Ldi
	Draw
	Skp
	Sknp
	Ldd
	Input
	Delay
	Sound
	Adi
	Ldf
	Bcd
	Str
	Ldr

	opCount
)

// Form describes the operand shape of an instruction encoding.
type Form int

const (
	FormNone      Form = iota // no operands
	FormAddr                  // 12-bit address (or label)
	FormReg                   // register
	FormRegImm                // register, 8-bit immediate
	FormRegReg                // register, register
	FormRegRegNib             // register, register, 4-bit immediate
)

// Instruction is the decoded form of one 16-bit instruction word. Only the
// fields implied by the operation's Form are meaningful; the rest are zero.
type Instruction struct {
	Op   Op
	X, Y byte   // register indices
	N    byte   // 4-bit immediate
	NN   byte   // 8-bit immediate
	NNN  uint16 // 12-bit address
}

// encoding is one row of the instruction set table: the bit pattern that
// selects the operation and the layout of its operand fields.
type encoding struct {
	op          Op
	name        string
	mask, value uint16
	form        Form
}

var encodings = []encoding{
	{Clear, "clear", 0xFFFF, 0x00E0, FormNone},
	{Ret, "ret", 0xFFFF, 0x00EE, FormNone},
	{Exit, "exit", 0xFFFF, 0x00FD, FormNone},
	{Jmp, "jmp", 0xF000, 0x1000, FormAddr},
	{Call, "call", 0xF000, 0x2000, FormAddr},
	{SeImm, "se", 0xF000, 0x3000, FormRegImm},
	{SneImm, "sne", 0xF000, 0x4000, FormRegImm},
	{SeReg, "se", 0xF00F, 0x5000, FormRegReg},
	{MovImm, "mov", 0xF000, 0x6000, FormRegImm},
	{AddImm, "add", 0xF000, 0x7000, FormRegImm},
	{MovReg, "mov", 0xF00F, 0x8000, FormRegReg},
	{Or, "or", 0xF00F, 0x8001, FormRegReg},
	{And, "and", 0xF00F, 0x8002, FormRegReg},
	{Xor, "xor", 0xF00F, 0x8003, FormRegReg},
	{AddReg, "add", 0xF00F, 0x8004, FormRegReg},
	{Sub, "sub", 0xF00F, 0x8005, FormRegReg},
	{Shr, "shr", 0xF00F, 0x8006, FormRegReg},
	{Subn, "subn", 0xF00F, 0x8007, FormRegReg},
	{Shl, "shl", 0xF00F, 0x800E, FormRegReg},
	{SneReg, "sne", 0xF00F, 0x9000, FormRegReg},
	{Ldi, "ldi", 0xF000, 0xA000, FormAddr},
	{Draw, "draw", 0xF000, 0xD000, FormRegRegNib},
	{Skp, "skp", 0xF0FF, 0xE09E, FormReg},
	{Sknp, "sknp", 0xF0FF, 0xE0A1, FormReg},
	{Ldd, "ldd", 0xF0FF, 0xF007, FormReg},
	{Input, "input", 0xF0FF, 0xF00A, FormReg},
	{Delay, "delay", 0xF0FF, 0xF015, FormReg},
	{Sound, "sound", 0xF0FF, 0xF018, FormReg},
	{Adi, "adi", 0xF0FF, 0xF01E, FormReg},
	{Ldf, "ldf", 0xF0FF, 0xF029, FormReg},
	{Bcd, "bcd", 0xF0FF, 0xF033, FormReg},
	{Str, "str", 0xF0FF, 0xF055, FormReg},
	{Ldr, "ldr", 0xF0FF, 0xF065, FormReg},
}

var byOp [opCount]encoding

func init() {
	for _, e := range encodings {
		byOp[e.op] = e
	}
}

// Mnemonic returns the assembler name for the operation. Nop has none.
func (o Op) Mnemonic() string {
	if o <= Nop || o >= opCount {
		return ""
	}
	return byOp[o].name
}

// Form returns the operand shape of the operation.
func (o Op) Form() Form { return byOp[o].form }

func (o Op) String() string {
	if s := o.Mnemonic(); s != "" {
		return s
	}
	return "nop"
}

// LookupOp returns the operation written as the given mnemonic with the
// given operand form, or false if the instruction set has no such encoding.
func LookupOp(name string, form Form) (Op, bool) {
	for _, e := range encodings {
		if e.name == name && e.form == form {
			return e.op, true
		}
	}
	return Nop, false
}

// KnownMnemonic reports whether name is a mnemonic for any operand form.
func KnownMnemonic(name string) bool {
	for _, e := range encodings {
		if e.name == name {
			return true
		}
	}
	return false
}

// Decode returns the unique instruction encoded by word, or false if no
// encoding rule matches.
func Decode(word uint16) (Instruction, bool) {
	for _, e := range encodings {
		if word&e.mask != e.value {
			continue
		}
		in := Instruction{Op: e.op}
		switch e.form {
		case FormAddr:
			in.NNN = word & 0x0FFF
		case FormReg:
			in.X = regX(word)
		case FormRegImm:
			in.X = regX(word)
			in.NN = byte(word)
		case FormRegReg:
			in.X = regX(word)
			in.Y = regY(word)
		case FormRegRegNib:
			in.X = regX(word)
			in.Y = regY(word)
			in.N = byte(word & 0x000F)
		}
		return in, true
	}
	return Instruction{}, false
}

// Encode returns the instruction word for in. It is the inverse of Decode
// for every instruction the table can express.
func (in Instruction) Encode() uint16 {
	e := byOp[in.Op]
	w := e.value
	switch e.form {
	case FormAddr:
		w |= in.NNN & 0x0FFF
	case FormReg:
		w |= uint16(in.X&0x0F) << 8
	case FormRegImm:
		w |= uint16(in.X&0x0F) << 8
		w |= uint16(in.NN)
	case FormRegReg:
		w |= uint16(in.X&0x0F) << 8
		w |= uint16(in.Y&0x0F) << 4
	case FormRegRegNib:
		w |= uint16(in.X&0x0F) << 8
		w |= uint16(in.Y&0x0F) << 4
		w |= uint16(in.N & 0x0F)
	}
	return w
}

// String renders the instruction in canonical assembler syntax, with
// registers as r-prefixed decimal indices and immediates in decimal.
func (in Instruction) String() string {
	e := byOp[in.Op]
	switch e.form {
	case FormAddr:
		return fmt.Sprintf("%s %d", e.name, in.NNN)
	case FormReg:
		return fmt.Sprintf("%s r%d", e.name, in.X)
	case FormRegImm:
		return fmt.Sprintf("%s r%d %d", e.name, in.X, in.NN)
	case FormRegReg:
		return fmt.Sprintf("%s r%d r%d", e.name, in.X, in.Y)
	case FormRegRegNib:
		return fmt.Sprintf("%s r%d r%d %d", e.name, in.X, in.Y, in.N)
	}
	return e.name
}

func regX(word uint16) byte { return byte(word >> 8 & 0x0F) }
func regY(word uint16) byte { return byte(word >> 4 & 0x0F) }
