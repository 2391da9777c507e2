// Package asm translates between assembler source text and flat CHIP-8
// program bytes. Assemble and Disassemble are inverses for any program made
// entirely of valid instructions.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jtmpu/chiprs/chip8"
)

// Symbol is one resolved label definition.
type Symbol struct {
	Name string
	Addr uint16
}

// Error is a translation failure pinned to a source line.
type Error struct {
	Line int
	Msg  string
}

func (e Error) Error() string { return e.Msg }

func errorf(line int, format string, args ...any) Error {
	return Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

type parsedLine struct {
	lineNo   int
	label    string
	mnemonic string
	operands []string
}

type assembler struct {
	labels map[string]uint16
	syms   []Symbol
}

// Assemble translates source text into a flat byte program. Programs load
// at chip8.ProgramStart, so label offsets and address literals are absolute
// machine addresses. Errors name the offending source line.
func Assemble(src string) ([]byte, error) {
	code, _, err := Build(src)
	return code, err
}

// Build is Assemble plus the resolved symbol table, in definition order,
// for diagnostic tooling.
func Build(src string) ([]byte, []Symbol, error) {
	a := &assembler{labels: make(map[string]uint16)}
	lines := strings.Split(src, "\n")
	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}
	code, err := a.pass2(lines)
	if err != nil {
		return nil, nil, err
	}
	return code, a.syms, nil
}

// pass1 lays the program out: every instruction line occupies two bytes,
// and every label records the address of whatever comes next.
func (a *assembler) pass1(lines []string) error {
	addr := uint16(chip8.ProgramStart)
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return err
		}
		if p.label != "" {
			if _, exists := a.labels[p.label]; exists {
				return errorf(p.lineNo, "duplicate label '%s' on line %d", p.label, p.lineNo)
			}
			a.labels[p.label] = addr
			a.syms = append(a.syms, Symbol{Name: p.label, Addr: addr})
		}
		if p.mnemonic == "" {
			continue
		}
		if addr+2 > chip8.MemSize {
			return errorf(p.lineNo, "program too large near line %d", p.lineNo)
		}
		addr += 2
	}
	return nil
}

func (a *assembler) pass2(lines []string) ([]byte, error) {
	program := make([]byte, 0)
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if p.mnemonic == "" {
			continue
		}
		in, err := a.parseInstruction(p)
		if err != nil {
			return nil, err
		}
		word := in.Encode()
		program = append(program, byte(word>>8), byte(word))
	}
	return program, nil
}

// parseInstruction classifies the operand tokens into an operand form,
// finds the matching encoding, and fills in the operand fields.
func (a *assembler) parseInstruction(p parsedLine) (chip8.Instruction, error) {
	var in chip8.Instruction
	if !chip8.KnownMnemonic(p.mnemonic) {
		return in, errorf(p.lineNo, "unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
	}

	regs := make([]byte, 0, 2)
	imm := ""
	for _, tok := range p.operands {
		if r, ok := parseRegister(tok); ok {
			if imm != "" || len(regs) == 2 {
				return in, errorf(p.lineNo, "unexpected operand '%s' for %s on line %d",
					tok, p.mnemonic, p.lineNo)
			}
			regs = append(regs, r)
			continue
		}
		if imm != "" {
			return in, errorf(p.lineNo, "unexpected operand '%s' for %s on line %d",
				tok, p.mnemonic, p.lineNo)
		}
		imm = tok
	}

	var form chip8.Form
	switch {
	case len(regs) == 0 && imm == "":
		form = chip8.FormNone
	case len(regs) == 0:
		form = chip8.FormAddr
	case len(regs) == 1 && imm == "":
		form = chip8.FormReg
	case len(regs) == 1:
		form = chip8.FormRegImm
	case imm == "":
		form = chip8.FormRegReg
	default:
		form = chip8.FormRegRegNib
	}

	op, ok := chip8.LookupOp(p.mnemonic, form)
	if !ok {
		return in, errorf(p.lineNo, "invalid operands for %s on line %d", p.mnemonic, p.lineNo)
	}
	in.Op = op
	if len(regs) > 0 {
		in.X = regs[0]
	}
	if len(regs) > 1 {
		in.Y = regs[1]
	}
	switch form {
	case chip8.FormAddr:
		addr, err := a.parseAddress(imm, p.lineNo)
		if err != nil {
			return in, err
		}
		in.NNN = addr
	case chip8.FormRegImm:
		v, err := parseImmediate(imm, 8, p.lineNo)
		if err != nil {
			return in, err
		}
		in.NN = byte(v)
	case chip8.FormRegRegNib:
		v, err := parseImmediate(imm, 4, p.lineNo)
		if err != nil {
			return in, err
		}
		in.N = byte(v)
	}
	return in, nil
}

// parseAddress resolves a label reference or parses a numeric address.
func (a *assembler) parseAddress(tok string, lineNo int) (uint16, error) {
	if addr, ok := a.labels[tok]; ok {
		return addr, nil
	}
	if isIdentifier(tok) {
		return 0, errorf(lineNo, "undefined label '%s' on line %d", tok, lineNo)
	}
	v, err := strconv.ParseUint(tok, 0, 16)
	if err != nil || v > 0x0FFF {
		return 0, errorf(lineNo, "address out of range on line %d: %s", lineNo, tok)
	}
	return uint16(v), nil
}

func parseImmediate(tok string, bits int, lineNo int) (uint64, error) {
	v, err := strconv.ParseUint(tok, 0, bits)
	if err != nil {
		return 0, errorf(lineNo, "invalid %d-bit literal on line %d: %s", bits, lineNo, tok)
	}
	return v, nil
}

// parseRegister recognizes register tokens: an 'r' prefix and a decimal
// index in [0, 15].
func parseRegister(tok string) (byte, bool) {
	if len(tok) < 2 || tok[0] != 'r' {
		return 0, false
	}
	v, err := strconv.ParseUint(tok[1:], 10, 8)
	if err != nil || v >= chip8.NumRegisters {
		return 0, false
	}
	return byte(v), true
}

// parseLine splits one source line into an optional label definition, an
// optional instruction, and its operand tokens. Comments start at ';'.
func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		raw = raw[:i]
	}
	fields := strings.Fields(raw)
	if len(fields) > 0 && strings.HasSuffix(fields[0], ":") {
		label := strings.TrimSuffix(fields[0], ":")
		if !isIdentifier(label) {
			return p, errorf(lineNo, "invalid label '%s' on line %d", label, lineNo)
		}
		if _, ok := parseRegister(label); ok || chip8.KnownMnemonic(label) {
			return p, errorf(lineNo, "reserved name used as label '%s' on line %d", label, lineNo)
		}
		p.label = label
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return p, nil
	}
	p.mnemonic = fields[0]
	p.operands = fields[1:]
	return p, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
