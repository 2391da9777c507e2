package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jtmpu/chiprs/asm"
)

// loadProgram reads a program binary, or assembles it first when the file
// looks like assembler source.
func loadProgram(file string) ([]byte, error) {
	rom, _, err := buildProgram(file)
	return rom, err
}

// buildProgram is loadProgram plus the symbol table, which is empty for a
// binary input.
func buildProgram(file string) ([]byte, []asm.Symbol, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	if isSource(file) {
		code, syms, err := asm.Build(string(b))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %v", file, err)
		}
		return code, syms, nil
	}
	if len(b)%2 != 0 {
		return nil, nil, fmt.Errorf("%s: %d bytes, not an even number", file, len(b))
	}
	return b, nil, nil
}

func isSource(file string) bool {
	switch filepath.Ext(file) {
	case ".asm", ".s":
		return true
	}
	return false
}

// translate implements the -assemble and -disassemble modes, writing to
// outFile or standard output.
func translate(inFile, outFile string, assemble bool) error {
	b, err := os.ReadFile(inFile)
	if err != nil {
		return err
	}
	var out []byte
	if assemble {
		code, err := asm.Assemble(string(b))
		if err != nil {
			return fmt.Errorf("%s: %v", inFile, err)
		}
		out = code
	} else {
		text, err := asm.Disassemble(b)
		if err != nil {
			return fmt.Errorf("%s: %v", inFile, err)
		}
		out = []byte(text)
	}
	if outFile == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outFile, out, 0o644)
}
