package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jtmpu/chiprs/asm"
)

type symbols []symbol

type symbol struct {
	addr  uint16
	label string
}

func (s symbol) String() string { return fmt.Sprintf("%s (%.4x)", s.label, s.addr) }

// newSymbols converts the assembler's symbol table into address order for
// lookup by the debugger.
func newSymbols(syms []asm.Symbol) symbols {
	ss := make(symbols, 0, len(syms))
	for _, s := range syms {
		ss = append(ss, symbol{addr: s.Addr, label: s.Name})
	}
	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].addr < ss[j].addr
	})
	return ss
}

func (s symbols) forAddr(addr uint16) (ss []symbol) {
	i := sort.Search(len(s), func(i int) bool { return s[i].addr >= addr })
	for ; i < len(s); i++ {
		if s[i].addr != addr {
			break
		}
		ss = append(ss, s[i])
	}
	return ss
}

func (s symbols) withLabelPrefix(prefix string) (ss []symbol) {
	for _, sym := range s {
		if strings.HasPrefix(sym.label, prefix) {
			ss = append(ss, sym)
		}
	}
	return ss
}

// resolve turns a label or numeric address into a symbol. Bare numbers
// resolve even without a matching label.
func (s symbols) resolve(arg string) (symbol, bool) {
	for _, sym := range s {
		if sym.label == arg {
			return sym, true
		}
	}
	if addr, err := strconv.ParseUint(arg, 0, 16); err == nil {
		return symbol{addr: uint16(addr), label: fmt.Sprintf("%.4x", addr)}, true
	}
	return symbol{}, false
}
