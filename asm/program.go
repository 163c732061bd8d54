package asm

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/ezrec/pasm/internal"
	"github.com/ezrec/pasm/pru"
)

const (
	CODE_LIMIT = 16384 // Code image capacity, in words.
)

// SourceInfo names a source file that contributed to a program.
type SourceInfo struct {
	Name string // Name as written.
	Path string // Path inside the source filesystem.
}

// Opcode is the code generated by one statement.
type Opcode struct {
	File    int      // Index into Program.Files, or -1 for generated code.
	LineNo  int      // Source line.
	Address uint32   // Address of the first word.
	Text    string   // Statement text, after macro and alias expansion.
	Codes   []uint32 // Instruction words.
	Data    bool     // Raw words from .codeword, not instructions.
}

// HasFile is true when the opcode came from a source line.
func (op *Opcode) HasFile() bool {
	return op.File >= 0
}

// Label is a resolved code label.
type Label struct {
	Name    string
	Address uint32
}

// Program is an assembled code image with its symbols.
type Program struct {
	Core       pru.Core     // Target core revision.
	BigEndian  bool         // Register byte order.
	EntryPoint uint32       // Address execution starts at.
	Length     uint32       // Code cursor at the end of assembly.
	Opcodes    []Opcode     // Code, in address order.
	Labels     []Label      // Labels, in address order.
	Equates    []Equate     // Equates defined at the end of assembly.
	Files      []SourceInfo // Source files, by file index.
	Errors     int          // Errors in the last pass.
	Warnings   int          // Warnings in the last pass.
}

// Debug locates the opcode that generated an address.
type Debug struct {
	*Opcode
	Index int
}

func (prog *Program) Debug(addr uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Address && addr < op.Address+uint32(len(op.Codes)) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr - op.Address),
			}
			break
		}
	}

	return
}

// Codes iterates over every generated word and its address.
func (prog *Program) Codes() iter.Seq2[uint32, uint32] {
	return func(yield func(addr uint32, code uint32) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Address+uint32(n), code) {
					return
				}
			}
		}
	}
}

// Image returns the code image from address 0 to Length. Addresses skipped
// by .origin are zero.
func (prog *Program) Image() (image []uint32) {
	image = make([]uint32, prog.Length)
	for addr, code := range prog.Codes() {
		if addr < prog.Length {
			image[addr] = code
		}
	}
	return
}

// FileName returns the display name of a file index.
func (prog *Program) FileName(index int) string {
	if index < 0 || index >= len(prog.Files) {
		return ""
	}
	return prog.Files[index].Name
}

// Lookup finds a label.
func (prog *Program) Lookup(name string) (addr uint32, ok bool) {
	for _, label := range prog.Labels {
		if label.Name == name {
			return label.Address, true
		}
	}
	return
}

func (prog *Program) labels() iter.Seq2[string, string] {
	return func(yield func(name, value string) bool) {
		for _, label := range prog.Labels {
			if !yield(label.Name, fmt.Sprintf("0x%08x", label.Address)) {
				return
			}
		}
	}
}

func (prog *Program) equates() iter.Seq2[string, string] {
	return func(yield func(name, value string) bool) {
		for _, eq := range prog.Equates {
			if !yield(eq.Name, eq.Value) {
				return
			}
		}
	}
}

// Symbols iterates over labels, then equates, as name and value text.
func (prog *Program) Symbols() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(prog.labels(), prog.equates())
}

// labelTable holds labels across both passes.
type labelTable struct {
	values map[string]uint32
	seen   map[string]bool // Defined in the current pass.
}

func newLabelTable() *labelTable {
	return &labelTable{
		values: map[string]uint32{},
		seen:   map[string]bool{},
	}
}

// Begin starts a pass; values from the previous pass remain visible.
func (lt *labelTable) Begin() {
	clear(lt.seen)
}

// Define sets a label for the current pass. On the final pass a label
// whose address differs from the previous pass is reported, and updated.
func (lt *labelTable) Define(name string, addr uint32, final bool) (err error) {
	if lt.seen[name] {
		err = ErrLabelDuplicate
		return
	}
	lt.seen[name] = true

	old, ok := lt.values[name]
	lt.values[name] = addr
	if final && ok && old != addr {
		err = ErrLabelMoved
	}
	return
}

// Lookup returns a label value.
func (lt *labelTable) Lookup(name string) (addr uint32, ok bool) {
	addr, ok = lt.values[name]
	return
}

// Has is true when the label was defined in the current pass.
func (lt *labelTable) Has(name string) bool {
	return lt.seen[name]
}

// All iterates over every label.
func (lt *labelTable) All() iter.Seq2[string, uint32] {
	return func(yield func(string, uint32) bool) {
		for name, addr := range lt.values {
			if !yield(name, addr) {
				return
			}
		}
	}
}

// Sorted returns the labels ordered by address, then name.
func (lt *labelTable) Sorted() (labels []Label) {
	for name, addr := range lt.values {
		labels = append(labels, Label{Name: name, Address: addr})
	}
	slices.SortFunc(labels, func(a, b Label) int {
		if a.Address != b.Address {
			if a.Address < b.Address {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return
}
