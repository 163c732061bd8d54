package asm

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Length: 6,
		Opcodes: []Opcode{
			{File: 0, LineNo: 1, Address: 0, Text: "LDI r1, 1", Codes: []uint32{0x240001e1}},
			{File: 0, LineNo: 2, Address: 1, Text: "MOV r2, 0x12345678", Codes: []uint32{0x24567882, 0x241234c2}},
			{File: 1, LineNo: 7, Address: 4, Text: "HALT", Codes: []uint32{0x2a000000}},
		},
		Labels:  []Label{{"start", 0}, {"done", 4}},
		Equates: []Equate{{Name: "N", Value: "4"}},
		Files:   []SourceInfo{{Name: "main.p", Path: "main.p"}, {Name: "x.h", Path: "inc/x.h"}},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(2)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(4)
	assert.NotNil(dbg.Opcode)
	assert.Equal("x.h", prog.FileName(dbg.File))
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(3)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(100)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	got := maps.Collect(prog.Codes())
	assert.Equal(map[uint32]uint32{
		0: 0x240001e1,
		1: 0x24567882,
		2: 0x241234c2,
		4: 0x2a000000,
	}, got)

	// Early termination.
	count := 0
	for range prog.Codes() {
		count++
		break
	}
	assert.Equal(1, count)

	assert.Equal([]uint32{0x240001e1, 0x24567882, 0x241234c2, 0, 0x2a000000, 0}, prog.Image())
}

func TestProgram_Symbols(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	var names, values []string
	for name, value := range prog.Symbols() {
		names = append(names, name)
		values = append(values, value)
	}
	assert.Equal([]string{"start", "done", "N"}, names)
	assert.Equal([]string{"0x00000000", "0x00000004", "4"}, values)

	addr, ok := prog.Lookup("done")
	assert.True(ok)
	assert.Equal(uint32(4), addr)
	_, ok = prog.Lookup("nope")
	assert.False(ok)

	assert.Equal("", prog.FileName(-1))
	assert.Equal("", prog.FileName(2))
}

func TestLabelTable(t *testing.T) {
	assert := assert.New(t)

	lt := newLabelTable()
	lt.Begin()
	assert.NoError(lt.Define("b", 4, false))
	assert.NoError(lt.Define("a", 4, false))
	assert.NoError(lt.Define("c", 1, false))
	assert.ErrorIs(lt.Define("c", 2, false), ErrLabelDuplicate)
	assert.True(lt.Has("a"))

	assert.Equal([]Label{{"c", 1}, {"a", 4}, {"b", 4}}, lt.Sorted())

	// Second pass: values stay visible until redefined.
	lt.Begin()
	assert.False(lt.Has("a"))
	addr, ok := lt.Lookup("a")
	assert.True(ok)
	assert.Equal(uint32(4), addr)

	assert.NoError(lt.Define("a", 4, true))
	assert.ErrorIs(lt.Define("b", 5, true), ErrLabelMoved)
	addr, _ = lt.Lookup("b")
	assert.Equal(uint32(5), addr)
}
