package pru

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/pasm/expr"
)

type labelEnv struct {
	strict bool
	labels map[string]uint32
}

func (env *labelEnv) Symbol(name string) (value uint32, ok bool) {
	value, ok = env.labels[name]
	return
}

func (env *labelEnv) RegisterAddress(token string) (value uint32, ok bool) {
	reg, err := ParseRegister(token)
	if err != nil {
		return
	}
	return reg.Address(false), true
}

func (env *labelEnv) Strict() bool {
	return env.strict
}

func newContext(address uint32, strict bool) *Context {
	env := &labelEnv{
		strict: strict,
		labels: map[string]uint32{
			"back":  0x10,
			"ahead": 0x14,
			"end":   20,
			"early": 5,
			"far":   600,
		},
	}
	return &Context{
		Address: address,
		Strict:  strict,
		Eval: func(text string) (uint32, error) {
			return expr.Value(text, env)
		},
	}
}

func encodeLine(enc *Encoder, ctx *Context, line string) ([]uint32, error) {
	mnemonic, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	var args []string
	if len(strings.TrimSpace(rest)) > 0 {
		args = strings.Split(rest, ",")
	}
	return enc.Encode(ctx, mnemonic, args)
}

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	enc := NewEncoder(CORE_V2, false)

	table := []struct {
		address uint32
		line    string
		codes   []uint32
	}{
		{0, "ADD r1, r2, 5", []uint32{0x0105e2e1}},
		{0, "add r1.b1, r2.w1, r3", []uint32{0x00e3a221}},
		{0, "NOP", []uint32{0x00e0e0e0}},
		{0, "LDI r0, 0x1234", []uint32{0x241234e0}},
		{0, "MOV r2, 0x12345678", []uint32{0x24567882, 0x241234c2}},
		{0, "MOV r1, r2", []uint32{0x10e2e2e1}},
		{0, "MOV r1, 0x20", []uint32{0x240020e1}},
		{0, "JMP 0x10", []uint32{0x21001000}},
		{0, "JMP r3.w0", []uint32{0x20830000}},
		{0, "CALL 0x20", []uint32{0x2300209e}},
		{0, "RET", []uint32{0x209e0000}},
		{0, "HALT", []uint32{0x2a000000}},
		{0, "SLP 1", []uint32{0x3e800000}},
		{0x12, "QBGT back, r1, 5", []uint32{0x4f05e1fe}},
		{0x10, "QBA ahead", []uint32{0x78000004}},
		{0x12, "QBBS ahead, r1.t3", []uint32{0xd103e102}},
		{0, "WBS r31.t30", []uint32{0xc91eff00}},
		{0, "CLR r1, r2, 3", []uint32{0x1d03e2e1}},
		{0, "CLR r1, r2.t3", []uint32{0x1d03e2e1}},
		{0, "CLR r1.t3", []uint32{0x1d03e1e1}},
		{0, "SET r1, 7", []uint32{0x1f07e1e1}},
		{0, "LBBO r2, r1, 0, 4", []uint32{0xf1002182}},
		{0, "LBBO &r2, r1, 0, 4", []uint32{0xf1002182}},
		{0, "SBCO r0, C4, 8, 16", []uint32{0x8108e480}},
		{0, "LBBO r2, r1, r3, b1", []uint32{0xfee3c182}},
		{0, "LBBO r0.b2, r1, 0, 1", []uint32{0xf1000140}},
		{0, "XIN 10, &r2, 8", []uint32{0x2e850702}},
		{0, "ZERO &r1, 4", []uint32{0x2eff0301}},
		{0, "ZERO 6, 2", []uint32{0x2eff0141}},
		{10, "LOOP end, 5", []uint32{0x3105000a}},
		{10, "ILOOP end, 5", []uint32{0x3105800a}},
	}

	for _, entry := range table {
		codes, err := encodeLine(enc, newContext(entry.address, true), entry.line)
		assert.NoError(err, entry.line)
		assert.Equal(entry.codes, codes, entry.line)
	}
}

func TestEncode_BigEndian(t *testing.T) {
	assert := assert.New(t)

	enc := NewEncoder(CORE_V2, true)

	codes, err := encodeLine(enc, newContext(0, true), "ADD r1.b1, r2.w1, r3")
	assert.NoError(err)
	assert.Equal([]uint32{0x00e3a241}, codes)

	codes, err = encodeLine(enc, newContext(0, true), "LBBO r0.b2, r1, 0, 1")
	assert.NoError(err)
	assert.Equal([]uint32{0xf1000120}, codes)

	// 32-bit halves are always placed by physical position.
	codes, err = encodeLine(enc, newContext(0, true), "MOV r2, 0x12345678")
	assert.NoError(err)
	assert.Equal([]uint32{0x24567882, 0x241234c2}, codes)
}

func TestEncode_Mvi(t *testing.T) {
	assert := assert.New(t)

	enc := NewEncoder(CORE_V3, false)

	codes, err := encodeLine(enc, newContext(0, true), "MVIW r2.w0, *r1.b0++")
	assert.NoError(err)
	assert.Equal([]uint32{0x2cb00182}, codes)

	_, err = encodeLine(enc, newContext(0, true), "MVIB *r2.b0, r3")
	assert.ErrorIs(err, ErrPointerInvalid)

	_, err = encodeLine(enc, newContext(0, true), "MVIB r2.b0++, r3")
	assert.ErrorIs(err, ErrPointerMode)
}

func TestEncode_Core(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		core Core
		line string
	}{
		{CORE_V0, "HALT"},
		{CORE_V0, "LMBD r1, r2, 1"},
		{CORE_V2, "LFC r1, 5"},
		{CORE_V2, "SCAN r1, 5"},
		{CORE_V1, "XIN 1, r2, 4"},
		{CORE_V1, "LOOP end, 1"},
		{CORE_V2, "MVIB r1.b0, *r1.b1"},
	}

	for _, entry := range table {
		enc := NewEncoder(entry.core, false)
		_, err := encodeLine(enc, newContext(10, true), entry.line)
		var ec *ErrCore
		assert.True(errors.As(err, &ec), entry.line)
		if ec != nil {
			assert.Equal(entry.core, ec.Core)
			assert.Contains(ec.Error(), "illegal for this core revision")
		}
	}

	codes, err := encodeLine(NewEncoder(CORE_V0, false), newContext(0, true), "LFC r1, 5")
	assert.NoError(err)
	assert.Equal([]uint32{0x3205_00e1}, codes)
}

func TestEncode_Branch(t *testing.T) {
	assert := assert.New(t)

	enc := NewEncoder(CORE_V2, false)

	// Out of range on the final pass.
	_, err := encodeLine(enc, newContext(0, true), "QBEQ far, r1, 0")
	var er *ErrRange
	assert.True(errors.As(err, &er))

	// The same branch is a placeholder on the first pass.
	codes, err := encodeLine(enc, newContext(0, false), "QBEQ far, r1, 0")
	assert.NoError(err)
	assert.Equal([]uint32{0x5100e100}, codes)

	_, err = encodeLine(enc, newContext(0, true), "QBBC far, r1.t0")
	assert.True(errors.As(err, &er))

	_, err = encodeLine(enc, newContext(0, true), "QBA far")
	assert.True(errors.As(err, &er))

	// Loops only go forward.
	_, err = encodeLine(enc, newContext(10, true), "LOOP early, 4")
	assert.True(errors.As(err, &er))
}

func TestEncode_Errors(t *testing.T) {
	assert := assert.New(t)

	enc := NewEncoder(CORE_V2, false)

	table := []struct {
		line string
		err  error
	}{
		{"ADD r1, r2", ErrOperandCount},
		{"ADD r1, r2.t3, 1", ErrBitSelect},
		{"ADD 5, r1, r2", ErrRegisterWanted},
		{"ADD r1, r99, r2", ErrRegisterInvalid},
		{"ADD r1, r2, ", ErrOperandMissing},
		{"LDI r1, r2", ErrImmediateOnly},
		{"CLR r1", ErrBitMissing},
		{"LBBO r31, r1, 0, 8", ErrRegisterFile},
		{"LBBO r1, r2.w0, 0, 4", ErrRegisterFull},
		{"LBCO r1, C32, 0, 4", ErrConstInvalid},
		{"ZERO &r31, 8", ErrRegisterFile},
		{"BOGUS r1", ErrMnemonicUnknown},
	}

	for _, entry := range table {
		_, err := encodeLine(enc, newContext(0, true), entry.line)
		assert.ErrorIs(err, entry.err, entry.line)
	}

	ranges := []string{
		"ADD r1, r2, 256",
		"LSL r1, r1, 32",
		"LDI r1.b0, 0x100",
		"LDI r1, 0x10000",
		"MOV r1.w0, 0x10000",
		"LBBO r1, r2, 0, 125",
		"LBBO r1, r2, 0, 0",
		"XIN 254, r1, 4",
		"SLP 2",
	}
	for _, line := range ranges {
		_, err := encodeLine(enc, newContext(0, true), line)
		var er *ErrRange
		assert.True(errors.As(err, &er), line)
	}
}

func TestMnemonics(t *testing.T) {
	assert := assert.New(t)

	names := Mnemonics()
	assert.Contains(names, "add")
	assert.Contains(names, "qbbc")
	assert.True(IsMnemonic("LBCO"))
	assert.False(IsMnemonic(".origin"))
}

func TestAluOp_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("add", ALU_ADD.String())
	assert.Equal("or", ALU_OR.String())
	assert.Equal("set", ALU_SET.String())
	assert.Equal("AluOp(16)", AluOp(16).String())
}
