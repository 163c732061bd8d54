// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package pru

import (
	"strings"
)

// Context is the per-statement state the encoder needs from the assembler.
type Context struct {
	Address uint32 // Address of the instruction being encoded.
	Strict  bool   // Set on the final pass; range checks on branches apply.

	// Eval evaluates an expression operand.
	Eval func(text string) (value uint32, err error)
}

// Encoder turns mnemonics and operand text into instruction words.
type Encoder struct {
	Core      Core     // Target core revision.
	BigEndian bool     // Memory byte order of register fields.
	CallReg   Register // Return address register for CALL and RET.
}

// NewEncoder returns an encoder with the default call register.
func NewEncoder(core Core, bigEndian bool) (enc *Encoder) {
	enc = &Encoder{
		Core:      core,
		BigEndian: bigEndian,
		CallReg:   DefaultCallReg(),
	}
	return
}

// DefaultCallReg is R30.w0.
func DefaultCallReg() Register {
	return Register{Index: 30, Field: FIELD_W0, Bit: -1}
}

// Encode assembles one statement. Most instructions produce a single word;
// some pseudo-instructions produce more.
func (enc *Encoder) Encode(ctx *Context, mnemonic string, args []string) (codes []uint32, err error) {
	inst, ok := Lookup(mnemonic)
	if !ok {
		err = ErrMnemonicUnknown
		return
	}

	if enc.Core < inst.MinCore || enc.Core > inst.MaxCore {
		err = &ErrCore{Mnemonic: strings.ToUpper(mnemonic), Core: enc.Core}
		return
	}

	countOk := false
	for _, count := range inst.Args {
		if count == len(args) {
			countOk = true
			break
		}
	}
	if !countOk {
		err = ErrOperandCount
		return
	}

	for n, arg := range args {
		if len(strings.TrimSpace(arg)) == 0 {
			err = &ErrOperand{Index: n, Text: arg, Err: ErrOperandMissing}
			return
		}
	}

	op := &operands{enc: enc, ctx: ctx, args: args}
	return inst.encode(op)
}

// operands parses the operands of one statement.
type operands struct {
	enc  *Encoder
	ctx  *Context
	args []string
}

func (op *operands) fail(n int, err error) error {
	if _, ok := err.(*ErrOperand); ok {
		return err
	}
	return &ErrOperand{Index: n, Text: op.args[n], Err: err}
}

func (op *operands) eval(n int) (value uint32, err error) {
	if op.ctx == nil || op.ctx.Eval == nil {
		err = op.fail(n, ErrImmediateOnly)
		return
	}
	value, err = op.ctx.Eval(strings.TrimSpace(op.args[n]))
	if err != nil {
		err = op.fail(n, err)
	}
	return
}

// register parses operand n as a register without a bit selector.
func (op *operands) register(n int) (reg Register, err error) {
	reg, err = op.bitRegister(n)
	if err != nil {
		return
	}
	if reg.HasBit() {
		err = op.fail(n, ErrBitSelect)
	}
	return
}

// bitRegister parses operand n as a register that may carry a bit selector.
func (op *operands) bitRegister(n int) (reg Register, err error) {
	text := strings.TrimSpace(op.args[n])
	if !LooksLikeRegister(text) {
		err = op.fail(n, ErrRegisterWanted)
		return
	}
	reg, err = ParseRegister(text)
	if err != nil {
		err = op.fail(n, err)
	}
	return
}

// addressRegister parses a register operand that may be written &Rn.
func (op *operands) addressRegister(n int) (reg Register, err error) {
	text := strings.TrimSpace(op.args[n])
	if strings.HasPrefix(text, "&") {
		text = strings.TrimSpace(text[1:])
	}
	if !LooksLikeRegister(text) {
		err = op.fail(n, ErrRegisterWanted)
		return
	}
	reg, err = ParseRegister(text)
	if err == nil && reg.HasBit() {
		err = ErrBitSelect
	}
	if err != nil {
		err = op.fail(n, err)
	}
	return
}

// immediate evaluates operand n and checks it against [min, max].
func (op *operands) immediate(n int, what string, min, max int64) (value uint32, err error) {
	text := strings.TrimSpace(op.args[n])
	if LooksLikeRegister(text) {
		err = op.fail(n, ErrImmediateOnly)
		return
	}
	value, err = op.eval(n)
	if err != nil {
		return
	}
	if int64(value) < min || int64(value) > max {
		err = op.fail(n, &ErrRange{What: what, Value: int64(value), Min: min, Max: max})
	}
	return
}

// regOrImm parses operand n as a register or an immediate up to max.
// The result is the 8-bit operand field and the IO (immediate) flag.
func (op *operands) regOrImm(n int, max int64) (field uint32, io bool, err error) {
	text := strings.TrimSpace(op.args[n])
	if LooksLikeRegister(text) {
		var reg Register
		reg, err = op.register(n)
		if err != nil {
			return
		}
		field = reg.Encode(op.enc.BigEndian)
		return
	}

	field, err = op.immediate(n, f("immediate"), 0, max)
	io = true
	return
}

// relative evaluates a branch target and returns the signed offset from
// the current address, checked against [min, max] when strict.
func (op *operands) relative(n int, min, max int64) (offset int64, err error) {
	target, err := op.eval(n)
	if err != nil {
		return
	}

	offset = int64(target) - int64(op.ctx.Address)
	if !op.ctx.Strict {
		if offset < min || offset > max {
			offset = 0
		}
		return
	}

	if offset < min || offset > max {
		err = op.fail(n, &ErrRange{What: f("branch offset"), Value: offset, Min: min, Max: max})
	}
	return
}

// length parses a burst length: 1 to 124 bytes, or b0..b3 for a length
// held in R0.b0..R0.b3. The result is the 7-bit encoded length and the
// byte count when known.
func (op *operands) length(n int) (code uint32, count int, err error) {
	text := strings.ToLower(strings.TrimSpace(op.args[n]))
	if len(text) == 2 && text[0] == 'b' && text[1] >= '0' && text[1] <= '3' {
		code = 124 + uint32(text[1]-'0')
		return
	}
	if strings.HasPrefix(text, "r0.b") && len(text) == 5 && text[4] >= '0' && text[4] <= '3' {
		code = 124 + uint32(text[4]-'0')
		return
	}

	value, err := op.immediate(n, f("burst length"), 1, 124)
	if err != nil {
		return
	}
	code = value - 1
	count = int(value)
	return
}

// fits checks that count bytes starting at a register file address stay
// inside the register file.
func (op *operands) fits(n int, address uint32, count int) (err error) {
	if int(address)+count > REGISTER_FILE_SIZE {
		err = op.fail(n, ErrRegisterFile)
	}
	return
}

// constant parses a constant table index written Cn or as an expression.
func (op *operands) constant(n int) (index uint32, err error) {
	text := strings.TrimSpace(op.args[n])
	if len(text) > 1 && (text[0] == 'c' || text[0] == 'C') && isNumber(text[1:]) {
		var value uint32
		for _, c := range text[1:] {
			value = value*10 + uint32(c-'0')
		}
		if value > 31 {
			err = op.fail(n, ErrConstInvalid)
			return
		}
		index = value
		return
	}
	index, err = op.immediate(n, f("constant table index"), 0, 31)
	return
}

func isNumber(text string) bool {
	if len(text) == 0 || len(text) > 3 {
		return false
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
