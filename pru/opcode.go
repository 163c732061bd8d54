package pru

import (
	"maps"
	"slices"
	"strings"
)

// AluOp is a format 1 ALU operation.
type AluOp uint32

//go:generate go tool stringer -linecomment -type=AluOp

const (
	ALU_ADD = AluOp(0)  // add
	ALU_ADC = AluOp(1)  // adc
	ALU_SUB = AluOp(2)  // sub
	ALU_SUC = AluOp(3)  // suc
	ALU_LSL = AluOp(4)  // lsl
	ALU_LSR = AluOp(5)  // lsr
	ALU_RSB = AluOp(6)  // rsb
	ALU_RSC = AluOp(7)  // rsc
	ALU_AND = AluOp(8)  // and
	ALU_OR  = AluOp(9)  // or
	ALU_XOR = AluOp(10) // xor
	ALU_NOT = AluOp(11) // not
	ALU_MIN = AluOp(12) // min
	ALU_MAX = AluOp(13) // max
	ALU_CLR = AluOp(14) // clr
	ALU_SET = AluOp(15) // set
)

// Format 2 sub-operations.
const (
	SUB_JMP  = uint32(0)
	SUB_JAL  = uint32(1)
	SUB_LDI  = uint32(2)
	SUB_LMBD = uint32(3)
	SUB_SCAN = uint32(4)
	SUB_HALT = uint32(5)
	SUB_MVI  = uint32(6)
	SUB_XFR  = uint32(7)
	SUB_LOOP = uint32(8)
	SUB_LFC  = uint32(9)
	SUB_STC  = uint32(10)
	SUB_SLP  = uint32(15)
)

// Quick branch tests.
const (
	QB_GT = uint32(1)
	QB_EQ = uint32(2)
	QB_GE = uint32(3)
	QB_LT = uint32(4)
	QB_NE = uint32(5)
	QB_LE = uint32(6)
	QB_A  = uint32(7)

	QB_BC = uint32(1)
	QB_BS = uint32(2)
)

// Transfer operations and reserved device IDs.
const (
	XFR_IN   = uint32(1)
	XFR_OUT  = uint32(2)
	XFR_XCHG = uint32(3)

	XFR_DEVICE_MAX  = 253
	XFR_DEVICE_ZERO = uint32(254)
	XFR_DEVICE_FILL = uint32(255)
)

// Branch offset limits, in instruction words.
const (
	BRANCH_MIN = -512
	BRANCH_MAX = 511
	LOOP_MIN   = 1
	LOOP_MAX   = 255
)

// Instruction describes a mnemonic.
type Instruction struct {
	Mnemonic string
	Args     []int // Accepted operand counts.
	MinCore  Core
	MaxCore  Core
	encode   func(op *operands) (codes []uint32, err error)
}

var instructions = map[string]*Instruction{}

func define(mnemonic string, min, max Core, encode func(op *operands) ([]uint32, error), args ...int) {
	instructions[mnemonic] = &Instruction{
		Mnemonic: mnemonic,
		Args:     args,
		MinCore:  min,
		MaxCore:  max,
		encode:   encode,
	}
}

func init() {
	alu := map[string]AluOp{
		"add": ALU_ADD, "adc": ALU_ADC, "sub": ALU_SUB, "suc": ALU_SUC,
		"lsl": ALU_LSL, "lsr": ALU_LSR, "rsb": ALU_RSB, "rsc": ALU_RSC,
		"and": ALU_AND, "or": ALU_OR, "xor": ALU_XOR,
		"min": ALU_MIN, "max": ALU_MAX,
	}
	for name, aluop := range alu {
		define(name, CORE_OLDEST, CORE_NEWEST, encodeAlu(aluop), 3)
	}
	define("not", CORE_OLDEST, CORE_NEWEST, encodeNot, 2)
	define("clr", CORE_OLDEST, CORE_NEWEST, encodeBit(ALU_CLR), 1, 2, 3)
	define("set", CORE_OLDEST, CORE_NEWEST, encodeBit(ALU_SET), 1, 2, 3)
	define("nop", CORE_OLDEST, CORE_NEWEST, encodeNop, 0)
	define("mov", CORE_OLDEST, CORE_NEWEST, encodeMov, 2)
	define("ldi", CORE_OLDEST, CORE_NEWEST, encodeLdi, 2)

	define("jmp", CORE_OLDEST, CORE_NEWEST, encodeJmp, 1)
	define("jal", CORE_OLDEST, CORE_NEWEST, encodeJal, 2)
	define("call", CORE_OLDEST, CORE_NEWEST, encodeCall, 1)
	define("ret", CORE_OLDEST, CORE_NEWEST, encodeRet, 0)
	define("lmbd", CORE_V1, CORE_NEWEST, encodeLmbd, 3)
	define("scan", CORE_OLDEST, CORE_V1, encodeScan, 2)
	define("halt", CORE_V1, CORE_NEWEST, encodeHalt, 0)
	define("slp", CORE_V2, CORE_NEWEST, encodeSlp, 1)
	define("lfc", CORE_OLDEST, CORE_V0, encodeCoproc(SUB_LFC), 2)
	define("stc", CORE_OLDEST, CORE_V0, encodeCoproc(SUB_STC), 2)

	define("mvib", CORE_V3, CORE_NEWEST, encodeMvi(0), 2)
	define("mviw", CORE_V3, CORE_NEWEST, encodeMvi(1), 2)
	define("mvid", CORE_V3, CORE_NEWEST, encodeMvi(2), 2)

	define("xin", CORE_V2, CORE_NEWEST, encodeXfr(XFR_IN), 3)
	define("xout", CORE_V2, CORE_NEWEST, encodeXfr(XFR_OUT), 3)
	define("xchg", CORE_V2, CORE_NEWEST, encodeXfr(XFR_XCHG), 3)
	define("zero", CORE_V2, CORE_NEWEST, encodeFill(XFR_DEVICE_ZERO), 2)
	define("fill", CORE_V2, CORE_NEWEST, encodeFill(XFR_DEVICE_FILL), 2)
	define("loop", CORE_V2, CORE_NEWEST, encodeLoop(false), 2)
	define("iloop", CORE_V2, CORE_NEWEST, encodeLoop(true), 2)

	qb := map[string]uint32{
		"qbgt": QB_GT, "qbeq": QB_EQ, "qbge": QB_GE,
		"qblt": QB_LT, "qbne": QB_NE, "qble": QB_LE,
	}
	for name, test := range qb {
		define(name, CORE_OLDEST, CORE_NEWEST, encodeQuick(test), 3)
	}
	define("qba", CORE_OLDEST, CORE_NEWEST, encodeQba, 1)
	define("qbbc", CORE_OLDEST, CORE_NEWEST, encodeBitBranch(QB_BC, false), 2, 3)
	define("qbbs", CORE_OLDEST, CORE_NEWEST, encodeBitBranch(QB_BS, false), 2, 3)
	define("wbs", CORE_OLDEST, CORE_NEWEST, encodeBitBranch(QB_BC, true), 1, 2)
	define("wbc", CORE_OLDEST, CORE_NEWEST, encodeBitBranch(QB_BS, true), 1, 2)

	define("sbbo", CORE_OLDEST, CORE_NEWEST, encodeBurst(false, false), 4)
	define("lbbo", CORE_OLDEST, CORE_NEWEST, encodeBurst(false, true), 4)
	define("sbco", CORE_OLDEST, CORE_NEWEST, encodeBurst(true, false), 4)
	define("lbco", CORE_OLDEST, CORE_NEWEST, encodeBurst(true, true), 4)
}

// Lookup finds an instruction by mnemonic, ignoring case.
func Lookup(mnemonic string) (inst *Instruction, ok bool) {
	inst, ok = instructions[strings.ToLower(mnemonic)]
	return
}

// IsMnemonic is true when name is an instruction on any core revision.
func IsMnemonic(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// Mnemonics returns all known mnemonics in sorted order.
func Mnemonics() []string {
	return slices.Sorted(maps.Keys(instructions))
}

// MakeAlu builds a format 1 instruction word.
func MakeAlu(aluop AluOp, rd, rs1, op2 uint32, io bool) uint32 {
	word := uint32(aluop)<<25 | (op2&0xff)<<16 | (rs1&0xff)<<8 | (rd & 0xff)
	if io {
		word |= 1 << 24
	}
	return word
}

// MakeFormat2 builds a format 2 instruction word from its sub-operation
// and the low 25 bits.
func MakeFormat2(subop uint32, low uint32) uint32 {
	return 0b001<<29 | (subop&0xf)<<25 | (low & 0x1ffffff)
}

// MakeQuick builds a quick branch word. Bit branches set bit.
func MakeQuick(test uint32, bit bool, offset int64, rs1, op2 uint32, io bool) uint32 {
	bro := uint32(offset) & 0x3ff
	word := (bro>>8)<<25 | (op2&0xff)<<16 | (rs1&0xff)<<8 | (bro & 0xff)
	if bit {
		word |= 0b110<<29 | (test&0x3)<<27
	} else {
		word |= 0b01<<30 | (test&0x7)<<27
	}
	if io {
		word |= 1 << 24
	}
	return word
}

// MakeBurst builds a burst transfer word.
func MakeBurst(constant, load bool, length uint32, base, ro uint32, io bool, rdOffset, rd uint32) uint32 {
	word := uint32(0b111) << 29
	if constant {
		word = 0b100 << 29
	}
	if load {
		word |= 1 << 28
	}
	word |= ((length >> 4) & 0x7) << 25
	if io {
		word |= 1 << 24
	}
	word |= (ro & 0xff) << 16
	word |= ((length >> 1) & 0x7) << 13
	word |= (base & 0x1f) << 8
	word |= (length & 1) << 7
	word |= (rdOffset & 0x3) << 5
	word |= rd & 0x1f
	return word
}

func encodeAlu(aluop AluOp) func(op *operands) ([]uint32, error) {
	limit := int64(0xff)
	if aluop == ALU_LSL || aluop == ALU_LSR {
		limit = 31
	}
	return func(op *operands) (codes []uint32, err error) {
		rd, err := op.register(0)
		if err != nil {
			return
		}
		rs1, err := op.register(1)
		if err != nil {
			return
		}
		op2, io, err := op.regOrImm(2, limit)
		if err != nil {
			return
		}
		be := op.enc.BigEndian
		codes = []uint32{MakeAlu(aluop, rd.Encode(be), rs1.Encode(be), op2, io)}
		return
	}
}

func encodeNot(op *operands) (codes []uint32, err error) {
	rd, err := op.register(0)
	if err != nil {
		return
	}
	rs1, err := op.register(1)
	if err != nil {
		return
	}
	be := op.enc.BigEndian
	codes = []uint32{MakeAlu(ALU_NOT, rd.Encode(be), rs1.Encode(be), 0, false)}
	return
}

func encodeNop(op *operands) (codes []uint32, err error) {
	r0 := R(0).Encode(false)
	codes = []uint32{MakeAlu(ALU_ADD, r0, r0, r0, false)}
	return
}

// encodeBit handles CLR and SET:
//
//	CLR Rd, Rs1, OP(31)
//	CLR Rd, Rs1.tN
//	CLR Rd, OP(31)      ; Rs1 is Rd
//	CLR Rd.tN           ; Rs1 is Rd
func encodeBit(aluop AluOp) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		be := op.enc.BigEndian
		var rd, rs1 Register
		var op2 uint32
		var io bool

		switch len(op.args) {
		case 1:
			rd, err = op.bitRegister(0)
			if err != nil {
				return
			}
			if !rd.HasBit() {
				err = op.fail(0, ErrBitMissing)
				return
			}
			op2, io = uint32(rd.Bit), true
			rd = rd.WithoutBit()
			rs1 = rd
		case 2:
			rd, err = op.register(0)
			if err != nil {
				return
			}
			text := strings.TrimSpace(op.args[1])
			if LooksLikeRegister(text) {
				var reg Register
				reg, err = op.bitRegister(1)
				if err != nil {
					return
				}
				if reg.HasBit() {
					rs1 = reg.WithoutBit()
					op2, io = uint32(reg.Bit), true
					break
				}
			}
			rs1 = rd
			op2, io, err = op.regOrImm(1, 31)
			if err != nil {
				return
			}
		case 3:
			rd, err = op.register(0)
			if err != nil {
				return
			}
			rs1, err = op.register(1)
			if err != nil {
				return
			}
			op2, io, err = op.regOrImm(2, 31)
			if err != nil {
				return
			}
		}

		codes = []uint32{MakeAlu(aluop, rd.Encode(be), rs1.Encode(be), op2, io)}
		return
	}
}

// ldi encodes LDI into a physical field selector.
func ldi(rd uint32, value uint32) uint32 {
	return MakeFormat2(SUB_LDI, (value&0xffff)<<8|(rd&0xff))
}

func encodeLdi(op *operands) (codes []uint32, err error) {
	rd, err := op.register(0)
	if err != nil {
		return
	}
	limit := int64(0xffff)
	if rd.Width() == 1 {
		limit = 0xff
	}
	value, err := op.immediate(1, f("immediate"), 0, limit)
	if err != nil {
		return
	}
	codes = []uint32{ldi(rd.Encode(op.enc.BigEndian), value)}
	return
}

// encodeMov picks AND for register moves, LDI for 16-bit immediates,
// and a pair of LDIs for 32-bit immediates.
func encodeMov(op *operands) (codes []uint32, err error) {
	be := op.enc.BigEndian
	rd, err := op.register(0)
	if err != nil {
		return
	}

	if LooksLikeRegister(strings.TrimSpace(op.args[1])) {
		var rs Register
		rs, err = op.register(1)
		if err != nil {
			return
		}
		codes = []uint32{MakeAlu(ALU_AND, rd.Encode(be), rs.Encode(be), rs.Encode(be), false)}
		return
	}

	limit := int64(0xffffffff)
	switch rd.Width() {
	case 1:
		limit = 0xff
	case 2:
		limit = 0xffff
	}
	value, err := op.immediate(1, f("immediate"), 0, limit)
	if err != nil {
		return
	}

	if value <= 0xffff {
		codes = []uint32{ldi(rd.Encode(be), value)}
		return
	}

	lo := uint32(FIELD_W0)<<5 | uint32(rd.Index)
	hi := uint32(FIELD_W2)<<5 | uint32(rd.Index)
	codes = []uint32{ldi(lo, value&0xffff), ldi(hi, value>>16)}
	return
}

// target parses a jump target: a register or a 16-bit address.
func (op *operands) target(n int) (low uint32, err error) {
	text := strings.TrimSpace(op.args[n])
	if LooksLikeRegister(text) {
		var reg Register
		reg, err = op.register(n)
		if err != nil {
			return
		}
		low = reg.Encode(op.enc.BigEndian) << 16
		return
	}
	value, err := op.immediate(n, f("jump address"), 0, 0xffff)
	if err != nil {
		return
	}
	low = 1<<24 | value<<8
	return
}

func encodeJmp(op *operands) (codes []uint32, err error) {
	low, err := op.target(0)
	if err != nil {
		return
	}
	codes = []uint32{MakeFormat2(SUB_JMP, low)}
	return
}

func encodeJal(op *operands) (codes []uint32, err error) {
	rd, err := op.register(0)
	if err != nil {
		return
	}
	low, err := op.target(1)
	if err != nil {
		return
	}
	codes = []uint32{MakeFormat2(SUB_JAL, low|rd.Encode(op.enc.BigEndian))}
	return
}

func encodeCall(op *operands) (codes []uint32, err error) {
	low, err := op.target(0)
	if err != nil {
		return
	}
	codes = []uint32{MakeFormat2(SUB_JAL, low|op.enc.CallReg.Encode(op.enc.BigEndian))}
	return
}

func encodeRet(op *operands) (codes []uint32, err error) {
	codes = []uint32{MakeFormat2(SUB_JMP, op.enc.CallReg.Encode(op.enc.BigEndian)<<16)}
	return
}

func encodeLmbd(op *operands) (codes []uint32, err error) {
	rd, err := op.register(0)
	if err != nil {
		return
	}
	rs1, err := op.register(1)
	if err != nil {
		return
	}
	op2, io, err := op.regOrImm(2, 0xff)
	if err != nil {
		return
	}
	be := op.enc.BigEndian
	low := op2<<16 | rs1.Encode(be)<<8 | rd.Encode(be)
	if io {
		low |= 1 << 24
	}
	codes = []uint32{MakeFormat2(SUB_LMBD, low)}
	return
}

func encodeScan(op *operands) (codes []uint32, err error) {
	rd, err := op.register(0)
	if err != nil {
		return
	}
	op2, io, err := op.regOrImm(1, 0xff)
	if err != nil {
		return
	}
	low := op2<<16 | rd.Encode(op.enc.BigEndian)
	if io {
		low |= 1 << 24
	}
	codes = []uint32{MakeFormat2(SUB_SCAN, low)}
	return
}

func encodeHalt(op *operands) (codes []uint32, err error) {
	codes = []uint32{MakeFormat2(SUB_HALT, 0)}
	return
}

func encodeSlp(op *operands) (codes []uint32, err error) {
	value, err := op.immediate(0, f("sleep mode"), 0, 1)
	if err != nil {
		return
	}
	codes = []uint32{MakeFormat2(SUB_SLP, value<<23)}
	return
}

func encodeCoproc(subop uint32) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		rd, err := op.register(0)
		if err != nil {
			return
		}
		value, err := op.immediate(1, f("coprocessor register"), 0, 0xff)
		if err != nil {
			return
		}
		codes = []uint32{MakeFormat2(subop, value<<16|rd.Encode(op.enc.BigEndian))}
		return
	}
}

// encodeMvi handles MVIB, MVIW and MVID: dst, src.
func encodeMvi(size uint32) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		be := op.enc.BigEndian
		dst, err := ParsePointer(op.args[0])
		if err != nil {
			err = op.fail(0, err)
			return
		}
		src, err := ParsePointer(op.args[1])
		if err != nil {
			err = op.fail(1, err)
			return
		}
		low := size<<23 | uint32(src.Mode)<<20 | uint32(dst.Mode)<<17 |
			src.Encode(be)<<8 | dst.Encode(be)
		codes = []uint32{MakeFormat2(SUB_MVI, low)}
		return
	}
}

func makeXfr(xop, device, length uint32, reg Register, bigEndian bool) uint32 {
	low := xop<<23 | device<<15 | (length&0x7f)<<8 |
		uint32(reg.ByteOffset(bigEndian))<<5 | uint32(reg.Index)
	return MakeFormat2(SUB_XFR, low)
}

// encodeXfr handles XIN, XOUT and XCHG: device, &Rn, length.
func encodeXfr(xop uint32) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		be := op.enc.BigEndian
		device, err := op.immediate(0, f("device id"), 0, XFR_DEVICE_MAX)
		if err != nil {
			return
		}
		reg, err := op.addressRegister(1)
		if err != nil {
			return
		}
		length, err := op.immediate(2, f("transfer length"), 1, 124)
		if err != nil {
			return
		}
		err = op.fits(2, reg.Address(be), int(length))
		if err != nil {
			return
		}
		codes = []uint32{makeXfr(xop, device, length-1, reg, be)}
		return
	}
}

// encodeFill handles ZERO and FILL: &Rn or a register file address, length.
func encodeFill(device uint32) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		be := op.enc.BigEndian
		var address uint32
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(op.args[0]), "&"))
		if LooksLikeRegister(text) {
			var reg Register
			reg, err = op.addressRegister(0)
			if err != nil {
				return
			}
			address = reg.Address(be)
		} else {
			address, err = op.immediate(0, f("register address"), 0, REGISTER_FILE_SIZE-1)
			if err != nil {
				return
			}
		}
		length, err := op.immediate(1, f("transfer length"), 1, 124)
		if err != nil {
			return
		}
		err = op.fits(1, address, int(length))
		if err != nil {
			return
		}
		reg := R(int(address / 4))
		low := XFR_IN<<23 | device<<15 | ((length-1)&0x7f)<<8 | (address%4)<<5 | uint32(reg.Index)
		codes = []uint32{MakeFormat2(SUB_XFR, low)}
		return
	}
}

// encodeLoop handles LOOP and ILOOP: end label, count.
func encodeLoop(interruptible bool) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		offset, err := op.relative(0, LOOP_MIN, LOOP_MAX)
		if err != nil {
			return
		}
		count, io, err := op.regOrImm(1, 0xff)
		if err != nil {
			return
		}
		low := count<<16 | uint32(offset)&0xff
		if io {
			low |= 1 << 24
		}
		if interruptible {
			low |= 1 << 15
		}
		codes = []uint32{MakeFormat2(SUB_LOOP, low)}
		return
	}
}

// encodeQuick handles QBGT and friends: label, Rs1, OP(255).
func encodeQuick(test uint32) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		offset, err := op.relative(0, BRANCH_MIN, BRANCH_MAX)
		if err != nil {
			return
		}
		rs1, err := op.register(1)
		if err != nil {
			return
		}
		op2, io, err := op.regOrImm(2, 0xff)
		if err != nil {
			return
		}
		codes = []uint32{MakeQuick(test, false, offset, rs1.Encode(op.enc.BigEndian), op2, io)}
		return
	}
}

func encodeQba(op *operands) (codes []uint32, err error) {
	offset, err := op.relative(0, BRANCH_MIN, BRANCH_MAX)
	if err != nil {
		return
	}
	codes = []uint32{MakeQuick(QB_A, false, offset, 0, 0, false)}
	return
}

// encodeBitBranch handles QBBC and QBBS (label first) and the WBS and WBC
// wait loops, which branch to themselves.
//
//	QBBC label, Rs1, OP(31)
//	QBBC label, Rs1.tN
//	WBS  Rs1, OP(31)
//	WBS  Rs1.tN
func encodeBitBranch(test uint32, wait bool) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		var offset int64
		first := 0
		if !wait {
			offset, err = op.relative(0, BRANCH_MIN, BRANCH_MAX)
			if err != nil {
				return
			}
			first = 1
		}

		var rs1 Register
		var op2 uint32
		var io bool
		if len(op.args)-first == 1 {
			rs1, err = op.bitRegister(first)
			if err != nil {
				return
			}
			if !rs1.HasBit() {
				err = op.fail(first, ErrBitMissing)
				return
			}
			op2, io = uint32(rs1.Bit), true
			rs1 = rs1.WithoutBit()
		} else {
			rs1, err = op.register(first)
			if err != nil {
				return
			}
			op2, io, err = op.regOrImm(first+1, 31)
			if err != nil {
				return
			}
		}

		codes = []uint32{MakeQuick(test, true, offset, rs1.Encode(op.enc.BigEndian), op2, io)}
		return
	}
}

// encodeBurst handles LBBO, SBBO, LBCO and SBCO: &Rd, Rb|Cn, OP(255), len.
func encodeBurst(constant, load bool) func(op *operands) ([]uint32, error) {
	return func(op *operands) (codes []uint32, err error) {
		be := op.enc.BigEndian
		rd, err := op.addressRegister(0)
		if err != nil {
			return
		}

		var base uint32
		if constant {
			base, err = op.constant(1)
			if err != nil {
				return
			}
		} else {
			var rb Register
			rb, err = op.register(1)
			if err != nil {
				return
			}
			if !rb.Full() {
				err = op.fail(1, ErrRegisterFull)
				return
			}
			base = uint32(rb.Index)
		}

		ro, io, err := op.regOrImm(2, 0xff)
		if err != nil {
			return
		}

		length, count, err := op.length(3)
		if err != nil {
			return
		}
		if count > 0 {
			err = op.fits(3, rd.Address(be), count)
			if err != nil {
				return
			}
		}

		codes = []uint32{MakeBurst(constant, load, length, base, ro, io,
			uint32(rd.ByteOffset(be)), uint32(rd.Index))}
		return
	}
}
