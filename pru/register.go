package pru

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	REGISTER_COUNT     = 32
	REGISTER_FILE_SIZE = REGISTER_COUNT * 4 // Bytes in the register file.
)

// Field selects part of a register. Byte and word indexes count in memory
// byte order: .b0 is the first byte of the register in memory.
type Field int

//go:generate go tool stringer -linecomment -type=Field

const (
	FIELD_B0 = Field(0) // .b0
	FIELD_B1 = Field(1) // .b1
	FIELD_B2 = Field(2) // .b2
	FIELD_B3 = Field(3) // .b3
	FIELD_W0 = Field(4) // .w0
	FIELD_W1 = Field(5) // .w1
	FIELD_W2 = Field(6) // .w2
	FIELD_R  = Field(7) //
)

// Width of the field in bytes.
func (fl Field) Width() int {
	switch {
	case fl <= FIELD_B3:
		return 1
	case fl <= FIELD_W2:
		return 2
	}
	return 4
}

// Offset of the field in memory byte order.
func (fl Field) Offset() int {
	switch {
	case fl <= FIELD_B3:
		return int(fl - FIELD_B0)
	case fl <= FIELD_W2:
		return int(fl - FIELD_W0)
	}
	return 0
}

// Physical returns the hardware byte offset of the field's least
// significant byte.
func (fl Field) Physical(bigEndian bool) int {
	if !bigEndian {
		return fl.Offset()
	}
	return 4 - fl.Width() - fl.Offset()
}

// Select returns the 3-bit hardware field selector.
func (fl Field) Select(bigEndian bool) uint32 {
	switch fl.Width() {
	case 1:
		return uint32(FIELD_B0) + uint32(fl.Physical(bigEndian))
	case 2:
		return uint32(FIELD_W0) + uint32(fl.Physical(bigEndian))
	}
	return uint32(FIELD_R)
}

// FieldAt returns the field of the given width at a memory byte offset.
func FieldAt(offset, width int) (fl Field, ok bool) {
	switch {
	case width == 4 && offset == 0:
		return FIELD_R, true
	case width == 2 && offset >= 0 && offset <= 2:
		return FIELD_W0 + Field(offset), true
	case width == 1 && offset >= 0 && offset <= 3:
		return FIELD_B0 + Field(offset), true
	}
	return
}

// Register is a register operand, optionally narrowed to a field or a bit.
type Register struct {
	Index int   // Register number, 0 to 31.
	Field Field // Field selector.
	Bit   int   // Bit within the field, -1 when not selected.
}

// R returns the full 32-bit register n.
func R(n int) Register {
	return Register{Index: n, Field: FIELD_R, Bit: -1}
}

func (reg Register) String() string {
	text := fmt.Sprintf("r%d%v", reg.Index, reg.Field)
	if reg.Bit >= 0 {
		text += ".t" + strconv.Itoa(reg.Bit)
	}
	return text
}

// HasBit is true when a .t bit selector was given.
func (reg Register) HasBit() bool {
	return reg.Bit >= 0
}

// Full is true for an unnarrowed 32-bit register.
func (reg Register) Full() bool {
	return reg.Field == FIELD_R
}

// Width of the register operand in bytes.
func (reg Register) Width() int {
	return reg.Field.Width()
}

// Encode returns the 8-bit selector and register number encoding.
func (reg Register) Encode(bigEndian bool) uint32 {
	return reg.Field.Select(bigEndian)<<5 | uint32(reg.Index)
}

// ByteOffset is the physical byte offset inside the register.
func (reg Register) ByteOffset(bigEndian bool) int {
	return reg.Field.Physical(bigEndian)
}

// Address is the register file byte address of the operand.
func (reg Register) Address(bigEndian bool) uint32 {
	return uint32(reg.Index*4 + reg.ByteOffset(bigEndian))
}

// Memory is the register file byte address in memory byte order.
func (reg Register) Memory() int {
	return reg.Index*4 + reg.Field.Offset()
}

// WithoutBit returns the register with the bit selector removed.
func (reg Register) WithoutBit() Register {
	reg.Bit = -1
	return reg
}

// LooksLikeRegister is true for text shaped like a register name, such as
// "r12" or "R3.w1". Such text is never treated as a symbol.
func LooksLikeRegister(text string) bool {
	if len(text) < 2 || (text[0] != 'r' && text[0] != 'R') {
		return false
	}
	n := 1
	for n < len(text) && text[n] >= '0' && text[n] <= '9' {
		n++
	}
	return n > 1 && (n == len(text) || text[n] == '.')
}

// ParseRegister parses R<0..31>[.W<0..2>|.B<0..3>][.T<bit>], ignoring case.
func ParseRegister(text string) (reg Register, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(text)), ".")
	if len(parts[0]) < 2 || parts[0][0] != 'r' {
		err = ErrRegisterInvalid
		return
	}

	index, perr := strconv.Atoi(parts[0][1:])
	if perr != nil || index < 0 || index >= REGISTER_COUNT || strings.HasPrefix(parts[0][1:], "+") {
		err = ErrRegisterInvalid
		return
	}

	reg = R(index)
	seenField := false
	for _, part := range parts[1:] {
		if len(part) < 2 || reg.HasBit() {
			err = ErrRegisterInvalid
			return
		}
		num, perr := strconv.Atoi(part[1:])
		if perr != nil || num < 0 {
			err = ErrRegisterInvalid
			return
		}
		switch part[0] {
		case 'b':
			if seenField || num > 3 {
				err = ErrRegisterInvalid
				return
			}
			reg.Field = FIELD_B0 + Field(num)
			seenField = true
		case 'w':
			if seenField || num > 2 {
				err = ErrRegisterInvalid
				return
			}
			reg.Field = FIELD_W0 + Field(num)
			seenField = true
		case 't':
			if num >= reg.Width()*8 {
				err = ErrRegisterInvalid
				return
			}
			reg.Bit = num
		default:
			err = ErrRegisterInvalid
			return
		}
	}

	return
}

// PointerMode is the addressing mode of an MVI operand.
type PointerMode int

const (
	POINTER_NONE     = PointerMode(0) // Rn
	POINTER_INDIRECT = PointerMode(1) // *Rn
	POINTER_PREDEC   = PointerMode(2) // *--Rn
	POINTER_POSTINC  = PointerMode(3) // *Rn++
)

// Pointer is a register operand with an MVI addressing mode.
type Pointer struct {
	Register
	Mode PointerMode
}

// ParsePointer parses [*][--]Rn[.sel][++]. A leading '&' names the
// register itself and is accepted on direct operands.
func ParsePointer(text string) (ptr Pointer, err error) {
	text = strings.TrimSpace(text)
	indirect := false
	switch {
	case strings.HasPrefix(text, "*"):
		indirect = true
		text = strings.TrimSpace(text[1:])
	case strings.HasPrefix(text, "&"):
		text = strings.TrimSpace(text[1:])
	}

	predec := strings.HasPrefix(text, "--")
	postinc := strings.HasSuffix(text, "++")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "--"), "++")

	switch {
	case predec && postinc:
		err = ErrPointerMode
		return
	case (predec || postinc) && !indirect:
		err = ErrPointerMode
		return
	case predec:
		ptr.Mode = POINTER_PREDEC
	case postinc:
		ptr.Mode = POINTER_POSTINC
	case indirect:
		ptr.Mode = POINTER_INDIRECT
	}

	ptr.Register, err = ParseRegister(text)
	if err != nil {
		return
	}

	if ptr.HasBit() {
		err = ErrBitSelect
		return
	}

	if ptr.Mode != POINTER_NONE && (ptr.Index != 1 || ptr.Width() != 1) {
		err = ErrPointerInvalid
		return
	}

	return
}
