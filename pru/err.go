package pru

import (
	"errors"

	"github.com/ezrec/pasm/translate"
)

var f = translate.From

var (
	ErrMnemonicUnknown = errors.New(f("unknown instruction"))
	ErrOperandCount    = errors.New(f("wrong number of operands"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrRegisterWanted  = errors.New(f("register operand required"))
	ErrRegisterFull    = errors.New(f("full 32-bit register required"))
	ErrImmediateOnly   = errors.New(f("immediate operand required"))
	ErrBitSelect       = errors.New(f("bit select not allowed here"))
	ErrBitMissing      = errors.New(f("bit select required"))
	ErrPointerInvalid  = errors.New(f("pointer register must be R1.b0 to R1.b3"))
	ErrPointerMode     = errors.New(f("pointer mode not allowed here"))
	ErrConstInvalid    = errors.New(f("constant table index invalid"))
	ErrRegisterFile    = errors.New(f("transfer exceeds the register file"))
)

// ErrCoreUnknown reports an unrecognised core revision name.
type ErrCoreUnknown string

func (err ErrCoreUnknown) Error() string {
	return f("unknown core revision '%v'", string(err))
}

// ErrCore reports an instruction that is not available on the selected
// core revision.
type ErrCore struct {
	Mnemonic string
	Core     Core
}

func (err *ErrCore) Error() string {
	return f("%v illegal for this core revision (%v)", err.Mnemonic, err.Core.String())
}

// ErrRange reports a numeric operand outside of its encodable range.
type ErrRange struct {
	What  string
	Value int64
	Min   int64
	Max   int64
}

func (err *ErrRange) Error() string {
	return f("%v %v out of range (%v to %v)", err.What, err.Value, err.Min, err.Max)
}

// ErrOperand wraps an operand failure with its position.
type ErrOperand struct {
	Index int
	Text  string
	Err   error
}

func (err *ErrOperand) Error() string {
	return f("operand %v '%v': %v", err.Index+1, err.Text, err.Err.Error())
}

func (err *ErrOperand) Unwrap() error {
	return err.Err
}
