// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package expr evaluates the integer expressions used in PRU assembler
// operands and directives.
//
// Expressions are reduced by repeatedly applying the highest precedence
// operator found in a flat list of terms. Operators of equal precedence are
// applied left to right. Arithmetic is 32-bit unsigned with wrap-around.
package expr

import (
	"errors"
	"strings"

	"github.com/ezrec/pasm/translate"
)

var f = translate.From

const (
	// MaxTerms is the largest number of terms in a single (sub)expression.
	MaxTerms = 32
	// MaxDepth is the deepest parenthesis nesting accepted.
	MaxDepth = 16
)

var (
	ErrEmpty        = errors.New(f("expression missing"))
	ErrTooComplex   = errors.New(f("expression too complex"))
	ErrTooDeep      = errors.New(f("expression nested too deeply"))
	ErrParenthesis  = errors.New(f("unbalanced parenthesis"))
	ErrDivideByZero = errors.New(f("divide by zero"))
	ErrOperand      = errors.New(f("operand expected"))
	ErrCharacter    = errors.New(f("bad character constant"))
)

// ErrNumber reports a malformed numeric literal.
type ErrNumber string

func (err ErrNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrUndefined reports an identifier that did not resolve in a strict pass.
type ErrUndefined string

func (err ErrUndefined) Error() string {
	return f("undefined symbol '%v'", string(err))
}

// Env resolves names for the evaluator.
type Env interface {
	// Symbol returns the value of a label or other named constant.
	Symbol(name string) (value uint32, ok bool)
	// RegisterAddress returns the register file byte address of an
	// '&Rn[.sel]' token, without the leading '&'.
	RegisterAddress(token string) (value uint32, ok bool)
	// Strict is true when unresolved names and division by zero are errors.
	Strict() bool
}

// Op is a binary operator.
type Op int

//go:generate go tool stringer -linecomment -type=Op

const (
	OP_NONE = Op(0)  // ?
	OP_MUL  = Op(1)  // *
	OP_DIV  = Op(2)  // /
	OP_MOD  = Op(3)  // %
	OP_ADD  = Op(4)  // +
	OP_SUB  = Op(5)  // -
	OP_SHL  = Op(6)  // <<
	OP_SHR  = Op(7)  // >>
	OP_AND  = Op(8)  // &
	OP_XOR  = Op(9)  // ^
	OP_OR   = Op(10) // |
)

// Precedence of the operator, lower numbers bind tighter.
func (op Op) Precedence() int {
	switch op {
	case OP_MUL, OP_DIV, OP_MOD:
		return 1
	case OP_ADD, OP_SUB:
		return 2
	case OP_SHL, OP_SHR:
		return 3
	case OP_AND:
		return 4
	case OP_XOR:
		return 5
	case OP_OR:
		return 6
	}
	return 99
}

// Evaluate parses text as an expression and returns its value and the
// number of characters consumed. Evaluation stops at the first character
// that cannot continue the expression, such as a comma.
func Evaluate(text string, env Env) (value uint32, used int, err error) {
	ev := &evaluator{text: text, env: env}
	value, err = ev.expression(0)
	if err != nil {
		return
	}
	used = ev.pos
	return
}

// Value evaluates text, requiring the whole string to be consumed.
func Value(text string, env Env) (value uint32, err error) {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		err = ErrEmpty
		return
	}
	value, used, err := Evaluate(text, env)
	if err != nil {
		return
	}
	if strings.TrimSpace(text[used:]) != "" {
		err = ErrNumber(text)
		return
	}
	return
}

type evaluator struct {
	text string
	pos  int
	env  Env
}

func (ev *evaluator) skipSpace() {
	for ev.pos < len(ev.text) && (ev.text[ev.pos] == ' ' || ev.text[ev.pos] == '\t') {
		ev.pos++
	}
}

func (ev *evaluator) strict() bool {
	return ev.env != nil && ev.env.Strict()
}

// operator reads a binary operator at the current position.
func (ev *evaluator) operator() (op Op, size int) {
	rest := ev.text[ev.pos:]
	if len(rest) == 0 {
		return
	}
	switch rest[0] {
	case '*':
		return OP_MUL, 1
	case '/':
		return OP_DIV, 1
	case '%':
		return OP_MOD, 1
	case '+':
		return OP_ADD, 1
	case '-':
		return OP_SUB, 1
	case '&':
		return OP_AND, 1
	case '^':
		return OP_XOR, 1
	case '|':
		return OP_OR, 1
	case '<':
		if strings.HasPrefix(rest, "<<") {
			return OP_SHL, 2
		}
	case '>':
		if strings.HasPrefix(rest, ">>") {
			return OP_SHR, 2
		}
	}
	return
}

// expression collects a flat list of terms and operators, then reduces it.
func (ev *evaluator) expression(depth int) (value uint32, err error) {
	if depth > MaxDepth {
		err = ErrTooDeep
		return
	}

	var terms []uint32
	var ops []Op

	for {
		var term uint32
		term, err = ev.term(depth)
		if err != nil {
			return
		}
		terms = append(terms, term)
		if len(terms) > MaxTerms {
			err = ErrTooComplex
			return
		}

		mark := ev.pos
		ev.skipSpace()
		op, size := ev.operator()
		if op == OP_NONE {
			ev.pos = mark
			break
		}
		ev.pos += size
		ops = append(ops, op)
	}

	return ev.reduce(terms, ops)
}

// reduce applies the tightest binding operator, scanning left to right and
// only replacing the current choice with a strictly tighter one.
func (ev *evaluator) reduce(terms []uint32, ops []Op) (value uint32, err error) {
	for len(ops) > 0 {
		best := 0
		for n := 1; n < len(ops); n++ {
			if ops[n].Precedence() < ops[best].Precedence() {
				best = n
			}
		}

		var result uint32
		result, err = ev.apply(ops[best], terms[best], terms[best+1])
		if err != nil {
			return
		}

		terms[best] = result
		terms = append(terms[:best+1], terms[best+2:]...)
		ops = append(ops[:best], ops[best+1:]...)
	}

	value = terms[0]
	return
}

func (ev *evaluator) apply(op Op, a, b uint32) (value uint32, err error) {
	switch op {
	case OP_MUL:
		value = a * b
	case OP_DIV, OP_MOD:
		if b == 0 {
			if ev.strict() {
				err = ErrDivideByZero
			}
			return
		}
		if op == OP_DIV {
			value = a / b
		} else {
			value = a % b
		}
	case OP_ADD:
		value = a + b
	case OP_SUB:
		value = a - b
	case OP_SHL:
		if b < 32 {
			value = a << b
		}
	case OP_SHR:
		if b < 32 {
			value = a >> b
		}
	case OP_AND:
		value = a & b
	case OP_XOR:
		value = a ^ b
	case OP_OR:
		value = a | b
	}
	return
}

// term reads a unary expression: a literal, a name, a register address,
// or a parenthesised sub-expression, with any leading '-' or '~'.
func (ev *evaluator) term(depth int) (value uint32, err error) {
	ev.skipSpace()
	if ev.pos >= len(ev.text) {
		err = ErrOperand
		return
	}

	c := ev.text[ev.pos]
	switch {
	case c == '-':
		ev.pos++
		value, err = ev.term(depth + 1)
		value = -value
		return
	case c == '~':
		ev.pos++
		value, err = ev.term(depth + 1)
		value = ^value
		return
	case c == '+':
		ev.pos++
		return ev.term(depth + 1)
	case c == '(':
		ev.pos++
		value, err = ev.expression(depth + 1)
		if err != nil {
			return
		}
		ev.skipSpace()
		if ev.pos >= len(ev.text) || ev.text[ev.pos] != ')' {
			err = ErrParenthesis
			return
		}
		ev.pos++
		return
	case c == '&':
		ev.pos++
		token := ev.word()
		if len(token) == 0 {
			err = ErrOperand
			return
		}
		var ok bool
		if ev.env != nil {
			value, ok = ev.env.RegisterAddress(token)
		}
		if !ok {
			err = ErrOperand
		}
		return
	case c == '\'':
		return ev.character()
	case isDigit(c):
		return ev.number()
	case isIdentStart(c):
		name := ev.word()
		var ok bool
		if ev.env != nil {
			value, ok = ev.env.Symbol(name)
		}
		if !ok && ev.strict() {
			err = ErrUndefined(name)
		}
		return
	}

	if c == ')' {
		err = ErrParenthesis
		return
	}

	err = ErrOperand
	return
}

// word reads an identifier, allowing dotted register selectors.
func (ev *evaluator) word() string {
	start := ev.pos
	for ev.pos < len(ev.text) && isIdentChar(ev.text[ev.pos]) {
		ev.pos++
	}
	return ev.text[start:ev.pos]
}

func (ev *evaluator) number() (value uint32, err error) {
	start := ev.pos
	for ev.pos < len(ev.text) && isIdentChar(ev.text[ev.pos]) && ev.text[ev.pos] != '.' {
		ev.pos++
	}
	value, err = ParseNumber(ev.text[start:ev.pos])
	return
}

func (ev *evaluator) character() (value uint32, err error) {
	rest := ev.text[ev.pos:]
	switch {
	case len(rest) >= 4 && rest[1] == '\\' && rest[3] == '\'':
		switch rest[2] {
		case 'n':
			value = '\n'
		case 'r':
			value = '\r'
		case 't':
			value = '\t'
		case '0':
			value = 0
		case '\\', '\'':
			value = uint32(rest[2])
		default:
			err = ErrCharacter
			return
		}
		ev.pos += 4
	case len(rest) >= 3 && rest[2] == '\'' && rest[1] != '\\':
		value = uint32(rest[1])
		ev.pos += 3
	default:
		err = ErrCharacter
	}
	return
}

// ParseNumber parses a decimal, octal (leading 0), hexadecimal (0x) or
// binary (0b) literal into 32 bits.
func ParseNumber(word string) (value uint32, err error) {
	base := uint64(10)
	digits := word
	switch {
	case len(word) > 2 && (word[:2] == "0x" || word[:2] == "0X"):
		base = 16
		digits = word[2:]
	case len(word) > 2 && (word[:2] == "0b" || word[:2] == "0B"):
		base = 2
		digits = word[2:]
	case len(word) > 1 && word[0] == '0':
		base = 8
		digits = word[1:]
	}

	if len(digits) == 0 {
		err = ErrNumber(word)
		return
	}

	var acc uint64
	for _, c := range []byte(digits) {
		var digit uint64
		switch {
		case c >= '0' && c <= '9':
			digit = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			digit = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			digit = uint64(c-'A') + 10
		default:
			err = ErrNumber(word)
			return
		}
		if digit >= base {
			err = ErrNumber(word)
			return
		}
		acc = acc*base + digit
		if acc > 0xffffffff {
			err = ErrNumber(word)
			return
		}
	}

	value = uint32(acc)
	return
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}
