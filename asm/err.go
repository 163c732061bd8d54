package asm

import (
	"errors"
	"fmt"

	"github.com/ezrec/pasm/translate"
)

var f = translate.From

var (
	// Fatal conditions. Anything wrapping ErrFatal stops the current file.
	ErrFatal        = errors.New(f("fatal"))
	ErrIncludeDepth = errors.New(f("too many nested source files"))
	ErrCodeFull     = errors.New(f("code image full"))

	// Preprocessor errors
	ErrIncludeSyntax   = errors.New(f("#include syntax"))
	ErrDefineSyntax    = errors.New(f("#define syntax"))
	ErrUndefSyntax     = errors.New(f("#undef syntax"))
	ErrCondSyntax      = errors.New(f("#ifdef syntax"))
	ErrCondDepth       = errors.New(f("#ifdef nested too deeply"))
	ErrElseRepeat      = errors.New(f("#else used twice"))
	ErrElseLonely      = errors.New(f("#else without #ifdef"))
	ErrEndifLonely     = errors.New(f("#endif without #ifdef"))
	ErrCondUnbalanced  = errors.New(f("unbalanced #ifdef at end of file"))
	ErrEquateLoop      = errors.New(f("equate expansion too deep"))
	ErrDirectiveSyntax = errors.New(f("unknown preprocessor directive"))
	ErrStarlarkResult  = errors.New(f("expression does not produce an integer"))
	ErrStarlarkRange   = errors.New(f("expression result out of range"))

	// Line parser errors
	ErrLeadingChar  = errors.New(f("illegal leading character"))
	ErrIdentLength  = errors.New(f("identifier too long"))
	ErrTermLength   = errors.New(f("operand too long"))
	ErrQuote        = errors.New(f("unbalanced quotes"))
	ErrCommandChars = errors.New(f("illegal character in command"))

	// Symbol errors
	ErrLabelDuplicate = errors.New(f("label duplicated"))
	ErrLabelMoved     = errors.New(f("label address changed between passes"))
	ErrLabelMacro     = errors.New(f("label not allowed on .macro"))

	// Struct and scope errors
	ErrStructNesting  = errors.New(f(".struct in .struct prohibited"))
	ErrStructLonely   = errors.New(f(".ends without .struct"))
	ErrStructOpen     = errors.New(f(".struct without .ends"))
	ErrStructEmpty    = errors.New(f(".struct has no fields"))
	ErrStructOnly     = errors.New(f("only field declarations are allowed in .struct"))
	ErrFieldOutside   = errors.New(f("field declaration outside of .struct"))
	ErrFieldDuplicate = errors.New(f("field duplicated"))
	ErrAssignSyntax   = errors.New(f(".assign syntax"))
	ErrAssignRange    = errors.New(f(".assign exceeds the register file"))
	ErrScopeClosed    = errors.New(f("scope is not open"))
	ErrScopeOpen      = errors.New(f("scope is already open"))
	ErrScopeRoot      = errors.New(f("the root scope cannot be left"))
	ErrAliasDuplicate = errors.New(f("alias duplicated in scope"))

	// Macro errors
	ErrMacroSyntax       = errors.New(f(".macro syntax"))
	ErrMacroNesting      = errors.New(f(".macro in .macro prohibited"))
	ErrMacroLonely       = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm   = errors.New(f(".endm without .macro"))
	ErrMacroParamOutside = errors.New(f(".mparam without .macro"))
	ErrMacroParamDefault = errors.New(f("parameter without default follows a defaulted parameter"))
	ErrMacroParamSyntax  = errors.New(f(".mparam syntax"))
	ErrMacroArgsFew      = errors.New(f("too few macro arguments"))
	ErrMacroArgsMany     = errors.New(f("too many macro arguments"))
	ErrMacroRecursion    = errors.New(f("macro invoked recursively"))
	ErrMacroDepth        = errors.New(f("macro expansion nested too deeply"))

	// Directive and driver errors
	ErrDirectiveArgs  = errors.New(f("wrong number of directive arguments"))
	ErrOriginBackward = errors.New(f(".origin moves the code cursor backward"))
	ErrCallReg        = errors.New(f(".setcallreg requires a 16-bit register field"))
	ErrPassMismatch   = errors.New(f("code length changed between passes"))
	ErrEmpty          = errors.New(f("no code generated"))
)

// ErrAssembly summarises a failed run.
type ErrAssembly struct {
	Pass   int
	Errors int
	Err    error // First error reported in the pass.
}

func (err *ErrAssembly) Error() string {
	return f("assembly failed in pass %v with %v error(s)", err.Pass, err.Errors)
}

func (err *ErrAssembly) Unwrap() error {
	return err.Err
}

// ErrNameCollision reports a name already used by another kind of symbol.
type ErrNameCollision struct {
	Name string
	Kind string
}

func (err *ErrNameCollision) Error() string {
	return f("'%v' is already defined as a %v", err.Name, err.Kind)
}

// ErrRedefined warns that an equate changed value.
type ErrRedefined struct {
	Name string
}

func (err *ErrRedefined) Error() string {
	return f("'%v' redefined", err.Name)
}

// ErrDefineName reports an equate name that is not an identifier.
type ErrDefineName struct {
	Name string
}

func (err *ErrDefineName) Error() string {
	return f("'%v' is not a valid equate name", err.Name)
}

// ErrUnknown reports a name of a given kind that was not found.
type ErrUnknown struct {
	Kind string
	Name string
}

func (err *ErrUnknown) Error() string {
	return f("unknown %v '%v'", err.Kind, err.Name)
}

// ErrFieldAlign reports a struct field that would straddle registers.
type ErrFieldAlign struct {
	Field string
}

func (err *ErrFieldAlign) Error() string {
	return f("field '%v' does not fit in a single register", err.Field)
}

// ErrAssignEnd reports an .assign whose end register does not match the
// struct size.
type ErrAssignEnd struct {
	Expected string
}

func (err *ErrAssignEnd) Error() string {
	return f(".assign range mismatch, expected end register %v", err.Expected)
}

// ErrOpen reports a source file that could not be opened.
type ErrOpen struct {
	Name string
	Err  error
}

func (err *ErrOpen) Error() string {
	return f("unable to open '%v': %v", err.Name, err.Err.Error())
}

func (err *ErrOpen) Unwrap() []error {
	return []error{ErrFatal, err.Err}
}

// ErrDirective reports #error, #warn and #note texts.
type ErrDirective string

func (err ErrDirective) Error() string {
	return string(err)
}

// ErrParseExpression reports a failed $( ... ) evaluation.
type ErrParseExpression struct {
	Expr string
	Err  error
}

func (err *ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression: %v", err.Expr, err.Err.Error())
}

func (err *ErrParseExpression) Unwrap() error {
	return err.Err
}

// ErrSyntax attaches a source location to an error.
type ErrSyntax struct {
	File   string
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return fmt.Sprintf("%v(%d) ", err.File, err.LineNo) + f("'%v' %v", err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrMacro attaches a macro name and body line to an error.
type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err *ErrMacro) Error() string {
	return f("macro %v", err.Macro) + fmt.Sprintf("(%d) ", err.Line) + err.Err.Error()
}

func (err *ErrMacro) Unwrap() error {
	return err.Err
}

// errFatal marks an error as fatal without changing its text.
type errFatal struct {
	err error
}

func (err *errFatal) Error() string {
	return err.err.Error()
}

func (err *errFatal) Unwrap() []error {
	return []error{ErrFatal, err.err}
}

// fatal wraps err so errors.Is(err, ErrFatal) holds.
func fatal(err error) error {
	if errors.Is(err, ErrFatal) {
		return err
	}
	return &errFatal{err: err}
}
