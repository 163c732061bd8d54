package asm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/pasm/pru"
)

// assemble runs main.p from an in-memory source tree.
func assemble(opts Options, files map[string]string) (prog *Program, diag string, err error) {
	fsys := fstest.MapFS{}
	for name, text := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(text)}
	}

	var buf bytes.Buffer
	opts.FS = fsys
	opts.Diag = &buf

	prog, err = NewAssembler(opts).Assemble("main.p")
	diag = buf.String()
	return
}

func v2() Options {
	return Options{Core: pru.CORE_V2}
}

func source(lines ...string) map[string]string {
	return map[string]string{"main.p": strings.Join(lines, "\n") + "\n"}
}

func words(prog *Program) (codes []uint32) {
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}
	return
}

func TestAssembler_Minimal(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source("    NOP"))
	assert.NoError(err, diag)
	assert.Equal(uint32(1), prog.Length)
	assert.Equal([]uint32{0x00e0e0e0}, words(prog))
	assert.Equal(pru.DEFAULT_ORIGIN, prog.Opcodes[0].Address)
	assert.Equal(pru.DEFAULT_ORIGIN, prog.EntryPoint)
	assert.Contains(diag, "Pass 1 : 0 error(s), 0 warning(s)")
	assert.Contains(diag, "Pass 2 : 0 error(s), 0 warning(s)")
}

func TestAssembler_Bootstrap(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(Options{Core: pru.CORE_V0}, source("    NOP"))
	assert.NoError(err, diag)
	assert.Equal(uint32(2), prog.Length)
	assert.Equal(pru.LEGACY_ORIGIN, prog.EntryPoint)

	boot := prog.Opcodes[0]
	assert.Equal(pru.BOOTSTRAP_ADDRESS, boot.Address)
	assert.False(boot.HasFile())
	assert.Equal([]uint32{0x21000100}, boot.Codes)
	assert.Equal(pru.LEGACY_ORIGIN, prog.Opcodes[1].Address)
	assert.Equal([]uint32{0x21000100, 0x00e0e0e0}, prog.Image())
}

func TestAssembler_ForwardReference(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source(
		".origin 0",
		".entrypoint start",
		"start:",
		"    QBA done",
		"    NOP",
		"done:",
		"    HALT",
	))
	assert.NoError(err, diag)
	assert.Equal([]uint32{0x78000002, 0x00e0e0e0, 0x2a000000}, words(prog))

	addr, ok := prog.Lookup("done")
	assert.True(ok)
	assert.Equal(uint32(2), addr)
	assert.Equal(uint32(0), prog.EntryPoint)
	assert.Equal([]Label{{"start", 0}, {"done", 2}}, prog.Labels)
}

func TestAssembler_Macro(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source(
		".macro DELAY",
		".mparam count=5",
		"    LDI r0, count",
		"wait:",
		"    SUB r0, r0, 1",
		"    QBNE wait, r0, 0",
		".endm",
		"    DELAY",
		"    DELAY 10",
	))
	assert.NoError(err, diag)

	first, ok := prog.Lookup("_DELAY_1_wait")
	assert.True(ok)
	assert.Equal(uint32(1), first)
	second, ok := prog.Lookup("_DELAY_2_wait")
	assert.True(ok)
	assert.Equal(uint32(4), second)

	assert.Equal([]uint32{
		0x240005e0, 0x0501e0e0, 0x6f00e0ff,
		0x24000ae0, 0x0501e0e0, 0x6f00e0ff,
	}, words(prog))

	// Macro code is attributed to the invoking line.
	assert.Equal(8, prog.Opcodes[0].LineNo)
	assert.Equal(9, prog.Opcodes[5].LineNo)
}

func TestAssembler_MacroErrors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		lines []string
		err   error
	}{
		{[]string{".macro LOOPY", "    LOOPY", ".endm", "    LOOPY"}, ErrMacroRecursion},
		{[]string{".macro M", ".mparam a, b=1", ".endm", "    M"}, ErrMacroArgsFew},
		{[]string{".macro M", ".mparam a, b=1", ".endm", "    M 1, 2, 3"}, ErrMacroArgsMany},
		{[]string{".macro M", ".mparam a=1, b", ".endm"}, ErrMacroParamDefault},
		{[]string{".macro M", ".macro N"}, ErrMacroNesting},
		{[]string{".macro M", "    NOP"}, ErrMacroLonely},
		{[]string{".endm"}, ErrMacroLonelyEndm},
		{[]string{".mparam a"}, ErrMacroParamOutside},
		{[]string{"here: .macro M", ".endm"}, ErrLabelMacro},
	}

	for _, entry := range table {
		_, diag, err := assemble(v2(), source(entry.lines...))
		var ea *ErrAssembly
		assert.True(errors.As(err, &ea), entry.lines)
		assert.Contains(diag, entry.err.Error(), entry.lines)
	}
}

func TestAssembler_MacroErrorLocation(t *testing.T) {
	assert := assert.New(t)

	_, diag, err := assemble(v2(), source(
		".macro BAD",
		"    NOP",
		"    FROB r1",
		".endm",
		"    BAD",
	))
	assert.Error(err)
	assert.Contains(diag, "main.p(5) Error: macro BAD(3) unknown instruction 'FROB'")
}

func TestAssembler_Preprocessor(t *testing.T) {
	assert := assert.New(t)

	files := map[string]string{
		"main.p": strings.Join([]string{
			"#define COUNT 3",
			"#include \"inc/defs.h\"",
			"#ifdef FAST",
			"    LDI r1, COUNT",
			"#else",
			"    LDI r1, 0",
			"#endif",
			"#ifndef SLOW",
			"    LDI r2, VALUE ; comment",
			"#endif",
			"#include \"inc/defs.h\"",
		}, "\n"),
		"inc/defs.h": strings.Join([]string{
			"#define VALUE (COUNT + 1)",
			"#define FAST",
			"#include \"more.h\"",
		}, "\n"),
		"inc/more.h": "    LDI r3, 7 // from more\n",
	}

	prog, diag, err := assemble(v2(), files)
	assert.NoError(err, diag)
	assert.Equal([]uint32{0x240007e3, 0x240003e1, 0x240004e2, 0x240007e3}, words(prog))

	assert.Equal([]SourceInfo{
		{Name: "main.p", Path: "main.p"},
		{Name: "inc/defs.h", Path: "inc/defs.h"},
		{Name: "more.h", Path: "inc/more.h"},
	}, prog.Files)

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Opcode)
	assert.Equal("more.h", prog.FileName(dbg.File))
	assert.Equal(1, dbg.LineNo)
}

func TestAssembler_Predefined(t *testing.T) {
	assert := assert.New(t)

	opts := Options{
		Core:      pru.CORE_V3,
		BigEndian: true,
		Defines:   []Define{{Name: "FOO"}, {Name: "BAR", Value: "0x20"}},
	}
	prog, diag, err := assemble(opts, source(
		"#ifdef __PASM__",
		"#ifdef __BIG_ENDIAN__",
		"#ifdef FOO",
		"    LDI r1, __PRU_CORE__",
		"    LDI r2, BAR",
		"#endif",
		"#endif",
		"#endif",
	))
	assert.NoError(err, diag)
	assert.Equal([]uint32{0x240003e1, 0x240020e2}, words(prog))
}

func TestAssembler_Redefine(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source(
		"#define X 1",
		"#define X 1",
		"#define X 2",
		"    LDI r1, X",
		"#undef X",
		"#ifdef X",
		"    LDI r1, 9",
		"#endif",
	))
	assert.NoError(err, diag)
	assert.Equal([]uint32{0x240002e1}, words(prog))
	assert.Equal(1, strings.Count(diag, "'X' redefined"))
	assert.Contains(diag, "Pass 1 : 0 error(s), 1 warning(s)")
}

func TestAssembler_Directives(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source(
		"#warn careful",
		"#note just so you know",
		".origin 4",
		".entrypoint main",
		".setcallreg r29.w2",
		"main:",
		"    CALL 0",
		"    .codeword 0xdeadbeef, main",
		"    LDI r1, $(2*3+1)",
	))
	assert.NoError(err, diag)
	assert.Equal(uint32(4), prog.EntryPoint)
	assert.Equal(uint32(8), prog.Length)
	assert.Equal([]uint32{0x230000dd, 0xdeadbeef, 4, 0x240007e1}, words(prog))
	assert.False(prog.Opcodes[0].Data)
	assert.True(prog.Opcodes[1].Data)
	assert.Equal(make([]uint32, 4), prog.Image()[:4])
	assert.Equal(1, strings.Count(diag, "Warning: careful"))
	assert.Equal(1, strings.Count(diag, "Note: just so you know"))
}

func TestAssembler_Starlark(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source(
		"#define N 4",
		"    LDI r1, $(N*N)",
		"    LDI r2, $(max(3, N) + 1)",
		"    LDI r3, $(N > 3)",
	))
	assert.NoError(err, diag)
	assert.Equal([]uint32{0x240010e1, 0x240005e2, 0x240001e3}, words(prog))

	_, diag, err = assemble(v2(), source("    LDI r1, $(\"text\")"))
	assert.Error(err)
	assert.Contains(diag, "is not a valid expression")
}

func TestAssembler_Struct(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source(
		".struct Pair",
		"    .u16 lo",
		"    .u16 hi",
		"    .u32 val",
		".ends",
		".assign Pair, R4, R5, p",
		"    LDI p.lo, 1",
		"    LDI p.hi, 2",
		"    MOV p.val, r1",
		"    LDI r2, SIZE(Pair)",
		"    LDI r3, OFFSET(Pair.val)",
		"    LDI r4.b0, SIZE(p.hi)",
		"    SET p.lo.t3",
	))
	assert.NoError(err, diag)
	assert.Equal([]uint32{
		0x24000184, 0x240002c4, 0x10e1e1e5, 0x240008e2, 0x240004e3, 0x24000204, 0x1f038484,
	}, words(prog))
	assert.Equal("LDI R4.w0, 1", prog.Opcodes[0].Text)
}

func TestAssembler_StructErrors(t *testing.T) {
	assert := assert.New(t)

	pair := []string{
		".struct Pair",
		"    .u16 lo",
		"    .u16 hi",
		"    .u32 val",
		".ends",
	}

	table := []struct {
		line string
		err  string
	}{
		{".assign Pair, R4, R6, q", "expected end register R5"},
		{".assign Pair, R4.b1, *, q", "field 'hi' does not fit in a single register"},
		{".assign Pair, R31, *, q", ErrAssignRange.Error()},
		{".assign Nope, R4, *, q", "unknown struct 'Nope'"},
		{".assign Pair, R4, *", ErrAssignSyntax.Error()},
		{".ends", ErrStructLonely.Error()},
		{".u8 x", ErrFieldOutside.Error()},
		{".struct Pair", "'Pair' is already defined as a struct"},
	}

	for _, entry := range table {
		lines := append(append([]string{}, pair...), entry.line)
		_, diag, err := assemble(v2(), source(lines...))
		assert.Error(err, entry.line)
		assert.Contains(diag, entry.err, entry.line)
	}

	_, diag, err := assemble(v2(), source(".struct Open", "    .u8 a", "    NOP"))
	assert.Error(err)
	assert.Contains(diag, ErrStructOnly.Error())

	_, diag, err = assemble(v2(), source(".struct Open", "    .u8 a"))
	assert.Error(err)
	assert.Contains(diag, ErrStructOpen.Error())
}

func TestAssembler_Scopes(t *testing.T) {
	assert := assert.New(t)

	prog, diag, err := assemble(v2(), source(
		".struct S",
		"    .u32 a",
		".ends",
		".enter one",
		".assign S, R1, R1, x",
		"    MOV x.a, r2",
		".leave one",
		".using one",
		"    MOV x, r3",
	))
	assert.NoError(err, diag)
	assert.Equal([]uint32{0x10e2e2e1, 0x10e3e3e1}, words(prog))

	_, diag, err = assemble(v2(), source(
		".struct S",
		"    .u32 a",
		".ends",
		".enter one",
		".assign S, R1, R1, x",
		".leave one",
		"    MOV x, r2",
	))
	assert.Error(err)
	assert.Contains(diag, "main.p(7) Error:")

	table := []struct {
		lines []string
		err   error
	}{
		{[]string{".leave nope"}, &ErrUnknown{Kind: KIND_SCOPE, Name: "nope"}},
		{[]string{".enter a", ".leave a", ".leave a"}, ErrScopeClosed},
		{[]string{".enter a", ".using a"}, ErrScopeOpen},
	}
	for _, entry := range table {
		_, diag, err = assemble(v2(), source(entry.lines...))
		assert.Error(err)
		assert.Contains(diag, entry.err.Error(), entry.lines)
	}
}

func TestAssembler_Errors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		lines []string
		text  string
	}{
		{[]string{"    JMP nowhere"}, "main.p(1) Error:"},
		{[]string{"    NOP", "    FROB r1"}, "main.p(2) Error: unknown instruction 'FROB'"},
		{[]string{"foo: NOP", ".macro foo", ".endm"}, "'foo' is already defined as a label"},
		{[]string{"a: NOP", "a: NOP"}, ErrLabelDuplicate.Error()},
		{[]string{".origin 8", "    NOP", ".origin 4"}, ErrOriginBackward.Error()},
		{[]string{".bogus"}, "unknown directive '.bogus'"},
		{[]string{"#bogus"}, ErrDirectiveSyntax.Error()},
		{[]string{"#error stop here"}, "main.p(1) Error: stop here"},
		{[]string{"#ifdef X"}, ErrCondUnbalanced.Error()},
		{[]string{"#endif"}, ErrEndifLonely.Error()},
		{[]string{"#else"}, ErrElseLonely.Error()},
		{[]string{"#ifdef X", "#else", "#else", "#endif"}, ErrElseRepeat.Error()},
		{[]string{"    LOOP x, 1", "x:"}, "illegal for this core revision"},
		{[]string{".setcallreg r1"}, ErrCallReg.Error()},
	}

	for _, entry := range table {
		opts := v2()
		if strings.Contains(entry.text, "core revision") {
			opts.Core = pru.CORE_V1
		}
		_, diag, err := assemble(opts, source(entry.lines...))
		var ea *ErrAssembly
		assert.True(errors.As(err, &ea), entry.lines)
		assert.Contains(diag, entry.text, entry.lines)
	}
}

func TestAssembler_LabelMoved(t *testing.T) {
	assert := assert.New(t)

	_, diag, err := assemble(v2(), source(
		"    MOV r1, end << 16",
		"end:",
		"    NOP",
	))
	var ea *ErrAssembly
	assert.True(errors.As(err, &ea))
	assert.Equal(2, ea.Pass)
	assert.ErrorIs(err, ErrLabelMoved)
	assert.Contains(diag, ErrLabelMoved.Error())
	assert.NotContains(diag, ErrPassMismatch.Error())
	assert.Contains(diag, "Pass 1 : 0 error(s)")
	assert.Contains(diag, "Pass 2 : 1 error(s)")
}

func TestAssembler_Pass2Errors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		lines  []string
		lineNo int
	}{
		{[]string{"    LDI r1, 4/0"}, 1},
		{[]string{"    NOP", "    JMP nowhere"}, 2},
	}

	for _, entry := range table {
		_, diag, err := assemble(v2(), source(entry.lines...))

		var ea *ErrAssembly
		assert.True(errors.As(err, &ea), entry.lines)
		assert.Equal(2, ea.Pass, entry.lines)
		assert.Equal(1, ea.Errors, entry.lines)
		assert.Contains(diag, "Pass 1 : 0 error(s)", entry.lines)
		assert.Contains(diag, "Pass 2 : 1 error(s)", entry.lines)
		assert.NotContains(diag, ErrPassMismatch.Error(), entry.lines)

		var se *ErrSyntax
		assert.True(errors.As(err, &se), entry.lines)
		assert.Equal("main.p", se.File)
		assert.Equal(entry.lineNo, se.LineNo)
		assert.Equal(strings.TrimSpace(entry.lines[entry.lineNo-1]), se.Line)
	}
}

func TestAssembler_SyntaxLocation(t *testing.T) {
	assert := assert.New(t)

	_, _, err := assemble(v2(), map[string]string{
		"main.p": "    NOP\n#include \"inc.h\"\n",
		"inc.h":  "; header\n    FROB r1\n",
	})

	var se *ErrSyntax
	assert.True(errors.As(err, &se))
	assert.Equal("inc.h", se.File)
	assert.Equal(2, se.LineNo)
	assert.Equal("FROB r1", se.Line)

	var eu *ErrUnknown
	assert.True(errors.As(err, &eu))
	assert.Equal("FROB", eu.Name)
}

func TestAssembler_ErrorLimit(t *testing.T) {
	assert := assert.New(t)

	var lines []string
	for i := 0; i < ERROR_LIMIT+10; i++ {
		lines = append(lines, "    FROB")
	}

	prog, diag, err := assemble(v2(), source(lines...))
	assert.Error(err)
	assert.Contains(diag, "Aborting...")
	assert.Equal(ERROR_LIMIT, prog.Errors)
	assert.Contains(diag, "Pass 1 : 25 error(s)")
	assert.NotContains(diag, "Pass 2")
}

func TestAssembler_Fatal(t *testing.T) {
	assert := assert.New(t)

	_, diag, err := assemble(v2(), source(
		"#include \"missing.h\"",
		"    FROB",
	))
	assert.Error(err)
	assert.Contains(diag, "main.p(1) Fatal Error: unable to open 'missing.h'")
	assert.NotContains(diag, "FROB")

	_, diag, err = assemble(v2(), map[string]string{})
	assert.Error(err)
	assert.Contains(diag, "Fatal Error")
}

func TestAssembler_IncludeDepth(t *testing.T) {
	assert := assert.New(t)

	_, diag, err := assemble(v2(), map[string]string{
		"main.p": "#include \"main.p\"\n",
	})
	assert.Error(err)
	assert.Contains(diag, ErrIncludeDepth.Error())
}

func TestAssembler_Empty(t *testing.T) {
	assert := assert.New(t)

	_, _, err := assemble(v2(), source("; nothing here"))
	assert.ErrorIs(err, ErrEmpty)
}

func TestAssembler_BigEndian(t *testing.T) {
	assert := assert.New(t)

	opts := v2()
	opts.BigEndian = true
	prog, diag, err := assemble(opts, source(
		"    ADD r1.b1, r2.w1, r3",
		"    LDI r1, &r2.b1",
	))
	assert.NoError(err, diag)
	assert.Equal([]uint32{0x00e3a241, 0x24000ae1}, words(prog))
}

func TestParseDefine(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		text string
		def  Define
	}{
		{"FOO", Define{Name: "FOO"}},
		{"BAR=0x20", Define{Name: "BAR", Value: "0x20"}},
		{"_x1=", Define{Name: "_x1"}},
		{"EXPR=1+2", Define{Name: "EXPR", Value: "1+2"}},
	}
	for _, entry := range table {
		def, err := ParseDefine(entry.text)
		assert.NoError(err, entry.text)
		assert.Equal(entry.def, def, entry.text)
	}

	for _, text := range []string{"1x=3", "", "=3", "a-b", "a b=1", strings.Repeat("x", IDENT_LIMIT+1)} {
		_, err := ParseDefine(text)
		var de *ErrDefineName
		assert.True(errors.As(err, &de), text)
	}
}
