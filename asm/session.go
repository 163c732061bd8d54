// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"log"
	"slices"
	"strings"

	"github.com/ezrec/pasm/expr"
	"github.com/ezrec/pasm/pru"
	"github.com/ezrec/pasm/translate"
)

// Symbol kinds sharing the flat namespace.
const (
	KIND_LABEL  = "label"
	KIND_EQUATE = "equate"
	KIND_MACRO  = "macro"
	KIND_STRUCT = "struct"
	KIND_SCOPE  = "scope"
	KIND_ALIAS  = "alias"
	KIND_FIELD  = "field"
)

// pending is a line waiting in the statement queue.
type pending struct {
	text    string
	macro   *Macro // Macro the line was expanded from.
	lineNo  int    // Macro body line.
	depth   int    // Macro nesting depth.
	release *Macro // Marks the end of an expansion.
}

// session is the state of one pass.
type session struct {
	*Assembler
	pass   int
	labels *labelTable
	diag   *Reporter
	pool   *sourcePool
	enc    *pru.Encoder

	cond    condStack
	equates map[string]*Equate
	macros  map[string]*Macro
	structs map[string]*Struct
	scopes  map[string]*Scope
	root    *Scope
	using   []*Scope

	recording *Macro
	defining  *Struct

	file    *SourceFile // File being read.
	opcodes []Opcode
	cursor  int64 // Next address; -1 until seeded.
	start   uint32
	entry   uint32

	entrySet  bool
	bootstrap bool
}

func (asm *Assembler) newSession(pass int) (s *session) {
	s = &session{
		Assembler: asm,
		pass:      pass,
		labels:    asm.labels,
		diag:      asm.diag,
		pool:      newSourcePool(asm.FS),
		enc:       pru.NewEncoder(asm.Core, asm.BigEndian),
		macros:    map[string]*Macro{},
		structs:   map[string]*Struct{},
		scopes:    map[string]*Scope{},
		root:      newScope(""),
		cursor:    -1,
	}
	s.using = []*Scope{s.root}
	s.predefine()
	return
}

// final is true on the pass that must resolve everything.
func (s *session) final() bool {
	return s.pass == 2
}

// Symbol implements expr.Env.
func (s *session) Symbol(name string) (value uint32, ok bool) {
	return s.labels.Lookup(name)
}

// RegisterAddress implements expr.Env.
func (s *session) RegisterAddress(token string) (value uint32, ok bool) {
	reg, err := pru.ParseRegister(token)
	if err != nil || reg.HasBit() {
		return
	}
	return reg.Address(s.BigEndian), true
}

// Strict implements expr.Env.
func (s *session) Strict() bool {
	return s.final()
}

func (s *session) eval(text string) (value uint32, err error) {
	return expr.Value(text, s)
}

func (s *session) location() Location {
	if s.file == nil {
		return Location{}
	}
	return s.file.Location()
}

func (s *session) report(sev Severity, loc Location, err error) {
	s.diag.Report(sev, loc, err)
}

// collide checks name against every other kind in the flat namespace.
func (s *session) collide(name string, kind string) (err error) {
	check := func(other string, ok bool) bool {
		if ok && kind != other {
			err = &ErrNameCollision{Name: name, Kind: other}
		}
		return err != nil
	}

	// Labels from later in the file are already known on the final pass.
	if !s.final() && check(KIND_LABEL, s.labels.Has(name)) {
		return
	}
	if _, ok := s.equates[name]; check(KIND_EQUATE, ok) {
		return
	}
	if _, ok := s.macros[name]; check(KIND_MACRO, ok) {
		return
	}
	if _, ok := s.structs[name]; check(KIND_STRUCT, ok) {
		return
	}
	if _, ok := s.scopes[name]; check(KIND_SCOPE, ok) {
		return
	}
	if kind != KIND_ALIAS && kind != KIND_LABEL {
		if _, ok := s.alias(name); check(KIND_ALIAS, ok) {
			return
		}
	}
	return
}

// run assembles the main file.
func (s *session) run(name string) {
	s.diag.Begin(s.pass)
	s.labels.Begin()

	file, err := s.pool.Open(nil, name, false)
	if err != nil {
		s.report(SEVERITY_FATAL, Location{File: s.displayName(name)}, err)
		return
	}
	file.Name = s.displayName(name)

	s.processFile(file)
	s.pool.CloseAll()
	s.finish()
}

func (s *session) displayName(name string) string {
	if len(s.Name) > 0 {
		return s.Name
	}
	return name
}

// processFile reads a file to the end, or until the pass is stopped.
func (s *session) processFile(file *SourceFile) {
	parent := s.file
	s.file = file
	defer func() {
		s.pool.Close(file)
		s.file = parent
	}()

	file.condDepth = s.cond.Depth()

	for !s.diag.Stopped() {
		line, ok, err := file.readLine()
		if err != nil {
			s.report(SEVERITY_FATAL, file.Location(), fatal(err))
			return
		}
		if !ok {
			break
		}

		if s.Verbose {
			log.Printf("%v(%v): %v", file.Name, file.LineNo, line)
		}

		err = s.processLine(file, line)
		if err != nil {
			s.report(SEVERITY_ERROR, file.Location(), located(file, line, err))
		}
	}

	if s.diag.Stopped() {
		return
	}

	if s.cond.Depth() != file.condDepth {
		s.report(SEVERITY_ERROR, Location{File: file.Name, LineNo: file.LineNo}, ErrCondUnbalanced)
		s.cond.Truncate(file.condDepth)
	}
}

// processLine runs one raw source line through the pipeline.
func (s *session) processLine(file *SourceFile, raw string) (err error) {
	text := stripComment(raw)
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "#") {
		return s.directive(file, trimmed)
	}

	if !s.cond.Active() {
		return
	}

	text, err = s.substitute(text)
	if err != nil {
		return
	}

	s.submit(file, raw, text)
	return
}

// located places err at the current line of file.
func located(file *SourceFile, line string, err error) error {
	return &ErrSyntax{
		File:   file.Name,
		LineNo: file.LineNo,
		Line:   strings.TrimSpace(line),
		Err:    err,
	}
}

// submit processes a line and every line its macros expand into.
func (s *session) submit(file *SourceFile, raw string, text string) {
	queue := []pending{{text: text}}
	for len(queue) > 0 && !s.diag.Stopped() {
		item := queue[0]
		queue = queue[1:]

		if item.release != nil {
			item.release.busy = false
			continue
		}

		work, err := s.statement(file, item)
		if err != nil {
			if item.macro != nil {
				err = &ErrMacro{Macro: item.macro.Name, Line: item.lineNo, Err: err}
			}
			s.report(SEVERITY_ERROR, file.Location(), located(file, raw, err))
			continue
		}
		queue = append(work, queue...)
	}

	for _, item := range queue {
		if item.release != nil {
			item.release.busy = false
		}
	}
}

// statement handles one line after preprocessing.
func (s *session) statement(file *SourceFile, item pending) (work []pending, err error) {
	if s.recording != nil {
		lineNo := file.LineNo
		if item.macro != nil {
			lineNo = item.lineNo
		}
		err = s.record(item.text, lineNo)
		return
	}

	text, err := s.parenEval(item.text)
	if err != nil {
		return
	}

	stmt, err := parseLine(text)
	if err != nil {
		return
	}

	if s.defining != nil {
		err = s.structLine(stmt)
		return
	}

	command := strings.ToLower(stmt.Command)
	if command == ".macro" {
		err = s.beginMacro(stmt, file.Location())
		return
	}

	if len(stmt.Label) > 0 {
		err = s.defineLabel(stmt.Label)
		if err != nil {
			return
		}
	}

	switch {
	case len(command) == 0:
		return
	case strings.HasPrefix(command, "."):
		err = s.dot(command, stmt.Terms)
		return
	}

	if m, ok := s.macros[stmt.Command]; ok {
		return s.expand(m, stmt.Terms, item.depth)
	}

	if pru.IsMnemonic(command) {
		err = s.instruction(file, stmt)
		return
	}

	err = &ErrUnknown{Kind: f("instruction"), Name: stmt.Command}
	return
}

// defineLabel binds a label to the code cursor.
func (s *session) defineLabel(name string) (err error) {
	if err = s.collide(name, KIND_LABEL); err != nil {
		return
	}
	s.touch()
	return s.labels.Define(name, uint32(s.cursor), s.final())
}

// touch seeds the code cursor with the default origin.
func (s *session) touch() {
	if s.cursor >= 0 {
		return
	}
	s.seed(s.Core.Origin())
	s.bootstrap = s.Core.HasBootstrap()
}

func (s *session) seed(addr uint32) {
	s.cursor = int64(addr)
	s.start = addr
}

// instruction encodes and emits a machine instruction.
func (s *session) instruction(file *SourceFile, stmt Statement) (err error) {
	terms, err := s.rewriteTerms(stmt.Terms)
	if err != nil {
		return
	}

	s.touch()
	ctx := &pru.Context{
		Address: uint32(s.cursor),
		Strict:  s.final(),
		Eval:    s.eval,
	}
	codes, err := s.enc.Encode(ctx, stmt.Command, terms)
	if err != nil {
		return
	}

	text := stmt.Command
	if len(terms) > 0 {
		text += " " + strings.Join(terms, ", ")
	}
	return s.emit(file, text, codes, false)
}

// emit appends code at the cursor.
func (s *session) emit(file *SourceFile, text string, codes []uint32, data bool) (err error) {
	s.touch()
	if s.cursor+int64(len(codes)) > CODE_LIMIT {
		return fatal(ErrCodeFull)
	}

	op := Opcode{
		File:    -1,
		Address: uint32(s.cursor),
		Text:    text,
		Codes:   slices.Clone(codes),
		Data:    data,
	}
	if file != nil {
		op.File = file.Index
		op.LineNo = file.LineNo
	}
	s.opcodes = append(s.opcodes, op)
	s.cursor += int64(len(codes))
	return
}

// finish closes the pass: open definitions and the bootstrap jump.
func (s *session) finish() {
	if s.diag.Fatal {
		return
	}

	loc := Location{}
	if len(s.pool.files) > 0 {
		loc.File = s.pool.files[0].Name
	}

	if s.recording != nil {
		s.report(SEVERITY_ERROR, Location{File: s.recording.File, LineNo: s.recording.LineNo}, ErrMacroLonely)
		s.recording = nil
	}
	if s.defining != nil {
		s.report(SEVERITY_ERROR, loc, ErrStructOpen)
		s.defining = nil
	}

	if !s.entrySet {
		s.entry = s.start
	}

	if s.bootstrap {
		jmp := pru.MakeFormat2(pru.SUB_JMP, 1<<24|(s.entry&0xffff)<<8)
		op := Opcode{
			File:    -1,
			Address: pru.BOOTSTRAP_ADDRESS,
			Text:    "JMP " + translate.Hex(4, s.entry),
			Codes:   []uint32{jmp},
		}
		s.opcodes = append([]Opcode{op}, s.opcodes...)
	}
}

// length is the final code cursor.
func (s *session) length() uint32 {
	if s.cursor < 0 {
		return 0
	}
	return uint32(s.cursor)
}

// program snapshots the pass results.
func (s *session) program() (prog *Program) {
	prog = &Program{
		Core:       s.Core,
		BigEndian:  s.BigEndian,
		EntryPoint: s.entry,
		Length:     s.length(),
		Opcodes:    s.opcodes,
		Labels:     s.labels.Sorted(),
		Files:      s.pool.Files(),
		Errors:     s.diag.Errors,
		Warnings:   s.diag.Warnings,
	}
	for _, eq := range s.equates {
		prog.Equates = append(prog.Equates, Equate{Name: eq.Name, Value: eq.Value})
	}
	slices.SortFunc(prog.Equates, func(a, b Equate) int {
		return strings.Compare(a.Name, b.Name)
	})
	return
}
