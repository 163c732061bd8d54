// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/pasm/expr"
)

const (
	EQUATE_DEPTH = 32 // Maximum nested equate substitution.
)

// Equate is a #define.
type Equate struct {
	Name  string
	Value string

	busy bool
}

// predefine installs the built-in and command line equates.
func (s *session) predefine() {
	s.equates = map[string]*Equate{}
	s.setEquate("__PASM__", "1")
	s.setEquate("__PRU_CORE__", fmt.Sprintf("%d", int(s.Core)))
	if s.BigEndian {
		s.setEquate("__BIG_ENDIAN__", "1")
	}
	for _, def := range s.Defines {
		value := def.Value
		if len(value) == 0 {
			value = "1"
		}
		s.setEquate(def.Name, value)
	}
}

func (s *session) setEquate(name, value string) {
	s.equates[name] = &Equate{Name: name, Value: value}
}

// directive handles a '#' line.
func (s *session) directive(file *SourceFile, text string) (err error) {
	name, rest, _ := strings.Cut(text, " ")
	if tab := strings.IndexByte(name, '\t'); tab >= 0 {
		rest = name[tab+1:] + " " + rest
		name = name[:tab]
	}
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	switch name {
	case "#ifdef", "#ifndef":
		if !s.cond.Active() {
			return s.cond.Push(false)
		}
		if !isIdentifier(rest) {
			return ErrCondSyntax
		}
		_, defined := s.equates[rest]
		return s.cond.Push(defined == (name == "#ifdef"))
	case "#else":
		if s.cond.Depth() <= file.condDepth {
			return ErrElseLonely
		}
		return s.cond.Else()
	case "#endif":
		if s.cond.Depth() <= file.condDepth {
			return ErrEndifLonely
		}
		s.cond.Pop()
		return
	}

	if !s.cond.Active() {
		return
	}

	switch name {
	case "#include":
		err = s.include(file, rest)
	case "#define":
		err = s.define(rest)
	case "#undef":
		if !isIdentifier(rest) {
			return ErrUndefSyntax
		}
		delete(s.equates, rest)
	case "#error":
		err = ErrDirective(rest)
	case "#warn":
		s.report(SEVERITY_WARNING1, file.Location(), ErrDirective(rest))
	case "#note":
		s.report(SEVERITY_INFO, file.Location(), ErrDirective(rest))
	default:
		err = ErrDirectiveSyntax
	}

	return
}

// include processes a nested source file to completion.
func (s *session) include(parent *SourceFile, rest string) (err error) {
	if len(rest) < 3 {
		return ErrIncludeSyntax
	}

	var system bool
	switch {
	case rest[0] == '"' && rest[len(rest)-1] == '"':
	case rest[0] == '<' && rest[len(rest)-1] == '>':
		system = true
	default:
		return ErrIncludeSyntax
	}

	child, err := s.pool.Open(parent, rest[1:len(rest)-1], system)
	if err != nil {
		return
	}

	s.processFile(child)
	return
}

// define creates or replaces an equate.
func (s *session) define(rest string) (err error) {
	n := identLength(rest)
	if n == 0 || (n < len(rest) && !isSpace(rest[n])) {
		return ErrDefineSyntax
	}
	if n > IDENT_LIMIT {
		return ErrIdentLength
	}

	name := rest[:n]
	value := strings.TrimSpace(rest[n:])

	err = s.collide(name, KIND_EQUATE)
	if err != nil {
		return
	}

	old, ok := s.equates[name]
	if ok {
		if old.Value == value {
			return
		}
		s.report(SEVERITY_WARNING1, s.location(), &ErrRedefined{Name: name})
	}

	s.setEquate(name, value)
	return
}

// substitute replaces whole identifiers that name equates.
func (s *session) substitute(text string) (out string, err error) {
	return s.substituteDepth(text, 0)
}

func (s *session) substituteDepth(text string, depth int) (out string, err error) {
	if depth > EQUATE_DEPTH {
		err = ErrEquateLoop
		return
	}

	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '"' || c == '\'':
			end, _ := skipQuoted(text, i)
			sb.WriteString(text[i:end])
			i = end
		case isDigit(c):
			end := i + 1
			for end < len(text) && isIdentChar(text[end]) {
				end++
			}
			sb.WriteString(text[i:end])
			i = end
		case isIdentStart(c):
			end := i + identLength(text[i:])
			name := text[i:end]
			eq, ok := s.equates[name]
			if ok && !eq.busy && (i == 0 || text[i-1] != '.') {
				var value string
				eq.busy = true
				value, err = s.substituteDepth(eq.Value, depth+1)
				eq.busy = false
				if err != nil {
					return
				}
				sb.WriteString(value)
			} else {
				sb.WriteString(name)
			}
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}

	out = sb.String()
	return
}

// parenEval replaces every $( ... ) with its starlark value.
func (s *session) parenEval(line string) (out string, err error) {
	for {
		start := strings.Index(line, "$(")
		if start < 0 {
			break
		}
		depth := 0
		end := -1
		for i := start + 1; i < len(line) && end < 0; i++ {
			switch line[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		text := line[start+2:]
		if end < 0 {
			err = &ErrParseExpression{Expr: text, Err: expr.ErrParenthesis}
			return
		}
		text = line[start+2 : end]

		var value uint32
		value, err = s.starlarkEval(text)
		if err != nil {
			err = &ErrParseExpression{Expr: text, Err: err}
			return
		}
		line = line[:start] + fmt.Sprintf("%d", value) + line[end+1:]
	}

	out = line
	return
}

// starlarkEval evaluates text with integer equates predeclared.
func (s *session) starlarkEval(text string) (value uint32, err error) {
	thread := starlark.Thread{Name: "pasm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, eq := range s.equates {
		word, _err := s.substitute(eq.Value)
		if _err != nil {
			continue
		}
		value32, _err := expr.ParseNumber(strings.TrimSpace(word))
		if _err != nil {
			// Non-integer equates may be registers or text.
			continue
		}
		pred[key] = starlark.MakeUint64(uint64(value32))
	}
	for name, address := range s.labels.All() {
		if _, ok := pred[name]; !ok {
			pred[name] = starlark.MakeUint64(uint64(address))
		}
	}

	prog := "rc=" + text + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrStarlarkResult
		return
	}
	var st_int starlark.Int
	switch v := st_rc.(type) {
	case starlark.Int:
		st_int = v
	case starlark.Bool:
		if v {
			st_int = starlark.MakeInt(1)
		} else {
			st_int = starlark.MakeInt(0)
		}
	default:
		err = ErrStarlarkResult
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrStarlarkRange
		return
	}
	value = uint32(st_int64)
	return
}
