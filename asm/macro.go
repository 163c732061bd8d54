package asm

import (
	"fmt"
	"slices"
	"strings"
)

const (
	MACRO_DEPTH = 16 // Maximum nested macro expansion.
)

// MacroParam is a formal macro parameter.
type MacroParam struct {
	Name       string
	Default    string
	HasDefault bool
}

// MacroLine is one recorded line of a macro body.
type MacroLine struct {
	LineNo int
	Text   string
}

// Macro represents a macro definition.
type Macro struct {
	Name   string
	File   string      // File the macro was defined in.
	LineNo int         // Line of the .macro directive.
	Params []MacroParam
	Labels []string    // Labels defined inside the body.
	Lines  []MacroLine // Body text, after equate substitution.

	busy       bool
	expansions int
}

// Required is the number of parameters without a default.
func (m *Macro) Required() (count int) {
	for _, param := range m.Params {
		if !param.HasDefault {
			count++
		}
	}
	return
}

// addParams handles .mparam.
func (m *Macro) addParams(terms []string) (err error) {
	for _, term := range terms {
		name, value, hasDefault := strings.Cut(term, "=")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !isIdentifier(name) {
			return ErrMacroParamSyntax
		}
		if len(m.Params) > 0 && m.Params[len(m.Params)-1].HasDefault && !hasDefault {
			return ErrMacroParamDefault
		}
		for _, param := range m.Params {
			if param.Name == name {
				return ErrMacroParamSyntax
			}
		}
		m.Params = append(m.Params, MacroParam{Name: name, Default: value, HasDefault: hasDefault})
	}
	return
}

// beginMacro handles .macro.
func (s *session) beginMacro(stmt Statement, loc Location) (err error) {
	if len(stmt.Label) > 0 {
		return ErrLabelMacro
	}
	if len(stmt.Terms) != 1 || !isIdentifier(stmt.Terms[0]) {
		return ErrMacroSyntax
	}
	name := stmt.Terms[0]
	if err = s.collide(name, KIND_MACRO); err != nil {
		return
	}
	if _, ok := s.macros[name]; ok {
		return &ErrNameCollision{Name: name, Kind: KIND_MACRO}
	}

	m := &Macro{Name: name, File: loc.File, LineNo: loc.LineNo}
	s.macros[name] = m
	s.recording = m
	return
}

// record stores one line of the macro being defined.
func (s *session) record(text string, lineNo int) (err error) {
	m := s.recording

	stmt, perr := parseLine(text)
	if perr == nil {
		switch strings.ToLower(stmt.Command) {
		case ".endm":
			s.recording = nil
			return
		case ".macro":
			return ErrMacroNesting
		case ".mparam":
			return m.addParams(stmt.Terms)
		}
		if len(stmt.Label) > 0 && !slices.Contains(m.Labels, stmt.Label) {
			m.Labels = append(m.Labels, stmt.Label)
		}
	}

	m.Lines = append(m.Lines, MacroLine{LineNo: lineNo, Text: text})
	return
}

// expand produces the body of a macro invocation.
func (s *session) expand(m *Macro, args []string, depth int) (work []pending, err error) {
	if depth >= MACRO_DEPTH {
		return nil, ErrMacroDepth
	}
	if m.busy {
		return nil, ErrMacroRecursion
	}
	if len(args) > len(m.Params) {
		return nil, ErrMacroArgsMany
	}

	values := map[string]string{}
	for n, param := range m.Params {
		switch {
		case n < len(args) && len(args[n]) > 0:
			values[param.Name] = args[n]
		case param.HasDefault:
			values[param.Name] = param.Default
		default:
			return nil, ErrMacroArgsFew
		}
	}

	m.expansions++
	for _, label := range m.Labels {
		values[label] = fmt.Sprintf("_%s_%d_%s", m.Name, m.expansions, label)
	}

	m.busy = true
	for _, line := range m.Lines {
		work = append(work, pending{
			text:   replaceIdents(line.Text, values),
			macro:  m,
			lineNo: line.LineNo,
			depth:  depth + 1,
		})
	}
	work = append(work, pending{release: m})
	return
}

// replaceIdents substitutes whole identifiers outside quotes. Identifiers
// that follow a '.' are left alone.
func replaceIdents(text string, values map[string]string) string {
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
			value, ok := values[name]
			if ok && (i == 0 || text[i-1] != '.') {
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
	return sb.String()
}
