package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ezrec/pasm/pru"
)

// Field is one member of a struct.
type Field struct {
	Name   string
	Size   int // Bytes: 1, 2 or 4.
	Offset int // Bytes from the start of the struct.
}

// Struct is a named register layout.
type Struct struct {
	Name   string
	Fields []Field
	Size   int
}

// Field finds a member by name.
func (st *Struct) Field(name string) (field Field, ok bool) {
	for _, field = range st.Fields {
		if strings.EqualFold(field.Name, name) {
			ok = true
			return
		}
	}
	field = Field{}
	return
}

// add appends a member.
func (st *Struct) add(name string, size int) (err error) {
	if !isIdentifier(name) {
		err = ErrFieldOutside
		return
	}
	if _, ok := st.Field(name); ok {
		err = ErrFieldDuplicate
		return
	}
	st.Fields = append(st.Fields, Field{Name: name, Size: size, Offset: st.Size})
	st.Size += size
	return
}

// Assignment maps a struct onto a run of registers.
type Assignment struct {
	Name   string
	Struct *Struct
	Start  int // Register file byte, in memory order.
}

// Scope is a named set of assignments.
type Scope struct {
	Name        string
	Open        bool
	Assignments map[string]*Assignment
}

func newScope(name string) *Scope {
	return &Scope{
		Name:        name,
		Open:        true,
		Assignments: map[string]*Assignment{},
	}
}

var fieldSizes = map[string]int{
	".u8":  1,
	".u16": 2,
	".u32": 4,
}

// structLine handles a statement while a .struct is being defined.
func (s *session) structLine(stmt Statement) (err error) {
	if len(stmt.Label) > 0 {
		return ErrStructOnly
	}
	command := strings.ToLower(stmt.Command)
	switch command {
	case "":
		return
	case ".ends":
		st := s.defining
		s.defining = nil
		if len(st.Fields) == 0 {
			return ErrStructEmpty
		}
		s.structs[st.Name] = st
		return
	case ".struct":
		return ErrStructNesting
	}

	size, ok := fieldSizes[command]
	if !ok {
		return ErrStructOnly
	}
	if len(stmt.Terms) != 1 {
		return ErrDirectiveArgs
	}
	return s.defining.add(stmt.Terms[0], size)
}

// beginStruct handles .struct.
func (s *session) beginStruct(terms []string) (err error) {
	if len(terms) != 1 || !isIdentifier(terms[0]) {
		return ErrDirectiveArgs
	}
	name := terms[0]
	if err = s.collide(name, KIND_STRUCT); err != nil {
		return
	}
	if _, ok := s.structs[name]; ok {
		return &ErrNameCollision{Name: name, Kind: KIND_STRUCT}
	}
	s.defining = &Struct{Name: name}
	return
}

// scope returns the innermost open scope.
func (s *session) scope() *Scope {
	return s.using[len(s.using)-1]
}

// alias finds an assignment in the open scopes, innermost first.
func (s *session) alias(name string) (assign *Assignment, ok bool) {
	for n := len(s.using) - 1; n >= 0; n-- {
		assign, ok = s.using[n].Assignments[name]
		if ok {
			return
		}
	}
	return
}

// enter handles .enter.
func (s *session) enter(terms []string) (err error) {
	if len(terms) != 1 || !isIdentifier(terms[0]) {
		return ErrDirectiveArgs
	}
	name := terms[0]
	if err = s.collide(name, KIND_SCOPE); err != nil {
		return
	}
	if _, ok := s.scopes[name]; ok {
		return &ErrNameCollision{Name: name, Kind: KIND_SCOPE}
	}
	scope := newScope(name)
	s.scopes[name] = scope
	s.using = append(s.using, scope)
	return
}

// leave handles .leave.
func (s *session) leave(terms []string) (err error) {
	if len(terms) != 1 {
		return ErrDirectiveArgs
	}
	scope, ok := s.scopes[terms[0]]
	if !ok {
		return &ErrUnknown{Kind: KIND_SCOPE, Name: terms[0]}
	}
	if scope == s.root {
		return ErrScopeRoot
	}
	if !scope.Open {
		return ErrScopeClosed
	}
	scope.Open = false
	for n, open := range s.using {
		if open == scope {
			s.using = append(s.using[:n], s.using[n+1:]...)
			break
		}
	}
	return
}

// use handles .using.
func (s *session) use(terms []string) (err error) {
	if len(terms) != 1 {
		return ErrDirectiveArgs
	}
	scope, ok := s.scopes[terms[0]]
	if !ok {
		return &ErrUnknown{Kind: KIND_SCOPE, Name: terms[0]}
	}
	if scope.Open {
		return ErrScopeOpen
	}
	scope.Open = true
	s.using = append(s.using, scope)
	return
}

// assign handles .assign struct, start, end|*, alias.
func (s *session) assign(terms []string) (err error) {
	if len(terms) != 4 {
		return ErrAssignSyntax
	}

	st, ok := s.structs[terms[0]]
	if !ok {
		return &ErrUnknown{Kind: KIND_STRUCT, Name: terms[0]}
	}

	start, err := pru.ParseRegister(terms[1])
	if err != nil {
		return
	}
	if start.HasBit() {
		return ErrAssignSyntax
	}

	base := start.Memory()
	end := base + st.Size
	if end > pru.REGISTER_FILE_SIZE {
		return ErrAssignRange
	}

	for _, field := range st.Fields {
		at := base + field.Offset
		if _, ok := pru.FieldAt(at%4, field.Size); !ok {
			return &ErrFieldAlign{Field: field.Name}
		}
	}

	if terms[2] != "*" {
		var last pru.Register
		last, err = pru.ParseRegister(terms[2])
		if err != nil {
			return
		}
		if last.HasBit() || last.Memory()+last.Width() != end {
			return &ErrAssignEnd{Expected: endRegister(end)}
		}
	}

	name := terms[3]
	if !isIdentifier(name) {
		return ErrAssignSyntax
	}
	scope := s.scope()
	if _, ok := scope.Assignments[name]; ok {
		return ErrAliasDuplicate
	}
	if err = s.collide(name, KIND_ALIAS); err != nil {
		return
	}

	scope.Assignments[name] = &Assignment{Name: name, Struct: st, Start: base}
	return
}

// endRegister names the register that ends just before byte end.
func endRegister(end int) string {
	last := end - 1
	if end%4 == 0 {
		return fmt.Sprintf("R%d", last/4)
	}
	return fmt.Sprintf("R%d.b%d", last/4, last%4)
}

// registerName names the register field covering size bytes at start.
func registerName(start, size int) string {
	index := start / 4
	offset := start % 4
	switch {
	case size >= 4 && offset == 0:
		return fmt.Sprintf("R%d", index)
	case size >= 2 && offset <= 2:
		return fmt.Sprintf("R%d.w%d", index, offset)
	default:
		return fmt.Sprintf("R%d.b%d", index, offset)
	}
}

// fieldRef is a resolved struct or alias path.
type fieldRef struct {
	Start int    // Register file byte, memory order.
	Size  int    // Bytes.
	Bit   string // Trailing .tN, if any.
}

// narrow applies a field name and .bK / .wK / .tN extensions.
func narrow(st *Struct, ref fieldRef, parts []string) (out fieldRef, err error) {
	out = ref
	if len(parts) > 0 {
		if field, ok := st.Field(parts[0]); ok {
			out.Start += field.Offset
			out.Size = field.Size
			parts = parts[1:]
		}
	}

	for len(parts) > 0 {
		ext := strings.ToLower(parts[0])
		var k int
		var kerr error
		if len(ext) > 1 {
			k, kerr = strconv.Atoi(ext[1:])
		}
		switch {
		case len(ext) > 1 && ext[0] == 'b' && kerr == nil && k >= 0 && k < out.Size && len(out.Bit) == 0:
			out.Start += k
			out.Size = 1
		case len(ext) > 1 && ext[0] == 'w' && kerr == nil && k >= 0 && k+2 <= out.Size && len(out.Bit) == 0:
			out.Start += k
			out.Size = 2
		case len(ext) > 1 && ext[0] == 't' && kerr == nil && k >= 0 && k < out.Size*8 && len(out.Bit) == 0:
			out.Bit = "." + ext
		default:
			err = &ErrUnknown{Kind: KIND_FIELD, Name: parts[0]}
			return
		}
		parts = parts[1:]
	}

	return
}

// measure resolves SIZE() and OFFSET() arguments.
func (s *session) measure(path string) (size, offset int, err error) {
	parts := strings.Split(path, ".")

	var st *Struct
	if assign, ok := s.alias(parts[0]); ok {
		st = assign.Struct
	} else if st, ok = s.structs[parts[0]]; !ok {
		err = &ErrUnknown{Kind: KIND_STRUCT, Name: parts[0]}
		return
	}

	ref, err := narrow(st, fieldRef{Size: st.Size}, parts[1:])
	if err != nil {
		return
	}
	if len(ref.Bit) > 0 {
		err = &ErrUnknown{Kind: KIND_FIELD, Name: path}
		return
	}

	size = ref.Size
	offset = ref.Start
	return
}

var reSizeOffset = regexp.MustCompile(`(?i)\b(SIZE|OFFSET)\s*\(\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\)`)

// rewriteTerm replaces SIZE()/OFFSET() and alias paths in an operand.
func (s *session) rewriteTerm(term string) (out string, err error) {
	term = reSizeOffset.ReplaceAllStringFunc(term, func(match string) string {
		if err != nil {
			return match
		}
		parts := reSizeOffset.FindStringSubmatch(match)
		size, offset, _err := s.measure(parts[2])
		if _err != nil {
			err = _err
			return match
		}
		if strings.EqualFold(parts[1], "SIZE") {
			return strconv.Itoa(size)
		}
		return strconv.Itoa(offset)
	})
	if err != nil {
		return
	}

	var sb strings.Builder
	for i := 0; i < len(term); {
		c := term[i]
		switch {
		case c == '"' || c == '\'':
			end, _ := skipQuoted(term, i)
			sb.WriteString(term[i:end])
			i = end
		case isDigit(c):
			end := i + 1
			for end < len(term) && isIdentChar(term[end]) {
				end++
			}
			sb.WriteString(term[i:end])
			i = end
		case isIdentStart(c) && (i == 0 || term[i-1] != '.'):
			end := i
			for end < len(term) && (isIdentChar(term[end]) || (term[end] == '.' && end+1 < len(term) && isIdentChar(term[end+1]))) {
				end++
			}
			path := term[i:end]
			var token string
			token, err = s.aliasToken(path)
			if err != nil {
				return
			}
			sb.WriteString(token)
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}

	out = sb.String()
	return
}

// aliasToken rewrites an alias path into a register token. Paths that do
// not start with an alias are returned unchanged.
func (s *session) aliasToken(path string) (token string, err error) {
	parts := strings.Split(path, ".")
	assign, ok := s.alias(parts[0])
	if !ok {
		token = path
		return
	}

	ref, err := narrow(assign.Struct, fieldRef{Start: assign.Start, Size: assign.Struct.Size}, parts[1:])
	if err != nil {
		return
	}

	token = registerName(ref.Start, ref.Size) + ref.Bit
	return
}

// rewriteTerms applies rewriteTerm to every operand.
func (s *session) rewriteTerms(terms []string) (out []string, err error) {
	out = make([]string, len(terms))
	for n, term := range terms {
		out[n], err = s.rewriteTerm(term)
		if err != nil {
			return
		}
	}
	return
}
