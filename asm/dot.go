package asm

import (
	"strings"

	"github.com/ezrec/pasm/pru"
)

// dot handles a '.' directive outside of macro and struct definitions.
func (s *session) dot(command string, terms []string) (err error) {
	switch command {
	case ".origin":
		return s.origin(terms)
	case ".entrypoint":
		return s.entrypoint(terms)
	case ".setcallreg":
		return s.setCallReg(terms)
	case ".codeword":
		return s.codeword(terms)
	case ".struct":
		return s.beginStruct(terms)
	case ".assign":
		return s.assign(terms)
	case ".enter":
		return s.enter(terms)
	case ".leave":
		return s.leave(terms)
	case ".using":
		return s.use(terms)
	case ".ends":
		return ErrStructLonely
	case ".u8", ".u16", ".u32":
		return ErrFieldOutside
	case ".endm":
		return ErrMacroLonelyEndm
	case ".mparam":
		return ErrMacroParamOutside
	}

	return &ErrUnknown{Kind: f("directive"), Name: command}
}

// address evaluates a single code address operand.
func (s *session) address(terms []string) (addr uint32, err error) {
	if len(terms) != 1 {
		err = ErrDirectiveArgs
		return
	}
	text, err := s.rewriteTerm(terms[0])
	if err != nil {
		return
	}
	addr, err = s.eval(text)
	if err != nil {
		return
	}
	if addr >= CODE_LIMIT {
		err = &pru.ErrRange{What: f("code address"), Value: int64(addr), Min: 0, Max: CODE_LIMIT - 1}
	}
	return
}

// origin handles .origin: moves the code cursor forward.
func (s *session) origin(terms []string) (err error) {
	addr, err := s.address(terms)
	if err != nil {
		return
	}
	if s.cursor < 0 {
		s.seed(addr)
		return
	}
	if int64(addr) < s.cursor {
		return ErrOriginBackward
	}
	s.cursor = int64(addr)
	return
}

// entrypoint handles .entrypoint.
func (s *session) entrypoint(terms []string) (err error) {
	addr, err := s.address(terms)
	if err != nil {
		return
	}
	if s.cursor < 0 {
		s.seed(addr)
	}
	s.entry = addr
	s.entrySet = true
	return
}

// setCallReg handles .setcallreg: the CALL and RET return register.
func (s *session) setCallReg(terms []string) (err error) {
	if len(terms) != 1 {
		return ErrDirectiveArgs
	}
	text, err := s.rewriteTerm(terms[0])
	if err != nil {
		return
	}
	reg, err := pru.ParseRegister(text)
	if err != nil {
		return
	}
	if reg.HasBit() || reg.Width() != 2 {
		return ErrCallReg
	}
	s.enc.CallReg = reg
	return
}

// codeword handles .codeword: raw words at the cursor.
func (s *session) codeword(terms []string) (err error) {
	if len(terms) == 0 {
		return ErrDirectiveArgs
	}
	codes := make([]uint32, len(terms))
	for n, term := range terms {
		var text string
		text, err = s.rewriteTerm(term)
		if err != nil {
			return
		}
		codes[n], err = s.eval(text)
		if err != nil {
			return
		}
	}
	return s.emit(s.file, ".codeword "+strings.Join(terms, ", "), codes, true)
}
