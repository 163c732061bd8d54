package asm

const (
	COND_LIMIT = 16 // Maximum #ifdef nesting depth
)

// condFrame is one level of #ifdef / #ifndef.
type condFrame struct {
	Active   bool // Lines in this frame are processed.
	Parent   bool // The enclosing frame was active.
	ElseSeen bool // #else has been used in this frame.
}

// condStack tracks conditional assembly.
type condStack struct {
	Data []condFrame
}

// Push opens a new frame whose own condition is cond.
func (s *condStack) Push(cond bool) (err error) {
	if s.Full() {
		err = ErrCondDepth
		return
	}
	parent := s.Active()
	s.Data = append(s.Data, condFrame{Active: parent && cond, Parent: parent})
	return
}

// Else flips the innermost frame.
func (s *condStack) Else() (err error) {
	if s.Empty() {
		err = ErrElseLonely
		return
	}
	top := &s.Data[len(s.Data)-1]
	if top.ElseSeen {
		err = ErrElseRepeat
		return
	}
	top.ElseSeen = true
	top.Active = top.Parent && !top.Active
	return
}

// Pop closes the innermost frame.
func (s *condStack) Pop() (frame condFrame, ok bool) {
	frame, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *condStack) Empty() bool {
	return len(s.Data) == 0
}

func (s *condStack) Full() bool {
	return len(s.Data) == COND_LIMIT
}

func (s *condStack) Depth() int {
	return len(s.Data)
}

func (s *condStack) Peek() (frame condFrame, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

// Active is true when lines should be processed.
func (s *condStack) Active() bool {
	frame, ok := s.Peek()
	return !ok || frame.Active
}

// Truncate drops frames above depth.
func (s *condStack) Truncate(depth int) {
	if depth < len(s.Data) {
		s.Data = s.Data[:depth]
	}
}
