package main

// Scope is a stack of frames mapping declared names to a type tag.
// A frame is pushed for each function and for each nested C block
// (loop and handler bodies), since C declarations end with their block.
type Scope struct {
	frames []map[string]string
}

const (
	typeValue      = "Value"
	typeValueArray = "Value*"
)

func NewScope() *Scope {
	s := &Scope{}
	s.Enter()
	return s
}

func (s *Scope) Enter() {
	s.frames = append(s.frames, make(map[string]string))
}

func (s *Scope) Leave() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Declare records name in the innermost frame.
func (s *Scope) Declare(name, typ string) {
	if len(s.frames) == 0 {
		panic("Declare called with no open frame")
	}
	s.frames[len(s.frames)-1][name] = typ
}

// Lookup searches frames from innermost to outermost.
func (s *Scope) Lookup(name string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if typ, ok := s.frames[i][name]; ok {
			return typ, true
		}
	}
	return "", false
}

// Depth is the number of open frames.
func (s *Scope) Depth() int {
	return len(s.frames)
}
