package dbus

// maxContainerDepth is the maximum number of containers that can be
// open at once while encoding or decoding.
const maxContainerDepth = 128

// stack is a fixed capacity stack of container contexts.
//
// The encoder and decoder keep their current context in a local
// variable, and use the stack to hold the contexts of the enclosing
// containers.
type stack[F any] struct {
	frames [maxContainerDepth]F
	n      int
}

// Len returns the number of frames on the stack.
func (s *stack[F]) Len() int { return s.n }

// Full reports whether another Push would fail.
func (s *stack[F]) Full() bool { return s.n == len(s.frames) }

// Push adds f to the top of the stack. It returns a [DepthError] if
// the stack is full.
func (s *stack[F]) Push(f F) error {
	if s.Full() {
		return DepthError{"container", maxContainerDepth}
	}
	s.frames[s.n] = f
	s.n++
	return nil
}

// Pop removes and returns the top frame. ok is false if the stack
// is empty.
func (s *stack[F]) Pop() (f F, ok bool) {
	if s.n == 0 {
		return f, false
	}
	s.n--
	f = s.frames[s.n]
	var zero F
	s.frames[s.n] = zero
	return f, true
}
