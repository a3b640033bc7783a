package capture

// ignoreStack is the session-local suppression stack. Rule names are pushed
// before operations that must not generate audit noise and popped afterward.
//
// The stack is LIFO per name, not globally: independently suppressed rules
// may be popped in any order, and nested suppressions of the same name
// compose (two pushes need two pops).
//
// Not safe for concurrent use; a session is single-threaded by contract.
type ignoreStack struct {
	names []string
}

// push adds one suppression entry for name.
func (s *ignoreStack) push(name string) {
	s.names = append(s.names, name)
}

// pop removes the most recent entry for name. Popping a name that is not on
// the stack is a no-op, never a failure: callers defensively unsuppress
// without tracking exact nesting.
func (s *ignoreStack) pop(name string) {
	for i := len(s.names) - 1; i >= 0; i-- {
		if s.names[i] == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			return
		}
	}
}

// contains reports whether name has at least one entry on the stack.
func (s *ignoreStack) contains(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// snapshot copies the current stack for restore-on-exit.
func (s *ignoreStack) snapshot() []string {
	return append([]string(nil), s.names...)
}

// restore replaces the stack with a previously taken snapshot.
func (s *ignoreStack) restore(names []string) {
	s.names = names
}
