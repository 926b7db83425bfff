package compiler

import "fmt"

// CompileError reports the first problem found in a routine's source.
type CompileError struct {
	Line    int
	Column  int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d column %d: %s", e.Line, e.Column, e.Message)
}

func errorAt(pos Position, format string, args ...any) *CompileError {
	return &CompileError{Line: pos.Line, Column: pos.Column, Message: fmt.Sprintf(format, args...)}
}

// bailout carries a CompileError out of deep recursion; it is recovered at the entry points.
type bailout struct {
	err *CompileError
}

func fail(pos Position, format string, args ...any) {
	panic(bailout{err: errorAt(pos, format, args...)})
}

// catch converts a bailout panic into an error and re-panics anything else.
func catch(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}
