package runtime

import "fmt"

// Error is a Lox runtime error: a failed operation paired with the source
// line it occurred on. The message/line split, and the "message\n[line N]"
// rendering, follows the classic jlox RuntimeError wording the test suite
// checks for.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s\n[line %d]", e.Message, e.Line) }

func newError(line int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}
