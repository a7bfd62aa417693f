package vm

import "fmt"

// RuntimeError carries the source line it occurred at, looked up from the
// chunk's line table at the instruction that raised it, so a failure deep
// inside compiled bytecode still points back at a line of source.
type RuntimeError struct {
	Line    int32
	Message string
}

func (e RuntimeError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("💥 Lox Runtime error: %s", e.Message)
	}
	return fmt.Sprintf("💥 Lox Runtime error:\nline:%d - %s", e.Line, e.Message)
}
