package resolver

import "fmt"

// ResolutionError describes a static binding problem found while walking the
// AST before execution: a duplicate declaration, a self-referencing
// initializer, a `return` outside of a function, and so on.
type ResolutionError struct {
	Line    int32
	Column  int
	Message string
}

func CreateResolutionError(line int32, column int, message string) ResolutionError {
	return ResolutionError{
		Line:    line,
		Column:  column,
		Message: message,
	}
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("💥 Lox Resolution error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}
