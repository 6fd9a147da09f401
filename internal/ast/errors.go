package ast

import "fmt"

// ErrorKind classifies AST failures.
type ErrorKind string

const (
	InvalidDeclaration ErrorKind = "InvalidDeclaration"
	AmbiguousKind      ErrorKind = "AmbiguousKind"
)

// Error is a section that could not be turned into an AST item.
type Error struct {
	Kind       ErrorKind
	Message    string
	DocID      string
	LineNumber int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.DocID, e.LineNumber, e.Kind, e.Message)
}

func newError(kind ErrorKind, docID string, line int, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		DocID:      docID,
		LineNumber: line,
	}
}
