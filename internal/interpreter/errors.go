package interpreter

import (
	"errors"
	"fmt"
)

// Category classifies interpreter failures.
type Category string

const (
	KindError        Category = "KindError"
	ResolutionError  Category = "ResolutionError"
	MutationError    Category = "MutationError"
	InterpreterError Category = "InterpreterError"
)

// Sentinel errors wrapped by Error; test with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotMutable       = errors.New("not mutable")
	ErrKindMismatch     = errors.New("kind mismatch")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrCyclicDefinition = errors.New("cyclic definition")
	ErrDuplicate        = errors.New("duplicate definition")
)

// Error is a failure at a source position.
type Error struct {
	Category   Category
	Message    string
	DocID      string
	LineNumber int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.DocID, e.LineNumber, e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(category Category, docID string, line int, format string, args ...any) *Error {
	return &Error{
		Category:   category,
		Message:    fmt.Sprintf(format, args...),
		DocID:      docID,
		LineNumber: line,
	}
}

func wrapError(category Category, sentinel error, docID string, line int, format string, args ...any) *Error {
	e := newError(category, docID, line, format, args...)
	e.Err = sentinel
	return e
}

func notFound(docID string, line int, name string) *Error {
	return wrapError(ResolutionError, ErrNotFound, docID, line, "%s not found", name)
}

func kindMismatch(docID string, line int, expected, found Kind) *Error {
	return wrapError(KindError, ErrKindMismatch, docID, line, "expected %s, found %s", expected, found)
}

// stuckKind is the reason a conversion could not finish.
type stuckKind int

const (
	stuckOnImport stuckKind = iota
	stuckOnForeignVariable
	stuckOnProcessor
)

// stuckError carries a suspension up through conversion code. The driver
// turns it into an Interpretation state; it never reaches callers.
type stuckError struct {
	kind      stuckKind
	module    string
	variable  string // fully qualified
	processor string
	line      int
}

func (e *stuckError) Error() string {
	switch e.kind {
	case stuckOnImport:
		return fmt.Sprintf("waiting for module %s", e.module)
	case stuckOnForeignVariable:
		return fmt.Sprintf("waiting for foreign variable %s", e.variable)
	}
	return fmt.Sprintf("waiting for processor %s of %s", e.processor, e.variable)
}
