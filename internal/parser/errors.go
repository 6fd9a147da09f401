package parser

import "fmt"

// Error is a parse failure at a source line.
type Error struct {
	Message    string
	DocID      string
	LineNumber int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.DocID, e.LineNumber, e.Message)
}

func (st *parserState) errorf(line int, format string, args ...any) error {
	return &Error{
		Message:    fmt.Sprintf(format, args...),
		DocID:      st.docID,
		LineNumber: line,
	}
}
