package executor

import "fmt"

// Error is a failure while building the element tree.
type Error struct {
	DocID      string
	LineNumber int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: ExecutorError: %s: %v", e.DocID, e.LineNumber, e.Message, e.Err)
	}
	return fmt.Sprintf("%s:%d: ExecutorError: %s", e.DocID, e.LineNumber, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
