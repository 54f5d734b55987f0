package tabular

import (
	"errors"
	"fmt"
)

// ErrNoHeader is returned when the input holds no records at all.
var ErrNoHeader = errors.New("no header: input is empty")

// SyntaxError reports malformed quoting or header structure at a record.
type SyntaxError struct {
	Row int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Msg)
}

// FieldCountError reports a record whose width differs from the header.
type FieldCountError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("row %d: field count mismatch: expected %d, got %d", e.Row, e.Expected, e.Actual)
}
