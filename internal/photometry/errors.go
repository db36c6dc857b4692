package photometry

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is wrapped by every error New returns for data that breaks
// the model invariants.
var ErrInvalidModel = errors.New("invalid luminaire data")

// ParseError reports input that does not follow the grammar of a photometric
// file format. Line is 1-based; zero means the problem is not tied to a line.
type ParseError struct {
	Format string // "LDT" or "IES"
	Line   int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var s string
	if e.Line > 0 {
		s = fmt.Sprintf("%s parse error at line %d: %s", e.Format, e.Line, e.Msg)
	} else {
		s = fmt.Sprintf("%s parse error: %s", e.Format, e.Msg)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError builds a ParseError with a formatted message.
func NewParseError(format string, line int, msg string, args ...any) *ParseError {
	return &ParseError{Format: format, Line: line, Msg: fmt.Sprintf(msg, args...)}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidModel, fmt.Sprintf(format, args...))
}
