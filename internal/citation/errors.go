package citation

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against a *ParseError.
var (
	ErrMalformedAuthor = errors.New("malformed author field")
	ErrMalformedYear   = errors.New("malformed year field")
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	MalformedAuthorField ErrorKind = iota + 1
	MalformedYearField
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedAuthorField:
		return "MalformedAuthorField"
	case MalformedYearField:
		return "MalformedYearField"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError reports where in a source string parsing stopped.
type ParseError struct {
	Kind  ErrorKind
	Input string // Preprocessed input
	Pos   int    // Byte offset into Input
}

func (e *ParseError) Error() string {
	rest := e.Input[e.Pos:]
	if len(rest) > 30 {
		rest = rest[:27] + "..."
	}
	return fmt.Sprintf("%v at offset %d in %q (near %q)", e.Unwrap(), e.Pos, e.Input, rest)
}

func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case MalformedAuthorField:
		return ErrMalformedAuthor
	case MalformedYearField:
		return ErrMalformedYear
	default:
		return nil
	}
}
