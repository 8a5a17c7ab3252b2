package thread

import (
	"errors"
	"fmt"
)

var (
	// ErrBadOperand is returned when a jump-target operand is not an integer.
	ErrBadOperand = errors.New("jump target is not a number")
	// ErrUnknownLabel is returned when a jump target names a position that
	// holds no label.
	ErrUnknownLabel = errors.New("jump target is not a label position")
)

// RewriteError reports the stream position of a failed rewrite.
type RewriteError struct {
	Pos   int
	Token string
	Err   error

	cause error
}

func (e *RewriteError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("token %d (%q): %v: %v", e.Pos, e.Token, e.Err, e.cause)
	}
	return fmt.Sprintf("token %d (%q): %v", e.Pos, e.Token, e.Err)
}

func (e *RewriteError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}
