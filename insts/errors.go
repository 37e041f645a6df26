package insts

import (
	"errors"
	"fmt"
)

// ErrDecode is the sentinel matched by every DecodeError.
var ErrDecode = errors.New("decode error")

// DecodeError reports an unrecognized opcode or malformed operand syntax.
type DecodeError struct {
	Line   string
	Addr   uint32
	Reason string
}

func decodeErr(line string, addr uint32, format string, args ...any) *DecodeError {
	return &DecodeError{
		Line:   line,
		Addr:   addr,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q at %#x: %s", e.Line, e.Addr, e.Reason)
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
