package pipeline

import (
	"errors"
	"fmt"
)

// ErrUnsupportedOperation is matched by every UnsupportedOperationError.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// UnsupportedOperationError reports an opcode or ALU operation that has no
// mapping in the control unit or the execute stage.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %q", e.Op)
}

// Is reports whether target is ErrUnsupportedOperation.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}
