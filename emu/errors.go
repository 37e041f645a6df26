package emu

import (
	"errors"
	"fmt"
)

var (
	// ErrRegister is matched by every RegisterError.
	ErrRegister = errors.New("register error")

	// ErrAddress is matched by every AddressError.
	ErrAddress = errors.New("memory access error")
)

// RegisterError reports a register name outside x0..x31 and the ABI names.
type RegisterError struct {
	Name string
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("unknown register %q", e.Name)
}

// Is reports whether target is ErrRegister.
func (e *RegisterError) Is(target error) bool {
	return target == ErrRegister
}

// AddressError reports a misaligned or out-of-range memory access.
type AddressError struct {
	Addr   uint32
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address %#x: %s", e.Addr, e.Reason)
}

// Is reports whether target is ErrAddress.
func (e *AddressError) Is(target error) bool {
	return target == ErrAddress
}
