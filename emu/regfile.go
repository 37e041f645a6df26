// Package emu provides the architectural state of the simulated RISC-V
// processor: the integer register file and word-addressed memories.
package emu

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rvpipe/insts"
)

// RegFile represents the RV32 integer register file.
// It contains 32 registers; x0 always reads as 0.
type RegFile struct {
	// X holds registers x0-x31. X[0] is never written.
	X [insts.NumRegs]uint32
}

// NewRegFile creates a zeroed register file.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// ReadReg reads a register value. x0 and RegNone return 0.
func (r *RegFile) ReadReg(reg insts.Reg) uint32 {
	if !reg.Valid() || reg == insts.X0 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to x0 and RegNone are
// ignored.
func (r *RegFile) WriteReg(reg insts.Reg, value uint32) {
	if !reg.Valid() || reg == insts.X0 {
		return
	}
	r.X[reg] = value
}

// Read reads a register by name. Both xN and ABI names are accepted.
func (r *RegFile) Read(name string) (uint32, error) {
	reg, err := lookupReg(name)
	if err != nil {
		return 0, err
	}
	return r.ReadReg(reg), nil
}

// Write writes a register by name. Writing x0 is a no-op, not an error.
func (r *RegFile) Write(name string, value uint32) error {
	reg, err := lookupReg(name)
	if err != nil {
		return err
	}
	r.WriteReg(reg, value)
	return nil
}

func lookupReg(name string) (insts.Reg, error) {
	reg, ok := insts.ParseReg(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return insts.RegNone, &RegisterError{Name: name}
	}
	return reg, nil
}

// Dump returns a copy of all registers, indexed by register number.
func (r *RegFile) Dump() [insts.NumRegs]uint32 {
	return r.X
}

// Reset zeroes every register.
func (r *RegFile) Reset() {
	r.X = [insts.NumRegs]uint32{}
}

// String renders one register per line.
func (r *RegFile) String() string {
	var b strings.Builder
	for i, v := range r.X {
		fmt.Fprintf(&b, "x%-2d = %#010x (%d)\n", i, v, int32(v))
	}
	return b.String()
}
