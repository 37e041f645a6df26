// Package pipeline provides the stages, boundary registers, and hazard and
// branch policies of a classic 5-stage in-order RISC-V pipeline.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rvpipe/insts"
)

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Inst is the fetched instruction, a nop for an empty slot.
	Inst *insts.Instruction

	// PC is the program counter of the fetched instruction.
	PC uint32
}

// Clear resets the IF/ID register to a nop at pc.
func (r *IFIDRegister) Clear(pc uint32) {
	*r = IFIDRegister{Inst: insts.NOP(pc), PC: pc}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// PC is the program counter of the instruction.
	PC uint32

	// Register values read at decode, after forwarding.
	Rs1Value uint32
	Rs2Value uint32

	Imm int32
	Rd  insts.Reg

	// Control holds the signals generated for the opcode.
	Control ControlSignals

	// Forward records which operands were forwarded at decode.
	Forward ForwardingResult

	// Branch prediction made at decode.
	PredictedTaken  bool
	PredictedTarget uint32
}

// Clear resets the ID/EX register to a nop at pc.
func (r *IDEXRegister) Clear(pc uint32) {
	*r = IDEXRegister{Inst: insts.NOP(pc), PC: pc, Rd: insts.RegNone}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Inst is the executed instruction.
	Inst *insts.Instruction

	// PC is the program counter of the instruction.
	PC uint32

	// ALUResult is the effective address for loads and stores, the return
	// address for jumps, and the result otherwise.
	ALUResult uint32

	// StoreValue is the rs2 value for stores.
	StoreValue uint32

	Rd      insts.Reg
	Control ControlSignals

	// Bypassed is set when an operand came from the previous EX/MEM record.
	Bypassed bool

	// Branch resolution.
	Resolved       bool // A predicted branch or jal was resolved
	PredictedTaken bool
	BranchTaken    bool
	TargetAddress  uint32
	FlushRequired  bool
}

// Clear resets the EX/MEM register to a nop at pc.
func (r *EXMEMRegister) Clear(pc uint32) {
	*r = EXMEMRegister{Inst: insts.NOP(pc), PC: pc, Rd: insts.RegNone}
}

// Redirect returns the fetch redirect this record requests, if any. A
// taken branch goes to its target; a predicted-taken branch that fell
// through goes back to pc+4.
func (r *EXMEMRegister) Redirect() (uint32, bool) {
	if !r.FlushRequired {
		return 0, false
	}
	if r.BranchTaken {
		return r.TargetAddress, true
	}
	return r.PC + 4, true
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// Inst is the instruction.
	Inst *insts.Instruction

	// PC is the program counter of the instruction.
	PC uint32

	// ALU result (for ALU instructions).
	ALUResult uint32

	// Data read from memory (for load instructions).
	MemData uint32

	Rd      insts.Reg
	Control ControlSignals
}

// Clear resets the MEM/WB register to a nop at pc.
func (r *MEMWBRegister) Clear(pc uint32) {
	*r = MEMWBRegister{Inst: insts.NOP(pc), PC: pc, Rd: insts.RegNone}
}

// WritesBack returns true if the record writes a register.
func (r *MEMWBRegister) WritesBack() bool {
	return r.Control.RegWrite && r.Rd.Valid() && r.Rd != insts.X0
}

// WriteBackValue returns the value the record writes to rd.
func (r *MEMWBRegister) WriteBackValue() uint32 {
	if r.Control.MemToReg {
		return r.MemData
	}
	return r.ALUResult
}

// Registers holds the four boundary registers of the pipeline.
type Registers struct {
	IFID  IFIDRegister
	IDEX  IDEXRegister
	EXMEM EXMEMRegister
	MEMWB MEMWBRegister
}

// NewRegisters creates boundary registers that all hold nops.
func NewRegisters() *Registers {
	r := &Registers{}
	r.Reset()
	return r
}

// Reset sets every boundary register to a nop at address 0.
func (r *Registers) Reset() {
	r.IFID.Clear(0)
	r.IDEX.Clear(0)
	r.EXMEM.Clear(0)
	r.MEMWB.Clear(0)
}

// Shift latches the outputs of one cycle: each record moves one boundary
// down the pipeline as its stage's output.
func (r *Registers) Shift(
	fetched IFIDRegister,
	decoded IDEXRegister,
	executed EXMEMRegister,
	accessed MEMWBRegister,
) {
	r.MEMWB = accessed
	r.EXMEM = executed
	r.IDEX = decoded
	r.IFID = fetched
}

// InsertStall latches a cycle with a bubble: EX/MEM and MEM/WB advance,
// ID/EX becomes a nop carrying the IF/ID pc, and IF/ID is held so the same
// instruction is decoded again.
func (r *Registers) InsertStall(executed EXMEMRegister, accessed MEMWBRegister) {
	r.MEMWB = accessed
	r.EXMEM = executed
	r.IDEX.Clear(r.IFID.PC)
}

// Flush discards the two youngest records. EX/MEM and MEM/WB are untouched.
func (r *Registers) Flush() {
	r.IFID.Clear(r.IFID.PC)
	r.IDEX.Clear(r.IDEX.PC)
}

// Drained returns true if all four records hold nops.
func (r *Registers) Drained() bool {
	return r.IFID.Inst.IsNop() &&
		r.IDEX.Inst.IsNop() &&
		r.EXMEM.Inst.IsNop() &&
		r.MEMWB.Inst.IsNop()
}

// Dump returns a point-in-time copy of the four records.
func (r *Registers) Dump() Snapshot {
	return Snapshot{
		IFID:  r.IFID,
		IDEX:  r.IDEX,
		EXMEM: r.EXMEM,
		MEMWB: r.MEMWB,
	}
}

// Snapshot is a value copy of the boundary registers. Instructions are
// shared, which is safe since they are never mutated.
type Snapshot struct {
	IFID  IFIDRegister
	IDEX  IDEXRegister
	EXMEM EXMEMRegister
	MEMWB MEMWBRegister
}

// String renders one line per boundary.
func (s Snapshot) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "IF/ID  %-28s\n", s.IFID.Inst)

	fmt.Fprintf(&b, "ID/EX  %-28s rs1=%d rs2=%d imm=%d fwd=%s/%s",
		s.IDEX.Inst, int32(s.IDEX.Rs1Value), int32(s.IDEX.Rs2Value), s.IDEX.Imm,
		s.IDEX.Forward.Rs1, s.IDEX.Forward.Rs2)
	if s.IDEX.PredictedTaken {
		fmt.Fprintf(&b, " predicted->%#x", s.IDEX.PredictedTarget)
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "EX/MEM %-28s alu=%d", s.EXMEM.Inst, int32(s.EXMEM.ALUResult))
	if s.EXMEM.Resolved || s.EXMEM.Control.Jump {
		fmt.Fprintf(&b, " taken=%t target=%#x flush=%t",
			s.EXMEM.BranchTaken, s.EXMEM.TargetAddress, s.EXMEM.FlushRequired)
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "MEM/WB %-28s", s.MEMWB.Inst)
	if s.MEMWB.WritesBack() {
		fmt.Fprintf(&b, " %s<-%d", s.MEMWB.Rd, int32(s.MEMWB.WriteBackValue()))
	}
	b.WriteByte('\n')

	return b.String()
}
