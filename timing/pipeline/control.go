package pipeline

import (
	"fmt"

	"github.com/sarchlab/rvpipe/insts"
)

// ALUOp selects the operation the execute stage performs.
type ALUOp uint8

// ALU operations.
const (
	ALUAdd ALUOp = iota
	ALUSub
	ALUAnd
	ALUOr
	ALUXor
	ALUSlt
	ALUSll
	ALUSrl
	ALUSra
	ALULui
	ALUAuipc
	ALULink // pc + 4, the return address of jal and jalr
	numALUOps
)

var aluOpNames = [numALUOps]string{
	ALUAdd:   "ADD",
	ALUSub:   "SUB",
	ALUAnd:   "AND",
	ALUOr:    "OR",
	ALUXor:   "XOR",
	ALUSlt:   "SLT",
	ALUSll:   "SLL",
	ALUSrl:   "SRL",
	ALUSra:   "SRA",
	ALULui:   "LUI",
	ALUAuipc: "AUIPC",
	ALULink:  "LINK",
}

func (op ALUOp) String() string {
	if op < numALUOps {
		return aluOpNames[op]
	}
	return fmt.Sprintf("ALUOp(%d)", uint8(op))
}

// ControlSignals are the per-instruction signals derived from the opcode.
type ControlSignals struct {
	RegWrite bool // Write the result to rd
	MemRead  bool // Load from data memory
	MemWrite bool // Store to data memory
	MemToReg bool // Write-back source is memory data
	ALUSrc   bool // Second ALU operand is the immediate
	Branch   bool // Conditional branch
	Jump     bool // Unconditional jump (jal, jalr)
	ALUOp    ALUOp
}

type controlEntry struct {
	defined bool
	signals ControlSignals
}

func aluR(op ALUOp) controlEntry {
	return controlEntry{true, ControlSignals{RegWrite: true, ALUOp: op}}
}

func aluI(op ALUOp) controlEntry {
	return controlEntry{true, ControlSignals{RegWrite: true, ALUSrc: true, ALUOp: op}}
}

func branch() controlEntry {
	return controlEntry{true, ControlSignals{Branch: true, ALUOp: ALUSub}}
}

// controlTable is indexed by opcode. An opcode without an entry is
// rejected at run time and by the package tests.
var controlTable = [insts.NumOps]controlEntry{
	insts.OpNOP: {defined: true},

	insts.OpADD: aluR(ALUAdd),
	insts.OpSUB: aluR(ALUSub),
	insts.OpAND: aluR(ALUAnd),
	insts.OpOR:  aluR(ALUOr),
	insts.OpXOR: aluR(ALUXor),
	insts.OpSLT: aluR(ALUSlt),
	insts.OpSLL: aluR(ALUSll),
	insts.OpSRL: aluR(ALUSrl),
	insts.OpSRA: aluR(ALUSra),

	insts.OpADDI: aluI(ALUAdd),
	insts.OpANDI: aluI(ALUAnd),
	insts.OpORI:  aluI(ALUOr),
	insts.OpSLTI: aluI(ALUSlt),
	insts.OpSLLI: aluI(ALUSll),
	insts.OpSRLI: aluI(ALUSrl),
	insts.OpSRAI: aluI(ALUSra),

	insts.OpLW: {true, ControlSignals{
		RegWrite: true, MemRead: true, MemToReg: true, ALUSrc: true, ALUOp: ALUAdd,
	}},
	insts.OpSW: {true, ControlSignals{MemWrite: true, ALUSrc: true, ALUOp: ALUAdd}},

	insts.OpBEQ:  branch(),
	insts.OpBNE:  branch(),
	insts.OpBLT:  branch(),
	insts.OpBGE:  branch(),
	insts.OpBLTU: branch(),
	insts.OpBGEU: branch(),

	insts.OpJAL:  {true, ControlSignals{RegWrite: true, Jump: true, ALUOp: ALULink}},
	insts.OpJALR: {true, ControlSignals{RegWrite: true, Jump: true, ALUSrc: true, ALUOp: ALULink}},

	insts.OpLUI:   {true, ControlSignals{RegWrite: true, ALUSrc: true, ALUOp: ALULui}},
	insts.OpAUIPC: {true, ControlSignals{RegWrite: true, ALUSrc: true, ALUOp: ALUAuipc}},
}

// ControlUnit maps opcodes to control signals. It holds no state.
type ControlUnit struct{}

// NewControlUnit creates a new control unit.
func NewControlUnit() *ControlUnit {
	return &ControlUnit{}
}

// Signals returns the control signals for op.
func (c *ControlUnit) Signals(op insts.Op) (ControlSignals, error) {
	if !op.Valid() || !controlTable[op].defined {
		return ControlSignals{}, &UnsupportedOperationError{Op: op.String()}
	}
	return controlTable[op].signals, nil
}

// GenerateSignals returns the control signals for an opcode given as text.
// "nop" is accepted and yields all signals off.
func (c *ControlUnit) GenerateSignals(mnemonic string) (ControlSignals, error) {
	if mnemonic == insts.OpNOP.String() {
		return c.Signals(insts.OpNOP)
	}

	op, ok := insts.ParseOp(mnemonic)
	if !ok {
		return ControlSignals{}, &UnsupportedOperationError{Op: mnemonic}
	}
	return c.Signals(op)
}
