// Package insts provides RISC-V instruction definitions and decoding.
//
// This package turns one line of assembly text, plus the address it is
// loaded at, into a typed Instruction. It supports:
//   - R-type: add, sub, and, or, xor, slt, sll, srl, sra
//   - I-type: addi, andi, ori, slti, slli, srli, srai, lw, jalr
//   - S-type: sw
//   - B-type: beq, bne, blt, bge, bltu, bgeu
//   - J-type: jal
//   - U-type: lui, auipc
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("addi x1, x2, 10", 0)
//	fmt.Printf("Op: %v, Rd: %v, Rs1: %v, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts

import "fmt"

// Op represents a RISC-V opcode.
type Op uint8

// RISC-V opcodes. OpNOP is the synthetic opcode that fills empty pipeline
// slots; it never comes out of Decode.
const (
	OpNOP Op = iota

	// R-type
	OpADD
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpSLT
	OpSLL
	OpSRL
	OpSRA

	// I-type arithmetic
	OpADDI
	OpANDI
	OpORI
	OpSLTI
	OpSLLI
	OpSRLI
	OpSRAI

	// I-type load and register jump
	OpLW
	OpJALR

	// S-type
	OpSW

	// B-type
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// J-type
	OpJAL

	// U-type
	OpLUI
	OpAUIPC

	numOps
)

// Kind represents an instruction format.
type Kind uint8

// Instruction formats. KindInvalid marks anything that did not decode,
// including the synthetic nop.
const (
	KindInvalid Kind = iota
	KindR
	KindI
	KindS
	KindB
	KindJ
	KindU
)

var kindNames = [...]string{
	KindInvalid: "Invalid",
	KindR:       "R",
	KindI:       "I",
	KindS:       "S",
	KindB:       "B",
	KindJ:       "J",
	KindU:       "U",
}

// String returns the format letter.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type opInfo struct {
	mnemonic string
	kind     Kind
}

// opTable maps every opcode to its mnemonic and format. The array is sized
// by numOps so that adding an opcode without a table entry leaves a zero
// entry that the package tests reject.
var opTable = [numOps]opInfo{
	OpNOP:   {"nop", KindInvalid},
	OpADD:   {"add", KindR},
	OpSUB:   {"sub", KindR},
	OpAND:   {"and", KindR},
	OpOR:    {"or", KindR},
	OpXOR:   {"xor", KindR},
	OpSLT:   {"slt", KindR},
	OpSLL:   {"sll", KindR},
	OpSRL:   {"srl", KindR},
	OpSRA:   {"sra", KindR},
	OpADDI:  {"addi", KindI},
	OpANDI:  {"andi", KindI},
	OpORI:   {"ori", KindI},
	OpSLTI:  {"slti", KindI},
	OpSLLI:  {"slli", KindI},
	OpSRLI:  {"srli", KindI},
	OpSRAI:  {"srai", KindI},
	OpLW:    {"lw", KindI},
	OpJALR:  {"jalr", KindI},
	OpSW:    {"sw", KindS},
	OpBEQ:   {"beq", KindB},
	OpBNE:   {"bne", KindB},
	OpBLT:   {"blt", KindB},
	OpBGE:   {"bge", KindB},
	OpBLTU:  {"bltu", KindB},
	OpBGEU:  {"bgeu", KindB},
	OpJAL:   {"jal", KindJ},
	OpLUI:   {"lui", KindU},
	OpAUIPC: {"auipc", KindU},
}

var opByMnemonic = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for op := OpNOP + 1; op < numOps; op++ {
		m[opTable[op].mnemonic] = op
	}
	return m
}()

// NumOps is the number of defined opcodes, including OpNOP.
const NumOps = int(numOps)

// ParseOp converts external opcode text into an Op. The synthetic nop is
// not accepted.
func ParseOp(mnemonic string) (Op, bool) {
	op, ok := opByMnemonic[mnemonic]
	return op, ok
}

// String returns the assembly mnemonic.
func (o Op) String() string {
	if o < numOps {
		return opTable[o].mnemonic
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Kind returns the format the opcode is encoded in.
func (o Op) Kind() Kind {
	if o < numOps {
		return opTable[o].kind
	}
	return KindInvalid
}

// Valid returns true if o is one of the defined opcodes.
func (o Op) Valid() bool {
	return o < numOps
}

// Reg identifies one of the 32 integer registers.
type Reg uint8

// RegNone marks an operand field the instruction format does not use.
const RegNone Reg = 0xFF

// X0 is the hard-wired zero register.
const X0 Reg = 0

// NumRegs is the number of integer registers.
const NumRegs = 32

var abiNames = map[string]Reg{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// ParseReg parses a register name. Both xN names and ABI names are accepted.
func ParseReg(name string) (Reg, bool) {
	if r, ok := abiNames[name]; ok {
		return r, true
	}

	if len(name) < 2 || len(name) > 3 || name[0] != 'x' {
		return RegNone, false
	}
	// Reject leading zeros such as "x01".
	if len(name) == 3 && name[1] == '0' {
		return RegNone, false
	}

	n := 0
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return RegNone, false
		}
		n = n*10 + int(c-'0')
	}
	if n >= NumRegs {
		return RegNone, false
	}
	return Reg(n), true
}

// Valid returns true for x0..x31.
func (r Reg) Valid() bool {
	return r < NumRegs
}

// String returns the canonical xN name, or "-" for RegNone.
func (r Reg) String() string {
	if !r.Valid() {
		return "-"
	}
	return fmt.Sprintf("x%d", uint8(r))
}

// Instruction represents a decoded RISC-V instruction. It is never mutated
// once Decode returns it.
type Instruction struct {
	Addr uint32 // Address the instruction was loaded at
	Op   Op     // Operation code
	Kind Kind   // Encoding format

	Rd  Reg // Destination register, RegNone if unused
	Rs1 Reg // First source register, RegNone if unused
	Rs2 Reg // Second source register, RegNone if unused

	// Immediate operand
	Imm    int32 // Immediate value
	HasImm bool  // true if the format carries an immediate

	Text string // Source text as given
}

// NOP returns the synthetic no-op used to fill empty pipeline slots.
func NOP(addr uint32) *Instruction {
	return &Instruction{
		Addr: addr,
		Op:   OpNOP,
		Kind: KindInvalid,
		Rd:   RegNone,
		Rs1:  RegNone,
		Rs2:  RegNone,
		Text: "nop",
	}
}

// IsNop returns true for the synthetic no-op. A nil instruction is a no-op.
func (i *Instruction) IsNop() bool {
	return i == nil || i.Op == OpNOP
}

// IsValid returns true if decoding succeeded.
func (i *Instruction) IsValid() bool {
	return i != nil && i.Kind != KindInvalid
}

// IsBranch returns true for conditional branches.
func (i *Instruction) IsBranch() bool {
	return i != nil && i.Kind == KindB
}

// IsJump returns true for jal and jalr.
func (i *Instruction) IsJump() bool {
	return i != nil && (i.Op == OpJAL || i.Op == OpJALR)
}

// IsLoad returns true for lw.
func (i *Instruction) IsLoad() bool {
	return i != nil && i.Op == OpLW
}

// WritesReg returns true if the instruction names a destination register
// other than x0.
func (i *Instruction) WritesReg() bool {
	return i != nil && i.Rd.Valid() && i.Rd != X0
}

// String renders the instruction with its address.
func (i *Instruction) String() string {
	if i == nil {
		return "nop"
	}
	return fmt.Sprintf("[%#04x] %s", i.Addr, i.Text)
}
