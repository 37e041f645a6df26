package pipeline

import (
	"github.com/sarchlab/rvpipe/emu"
	"github.com/sarchlab/rvpipe/insts"
)

// FetchStage handles instruction fetch from instruction memory.
type FetchStage struct {
	memory *emu.Memory[*insts.Instruction]
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(memory *emu.Memory[*insts.Instruction]) *FetchStage {
	return &FetchStage{
		memory: memory,
	}
}

// Fetch reads the instruction at pc. Past the end of the program, or at an
// empty slot, the record holds a nop and ok is false. An unaligned pc is a
// fatal access fault.
func (s *FetchStage) Fetch(pc uint32) (rec IFIDRegister, ok bool, err error) {
	if pc%emu.WordBytes != 0 {
		return IFIDRegister{}, false, &emu.AddressError{Addr: pc, Reason: "unaligned fetch"}
	}

	inst, err := s.memory.LoadWord(pc)
	if err != nil || inst == nil {
		rec.Clear(pc)
		return rec, false, nil
	}

	return IFIDRegister{Inst: inst, PC: pc}, true, nil
}

// ForwardValues carries the values behind the forwarding tags for one
// cycle: EX is what the EX/MEM instruction produces this cycle and MEM is
// the MEM/WB write-back value.
type ForwardValues struct {
	EX  uint32
	MEM uint32
}

// DecodeStage handles control signal generation, register read, and
// branch prediction.
type DecodeStage struct {
	regFile   *emu.RegFile
	control   *ControlUnit
	predictor BranchPolicy
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile, predictor BranchPolicy) *DecodeStage {
	return &DecodeStage{
		regFile:   regFile,
		control:   NewControlUnit(),
		predictor: predictor,
	}
}

// Decode reads the operands of the IF/ID instruction, replacing tagged
// operands with forwarded values, and predicts conditional branches and
// jal.
func (s *DecodeStage) Decode(
	ifid *IFIDRegister,
	fwd ForwardingResult,
	values ForwardValues,
) (IDEXRegister, error) {
	var rec IDEXRegister

	inst := ifid.Inst
	if inst.IsNop() {
		rec.Clear(ifid.PC)
		return rec, nil
	}

	signals, err := s.control.Signals(inst.Op)
	if err != nil {
		return rec, err
	}

	rec = IDEXRegister{
		Inst:     inst,
		PC:       ifid.PC,
		Rs1Value: s.operand(inst.Rs1, fwd.Rs1, values),
		Rs2Value: s.operand(inst.Rs2, fwd.Rs2, values),
		Imm:      inst.Imm,
		Rd:       inst.Rd,
		Control:  signals,
		Forward:  fwd,
	}

	if predicted(inst) {
		if s.predictor.Predict(ifid.PC).Taken {
			rec.PredictedTaken = true
			rec.PredictedTarget = ifid.PC + uint32(inst.Imm)
		}
	}

	return rec, nil
}

func (s *DecodeStage) operand(reg insts.Reg, src ForwardSource, values ForwardValues) uint32 {
	switch src {
	case ForwardFromEX:
		return values.EX
	case ForwardFromMEM:
		return values.MEM
	default:
		return s.regFile.ReadReg(reg)
	}
}

// predicted returns true for the instructions that go through the branch
// predictor: conditional branches and jal. The jalr target depends on a
// register, so it is never predicted.
func predicted(inst *insts.Instruction) bool {
	return inst.IsBranch() || (inst != nil && inst.Op == insts.OpJAL)
}

// ExecuteStage handles ALU operations, address calculation, and branch
// resolution.
type ExecuteStage struct {
	predictor BranchPolicy
	hazard    HazardPolicy
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage(predictor BranchPolicy, hazard HazardPolicy) *ExecuteStage {
	return &ExecuteStage{
		predictor: predictor,
		hazard:    hazard,
	}
}

// Execute runs the ID/EX instruction. exmem is the record latched last
// cycle, which the hazard policy may bypass from.
func (s *ExecuteStage) Execute(idex *IDEXRegister, exmem *EXMEMRegister) (EXMEMRegister, error) {
	var rec EXMEMRegister

	inst := idex.Inst
	if inst.IsNop() {
		rec.Clear(idex.PC)
		return rec, nil
	}

	rs1, rs2 := idex.Rs1Value, idex.Rs2Value
	bypassed := false
	if v, ok := s.hazard.Bypass(exmem, inst.Rs1); ok {
		rs1 = v
		bypassed = true
	}
	if v, ok := s.hazard.Bypass(exmem, inst.Rs2); ok {
		rs2 = v
		bypassed = true
	}

	operand2 := rs2
	if idex.Control.ALUSrc {
		operand2 = uint32(idex.Imm)
	}

	result, err := ALU(idex.Control.ALUOp, rs1, operand2, idex.PC, idex.Imm)
	if err != nil {
		return rec, err
	}

	rec = EXMEMRegister{
		Inst:           inst,
		PC:             idex.PC,
		ALUResult:      result,
		StoreValue:     rs2,
		Rd:             idex.Rd,
		Control:        idex.Control,
		PredictedTaken: idex.PredictedTaken,
		Bypassed:       bypassed,
	}

	switch {
	case inst.Op == insts.OpJALR:
		rec.BranchTaken = true
		rec.TargetAddress = (rs1 + uint32(idex.Imm)) &^ 1
		rec.FlushRequired = true

	case predicted(inst):
		taken := inst.Op == insts.OpJAL || BranchTaken(inst.Op, rs1, rs2)
		rec.BranchTaken = taken
		rec.TargetAddress = idex.PC + uint32(idex.Imm)
		rec.Resolved = true

		s.predictor.Update(idex.PC, taken)
		rec.FlushRequired = s.predictor.FlushRequired(idex.PredictedTaken, taken)
	}

	return rec, nil
}

// ALU computes one ALU operation. a and b are the two operands after the
// ALUSrc mux; pc and imm feed the upper-immediate and link operations.
func ALU(op ALUOp, a, b, pc uint32, imm int32) (uint32, error) {
	switch op {
	case ALUAdd:
		return a + b, nil
	case ALUSub:
		return a - b, nil
	case ALUAnd:
		return a & b, nil
	case ALUOr:
		return a | b, nil
	case ALUXor:
		return a ^ b, nil
	case ALUSlt:
		if int32(a) < int32(b) {
			return 1, nil
		}
		return 0, nil
	case ALUSll:
		return a << (b & 31), nil
	case ALUSrl:
		return a >> (b & 31), nil
	case ALUSra:
		return uint32(int32(a) >> (b & 31)), nil
	case ALULui:
		return uint32(imm) << 12, nil
	case ALUAuipc:
		return pc + uint32(imm)<<12, nil
	case ALULink:
		return pc + 4, nil
	default:
		return 0, &UnsupportedOperationError{Op: op.String()}
	}
}

// BranchTaken evaluates the condition of a B-type instruction.
func BranchTaken(op insts.Op, rs1, rs2 uint32) bool {
	switch op {
	case insts.OpBEQ:
		return rs1 == rs2
	case insts.OpBNE:
		return rs1 != rs2
	case insts.OpBLT:
		return int32(rs1) < int32(rs2)
	case insts.OpBGE:
		return int32(rs1) >= int32(rs2)
	case insts.OpBLTU:
		return rs1 < rs2
	case insts.OpBGEU:
		return rs1 >= rs2
	default:
		return false
	}
}

// MemoryAccessor is implemented by the memory stages.
type MemoryAccessor interface {
	Access(exmem *EXMEMRegister) (MEMWBRegister, error)
}

// MemoryStage handles memory reads and writes.
type MemoryStage struct {
	memory *emu.Memory[uint32]
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory[uint32]) *MemoryStage {
	return &MemoryStage{
		memory: memory,
	}
}

// Access performs the load or store of the EX/MEM instruction, using the
// ALU result as the effective address.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (MEMWBRegister, error) {
	return access(exmem, s.memory.LoadWord, s.memory.StoreWord)
}

func access(
	exmem *EXMEMRegister,
	load func(uint32) (uint32, error),
	store func(uint32, uint32) error,
) (MEMWBRegister, error) {
	var rec MEMWBRegister

	if exmem.Inst.IsNop() {
		rec.Clear(exmem.PC)
		return rec, nil
	}

	rec = MEMWBRegister{
		Inst:      exmem.Inst,
		PC:        exmem.PC,
		ALUResult: exmem.ALUResult,
		Rd:        exmem.Rd,
		Control:   exmem.Control,
	}

	switch {
	case exmem.Control.MemRead:
		data, err := load(exmem.ALUResult)
		if err != nil {
			return rec, err
		}
		rec.MemData = data
	case exmem.Control.MemWrite:
		if err := store(exmem.ALUResult, exmem.StoreValue); err != nil {
			return rec, err
		}
	}

	return rec, nil
}

// WritebackStage handles register write-back.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{
		regFile: regFile,
	}
}

// Writeback writes the MEM/WB result to the register file. It returns true
// if a real instruction retired.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) bool {
	if memwb.Inst.IsNop() {
		return false
	}

	if memwb.WritesBack() {
		s.regFile.WriteReg(memwb.Rd, memwb.WriteBackValue())
	}

	return true
}
