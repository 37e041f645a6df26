package pipeline

import "github.com/sarchlab/rvpipe/insts"

// ForwardSource indicates where a forwarded value should come from.
type ForwardSource uint8

const (
	// ForwardNone means no forwarding needed - use register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEX means forward the value produced by the EX/MEM
	// instruction this cycle.
	ForwardFromEX
	// ForwardFromMEM means forward the MEM/WB write-back value.
	ForwardFromMEM
)

func (s ForwardSource) String() string {
	switch s {
	case ForwardFromEX:
		return "EX"
	case ForwardFromMEM:
		return "MEM"
	default:
		return "-"
	}
}

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	Rs1 ForwardSource
	Rs2 ForwardSource
}

// Any returns true if either operand is forwarded.
func (f ForwardingResult) Any() bool {
	return f.Rs1 != ForwardNone || f.Rs2 != ForwardNone
}

// HazardResult is the per-cycle decision of the hazard unit.
type HazardResult struct {
	Stall   bool
	Forward ForwardingResult
}

// HazardPolicy decides stalls and forwarding for the pipeline.
type HazardPolicy interface {
	// Detect inspects the live boundary registers before decode.
	Detect(regs *Registers) HazardResult

	// Bypass returns the EX/MEM ALU result for reg when the instruction
	// that just executed produced it. Loads are never bypassed.
	Bypass(exmem *EXMEMRegister, reg insts.Reg) (uint32, bool)
}

// HazardUnit detects data hazards and determines forwarding/stall signals.
type HazardUnit struct {
	loadUseStall bool
	forwarding   bool
}

// NewHazardUnit creates a hazard unit with load-use stalls and forwarding.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{loadUseStall: true, forwarding: true}
}

// NewForwardingUnit creates a hazard unit that forwards but never stalls.
func NewForwardingUnit() *HazardUnit {
	return &HazardUnit{forwarding: true}
}

// Detect checks the sources of the IF/ID instruction against the
// destinations of the ID/EX, EX/MEM, and MEM/WB instructions.
func (h *HazardUnit) Detect(regs *Registers) HazardResult {
	result := HazardResult{}

	next := regs.IFID.Inst
	if next.IsNop() {
		return result
	}

	if h.loadUseStall && h.DetectLoadUseHazard(regs.IDEX.Inst, next) {
		result.Stall = true
	}

	// A bubble in ID/EX, such as the one a stall leaves, must not suppress
	// forwarding from the older EX/MEM and MEM/WB records.
	if h.forwarding {
		result.Forward.Rs1 = h.detectForwardForReg(next.Rs1, regs)
		result.Forward.Rs2 = h.detectForwardForReg(next.Rs2, regs)
	}

	return result
}

// DetectLoadUseHazard returns true when load is a lw whose destination is a
// source of next.
func (h *HazardUnit) DetectLoadUseHazard(load, next *insts.Instruction) bool {
	if !load.IsLoad() || !load.WritesReg() {
		return false
	}
	return load.Rd == next.Rs1 || load.Rd == next.Rs2
}

// detectForwardForReg checks if a specific register needs forwarding.
func (h *HazardUnit) detectForwardForReg(reg insts.Reg, regs *Registers) ForwardSource {
	if !reg.Valid() || reg == insts.X0 {
		return ForwardNone
	}

	// EX/MEM has precedence over MEM/WB (more recent value)
	if producer := regs.EXMEM.Inst; producer.WritesReg() && producer.Rd == reg {
		return ForwardFromEX
	}

	if producer := regs.MEMWB.Inst; producer.WritesReg() && producer.Rd == reg {
		return ForwardFromMEM
	}

	return ForwardNone
}

// Bypass implements HazardPolicy.
func (h *HazardUnit) Bypass(exmem *EXMEMRegister, reg insts.Reg) (uint32, bool) {
	if !h.forwarding || !reg.Valid() || reg == insts.X0 {
		return 0, false
	}

	producer := exmem.Inst
	if !producer.WritesReg() || producer.IsLoad() || producer.Rd != reg {
		return 0, false
	}

	return exmem.ALUResult, true
}

// NoHazardUnit never stalls and never forwards.
type NoHazardUnit struct{}

// Detect always returns an empty result.
func (NoHazardUnit) Detect(*Registers) HazardResult {
	return HazardResult{}
}

// Bypass never supplies a value.
func (NoHazardUnit) Bypass(*EXMEMRegister, insts.Reg) (uint32, bool) {
	return 0, false
}
