package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/rvpipe/emu"
	"github.com/sarchlab/rvpipe/insts"
	"github.com/sarchlab/rvpipe/timing/cache"
)

// RedirectKind tells why fetch was redirected at the start of a cycle.
type RedirectKind uint8

const (
	// RedirectNone leaves fetch on its sequential path.
	RedirectNone RedirectKind = iota
	// RedirectFlush follows a branch that resolved against its prediction.
	RedirectFlush
	// RedirectPredicted follows a branch that decode predicted taken.
	RedirectPredicted
)

func (k RedirectKind) String() string {
	switch k {
	case RedirectFlush:
		return "flush"
	case RedirectPredicted:
		return "predicted"
	default:
		return "none"
	}
}

// Redirect is the fetch redirect decided from the records latched by the
// previous cycle.
type Redirect struct {
	Kind   RedirectKind
	Target uint32
}

// BranchResolution describes a predicted instruction resolved in Execute.
type BranchResolution struct {
	PC        uint32
	Predicted bool
	Actual    bool
}

// Correct returns true if the prediction matched the outcome.
func (b BranchResolution) Correct() bool {
	return b.Predicted == b.Actual
}

// CycleReport describes what happened during one cycle.
type CycleReport struct {
	Redirect Redirect
	Hazard   HazardResult

	// Stalled is set when a bubble was inserted.
	Stalled bool

	// Forwarded is set when decode took an operand from a forwarding tag.
	Forwarded bool

	// Bypassed is set when execute took an operand from the EX/MEM latch.
	Bypassed bool

	// Retired is the instruction that completed write-back, nil if none.
	Retired *insts.Instruction

	// Branch is set when a conditional branch or jal resolved.
	Branch *BranchResolution

	// FetchHalted is set once fetch ran past the end of the program.
	FetchHalted bool
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithHazardPolicy sets the stall and forwarding policy. The default is
// NoHazardUnit.
func WithHazardPolicy(policy HazardPolicy) PipelineOption {
	return func(p *Pipeline) {
		p.hazard = policy
	}
}

// WithBranchPolicy sets the branch predictor. The default is NullPredictor.
func WithBranchPolicy(policy BranchPolicy) PipelineOption {
	return func(p *Pipeline) {
		p.predictor = policy
	}
}

// WithDCache routes data memory accesses through the given L1 data cache.
// The cache must be backed by the pipeline's data memory.
func WithDCache(dcache *cache.Cache) PipelineOption {
	return func(p *Pipeline) {
		p.cachedMemoryStage = NewCachedMemoryStage(dcache)
	}
}

// WithLogger sets the logger for pipeline events.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline implements a 5-stage pipelined RISC-V model.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
type Pipeline struct {
	regs Registers

	// Pipeline stages
	fetchStage        *FetchStage
	decodeStage       *DecodeStage
	executeStage      *ExecuteStage
	memoryStage       *MemoryStage
	writebackStage    *WritebackStage
	cachedMemoryStage *CachedMemoryStage

	hazard    HazardPolicy
	predictor BranchPolicy

	logger *slog.Logger

	// Program counter of the next fetch
	pc          uint32
	fetchHalted bool
}

// NewPipeline creates a new 5-stage pipeline over the given register file
// and memories.
func NewPipeline(
	regFile *emu.RegFile,
	instMem *emu.Memory[*insts.Instruction],
	dataMem *emu.Memory[uint32],
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		fetchStage:     NewFetchStage(instMem),
		memoryStage:    NewMemoryStage(dataMem),
		writebackStage: NewWritebackStage(regFile),
		hazard:         NoHazardUnit{},
		predictor:      NewNullPredictor(),
		logger:         slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.decodeStage = NewDecodeStage(regFile, p.predictor)
	p.executeStage = NewExecuteStage(p.predictor, p.hazard)
	p.regs.Reset()

	return p
}

// PC returns the address of the next fetch.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// SetPC sets the program counter and resumes fetching.
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
	p.fetchHalted = false
}

// FetchHalted returns true once fetch ran past the end of the program and
// no redirect has restarted it.
func (p *Pipeline) FetchHalted() bool {
	return p.fetchHalted
}

// Registers returns the live boundary registers.
func (p *Pipeline) Registers() *Registers {
	return &p.regs
}

// Drained returns true if every boundary register holds a nop.
func (p *Pipeline) Drained() bool {
	return p.regs.Drained()
}

// BranchPolicy returns the branch predictor in use.
func (p *Pipeline) BranchPolicy() BranchPolicy {
	return p.predictor
}

// DCache returns the data cache, or nil if none is configured.
func (p *Pipeline) DCache() *cache.Cache {
	if p.cachedMemoryStage == nil {
		return nil
	}
	return p.cachedMemoryStage.Cache()
}

// Tick executes one pipeline cycle.
//
// The redirect requested by last cycle's records is applied first: a flush
// from a resolved misprediction takes precedence over a predicted-taken
// redirect from decode. The hazard policy then inspects the records, and
// the stages are evaluated in reverse order (WB→MEM→EX→ID→IF) so each one
// reads its input record before the latch at cycle end overwrites it.
func (p *Pipeline) Tick() (CycleReport, error) {
	var report CycleReport
	regs := &p.regs

	report.Redirect = p.applyRedirect()

	hz := p.hazard.Detect(regs)
	report.Hazard = hz

	if p.writebackStage.Writeback(&regs.MEMWB) {
		report.Retired = regs.MEMWB.Inst
	}

	accessed, err := p.memory().Access(&regs.EXMEM)
	if err != nil {
		return report, stageError("MEM", regs.EXMEM.PC, err)
	}

	executed, err := p.executeStage.Execute(&regs.IDEX, &regs.EXMEM)
	if err != nil {
		return report, stageError("EX", regs.IDEX.PC, err)
	}
	report.Bypassed = executed.Bypassed
	if executed.Resolved {
		report.Branch = &BranchResolution{
			PC:        executed.PC,
			Predicted: executed.PredictedTaken,
			Actual:    executed.BranchTaken,
		}
	}

	if hz.Stall {
		p.logger.Debug("load-use stall",
			"pc", fmt.Sprintf("%#x", regs.IFID.PC),
			"inst", regs.IFID.Inst.Text,
			"load", regs.IDEX.Inst.Text)

		regs.InsertStall(executed, accessed)
		report.Stalled = true
		report.FetchHalted = p.fetchHalted
		return report, nil
	}

	values := ForwardValues{
		EX:  accessed.WriteBackValue(),
		MEM: regs.MEMWB.WriteBackValue(),
	}
	decoded, err := p.decodeStage.Decode(&regs.IFID, hz.Forward, values)
	if err != nil {
		return report, stageError("ID", regs.IFID.PC, err)
	}
	report.Forwarded = hz.Forward.Any()

	fetched, err := p.fetch()
	if err != nil {
		return report, stageError("IF", p.pc, err)
	}

	regs.Shift(fetched, decoded, executed, accessed)
	report.FetchHalted = p.fetchHalted

	return report, nil
}

// applyRedirect reads the redirect requested by the latched EX/MEM and
// ID/EX records and applies it to the fetch path.
func (p *Pipeline) applyRedirect() Redirect {
	regs := &p.regs

	if target, ok := regs.EXMEM.Redirect(); ok {
		p.logger.Debug("flush",
			"branch", regs.EXMEM.Inst.Text,
			"target", fmt.Sprintf("%#x", target))

		regs.Flush()
		p.SetPC(target)
		return Redirect{Kind: RedirectFlush, Target: target}
	}

	if regs.IDEX.PredictedTaken {
		target := regs.IDEX.PredictedTarget
		p.logger.Debug("predicted-taken redirect",
			"branch", regs.IDEX.Inst.Text,
			"target", fmt.Sprintf("%#x", target))

		regs.IFID.Clear(regs.IFID.PC)
		p.SetPC(target)
		return Redirect{Kind: RedirectPredicted, Target: target}
	}

	return Redirect{}
}

func (p *Pipeline) memory() MemoryAccessor {
	if p.cachedMemoryStage != nil {
		return p.cachedMemoryStage
	}
	return p.memoryStage
}

func (p *Pipeline) fetch() (IFIDRegister, error) {
	if p.fetchHalted {
		var rec IFIDRegister
		rec.Clear(p.pc)
		return rec, nil
	}

	rec, ok, err := p.fetchStage.Fetch(p.pc)
	if err != nil {
		return rec, err
	}

	if !ok {
		p.logger.Debug("fetch halted", "pc", fmt.Sprintf("%#x", p.pc))
		p.fetchHalted = true
		return rec, nil
	}

	p.pc += 4
	return rec, nil
}

// StageError wraps a fatal error raised by one stage.
type StageError struct {
	Stage string
	PC    uint32
	Err   error
}

func stageError(stage string, pc uint32, err error) *StageError {
	return &StageError{Stage: stage, PC: pc, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage at pc %#x: %v", e.Stage, e.PC, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Reset clears the boundary registers, the program counter, and the
// predictor. Caches are invalidated.
func (p *Pipeline) Reset() {
	p.regs.Reset()
	p.pc = 0
	p.fetchHalted = false
	p.predictor.Reset()
	if dcache := p.DCache(); dcache != nil {
		dcache.Reset()
	}
}
