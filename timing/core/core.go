// Package core provides the processor model. A Processor wires the
// 5-stage pipeline to its register file and memories under one of four
// hazard and prediction configurations, and accumulates run metrics.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rvpipe/emu"
	"github.com/sarchlab/rvpipe/insts"
	"github.com/sarchlab/rvpipe/timing/cache"
	"github.com/sarchlab/rvpipe/timing/latency"
	"github.com/sarchlab/rvpipe/timing/pipeline"
)

// RunMode controls how Run paces cycles.
type RunMode uint8

const (
	// RunFull runs back to back until the pipeline drains.
	RunFull RunMode = iota
	// RunStep waits for the step hook after every cycle.
	RunStep
	// RunDelay sleeps between cycles.
	RunDelay
)

func (m RunMode) String() string {
	switch m {
	case RunStep:
		return "step"
	case RunDelay:
		return "delay"
	default:
		return "full"
	}
}

// ParseRunMode parses "full", "step", or "delay".
func ParseRunMode(s string) (RunMode, error) {
	switch s {
	case "full":
		return RunFull, nil
	case "step":
		return RunStep, nil
	case "delay":
		return RunDelay, nil
	default:
		return 0, fmt.Errorf("unknown run mode %q", s)
	}
}

// Hook is called by Run between cycles.
type Hook func(ctx context.Context, p *Processor) error

// ProcessorOption is a functional option for configuring the Processor.
type ProcessorOption func(*Processor)

// WithInstructionMemoryWords sets the instruction memory size in words.
func WithInstructionMemoryWords(words int) ProcessorOption {
	return func(p *Processor) {
		p.instWords = words
	}
}

// WithDataMemoryWords sets the data memory size in words.
func WithDataMemoryWords(words int) ProcessorOption {
	return func(p *Processor) {
		p.dataWords = words
	}
}

// WithTimingConfig sets the stage latencies used for the clock period.
func WithTimingConfig(config *latency.TimingConfig) ProcessorOption {
	return func(p *Processor) {
		p.timing = config
	}
}

// WithDataCache puts an L1 data cache in front of data memory.
func WithDataCache(config cache.Config) ProcessorOption {
	return func(p *Processor) {
		p.dcacheConfig = &config
	}
}

// WithLogger sets the logger for processor and pipeline events.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithName overrides the processor name, which defaults to the
// configuration name. Names follow akita component naming, for example
// "Core[0]" or "Soc.Core".
func WithName(name string) ProcessorOption {
	return func(p *Processor) {
		p.name = name
	}
}

// WithMaxCycles bounds every run. Zero means unbounded.
func WithMaxCycles(n uint64) ProcessorOption {
	return func(p *Processor) {
		p.maxCycles = n
	}
}

// WithStepHook sets the acknowledgement RunStep waits for after each
// cycle.
func WithStepHook(hook Hook) ProcessorOption {
	return func(p *Processor) {
		p.stepHook = hook
	}
}

// WithCycleHook sets a hook that Run calls after every cycle in any mode.
func WithCycleHook(hook Hook) ProcessorOption {
	return func(p *Processor) {
		p.cycleHook = hook
	}
}

// Processor is one pipelined core with its own register file, instruction
// memory, and data memory.
type Processor struct {
	name   string
	config Config

	regFile *emu.RegFile
	instMem *emu.Memory[*insts.Instruction]
	dataMem *emu.Memory[uint32]
	decoder *insts.Decoder
	pipe    *pipeline.Pipeline
	latency *latency.Table

	metrics Metrics
	last    pipeline.CycleReport
	halted  error

	instWords    int
	dataWords    int
	timing       *latency.TimingConfig
	dcacheConfig *cache.Config
	logger       *slog.Logger
	maxCycles    uint64
	stepHook     Hook
	cycleHook    Hook
}

// NewProcessor creates a processor in the given configuration with empty
// memories.
func NewProcessor(config Config, opts ...ProcessorOption) (*Processor, error) {
	if !config.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConfig, config)
	}

	p := &Processor{
		name:      config.String(),
		config:    config,
		instWords: emu.DefaultMemoryWords,
		dataWords: emu.DefaultMemoryWords,
		timing:    latency.DefaultTimingConfig(),
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validateName(p.name); err != nil {
		return nil, err
	}

	if err := p.timing.Validate(); err != nil {
		return nil, fmt.Errorf("timing config: %w", err)
	}

	p.logger = p.logger.With("processor", p.name)
	p.latency = latency.NewTableWithConfig(p.timing)
	p.regFile = emu.NewRegFile()
	p.instMem = emu.NewMemory[*insts.Instruction](p.instWords)
	p.dataMem = emu.NewMemory[uint32](p.dataWords)
	p.decoder = insts.NewDecoder()

	hazard, predictor := config.policies()
	pipeOpts := []pipeline.PipelineOption{
		pipeline.WithHazardPolicy(hazard),
		pipeline.WithBranchPolicy(predictor),
		pipeline.WithLogger(p.logger),
	}

	if p.dcacheConfig != nil {
		dcache, err := cache.New(*p.dcacheConfig, p.dataMem)
		if err != nil {
			return nil, fmt.Errorf("data cache: %w", err)
		}
		pipeOpts = append(pipeOpts, pipeline.WithDCache(dcache))
	}

	p.pipe = pipeline.NewPipeline(p.regFile, p.instMem, p.dataMem, pipeOpts...)

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return p.name
}

// Config returns the processor configuration.
func (p *Processor) Config() Config {
	return p.config
}

// LoadProgram decodes lines into instruction memory starting at address 0
// and restarts the pipeline. Nothing changes if any line fails to decode.
// Registers and data memory are kept so preloads may come in either order.
func (p *Processor) LoadProgram(lines []string) error {
	program := make([]*insts.Instruction, len(lines))
	for i, line := range lines {
		inst, err := p.decoder.Decode(line, uint32(i*emu.WordBytes))
		if err != nil {
			return err
		}
		program[i] = inst
	}

	if len(program) > p.instMem.Size() {
		return fmt.Errorf("program of %d instructions does not fit in %d words",
			len(program), p.instMem.Size())
	}

	p.instMem.Reset()
	if err := p.instMem.Load(0, program); err != nil {
		return err
	}

	p.restart()
	p.logger.Debug("program loaded", "instructions", len(program))

	return nil
}

// PreloadRegisters writes initial register values. Names may be xN or ABI
// aliases; values keep their low 32 bits.
func (p *Processor) PreloadRegisters(values map[string]int64) error {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if err := p.regFile.Write(name, uint32(values[name])); err != nil {
			return err
		}
	}
	return nil
}

// PreloadDataMemory writes initial data memory words keyed by byte
// address. Values keep their low 32 bits.
func (p *Processor) PreloadDataMemory(values map[uint32]int64) error {
	dcache := p.pipe.DCache()
	for _, addr := range slices.Sorted(maps.Keys(values)) {
		if err := p.dataMem.StoreWord(addr, uint32(values[addr])); err != nil {
			return err
		}
		if dcache != nil {
			dcache.Invalidate(addr)
		}
	}
	return nil
}

// Load loads the program and then applies its preloads.
func (p *Processor) Load(prog Program) error {
	if err := p.LoadProgram(prog.Lines); err != nil {
		return err
	}
	if err := p.PreloadRegisters(prog.Registers); err != nil {
		return err
	}
	return p.PreloadDataMemory(prog.Data)
}

// IsDone returns true once at least one cycle ran and every boundary
// register holds a nop.
func (p *Processor) IsDone() bool {
	return p.metrics.CyclesTotal > 0 && p.pipe.Drained()
}

// RunOneCycle advances the processor by one cycle and returns true when
// the pipeline has drained. A done processor does not tick again.
func (p *Processor) RunOneCycle() (bool, error) {
	if p.halted != nil {
		return false, p.halted
	}

	if p.IsDone() {
		return true, nil
	}

	if p.maxCycles > 0 && p.metrics.CyclesTotal >= p.maxCycles {
		return false, fmt.Errorf("%w: %d cycles", ErrCycleLimit, p.maxCycles)
	}

	report, err := p.pipe.Tick()
	if err != nil {
		p.halted = fmt.Errorf("%w: cycle %d: %w", ErrHalted, p.metrics.CyclesTotal+1, err)
		p.logger.Error("fatal stage error", "cycle", p.metrics.CyclesTotal+1, "err", err)
		return false, p.halted
	}

	p.last = report
	p.metrics.Record(report)

	return p.IsDone(), nil
}

// Run advances the processor until the pipeline drains or a cycle fails.
// Cancelling ctx stops it between cycles. delay is only used by RunDelay.
func (p *Processor) Run(ctx context.Context, mode RunMode, delay time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := p.RunOneCycle()
		if err != nil {
			return err
		}

		if p.cycleHook != nil {
			if err := p.cycleHook(ctx, p); err != nil {
				return err
			}
		}

		if done {
			p.logger.Debug("run complete",
				"cycles", p.metrics.CyclesTotal,
				"retired", p.metrics.InstructionsRetired)
			return nil
		}

		if err := p.pace(ctx, mode, delay); err != nil {
			return err
		}
	}
}

func (p *Processor) pace(ctx context.Context, mode RunMode, delay time.Duration) error {
	switch mode {
	case RunStep:
		if p.stepHook != nil {
			return p.stepHook(ctx, p)
		}
	case RunDelay:
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// DumpPipeline returns a copy of the four boundary registers.
func (p *Processor) DumpPipeline() pipeline.Snapshot {
	return p.pipe.Registers().Dump()
}

// Registers returns a copy of x0..x31.
func (p *Processor) Registers() [insts.NumRegs]uint32 {
	return p.regFile.Dump()
}

// Register reads one register by name.
func (p *Processor) Register(name string) (uint32, error) {
	return p.regFile.Read(name)
}

// DumpDataMemory returns the data words from one byte address to another,
// both inclusive.
func (p *Processor) DumpDataMemory(from, to uint32) ([]emu.Word[uint32], error) {
	return p.dataMem.Dump(from, to)
}

// LastCycle describes the most recent cycle.
func (p *Processor) LastCycle() pipeline.CycleReport {
	return p.last
}

// Metrics returns the raw counters.
func (p *Processor) Metrics() Metrics {
	return p.metrics
}

// Snapshot returns the run summary.
func (p *Processor) Snapshot() Snapshot {
	s := p.metrics.snapshot(p.name, p.latency.ClockPeriodNs())
	if dcache := p.pipe.DCache(); dcache != nil {
		stats := dcache.Stats()
		s.DCache = &stats
	}
	return s
}

// ClockFrequency returns the clock derived from the slowest stage.
func (p *Processor) ClockFrequency() sim.Freq {
	return p.latency.ClockFrequency()
}

// EstimatedDuration returns the wall time the cycles so far would take at
// the derived clock.
func (p *Processor) EstimatedDuration() time.Duration {
	return p.latency.EstimateDuration(p.metrics.CyclesTotal)
}

// Reset clears registers, both memories, the pipeline, and the metrics.
func (p *Processor) Reset() {
	p.regFile.Reset()
	p.instMem.Reset()
	p.dataMem.Reset()
	p.restart()
}

func (p *Processor) restart() {
	p.pipe.Reset()
	p.metrics.Reset()
	p.last = pipeline.CycleReport{}
	p.halted = nil
}

func validateName(name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidName, r)
		}
	}()

	sim.NameMustBeValid(name)

	return nil
}
