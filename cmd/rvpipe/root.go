package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvpipe/loader"
	"github.com/sarchlab/rvpipe/timing/cache"
	"github.com/sarchlab/rvpipe/timing/core"
	"github.com/sarchlab/rvpipe/timing/latency"
)

// flags shared by every subcommand.
type globalFlags struct {
	verbose    bool
	jsonOutput bool
	dcache     bool
	timingPath string
	maxCycles  uint64
	regs       []string
	mems       []string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "rvpipe",
		Short: "Cycle-accurate 5-stage RISC-V pipeline simulator",
		Long: `rvpipe runs a program on a 5-stage in-order pipeline and reports
cycles, CPI, and branch prediction accuracy. Four configurations combine
load-use stalls, operand forwarding, and a 1-bit branch predictor.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log pipeline events to stderr")
	pf.BoolVar(&g.jsonOutput, "json", false, "print the report as JSON")
	pf.BoolVar(&g.dcache, "dcache", false, "put an L1 data cache in front of data memory")
	pf.StringVar(&g.timingPath, "timing", "", "path to a stage latency JSON file")
	pf.Uint64Var(&g.maxCycles, "max-cycles", 100000, "stop a run after this many cycles (0 for no limit)")
	pf.StringArrayVar(&g.regs, "reg", nil, "preload a register, e.g. x2=10 (repeatable)")
	pf.StringArrayVar(&g.mems, "mem", nil, "preload a data word, e.g. 4=100 (repeatable)")

	root.AddCommand(newRunCmd(g), newCompareCmd(g), newBenchCmd(g))

	return root
}

// program loads the program file and applies the --reg and --mem
// preloads on top of its directives.
func (g *globalFlags) program(path string) (core.Program, error) {
	prog, err := loader.Load(path)
	if err != nil {
		return core.Program{}, err
	}

	for _, a := range g.regs {
		if err := loader.AddRegister(prog.Registers, a); err != nil {
			return core.Program{}, err
		}
	}

	for _, a := range g.mems {
		if err := loader.AddData(prog.Data, a); err != nil {
			return core.Program{}, err
		}
	}

	return prog, nil
}

// processorOptions builds the options shared by every processor.
func (g *globalFlags) processorOptions(stderr io.Writer) ([]core.ProcessorOption, error) {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts := []core.ProcessorOption{
		core.WithLogger(logger),
		core.WithMaxCycles(g.maxCycles),
	}

	if g.timingPath != "" {
		timing, err := latency.LoadConfig(g.timingPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithTimingConfig(timing))
	}

	if g.dcache {
		opts = append(opts, core.WithDataCache(cache.DefaultL1DConfig()))
	}

	return opts, nil
}
