// Package benchmarks provides a microbenchmark harness that runs small
// programs on every processor configuration and checks their results.
package benchmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/sarchlab/rvpipe/timing/cache"
	"github.com/sarchlab/rvpipe/timing/core"
)

// BenchmarkResult holds the results of one benchmark on one configuration.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Metrics is the processor snapshot after the run
	Metrics core.Snapshot `json:"metrics"`

	// Correct is true if every expected register held its value
	Correct bool `json:"correct"`

	// Mismatches lists the registers that differed, as "x5=3 want 20"
	Mismatches []string `json:"mismatches,omitempty"`

	// Error is set when the run stopped early, e.g. at the cycle limit
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the source and its preloads
	Program core.Program

	// Expect maps register names to their values after a correct run
	Expect map[string]uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Configs are the processor configurations to run each benchmark on
	Configs []core.Config

	// EnableDCache enables data cache simulation
	EnableDCache bool

	// MaxCycles bounds each run so a configuration that computes a wrong
	// loop bound still terminates
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Configs:   core.AllConfigs(),
		MaxCycles: 10000,
		Output:    os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if len(config.Configs) == 0 {
		config.Configs = core.AllConfigs()
	}
	return &Harness{
		config: config,
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll runs every benchmark on every configuration, benchmark-major.
// Runs that stop at the cycle limit or on a fatal stage error are reported
// in their result; only load failures and cancellation abort the harness.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Configs))

	for _, bench := range h.benchmarks {
		for _, config := range h.config.Configs {
			result, err := h.runBenchmark(ctx, bench, config)
			if err != nil {
				return nil, fmt.Errorf("%s on %s: %w", bench.Name, config, err)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

func (h *Harness) runBenchmark(ctx context.Context, bench Benchmark, config core.Config) (BenchmarkResult, error) {
	opts := []core.ProcessorOption{core.WithMaxCycles(h.config.MaxCycles)}
	if h.config.EnableDCache {
		opts = append(opts, core.WithDataCache(cache.DefaultL1DConfig()))
	}

	p, err := core.NewProcessor(config, opts...)
	if err != nil {
		return BenchmarkResult{}, err
	}

	if err := p.Load(bench.Program); err != nil {
		return BenchmarkResult{}, err
	}

	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	start := time.Now()
	err = p.Run(ctx, core.RunFull, 0)
	result.WallTime = time.Since(start)

	switch {
	case err == nil:
	case errors.Is(err, core.ErrCycleLimit), errors.Is(err, core.ErrHalted):
		result.Error = err.Error()
	default:
		return BenchmarkResult{}, err
	}

	result.Metrics = p.Snapshot()

	for _, name := range slices.Sorted(maps.Keys(bench.Expect)) {
		got, err := p.Register(name)
		if err != nil {
			return BenchmarkResult{}, err
		}
		if want := bench.Expect[name]; got != want {
			result.Mismatches = append(result.Mismatches,
				fmt.Sprintf("%s=%d want %d", name, int32(got), int32(want)))
		}
	}
	result.Correct = result.Error == "" && len(result.Mismatches) == 0

	return result, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output
	_, _ = fmt.Fprintln(out, "=== rvpipe Benchmark Results ===")

	name := ""
	for _, r := range results {
		if r.Name != name {
			name = r.Name
			_, _ = fmt.Fprintf(out, "\nBenchmark: %s\n", r.Name)
			_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		}

		m := r.Metrics
		status := "ok"
		switch {
		case r.Error != "":
			status = r.Error
		case !r.Correct:
			status = fmt.Sprintf("wrong result %v", r.Mismatches)
		}

		_, _ = fmt.Fprintf(out, "  %-12s cycles=%-6d retired=%-6d CPI=%.3f stalls=%d flushes=%d  %s\n",
			m.Processor, m.CyclesTotal, m.InstructionsRetired, m.CPI, m.Stalls, m.Flushes, status)
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,config,cycles,instructions,cpi,branches,branches_correct,stalls,flushes,forwards,correct")

	for _, r := range results {
		m := r.Metrics
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			m.Processor,
			m.CyclesTotal,
			m.InstructionsRetired,
			m.CPI,
			m.BranchesTotal,
			m.BranchesCorrect,
			m.Stalls,
			m.Flushes,
			m.Forwards,
			r.Correct,
		)
	}
}

// PrintJSON outputs benchmark results as a JSON array.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
