package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/rvpipe/benchmarks"
	"github.com/sarchlab/rvpipe/timing/core"
)

func newBenchCmd(g *globalFlags) *cobra.Command {
	var (
		configNames []string
		coreOnly    bool
		csv         bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the built-in microbenchmarks on every configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := benchmarks.DefaultConfig()
			config.Output = cmd.OutOrStdout()
			config.EnableDCache = g.dcache
			if g.maxCycles > 0 {
				config.MaxCycles = g.maxCycles
			}

			config.Configs = nil
			for _, name := range configNames {
				c, err := core.ParseConfig(name)
				if err != nil {
					return err
				}
				config.Configs = append(config.Configs, c)
			}

			h := benchmarks.NewHarness(config)
			if coreOnly {
				h.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			} else {
				h.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			results, err := h.RunAll(cmd.Context())
			if err != nil {
				return err
			}

			switch {
			case g.jsonOutput:
				return h.PrintJSON(results)
			case csv:
				h.PrintCSV(results)
			default:
				h.PrintResults(results)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&configNames, "configs", nil, "comma-separated configurations to run (default all four)")
	f.BoolVar(&coreOnly, "core", false, "run only the three core benchmarks")
	f.BoolVar(&csv, "csv", false, "print the results as CSV")

	return cmd
}
