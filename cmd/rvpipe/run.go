package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvpipe/timing/core"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		configName string
		modeName   string
		delay      time.Duration
		trace      bool
	)

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program on one configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := core.ParseConfig(configName)
			if err != nil {
				return err
			}

			mode, err := core.ParseRunMode(modeName)
			if err != nil {
				return err
			}

			prog, err := g.program(args[0])
			if err != nil {
				return err
			}

			opts, err := g.processorOptions(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if trace || mode == core.RunStep {
				opts = append(opts, core.WithCycleHook(traceHook(out)))
			}
			if mode == core.RunStep {
				opts = append(opts, core.WithStepHook(stepHook(cmd.InOrStdin(), out)))
			}

			p, err := core.NewProcessor(config, opts...)
			if err != nil {
				return err
			}

			if err := p.Load(prog); err != nil {
				return err
			}

			if err := p.Run(cmd.Context(), mode, delay); err != nil {
				return err
			}

			if g.jsonOutput {
				return writeJSON(out, p.Snapshot())
			}

			writeSnapshot(out, p.Snapshot())
			writeRegisters(out, p.Registers())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configName, "config", "c", core.ConfigFull.String(),
		"configuration: Basic, NoHazards, NoPredictor, or Full")
	f.StringVar(&modeName, "mode", "full", "pacing: full, step, or delay")
	f.DurationVar(&delay, "delay", 500*time.Millisecond, "pause between cycles in delay mode")
	f.BoolVar(&trace, "trace", false, "print the pipeline after every cycle")

	return cmd
}

func traceHook(out io.Writer) core.Hook {
	return func(_ context.Context, p *core.Processor) error {
		fmt.Fprintln(out, formatCycle(p.Metrics().CyclesTotal, p.LastCycle()))
		fmt.Fprint(out, p.DumpPipeline())
		return nil
	}
}

// stepHook waits for a line on in before every cycle. EOF ends stepping
// and lets the run finish.
func stepHook(in io.Reader, out io.Writer) core.Hook {
	reader := bufio.NewReader(in)
	interactive := true

	return func(ctx context.Context, _ *core.Processor) error {
		if !interactive {
			return ctx.Err()
		}

		fmt.Fprint(out, "-- press Enter for the next cycle --")
		if _, err := reader.ReadString('\n'); err != nil {
			if err != io.EOF {
				return err
			}
			interactive = false
		}
		fmt.Fprintln(out)
		return ctx.Err()
	}
}
