package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/rvpipe/timing/core"
)

func newCompareCmd(g *globalFlags) *cobra.Command {
	var configNames []string

	cmd := &cobra.Command{
		Use:   "compare <program>",
		Short: "Run a program on several configurations and compare them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configs := make([]core.Config, 0, len(configNames))
			for _, name := range configNames {
				config, err := core.ParseConfig(name)
				if err != nil {
					return err
				}
				configs = append(configs, config)
			}

			prog, err := g.program(args[0])
			if err != nil {
				return err
			}

			opts, err := g.processorOptions(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			results, err := core.Compare(cmd.Context(), prog, configs, opts...)
			if err != nil {
				return err
			}

			if g.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			return writeComparison(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringSliceVar(&configNames, "configs", nil,
		"comma-separated configurations to run (default all four)")

	return cmd
}
