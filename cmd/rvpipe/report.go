package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/rvpipe/insts"
	"github.com/sarchlab/rvpipe/timing/core"
	"github.com/sarchlab/rvpipe/timing/pipeline"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func accuracy(s core.Snapshot) string {
	if s.BranchAccuracy == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *s.BranchAccuracy)
}

func writeSnapshot(w io.Writer, s core.Snapshot) {
	fmt.Fprintf(w, "Processor:            %s\n", s.Processor)
	fmt.Fprintf(w, "Cycles:               %d\n", s.CyclesTotal)
	fmt.Fprintf(w, "Instructions retired: %d\n", s.InstructionsRetired)
	fmt.Fprintf(w, "CPI:                  %.2f\n", s.CPI)
	fmt.Fprintf(w, "Branches:             %d/%d correct (%s)\n",
		s.BranchesCorrect, s.BranchesTotal, accuracy(s))
	fmt.Fprintf(w, "Stalls:               %d\n", s.Stalls)
	fmt.Fprintf(w, "Flushes:              %d\n", s.Flushes)
	fmt.Fprintf(w, "Forwards:             %d\n", s.Forwards)
	fmt.Fprintf(w, "Estimated time:       %d ns (%d ns clock)\n", s.EstimatedTimeNs, s.ClockPeriodNs)

	if s.DCache != nil {
		fmt.Fprintf(w, "L1D:                  %d hits, %d misses (%.1f%%)\n",
			s.DCache.Hits, s.DCache.Misses, s.DCache.HitRate())
	}
}

// writeRegisters prints the registers that are not zero.
func writeRegisters(w io.Writer, regs [insts.NumRegs]uint32) {
	fmt.Fprintln(w, "\nRegisters:")
	for i, v := range regs {
		if v != 0 {
			fmt.Fprintf(w, "  %-4s = %d (%#x)\n", insts.Reg(i), int32(v), v)
		}
	}
}

func writeComparison(w io.Writer, results []core.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tCYCLES\tRETIRED\tCPI\tBRANCHES\tACCURACY\tSTALLS\tFLUSHES")
	for _, s := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%d/%d\t%s\t%d\t%d\n",
			s.Processor, s.CyclesTotal, s.InstructionsRetired, s.CPI,
			s.BranchesCorrect, s.BranchesTotal, accuracy(s), s.Stalls, s.Flushes)
	}
	return tw.Flush()
}

func formatCycle(cycle uint64, r pipeline.CycleReport) string {
	line := fmt.Sprintf("cycle %d:", cycle)

	switch r.Redirect.Kind {
	case pipeline.RedirectFlush:
		line += fmt.Sprintf(" flush->%#x", r.Redirect.Target)
	case pipeline.RedirectPredicted:
		line += fmt.Sprintf(" predicted->%#x", r.Redirect.Target)
	}
	if r.Stalled {
		line += " stall"
	}
	if r.Forwarded {
		line += fmt.Sprintf(" fwd=%s/%s", r.Hazard.Forward.Rs1, r.Hazard.Forward.Rs2)
	}
	if r.Bypassed {
		line += " bypass"
	}
	if r.Branch != nil {
		line += fmt.Sprintf(" branch@%#x predicted=%t actual=%t",
			r.Branch.PC, r.Branch.Predicted, r.Branch.Actual)
	}
	if r.Retired != nil {
		line += " retired " + r.Retired.Text
	}

	return line
}
