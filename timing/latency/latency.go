// Package latency provides per-stage timing for the pipeline model.
package latency

import (
	"fmt"
	"time"

	"github.com/sarchlab/akita/v4/sim"
)

// Stage identifies one of the five pipeline stages.
type Stage uint8

// Pipeline stages in program order.
const (
	StageIF Stage = iota
	StageID
	StageEX
	StageMEM
	StageWB
	NumStages
)

var stageNames = [NumStages]string{"IF", "ID", "EX", "MEM", "WB"}

func (s Stage) String() string {
	if s < NumStages {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Table provides stage latencies and the derived clock.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing values.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// StageLatencyNs returns the latency of one stage.
func (t *Table) StageLatencyNs(s Stage) uint64 {
	switch s {
	case StageIF:
		return t.config.IFLatencyNs
	case StageID:
		return t.config.IDLatencyNs
	case StageEX:
		return t.config.EXLatencyNs
	case StageMEM:
		return t.config.MEMLatencyNs
	case StageWB:
		return t.config.WBLatencyNs
	default:
		return 0
	}
}

// ClockPeriodNs returns the period of the pipelined clock, which is the
// latency of the slowest stage.
func (t *Table) ClockPeriodNs() uint64 {
	var period uint64
	for s := StageIF; s < NumStages; s++ {
		period = max(period, t.StageLatencyNs(s))
	}
	return period
}

// ClockFrequency returns the pipelined clock as an Akita frequency.
func (t *Table) ClockFrequency() sim.Freq {
	period := t.ClockPeriodNs()
	if period == 0 {
		return 0
	}
	return sim.GHz / sim.Freq(period)
}

// InstructionLatencyNs returns the time one instruction spends going
// through all five stages without pipelining.
func (t *Table) InstructionLatencyNs() uint64 {
	var total uint64
	for s := StageIF; s < NumStages; s++ {
		total += t.StageLatencyNs(s)
	}
	return total
}

// EstimateDuration returns the wall time of the given number of pipelined
// cycles.
func (t *Table) EstimateDuration(cycles uint64) time.Duration {
	return time.Duration(cycles*t.ClockPeriodNs()) * time.Nanosecond
}

// Config returns the timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
