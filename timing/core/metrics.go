package core

import (
	"github.com/sarchlab/rvpipe/timing/cache"
	"github.com/sarchlab/rvpipe/timing/pipeline"
)

// Metrics accumulates the per-run counters of one processor.
type Metrics struct {
	CyclesTotal         uint64
	InstructionsRetired uint64
	BranchesTotal       uint64
	BranchesCorrect     uint64

	// Stalls counts load-use bubbles.
	Stalls uint64
	// Flushes counts mispredicted branches and jalr redirects.
	Flushes uint64
	// PredictedRedirects counts fetch redirects taken on a prediction.
	PredictedRedirects uint64
	// Forwards counts cycles in which an operand came from a later stage.
	Forwards uint64
}

// Tick counts one cycle.
func (m *Metrics) Tick() {
	m.CyclesTotal++
}

// TrackWriteback counts a retired instruction.
func (m *Metrics) TrackWriteback(retired bool) {
	if retired {
		m.InstructionsRetired++
	}
}

// TrackBranch counts one resolved branch or jal.
func (m *Metrics) TrackBranch(correct bool) {
	m.BranchesTotal++
	if correct {
		m.BranchesCorrect++
	}
}

// Record folds one cycle report into the counters.
func (m *Metrics) Record(report pipeline.CycleReport) {
	m.Tick()
	m.TrackWriteback(report.Retired != nil)

	if report.Branch != nil {
		m.TrackBranch(report.Branch.Correct())
	}

	switch report.Redirect.Kind {
	case pipeline.RedirectFlush:
		m.Flushes++
	case pipeline.RedirectPredicted:
		m.PredictedRedirects++
	}

	if report.Stalled {
		m.Stalls++
	}

	if report.Forwarded || report.Bypassed {
		m.Forwards++
	}
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	*m = Metrics{}
}

// CPI returns cycles per retired instruction, or 0 before anything retired.
func (m Metrics) CPI() float64 {
	if m.InstructionsRetired == 0 {
		return 0
	}
	return float64(m.CyclesTotal) / float64(m.InstructionsRetired)
}

// BranchAccuracy returns the percentage of correctly predicted branches.
// ok is false when no branch resolved.
func (m Metrics) BranchAccuracy() (accuracy float64, ok bool) {
	if m.BranchesTotal == 0 {
		return 0, false
	}
	return float64(m.BranchesCorrect) / float64(m.BranchesTotal) * 100, true
}

// Snapshot is the run summary handed to reports and the history log.
type Snapshot struct {
	Processor           string  `json:"processor"`
	CyclesTotal         uint64  `json:"cycles_total"`
	InstructionsRetired uint64  `json:"instructions_retired"`
	BranchesTotal       uint64  `json:"branches_total"`
	BranchesCorrect     uint64  `json:"branches_correct"`
	CPI                 float64 `json:"cpi"`

	// BranchAccuracy is nil when no branch resolved.
	BranchAccuracy *float64 `json:"branch_accuracy"`

	Stalls             uint64 `json:"stalls"`
	Flushes            uint64 `json:"flushes"`
	PredictedRedirects uint64 `json:"predicted_redirects"`
	Forwards           uint64 `json:"forwards"`

	ClockPeriodNs   uint64 `json:"clock_period_ns"`
	EstimatedTimeNs uint64 `json:"estimated_time_ns"`

	DCache *cache.Statistics `json:"dcache,omitempty"`
}

func (m Metrics) snapshot(name string, clockPeriodNs uint64) Snapshot {
	s := Snapshot{
		Processor:           name,
		CyclesTotal:         m.CyclesTotal,
		InstructionsRetired: m.InstructionsRetired,
		BranchesTotal:       m.BranchesTotal,
		BranchesCorrect:     m.BranchesCorrect,
		CPI:                 m.CPI(),
		Stalls:              m.Stalls,
		Flushes:             m.Flushes,
		PredictedRedirects:  m.PredictedRedirects,
		Forwards:            m.Forwards,
		ClockPeriodNs:       clockPeriodNs,
		EstimatedTimeNs:     m.CyclesTotal * clockPeriodNs,
	}

	if acc, ok := m.BranchAccuracy(); ok {
		s.BranchAccuracy = &acc
	}

	return s
}
