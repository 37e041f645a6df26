package core

import "errors"

var (
	// ErrHalted is returned by every cycle after a fatal stage error. The
	// processor stays halted until Reset or LoadProgram.
	ErrHalted = errors.New("processor halted")

	// ErrCycleLimit is returned when a run reaches the limit set with
	// WithMaxCycles before the pipeline drained.
	ErrCycleLimit = errors.New("cycle limit reached")

	// ErrInvalidName is returned by NewProcessor for a name set with
	// WithName that is not a valid component name.
	ErrInvalidName = errors.New("invalid processor name")

	// ErrUnknownConfig is returned by ParseConfig.
	ErrUnknownConfig = errors.New("unknown processor configuration")
)
