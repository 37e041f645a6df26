package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the latency of each pipeline stage in nanoseconds.
// The pipelined clock runs at the pace of the slowest stage.
type TimingConfig struct {
	// IFLatencyNs is the instruction fetch latency. Default: 1 ns.
	IFLatencyNs uint64 `json:"if_latency_ns"`

	// IDLatencyNs is the decode and register read latency. Default: 1 ns.
	IDLatencyNs uint64 `json:"id_latency_ns"`

	// EXLatencyNs is the ALU latency. Default: 2 ns.
	EXLatencyNs uint64 `json:"ex_latency_ns"`

	// MEMLatencyNs is the data memory access latency. Default: 4 ns.
	MEMLatencyNs uint64 `json:"mem_latency_ns"`

	// WBLatencyNs is the register write-back latency. Default: 1 ns.
	WBLatencyNs uint64 `json:"wb_latency_ns"`
}

// DefaultTimingConfig returns a TimingConfig with the default stage
// latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		IFLatencyNs:  1,
		IDLatencyNs:  1,
		EXLatencyNs:  2,
		MEMLatencyNs: 4,
		WBLatencyNs:  1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Keys missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.IFLatencyNs == 0 {
		return fmt.Errorf("if_latency_ns must be > 0")
	}
	if c.IDLatencyNs == 0 {
		return fmt.Errorf("id_latency_ns must be > 0")
	}
	if c.EXLatencyNs == 0 {
		return fmt.Errorf("ex_latency_ns must be > 0")
	}
	if c.MEMLatencyNs == 0 {
		return fmt.Errorf("mem_latency_ns must be > 0")
	}
	if c.WBLatencyNs == 0 {
		return fmt.Errorf("wb_latency_ns must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
