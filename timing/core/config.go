package core

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rvpipe/timing/pipeline"
)

// Config selects which hazard and prediction mechanisms a processor wires
// in.
type Config uint8

const (
	// ConfigBasic has no hazard handling and never predicts. Taken branches
	// still redirect fetch when they resolve.
	ConfigBasic Config = iota
	// ConfigNoHazards forwards operands but never stalls on a load-use
	// dependency, and predicts branches.
	ConfigNoHazards
	// ConfigNoPredictor has the full hazard unit and always predicts not
	// taken.
	ConfigNoPredictor
	// ConfigFull has the full hazard unit and the 1-bit branch predictor.
	ConfigFull

	numConfigs
)

var configNames = [numConfigs]string{
	ConfigBasic:       "Basic",
	ConfigNoHazards:   "NoHazards",
	ConfigNoPredictor: "NoPredictor",
	ConfigFull:        "Full",
}

func (c Config) String() string {
	if c.Valid() {
		return configNames[c]
	}
	return fmt.Sprintf("Config(%d)", uint8(c))
}

// Valid returns true for the four defined configurations.
func (c Config) Valid() bool {
	return c < numConfigs
}

// AllConfigs returns every configuration in declaration order.
func AllConfigs() []Config {
	return []Config{ConfigBasic, ConfigNoHazards, ConfigNoPredictor, ConfigFull}
}

// ParseConfig parses a configuration name. Matching ignores case, dashes,
// and underscores, so "no-hazards" and "NoHazards" are the same.
func ParseConfig(name string) (Config, error) {
	key := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))

	for c, n := range configNames {
		if strings.ToLower(n) == key {
			return Config(c), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownConfig, name)
}

// policies builds fresh policy objects for one processor.
func (c Config) policies() (pipeline.HazardPolicy, pipeline.BranchPolicy) {
	switch c {
	case ConfigNoHazards:
		return pipeline.NewForwardingUnit(), pipeline.NewBranchPredictor()
	case ConfigNoPredictor:
		return pipeline.NewHazardUnit(), pipeline.NewNullPredictor()
	case ConfigFull:
		return pipeline.NewHazardUnit(), pipeline.NewBranchPredictor()
	default:
		return pipeline.NoHazardUnit{}, pipeline.NewNullPredictor()
	}
}
