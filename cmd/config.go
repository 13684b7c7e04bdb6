// cmd/config.go
package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gpusim/gpusim/sim"
	"github.com/gpusim/gpusim/sim/interconnect"
)

// DeviceProfile names a compute-unit configuration preset in devices.yaml.
type DeviceProfile struct {
	MaxThreads                    uint32 `yaml:"max_threads"`
	MaxWarps                      uint32 `yaml:"max_warps"`
	MaxBlocks                     uint32 `yaml:"max_blocks"`
	TotalRegisters                uint32 `yaml:"total_registers"`
	RegisterAllocationGranularity uint32 `yaml:"register_allocation_granularity"`
	TotalSmemBytes                uint32 `yaml:"total_smem_bytes"`
	SmemAllocationGranularity     uint32 `yaml:"smem_allocation_granularity"`
}

// ToComputeUnitConfig converts a YAML profile to a sim.ComputeUnitConfig.
func (p DeviceProfile) ToComputeUnitConfig() sim.ComputeUnitConfig {
	return sim.ComputeUnitConfig{
		MaxThreads:                    p.MaxThreads,
		MaxWarps:                      p.MaxWarps,
		MaxBlocks:                     p.MaxBlocks,
		TotalRegisters:                p.TotalRegisters,
		RegisterAllocationGranularity: p.RegisterAllocationGranularity,
		TotalSmemBytes:                p.TotalSmemBytes,
		SmemAllocationGranularity:     p.SmemAllocationGranularity,
	}
}

// ChannelProfile names an interconnect channel preset in devices.yaml.
type ChannelProfile struct {
	BandwidthGBs float64 `yaml:"bandwidth_gb_s"`
	LatencyUs    float64 `yaml:"latency_us"`
	SpineLevels  uint32  `yaml:"spine_levels"`
}

// ToChannelConfig converts a YAML profile to an interconnect.ChannelConfig.
func (p ChannelProfile) ToChannelConfig() interconnect.ChannelConfig {
	return interconnect.ChannelConfig{
		BandwidthGBs: p.BandwidthGBs,
		LatencyUs:    p.LatencyUs,
		SpineLevels:  p.SpineLevels,
	}
}

// TopologyConfig is the full devices.yaml structure: named device and
// channel presets a deployment can select by name on the command line.
// All top-level sections must be listed to satisfy KnownFields(true) strict
// parsing — a typo'd key is a config error, not a silently-ignored field.
type TopologyConfig struct {
	Version  string                    `yaml:"version"`
	Devices  map[string]DeviceProfile  `yaml:"devices"`
	Channels map[string]ChannelProfile `yaml:"channels"`
}

// LoadTopologyConfig reads and strictly parses a devices.yaml file.
func LoadTopologyConfig(path string) (*TopologyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology config %s: %w", path, err)
	}

	var cfg TopologyConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing topology config %s: %w", path, err)
	}
	return &cfg, nil
}

// resolveDeviceConfig looks up a device preset by name, falling back to the
// built-in H100 config for the conventional "h100"/"" names and the
// built-in A100 config for "a100", so the CLI works with no config file.
func resolveDeviceConfig(cfg *TopologyConfig, name string) (sim.ComputeUnitConfig, error) {
	if cfg != nil {
		if p, ok := cfg.Devices[name]; ok {
			return p.ToComputeUnitConfig(), nil
		}
	}
	switch name {
	case "", "h100":
		return sim.H100ComputeUnitConfig(), nil
	case "a100":
		return sim.A100ComputeUnitConfig(), nil
	default:
		return sim.ComputeUnitConfig{}, fmt.Errorf("unknown device profile %q", name)
	}
}
