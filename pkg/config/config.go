// Package config loads the machine configuration consumed by cmd/rvvm's
// run subcommand: memory size, register width, cycle budget, and cost
// schedule. The teacher ships no configuration file format at all; this
// follows rcornwell/S370's choice of github.com/BurntSushi/toml for its
// own machine configuration rather than a hand-rolled format.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// MachineConfig is the TOML-decoded shape of a machine's static
// configuration.
type MachineConfig struct {
	// MemorySize is the guest address space size in bytes. Must be a
	// multiple of the page size.
	MemorySize uint64 `toml:"memory_size"`

	// Width is the register width in bits: 32 or 64.
	Width uint `toml:"width"`

	// MaxCycles bounds execution; zero means unbounded.
	MaxCycles uint64 `toml:"max_cycles"`

	// CostSchedule names the cost model to use: "constant" or
	// "estimate". Defaults to "constant" if empty.
	CostSchedule string `toml:"cost_schedule"`

	// Backend names the memory backend to use: "flat" or "sparse".
	// Defaults to "sparse" if empty.
	Backend string `toml:"backend"`
}

// Default returns the configuration cmd/rvvm falls back to when no
// config file is given.
func Default() MachineConfig {
	return MachineConfig{
		MemorySize:   4 * 1024 * 1024,
		Width:        64,
		MaxCycles:    0,
		CostSchedule: "constant",
		Backend:      "sparse",
	}
}

// Load decodes a MachineConfig from the TOML file at path, validating
// the width and memory alignment fields before returning.
func Load(path string) (MachineConfig, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return MachineConfig{}, fmt.Errorf("%w: decoding config %s: %v", rverr.ErrParse, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return cfg, nil
}

// Validate checks the fields Load cannot verify by construction.
func (c MachineConfig) Validate() error {
	if c.Width != 32 && c.Width != 64 {
		return fmt.Errorf("%w: width must be 32 or 64, got %d", rverr.ErrParse, c.Width)
	}
	if c.MemorySize%4096 != 0 {
		return fmt.Errorf("%w: memory_size %d is not page-aligned", rverr.ErrUnaligned, c.MemorySize)
	}
	switch c.CostSchedule {
	case "", "constant", "estimate":
	default:
		return fmt.Errorf("%w: unknown cost_schedule %q", rverr.ErrParse, c.CostSchedule)
	}
	switch c.Backend {
	case "", "flat", "sparse":
	default:
		return fmt.Errorf("%w: unknown backend %q", rverr.ErrParse, c.Backend)
	}
	return nil
}
