package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvsandbox/rvvm/pkg/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rvvm.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
width = 32
memory_size = 8192
max_cycles = 1000
cost_schedule = "estimate"
backend = "flat"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 32, cfg.Width)
	assert.EqualValues(t, 8192, cfg.MemorySize)
	assert.EqualValues(t, 1000, cfg.MaxCycles)
	assert.Equal(t, "estimate", cfg.CostSchedule)
	assert.Equal(t, "flat", cfg.Backend)
}

func TestLoadFallsBackToDefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, `width = 64`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 64, cfg.Width)
	assert.Equal(t, config.Default().MemorySize, cfg.MemorySize)
	assert.Equal(t, "constant", cfg.CostSchedule)
}

func TestLoadRejectsBadWidth(t *testing.T) {
	path := writeConfig(t, `width = 16`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnalignedMemorySize(t *testing.T) {
	path := writeConfig(t, `
width = 64
memory_size = 100
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownCostSchedule(t *testing.T) {
	path := writeConfig(t, `
width = 64
cost_schedule = "bogus"
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}
