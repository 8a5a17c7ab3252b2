package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadgen/internal/thread"
	"threadgen/internal/vm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "threadgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, thread.DefaultPolicy(), cfg.Policy())
		assert.Equal(t, "Thread", cfg.ThreadLabel())
		assert.Equal(t, "Instruments", cfg.StreamLabel())
		assert.Equal(t, vm.Config{MemorySize: vm.DefaultMemorySize, MaxSteps: vm.DefaultMaxSteps}, cfg.MachineConfig())
	})
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
debug: true
jumpTargets:
  DT_JMP: [1]
  DT_CALL: [1]
labels:
  thread: Labels
vm:
  memorySize: 1024
  maxSteps: 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, thread.Policy{"DT_JMP": {1}, "DT_CALL": {1}}, cfg.Policy())
	assert.Equal(t, "Labels", cfg.ThreadLabel())
	assert.Equal(t, "Instruments", cfg.StreamLabel())
	assert.Equal(t, 1024, cfg.VM.MemorySize)
	assert.Equal(t, 500, cfg.VM.MaxSteps)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "vm: [1, 2"},
		{"zero offset", "jumpTargets:\n  DT_JMP: [0]\n"},
		{"zero memory", "vm:\n  memorySize: 0\n"},
		{"bad max steps", "vm:\n  maxSteps: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMustExist(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, os.IsNotExist(errors.Unwrap(err)))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := LoadFile("")
		assert.Error(t, err)
	})

	t.Run("existing file", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, "labels:\n  stream: S\n"))
		require.NoError(t, err)
		assert.Equal(t, "S", cfg.StreamLabel())
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("debug and steps", func(t *testing.T) {
		t.Setenv("THREADGEN_DEBUG", "true")
		t.Setenv("THREADGEN_MAX_STEPS", "-1")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.Debug)
		assert.Equal(t, -1, cfg.VM.MaxSteps)
	})

	t.Run("env wins over file", func(t *testing.T) {
		t.Setenv("THREADGEN_DEBUG", "0")

		cfg, err := Load(writeConfig(t, "debug: true\n"))
		require.NoError(t, err)
		assert.False(t, cfg.Debug)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("THREADGEN_MAX_STEPS", "lots")

		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JumpTargets = map[string][]int{"DT_IF_ELSE": {1, 2}}
	path := filepath.Join(t.TempDir(), "sub", "threadgen.yaml")

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPolicyIsCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JumpTargets = map[string][]int{"DT_JMP": {1}}

	p := cfg.Policy()
	p["DT_JMP"][0] = 9
	assert.Equal(t, []int{1}, cfg.JumpTargets["DT_JMP"])
}
