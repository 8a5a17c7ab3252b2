// Package config loads threadgen settings from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"threadgen/internal/thread"
	"threadgen/internal/vm"
)

// Config represents configuration for the threadgen tool.
type Config struct {
	Debug       bool             `yaml:"debug" json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	JumpTargets map[string][]int `yaml:"jumpTargets,omitempty" json:"jumpTargets,omitempty" jsonschema:"title=Jump Targets,description=Opcode to operand offsets rewritten to label ranks; replaces the built-in table"`
	Labels      LabelsConfig     `yaml:"labels" json:"labels" jsonschema:"title=Output Labels"`
	VM          VMConfig         `yaml:"vm" json:"vm" jsonschema:"title=Virtual Machine"`
}

// LabelsConfig names the two output lines.
type LabelsConfig struct {
	Thread string `yaml:"thread" json:"thread" jsonschema:"description=Label of the label-position line,default=Thread"`
	Stream string `yaml:"stream" json:"stream" jsonschema:"description=Label of the rewritten-stream line,default=Instruments"`
}

// VMConfig sizes the machine used by the run command.
type VMConfig struct {
	MemorySize int `yaml:"memorySize" json:"memorySize" jsonschema:"description=Bytes of VM memory,minimum=1"`
	MaxSteps   int `yaml:"maxSteps" json:"maxSteps" jsonschema:"description=Instruction limit; -1 disables it"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Labels: LabelsConfig{
			Thread: thread.DefaultThreadLabel,
			Stream: thread.DefaultStreamLabel,
		},
		VM: VMConfig{
			MemorySize: vm.DefaultMemorySize,
			MaxSteps:   vm.DefaultMaxSteps,
		},
	}
}

// Load loads configuration from a YAML file. An empty path or a missing
// file yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	return load(path, false)
}

// LoadFile is Load for a path the user named explicitly: the file must
// exist.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	return load(path, true)
}

func load(path string, mustExist bool) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err) && !mustExist:
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("THREADGEN_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid THREADGEN_DEBUG %q: %w", v, err)
		}
		c.Debug = b
	}
	if v := os.Getenv("THREADGEN_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid THREADGEN_MAX_STEPS %q: %w", v, err)
		}
		c.VM.MaxSteps = n
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	ops := make([]string, 0, len(c.JumpTargets))
	for op := range c.JumpTargets {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		if op == "" {
			return fmt.Errorf("jumpTargets: empty opcode")
		}
		for _, off := range c.JumpTargets[op] {
			if off < 1 {
				return fmt.Errorf("jumpTargets: %s has offset %d (must be >= 1)", op, off)
			}
		}
	}
	if c.VM.MemorySize < 1 {
		return fmt.Errorf("vm.memorySize must be positive, got %d", c.VM.MemorySize)
	}
	if c.VM.MaxSteps == 0 || c.VM.MaxSteps < -1 {
		return fmt.Errorf("vm.maxSteps must be positive or -1, got %d", c.VM.MaxSteps)
	}
	return nil
}

// Policy returns the jump table: the configured one, or the default when
// none is set.
func (c *Config) Policy() thread.Policy {
	if len(c.JumpTargets) == 0 {
		return thread.DefaultPolicy()
	}
	p := make(thread.Policy, len(c.JumpTargets))
	for op, offs := range c.JumpTargets {
		p[op] = append([]int(nil), offs...)
	}
	return p
}

// ThreadLabel returns the label of the label-position line.
func (c *Config) ThreadLabel() string {
	if c.Labels.Thread == "" {
		return thread.DefaultThreadLabel
	}
	return c.Labels.Thread
}

// StreamLabel returns the label of the rewritten-stream line.
func (c *Config) StreamLabel() string {
	if c.Labels.Stream == "" {
		return thread.DefaultStreamLabel
	}
	return c.Labels.Stream
}

// MachineConfig returns the VM sizing.
func (c *Config) MachineConfig() vm.Config {
	return vm.Config{MemorySize: c.VM.MemorySize, MaxSteps: c.VM.MaxSteps}
}
