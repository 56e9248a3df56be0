package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/rv32ttd/rv32ttd/vm"
)

// Config represents the debugger's persisted configuration.
type Config struct {
	// Execution settings
	Execution struct {
		OverflowMode string `toml:"overflow_mode"` // wrap, saturate, trap
		WriteToX0    string `toml:"write_to_x0"`    // allow, warn, deny
		MaxCycles    uint64 `toml:"max_cycles"`
	} `toml:"execution"`

	// Memory settings
	Memory struct {
		DefaultByte    int  `toml:"default_byte"` // -1 means unset (uninitialized reads fault)
		AllowUnaligned bool `toml:"allow_unaligned"`
	} `toml:"memory"`

	// Debugger settings
	Debugger struct {
		HistorySize      int `toml:"history_size"`
		SnapshotInterval int `toml:"snapshot_interval"`
	} `toml:"debugger"`

	// Display settings
	Display struct {
		NumberFormat string `toml:"number_format"` // hex, dec
	} `toml:"display"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.OverflowMode = "trap"
	cfg.Execution.WriteToX0 = "warn"
	cfg.Execution.MaxCycles = 1_000_000

	cfg.Memory.DefaultByte = -1
	cfg.Memory.AllowUnaligned = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.SnapshotInterval = 1000

	cfg.Display.NumberFormat = "hex"

	return cfg
}

// OverflowMode resolves the configured overflow policy to its vm value.
func (c *Config) OverflowMode() (vm.OverflowMode, error) {
	switch c.Execution.OverflowMode {
	case "wrap":
		return vm.OverflowWrap, nil
	case "saturate":
		return vm.OverflowSaturate, nil
	case "trap", "":
		return vm.OverflowTrap, nil
	default:
		return 0, fmt.Errorf("unknown execution.overflow_mode %q", c.Execution.OverflowMode)
	}
}

// X0Policy resolves the configured x0-write policy to its vm value.
func (c *Config) X0Policy() (vm.X0Policy, error) {
	switch c.Execution.WriteToX0 {
	case "allow":
		return vm.X0Allow, nil
	case "warn", "":
		return vm.X0Warn, nil
	case "deny":
		return vm.X0Deny, nil
	default:
		return 0, fmt.Errorf("unknown execution.write_to_x0 %q", c.Execution.WriteToX0)
	}
}

// ExecConfig builds the vm execution configuration this config describes.
func (c *Config) ExecConfig() (vm.ExecConfig, error) {
	overflow, err := c.OverflowMode()
	if err != nil {
		return vm.ExecConfig{}, err
	}
	x0, err := c.X0Policy()
	if err != nil {
		return vm.ExecConfig{}, err
	}

	memCfg := vm.MemoryConfig{AllowUnaligned: c.Memory.AllowUnaligned}
	if c.Memory.DefaultByte >= 0 {
		b := byte(c.Memory.DefaultByte)
		memCfg.DefaultByte = &b
	}

	interval := c.Debugger.SnapshotInterval
	if interval <= 0 {
		interval = 1000
	}

	return vm.ExecConfig{
		OverflowMode:     overflow,
		WriteToX0:        x0,
		Memory:           memCfg,
		SnapshotInterval: uint64(interval),
	}, nil
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rv32ttd")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rv32ttd")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "rv32ttd", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "rv32ttd", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
