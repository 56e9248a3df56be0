package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rv32ttd/rv32ttd/vm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Execution.OverflowMode != "trap" {
		t.Errorf("Expected OverflowMode=trap, got %s", cfg.Execution.OverflowMode)
	}
	if cfg.Execution.WriteToX0 != "warn" {
		t.Errorf("Expected WriteToX0=warn, got %s", cfg.Execution.WriteToX0)
	}
	if cfg.Execution.MaxCycles != 1_000_000 {
		t.Errorf("Expected MaxCycles=1000000, got %d", cfg.Execution.MaxCycles)
	}

	if cfg.Debugger.HistorySize != 1000 {
		t.Errorf("Expected HistorySize=1000, got %d", cfg.Debugger.HistorySize)
	}
	if cfg.Debugger.SnapshotInterval != 1000 {
		t.Errorf("Expected SnapshotInterval=1000, got %d", cfg.Debugger.SnapshotInterval)
	}

	if cfg.Display.NumberFormat != "hex" {
		t.Errorf("Expected NumberFormat=hex, got %s", cfg.Display.NumberFormat)
	}
	if cfg.Memory.DefaultByte != -1 {
		t.Errorf("Expected DefaultByte=-1 (unset), got %d", cfg.Memory.DefaultByte)
	}
}

func TestExecConfigResolution(t *testing.T) {
	cfg := DefaultConfig()
	ec, err := cfg.ExecConfig()
	if err != nil {
		t.Fatalf("ExecConfig: %v", err)
	}
	if ec.OverflowMode != vm.OverflowTrap {
		t.Errorf("expected OverflowTrap, got %v", ec.OverflowMode)
	}
	if ec.WriteToX0 != vm.X0Warn {
		t.Errorf("expected X0Warn, got %v", ec.WriteToX0)
	}
	if ec.Memory.DefaultByte != nil {
		t.Error("expected nil DefaultByte when unset")
	}
	if ec.SnapshotInterval != 1000 {
		t.Errorf("expected SnapshotInterval=1000, got %d", ec.SnapshotInterval)
	}
}

func TestExecConfigRejectsUnknownOverflowMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Execution.OverflowMode = "bogus"
	if _, err := cfg.ExecConfig(); err == nil {
		t.Error("expected error for unknown overflow mode")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "rv32ttd" && path != "config.toml" {
			t.Errorf("Expected path in rv32ttd directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Execution.MaxCycles = 5_000_000
	cfg.Execution.OverflowMode = "saturate"
	cfg.Debugger.HistorySize = 500
	cfg.Memory.AllowUnaligned = true

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Execution.MaxCycles != 5_000_000 {
		t.Errorf("Expected MaxCycles=5000000, got %d", loaded.Execution.MaxCycles)
	}
	if loaded.Execution.OverflowMode != "saturate" {
		t.Errorf("Expected OverflowMode=saturate, got %s", loaded.Execution.OverflowMode)
	}
	if loaded.Debugger.HistorySize != 500 {
		t.Errorf("Expected HistorySize=500, got %d", loaded.Debugger.HistorySize)
	}
	if !loaded.Memory.AllowUnaligned {
		t.Error("Expected AllowUnaligned=true")
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Execution.MaxCycles != 1_000_000 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[execution]
max_cycles = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
