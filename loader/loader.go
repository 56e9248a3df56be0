// Package loader reads assembly source files from disk and turns them into
// a runnable vm.Executor.
package loader

import (
	"fmt"
	"os"

	"github.com/rv32ttd/rv32ttd/asm"
	"github.com/rv32ttd/rv32ttd/config"
	"github.com/rv32ttd/rv32ttd/vm"
)

// LoadFile reads the assembly source at path, parses it, and builds an
// Executor configured per cfg. The returned Executor's PC starts at
// instruction index 0 — RV32I programs have no alternate entry point,
// execution always begins at the first instruction.
func LoadFile(path string, cfg *config.Config) (*vm.Executor, error) {
	src, err := os.ReadFile(path) // #nosec G304 -- user-supplied program path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return LoadSource(string(src), path, cfg)
}

// LoadSource parses src (attributing errors to filename) and builds an
// Executor configured per cfg.
func LoadSource(src, filename string, cfg *config.Config) (*vm.Executor, error) {
	p := asm.NewParser(filename)
	program, err := p.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("assembly error:\n%w", err)
	}

	execCfg, err := cfg.ExecConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return vm.NewExecutor(program, execCfg), nil
}
