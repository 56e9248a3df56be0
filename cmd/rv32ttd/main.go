// Command rv32ttd is a time-travel debugger for RV32I assembly: run
// programs, step forward and backward through executed instructions, lint
// and reformat source, and serve the same session model over HTTP/WS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rv32ttd/rv32ttd/api"
	"github.com/rv32ttd/rv32ttd/asm"
	"github.com/rv32ttd/rv32ttd/config"
	"github.com/rv32ttd/rv32ttd/debugger"
	"github.com/rv32ttd/rv32ttd/loader"
	"github.com/rv32ttd/rv32ttd/tools"
	"github.com/rv32ttd/rv32ttd/vm"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// shutdownGrace bounds how long serve waits for in-flight requests to
// finish after an interrupt before forcing the listener closed.
const shutdownGrace = 5 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "rv32ttd",
		Short:   "A time-travel debugger for RV32I assembly",
		Version: Version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: platform config dir)")

	loadConfig := func() (*config.Config, error) {
		if configPath != "" {
			return config.LoadFrom(configPath)
		}
		return config.Load()
	}

	root.AddCommand(
		newRunCommand(loadConfig),
		newDebugCommand(loadConfig),
		newStepCommand(loadConfig),
		newAssembleCommand(),
		newServeCommand(loadConfig),
		newFmtCommand(),
		newLintCommand(),
	)
	return root
}

func newRunCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var maxCycles uint64

	cmd := &cobra.Command{
		Use:   "run <file.s>",
		Short: "Assemble and run a program to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if maxCycles > 0 {
				cfg.Execution.MaxCycles = maxCycles
			}

			exec, err := loader.LoadFile(args[0], cfg)
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}

			for {
				if cfg.Execution.MaxCycles > 0 && exec.Executed() >= cfg.Execution.MaxCycles {
					return fmt.Errorf("exceeded max cycles (%d)", cfg.Execution.MaxCycles)
				}
				if _, err := exec.Execute(); err != nil {
					if _, finished := err.(*vm.FinishedError); finished {
						fmt.Printf("finished at PC=0x%08x, %d instructions executed\n", exec.PC(), exec.Executed())
						return nil
					}
					return err
				}
			}
		},
	}
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", 0, "override execution.max_cycles from config")
	return cmd
}

func newDebugCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var cli bool

	cmd := &cobra.Command{
		Use:   "debug <file.s>",
		Short: "Open the interactive debugger (TUI by default, --cli for line mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			exec, err := loader.LoadFile(args[0], cfg)
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}

			dbg := debugger.NewDebugger(exec, cfg.Debugger.HistorySize)
			dbg.LoadSourceMap(sourceMapFor(exec))

			if cli {
				return debugger.RunCLI(dbg)
			}
			return debugger.RunTUI(dbg)
		},
	}
	cmd.Flags().BoolVar(&cli, "cli", false, "use the line-oriented debugger instead of the TUI")
	return cmd
}

func newStepCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "step <file.s>",
		Short: "Step a program forward (or backward, with a negative --count) and print the resulting state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			exec, err := loader.LoadFile(args[0], cfg)
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}

			if count >= 0 {
				for i := 0; i < count; i++ {
					if _, err := exec.Execute(); err != nil {
						if _, finished := err.(*vm.FinishedError); finished {
							break
						}
						return err
					}
				}
			} else {
				for i := 0; i < -count; i++ {
					if _, err := exec.Revert(); err != nil {
						return err
					}
				}
			}

			regs := exec.Registers()
			fmt.Printf("PC=0x%08x executed=%d call_depth=%d\n", exec.PC(), exec.Executed(), exec.ShadowDepth())
			for i := 0; i < vm.NumRegisters; i++ {
				reg := vm.RegisterID(i)
				fmt.Printf("%-4s = %d\n", reg, regs.Get(reg))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "instructions to step forward, or backward if negative")
	return cmd
}

func newAssembleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble <file.s>",
		Short: "Parse a program and print its decoded instructions without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0]) // #nosec G304 -- user-supplied source file
			if err != nil {
				return err
			}

			program, err := asm.NewParser(args[0]).Parse(string(source))
			if err != nil {
				return err
			}

			for i, instr := range program.Instructions {
				fmt.Printf("%04d  0x%08x  %s\n", i, uint32(i)*4, instr.Op)
			}
			return nil
		},
	}
}

func newServeCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the debug session HTTP/WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			server := api.NewServer(port, cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	return cmd
}

func newFmtCommand() *cobra.Command {
	var style string
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt <file.s>",
		Short: "Reformat assembly source to a consistent column layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0]) // #nosec G304 -- user-supplied source file
			if err != nil {
				return err
			}

			formatStyle, err := parseFormatStyle(style)
			if err != nil {
				return err
			}

			result, err := tools.FormatStringWithStyle(string(source), args[0], formatStyle)
			if err != nil {
				return err
			}

			if write {
				return os.WriteFile(args[0], []byte(result), 0600)
			}
			fmt.Print(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "default", "default, compact, or expanded")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file instead of stdout")
	return cmd
}

func newLintCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint <file.s>",
		Short: "Check assembly source for unused labels, unreachable code, and x0 destinations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0]) // #nosec G304 -- user-supplied source file
			if err != nil {
				return err
			}

			options := tools.DefaultLintOptions()
			options.Strict = strict

			issues := tools.NewLinter(options).Lint(string(source), args[0])
			fmt.Print(tools.FormatIssues(issues))

			if tools.HasErrors(issues) {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

// parseFormatStyle resolves style's name to a tools.FormatStyle.
func parseFormatStyle(style string) (tools.FormatStyle, error) {
	switch style {
	case "", "default":
		return tools.FormatDefault, nil
	case "compact":
		return tools.FormatCompact, nil
	case "expanded":
		return tools.FormatExpanded, nil
	default:
		return 0, fmt.Errorf("unknown format style %q", style)
	}
}

// sourceMapFor builds a trivial address-to-label map so the debugger's
// "list"/"info" commands have something human-readable to show; real
// source-line text isn't retained past assembly.
func sourceMapFor(exec *vm.Executor) map[uint32]string {
	out := make(map[uint32]string)
	for label, idx := range exec.Program().Labels {
		out[uint32(idx)*4] = label
	}
	return out
}
